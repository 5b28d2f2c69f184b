package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/fringedb/pkg/codec"
	"github.com/cuemby/fringedb/pkg/store"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump PATH",
	Short: "Decode and pretty-print the full reachable object graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		s, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}

		visited := make(map[string]bool)
		dumpObject(s, s.Root(), 0, visited)
		return nil
	},
}

// dumpObject prints o and recurses into every descendant reachable
// through a list/set/ordered-set/single reference property, skipping
// UUIDs already visited so a cyclic graph terminates. Serialization
// itself walks the identity map rather than the reference graph for
// the same reason.
func dumpObject(s *store.Store, o *store.Object, depth int, visited map[string]bool) {
	indent := strings.Repeat("  ", depth)
	if visited[o.UUID()] {
		fmt.Printf("%s%s %s (already printed)\n", indent, o.TypeTag(), o.UUID())
		return
	}
	visited[o.UUID()] = true

	fmt.Printf("%s%s %s\n", indent, o.TypeTag(), o.UUID())
	bag := o.ToSerializable()
	printPropertyBag(bag, depth+1)

	for _, ref := range collectRefs(bag) {
		if child, ok := s.Lookup(ref.UUID); ok {
			dumpObject(s, child, depth+1, visited)
		}
	}
}

func collectRefs(bag codec.PropertyBag) []*codec.ObjectRef {
	var refs []*codec.ObjectRef
	for _, v := range bag {
		refs = append(refs, refsIn(v)...)
	}
	return refs
}

func refsIn(v codec.Value) []*codec.ObjectRef {
	switch v.Kind {
	case codec.KindObjectRef:
		if v.Ref != nil {
			return []*codec.ObjectRef{v.Ref}
		}
	case codec.KindList, codec.KindSet, codec.KindOrderedSet:
		var out []*codec.ObjectRef
		for _, e := range v.List {
			out = append(out, refsIn(e)...)
		}
		return out
	}
	return nil
}

func printProperties(o *store.Object, depth int) {
	printPropertyBag(o.ToSerializable(), depth)
}

func printPropertyBag(bag codec.PropertyBag, depth int) {
	indent := strings.Repeat("  ", depth)
	names := make([]string, 0, len(bag))
	for name := range bag {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s%s: %s\n", indent, name, formatValue(bag[name]))
	}
}

func formatValue(v codec.Value) string {
	switch v.Kind {
	case codec.KindNull:
		return "null"
	case codec.KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case codec.KindInt64:
		return fmt.Sprintf("%d", v.Int64)
	case codec.KindUint64:
		return fmt.Sprintf("%d", v.Uint64)
	case codec.KindFloat64:
		return fmt.Sprintf("%g", v.Float64)
	case codec.KindString:
		return fmt.Sprintf("%q", v.String)
	case codec.KindBinary:
		return fmt.Sprintf("<%d bytes>", len(v.Binary))
	case codec.KindTimestamp:
		return v.Timestamp.Format("2006-01-02T15:04:05Z07:00")
	case codec.KindObjectRef:
		if v.Ref == nil {
			return "<nil ref>"
		}
		return fmt.Sprintf("-> %s %s", v.Ref.TypeTag, v.Ref.UUID)
	case codec.KindList, codec.KindSet, codec.KindOrderedSet:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case codec.KindMap:
		return fmt.Sprintf("<map, %d keys>", len(v.Map))
	default:
		return "<unknown>"
	}
}
