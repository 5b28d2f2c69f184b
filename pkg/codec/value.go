package codec

import "time"

// Kind discriminates the shape of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindUint64
	KindFloat64
	KindString
	KindBinary
	KindTimestamp
	KindList
	KindSet
	KindOrderedSet
	KindMap
	KindObjectRef
)

// PropertyBag is the mapping of property name to Value carried by every
// Object and by every nested nested-object-reference.
type PropertyBag map[string]Value

// Value is a self-describing scalar, aggregate, or descendant-object
// reference. Exactly one of the typed fields is meaningful; which one is
// determined by Kind.
type Value struct {
	Kind Kind

	Bool      bool
	Int64     int64
	Uint64    uint64
	Float64   float64
	String    string
	Binary    []byte
	Timestamp time.Time

	List []Value // KindList, KindSet, KindOrderedSet
	Map  PropertyBag

	Ref *ObjectRef // KindObjectRef
}

// ObjectRef is the descendant-object marker: a type tag, a UUID, and an
// optional nested property bag. pkg/store fills only TypeTag and UUID and
// rebuilds its identity map from the flat object table in its data file,
// not from these references.
type ObjectRef struct {
	TypeTag    string
	UUID       string
	Properties PropertyBag
}

func Null() Value                { return Value{Kind: KindNull} }
func Bool(v bool) Value          { return Value{Kind: KindBool, Bool: v} }
func Int64(v int64) Value        { return Value{Kind: KindInt64, Int64: v} }
func Uint64(v uint64) Value      { return Value{Kind: KindUint64, Uint64: v} }
func Float64(v float64) Value    { return Value{Kind: KindFloat64, Float64: v} }
func String(v string) Value      { return Value{Kind: KindString, String: v} }
func Binary(v []byte) Value      { return Value{Kind: KindBinary, Binary: v} }
func Timestamp(v time.Time) Value {
	return Value{Kind: KindTimestamp, Timestamp: v.UTC()}
}
func List(v []Value) Value { return Value{Kind: KindList, List: v} }
func Set(v []Value) Value  { return Value{Kind: KindSet, List: v} }
func OrderedSet(v []Value) Value {
	return Value{Kind: KindOrderedSet, List: v}
}
func Map(v PropertyBag) Value { return Value{Kind: KindMap, Map: v} }
func Object(ref *ObjectRef) Value {
	return Value{Kind: KindObjectRef, Ref: ref}
}

// Equal reports structural equality under the round-trip rules: list
// and ordered-set order matters, set order does not, and object
// references compare by UUID (not by nested property bag, since two
// references to the same descendant may be encoded at different points
// in the graph with stale copies of its properties).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindInt64:
		return v.Int64 == o.Int64
	case KindUint64:
		return v.Uint64 == o.Uint64
	case KindFloat64:
		return v.Float64 == o.Float64
	case KindString:
		return v.String == o.String
	case KindBinary:
		return string(v.Binary) == string(o.Binary)
	case KindTimestamp:
		return v.Timestamp.Equal(o.Timestamp)
	case KindList, KindOrderedSet:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case KindSet:
		if len(v.List) != len(o.List) {
			return false
		}
		used := make([]bool, len(o.List))
		for _, a := range v.List {
			found := false
			for i, b := range o.List {
				if used[i] {
					continue
				}
				if a.Equal(b) {
					used[i] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for k, a := range v.Map {
			b, ok := o.Map[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	case KindObjectRef:
		return v.Ref != nil && o.Ref != nil && v.Ref.UUID == o.Ref.UUID
	default:
		return false
	}
}
