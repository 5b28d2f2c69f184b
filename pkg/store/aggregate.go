package store

import (
	"fmt"

	"github.com/cuemby/fringedb/pkg/codec"
)

// Aggregate property mutators. These operate on whichever of List, Set,
// or OrderedSet is currently stored under name, auto-vivifying an empty
// collection of the requested kind on first use.

// ListInsert inserts v at index within the ordered-list property name,
// shifting later elements up. index == ListLen(name) appends.
func (o *Object) ListInsert(name string, index int, v codec.Value) error {
	list := o.aggregate(name, codec.KindList)
	if index < 0 || index > len(list) {
		return fmt.Errorf("store: list index %d out of range (len %d)", index, len(list))
	}
	list = append(list, codec.Value{})
	copy(list[index+1:], list[index:])
	list[index] = v
	o.Set(name, codec.List(list))
	return nil
}

// ListRemoveAt removes the element at index from the ordered-list
// property name.
func (o *Object) ListRemoveAt(name string, index int) error {
	list := o.aggregate(name, codec.KindList)
	if index < 0 || index >= len(list) {
		return fmt.Errorf("store: list index %d out of range (len %d)", index, len(list))
	}
	list = append(list[:index], list[index+1:]...)
	o.Set(name, codec.List(list))
	return nil
}

// ListReplaceRange replaces list[start:end] with vs.
func (o *Object) ListReplaceRange(name string, start, end int, vs []codec.Value) error {
	list := o.aggregate(name, codec.KindList)
	if start < 0 || end < start || end > len(list) {
		return fmt.Errorf("store: list range [%d:%d) out of bounds (len %d)", start, end, len(list))
	}
	out := make([]codec.Value, 0, len(list)-(end-start)+len(vs))
	out = append(out, list[:start]...)
	out = append(out, vs...)
	out = append(out, list[end:]...)
	o.Set(name, codec.List(out))
	return nil
}

// SetAdd adds v to the unordered-set property name if not already
// present (by Value equality).
func (o *Object) SetAdd(name string, v codec.Value) {
	set := o.aggregate(name, codec.KindSet)
	for _, existing := range set {
		if existing.Equal(v) {
			return
		}
	}
	o.Set(name, codec.Set(append(set, v)))
}

// SetRemove removes the first element equal to v from the unordered-set
// property name, if present.
func (o *Object) SetRemove(name string, v codec.Value) {
	set := o.aggregate(name, codec.KindSet)
	for i, existing := range set {
		if existing.Equal(v) {
			set = append(set[:i], set[i+1:]...)
			o.Set(name, codec.Set(set))
			return
		}
	}
}

// OrderedSetInsert inserts v at index in the ordered-set property name,
// unless an equal value is already present.
func (o *Object) OrderedSetInsert(name string, index int, v codec.Value) error {
	set := o.aggregate(name, codec.KindOrderedSet)
	for _, existing := range set {
		if existing.Equal(v) {
			return nil
		}
	}
	if index < 0 || index > len(set) {
		return fmt.Errorf("store: ordered-set index %d out of range (len %d)", index, len(set))
	}
	set = append(set, codec.Value{})
	copy(set[index+1:], set[index:])
	set[index] = v
	o.Set(name, codec.OrderedSet(set))
	return nil
}

// OrderedSetRemove removes the first element equal to v from the
// ordered-set property name, if present.
func (o *Object) OrderedSetRemove(name string, v codec.Value) {
	set := o.aggregate(name, codec.KindOrderedSet)
	for i, existing := range set {
		if existing.Equal(v) {
			set = append(set[:i], set[i+1:]...)
			o.Set(name, codec.OrderedSet(set))
			return
		}
	}
}

func (o *Object) aggregate(name string, kind codec.Kind) []codec.Value {
	v, ok := o.bag[name]
	if !ok {
		return nil
	}
	if v.Kind != kind {
		return nil
	}
	return v.List
}
