package store

import (
	"fmt"

	"github.com/cuemby/fringedb/pkg/codec"
	"github.com/google/uuid"
)

// Object is a runtime record with a stable UUID, a type tag, a mutable
// property bag, and a back-reference to its owning store.
//
// The core exposes only the two raw accessors (Get/Set) plus the
// aggregate mutators for list/set/ordered-set shaped properties; a
// dynamic, schema-generated typed accessor facility is out of scope
// here and expected to be built on top of this layer by callers.
type Object struct {
	id      string
	typeTag string
	store   *Store
	bag     codec.PropertyBag
}

// newObject allocates a fresh object with a new UUID and runs its
// default-values hook once, after UUID assignment and before the first
// user mutation. Objects reconstructed from disk use newLoadedObject
// instead and never run this hook.
func newObject(typeTag string, setDefaults func(*Object)) *Object {
	o := &Object{
		id:      uuid.NewString(),
		typeTag: typeTag,
		bag:     make(codec.PropertyBag),
	}
	if setDefaults != nil {
		setDefaults(o)
	}
	return o
}

func newLoadedObject(id, typeTag string, bag codec.PropertyBag) *Object {
	if bag == nil {
		bag = make(codec.PropertyBag)
	}
	return &Object{id: id, typeTag: typeTag, bag: bag}
}

// UUID returns the object's stable identity. It never changes.
func (o *Object) UUID() string { return o.id }

// TypeTag returns the object's declared type name.
func (o *Object) TypeTag() string { return o.typeTag }

// Store returns the object's owning store, or nil if the object has not
// been attached to one (a root under construction, between newObject and
// Adopt, or a zero-value Object).
func (o *Object) Store() *Store { return o.store }

// Get returns the raw value stored under name, and whether it was
// present.
func (o *Object) Get(name string) (codec.Value, bool) {
	v, ok := o.bag[name]
	return v, ok
}

// Set stores v under name, replacing any previous value. Mutating a
// root or descendant object marks its owning store dirty — callers are
// expected to hold the owning store's write lock while mutating
// (LockWriteSync/LockWriteAsync).
func (o *Object) Set(name string, v codec.Value) {
	o.bag[name] = v
	o.markDirty()
}

func (o *Object) markDirty() {
	if o.store != nil {
		o.store.markDirty()
	}
}

// Reference builds the descendant-object-reference value for target,
// suitable for passing to Set. Cross-store references are forbidden;
// Reference itself does not validate this (a bare Value carries no
// store context) but SetObject does.
func Reference(target *Object) codec.Value {
	return codec.Object(&codec.ObjectRef{
		TypeTag: target.typeTag,
		UUID:    target.id,
	})
}

// GetObject resolves a descendant-object-reference property through the
// owning store's identity map. It returns (nil, false) if name is absent,
// is not a reference, or the referenced UUID is no longer in the
// identity map (e.g. it was detached and deleted).
func (o *Object) GetObject(name string) (*Object, bool) {
	v, ok := o.bag[name]
	if !ok || v.Kind != codec.KindObjectRef || v.Ref == nil {
		return nil, false
	}
	if o.store == nil {
		return nil, false
	}
	return o.store.Lookup(v.Ref.UUID)
}

// SetObject stores a descendant-object-reference to target under name.
// It fails with ErrCrossStoreRef if target belongs to a different store
// than o.
func (o *Object) SetObject(name string, target *Object) error {
	if o.store != nil && target.store != nil && o.store != target.store {
		return fmt.Errorf("%w: %s -> %s", ErrCrossStoreRef, o.id, target.id)
	}
	o.Set(name, Reference(target))
	return nil
}

// ToSerializable returns the object's raw property bag, suitable for
// handing to pkg/codec.
func (o *Object) ToSerializable() codec.PropertyBag {
	return o.bag
}
