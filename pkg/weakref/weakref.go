package weakref

import "weak"

// Weak is a non-owning reference to a *T. It never keeps its target
// alive; once nothing else holds a strong reference, Target reports
// (nil, false).
type Weak[T any] struct {
	ptr weak.Pointer[T]
}

// Wrap creates a Weak reference to v. v must not be nil.
func Wrap[T any](v *T) Weak[T] {
	return Weak[T]{ptr: weak.Make(v)}
}

// Target returns the live object, or (nil, false) if it has been
// garbage collected.
func (w Weak[T]) Target() (*T, bool) {
	v := w.ptr.Value()
	return v, v != nil
}

// IsZero reports whether w was never assigned via Wrap.
func (w Weak[T]) IsZero() bool {
	return w == Weak[T]{}
}
