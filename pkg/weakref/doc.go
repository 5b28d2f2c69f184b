/*
Package weakref implements a first-class non-owning reference to an
arbitrary object, used where cyclic ownership would otherwise form
(observer registries, the process-wide store registry in pkg/store).

It is a thin wrapper around the standard library's weak package rather
than a hand-rolled finalizer scheme, since Go 1.24+ ships exactly this
primitive.
*/
package weakref
