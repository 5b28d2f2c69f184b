/*
Package index implements the filesystem-level artifacts that back
FringeDB's secondary index subsystem.

An index artifact is a small pointer file living under an index
directory, named after a filename-safe encoding of an indexed property's
value, whose contents are the commit path of the store that currently has
that value. Reconcile diffs a store's current index tuple set against its
last-committed one and applies the minimal set of artifact writes/removes,
using the same temp-file-plus-rename discipline as the data file itself.

This package has no knowledge of Store or Object — it only deals in
directories, names, and commit paths — so pkg/store can depend on it for
commit-time reconciliation without creating an import cycle back from
pkg/index into pkg/store.
*/
package index
