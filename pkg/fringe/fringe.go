// Package fringe is the small facade a typical caller reaches for
// instead of driving pkg/store and pkg/index directly: Save and
// DeleteObject for single-object convenience, and the root-objects-at
// family for walking index directories back to their owning stores.
package fringe

import (
	"fmt"

	"github.com/cuemby/fringedb/pkg/index"
	"github.com/cuemby/fringedb/pkg/store"
)

// Save commits the owning store of obj. If obj is a root object this is
// just Store.Commit; if obj is a descendant, the whole graph reachable
// from its store's root is what actually gets persisted — a store
// persists its entire object graph, not individual objects.
func Save(obj *store.Object) error {
	s := obj.Store()
	if s == nil {
		return fmt.Errorf("fringe: object %s has no owning store", obj.UUID())
	}
	return s.Commit()
}

// DeleteObject removes object from its owning store entirely. If object
// is the store's root, the whole store is deleted (data file, sidecar,
// index artifacts, registry entry). Otherwise every property bag in the
// store that references object — on any object, under any property,
// however deeply nested in a list/set/ordered-set or map — is rewritten
// to drop the reference, object is purged from the identity map, and
// the resulting graph is committed.
func DeleteObject(object *store.Object) error {
	s := object.Store()
	if s == nil {
		return fmt.Errorf("fringe: object %s has no owning store", object.UUID())
	}
	return s.DeleteObject(object)
}

// RootObjectsAt opens every store reachable from the artifacts in
// indexDir, up to limit stores (limit <= 0 means unlimited), and returns
// their root objects: walk one index directory's artifacts back to the
// commit paths they point at, then Open each one.
func RootObjectsAt(indexDir string, limit int) ([]*store.Object, error) {
	return RootObjectsAtAll([]string{indexDir}, limit)
}

// RootObjectsAtAll is RootObjectsAt generalized over several index
// directories at once, de-duplicating by commit path so a store indexed
// under more than one property is only opened once.
func RootObjectsAtAll(indexDirs []string, limit int) ([]*store.Object, error) {
	seen := make(map[string]bool)
	var out []*store.Object

	for _, dir := range indexDirs {
		entries, err := index.ListArtifacts(dir)
		if err != nil {
			return out, fmt.Errorf("fringe: list artifacts in %s: %w", dir, err)
		}
		for _, e := range entries {
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
			if seen[e.CommitPath] {
				continue
			}
			seen[e.CommitPath] = true

			s, err := store.Open(e.CommitPath)
			if err != nil {
				return out, fmt.Errorf("fringe: open store at %s: %w", e.CommitPath, err)
			}
			out = append(out, s.Root())
		}
	}
	return out, nil
}
