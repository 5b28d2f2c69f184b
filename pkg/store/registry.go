package store

import (
	"sync"

	"github.com/cuemby/fringedb/pkg/metrics"
	"github.com/cuemby/fringedb/pkg/weakref"
)

// storeRegistry is the process-wide registry enforcing at most one live
// store per commit path, used by every construction path. Entries are
// non-owning: when the last external holder drops a store, the
// registry entry is cleared — implemented with pkg/weakref rather than
// a strong map the caller must remember to evict from.
//
// This lock is ordered strictly before any per-store lock: code holding
// storeRegistry.mu never acquires a Store's lock, and vice versa.
var storeRegistry = struct {
	mu    sync.Mutex
	byDir map[string]weakref.Weak[Store]
}{byDir: make(map[string]weakref.Weak[Store])}

// registryLookup returns the live store registered for dir, if any.
func registryLookup(dir string) (*Store, bool) {
	storeRegistry.mu.Lock()
	defer storeRegistry.mu.Unlock()
	w, ok := storeRegistry.byDir[dir]
	if !ok {
		return nil, false
	}
	s, alive := w.Target()
	if !alive {
		delete(storeRegistry.byDir, dir)
		metrics.StoresOpen.Set(float64(len(storeRegistry.byDir)))
		return nil, false
	}
	return s, true
}

// registryPut registers s under dir, replacing any stale (collected)
// entry. Returns ErrPathConflict if a live store is already registered
// under dir.
func registryPut(dir string, s *Store) error {
	storeRegistry.mu.Lock()
	defer storeRegistry.mu.Unlock()
	if w, ok := storeRegistry.byDir[dir]; ok {
		if existing, alive := w.Target(); alive && existing != s {
			return ErrPathConflict
		}
	}
	storeRegistry.byDir[dir] = weakref.Wrap(s)
	metrics.StoresOpen.Set(float64(len(storeRegistry.byDir)))
	return nil
}

// registryRemove drops the registry entry for dir, if it still points at
// s (a no-op otherwise, so a stale registration from a different store
// under the same path is never clobbered).
func registryRemove(dir string, s *Store) {
	storeRegistry.mu.Lock()
	defer storeRegistry.mu.Unlock()
	if w, ok := storeRegistry.byDir[dir]; ok {
		if existing, alive := w.Target(); !alive || existing == s {
			delete(storeRegistry.byDir, dir)
			metrics.StoresOpen.Set(float64(len(storeRegistry.byDir)))
		}
	}
}
