package index

import "sync"

// directoryRegistry is the process-wide registry of external index
// directories. It is deliberately scoped to "directories this process
// was told about" rather than anything discovered by walking the
// filesystem.
var directoryRegistry = struct {
	mu   sync.Mutex
	dirs map[string]struct{}
}{dirs: make(map[string]struct{})}

// RegisterDirectory remembers dir as a known index directory so that a
// later Clean call will scan it. Registering the same directory twice is
// a no-op.
func RegisterDirectory(dir string) {
	directoryRegistry.mu.Lock()
	defer directoryRegistry.mu.Unlock()
	directoryRegistry.dirs[dir] = struct{}{}
}

// KnownDirectories returns every directory registered so far, in no
// particular order.
func KnownDirectories() []string {
	directoryRegistry.mu.Lock()
	defer directoryRegistry.mu.Unlock()
	out := make([]string, 0, len(directoryRegistry.dirs))
	for d := range directoryRegistry.dirs {
		out = append(out, d)
	}
	return out
}

// Clean scans every directory in dirs; for each artifact whose target
// (as reported by alive) no longer exists, the artifact is removed. It
// is idempotent and safe to run concurrently with commits: it only ever
// deletes artifacts whose target has already vanished.
func Clean(dirs []string, alive func(commitPath string) bool) (removed []ArtifactEntry, err error) {
	var firstErr error
	for _, dir := range dirs {
		entries, lerr := ListArtifacts(dir)
		if lerr != nil {
			if firstErr == nil {
				firstErr = lerr
			}
			continue
		}
		for _, e := range entries {
			if alive(e.CommitPath) {
				continue
			}
			if rerr := RemoveArtifact(dir, e.Value); rerr != nil {
				if firstErr == nil {
					firstErr = rerr
				}
				continue
			}
			removed = append(removed, e)
		}
	}
	return removed, firstErr
}
