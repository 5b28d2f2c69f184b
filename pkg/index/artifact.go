package index

import (
	"fmt"
	"os"
	"path/filepath"
)

// Tuple identifies one (directory, indexed value) pair that should carry
// an artifact pointing at the owning store's commit path.
type Tuple struct {
	Dir   string
	Value string
}

func (t Tuple) key() string { return t.Dir + "\x00" + t.Value }

// WriteArtifact durably writes an artifact under dir named after the
// filename-safe encoding of value, whose content is commitPath. The
// write is atomic: a temp file in the same directory is written, synced,
// and renamed over the destination.
func WriteArtifact(dir, value, commitPath string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("index: create directory %s: %w", dir, err)
	}
	name := FilenameSafe(value)
	dest := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("index: create temp artifact in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.WriteString(commitPath); err != nil {
		tmp.Close()
		return fmt.Errorf("index: write artifact %s: %w", dest, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("index: sync artifact %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("index: close artifact %s: %w", dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("index: rename artifact into place %s: %w", dest, err)
	}
	return nil
}

// RemoveArtifact deletes the artifact named after value under dir. It is
// idempotent: removing an artifact that does not exist is not an error.
func RemoveArtifact(dir, value string) error {
	name := FilenameSafe(value)
	err := os.Remove(filepath.Join(dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("index: remove artifact %s/%s: %w", dir, name, err)
	}
	return nil
}

// ReadArtifact returns the commit path recorded by the artifact named
// after value under dir.
func ReadArtifact(dir, value string) (string, error) {
	name := FilenameSafe(value)
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ArtifactEntry is one artifact found while listing a directory.
type ArtifactEntry struct {
	Name       string // filename-safe encoded value
	Value      string // decoded property value
	CommitPath string
}

// ListArtifacts enumerates every artifact directly under dir. Entries
// whose name fails to decode as filename-safe are skipped rather than
// failing the whole listing, since an index directory may be shared with
// unrelated files.
func ListArtifacts(dir string) ([]ArtifactEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("index: list directory %s: %w", dir, err)
	}

	out := make([]ArtifactEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		value, err := FilenameUnsafe(e.Name())
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, ArtifactEntry{Name: e.Name(), Value: value, CommitPath: string(data)})
	}
	return out, nil
}

// Reconcile brings the on-disk artifacts for a store up to date: every
// tuple in curr not present in prev gets a new artifact written pointing
// at commitPath; every tuple in prev not present in curr has its
// artifact removed. This is called after the data file has already been
// durably written, so a partial failure here never invalidates
// committed data.
func Reconcile(prev, curr []Tuple, commitPath string) error {
	prevSet := make(map[string]Tuple, len(prev))
	for _, t := range prev {
		prevSet[t.key()] = t
	}
	currSet := make(map[string]Tuple, len(curr))
	for _, t := range curr {
		currSet[t.key()] = t
	}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for k, t := range currSet {
		if _, ok := prevSet[k]; !ok {
			record(WriteArtifact(t.Dir, t.Value, commitPath))
		}
	}
	for k, t := range prevSet {
		if _, ok := currSet[k]; !ok {
			record(RemoveArtifact(t.Dir, t.Value))
		}
	}
	return firstErr
}
