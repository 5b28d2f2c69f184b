package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilenameSafeRoundTrip(t *testing.T) {
	samples := []string{
		"A", "hello world", "a/b\\c", "100%", "", "日本語",
		"dots.and-dashes_ok", "%41",
	}
	for _, s := range samples {
		safe := FilenameSafe(s)
		back, err := FilenameUnsafe(safe)
		require.NoError(t, err)
		assert.Equal(t, s, back)
	}
}

func TestFilenameSafeEscapesPercent(t *testing.T) {
	safe := FilenameSafe("%")
	assert.Equal(t, "%25", safe)
}

func TestArtifactWriteReadRemove(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteArtifact(dir, "A", "/stores/album-1"))

	got, err := ReadArtifact(dir, "A")
	require.NoError(t, err)
	assert.Equal(t, "/stores/album-1", got)

	entries, err := ListArtifacts(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].Value)
	assert.Equal(t, "/stores/album-1", entries[0].CommitPath)

	require.NoError(t, RemoveArtifact(dir, "A"))
	require.NoError(t, RemoveArtifact(dir, "A")) // idempotent

	entries, err = ListArtifacts(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReconcileAddsAndRemoves(t *testing.T) {
	dir := t.TempDir()

	prev := []Tuple{{Dir: dir, Value: "A"}}
	curr := []Tuple{{Dir: dir, Value: "B"}}

	require.NoError(t, WriteArtifact(dir, "A", "/stores/x"))
	require.NoError(t, Reconcile(prev, curr, "/stores/x"))

	entries, err := ListArtifacts(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "B", entries[0].Value)
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteArtifact(dir, "gone", "/stores/vanished"))
	require.NoError(t, WriteArtifact(dir, "present", "/stores/alive"))

	aliveDir := filepath.Join(t.TempDir(), "alive")
	require.NoError(t, os.MkdirAll(aliveDir, 0o755))

	removed, err := Clean([]string{dir}, func(commitPath string) bool {
		return commitPath == "/stores/alive"
	})
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "gone", removed[0].Value)

	entries, err := ListArtifacts(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "present", entries[0].Value)
}
