package store

import (
	"testing"

	"github.com/cuemby/fringedb/pkg/codec"
	"github.com/cuemby/fringedb/pkg/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTempStore(t *testing.T) (*Object, *Store) {
	t.Helper()
	root, err := NewRootObject("Album", t.TempDir(), func(o *Object) {
		o.Set("title", codec.String(""))
	})
	require.NoError(t, err)
	return root, root.Store()
}

// Single root round-trip.
func TestSingleRootRoundTrip(t *testing.T) {
	root, s := newTempStore(t)
	root.Set("title", codec.String("A"))
	require.NoError(t, s.Commit())

	path := s.CommitPath()
	registryRemove(path, s)

	reopened, err := Open(path)
	require.NoError(t, err)
	title, ok := reopened.Root().Get("title")
	require.True(t, ok)
	assert.Equal(t, "A", title.String)
}

// Descendant graph.
func TestDescendantGraphRoundTrip(t *testing.T) {
	root, s := newTempStore(t)
	t1 := NewDescendant(root, "Track", func(o *Object) { o.Set("name", codec.String("t1")) })
	t2 := NewDescendant(root, "Track", func(o *Object) { o.Set("name", codec.String("t2")) })
	root.Set("tracks", codec.List([]codec.Value{Reference(t1), Reference(t2)}))
	require.NoError(t, s.Commit())

	path := s.CommitPath()
	registryRemove(path, s)

	reopened, err := Open(path)
	require.NoError(t, err)
	tracksV, ok := reopened.Root().Get("tracks")
	require.True(t, ok)
	require.Len(t, tracksV.List, 2)

	first, ok := reopened.Lookup(tracksV.List[0].Ref.UUID)
	require.True(t, ok)
	name, _ := first.Get("name")
	assert.Equal(t, "t1", name.String)
}

// Index reconciliation.
func TestIndexReconciliation(t *testing.T) {
	indexDir := t.TempDir()
	RegisterRootType("IndexedAlbum", RootTypeSpec{
		IndexedProperties: []string{"title"},
		IndexDirectory: func(property string, value codec.Value, owner *Object) string {
			return indexDir
		},
	})

	root, err := NewRootObject("IndexedAlbum", t.TempDir(), func(o *Object) {
		o.Set("title", codec.String("A"))
	})
	require.NoError(t, err)
	s := root.Store()
	require.NoError(t, s.Commit())

	_, err = index.ReadArtifact(indexDir, "A")
	require.NoError(t, err)

	root.Set("title", codec.String("B"))
	require.NoError(t, s.Commit())

	_, errOld := index.ReadArtifact(indexDir, "A")
	assert.Error(t, errOld)
	_, errNew := index.ReadArtifact(indexDir, "B")
	require.NoError(t, errNew)
}

// Rollback.
func TestRollbackRestoresPriorValue(t *testing.T) {
	root, s := newTempStore(t)
	root.Set("title", codec.String("original"))

	require.NoError(t, s.BeginTransaction())
	root.Set("title", codec.String("X"))
	require.NoError(t, s.Rollback())

	title, _ := root.Get("title")
	assert.Equal(t, "original", title.String)
}

func TestRollbackDropsNewDescendant(t *testing.T) {
	root, s := newTempStore(t)

	require.NoError(t, s.BeginTransaction())
	descendant := NewDescendant(root, "Track", nil)
	require.NoError(t, s.Rollback())

	_, ok := s.Lookup(descendant.UUID())
	assert.False(t, ok)
}

// Delete root.
func TestDeleteRootRemovesStoreAndArtifacts(t *testing.T) {
	indexDir := t.TempDir()
	RegisterRootType("DeletableAlbum", RootTypeSpec{
		IndexedProperties: []string{"title"},
		IndexDirectory: func(property string, value codec.Value, owner *Object) string {
			return indexDir
		},
	})

	root, err := NewRootObject("DeletableAlbum", t.TempDir(), func(o *Object) {
		o.Set("title", codec.String("gone"))
	})
	require.NoError(t, err)
	s := root.Store()
	require.NoError(t, s.Commit())

	require.NoError(t, s.Delete())

	_, errArtifact := index.ReadArtifact(indexDir, "gone")
	assert.Error(t, errArtifact)

	err = s.Commit()
	assert.ErrorIs(t, err, ErrDeleted)
}

// Concurrent readers.
func TestConcurrentReadersObserveConsistentSnapshot(t *testing.T) {
	root, s := newTempStore(t)
	root.Set("title", codec.String("steady"))

	done := make(chan string, 2)
	for i := 0; i < 2; i++ {
		go func() {
			var seen string
			s.LockReadSync(func() {
				v, _ := s.Root().Get("title")
				seen = v.String
			})
			done <- seen
		}()
	}
	a, b := <-done, <-done
	assert.Equal(t, "steady", a)
	assert.Equal(t, a, b)
}

func TestSetRootAlreadyOwnedFails(t *testing.T) {
	_, s1 := newTempStore(t)
	root2, _ := newTempStore(t)

	err := s1.SetRoot(root2.Store().Root())
	assert.ErrorIs(t, err, ErrRootAlreadyOwned)
}

func TestCommitWithoutRootFails(t *testing.T) {
	s := newStore(t.TempDir())
	err := s.Commit()
	assert.ErrorIs(t, err, ErrNoRootObject)
}
