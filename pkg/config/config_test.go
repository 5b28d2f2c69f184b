package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/fringedb/pkg/codec"
	"github.com/cuemby/fringedb/pkg/index"
	"github.com/cuemby/fringedb/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, indexDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	content := "rootTypes:\n" +
		"  - typeTag: ConfigAlbum\n" +
		"    indexedProperties: [title]\n" +
		"    indexDirectory: " + indexDir + "/{property}\n" +
		"indexDirectories:\n" +
		"  - " + indexDir + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesManifest(t *testing.T) {
	path := writeManifest(t, "/tmp/fringedb-idx")
	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.RootTypes, 1)
	assert.Equal(t, "ConfigAlbum", m.RootTypes[0].TypeTag)
	assert.Equal(t, []string{"title"}, m.RootTypes[0].IndexedProperties)
	assert.Len(t, m.IndexDirectories, 1)
}

func TestApplyRegistersRootTypeAndExpandsTemplate(t *testing.T) {
	indexDir := t.TempDir()
	path := writeManifest(t, indexDir)
	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, Apply(m))

	root, err := store.NewRootObject("ConfigAlbum", t.TempDir(), func(o *store.Object) {
		o.Set("title", codec.String("A"))
	})
	require.NoError(t, err)
	require.NoError(t, root.Store().Commit())

	_, err = index.ReadArtifact(indexDir+"/title", "A")
	assert.NoError(t, err)
}
