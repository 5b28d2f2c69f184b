// Package config implements the YAML manifest format for declaring root
// types and index directories without writing Go code, the declarative
// counterpart to calling store.RegisterRootType directly: a small,
// typed YAML document parsed with gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/cuemby/fringedb/pkg/codec"
	"github.com/cuemby/fringedb/pkg/index"
	"github.com/cuemby/fringedb/pkg/store"
	"gopkg.in/yaml.v3"
)

// Manifest is the top-level shape of a fringedb manifest file.
type Manifest struct {
	RootTypes        []RootType `yaml:"rootTypes"`
	IndexDirectories []string   `yaml:"indexDirectories"`
}

// RootType declares one entry of store.RootTypeSpec in YAML form.
// IndexDirectory is a template string; "{property}" is substituted with
// the indexed property's name when the resulting function runs, which
// covers the common case of one subdirectory per indexed property
// without requiring Go code. Callers needing a function of the
// property's value or owning object still use store.RegisterRootType
// directly.
type RootType struct {
	TypeTag           string   `yaml:"typeTag"`
	IndexedProperties []string `yaml:"indexedProperties"`
	IndexDirectory    string   `yaml:"indexDirectory"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("config: parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Apply registers every root type and index directory declared in m with
// the process-wide registries in pkg/store and pkg/index. It is additive
// and idempotent: re-applying the same manifest simply re-registers the
// same entries.
func Apply(m *Manifest) error {
	for _, rt := range m.RootTypes {
		if rt.TypeTag == "" {
			return fmt.Errorf("config: rootTypes entry missing typeTag")
		}
		template := rt.IndexDirectory
		store.RegisterRootType(rt.TypeTag, store.RootTypeSpec{
			IndexedProperties: rt.IndexedProperties,
			IndexDirectory: func(property string, value codec.Value, owner *store.Object) string {
				return strings.ReplaceAll(template, "{property}", property)
			},
		})
	}
	for _, dir := range m.IndexDirectories {
		index.RegisterDirectory(dir)
	}
	return nil
}
