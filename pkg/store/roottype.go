package store

import (
	"sync"

	"github.com/cuemby/fringedb/pkg/codec"
	"github.com/cuemby/fringedb/pkg/index"
)

// RootTypeSpec is what a root object's type declares: the set of
// indexed property names, and a function mapping (property name,
// property value, owning object) to an index directory. A dynamic
// schema/reflection facility that would normally generate this
// declaration is out of scope; callers provide it directly via
// RegisterRootType.
type RootTypeSpec struct {
	IndexedProperties []string
	IndexDirectory    func(property string, value codec.Value, owner *Object) string
}

var rootTypes = struct {
	mu    sync.RWMutex
	specs map[string]RootTypeSpec
}{specs: make(map[string]RootTypeSpec)}

// RegisterRootType declares the indexed properties and index-directory
// function for every root object whose TypeTag() == typeTag. The index
// subsystem is informed lazily: registration only takes effect starting
// with the next commit of a store whose root has this type tag.
func RegisterRootType(typeTag string, spec RootTypeSpec) {
	rootTypes.mu.Lock()
	defer rootTypes.mu.Unlock()
	rootTypes.specs[typeTag] = spec
}

func lookupRootType(typeTag string) (RootTypeSpec, bool) {
	rootTypes.mu.RLock()
	defer rootTypes.mu.RUnlock()
	spec, ok := rootTypes.specs[typeTag]
	return spec, ok
}

// RegisterIndexDirectory remembers dir as a known index directory for
// CleanIndexes, independent of any root-type registration. Most callers
// don't need this directly: a directory returned by a RootTypeSpec's
// IndexDirectory function is registered automatically the first time it
// is used during a commit.
func RegisterIndexDirectory(dir string) {
	index.RegisterDirectory(dir)
}
