package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/fringedb/pkg/codec"
	"github.com/cuemby/fringedb/pkg/index"
)

// On-disk graph encoding: a property bag with two top-level keys, "root"
// (the root object's UUID as a string) and "objects" (a list of maps,
// one per identity-map member). A descendant reference inside an
// object's properties carries only {TypeTag, UUID} — not a nested
// property bag — since the flat object table below is already a second,
// explicit copy of every reachable object; embedding properties in the
// reference too would just be a duplicate, inconsistent-update-prone
// copy of the same data. codec.Value.Equal treats KindObjectRef values
// as equal when their UUIDs match regardless of Properties, so this
// choice does not violate the codec's own round-trip contract.

func (s *Store) encodeGraphLocked() ([]byte, error) {
	objs := make([]codec.Value, 0, len(s.identity))
	for id, obj := range s.identity {
		objs = append(objs, codec.Map(codec.PropertyBag{
			"uuid":       codec.String(id),
			"typeTag":    codec.String(obj.typeTag),
			"properties": codec.Map(obj.bag),
		}))
	}
	bag := codec.PropertyBag{
		"root":    codec.String(s.rootUUID),
		"objects": codec.List(objs),
	}
	return codec.Encode(bag)
}

// decodeGraph parses the wire format produced by encodeGraphLocked. The
// returned objects have their store field unset; the caller is
// responsible for attaching them.
func decodeGraph(data []byte) (rootUUID string, identity map[string]*Object, err error) {
	bag, err := codec.Decode(data)
	if err != nil {
		return "", nil, err
	}
	rootV, ok := bag["root"]
	if !ok || rootV.Kind != codec.KindString {
		return "", nil, fmt.Errorf("store: graph missing root uuid")
	}
	objsV, ok := bag["objects"]
	if !ok || (objsV.Kind != codec.KindList && objsV.Kind != codec.KindSet && objsV.Kind != codec.KindOrderedSet) {
		return "", nil, fmt.Errorf("store: graph missing object list")
	}

	identity = make(map[string]*Object, len(objsV.List))
	for _, ov := range objsV.List {
		if ov.Kind != codec.KindMap {
			return "", nil, fmt.Errorf("store: graph object entry is not a map")
		}
		idV, ok := ov.Map["uuid"]
		if !ok || idV.Kind != codec.KindString {
			return "", nil, fmt.Errorf("store: graph object missing uuid")
		}
		typeTagV := ov.Map["typeTag"]
		propsV := ov.Map["properties"]
		identity[idV.String] = newLoadedObject(idV.String, typeTagV.String, propsV.Map)
	}
	return rootV.String, identity, nil
}

// restoreGraphLocked rebuilds the identity map from a transaction
// snapshot, re-using live *Object instances for UUIDs present in both
// the pre- and post-rollback graphs so outside holders remain valid.
func (s *Store) restoreGraphLocked(data []byte) error {
	rootUUID, loaded, err := decodeGraph(data)
	if err != nil {
		return err
	}
	restored := make(map[string]*Object, len(loaded))
	for id, lo := range loaded {
		if existing, ok := s.identity[id]; ok {
			existing.typeTag = lo.typeTag
			existing.bag = lo.bag
			restored[id] = existing
		} else {
			lo.store = s
			restored[id] = lo
		}
	}
	s.identity = restored
	s.rootUUID = rootUUID
	return nil
}

// roundTripVerify decodes written (the bytes just handed to
// writeFileAtomic), re-encodes the result, decodes that again, and
// confirms the two decoded bags are equal. It does not re-read the file
// at dataPath and does not compare against the live objects; dataPath is
// used only in the error message. A failure here is a consistency error
// that quarantines the store.
func roundTripVerify(dataPath string, written []byte) error {
	bag, err := codec.Decode(written)
	if err != nil {
		return err
	}
	reencoded, err := codec.Encode(bag)
	if err != nil {
		return err
	}
	rebag, err := codec.Decode(reencoded)
	if err != nil {
		return err
	}
	if !codec.Map(bag).Equal(codec.Map(rebag)) {
		return fmt.Errorf("store: decoded graph does not round-trip at %s", dataPath)
	}
	return nil
}

// writeFileAtomic writes data to dest via a temp file in dir, fsync, and
// rename.
func writeFileAtomic(dir, dest string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".data-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp data file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write data file %s: %w", dest, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync data file %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close data file %s: %w", dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename data file into place %s: %w", dest, err)
	}
	return nil
}

// writeSidecarAtomic persists the last-committed index tuple set
// alongside the data file, JSON encoded since it is a small,
// human-inspectable bookkeeping file, not part of the self-describing
// graph codec's contract.
func writeSidecarAtomic(path string, tuples []index.Tuple) error {
	data, err := json.Marshal(tuples)
	if err != nil {
		return fmt.Errorf("marshal index sidecar: %w", err)
	}
	return writeFileAtomic(filepath.Dir(path), path, data)
}

// readSidecar reads the last-committed index tuple set. A missing or
// corrupt sidecar is treated as "no prior tuples", which only costs an
// extra round of artifact writes on the next commit, not correctness.
func readSidecar(path string) []index.Tuple {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var tuples []index.Tuple
	if err := json.Unmarshal(data, &tuples); err != nil {
		return nil
	}
	return tuples
}
