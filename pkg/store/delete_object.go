package store

import "github.com/cuemby/fringedb/pkg/codec"

// DeleteObject implements the single delete-object(object) operation. If
// object is the store's root, the whole store is deleted (data file,
// sidecar, index artifacts, registry entry) via Delete. Otherwise every
// property bag in the store that references object is rewritten to drop
// the reference, object is purged from the identity map, and the
// resulting graph is committed.
func (s *Store) DeleteObject(obj *Object) error {
	var err error
	s.lock.lockWriteSync(func() { err = s.DeleteObjectLocked(obj) })
	return err
}

// DeleteObjectLocked is DeleteObject assuming the caller already holds
// the write lock.
func (s *Store) DeleteObjectLocked(obj *Object) error {
	s.mu.Lock()
	isRoot := obj.id == s.rootUUID
	s.mu.Unlock()

	if isRoot {
		return s.DeleteLocked()
	}

	s.mu.Lock()
	if err := s.checkUsable(); err != nil {
		s.mu.Unlock()
		return err
	}
	for id, other := range s.identity {
		if id == obj.id {
			continue
		}
		removeReferencesLocked(other, obj.id)
	}
	delete(s.identity, obj.id)
	if s.st != stateFresh {
		s.st = stateDirty
	}
	s.mu.Unlock()

	return s.CommitLocked()
}

// removeReferencesLocked rewrites every property on o that references
// targetUUID, recursing into nested maps and aggregate collections.
// Callers must already hold o's owning store's mu.
func removeReferencesLocked(o *Object, targetUUID string) {
	for name, v := range o.bag {
		if nv, changed := removeRefsFromValue(v, targetUUID); changed {
			o.bag[name] = nv
		}
	}
}

// removeRefsFromValue returns a copy of v with every descendant
// reference to targetUUID dropped (a single KindObjectRef becomes
// Null; aggregates drop the matching element; maps are rewritten
// key-by-key), and whether anything changed.
func removeRefsFromValue(v codec.Value, targetUUID string) (codec.Value, bool) {
	switch v.Kind {
	case codec.KindObjectRef:
		if v.Ref != nil && v.Ref.UUID == targetUUID {
			return codec.Null(), true
		}
		return v, false

	case codec.KindList, codec.KindSet, codec.KindOrderedSet:
		changed := false
		newList := make([]codec.Value, 0, len(v.List))
		for _, item := range v.List {
			if item.Kind == codec.KindObjectRef && item.Ref != nil && item.Ref.UUID == targetUUID {
				changed = true
				continue
			}
			nv, ch := removeRefsFromValue(item, targetUUID)
			if ch {
				changed = true
			}
			newList = append(newList, nv)
		}
		if !changed {
			return v, false
		}
		switch v.Kind {
		case codec.KindList:
			return codec.List(newList), true
		case codec.KindSet:
			return codec.Set(newList), true
		default:
			return codec.OrderedSet(newList), true
		}

	case codec.KindMap:
		changed := false
		newMap := make(codec.PropertyBag, len(v.Map))
		for k, mv := range v.Map {
			nv, ch := removeRefsFromValue(mv, targetUUID)
			if ch {
				changed = true
			}
			newMap[k] = nv
		}
		if !changed {
			return v, false
		}
		return codec.Map(newMap), true

	default:
		return v, false
	}
}
