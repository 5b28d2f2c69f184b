package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cuemby/fringedb/pkg/codec"
	"github.com/cuemby/fringedb/pkg/index"
	"github.com/cuemby/fringedb/pkg/log"
	"github.com/cuemby/fringedb/pkg/metrics"
)

// state is the store's position in its lifecycle: fresh -> clean ->
// dirty -> clean -> deleted, with a quarantine state spliced in for
// post-commit consistency errors.
type state int

const (
	stateFresh state = iota
	stateClean
	stateDirty
	stateDeleted
	stateQuarantined
)

const dataFileExt = "fringe"
const indexSidecarExt = "fringe.idx"

// Store is the transactional unit: a directory holding one data file
// plus index artifacts, an identity map, a reader/writer lock, a
// transaction stack, and a dirty flag.
type Store struct {
	mu sync.Mutex // guards the fields below; independent of the write lock

	commitPath string
	rootUUID   string
	identity   map[string]*Object
	lastTuples []index.Tuple

	lock *storeLock
	tx   []txSnapshot

	st state

	onAsyncError func(error)
}

type txSnapshot struct {
	data []byte
}

func newStore(commitPath string) *Store {
	return &Store{
		commitPath: commitPath,
		identity:   make(map[string]*Object),
		lock:       newStoreLock(),
		st:         stateFresh,
	}
}

// NewRootObject creates a fresh object of typeTag, runs setDefaults on
// it, and adopts it as the root of a new store at commitPath: creating
// a root object that declares a default commit path implicitly
// instantiates a store at that path with this object as root. No file
// is written until Commit.
func NewRootObject(typeTag, commitPath string, setDefaults func(*Object)) (*Object, error) {
	root := newObject(typeTag, setDefaults)
	s, err := Adopt(root, commitPath)
	if err != nil {
		return nil, err
	}
	root.store = s
	return root, nil
}

// NewDescendant creates a fresh object of typeTag owned by the same store
// as owner, runs setDefaults on it, and inserts it into the identity map.
// It is not yet reachable from the root; the caller is expected to
// attach it via SetObject, an aggregate mutator, or Store.SetRoot.
func NewDescendant(owner *Object, typeTag string, setDefaults func(*Object)) *Object {
	o := newObject(typeTag, setDefaults)
	s := owner.store
	o.store = s
	if s != nil {
		s.mu.Lock()
		s.identity[o.id] = o
		s.mu.Unlock()
	}
	return o
}

// Adopt creates an in-memory store around an already-constructed root
// object. Every construction path checks the process-wide registry
// first and returns the existing live store for commitPath, if any.
func Adopt(root *Object, commitPath string) (*Store, error) {
	if existing, ok := registryLookup(commitPath); ok {
		return existing, nil
	}
	if root.store != nil {
		return nil, fmt.Errorf("%w: %s", ErrRootAlreadyOwned, root.id)
	}

	s := newStore(commitPath)
	s.rootUUID = root.id
	s.identity[root.id] = root
	root.store = s

	if err := registryPut(commitPath, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Open locates the single data file directly under path, decodes it, and
// rebuilds the identity map. If path contains multiple data files, the
// first by os.ReadDir's lexicographic order is chosen and a warning is
// logged. If the registry already has a live store for path, that store
// is returned unchanged.
func Open(path string) (*Store, error) {
	if existing, ok := registryLookup(path); ok {
		return existing, nil
	}

	dataPath, err := findDataFile(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, dataPath, err)
	}

	rootUUID, identity, err := decodeGraph(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCodec, dataPath, err)
	}

	s := newStore(path)
	s.rootUUID = rootUUID
	s.identity = identity
	for _, o := range s.identity {
		o.store = s
	}
	s.st = stateClean
	s.lastTuples = readSidecar(sidecarPath(dataPath))

	if err := registryPut(path, s); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenWithUUID resolves the data file whose root has rootID, scanning
// immediate subdirectories of parentPath. It returns (nil, false) if no
// such store exists.
func OpenWithUUID(rootID, parentPath string) (*Store, bool) {
	entries, err := os.ReadDir(parentPath)
	if err != nil {
		return nil, false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(parentPath, e.Name())
		dataPath := filepath.Join(candidate, rootID+"."+dataFileExt)
		if _, err := os.Stat(dataPath); err != nil {
			continue
		}
		s, err := Open(candidate)
		if err != nil {
			continue
		}
		if s.rootUUID == rootID {
			return s, true
		}
	}
	return nil, false
}

func findDataFile(path string) (string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("%w: read directory %s: %v", ErrIO, path, err)
	}
	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), "."+dataFileExt) {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no data file under %s", ErrIO, path)
	}
	sort.Strings(candidates)
	if len(candidates) > 1 {
		log.WithStore(path).Warn().
			Strs("candidates", candidates).
			Msg("fringedb: multiple data files found, picking first in listing order")
	}
	return filepath.Join(path, candidates[0]), nil
}

func sidecarPath(dataPath string) string {
	return strings.TrimSuffix(dataPath, "."+dataFileExt) + "." + indexSidecarExt
}

// Root returns the current root object. It has no precondition and
// takes only the store's internal field mutex, not the read/write lock;
// callers composing it with other reads should wrap with LockReadSync.
func (s *Store) Root() *Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity[s.rootUUID]
}

// CommitPath returns the store's directory.
func (s *Store) CommitPath() string { return s.commitPath }

// Lookup returns the object registered under uuid in the identity map, if
// any.
func (s *Store) Lookup(id string) (*Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(id)
}

func (s *Store) lookupLocked(id string) (*Object, bool) {
	o, ok := s.identity[id]
	return o, ok
}

func (s *Store) markDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == stateDeleted || s.st == stateQuarantined {
		return
	}
	s.st = stateDirty
}

// LockReadSync runs fn under the store's read lock.
func (s *Store) LockReadSync(fn func()) { s.lock.lockReadSync(fn) }

// LockWriteSync runs fn under the store's write lock. fn should call the
// *Locked variants (SetRootLocked, BeginTransactionLocked,
// CommitTransactionLocked, RollbackLocked, CommitLocked, DeleteLocked,
// SetCommitPathLocked) to compose several mutations atomically; calling
// the unlocked public methods from within fn deadlocks, since the write
// lock is not reentrant across separate top-level calls.
func (s *Store) LockWriteSync(fn func()) { s.lock.lockWriteSync(fn) }

// LockWriteAsync enqueues fn to run under the write lock on this store's
// serial worker and returns immediately.
func (s *Store) LockWriteAsync(fn func()) {
	s.lock.lockWriteAsync(fn, s.onAsyncErrorHook())
}

// OnAsyncError registers a hook invoked (in addition to logging and the
// AsyncWriteErrors counter) whenever a job submitted via LockWriteAsync
// panics.
func (s *Store) OnAsyncError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAsyncError = fn
}

func (s *Store) onAsyncErrorHook() func(error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onAsyncError
}

// SetRoot replaces the store's root object. obj must not already be
// root of another live store.
func (s *Store) SetRoot(obj *Object) error {
	var err error
	s.lock.lockWriteSync(func() { err = s.SetRootLocked(obj) })
	return err
}

// SetRootLocked is SetRoot assuming the caller already holds the write
// lock (see LockWriteSync).
func (s *Store) SetRootLocked(obj *Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUsable(); err != nil {
		return err
	}
	if obj.store != nil && obj.store != s {
		return fmt.Errorf("%w: %s", ErrRootAlreadyOwned, obj.id)
	}
	s.rootUUID = obj.id
	obj.store = s
	s.identity[obj.id] = obj
	if s.st != stateFresh {
		s.st = stateDirty
	}
	return nil
}

// BeginTransaction pushes a serialized snapshot of the store's current
// state.
func (s *Store) BeginTransaction() error {
	var err error
	s.lock.lockWriteSync(func() { err = s.BeginTransactionLocked() })
	return err
}

// BeginTransactionLocked is BeginTransaction assuming the caller already
// holds the write lock. Because it never itself acquires the lock,
// calling it repeatedly from one LockWriteSync closure nests without
// deadlock — nested transactions must be possible from a single thread
// without deadlock.
func (s *Store) BeginTransactionLocked() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUsable(); err != nil {
		return err
	}
	data, err := s.encodeGraphLocked()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	s.tx = append(s.tx, txSnapshot{data: data})
	metrics.TransactionsBegun.Inc()
	metrics.TransactionDepth.Set(float64(len(s.tx)))
	return nil
}

// CommitTransaction discards the topmost snapshot without touching disk.
func (s *Store) CommitTransaction() error {
	var err error
	s.lock.lockWriteSync(func() { err = s.CommitTransactionLocked() })
	return err
}

// CommitTransactionLocked is CommitTransaction assuming the caller
// already holds the write lock.
func (s *Store) CommitTransactionLocked() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tx) == 0 {
		return ErrNoTransaction
	}
	s.tx = s.tx[:len(s.tx)-1]
	metrics.TransactionDepth.Set(float64(len(s.tx)))
	return nil
}

// Rollback restores the store from its topmost snapshot, discarding
// mutations made since the matching BeginTransaction. Object identity is
// preserved for UUIDs present in both the pre- and post-rollback graphs.
func (s *Store) Rollback() error {
	var err error
	s.lock.lockWriteSync(func() { err = s.RollbackLocked() })
	return err
}

// RollbackLocked is Rollback assuming the caller already holds the write
// lock.
func (s *Store) RollbackLocked() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tx) == 0 {
		return ErrNoTransaction
	}
	snap := s.tx[len(s.tx)-1]
	s.tx = s.tx[:len(s.tx)-1]
	if err := s.restoreGraphLocked(snap.data); err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	metrics.TransactionsRolledBack.Inc()
	metrics.TransactionDepth.Set(float64(len(s.tx)))
	return nil
}

// Commit runs the six-step commit protocol: validate, encode, write the
// data file atomically, verify it round-trips, reconcile indexes, and
// write the index sidecar.
func (s *Store) Commit() error {
	var err error
	s.lock.lockWriteSync(func() { err = s.CommitLocked() })
	return err
}

// CommitLocked is Commit assuming the caller already holds the write
// lock.
func (s *Store) CommitLocked() error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CommitDuration)

	s.mu.Lock()
	if err := s.checkUsable(); err != nil {
		s.mu.Unlock()
		metrics.CommitsTotal.WithLabelValues("rejected").Inc()
		return err
	}
	if s.rootUUID == "" {
		s.mu.Unlock()
		metrics.CommitsTotal.WithLabelValues("rejected").Inc()
		return ErrNoRootObject
	}
	if s.commitPath == "" {
		s.mu.Unlock()
		metrics.CommitsTotal.WithLabelValues("rejected").Inc()
		return ErrNoCommitPath
	}

	data, err := s.encodeGraphLocked()
	if err != nil {
		s.mu.Unlock()
		metrics.CommitsTotal.WithLabelValues("codec_error").Inc()
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	dataPath := filepath.Join(s.commitPath, s.rootUUID+"."+dataFileExt)
	s.mu.Unlock()

	if err := os.MkdirAll(s.commitPath, 0o755); err != nil {
		metrics.CommitsTotal.WithLabelValues("io_error").Inc()
		return fmt.Errorf("%w: create directory %s: %v", ErrIO, s.commitPath, err)
	}
	if err := writeFileAtomic(s.commitPath, dataPath, data); err != nil {
		metrics.CommitsTotal.WithLabelValues("io_error").Inc()
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	// Data is durable past this point; a failure in index reconciliation
	// or the sidecar write below is logged and retried on the next
	// commit rather than failing this one.
	if err := roundTripVerify(dataPath, data); err != nil {
		s.mu.Lock()
		s.st = stateQuarantined
		s.mu.Unlock()
		metrics.StoresQuarantined.Inc()
		metrics.CommitsTotal.WithLabelValues("quarantined").Inc()
		log.WithStore(s.commitPath).Error().Err(err).
			Msg("fringedb: post-commit round-trip verification failed, store quarantined")
		return fmt.Errorf("%w: round-trip verification failed: %v", ErrCodec, err)
	}

	s.mu.Lock()
	prevTuples := s.lastTuples
	currTuples := s.indexTuplesLocked()
	s.mu.Unlock()

	indexTimer := metrics.NewTimer()
	reconcileErr := index.Reconcile(prevTuples, currTuples, s.commitPath)
	if reconcileErr != nil {
		log.WithStore(s.commitPath).Error().Err(reconcileErr).
			Msg("fringedb: index reconciliation failed, will retry next commit")
	}
	indexTimer.ObserveDuration(metrics.IndexReconciliationDuration)

	// After a failed reconciliation the previous tuple set is kept, so the
	// next commit diffs against it again and repeats the writes/removes.
	if reconcileErr == nil {
		if err := writeSidecarAtomic(sidecarPath(dataPath), currTuples); err != nil {
			log.WithStore(s.commitPath).Error().Err(err).Msg("fringedb: failed to persist index sidecar")
		} else {
			s.mu.Lock()
			s.lastTuples = currTuples
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	s.st = stateClean
	s.mu.Unlock()
	metrics.CommitsTotal.WithLabelValues("success").Inc()
	return nil
}

// Delete removes the data file, drops every index artifact referencing
// this store, and purges the registry entry.
func (s *Store) Delete() error {
	var err error
	s.lock.lockWriteSync(func() { err = s.DeleteLocked() })
	return err
}

// DeleteLocked is Delete assuming the caller already holds the write
// lock.
func (s *Store) DeleteLocked() error {
	s.mu.Lock()
	if s.st == stateDeleted {
		s.mu.Unlock()
		return nil
	}
	commitPath := s.commitPath
	rootUUID := s.rootUUID
	tuples := s.lastTuples
	s.mu.Unlock()

	for _, t := range tuples {
		if err := index.RemoveArtifact(t.Dir, t.Value); err != nil {
			log.WithStore(commitPath).Error().Err(err).
				Str("dir", t.Dir).Msg("fringedb: failed to remove index artifact during delete")
		}
	}

	if rootUUID != "" {
		dataPath := filepath.Join(commitPath, rootUUID+"."+dataFileExt)
		if err := os.Remove(dataPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: remove %s: %v", ErrIO, dataPath, err)
		}
		if err := os.Remove(sidecarPath(dataPath)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: remove sidecar for %s: %v", ErrIO, dataPath, err)
		}
	}

	registryRemove(commitPath, s)

	s.mu.Lock()
	s.st = stateDeleted
	s.mu.Unlock()
	return nil
}

// SetCommitPath relocates the store's files to newPath atomically and
// updates the registry and index artifacts to point at the new location.
func (s *Store) SetCommitPath(newPath string) error {
	var err error
	s.lock.lockWriteSync(func() { err = s.SetCommitPathLocked(newPath) })
	return err
}

// SetCommitPathLocked is SetCommitPath assuming the caller already holds
// the write lock. Its precondition is "no transaction open"; relocating
// mid-transaction would leave a rolled-back snapshot pointing at a path
// that no longer holds the store's files.
func (s *Store) SetCommitPathLocked(newPath string) error {
	s.mu.Lock()
	if len(s.tx) > 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot relocate store with an open transaction", ErrNoTransaction)
	}
	oldPath := s.commitPath
	rootUUID := s.rootUUID
	tuples := s.lastTuples
	s.mu.Unlock()

	if _, ok := registryLookup(newPath); ok {
		return fmt.Errorf("%w: %s", ErrPathConflict, newPath)
	}

	if err := os.MkdirAll(newPath, 0o755); err != nil {
		return fmt.Errorf("%w: create directory %s: %v", ErrIO, newPath, err)
	}
	if rootUUID != "" {
		oldData := filepath.Join(oldPath, rootUUID+"."+dataFileExt)
		newData := filepath.Join(newPath, rootUUID+"."+dataFileExt)
		if _, err := os.Stat(oldData); err == nil {
			if err := os.Rename(oldData, newData); err != nil {
				return fmt.Errorf("%w: relocate data file: %v", ErrIO, err)
			}
			if err := os.Rename(sidecarPath(oldData), sidecarPath(newData)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("%w: relocate sidecar: %v", ErrIO, err)
			}
		}
	}

	for _, t := range tuples {
		if err := index.WriteArtifact(t.Dir, t.Value, newPath); err != nil {
			log.WithStore(newPath).Error().Err(err).Msg("fringedb: failed to repoint index artifact after relocation")
		}
	}

	registryRemove(oldPath, s)
	if err := registryPut(newPath, s); err != nil {
		return err
	}

	s.mu.Lock()
	s.commitPath = newPath
	s.mu.Unlock()
	return nil
}

func (s *Store) checkUsable() error {
	switch s.st {
	case stateDeleted:
		return ErrDeleted
	case stateQuarantined:
		return ErrQuarantined
	default:
		return nil
	}
}

func (s *Store) indexTuplesLocked() []index.Tuple {
	root := s.identity[s.rootUUID]
	if root == nil {
		return nil
	}
	spec, ok := lookupRootType(root.typeTag)
	if !ok {
		return nil
	}
	tuples := make([]index.Tuple, 0, len(spec.IndexedProperties))
	for _, prop := range spec.IndexedProperties {
		v, ok := root.bag[prop]
		if !ok {
			continue
		}
		text, ok := valueText(v)
		if !ok {
			continue
		}
		dir := spec.IndexDirectory(prop, v, root)
		index.RegisterDirectory(dir)
		tuples = append(tuples, index.Tuple{Dir: dir, Value: text})
	}
	return tuples
}

// valueText renders a scalar Value as the text recorded/encoded by the
// index subsystem. Aggregate and reference kinds are not indexable.
func valueText(v codec.Value) (string, bool) {
	switch v.Kind {
	case codec.KindString:
		return v.String, true
	case codec.KindInt64:
		return fmt.Sprintf("%d", v.Int64), true
	case codec.KindUint64:
		return fmt.Sprintf("%d", v.Uint64), true
	case codec.KindFloat64:
		return fmt.Sprintf("%g", v.Float64), true
	case codec.KindBool:
		return fmt.Sprintf("%t", v.Bool), true
	case codec.KindTimestamp:
		return v.Timestamp.Format(time.RFC3339Nano), true
	default:
		return "", false
	}
}

// CleanIndexes scans every index directory registered process-wide and
// removes artifacts whose target store directory no longer exists, holds
// no data file, or whose data file cannot be read. Scope is explicit
// registration only, never a blind filesystem walk.
func CleanIndexes() ([]index.ArtifactEntry, error) {
	alive := func(commitPath string) bool {
		dataDir, err := os.Stat(commitPath)
		if err != nil || !dataDir.IsDir() {
			return false
		}
		dataPath, err := findDataFile(commitPath)
		if err != nil {
			return false
		}
		_, err = os.ReadFile(dataPath)
		return err == nil
	}
	removed, err := index.Clean(index.KnownDirectories(), alive)
	metrics.IndexArtifactsRemoved.Add(float64(len(removed)))
	return removed, err
}
