package store

import "errors"

// Sentinel errors forming the store package's error taxonomy. Callers
// should compare against these with errors.Is; concrete errors returned
// by this package wrap one of them together with path/UUID context via
// fmt.Errorf("...: %w", ...).
var (
	ErrNoCommitPath     = errors.New("store: no commit path set")
	ErrNoRootObject     = errors.New("store: no root object")
	ErrCodec            = errors.New("store: codec error")
	ErrIO               = errors.New("store: io error")
	ErrPathConflict     = errors.New("store: path conflict")
	ErrRootAlreadyOwned = errors.New("store: root already owned by another store")
	ErrNoTransaction    = errors.New("store: no transaction open")
	ErrObjectNotFound   = errors.New("store: object not found")

	// ErrDeleted and ErrQuarantined back the state machine's terminal
	// states and consistency-error handling: once a store is deleted or
	// quarantined, every further operation must fail distinctly from
	// the other tiers.
	ErrDeleted       = errors.New("store: store has been deleted")
	ErrQuarantined   = errors.New("store: store is quarantined after a consistency error; only reads are permitted")
	ErrCrossStoreRef = errors.New("store: descendant reference across stores is forbidden")
)
