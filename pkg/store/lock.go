package store

import (
	"sync"
	"time"

	"github.com/cuemby/fringedb/pkg/log"
	"github.com/cuemby/fringedb/pkg/metrics"
)

// storeLock implements three lock APIs: synchronous read/write critical
// sections, and an asynchronous write critical section backed by a
// per-store serial worker goroutine that preserves submission order
// (FIFO within one store; unspecified across stores).
//
// Every exported Store method that mutates state (Commit, SetRoot,
// BeginTransaction, CommitTransaction, Rollback, Delete,
// SetCommitPath) acquires and releases this lock for the duration of a
// single call; none of them call back into one another while holding
// it. Composing several of them into one atomic critical section is
// what LockWriteSync is for — callers doing so must call the
// already-locked variants (the *Locked methods on Store) from inside
// their closure instead of the public ones, to avoid self-deadlock,
// exactly as bbolt callers must not nest db.Update inside db.Update.
type storeLock struct {
	mu sync.RWMutex

	asyncOnce sync.Once
	asyncJobs chan func()
	closeOnce sync.Once
	closed    chan struct{}
}

func newStoreLock() *storeLock {
	return &storeLock{
		asyncJobs: make(chan func(), 64),
		closed:    make(chan struct{}),
	}
}

// lockReadSync runs fn under the read lock and returns when fn returns.
func (l *storeLock) lockReadSync(fn func()) {
	waitStart := time.Now()
	l.mu.RLock()
	metrics.LockWaitDuration.WithLabelValues("read").Observe(time.Since(waitStart).Seconds())
	defer l.mu.RUnlock()
	fn()
}

// lockWriteSync runs fn under the write lock and returns when fn
// returns.
func (l *storeLock) lockWriteSync(fn func()) {
	waitStart := time.Now()
	l.mu.Lock()
	metrics.LockWaitDuration.WithLabelValues("write").Observe(time.Since(waitStart).Seconds())
	defer l.mu.Unlock()
	fn()
}

// lockWriteAsync enqueues fn to run under the write lock on this store's
// serial worker and returns immediately. Submissions to the same store
// run in FIFO order. There is no completion channel: fn returns nothing,
// so a panic in fn is the only failure reported, and only via logging,
// metrics, and the optional onAsyncError hook.
func (l *storeLock) lockWriteAsync(fn func(), onAsyncError func(error)) {
	l.asyncOnce.Do(func() {
		go l.runAsyncWorker()
	})
	select {
	case l.asyncJobs <- func() { l.runAsyncJob(fn, onAsyncError) }:
		metrics.AsyncQueueDepth.Set(float64(len(l.asyncJobs)))
	case <-l.closed:
	}
}

func (l *storeLock) runAsyncWorker() {
	for {
		select {
		case job := <-l.asyncJobs:
			job()
			metrics.AsyncQueueDepth.Set(float64(len(l.asyncJobs)))
		case <-l.closed:
			return
		}
	}
}

func (l *storeLock) runAsyncJob(fn func(), onAsyncError func(error)) {
	defer func() {
		if r := recover(); r != nil {
			err := panicToError(r)
			log.Logger.Error().Err(err).Msg("fringedb: async write job panicked")
			metrics.AsyncWriteErrors.Inc()
			if onAsyncError != nil {
				onAsyncError(err)
			}
		}
	}()
	l.lockWriteSync(fn)
}

func (l *storeLock) close() {
	l.closeOnce.Do(func() {
		close(l.closed)
	})
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicError{value: r}
}

type panicError struct{ value any }

func (e *panicError) Error() string { return "panic: " + formatPanic(e.value) }

func formatPanic(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "unknown panic value"
}
