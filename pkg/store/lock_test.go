package store

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockReadSyncAllowsConcurrentReaders(t *testing.T) {
	l := newStoreLock()
	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.lockReadSync(func() {
				n := atomic.AddInt32(&active, 1)
				for {
					old := atomic.LoadInt32(&maxActive)
					if n <= old || atomic.CompareAndSwapInt32(&maxActive, old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&active, -1)
			})
		}()
	}
	wg.Wait()
	assert.Greater(t, maxActive, int32(1))
}

func TestLockWriteSyncIsExclusive(t *testing.T) {
	l := newStoreLock()
	var active int32
	var sawOverlap bool
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.lockWriteSync(func() {
				n := atomic.AddInt32(&active, 1)
				if n > 1 {
					mu.Lock()
					sawOverlap = true
					mu.Unlock()
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
			})
		}()
	}
	wg.Wait()
	assert.False(t, sawOverlap)
}

func TestLockWriteAsyncRunsEventually(t *testing.T) {
	l := newStoreLock()
	done := make(chan struct{})
	l.lockWriteAsync(func() { close(done) }, nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async job did not run")
	}
	l.close()
}

func TestLockWriteAsyncPreservesSubmissionOrder(t *testing.T) {
	l := newStoreLock()
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(5)

	for i := 0; i < 5; i++ {
		i := i
		l.lockWriteAsync(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		}, nil)
	}
	wg.Wait()
	l.close()

	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestLockWriteAsyncRecoversPanicAndReportsError(t *testing.T) {
	l := newStoreLock()
	errCh := make(chan error, 1)
	l.lockWriteAsync(func() {
		panic("boom")
	}, func(err error) { errCh <- err })

	select {
	case err := <-errCh:
		assert.Contains(t, err.Error(), "boom")
	case <-time.After(time.Second):
		t.Fatal("onAsyncError was not called")
	}
	l.close()
}
