package syncer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_AcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	release, err := l.Acquire(ctx, "typesync:sync:product")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "typesync:sync:product")
	assert.ErrorIs(t, err, ErrSyncInProgress)

	release()

	release2, err := l.Acquire(ctx, "typesync:sync:product")
	require.NoError(t, err)
	release2()
}

func TestMemoryLocker_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	release, err := l.Acquire(ctx, "typesync:sync:product")
	require.NoError(t, err)
	defer release()

	release2, err := l.Acquire(ctx, "typesync:sync:taxonomy")
	require.NoError(t, err)
	release2()
}

func TestMemoryLocker_ConcurrentAcquire(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	const goroutines = 20
	var wg sync.WaitGroup
	acquired := make(chan func(), goroutines)

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if release, err := l.Acquire(ctx, "typesync:sync:product"); err == nil {
				acquired <- release
			}
		}()
	}
	wg.Wait()
	close(acquired)

	releases := make([]func(), 0, goroutines)
	for r := range acquired {
		releases = append(releases, r)
	}
	require.Len(t, releases, 1, "exactly one goroutine may hold the lock")
	releases[0]()
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, "typesync:sync:product", LockKey("product"))
	assert.Equal(t, "typesync:sync:site_info", LockKey("site_info"))
}
