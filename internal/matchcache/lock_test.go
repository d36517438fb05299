package matchcache

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealradar/dealradar/internal/cache"
)

func TestRunLocker_AcquireAndRelease(t *testing.T) {
	mem := cache.NewMemory()
	locker := NewRunLocker(mem, 0, zerolog.Nop())
	ctx := context.Background()

	release, held := locker.Acquire(ctx, GoalLockKey("g1"))
	require.True(t, held)

	// A different key is independent
	release2, held2 := locker.Acquire(ctx, DealLockKey("d1"))
	assert.True(t, held2)
	release2()

	release()

	// Released lock can be taken again
	release3, held3 := locker.Acquire(ctx, GoalLockKey("g1"))
	assert.True(t, held3)
	release3()
}

func TestRunLocker_ContendedProceedsUnheld(t *testing.T) {
	mem := cache.NewMemory()
	locker := NewRunLocker(mem, 0, zerolog.Nop())
	ctx := context.Background()

	release, held := locker.Acquire(ctx, GoalLockKey("g1"))
	require.True(t, held)
	defer release()

	// Second acquirer exhausts its retries and proceeds without the lock
	release2, held2 := locker.Acquire(ctx, GoalLockKey("g1"))
	assert.False(t, held2)
	release2() // must be safe to call

	// The holder's lock survives the loser's release
	_, held3 := locker.Acquire(ctx, GoalLockKey("g1"))
	assert.False(t, held3)
}

func TestRunLocker_StoreFailureProceedsUnheld(t *testing.T) {
	mem := cache.NewMemory()
	mem.SetFailure(errors.New("store down"))
	locker := NewRunLocker(mem, 0, zerolog.Nop())

	release, held := locker.Acquire(context.Background(), GoalLockKey("g1"))

	assert.False(t, held)
	release()
}
