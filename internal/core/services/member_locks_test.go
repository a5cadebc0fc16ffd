package services

import (
	"context"
	"testing"
	"time"

	"assofund/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRegistryAcquireRelease(t *testing.T) {
	locks := NewLockRegistry()
	ctx := context.Background()

	release, err := locks.Acquire(ctx, 1, time.Second)
	require.NoError(t, err)

	// The same member is busy until released.
	_, err = locks.Acquire(ctx, 1, 50*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	// A different member never contends.
	other, err := locks.Acquire(ctx, 2, 50*time.Millisecond)
	require.NoError(t, err)
	other()

	release()
	release2, err := locks.Acquire(ctx, 1, 50*time.Millisecond)
	require.NoError(t, err)
	release2()
}

func TestLockRegistryHonorsContext(t *testing.T) {
	locks := NewLockRegistry()

	release, err := locks.Acquire(context.Background(), 7, time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locks.Acquire(ctx, 7, time.Second)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}
