package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottledStore_Delegates(t *testing.T) {
	ctx := context.Background()
	s := Throttled(NewMemoryStore(), 1000, 1000)

	batch := s.Batch()
	batch.SetAdd("k", "a")
	members := batch.SetMembers("k")
	require.NoError(t, batch.Exec(ctx))

	got, err := members.Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestThrottledStore_EmptyBatch(t *testing.T) {
	s := Throttled(NewMemoryStore(), 1, 1)

	// An empty batch consumes no tokens and must not block.
	require.NoError(t, s.Batch().Exec(context.Background()))
	require.NoError(t, s.Batch().Exec(context.Background()))
}

func TestThrottledStore_ContextCanceled(t *testing.T) {
	s := Throttled(NewMemoryStore(), 1, 1)

	// Drain the burst so the next request has to wait.
	batch := s.Batch()
	batch.SetAdd("k", "a")
	require.NoError(t, batch.Exec(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	batch = s.Batch()
	batch.SetAdd("k", "b")
	assert.Error(t, batch.Exec(ctx))
}

func TestThrottledStore_BatchLargerThanBurst(t *testing.T) {
	s := Throttled(NewMemoryStore(), 100, 1)

	batch := s.Batch()
	batch.SetAdd("k", "a")
	batch.SetAdd("k", "b")
	assert.Error(t, batch.Exec(context.Background()))
}
