package feature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/simindex/store"
)

// failingStore aborts every batch; it stands in for an unhealthy backend.
type failingStore struct{}

type failingBatch struct{}

func (failingStore) Batch() store.Batch { return failingBatch{} }

func (failingBatch) SetAdd(key, member string) {}

func (failingBatch) SetMembers(key string) *store.Members { return &store.Members{} }

func (failingBatch) SortedSetIncr(key, member string, delta float64) *store.Score {
	return &store.Score{}
}

func (failingBatch) SortedSetRange(key string, start, stop int64, rev bool) *store.Range {
	return &store.Range{}
}

func (failingBatch) Exec(_ context.Context) error { return assert.AnError }

func TestAggregator_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("AllSucceed", func(t *testing.T) {
		agg := NewAggregator(map[string]*Feature{
			"message": newFeature(t, store.NewMemoryStore()),
			"tokens":  newFeature(t, store.NewMemoryStore()),
		}, 0)

		e := &event{Tenant: "t1", GroupID: "g1", Message: "a b c"}
		outcomes := agg.Record(ctx, e, e)
		require.Len(t, outcomes, 2)
		for _, o := range outcomes {
			assert.NoError(t, o.Err)
		}
	})

	t.Run("FailuresAreIsolated", func(t *testing.T) {
		agg := NewAggregator(map[string]*Feature{
			"broken":  newFeature(t, failingStore{}),
			"healthy": newFeature(t, store.NewMemoryStore()),
		}, 0)

		e := &event{Tenant: "t1", GroupID: "g1", Message: "a b c"}
		outcomes := agg.Record(ctx, e, e)
		require.Len(t, outcomes, 2)

		// Ordered by label, and both features were attempted.
		assert.Equal(t, "broken", outcomes[0].Label)
		assert.ErrorIs(t, outcomes[0].Err, assert.AnError)
		assert.Equal(t, "healthy", outcomes[1].Label)
		assert.NoError(t, outcomes[1].Err)
	})
}

func TestAggregator_Query(t *testing.T) {
	ctx := context.Background()

	t.Run("MergesAcrossFeatures", func(t *testing.T) {
		agg := NewAggregator(map[string]*Feature{
			"message": newFeature(t, store.NewMemoryStore()),
			"tokens":  newFeature(t, store.NewMemoryStore()),
		}, 0)

		e1 := &event{Tenant: "t1", GroupID: "g1", Message: "a b c"}
		e2 := &event{Tenant: "t1", GroupID: "g2", Message: "a b c"}
		for _, o := range agg.Record(ctx, e1, e1) {
			require.NoError(t, o.Err)
		}
		for _, o := range agg.Record(ctx, e2, e2) {
			require.NoError(t, o.Err)
		}

		matches, err := agg.Query(ctx, e1)
		require.NoError(t, err)
		require.Len(t, matches, 2)

		assert.Equal(t, "g1", matches[0].Key)
		assert.Equal(t, map[string]float64{"message": 1.0, "tokens": 1.0}, matches[0].Scores)
		assert.Equal(t, 2.0, matches[0].Total())
		assert.Equal(t, "g2", matches[1].Key)
	})

	t.Run("FailurePropagates", func(t *testing.T) {
		agg := NewAggregator(map[string]*Feature{
			"broken":  newFeature(t, failingStore{}),
			"healthy": newFeature(t, store.NewMemoryStore()),
		}, 0)

		_, err := agg.Query(ctx, &event{Tenant: "t1", GroupID: "g1"})
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("Get", func(t *testing.T) {
		f := newFeature(t, store.NewMemoryStore())
		agg := NewAggregator(map[string]*Feature{"message": f}, 0)

		got, ok := agg.Get("message")
		assert.True(t, ok)
		assert.Same(t, f, got)

		_, ok = agg.Get("missing")
		assert.False(t, ok)
	})
}
