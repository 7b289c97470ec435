package minhash

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature(t *testing.T) {
	t.Run("Shape", func(t *testing.T) {
		table := NewPermutationTable(0xFFFF, 8, 2, DefaultSeed)

		signature, err := table.Signature([]string{"a", "b", "c"})
		require.NoError(t, err)
		require.Len(t, signature, 8)

		for _, band := range signature {
			require.Len(t, band, 2)
			for _, bucket := range band {
				assert.GreaterOrEqual(t, bucket, 0)
				assert.Less(t, bucket, 0xFFFF)
			}
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		table := NewPermutationTable(128, 4, 2, DefaultSeed)

		first, err := table.Signature([]string{"a", "b", "c"})
		require.NoError(t, err)
		second, err := table.Signature([]string{"a", "b", "c"})
		require.NoError(t, err)
		assert.Equal(t, first, second)

		// A separately built table with identical parameters must agree.
		other := NewPermutationTable(128, 4, 2, DefaultSeed)
		third, err := other.Signature([]string{"a", "b", "c"})
		require.NoError(t, err)
		assert.Equal(t, first, third)
	})

	t.Run("InputIsASet", func(t *testing.T) {
		table := NewPermutationTable(128, 4, 2, DefaultSeed)

		deduped, err := table.Signature([]string{"a", "b"})
		require.NoError(t, err)
		duplicated, err := table.Signature([]string{"b", "a", "a", "b"})
		require.NoError(t, err)
		assert.Equal(t, deduped, duplicated)
	})

	t.Run("SeedChangesSignature", func(t *testing.T) {
		base := NewPermutationTable(0xFFFF, 8, 2, DefaultSeed)
		reseeded := NewPermutationTable(0xFFFF, 8, 2, 1)

		first, err := base.Signature([]string{"a", "b", "c"})
		require.NoError(t, err)
		second, err := reseeded.Signature([]string{"a", "b", "c"})
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		table := NewPermutationTable(128, 4, 2, DefaultSeed)

		_, err := table.Signature(nil)
		require.ErrorIs(t, err, ErrEmptyInput)

		_, err = table.Signature([]string{})
		require.ErrorIs(t, err, ErrEmptyInput)
	})
}

func TestPermutationTableDimensions(t *testing.T) {
	table := NewPermutationTable(64, 8, 2, DefaultSeed)

	assert.Equal(t, 64, table.Rows())
	assert.Equal(t, 8, table.Bands())
	assert.Equal(t, 2, table.Buckets())
}

func TestScaleToTotal(t *testing.T) {
	t.Run("Proportions", func(t *testing.T) {
		scaled := ScaleToTotal(map[string]float64{"a": 1, "b": 3})

		assert.InDelta(t, 0.25, scaled["a"], 1e-9)
		assert.InDelta(t, 0.75, scaled["b"], 1e-9)
	})

	t.Run("ZeroTotal", func(t *testing.T) {
		assert.Empty(t, ScaleToTotal(map[string]float64{}))
	})
}

func TestDistance(t *testing.T) {
	a := map[string]float64{"x": 0.5, "y": 0.5}
	b := map[string]float64{"y": 0.5, "z": 0.5}

	t.Run("Identity", func(t *testing.T) {
		assert.Zero(t, Distance(a, a))
	})

	t.Run("Symmetry", func(t *testing.T) {
		assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
	})

	t.Run("SparseKeysAreZero", func(t *testing.T) {
		// Only "x" and "z" differ, by 0.5 each.
		assert.InDelta(t, math.Sqrt(0.5), Distance(a, b), 1e-9)
	})

	t.Run("DisjointUnitDistributions", func(t *testing.T) {
		assert.InDelta(t, math.Sqrt2,
			Distance(map[string]float64{"a": 1}, map[string]float64{"b": 1}), 1e-9)
	})
}
