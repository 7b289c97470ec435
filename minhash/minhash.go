// Package minhash implements the MinHash signature scheme used by simindex.
//
// A signature maps a set of characteristic tokens to `bands` independent
// sequences of `buckets` bucket indices. Two sets with high Jaccard
// similarity produce, with high probability, the same bucket index under the
// same permutation, which is what makes the bucket encodings usable as
// locality-sensitive storage keys.
//
// Signatures are only comparable between tables built with identical
// (rows, bands, buckets, seed) parameters. The permutation generator is
// seeded deterministically so that every process derives the same table.
package minhash

import (
	"errors"
	"hash/fnv"
	"math"
	"math/rand"
)

// DefaultSeed seeds the permutation generator. The value is arbitrary but
// must never change for data written under it to remain readable.
const DefaultSeed int64 = 0

// ErrEmptyInput is returned when a signature is requested for an empty
// characteristic set. A permutation scan over an empty column set has no
// answer, so callers must guard against empty input.
var ErrEmptyInput = errors.New("minhash: empty characteristic set")

// PermutationTable holds the per-band, per-bucket row permutations used to
// generate signatures. It is built once at index construction and is a pure
// function of its parameters; it is safe for concurrent use.
type PermutationTable struct {
	rows  int
	perms [][][]int // bands x buckets x rows
}

// NewPermutationTable builds the permutation table for the given dimensions.
// For each of bands bands it generates buckets independent permutations of
// [0, rows) from a deterministic generator seeded with seed.
func NewPermutationTable(rows, bands, buckets int, seed int64) *PermutationTable {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // determinism required, not entropy
	perms := make([][][]int, bands)
	for band := range perms {
		perms[band] = make([][]int, buckets)
		for bucket := range perms[band] {
			perms[band][bucket] = rng.Perm(rows)
		}
	}
	return &PermutationTable{rows: rows, perms: perms}
}

// Rows returns the size of the hash ring tokens are collapsed onto.
func (t *PermutationTable) Rows() int { return t.rows }

// Bands returns the number of bands in a signature.
func (t *PermutationTable) Bands() int { return len(t.perms) }

// Buckets returns the number of bucket indices per band.
func (t *PermutationTable) Buckets() int {
	if len(t.perms) == 0 {
		return 0
	}
	return len(t.perms[0])
}

// Signature generates the minhash signature for a characteristic set. The
// result has one sequence of bucket indices per band, each index in
// [0, rows). Duplicate tokens are meaningless; the input is treated as a set.
func (t *PermutationTable) Signature(characteristics []string) ([][]int, error) {
	if len(characteristics) == 0 {
		return nil, ErrEmptyInput
	}

	columns := make(map[int]struct{}, len(characteristics))
	for _, token := range characteristics {
		columns[column(token, t.rows)] = struct{}{}
	}

	signature := make([][]int, len(t.perms))
	for band, perms := range t.perms {
		buckets := make([]int, len(perms))
		for i, perm := range perms {
			// The first position, in permuted order, whose column the
			// input occupies. A non-empty column set always matches.
			for pos, col := range perm {
				if _, ok := columns[col]; ok {
					buckets[i] = pos
					break
				}
			}
		}
		signature[band] = buckets
	}

	return signature, nil
}

// column collapses a token onto the hash ring.
func column(token string, rows int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum64() % uint64(rows))
}

// ScaleToTotal converts a mapping of distinct quantities to a mapping of
// proportions of the total quantity. A zero total yields an empty
// distribution.
func ScaleToTotal(counts map[string]float64) map[string]float64 {
	var total float64
	for _, v := range counts {
		total += v
	}

	scaled := make(map[string]float64, len(counts))
	if total == 0 {
		return scaled
	}
	for k, v := range counts {
		scaled[k] = v / total
	}
	return scaled
}

// Distance computes the N-dimensional Euclidean distance between two sparse
// distributions. A key missing from either side is treated as 0.
func Distance(target, other map[string]float64) float64 {
	var sum float64
	for k, v := range target {
		d := v - other[k]
		sum += d * d
	}
	for k, v := range other {
		if _, ok := target[k]; !ok {
			sum += v * v
		}
	}
	return math.Sqrt(sum)
}
