package simindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/hupe1980/simindex/codec"
	"github.com/hupe1980/simindex/minhash"
	"github.com/hupe1980/simindex/store"
)

// DefaultNamespace prefixes every storage key written by an Index.
const DefaultNamespace = "sim"

// Fact kind markers embedded in storage keys. Membership facts map
// (band, bucket encoding) to the set of keys that produced it; frequency
// facts map (band, key) to per-bucket observation counts.
const (
	kindMembership = "0"
	kindFrequency  = "1"
)

// Result is one entry of a query ranking.
type Result struct {
	Key        string
	Similarity float64
}

// Frequencies is a per-band sequence of bucket distributions: one mapping
// from encoded bucket sequence to its proportion of the band's observations.
type Frequencies []map[string]float64

// Index is a similarity index over an abstract set / sorted-set store.
//
// It extends the typical MinHash LSH design by recording signatures against
// an arbitrary caller key, so a key can accumulate many characteristic sets
// over time and similarity is estimated between the keys' empirical bucket
// distributions rather than between single signatures.
//
// rows is the size of the hash ring tokens are collapsed onto; the total
// signature size is bands * buckets. These parameters control how data is
// distributed within the backend, and modifying them after data has been
// written causes silent data corruption: previously written facts stop
// being comparable with new ones.
//
// All methods are safe for concurrent use. Record and Query block on the
// backend; callers own the timeout policy via ctx.
type Index struct {
	store          store.Store
	table          *minhash.PermutationTable
	enc            *codec.Encoder
	namespace      string
	minBandOverlap int
	logger         *Logger
}

// New creates an Index with the given shape on the given backend.
func New(s store.Store, rows, bands, buckets int, optFns ...Option) (*Index, error) {
	for _, p := range []struct {
		name  string
		value int
	}{{"rows", rows}, {"bands", bands}, {"buckets", buckets}} {
		if p.value < 1 {
			return nil, &ErrInvalidShape{Param: p.name, Value: p.value}
		}
	}

	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	enc, err := codec.NewEncoder(uint64(rows))
	if err != nil {
		return nil, err
	}

	return &Index{
		store:          s,
		table:          minhash.NewPermutationTable(rows, bands, buckets, o.seed),
		enc:            enc,
		namespace:      o.namespace,
		minBandOverlap: o.minBandOverlap,
		logger:         o.logger,
	}, nil
}

// Bands returns the number of signature bands.
func (i *Index) Bands() int { return i.table.Bands() }

// Signature generates the minhash signature for a characteristic set.
func (i *Index) Signature(characteristics []string) ([][]int, error) {
	return i.table.Signature(characteristics)
}

// Record stores the presence of a set of characteristics under key. Counts
// are cumulative: recording the same characteristics twice doubles their
// weight in the key's bucket distributions.
//
// All per-band writes are issued as one batch; a failure of any write
// surfaces as a single aggregate error with no per-band retry.
func (i *Index) Record(ctx context.Context, scope, key string, characteristics []string) error {
	signature, err := i.Signature(characteristics)
	if err != nil {
		return err
	}

	batch := i.store.Batch()
	for band, buckets := range signature {
		encoded := string(i.enc.Encode(buckets))
		batch.SetAdd(i.storageKey(scope, kindMembership, band, encoded), key)
		batch.SortedSetIncr(i.storageKey(scope, kindFrequency, band, key), encoded, 1)
	}
	if err := batch.Exec(ctx); err != nil {
		err = fmt.Errorf("record %q in scope %q: %w", key, scope, err)
		i.logger.LogRecord(ctx, scope, key, len(signature), err)
		return err
	}

	i.logger.LogRecord(ctx, scope, key, len(signature), nil)
	return nil
}

// Query finds other keys in scope that are similar to key.
//
// It returns (key, estimated similarity) pairs where 1 means completely
// similar and 0 completely dissimilar, ordered from most to least similar
// with ties broken by ascending key. The queried key itself is always
// included and always scores 1. Given unchanged backend state the result is
// idempotent.
func (i *Index) Query(ctx context.Context, scope, key string) ([]Result, error) {
	fail := func(err error) ([]Result, error) {
		err = fmt.Errorf("query %q in scope %q: %w", key, scope, err)
		i.logger.LogQuery(ctx, scope, key, 0, err)
		return nil, err
	}

	own, err := i.fetchFrequencies(ctx, scope, []string{key})
	if err != nil {
		return fail(err)
	}
	target := own[key]

	candidates, err := i.fetchCandidates(ctx, scope, target)
	if err != nil {
		return fail(err)
	}

	keys := make([]string, 0, len(candidates)+1)
	threshold := i.minBandOverlap
	for candidate, hits := range candidates {
		if candidate != key && hits >= threshold {
			keys = append(keys, candidate)
		}
	}
	// The queried key is always scored, whether or not its own membership
	// facts have been observed yet.
	keys = append(keys, key)

	frequencies, err := i.fetchFrequencies(ctx, scope, keys)
	if err != nil {
		return fail(err)
	}

	results := make([]Result, 0, len(frequencies))
	for candidate, freqs := range frequencies {
		similarity, err := i.Similarity(target, freqs)
		if err != nil {
			return fail(err)
		}
		results = append(results, Result{Key: candidate, Similarity: similarity})
	}
	sort.Slice(results, func(a, b int) bool {
		if results[a].Similarity != results[b].Similarity {
			return results[a].Similarity > results[b].Similarity
		}
		return results[a].Key < results[b].Key
	})

	i.logger.LogQuery(ctx, scope, key, len(results), nil)
	return results, nil
}

// Similarity estimates the degree of similarity between two normalized
// bucket frequency sequences, as produced by Query's fetch path. It is
// exposed mainly for testing and ranking introspection.
//
// Per band, the two distributions are compared as sparse vectors by
// Euclidean distance; the summed divergence is normalized by the maximum
// possible distance (sqrt(2) for two disjoint unit-sum distributions) per
// band and inverted into a similarity.
func (i *Index) Similarity(target, other Frequencies) (float64, error) {
	if len(target) != i.table.Bands() || len(other) != i.table.Bands() {
		return 0, ErrBandCountMismatch
	}

	var divergence float64
	for band := range target {
		divergence += minhash.Distance(target[band], other[band])
	}
	return 1 - divergence/math.Sqrt2/float64(len(target)), nil
}

// fetchFrequencies fetches every band's bucket frequencies for each key in
// one batch and normalizes each band's counts to proportions. A band with
// no observations yields an empty distribution.
func (i *Index) fetchFrequencies(ctx context.Context, scope string, keys []string) (map[string]Frequencies, error) {
	batch := i.store.Batch()
	pending := make(map[string][]*store.Range, len(keys))
	for _, key := range keys {
		ranges := make([]*store.Range, i.table.Bands())
		for band := range ranges {
			ranges[band] = batch.SortedSetRange(i.storageKey(scope, kindFrequency, band, key), 0, -1, true)
		}
		pending[key] = ranges
	}
	if err := batch.Exec(ctx); err != nil {
		return nil, err
	}

	frequencies := make(map[string]Frequencies, len(keys))
	for key, ranges := range pending {
		freqs := make(Frequencies, len(ranges))
		for band, r := range ranges {
			observations, err := r.Result()
			if err != nil {
				return nil, err
			}
			counts := make(map[string]float64, len(observations))
			for _, o := range observations {
				counts[o.Member] = o.Score
			}
			freqs[band] = minhash.ScaleToTotal(counts)
		}
		frequencies[key] = freqs
	}
	return frequencies, nil
}

// fetchCandidates re-derives the query key's bucket encodings from its
// frequency sequence and fetches, in one batch, the membership set of every
// (band, encoding) pair. The result maps each candidate key to the number
// of bands it collided in.
func (i *Index) fetchCandidates(ctx context.Context, scope string, target Frequencies) (map[string]int, error) {
	batch := i.store.Batch()
	pending := make([][]*store.Members, len(target))
	for band, distribution := range target {
		sets := make([]*store.Members, 0, len(distribution))
		for encoded := range distribution {
			sets = append(sets, batch.SetMembers(i.storageKey(scope, kindMembership, band, encoded)))
		}
		pending[band] = sets
	}
	if err := batch.Exec(ctx); err != nil {
		return nil, err
	}

	hits := make(map[string]int)
	for _, sets := range pending {
		seen := make(map[string]struct{})
		for _, s := range sets {
			members, err := s.Result()
			if err != nil {
				return nil, err
			}
			for _, member := range members {
				seen[member] = struct{}{}
			}
		}
		for member := range seen {
			hits[member]++
		}
	}
	return hits, nil
}

func (i *Index) storageKey(scope, kind string, band int, discriminator string) string {
	return i.namespace + ":" + scope + ":" + kind + ":" + strconv.Itoa(band) + ":" + discriminator
}
