// Package store defines the storage backend contract consumed by the
// similarity index: a key namespace of sets and sorted sets reachable
// through batched requests.
//
// Requests are queued on a Batch and resolved together by Exec. Read
// requests return pending result handles that become valid once Exec
// returns. This keeps the fan-out/fan-in boundary explicit: a backend is
// free to resolve the batch concurrently across nodes or connections, but a
// batch as a whole is issued and awaited as one unit.
package store

import (
	"context"
	"sort"
)

// Store provides access to a set / sorted-set keyspace.
//
// Implementations must be safe for concurrent use; batches created from the
// same Store are independent. Mutations issued by the index are limited to
// set additions and counter increments, both commutative, so implementations
// need not provide atomicity across the requests of one batch.
type Store interface {
	// Batch starts a new, empty request batch.
	Batch() Batch
}

// Batch groups independent requests for one round of execution.
//
// A Batch is single-use and not safe for concurrent use: queue requests,
// call Exec once, then read results. Results of a batch whose Exec returned
// an error may carry per-request errors.
type Batch interface {
	// SetAdd adds member to the set at key. Idempotent.
	SetAdd(key, member string)

	// SetMembers requests all members of the set at key. A missing key
	// resolves to an empty set.
	SetMembers(key string) *Members

	// SortedSetIncr increments the score of member in the sorted set at
	// key by delta, creating either as needed, and resolves to the new
	// score.
	SortedSetIncr(key, member string, delta float64) *Score

	// SortedSetRange requests the members of the sorted set at key between
	// the inclusive rank indices start and stop, with their scores.
	// Negative indices count from the end, as in (0, -1) for the full set.
	// When rev is true the set is ranked by descending score.
	SortedSetRange(key string, start, stop int64, rev bool) *Range

	// Exec issues all queued requests and resolves their results. Partial
	// failures are surfaced as a single aggregate error.
	Exec(ctx context.Context) error
}

// ScoredMember pairs a sorted-set member with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// RankSlice orders members by score (descending when rev) with ties broken
// by ascending member, then applies the inclusive rank indices start and
// stop with negative-index semantics. It is a helper for Store
// implementations whose backend has no native ranked range.
func RankSlice(members []ScoredMember, start, stop int64, rev bool) []ScoredMember {
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			if rev {
				return members[i].Score > members[j].Score
			}
			return members[i].Score < members[j].Score
		}
		return members[i].Member < members[j].Member
	})

	n := int64(len(members))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return []ScoredMember{}
	}
	return members[start : stop+1]
}

// Members is the pending result of a SetMembers request.
type Members struct {
	val []string
	err error
}

// Resolve sets the result. It is intended for Store implementations.
func (m *Members) Resolve(val []string, err error) {
	m.val, m.err = val, err
}

// Result returns the resolved members. Calling it before Exec returns the
// zero value.
func (m *Members) Result() ([]string, error) {
	return m.val, m.err
}

// Score is the pending result of a SortedSetIncr request.
type Score struct {
	val float64
	err error
}

// Resolve sets the result. It is intended for Store implementations.
func (s *Score) Resolve(val float64, err error) {
	s.val, s.err = val, err
}

// Result returns the new score after the increment.
func (s *Score) Result() (float64, error) {
	return s.val, s.err
}

// Range is the pending result of a SortedSetRange request.
type Range struct {
	val []ScoredMember
	err error
}

// Resolve sets the result. It is intended for Store implementations.
func (r *Range) Resolve(val []ScoredMember, err error) {
	r.val, r.err = val, err
}

// Result returns the resolved members with scores.
func (r *Range) Result() ([]ScoredMember, error) {
	return r.val, r.err
}
