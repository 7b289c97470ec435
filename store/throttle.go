package store

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledStore paces batch execution against a shared backend. Each queued
// request consumes one token from the limiter before the batch is executed,
// so a batch carrying N requests waits for N tokens.
//
// Use this to keep a busy indexer from starving other clients of the same
// backend cluster.
type ThrottledStore struct {
	inner   Store
	limiter *rate.Limiter
}

// Throttled wraps inner with a request rate limit. requestsPerSec is the
// sustained rate; burst is the number of requests that may pass without
// waiting. burst must be at least the largest batch size that will be
// issued, or Exec fails.
func Throttled(inner Store, requestsPerSec float64, burst int) *ThrottledStore {
	return &ThrottledStore{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), burst),
	}
}

// Batch starts a new request batch on the underlying store.
func (s *ThrottledStore) Batch() Batch {
	return &throttledBatch{inner: s.inner.Batch(), limiter: s.limiter}
}

type throttledBatch struct {
	inner   Batch
	limiter *rate.Limiter
	queued  int
}

func (b *throttledBatch) SetAdd(key, member string) {
	b.queued++
	b.inner.SetAdd(key, member)
}

func (b *throttledBatch) SetMembers(key string) *Members {
	b.queued++
	return b.inner.SetMembers(key)
}

func (b *throttledBatch) SortedSetIncr(key, member string, delta float64) *Score {
	b.queued++
	return b.inner.SortedSetIncr(key, member, delta)
}

func (b *throttledBatch) SortedSetRange(key string, start, stop int64, rev bool) *Range {
	b.queued++
	return b.inner.SortedSetRange(key, start, stop, rev)
}

func (b *throttledBatch) Exec(ctx context.Context) error {
	if b.queued > 0 {
		if err := b.limiter.WaitN(ctx, b.queued); err != nil {
			return err
		}
	}
	return b.inner.Exec(ctx)
}
