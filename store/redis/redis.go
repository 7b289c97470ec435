// Package redis provides a store.Store backed by Redis via go-redis.
//
// A simindex batch maps directly onto a go-redis pipeline. With a
// ClusterClient the pipeline is split by key slot, fanned out to the
// addressed nodes, and collected before Exec returns, which is exactly the
// fan-out/fan-in access pattern the index expects from its backend.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/simindex/store"
)

// Store implements store.Store on any go-redis universal client (single
// node, sentinel, or cluster).
type Store struct {
	client redis.UniversalClient
}

// New creates a Store on the given client. The client's lifecycle remains
// owned by the caller.
func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// Batch starts a new pipelined request batch.
func (s *Store) Batch() store.Batch {
	return &batch{pipe: s.client.Pipeline()}
}

type batch struct {
	pipe redis.Pipeliner
	// bindings copy pipeline command results into pending result handles
	// after Exec.
	bindings []func()
}

func (b *batch) SetAdd(key, member string) {
	b.pipe.SAdd(context.Background(), key, member)
}

func (b *batch) SetMembers(key string) *store.Members {
	cmd := b.pipe.SMembers(context.Background(), key)
	res := &store.Members{}
	b.bindings = append(b.bindings, func() {
		res.Resolve(cmd.Result())
	})
	return res
}

func (b *batch) SortedSetIncr(key, member string, delta float64) *store.Score {
	cmd := b.pipe.ZIncrBy(context.Background(), key, delta, member)
	res := &store.Score{}
	b.bindings = append(b.bindings, func() {
		res.Resolve(cmd.Result())
	})
	return res
}

func (b *batch) SortedSetRange(key string, start, stop int64, rev bool) *store.Range {
	var cmd *redis.ZSliceCmd
	if rev {
		cmd = b.pipe.ZRevRangeWithScores(context.Background(), key, start, stop)
	} else {
		cmd = b.pipe.ZRangeWithScores(context.Background(), key, start, stop)
	}
	res := &store.Range{}
	b.bindings = append(b.bindings, func() {
		zs, err := cmd.Result()
		if err != nil {
			res.Resolve(nil, err)
			return
		}
		members := make([]store.ScoredMember, 0, len(zs))
		for _, z := range zs {
			member, ok := z.Member.(string)
			if !ok {
				res.Resolve(nil, fmt.Errorf("unexpected member type %T", z.Member))
				return
			}
			members = append(members, store.ScoredMember{Member: member, Score: z.Score})
		}
		res.Resolve(members, nil)
	})
	return res
}

func (b *batch) Exec(ctx context.Context) error {
	_, err := b.pipe.Exec(ctx)
	for _, bind := range b.bindings {
		bind()
	}
	b.bindings = nil
	if err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}
