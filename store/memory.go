package store

import (
	"context"
	"sort"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store implementation for tests and
// single-process use. Thread-safe for concurrent batches.
type MemoryStore struct {
	mu    sync.Mutex
	sets  map[string]map[string]struct{}
	zsets map[string]map[string]float64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets:  make(map[string]map[string]struct{}),
		zsets: make(map[string]map[string]float64),
	}
}

// Batch starts a new request batch.
func (m *MemoryStore) Batch() Batch {
	return &memoryBatch{store: m}
}

// memoryBatch queues requests as closures applied in submission order under
// the store lock.
type memoryBatch struct {
	store *MemoryStore
	ops   []func(*MemoryStore)
}

func (b *memoryBatch) SetAdd(key, member string) {
	b.ops = append(b.ops, func(m *MemoryStore) {
		set, ok := m.sets[key]
		if !ok {
			set = make(map[string]struct{})
			m.sets[key] = set
		}
		set[member] = struct{}{}
	})
}

func (b *memoryBatch) SetMembers(key string) *Members {
	res := &Members{}
	b.ops = append(b.ops, func(m *MemoryStore) {
		members := make([]string, 0, len(m.sets[key]))
		for member := range m.sets[key] {
			members = append(members, member)
		}
		sort.Strings(members)
		res.Resolve(members, nil)
	})
	return res
}

func (b *memoryBatch) SortedSetIncr(key, member string, delta float64) *Score {
	res := &Score{}
	b.ops = append(b.ops, func(m *MemoryStore) {
		zset, ok := m.zsets[key]
		if !ok {
			zset = make(map[string]float64)
			m.zsets[key] = zset
		}
		zset[member] += delta
		res.Resolve(zset[member], nil)
	})
	return res
}

func (b *memoryBatch) SortedSetRange(key string, start, stop int64, rev bool) *Range {
	res := &Range{}
	b.ops = append(b.ops, func(m *MemoryStore) {
		ranked := make([]ScoredMember, 0, len(m.zsets[key]))
		for member, score := range m.zsets[key] {
			ranked = append(ranked, ScoredMember{Member: member, Score: score})
		}
		res.Resolve(RankSlice(ranked, start, stop, rev), nil)
	})
	return res
}

func (b *memoryBatch) Exec(_ context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	for _, op := range b.ops {
		op(b.store)
	}
	b.ops = nil
	return nil
}
