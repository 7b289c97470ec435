// Package simindex provides a MinHash-based similarity index for Go.
//
// Simindex answers "which other keys in this scope look like this one?"
// without ever comparing full characteristic sets pairwise. Recording an
// entity computes a compact locality-sensitive signature from its
// characteristic tokens and writes membership and frequency facts to a
// pluggable storage backend; querying re-reads those facts, collects
// candidate keys that collided in any signature band, and ranks them by an
// estimated similarity in [0,1].
//
// # Quick Start
//
//	ctx := context.Background()
//
//	idx, _ := simindex.New(store.NewMemoryStore(), 0xFFFF, 8, 2)
//
//	_ = idx.Record(ctx, "messages:1", "group-a", []string{"connection", "refused"})
//	_ = idx.Record(ctx, "messages:1", "group-b", []string{"connection", "refused"})
//
//	results, _ := idx.Query(ctx, "messages:1", "group-a")
//	for _, r := range results {
//	    fmt.Println(r.Key, r.Similarity)
//	}
//
// # Backends
//
// The storage contract lives in the store package. store.MemoryStore serves
// tests and single-process use; store/redis speaks to a Redis node or
// cluster via pipelined batches; store/dynamodb emulates the contract on a
// DynamoDB table. Backends see only opaque keys and members, so any store
// with sets, counters, and batched access can be adapted.
//
// # Index Shape
//
// The rows, bands, and buckets parameters fix the shape of the index and of
// every key it writes. They must match across all processes sharing one
// backend, and changing them after data has been written silently corrupts
// comparability with existing facts. There is no migration path; pick the
// shape once.
//
// # Features and Aggregation
//
// The feature package binds an index to caller-supplied extraction
// functions and merges the rankings of several independently indexed
// features into one result.
package simindex
