package simindex_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/hupe1980/simindex"
	"github.com/hupe1980/simindex/feature"
	"github.com/hupe1980/simindex/store"
)

// Example demonstrates recording and querying against an in-memory backend.
func Example() {
	ctx := context.Background()

	idx, err := simindex.New(store.NewMemoryStore(), 0xFFFF, 8, 2)
	if err != nil {
		log.Fatal(err)
	}

	_ = idx.Record(ctx, "errors:tenant-1", "group-a", []string{"connection", "refused", "host"})
	_ = idx.Record(ctx, "errors:tenant-1", "group-b", []string{"connection", "refused", "host"})

	results, err := idx.Query(ctx, "errors:tenant-1", "group-a")
	if err != nil {
		log.Fatal(err)
	}

	for _, r := range results {
		fmt.Printf("%s %.2f\n", r.Key, r.Similarity)
	}
	// Output:
	// group-a 1.00
	// group-b 1.00
}

type incident struct {
	Tenant string
	ID     string
	Title  string
}

type titleExtractor struct{}

func (titleExtractor) Scope(entity any) []string {
	return []string{"title", entity.(*incident).Tenant}
}

func (titleExtractor) Key(entity any) []string {
	return []string{entity.(*incident).ID}
}

func (titleExtractor) Characteristics(source any) []string {
	return strings.Fields(source.(*incident).Title)
}

// Example_feature demonstrates binding an index to domain objects.
func Example_feature() {
	ctx := context.Background()

	idx, err := simindex.New(store.NewMemoryStore(), 0xFFFF, 8, 2)
	if err != nil {
		log.Fatal(err)
	}
	titles := feature.New(idx, titleExtractor{})

	first := &incident{Tenant: "t1", ID: "inc-1", Title: "database connection refused"}
	second := &incident{Tenant: "t1", ID: "inc-2", Title: "database connection refused"}
	_ = titles.Record(ctx, first, first)
	_ = titles.Record(ctx, second, second)

	results, err := titles.Query(ctx, first)
	if err != nil {
		log.Fatal(err)
	}

	for _, r := range results {
		fmt.Printf("%s %.2f\n", r.Key, r.Similarity)
	}
	// Output:
	// inc-1 1.00
	// inc-2 1.00
}
