// Package feature binds similarity indexes to domain objects and merges the
// rankings of several independently indexed features into one result.
//
// A feature pairs one index with caller-supplied extraction functions: the
// index never learns what an entity is, only the scope, key, and
// characteristic tokens the extractor derives from it. An aggregator runs a
// labeled set of features side by side, so one entity can be compared along
// several axes (say, stack frames and message words) with every axis kept
// in its own similarity universe.
package feature

import (
	"context"
	"strings"

	"github.com/hupe1980/simindex"
)

// Delimiter joins scope and key segments into the index's flat identifier
// strings. Part of the storage key format; never change it on a populated
// backend.
const Delimiter = ":"

// Extractor derives index coordinates from domain objects.
//
// Scope and Key describe the queryable entity (the thing rankings are
// about); Characteristics tokenizes a recordable source (one observation
// attributed to an entity). Implementations must be pure: the same input
// yields the same segments and tokens every time.
type Extractor interface {
	// Scope returns the scope segments for an entity, e.g. a feature tag
	// and a tenant id.
	Scope(entity any) []string

	// Key returns the identifier segments for an entity.
	Key(entity any) []string

	// Characteristics returns the tokens describing a source's content.
	// Order and duplicates are meaningless; the index treats the result
	// as a set.
	Characteristics(source any) []string
}

// Feature binds one similarity index to an Extractor.
type Feature struct {
	index *simindex.Index
	ext   Extractor
}

// New binds index to ext.
func New(index *simindex.Index, ext Extractor) *Feature {
	return &Feature{index: index, ext: ext}
}

// Record indexes one observation: source's characteristics are recorded
// against the scope and key extracted from entity.
func (f *Feature) Record(ctx context.Context, entity, source any) error {
	return f.index.Record(ctx,
		flatten(f.ext.Scope(entity)),
		flatten(f.ext.Key(entity)),
		f.ext.Characteristics(source),
	)
}

// Query ranks the keys similar to entity within its extracted scope.
func (f *Feature) Query(ctx context.Context, entity any) ([]simindex.Result, error) {
	return f.index.Query(ctx,
		flatten(f.ext.Scope(entity)),
		flatten(f.ext.Key(entity)),
	)
}

func flatten(segments []string) string {
	return strings.Join(segments, Delimiter)
}
