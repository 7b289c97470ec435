package feature

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Match is one entry of an aggregated ranking: a key together with its
// per-feature similarity scores.
type Match struct {
	Key    string
	Scores map[string]float64
}

// Total returns the sum of the per-feature similarities. Features that did
// not rank the key contribute 0.
func (m Match) Total() float64 {
	var total float64
	for _, s := range m.Scores {
		total += s
	}
	return total
}

// Outcome captures the result of one feature's record attempt.
type Outcome struct {
	Label string
	Err   error
}

// Aggregator runs a labeled set of features side by side.
type Aggregator struct {
	features map[string]*Feature
	limit    int
}

// NewAggregator creates an Aggregator over the given features. limit caps
// how many features run concurrently per operation; values below 1 run all
// features at once.
func NewAggregator(features map[string]*Feature, limit int) *Aggregator {
	if limit < 1 {
		limit = len(features)
	}
	return &Aggregator{features: features, limit: limit}
}

// Get returns the feature registered under label.
func (a *Aggregator) Get(label string) (*Feature, bool) {
	f, ok := a.features[label]
	return f, ok
}

// Record records source against every feature and captures each feature's
// outcome independently: one feature's failure never aborts the others, and
// no failure is swallowed. Outcomes are returned ordered by label; the
// caller decides whether any failed outcome is fatal.
func (a *Aggregator) Record(ctx context.Context, entity, source any) []Outcome {
	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(a.features))
	)

	// Failures are captured per feature, so the group members never return
	// an error and no sibling is canceled.
	var g errgroup.Group
	g.SetLimit(a.limit)
	for label, f := range a.features {
		g.Go(func() error {
			err := f.Record(ctx, entity, source)
			mu.Lock()
			outcomes = append(outcomes, Outcome{Label: label, Err: err})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Label < outcomes[j].Label
	})
	return outcomes
}

// Query queries every feature for entity and merges the rankings into one
// list ordered by descending sum of per-feature similarities, ties broken
// by ascending key. Unlike Record, a feature failure fails the whole query:
// a partial ranking would silently misorder results.
func (a *Aggregator) Query(ctx context.Context, entity any) ([]Match, error) {
	var (
		mu     sync.Mutex
		merged = make(map[string]map[string]float64)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for label, f := range a.features {
		g.Go(func() error {
			results, err := f.Query(ctx, entity)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range results {
				scores, ok := merged[r.Key]
				if !ok {
					scores = make(map[string]float64, len(a.features))
					merged[r.Key] = scores
				}
				scores[label] = r.Similarity
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(merged))
	for key, scores := range merged {
		matches = append(matches, Match{Key: key, Scores: scores})
	}
	sort.Slice(matches, func(i, j int) bool {
		ti, tj := matches[i].Total(), matches[j].Total()
		if ti != tj {
			return ti > tj
		}
		return matches[i].Key < matches[j].Key
	})
	return matches, nil
}
