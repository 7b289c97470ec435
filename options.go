package simindex

import "github.com/hupe1980/simindex/minhash"

type options struct {
	namespace      string
	seed           int64
	minBandOverlap int
	logger         *Logger
}

// Option configures index construction.
//
// Options only affect how signatures and storage keys are derived; like the
// index shape itself, they must be identical across all processes sharing
// one backend.
type Option func(*options)

// WithNamespace overrides the key namespace prefix (default "sim").
// Distinct namespaces on the same backend are fully independent indexes.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithSeed overrides the permutation generator seed. Signatures produced
// under different seeds are not comparable; keep the default unless two
// co-located indexes must be decorrelated on purpose.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithMinBandOverlap requires a candidate to collide with the query key in
// at least n bands before it is scored. The default (0) scores any key that
// collides in a single band, maximizing recall at the cost of fetching more
// candidate frequency vectors.
func WithMinBandOverlap(n int) Option {
	return func(o *options) {
		o.minBandOverlap = n
	}
}

// WithLogger configures a logger for record and query operations.
// If nil is passed, logging is disabled.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

func defaultOptions() options {
	return options{
		namespace: DefaultNamespace,
		seed:      minhash.DefaultSeed,
		logger:    NoopLogger(),
	}
}
