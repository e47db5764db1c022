package heapdb

import "go.uber.org/zap"

// config holds the resolved settings for an opened Heap. Unlike the
// teacher's page-size/growth knobs, PageSize here is a compile-time
// constant (spec's data layout is fixed at 512 bytes), so the surface
// this package exposes is deliberately smaller.
type config struct {
	logger *zap.Logger
}

// Option configures a Heap at Open time, following the functional-options
// pattern used throughout the pack.
type Option func(*config)

// WithLogger overrides the default no-op logger with l. Pass a
// zap.NewDevelopment() or zap.NewProduction() logger to see data-page
// allocation, directory-chain growth, commit, and delete-miss events.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

func newConfig(opts []Option) *config {
	c := &config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
