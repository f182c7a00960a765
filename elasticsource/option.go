package elasticsource

import "fmt"

const (
	// DefaultIndex is the index searched when none is configured.
	DefaultIndex = "pantry-places"
	defaultSize  = 100
)

type config struct {
	index string
	size  int
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		index: DefaultIndex,
		size:  defaultSize,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithIndex sets the name of the index holding place documents.
func WithIndex(name string) Option {
	return func(cfg *config) error {
		if name == "" {
			return fmt.Errorf("empty index name")
		}
		cfg.index = name
		return nil
	}
}

// WithSize sets the maximum number of documents returned by one search.
//
// Default is 100.
func WithSize(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("size must be at least 1: %d", n)
		}
		cfg.size = n
		return nil
	}
}
