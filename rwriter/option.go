package rwriter

import (
	"fmt"
)

type config struct {
	preferJson bool
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	var cfg config
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithPreferJson makes plain JSON the response type when the request
// accepts any media type, and when the request has no Accept header.
// Otherwise NDJSON is preferred and the Accept header is required.
func WithPreferJson(preferJson bool) Option {
	return func(cfg *config) error {
		cfg.preferJson = preferJson
		return nil
	}
}
