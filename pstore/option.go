package pstore

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// DefaultTTL is how long an entry remains readable after it is written.
	DefaultTTL = 24 * time.Hour
)

type config struct {
	clock      clock.Clock
	defaultTTL time.Duration
	ttls       map[string]time.Duration
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		clock:      clock.New(),
		defaultTTL: DefaultTTL,
		ttls:       make(map[string]time.Duration),
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithClock sets the clock used to timestamp and expire entries.
func WithClock(clk clock.Clock) Option {
	return func(cfg *config) error {
		if clk != nil {
			cfg.clock = clk
		}
		return nil
	}
}

// WithDefaultTTL sets the time-to-live for namespaces that do not have their
// own TTL configured.
//
// Default is 24 hours.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(cfg *config) error {
		if ttl <= 0 {
			return fmt.Errorf("ttl must be positive: %s", ttl)
		}
		cfg.defaultTTL = ttl
		return nil
	}
}

// WithTTL sets the time-to-live for entries in the specified namespace.
func WithTTL(namespace string, ttl time.Duration) Option {
	return func(cfg *config) error {
		if namespace == "" {
			return fmt.Errorf("empty namespace")
		}
		if ttl <= 0 {
			return fmt.Errorf("ttl must be positive: %s", ttl)
		}
		cfg.ttls[namespace] = ttl
		return nil
	}
}
