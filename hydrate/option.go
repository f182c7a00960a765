package hydrate

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	defaultWorkers   = 2
	defaultPacing    = 350 * time.Millisecond
	defaultMemoryTTL = 24 * time.Hour
)

type config struct {
	clock     clock.Clock
	memoryTTL time.Duration
	pacing    time.Duration
	workers   int
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		clock:     clock.New(),
		memoryTTL: defaultMemoryTTL,
		pacing:    defaultPacing,
		workers:   defaultWorkers,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithWorkers sets the number of concurrent hours lookups.
//
// Default is 2.
func WithWorkers(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("workers must be at least 1: %d", n)
		}
		cfg.workers = n
		return nil
	}
}

// WithPacing sets how long a worker pauses after each lookup, whether or
// not the lookup succeeded.
//
// Default is 350 milliseconds.
func WithPacing(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return fmt.Errorf("negative pacing: %s", d)
		}
		cfg.pacing = d
		return nil
	}
}

// WithMemoryTTL sets how long hours stay in the in-process map.
//
// Default is 24 hours.
func WithMemoryTTL(ttl time.Duration) Option {
	return func(cfg *config) error {
		if ttl <= 0 {
			return fmt.Errorf("ttl must be positive: %s", ttl)
		}
		cfg.memoryTTL = ttl
		return nil
	}
}

// WithClock sets the clock used for pacing.
func WithClock(clk clock.Clock) Option {
	return func(cfg *config) error {
		if clk != nil {
			cfg.clock = clk
		}
		return nil
	}
}
