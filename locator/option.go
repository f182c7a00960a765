package locator

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pantrymap/go-pantrymap/hydrate"
	"github.com/pantrymap/go-pantrymap/pstore"
)

const (
	defaultMemoryTTL  = 10 * time.Minute
	defaultMaxResults = 50
	defaultPrecision  = 3
	maxPrecision      = 10
)

type config struct {
	clock           clock.Clock
	hoursSource     hydrate.HoursSource
	hydrateOpts     []hydrate.Option
	maxResults      int
	memoryTTL       time.Duration
	precision       int
	revalidateAfter time.Duration
	sources         []PlaceSource
	store           *pstore.Store
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		clock:      clock.New(),
		maxResults: defaultMaxResults,
		memoryTTL:  defaultMemoryTTL,
		precision:  defaultPrecision,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithSource adds place sources for the locator to search. Results from all
// sources are merged by place ID. When the same place comes from more than
// one source, the record from the source added last is used.
func WithSource(srcs ...PlaceSource) Option {
	return func(cfg *config) error {
		for _, src := range srcs {
			if src == nil {
				return fmt.Errorf("nil source")
			}
			cfg.sources = append(cfg.sources, src)
		}
		return nil
	}
}

// WithHoursSource sets where opening hours are looked up for places that
// arrive without them. When not set, the first place source that can also
// look up hours is used. If there is no such source, places are not
// hydrated.
func WithHoursSource(src hydrate.HoursSource) Option {
	return func(cfg *config) error {
		cfg.hoursSource = src
		return nil
	}
}

// WithStore sets the persistent store for search results and opening hours.
// When not set, an in-memory store is used and nothing survives a restart.
func WithStore(store *pstore.Store) Option {
	return func(cfg *config) error {
		cfg.store = store
		return nil
	}
}

// WithMemoryTTL sets how long search results stay in the in-memory tier.
//
// Default is 10 minutes.
func WithMemoryTTL(ttl time.Duration) Option {
	return func(cfg *config) error {
		if ttl <= 0 {
			return fmt.Errorf("ttl must be positive: %s", ttl)
		}
		cfg.memoryTTL = ttl
		return nil
	}
}

// WithMaxResults sets the maximum number of places returned by a search.
// The nearest places are kept.
//
// Default is 50.
func WithMaxResults(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("max results must be at least 1: %d", n)
		}
		cfg.maxResults = n
		return nil
	}
}

// WithKeyPrecision sets the number of decimal places of latitude and
// longitude used in cache keys. Searches whose centers round to the same
// value share cached results.
//
// Default is 3, about 110 meters.
func WithKeyPrecision(digits int) Option {
	return func(cfg *config) error {
		if digits < 0 || digits > maxPrecision {
			return fmt.Errorf("precision must be between 0 and %d: %d", maxPrecision, digits)
		}
		cfg.precision = digits
		return nil
	}
}

// WithHydrateWorkers sets the number of concurrent opening hours lookups.
func WithHydrateWorkers(n int) Option {
	return func(cfg *config) error {
		cfg.hydrateOpts = append(cfg.hydrateOpts, hydrate.WithWorkers(n))
		return nil
	}
}

// WithHydratePacing sets the pause after each opening hours lookup.
func WithHydratePacing(d time.Duration) Option {
	return func(cfg *config) error {
		cfg.hydrateOpts = append(cfg.hydrateOpts, hydrate.WithPacing(d))
		return nil
	}
}

// WithRevalidateAfter enables background refresh of persistent results.
// A persistent hit older than d is returned immediately and a refetch is
// started for the same key. A value of 0 disables revalidation.
//
// Default is 0.
func WithRevalidateAfter(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return fmt.Errorf("negative revalidate age: %s", d)
		}
		cfg.revalidateAfter = d
		return nil
	}
}

// WithClock sets the clock used to age persistent results and to pace hours
// lookups.
func WithClock(clk clock.Clock) Option {
	return func(cfg *config) error {
		if clk != nil {
			cfg.clock = clk
		}
		return nil
	}
}
