package overpass

import (
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pantrymap/go-pantrymap/ratelimit"
)

const (
	defaultMinInterval      = 2 * time.Second
	defaultRetryLimit       = 3
	defaultRateLimitBackoff = 2 * time.Second
	defaultRetryBackoff     = time.Second
	defaultTimeout          = 25 * time.Second
)

type config struct {
	clock            clock.Clock
	filters          []Filter
	gate             *ratelimit.Gate
	httpClient       *http.Client
	minInterval      time.Duration
	rateLimitBackoff time.Duration
	retryBackoff     time.Duration
	retryLimit       int
	timeout          time.Duration
}

// Option is a function that sets a value in a config.
type Option func(*config) error

// getOpts creates a config and applies Options to it.
func getOpts(opts []Option) (config, error) {
	cfg := config{
		clock:            clock.New(),
		filters:          DefaultFilters,
		minInterval:      defaultMinInterval,
		rateLimitBackoff: defaultRateLimitBackoff,
		retryBackoff:     defaultRetryBackoff,
		retryLimit:       defaultRetryLimit,
		timeout:          defaultTimeout,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithHTTPClient sets the http client used for each request attempt. When
// not set, a client with the query timeout is used.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) error {
		if c != nil {
			cfg.httpClient = c
		}
		return nil
	}
}

// WithGate sets the rate limiting gate that place queries pass through. Use
// this to share one gate between clients that query the same server. When
// set, WithMinInterval is ignored.
func WithGate(g *ratelimit.Gate) Option {
	return func(cfg *config) error {
		cfg.gate = g
		return nil
	}
}

// WithMinInterval sets the minimum time between the start of successive
// place queries, across all callers of the client.
//
// Default is 2 seconds.
func WithMinInterval(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return fmt.Errorf("negative interval: %s", d)
		}
		cfg.minInterval = d
		return nil
	}
}

// WithRetryLimit sets the number of times a failed request is retried before
// giving up.
//
// Default is 3.
func WithRetryLimit(n int) Option {
	return func(cfg *config) error {
		if n < 0 {
			return fmt.Errorf("negative retry limit: %d", n)
		}
		cfg.retryLimit = n
		return nil
	}
}

// WithRateLimitBackoff sets the base wait after a 429 response. The wait
// before retry n is n times the base.
//
// Default is 2 seconds.
func WithRateLimitBackoff(d time.Duration) Option {
	return func(cfg *config) error {
		cfg.rateLimitBackoff = d
		return nil
	}
}

// WithRetryBackoff sets the base wait after a network error or any other
// failed response. The wait before retry n is n times the base.
//
// Default is 1 second.
func WithRetryBackoff(d time.Duration) Option {
	return func(cfg *config) error {
		cfg.retryBackoff = d
		return nil
	}
}

// WithTimeout sets the server side query timeout, which is also the
// timeout of each request attempt when the default http client is used.
//
// Default is 25 seconds.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		if d < time.Second {
			return fmt.Errorf("timeout must be at least one second: %s", d)
		}
		cfg.timeout = d
		return nil
	}
}

// WithFilters replaces the tag filters that select places.
func WithFilters(filters ...Filter) Option {
	return func(cfg *config) error {
		if len(filters) == 0 {
			return fmt.Errorf("no filters")
		}
		for _, f := range filters {
			if f.Key == "" || len(f.Values) == 0 {
				return fmt.Errorf("incomplete filter: %+v", f)
			}
		}
		cfg.filters = filters
		return nil
	}
}

// WithClock sets the clock used by the client's gate.
func WithClock(clk clock.Clock) Option {
	return func(cfg *config) error {
		if clk != nil {
			cfg.clock = clk
		}
		return nil
	}
}
