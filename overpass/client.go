// Package overpass queries an Overpass API server for food resource places
// and their opening hours.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pantrymap/go-pantrymap/apierror"
	"github.com/pantrymap/go-pantrymap/geo"
	"github.com/pantrymap/go-pantrymap/model"
	"github.com/pantrymap/go-pantrymap/ratelimit"
)

var log = logging.Logger("overpass")

// DefaultEndpoint is the public Overpass API interpreter.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// SourceName is recorded as the Source of every place from this client.
const SourceName = "overpass"

// maxErrorBody limits how much of a failed response body is read.
const maxErrorBody = 4096

// Client is an Overpass API client. Place queries are spaced by a gate shared
// by all callers of the client, and failed requests are retried with linearly
// increasing waits. A Client never reports upstream failures from
// FetchPlaces; it returns an empty list instead.
type Client struct {
	endpoint string
	filters  []Filter
	gate     *ratelimit.Gate
	rclient  *retryablehttp.Client
	timeout  time.Duration

	rateLimitBackoff time.Duration
	retryBackoff     time.Duration
}

// New creates a new Overpass client that sends queries to endpoint.
func New(endpoint string, options ...Option) (*Client, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url must have http or https scheme: %s", endpoint)
	}

	httpClient := opts.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.timeout,
		}
	}
	gate := opts.gate
	if gate == nil {
		gate = ratelimit.NewGate(opts.minInterval, opts.clock)
	}

	c := &Client{
		endpoint:         u.String(),
		filters:          opts.filters,
		gate:             gate,
		timeout:          opts.timeout,
		rateLimitBackoff: opts.rateLimitBackoff,
		retryBackoff:     opts.retryBackoff,
	}
	c.rclient = &retryablehttp.Client{
		HTTPClient:   httpClient,
		Logger:       retryLogger{},
		RetryWaitMin: opts.retryBackoff,
		RetryWaitMax: opts.rateLimitBackoff * time.Duration(opts.retryLimit+1),
		RetryMax:     opts.retryLimit,
		CheckRetry:   checkRetry,
		Backoff:      c.backoff,
		ErrorHandler: giveUp,
	}
	log.Debugw("Created Overpass client", "endpoint", c.endpoint, "minInterval", gate.Interval(), "retryLimit", opts.retryLimit)
	return c, nil
}

// FetchPlaces returns the places within radiusMeters of the center, as
// selected by the client's filters. If the server cannot be queried after
// all retries, an empty list and no error are returned. An error is returned
// only when ctx is canceled.
func (c *Client) FetchPlaces(ctx context.Context, lat, lon, radiusMeters float64) ([]model.Place, error) {
	if err := c.gate.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Errorw("Cannot pass rate limit gate", "err", err)
		return []model.Place{}, nil
	}

	box := geo.BoundingBox(lat, lon, radiusMeters)
	resp, err := c.query(ctx, placesQuery(box, c.filters, c.timeout))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Errorw("Place query failed, returning no places", "err", err, "lat", lat, "lon", lon, "radius", radiusMeters,
			"rateLimited", apierror.IsRateLimited(err))
		return []model.Place{}, nil
	}
	if resp.Remark != "" {
		log.Warnw("Overpass remark", "remark", resp.Remark)
	}

	places := make([]model.Place, 0, len(resp.Elements))
	var dropped int
	for i := range resp.Elements {
		p, ok := resp.Elements[i].toPlace()
		// The center of a way or relation can lie outside the box it
		// intersects.
		if !ok || !box.Contains(p.Lat, p.Lon) {
			dropped++
			continue
		}
		p.Source = SourceName
		places = append(places, p)
	}
	log.Debugw("Fetched places", "count", len(places), "dropped", dropped, "lat", lat, "lon", lon)
	return places, nil
}

// FetchHours returns the raw opening_hours value of the element identified
// by placeID, or an empty string if it has none. Hours lookups do not pass
// through the client's gate; callers pace them.
func (c *Client) FetchHours(ctx context.Context, placeID string) (string, error) {
	elemType, id, err := parsePlaceID(placeID)
	if err != nil {
		return "", err
	}
	resp, err := c.query(ctx, hoursQuery(elemType, id, c.timeout))
	if err != nil {
		return "", err
	}
	for _, el := range resp.Elements {
		if el.Type == elemType && el.ID == id {
			return el.Tags["opening_hours"], nil
		}
	}
	return "", nil
}

func (c *Client) String() string {
	return c.endpoint
}

func (c *Client) query(ctx context.Context, q string) (*response, error) {
	form := url.Values{"data": {q}}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, []byte(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.rclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var r response
	if err = json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("cannot decode overpass response: %w", err)
	}
	return &r, nil
}

// backoff returns base * n before retry n, where base depends on whether the
// server asked the client to slow down.
func (c *Client) backoff(_, _ time.Duration, attemptNum int, resp *http.Response) time.Duration {
	base := c.retryBackoff
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		base = c.rateLimitBackoff
	}
	return base * time.Duration(attemptNum+1)
}

// checkRetry retries every failure except context cancellation. Each
// failure class is logged separately.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		log.Warnw("Network error querying overpass", "err", err)
		return true, nil
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Warnw("Rate limited by overpass", "status", resp.StatusCode)
	default:
		log.Warnw("Upstream error from overpass", "status", resp.StatusCode)
	}
	return true, nil
}

// giveUp converts the final failed attempt into an error.
func giveUp(resp *http.Response, err error, numTries int) (*http.Response, error) {
	if resp != nil {
		defer resp.Body.Close()
		if err == nil {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			err = apierror.FromResponse(resp.StatusCode, body)
		}
	}
	if err == nil {
		err = errors.New("request failed")
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", numTries, err)
}

// retryLogger routes retryablehttp logging to the package logger.
type retryLogger struct{}

func (retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Warnw(msg, keysAndValues...)
}

func (retryLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Infow(msg, keysAndValues...)
}

func (retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	log.Debugw(msg, keysAndValues...)
}

func (retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warnw(msg, keysAndValues...)
}
