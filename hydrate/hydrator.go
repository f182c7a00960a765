// Package hydrate fills in the opening hours of places that arrived without
// them, looking each one up individually at a bounded rate.
package hydrate

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gammazero/channelqueue"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pantrymap/go-pantrymap/format"
	"github.com/pantrymap/go-pantrymap/model"
	"github.com/pantrymap/go-pantrymap/pstore"
	"github.com/patrickmn/go-cache"
)

var log = logging.Logger("hydrate")

// HoursSource looks up the raw opening_hours value of a single place. An
// empty string means the place has no hours.
type HoursSource interface {
	FetchHours(ctx context.Context, placeID string) (string, error)
}

// Hydrator attaches opening hours to places. Hours are served from an
// in-process map, then from the persistent hours namespace, and only then
// looked up from the source.
type Hydrator struct {
	src     HoursSource
	table   *pstore.Table[[]string]
	memory  *cache.Cache
	clock   clock.Clock
	pacing  time.Duration
	workers int
}

type job struct {
	index int
	id    string
}

type result struct {
	index int
	hours []string
}

// New creates a Hydrator that looks up hours from src and persists them in
// the hours namespace of store. A nil store keeps hours in memory only.
func New(src HoursSource, store *pstore.Store, options ...Option) (*Hydrator, error) {
	if src == nil {
		return nil, errors.New("nil hours source")
	}
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	h := &Hydrator{
		src:     src,
		memory:  cache.New(opts.memoryTTL, opts.memoryTTL),
		clock:   opts.clock,
		pacing:  opts.pacing,
		workers: opts.workers,
	}
	if store != nil {
		h.table = pstore.NewTable[[]string](store, pstore.HoursNamespace)
	}
	return h, nil
}

// Hydrate sets OpeningHours on every place in places that has none, when
// hours can be found. Places are modified in place. Hours that places already
// carry are cached so that they can be read back with Cached. Lookup failures
// are logged and leave the place without hours. Hydrate returns once every
// lookup has finished and every discovered value has been cached.
func (h *Hydrator) Hydrate(ctx context.Context, places []model.Place) {
	var misses []job
	for i := range places {
		if places[i].OpeningHours != nil {
			h.remember(ctx, places[i].ID, places[i].OpeningHours)
			continue
		}
		if hours, ok := h.cached(ctx, places[i].ID); ok {
			// An empty value records a place known to have no hours.
			if len(hours) != 0 {
				places[i].OpeningHours = hours
			}
			continue
		}
		misses = append(misses, job{index: i, id: places[i].ID})
	}
	if len(misses) == 0 {
		return
	}

	workers := h.workers
	if workers > len(misses) {
		workers = len(misses)
	}

	jobs := channelqueue.New[job](-1)
	results := make(chan result, len(misses))
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			h.worker(ctx, jobs.Out(), results)
		}()
	}
	for _, j := range misses {
		jobs.In() <- j
	}
	jobs.Close()
	wg.Wait()
	close(results)

	var found int
	for r := range results {
		places[r.index].OpeningHours = r.hours
		found++
	}
	log.Debugw("Hydrated opening hours", "lookups", len(misses), "found", found)
}

func (h *Hydrator) worker(ctx context.Context, jobs <-chan job, results chan<- result) {
	for j := range jobs {
		if ctx.Err() != nil {
			// Drain remaining jobs without looking them up.
			continue
		}
		hours, err := h.lookup(ctx, j.id)
		if err != nil {
			log.Warnw("Cannot fetch opening hours", "err", err, "place", j.id)
		} else if hours != nil {
			results <- result{index: j.index, hours: hours}
		}
		h.pause(ctx)
	}
}

func (h *Hydrator) lookup(ctx context.Context, placeID string) ([]string, error) {
	raw, err := h.src.FetchHours(ctx, placeID)
	if err != nil {
		return nil, err
	}
	hours := format.Hours(raw)
	if hours == nil {
		h.store(ctx, placeID, []string{})
		return nil, nil
	}
	h.store(ctx, placeID, slices.Clone(hours))
	return hours, nil
}

// remember caches hours that arrived with a place, unless memory already
// holds the same value.
func (h *Hydrator) remember(ctx context.Context, placeID string, hours []string) {
	if v, ok := h.memory.Get(placeID); ok && slices.Equal(v.([]string), hours) {
		return
	}
	h.store(ctx, placeID, slices.Clone(hours))
}

func (h *Hydrator) store(ctx context.Context, placeID string, hours []string) {
	h.memory.SetDefault(placeID, hours)
	if h.table != nil {
		h.table.Set(ctx, placeID, hours)
	}
}

func (h *Hydrator) pause(ctx context.Context) {
	if h.pacing <= 0 {
		return
	}
	timer := h.clock.Timer(h.pacing)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Cached returns the hours for placeID if they are held in memory or in the
// persistent hours namespace. No lookup is made. A place that is known to
// have no hours is reported as not found.
func (h *Hydrator) Cached(ctx context.Context, placeID string) ([]string, bool) {
	hours, ok := h.cached(ctx, placeID)
	if !ok || len(hours) == 0 {
		return nil, false
	}
	return hours, true
}

// cached returns a copy of the cached hours for placeID. An empty, non-nil
// result means the place was looked up and has no hours.
func (h *Hydrator) cached(ctx context.Context, placeID string) ([]string, bool) {
	if v, ok := h.memory.Get(placeID); ok {
		return slices.Clone(v.([]string)), true
	}
	if h.table == nil {
		return nil, false
	}
	hours, ok := h.table.Get(ctx, placeID)
	if !ok || hours == nil {
		return nil, false
	}
	h.memory.SetDefault(placeID, hours)
	return slices.Clone(hours), true
}

// ClearMemory discards all hours held in memory. Persistent entries are not
// affected.
func (h *Hydrator) ClearMemory() {
	h.memory.Flush()
}
