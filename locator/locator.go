package locator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pantrymap/go-pantrymap/broadcast"
	"github.com/pantrymap/go-pantrymap/geo"
	"github.com/pantrymap/go-pantrymap/hydrate"
	"github.com/pantrymap/go-pantrymap/model"
	"github.com/pantrymap/go-pantrymap/pstore"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

var log = logging.Logger("locator")

// ErrInvalidArgument is returned when a search center or radius is not
// usable.
var ErrInvalidArgument = errors.New("invalid argument")

// PlaceSource is a supplier of places. The locator can be configured with
// any number of sources.
type PlaceSource interface {
	// FetchPlaces gets the places within radiusMeters of a center. A source
	// that cannot reach its backend may return an empty list instead of an
	// error.
	FetchPlaces(ctx context.Context, lat, lon, radiusMeters float64) ([]model.Place, error)
	// String returns a description of the source.
	String() string
}

// Locator searches for places near a point, serving repeated searches from
// cache and collapsing concurrent searches for the same area into one fetch.
type Locator struct {
	sources    []PlaceSource
	hydrator   *hydrate.Hydrator
	store      *pstore.Store
	places     *pstore.Table[[]model.Place]
	hours      *pstore.Table[[]string]
	memory     *cache.Cache
	clock      clock.Clock
	maxResults int
	precision  int

	revalidateAfter time.Duration

	// mu guards group, seq and latest, and orders write-through against
	// ClearAll.
	mu     sync.Mutex
	group  *singleflight.Group
	seq    uint64
	latest map[string]uint64

	cleared broadcast.Broadcaster
}

// New creates a new Locator. At least one source is required.
func New(options ...Option) (*Locator, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	if len(opts.sources) == 0 {
		return nil, errors.New("no place sources")
	}

	store := opts.store
	if store == nil {
		store, err = pstore.NewMemory(pstore.WithClock(opts.clock))
		if err != nil {
			return nil, err
		}
	}

	hoursSource := opts.hoursSource
	if hoursSource == nil {
		for _, src := range opts.sources {
			if hs, ok := src.(hydrate.HoursSource); ok {
				hoursSource = hs
				break
			}
		}
	}
	var hydrator *hydrate.Hydrator
	if hoursSource != nil {
		hopts := append([]hydrate.Option{hydrate.WithClock(opts.clock)}, opts.hydrateOpts...)
		hydrator, err = hydrate.New(hoursSource, store, hopts...)
		if err != nil {
			return nil, err
		}
	}

	return &Locator{
		sources:         opts.sources,
		hydrator:        hydrator,
		store:           store,
		places:          pstore.NewTable[[]model.Place](store, pstore.PlacesNamespace),
		hours:           pstore.NewTable[[]string](store, pstore.HoursNamespace),
		memory:          cache.New(opts.memoryTTL, opts.memoryTTL),
		clock:           opts.clock,
		maxResults:      opts.maxResults,
		precision:       opts.precision,
		revalidateAfter: opts.revalidateAfter,
		group:           new(singleflight.Group),
		latest:          make(map[string]uint64),
	}, nil
}

// CacheKey returns the key under which results for a search are cached. The
// center is rounded to precision decimal places and the radius, in
// kilometers, is written in its shortest form: "33.768,-84.391,5".
func CacheKey(lat, lon, radiusKm float64, precision int) string {
	return fmt.Sprintf("%.*f,%.*f,%g", precision, lat, precision, lon, radiusKm)
}

// Search returns the places within radiusKm kilometers of the center, nearest
// first, with Distance set in miles. Unless force is true, cached results are
// returned when available.
//
// An error is returned only if the arguments are invalid, in which case the
// error wraps ErrInvalidArgument, or if ctx is done before the result is
// ready.
func (l *Locator) Search(ctx context.Context, lat, lon, radiusKm float64, force bool) ([]model.Place, error) {
	if err := validate(lat, lon, radiusKm); err != nil {
		return nil, err
	}
	key := CacheKey(lat, lon, radiusKm, l.precision)

	if force {
		l.memory.Delete(key)
		l.mu.Lock()
		l.group.Forget(key)
		l.mu.Unlock()
		log.Debugw("Forced search", "key", key)
	} else {
		if v, ok := l.memory.Get(key); ok {
			log.Debugw("Memory cache hit", "key", key)
			return model.Clone(v.([]model.Place)), nil
		}
		if e, ok := l.places.GetEntry(ctx, key); ok {
			log.Debugw("Persistent cache hit", "key", key, "written", e.Timestamp)
			l.memory.SetDefault(key, e.Data)
			if l.revalidateAfter != 0 && l.clock.Since(e.Timestamp) >= l.revalidateAfter {
				l.revalidate(key, lat, lon, radiusKm)
			}
			return model.Clone(e.Data), nil
		}
	}

	l.mu.Lock()
	group := l.group
	l.mu.Unlock()

	// The fetch outlives callers that stop waiting for it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := group.DoChan(key, func() (interface{}, error) {
		return l.fetch(fetchCtx, key, lat, lon, radiusKm), nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return model.Clone(res.Val.([]model.Place)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// revalidate starts a background fetch for key, unless one is already in
// progress.
func (l *Locator) revalidate(key string, lat, lon, radiusKm float64) {
	l.mu.Lock()
	group := l.group
	l.mu.Unlock()

	log.Debugw("Revalidating aged result", "key", key)
	// The result channel is buffered, so it is safe to ignore.
	group.DoChan(key, func() (interface{}, error) {
		return l.fetch(context.Background(), key, lat, lon, radiusKm), nil
	})
}

// fetch gets places from every source and writes the processed result
// through both cache tiers. The result is not written if a newer fetch for the
// same key started, or the cache was cleared, while this one was running.
func (l *Locator) fetch(ctx context.Context, key string, lat, lon, radiusKm float64) []model.Place {
	seq := l.begin(key)
	radiusMeters := radiusKm * 1000

	lists := make([][]model.Place, 0, len(l.sources))
	var failed int
	for _, src := range l.sources {
		fetched, err := src.FetchPlaces(ctx, lat, lon, radiusMeters)
		if err != nil {
			log.Errorw("Cannot fetch places", "err", err, "source", src, "key", key)
			failed++
			continue
		}
		lists = append(lists, fetched)
	}

	merged := model.Merge(lists...)
	places := make([]model.Place, 0, len(merged))
	var invalid int
	for _, p := range merged {
		if !geo.ValidCoordinate(p.Lat, p.Lon) {
			invalid++
			continue
		}
		p.Distance = geo.Distance(lat, lon, p.Lat, p.Lon)
		places = append(places, p)
	}
	if invalid != 0 {
		log.Warnw("Dropped places with invalid coordinates", "count", invalid, "key", key)
	}
	model.SortByDistance(places)
	if len(places) > l.maxResults {
		places = places[:l.maxResults]
	}

	if l.hydrator != nil {
		l.hydrator.Hydrate(ctx, places)
	} else {
		for _, p := range places {
			if len(p.OpeningHours) != 0 {
				l.hours.Set(ctx, p.ID, p.OpeningHours)
			}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.latest[key] != seq {
		log.Infow("Result superseded during fetch, not cached", "key", key)
		return places
	}
	delete(l.latest, key)
	if failed == len(l.sources) {
		log.Warnw("All sources failed, result not cached", "key", key)
		return places
	}
	l.places.Set(ctx, key, places)
	l.memory.SetDefault(key, places)
	log.Infow("Cached search result", "key", key, "places", len(places))
	return places
}

// begin records the start of a fetch for key and returns its sequence number.
func (l *Locator) begin(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.latest[key] = l.seq
	return l.seq
}

// GetHours returns the cached opening hours of a place. No lookup is made.
func (l *Locator) GetHours(ctx context.Context, placeID string) ([]string, bool) {
	if l.hydrator != nil {
		return l.hydrator.Cached(ctx, placeID)
	}
	hours, ok := l.hours.Get(ctx, placeID)
	if !ok || len(hours) == 0 {
		return nil, false
	}
	return hours, true
}

// ClearAll discards every cached search result and opening hours, in memory
// and in the persistent store, then notifies the listeners registered with
// OnCleared. The returned error reports persistent entries that could not be
// removed; listeners are notified regardless.
func (l *Locator) ClearAll(ctx context.Context) error {
	l.mu.Lock()
	l.memory.Flush()
	l.group = new(singleflight.Group)
	clear(l.latest)
	l.mu.Unlock()

	if l.hydrator != nil {
		l.hydrator.ClearMemory()
	}
	err := l.store.Clear(ctx, pstore.PlacesNamespace, pstore.HoursNamespace)
	if err != nil {
		log.Errorw("Cannot clear persistent cache", "err", err)
	} else {
		log.Info("Cleared all cached places and hours")
	}

	log.Debugw("Notifying cache clear listeners", "listeners", l.cleared.Len())
	l.cleared.Notify()
	return err
}

// OnCleared registers fn to be called after each ClearAll. Calling the
// returned function unregisters fn.
func (l *Locator) OnCleared(fn func()) func() {
	return l.cleared.Subscribe(fn)
}

func validate(lat, lon, radiusKm float64) error {
	if !geo.ValidCoordinate(lat, lon) {
		return fmt.Errorf("%w: coordinate %v,%v", ErrInvalidArgument, lat, lon)
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm <= 0 {
		return fmt.Errorf("%w: radius %v", ErrInvalidArgument, radiusKm)
	}
	return nil
}
