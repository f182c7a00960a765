package pstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	dssync "github.com/ipfs/go-datastore/sync"
	leveldb "github.com/ipfs/go-ds-leveldb"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("pstore")

const (
	// PlacesNamespace holds search results keyed by cache key.
	PlacesNamespace = "places"
	// HoursNamespace holds formatted opening hours keyed by place ID.
	HoursNamespace = "hours"
)

// Store is a namespaced key/value cache with time-to-live expiry.
type Store struct {
	ds         datastore.Batching
	clock      clock.Clock
	defaultTTL time.Duration
	ttls       map[string]time.Duration
}

// envelope is the stored form of every value.
type envelope struct {
	Data json.RawMessage `json:"data"`
	// Timestamp is the write time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// New creates a Store that keeps its entries in ds.
func New(ds datastore.Batching, options ...Option) (*Store, error) {
	if ds == nil {
		return nil, errors.New("nil datastore")
	}
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}
	return &Store{
		ds:         ds,
		clock:      opts.clock,
		defaultTTL: opts.defaultTTL,
		ttls:       opts.ttls,
	}, nil
}

// NewMemory creates a Store backed by an in-process map. Entries do not
// survive a restart.
func NewMemory(options ...Option) (*Store, error) {
	return New(dssync.MutexWrap(datastore.NewMapDatastore()), options...)
}

// OpenLevelDB creates a Store backed by a LevelDB database in the directory
// at path.
func OpenLevelDB(path string, options ...Option) (*Store, error) {
	ds, err := leveldb.NewDatastore(path, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot open leveldb datastore: %w", err)
	}
	s, err := New(ds, options...)
	if err != nil {
		ds.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying datastore.
func (s *Store) Close() error {
	return s.ds.Close()
}

// TTL returns the time-to-live of entries in the namespace.
func (s *Store) TTL(namespace string) time.Duration {
	if ttl, ok := s.ttls[namespace]; ok {
		return ttl
	}
	return s.defaultTTL
}

// Get returns the encoded value stored under key in the namespace and the
// time it was written. False is returned if there is no entry, the entry has
// expired, or it cannot be read.
func (s *Store) Get(ctx context.Context, namespace, key string) ([]byte, time.Time, bool) {
	dsKey := makeKey(namespace, key)
	raw, err := s.ds.Get(ctx, dsKey)
	if err != nil {
		if !errors.Is(err, datastore.ErrNotFound) {
			log.Warnw("Cannot read cache entry", "err", err, "key", dsKey)
		}
		return nil, time.Time{}, false
	}

	var env envelope
	if err = json.Unmarshal(raw, &env); err != nil || len(env.Data) == 0 {
		log.Warnw("Discarding unreadable cache entry", "err", err, "key", dsKey)
		s.delete(ctx, dsKey)
		return nil, time.Time{}, false
	}

	written := time.UnixMilli(env.Timestamp)
	if !s.clock.Now().Before(written.Add(s.TTL(namespace))) {
		log.Debugw("Cache entry expired", "key", dsKey, "written", written)
		s.delete(ctx, dsKey)
		return nil, time.Time{}, false
	}
	return env.Data, written, true
}

// Set stores the JSON encoded value under key in the namespace, with the
// current time as its write time. Any existing entry is replaced.
func (s *Store) Set(ctx context.Context, namespace, key string, value []byte) {
	dsKey := makeKey(namespace, key)
	raw, err := json.Marshal(&envelope{
		Data:      value,
		Timestamp: s.clock.Now().UnixMilli(),
	})
	if err != nil {
		log.Errorw("Cannot encode cache entry", "err", err, "key", dsKey)
		return
	}
	if err = s.ds.Put(ctx, dsKey, raw); err != nil {
		log.Warnw("Cannot write cache entry", "err", err, "key", dsKey)
	}
}

// DeletePrefix removes every entry in the namespace and returns the number of
// entries removed.
func (s *Store) DeletePrefix(ctx context.Context, namespace string) int {
	n, err := s.deletePrefix(ctx, namespace)
	if err != nil {
		log.Warnw("Cannot clear cache namespace", "err", err, "namespace", namespace, "deleted", n)
	}
	return n
}

// Clear removes all entries in each of the namespaces. An error describing
// every namespace that could not be fully cleared is returned. The error is
// informational; entries that were not removed still expire normally.
func (s *Store) Clear(ctx context.Context, namespaces ...string) error {
	var errs error
	for _, ns := range namespaces {
		n, err := s.deletePrefix(ctx, ns)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("cannot clear namespace %q: %w", ns, err))
			if errors.Is(err, context.Canceled) {
				return errs
			}
			continue
		}
		log.Infow("Cleared cache namespace", "namespace", ns, "deleted", n)
	}
	return errs
}

func (s *Store) deletePrefix(ctx context.Context, namespace string) (int, error) {
	results, err := s.ds.Query(ctx, query.Query{
		Prefix:   datastore.NewKey(namespace).String(),
		KeysOnly: true,
	})
	if err != nil {
		return 0, err
	}
	entries, err := results.Rest()
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	batch, err := s.ds.Batch(ctx)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if err = batch.Delete(ctx, datastore.NewKey(entry.Key)); err != nil {
			return 0, err
		}
	}
	if err = batch.Commit(ctx); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *Store) delete(ctx context.Context, key datastore.Key) {
	if err := s.ds.Delete(ctx, key); err != nil {
		log.Warnw("Cannot delete cache entry", "err", err, "key", key)
	}
}

func makeKey(namespace, key string) datastore.Key {
	return datastore.NewKey("/" + namespace + "/" + key)
}
