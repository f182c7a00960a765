package pstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/pantrymap/go-pantrymap/model"
	"github.com/pantrymap/go-pantrymap/pstore"
	"github.com/stretchr/testify/require"
)

var errStorage = errors.New("disk on fire")

// failingDatastore fails every read and write.
type failingDatastore struct {
	datastore.Batching
}

func (failingDatastore) Get(context.Context, datastore.Key) ([]byte, error) {
	return nil, errStorage
}

func (failingDatastore) Put(context.Context, datastore.Key, []byte) error {
	return errStorage
}

func newStore(t *testing.T, options ...pstore.Option) (*pstore.Store, datastore.Batching, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	ds := dssync.MutexWrap(datastore.NewMapDatastore())
	options = append(options, pstore.WithClock(mock))
	s, err := pstore.New(ds, options...)
	require.NoError(t, err)
	return s, ds, mock
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	s, _, mock := newStore(t)

	_, _, ok := s.Get(ctx, pstore.PlacesNamespace, "missing")
	require.False(t, ok)

	s.Set(ctx, pstore.PlacesNamespace, "k1", []byte(`{"a":1}`))
	data, written, ok := s.Get(ctx, pstore.PlacesNamespace, "k1")
	require.True(t, ok)
	require.JSONEq(t, `{"a":1}`, string(data))
	require.True(t, written.Equal(mock.Now()))

	// Same key in another namespace is a different entry.
	_, _, ok = s.Get(ctx, pstore.HoursNamespace, "k1")
	require.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s, ds, mock := newStore(t, pstore.WithTTL(pstore.HoursNamespace, time.Hour))
	require.Equal(t, pstore.DefaultTTL, s.TTL(pstore.PlacesNamespace))
	require.Equal(t, time.Hour, s.TTL(pstore.HoursNamespace))

	s.Set(ctx, pstore.PlacesNamespace, "k", []byte(`[]`))
	s.Set(ctx, pstore.HoursNamespace, "node/1", []byte(`["Open 24/7"]`))

	mock.Add(time.Hour - time.Millisecond)
	_, _, ok := s.Get(ctx, pstore.HoursNamespace, "node/1")
	require.True(t, ok)

	mock.Add(time.Millisecond)
	_, _, ok = s.Get(ctx, pstore.HoursNamespace, "node/1")
	require.False(t, ok, "entry must be a miss once age reaches ttl")

	// Expired entry was deleted on read.
	has, err := ds.Has(ctx, datastore.NewKey("/hours/node/1"))
	require.NoError(t, err)
	require.False(t, has)

	// Places namespace still fresh.
	_, _, ok = s.Get(ctx, pstore.PlacesNamespace, "k")
	require.True(t, ok)

	mock.Add(pstore.DefaultTTL)
	_, _, ok = s.Get(ctx, pstore.PlacesNamespace, "k")
	require.False(t, ok)
}

func TestSetRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	s, _, mock := newStore(t, pstore.WithDefaultTTL(time.Minute))

	s.Set(ctx, pstore.PlacesNamespace, "k", []byte(`1`))
	mock.Add(50 * time.Second)
	s.Set(ctx, pstore.PlacesNamespace, "k", []byte(`2`))
	mock.Add(50 * time.Second)

	data, _, ok := s.Get(ctx, pstore.PlacesNamespace, "k")
	require.True(t, ok)
	require.Equal(t, "2", string(data))
}

func TestUnreadableEntry(t *testing.T) {
	ctx := context.Background()
	s, ds, _ := newStore(t)

	key := datastore.NewKey("/places/bad")
	require.NoError(t, ds.Put(ctx, key, []byte("not json")))

	_, _, ok := s.Get(ctx, pstore.PlacesNamespace, "bad")
	require.False(t, ok)

	has, err := ds.Has(ctx, key)
	require.NoError(t, err)
	require.False(t, has)
}

func TestStorageFailureIsMiss(t *testing.T) {
	ctx := context.Background()
	s, err := pstore.New(failingDatastore{dssync.MutexWrap(datastore.NewMapDatastore())})
	require.NoError(t, err)

	s.Set(ctx, pstore.PlacesNamespace, "k", []byte(`[]`))
	_, _, ok := s.Get(ctx, pstore.PlacesNamespace, "k")
	require.False(t, ok)

	table := pstore.NewTable[[]string](s, pstore.HoursNamespace)
	table.Set(ctx, "node/1", []string{"Mon 9-5"})
	_, ok = table.Get(ctx, "node/1")
	require.False(t, ok)
}

func TestClearNamespaces(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t)

	for _, k := range []string{"a", "b", "c"} {
		s.Set(ctx, pstore.PlacesNamespace, k, []byte(`[]`))
	}
	s.Set(ctx, pstore.HoursNamespace, "node/1", []byte(`["x"]`))
	s.Set(ctx, pstore.HoursNamespace, "way/2", []byte(`["y"]`))
	s.Set(ctx, "placesextra", "z", []byte(`1`))

	require.Equal(t, 2, s.DeletePrefix(ctx, pstore.HoursNamespace))
	_, _, ok := s.Get(ctx, pstore.HoursNamespace, "node/1")
	require.False(t, ok)
	_, _, ok = s.Get(ctx, pstore.PlacesNamespace, "a")
	require.True(t, ok)

	require.NoError(t, s.Clear(ctx, pstore.PlacesNamespace, pstore.HoursNamespace))
	for _, k := range []string{"a", "b", "c"} {
		_, _, ok = s.Get(ctx, pstore.PlacesNamespace, k)
		require.False(t, ok)
	}
	// Namespace sharing a string prefix is untouched.
	_, _, ok = s.Get(ctx, "placesextra", "z")
	require.True(t, ok)

	require.Zero(t, s.DeletePrefix(ctx, pstore.PlacesNamespace))
}

func TestTable(t *testing.T) {
	ctx := context.Background()
	s, ds, mock := newStore(t)
	table := pstore.NewTable[[]model.Place](s, pstore.PlacesNamespace)
	require.Equal(t, pstore.PlacesNamespace, table.Namespace())

	places := []model.Place{
		{ID: "node/1", Lat: 33.77, Lon: -84.39, Name: "Pantry", Category: "food_bank", Distance: 0.3},
		{ID: "way/2", Lat: 33.78, Lon: -84.38, Name: "Market", OpeningHours: []string{"Open 24/7"}},
	}
	table.Set(ctx, "33.768,-84.391,5", places)

	e, ok := table.GetEntry(ctx, "33.768,-84.391,5")
	require.True(t, ok)
	require.Equal(t, places, e.Data)
	require.True(t, e.Timestamp.Equal(mock.Now()))

	// Empty results are cacheable.
	table.Set(ctx, "empty", []model.Place{})
	got, ok := table.Get(ctx, "empty")
	require.True(t, ok)
	require.Empty(t, got)

	// Value that does not decode into the table type is dropped.
	s.Set(ctx, pstore.PlacesNamespace, "wrongtype", []byte(`{"not":"a list"}`))
	_, ok = table.Get(ctx, "wrongtype")
	require.False(t, ok)
	has, err := ds.Has(ctx, datastore.NewKey("/places/wrongtype"))
	require.NoError(t, err)
	require.False(t, has)
}

func TestOpenLevelDB(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := pstore.OpenLevelDB(dir)
	require.NoError(t, err)
	s.Set(ctx, pstore.HoursNamespace, "node/7", []byte(`["Mon 9-5"]`))
	require.NoError(t, s.Close())

	s, err = pstore.OpenLevelDB(dir)
	require.NoError(t, err)
	defer s.Close()
	data, _, ok := s.Get(ctx, pstore.HoursNamespace, "node/7")
	require.True(t, ok)
	require.JSONEq(t, `["Mon 9-5"]`, string(data))
}

func TestBadOptions(t *testing.T) {
	_, err := pstore.NewMemory(pstore.WithTTL("", time.Hour))
	require.Error(t, err)
	_, err = pstore.NewMemory(pstore.WithDefaultTTL(0))
	require.Error(t, err)
	_, err = pstore.New(nil)
	require.Error(t, err)
}
