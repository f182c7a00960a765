package main

import (
	"errors"

	"github.com/pantrymap/go-pantrymap/elasticsource"
	"github.com/pantrymap/go-pantrymap/locator"
	"github.com/pantrymap/go-pantrymap/overpass"
	"github.com/pantrymap/go-pantrymap/pstore"
	"github.com/urfave/cli/v2"
)

// env holds everything built from the global flags.
type env struct {
	store    *pstore.Store
	overpass *overpass.Client
	elastic  *elasticsource.Source
	locator  *locator.Locator
}

func newEnv(c *cli.Context) (*env, error) {
	storeOpts := []pstore.Option{
		pstore.WithDefaultTTL(c.Duration("persistent-ttl")),
	}
	var store *pstore.Store
	var err error
	if dir := c.String("datadir"); dir != "" {
		store, err = pstore.OpenLevelDB(dir, storeOpts...)
	} else {
		store, err = pstore.NewMemory(storeOpts...)
	}
	if err != nil {
		return nil, err
	}

	e := &env{store: store}
	e.overpass, err = overpass.New(c.String("overpass-url"),
		overpass.WithMinInterval(c.Duration("min-interval")),
		overpass.WithRetryLimit(c.Int("retry-limit")))
	if err != nil {
		e.close()
		return nil, err
	}
	sources := []locator.PlaceSource{e.overpass}

	if url := c.String("elastic-url"); url != "" {
		client, err := elasticsource.NewClient(url)
		if err != nil {
			e.close()
			return nil, err
		}
		e.elastic, err = elasticsource.New(client, elasticsource.WithIndex(c.String("elastic-index")))
		if err != nil {
			e.close()
			return nil, err
		}
		sources = append(sources, e.elastic)
	}

	e.locator, err = locator.New(
		locator.WithSource(sources...),
		locator.WithStore(store),
		locator.WithMemoryTTL(c.Duration("memory-ttl")),
		locator.WithMaxResults(c.Int("max-results")))
	if err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		log.Errorw("Cannot close store", "err", err)
	}
}

var errNoElastic = errors.New("no elasticsearch url configured")
