// Command pantrymap searches for food resources near a point, using the
// same caches as a long running service would.
package main

import (
	"fmt"
	"os"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pantrymap/go-pantrymap/elasticsource"
	"github.com/pantrymap/go-pantrymap/overpass"
	"github.com/pantrymap/go-pantrymap/pstore"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("pantrymap")

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "devel"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pantrymap",
		Usage:   "Find food banks, pantries and grocers near a location",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "datadir",
				Usage:   "Directory of the persistent cache. Memory only when empty",
				EnvVars: []string{"PANTRYMAP_DATADIR"},
			},
			&cli.StringFlag{
				Name:    "overpass-url",
				Value:   overpass.DefaultEndpoint,
				Usage:   "Overpass API interpreter `URL`",
				EnvVars: []string{"PANTRYMAP_OVERPASS_URL"},
			},
			&cli.DurationFlag{
				Name:    "min-interval",
				Value:   2 * time.Second,
				Usage:   "Minimum time between Overpass place queries",
				EnvVars: []string{"PANTRYMAP_MIN_INTERVAL"},
			},
			&cli.IntFlag{
				Name:    "retry-limit",
				Value:   3,
				Usage:   "Retries of a failed Overpass query",
				EnvVars: []string{"PANTRYMAP_RETRY_LIMIT"},
			},
			&cli.DurationFlag{
				Name:    "memory-ttl",
				Value:   10 * time.Minute,
				Usage:   "Lifetime of results in the memory cache",
				EnvVars: []string{"PANTRYMAP_MEMORY_TTL"},
			},
			&cli.DurationFlag{
				Name:    "persistent-ttl",
				Value:   pstore.DefaultTTL,
				Usage:   "Lifetime of results in the persistent cache",
				EnvVars: []string{"PANTRYMAP_PERSISTENT_TTL"},
			},
			&cli.IntFlag{
				Name:    "max-results",
				Value:   50,
				Usage:   "Maximum number of places returned by a search",
				EnvVars: []string{"PANTRYMAP_MAX_RESULTS"},
			},
			&cli.StringFlag{
				Name:    "elastic-url",
				Usage:   "Elasticsearch `URL` of a curated places index. Not used when empty",
				EnvVars: []string{"PANTRYMAP_ELASTIC_URL"},
			},
			&cli.StringFlag{
				Name:    "elastic-index",
				Value:   elasticsource.DefaultIndex,
				Usage:   "Name of the curated places index",
				EnvVars: []string{"PANTRYMAP_ELASTIC_INDEX"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "error",
				Usage:   "Log `LEVEL` of all subsystems: debug, info, warn, error",
				EnvVars: []string{"PANTRYMAP_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			return logging.SetLogLevel("*", c.String("log-level"))
		},
		Commands: []*cli.Command{
			searchCommand,
			hoursCommand,
			clearCommand,
			indexCommand,
			serveCommand,
		},
	}
}
