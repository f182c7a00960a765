package main

import (
	"encoding/json"
	"fmt"

	"github.com/pantrymap/go-pantrymap/format"
	"github.com/urfave/cli/v2"
)

var searchCommand = &cli.Command{
	Name:  "search",
	Usage: "List places near a location, nearest first",
	Flags: []cli.Flag{
		&cli.Float64Flag{
			Name:     "lat",
			Usage:    "Latitude of the search center",
			Required: true,
		},
		&cli.Float64Flag{
			Name:     "lon",
			Usage:    "Longitude of the search center",
			Required: true,
		},
		&cli.Float64Flag{
			Name:  "radius",
			Value: 5,
			Usage: "Search radius in kilometers",
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Ignore cached results",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print places as JSON",
		},
	},
	Action: searchAction,
}

func searchAction(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	places, err := e.locator.Search(c.Context, c.Float64("lat"), c.Float64("lon"), c.Float64("radius"), c.Bool("force"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(places)
	}
	if len(places) == 0 {
		fmt.Fprintln(w, "No places found")
		return nil
	}
	for _, p := range places {
		fmt.Fprintf(w, "%5.1f mi  %s  [%s]\n", p.Distance, p.Name, format.Category(p.Category))
		if addr := format.Address(p.Address); addr != "" {
			fmt.Fprintf(w, "          %s\n", addr)
		}
		for _, line := range p.OpeningHours {
			fmt.Fprintf(w, "          %s\n", line)
		}
		fmt.Fprintf(w, "          id: %s\n", p.ID)
	}
	return nil
}
