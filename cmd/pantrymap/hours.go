package main

import (
	"fmt"

	"github.com/pantrymap/go-pantrymap/format"
	"github.com/urfave/cli/v2"
)

var hoursCommand = &cli.Command{
	Name:      "hours",
	Usage:     "Show the opening hours of a place",
	ArgsUsage: "<place-id>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "fetch",
			Usage: "Look up hours from Overpass when they are not cached",
		},
	},
	Action: hoursAction,
}

func hoursAction(c *cli.Context) error {
	placeID := c.Args().First()
	if placeID == "" {
		return fmt.Errorf("missing place id")
	}
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	hours, ok := e.locator.GetHours(c.Context, placeID)
	if !ok && c.Bool("fetch") {
		raw, err := e.overpass.FetchHours(c.Context, placeID)
		if err != nil {
			return err
		}
		hours = format.Hours(raw)
	}

	w := c.App.Writer
	if len(hours) == 0 {
		fmt.Fprintln(w, "No opening hours known")
		return nil
	}
	for _, line := range hours {
		fmt.Fprintln(w, line)
	}
	return nil
}
