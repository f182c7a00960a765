package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pantrymap/go-pantrymap/model"
	"github.com/urfave/cli/v2"
)

var indexCommand = &cli.Command{
	Name:      "index",
	Usage:     "Load curated places from a JSON file into the Elasticsearch index",
	ArgsUsage: "<file>",
	Action:    indexAction,
}

func indexAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("missing file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var places []model.Place
	if err = json.Unmarshal(data, &places); err != nil {
		return fmt.Errorf("cannot decode places in %s: %w", path, err)
	}

	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.close()
	if e.elastic == nil {
		return errNoElastic
	}

	if err = e.elastic.EnsureIndex(c.Context); err != nil {
		return err
	}
	if err = e.elastic.Index(c.Context, places); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Indexed %d places\n", len(places))
	return nil
}
