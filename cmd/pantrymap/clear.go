package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var clearCommand = &cli.Command{
	Name:   "clear",
	Usage:  "Remove all cached places and opening hours",
	Action: clearAction,
}

func clearAction(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	if err = e.locator.ClearAll(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Cache cleared")
	return nil
}
