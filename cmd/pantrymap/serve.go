package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pantrymap/go-pantrymap/server"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Serve place searches over HTTP",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Value:   "127.0.0.1:8080",
			Usage:   "HTTP listen `ADDRESS`",
			EnvVars: []string{"PANTRYMAP_LISTEN"},
		},
	},
	Action: serveAction,
}

func serveAction(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	unsubscribe := e.locator.OnCleared(func() {
		log.Info("Cache cleared by request")
	})
	defer unsubscribe()

	return server.New(e.locator).ListenAndServe(ctx, c.String("listen"))
}
