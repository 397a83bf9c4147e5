package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/replydeck/internal/api"
	"github.com/replydeck/internal/autoreply"
	"github.com/replydeck/internal/schedule"
)

// ServeCommand returns the serve command.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the auto-reply poller together with the control API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Override the control API listen address",
			},
			&cli.BoolFlag{
				Name:  "no-poller",
				Usage: "Start the API without launching the poll loop",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	client, err := buildTwitterClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := client.VerifyCredentials(ctx); err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}

	store, pool, err := buildMarkerStore(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	factory := func() (*autoreply.Poller, error) {
		gen, gerr := buildGenerator(cfg)
		if gerr != nil {
			return nil, gerr
		}
		return autoreply.New(autoreply.Config{Interval: cfg.Interval()}, client, gen, store)
	}

	server := api.NewServer(addr, factory, store)

	// With a database configured this process also works the durable
	// tweet queue filled by the schedule command.
	if pool != nil {
		queue, qerr := schedule.NewQueue(pool, client)
		if qerr != nil {
			return qerr
		}
		if err := queue.Start(ctx); err != nil {
			return fmt.Errorf("failed to start tweet queue: %w", err)
		}
		defer queue.Stop(ctx)
		fmt.Println("Scheduled tweet queue running.")
	}

	if !c.Bool("no-poller") {
		if err := server.StartPoller(); err != nil {
			return err
		}
		fmt.Printf("Auto-reply poller running every %s.\n", cfg.Interval())
	}

	fmt.Printf("Control API listening on %s. Press Ctrl-C to stop.\n", addr)
	return server.Start(ctx)
}
