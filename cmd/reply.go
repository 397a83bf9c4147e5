package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/replydeck/internal/autoreply"
)

// ReplyCommand returns the reply command.
func ReplyCommand() *cli.Command {
	return &cli.Command{
		Name:  "reply",
		Usage: "Run the auto-reply poll loop in the foreground",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Override the poll interval in minutes",
			},
		},
		Action: runReply,
	}
}

func runReply(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("interval") {
		cfg.Reply.IntervalMinutes = c.Int("interval")
		if cfg.Reply.IntervalMinutes < 1 {
			return fmt.Errorf("interval must be at least 1 minute")
		}
	}

	client, err := buildTwitterClient(cfg)
	if err != nil {
		return err
	}
	gen, err := buildGenerator(cfg)
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

	poller, err := autoreply.New(autoreply.Config{Interval: cfg.Interval()}, client, gen, store)
	if err != nil {
		return err
	}

	go printEvents(poller.Events())

	fmt.Printf("Auto-reply running every %s. Press Ctrl-C to stop.\n", cfg.Interval())
	return poller.Run(ctx)
}

func printEvents(events <-chan autoreply.Event) {
	for ev := range events {
		switch ev.Kind {
		case autoreply.EventReplied:
			fmt.Printf("Replied to mention %s: %s\n", ev.MentionID, ev.Message)
		case autoreply.EventFetchError:
			fmt.Printf("Fetch failed: %v (will retry next cycle)\n", ev.Err)
		case autoreply.EventPostError:
			fmt.Printf("Post failed for mention %s: %v\n", ev.MentionID, ev.Err)
		case autoreply.EventStopped:
			fmt.Println("Poller stopped.")
		}
	}
}
