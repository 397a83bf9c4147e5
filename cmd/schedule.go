package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/replydeck/internal/database"
	"github.com/replydeck/internal/schedule"
)

// ScheduleCommand returns the schedule command.
func ScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:      "schedule",
		Usage:     "Post messages from a file at a future time",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "in",
				Usage: "Post after this many minutes",
			},
			&cli.StringFlag{
				Name:  "at",
				Usage: "Post at HH:MM (rolls over to tomorrow when already past)",
			},
			&cli.StringFlag{
				Name:  "on",
				Usage: "Post on YYYY-MM-DD, combined with --at",
			},
			&cli.IntFlag{
				Name:    "delay",
				Aliases: []string{"d"},
				Usage:   "Minutes to wait between posts once firing starts",
				Value:   1,
			},
		},
		Action: runSchedule,
	}
}

func runSchedule(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: message file")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	msgs, err := schedule.ReadMessages(c.Args().Get(0))
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return fmt.Errorf("no messages found in %s", c.Args().Get(0))
	}

	wait, fireAt, err := fireTime(c)
	if err != nil {
		return err
	}

	client, err := buildTwitterClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// With a database the jobs are durable and a running serve instance
	// posts them; without one this process holds the timer itself.
	if cfg.Storage.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		queue, err := schedule.NewQueue(pool, client)
		if err != nil {
			return err
		}

		items, err := queue.Schedule(ctx, msgs, fireAt)
		if err != nil {
			return err
		}
		fmt.Printf("Queued %d messages to post at %s (run `replydeck serve` to process them).\n",
			len(items), fireAt.Format(time.RFC1123))
		return nil
	}

	fmt.Printf("Waiting until %s (%s from now)...\n", fireAt.Format(time.RFC1123), wait.Round(time.Second))

	select {
	case <-ctx.Done():
		return fmt.Errorf("cancelled before the scheduled time")
	case <-time.After(wait):
	}

	runner, err := schedule.NewRunner(client)
	if err != nil {
		return err
	}

	results := runner.PostSequential(ctx, msgs, time.Duration(c.Int("delay"))*time.Minute)
	posted := 0
	for _, res := range results {
		if res.Posted() {
			posted++
		}
	}
	fmt.Printf("Done: %d/%d posted.\n", posted, len(results))

	if posted < len(results) {
		return fmt.Errorf("%d of %d messages failed", len(results)-posted, len(results))
	}
	return nil
}

// fireTime resolves exactly one of --in, --at, --on/--at into a fire time.
func fireTime(c *cli.Context) (time.Duration, time.Time, error) {
	switch {
	case c.IsSet("on"):
		clock := c.String("at")
		if clock == "" {
			return 0, time.Time{}, fmt.Errorf("--on requires --at HH:MM")
		}
		var year, month, day int
		if _, err := fmt.Sscanf(c.String("on"), "%d-%d-%d", &year, &month, &day); err != nil {
			return 0, time.Time{}, fmt.Errorf("--on must be YYYY-MM-DD, got %q", c.String("on"))
		}
		return schedule.DelayUntilDate(year, month, day, clock)
	case c.IsSet("at"):
		return schedule.DelayUntilClock(c.String("at"))
	case c.IsSet("in"):
		return schedule.DelayFromMinutes(c.Int("in"))
	default:
		return 0, time.Time{}, fmt.Errorf("one of --in, --at, or --on is required")
	}
}
