package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/replydeck/internal/schedule"
)

// BulkCommand returns the bulk command.
func BulkCommand() *cli.Command {
	return &cli.Command{
		Name:      "bulk",
		Usage:     "Post every message from a file, in order",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "delay",
				Aliases: []string{"d"},
				Usage:   "Minutes to wait between posts",
				Value:   1,
			},
		},
		Action: runBulk,
	}
}

func runBulk(c *cli.Context) error {
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

	delayMinutes := c.Int("delay")
	if delayMinutes < 0 {
		return fmt.Errorf("delay must not be negative")
	}

	client, err := buildTwitterClient(cfg)
	if err != nil {
		return err
	}
	runner, err := schedule.NewRunner(client)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Posting %d messages with a %d minute delay between each...\n", len(msgs), delayMinutes)

	results := runner.PostSequential(ctx, msgs, time.Duration(delayMinutes)*time.Minute)

	posted := 0
	for i, res := range results {
		if res.Posted() {
			posted++
			fmt.Printf("  [%d/%d] posted (%s)\n", i+1, len(results), res.ItemID)
		} else {
			fmt.Printf("  [%d/%d] FAILED (%s): %v\n", i+1, len(results), res.ItemID, res.Err)
		}
	}
	fmt.Printf("Done: %d/%d posted.\n", posted, len(results))

	if posted < len(results) {
		return fmt.Errorf("%d of %d messages failed", len(results)-posted, len(results))
	}
	return nil
}
