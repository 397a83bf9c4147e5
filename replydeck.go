package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/replydeck/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "replydeck",
		Usage:   "AI-assisted auto-reply and tweet scheduling for X/Twitter",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   "replydeck.toml",
			},
		},
		Before: func(c *cli.Context) error {
			// A .env next to the binary is a convenience, not a requirement.
			if _, err := os.Stat(".env"); err == nil {
				if err := cmd.LoadEnvFile(".env"); err != nil {
					return err
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			cmd.PostCommand(),
			cmd.BulkCommand(),
			cmd.ScheduleCommand(),
			cmd.ReplyCommand(),
			cmd.ServeCommand(),
			cmd.ConfigCommand(),
			cmd.EnvCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
