package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/replydeck/internal/config"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "replydeck.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: runConfigValidate,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets masked",
				Action: runConfigShow,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.Init(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	if _, err := loadConfig(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println("Configuration is valid")
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("[ai]")
	fmt.Printf("  provider = %q\n", cfg.AI.Provider)
	fmt.Printf("  model = %q\n", cfg.AI.Model)
	if cfg.AI.Endpoint != "" {
		fmt.Printf("  endpoint = %q\n", cfg.AI.Endpoint)
	}
	fmt.Println("[reply]")
	fmt.Printf("  interval_minutes = %d\n", cfg.Reply.IntervalMinutes)
	fmt.Printf("  template_only = %v\n", cfg.Reply.TemplateOnly)
	if cfg.Reply.BrandContext != "" {
		fmt.Printf("  brand_context = %q\n", cfg.Reply.BrandContext)
	}
	fmt.Println("[twitter]")
	fmt.Printf("  token = %s\n", maskSecret(cfg.Twitter.Token))
	fmt.Printf("  account_id = %q\n", cfg.Twitter.AccountID)
	if cfg.Twitter.Handle != "" {
		fmt.Printf("  handle = %q\n", cfg.Twitter.Handle)
	}
	fmt.Println("[storage]")
	fmt.Printf("  marker_path = %q\n", cfg.Storage.MarkerPath)
	fmt.Printf("  quota_path = %q\n", cfg.Storage.QuotaPath)
	if cfg.Storage.DatabaseURL != "" {
		fmt.Printf("  database_url = %s\n", maskSecret(cfg.Storage.DatabaseURL))
	}
	fmt.Println("[server]")
	fmt.Printf("  addr = %q\n", cfg.Server.Addr)

	return nil
}
