package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/replydeck/internal/ai"
	"github.com/replydeck/internal/config"
	"github.com/replydeck/internal/database"
	"github.com/replydeck/internal/logging"
	"github.com/replydeck/internal/marker"
	"github.com/replydeck/internal/quota"
	"github.com/replydeck/internal/reply"
	"github.com/replydeck/internal/twitter"
	"github.com/replydeck/pkg/models"
)

// loadConfig reads, validates, and applies logging setup for the
// configuration named by the global --config flag.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if _, err := os.Stat(path); err != nil {
		// Fall back to default search locations.
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logging.Setup(cfg.Log.Level)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildTwitterClient wires the HTTP client from config.
func buildTwitterClient(cfg *config.Config) (twitter.Client, error) {
	return twitter.NewHTTPClient(twitter.HTTPConfig{
		BaseURL:   cfg.Twitter.BaseURL,
		Token:     cfg.Twitter.Token,
		AccountID: cfg.Twitter.AccountID,
	})
}

// buildGenerator wires the reply generator: AI provider (unless template-only
// mode) plus the monthly quota guard.
func buildGenerator(cfg *config.Config) (*reply.Generator, error) {
	genCfg := reply.Config{
		SystemPrompt: cfg.Reply.SystemPrompt,
		BrandContext: cfg.Reply.BrandContext,
		MaxTokens:    cfg.AI.MaxTokens,
	}

	if !cfg.Reply.TemplateOnly {
		provider, err := ai.New(models.ProviderConfig{
			Name:        cfg.AI.Provider,
			Model:       cfg.AI.Model,
			EndpointURL: cfg.AI.Endpoint,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build AI provider: %w", err)
		}
		genCfg.Provider = provider
	}

	if cfg.Storage.QuotaPath != "" {
		tracker, err := quota.NewTracker(cfg.Storage.QuotaPath, cfg.Storage.QuotaLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to open quota state: %w", err)
		}
		genCfg.Quota = tracker
	}

	return reply.NewGenerator(genCfg), nil
}

// buildMarkerStore picks the Postgres store when a database URL is
// configured, the file store otherwise. The returned pool is nil for the
// file store.
func buildMarkerStore(ctx context.Context, cfg *config.Config) (marker.Store, *pgxpool.Pool, error) {
	if cfg.Storage.DatabaseURL == "" {
		return marker.NewFileStore(cfg.Storage.MarkerPath), nil, nil
	}

	pool, err := database.Connect(ctx, cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	account := cfg.Twitter.AccountID
	store, err := marker.NewPostgresStore(ctx, pool, account)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to prepare marker store: %w", err)
	}
	log.Debug().Str("account", account).Msg("Using Postgres marker store")
	return store, pool, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
