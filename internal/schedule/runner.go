package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/replydeck/internal/retry"
	"github.com/replydeck/internal/twitter"
	"github.com/replydeck/pkg/models"
)

// Runner posts a batch of tweets sequentially with a fixed delay between
// items.
type Runner struct {
	client   twitter.Client
	retryCfg retry.Config

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner builds a Runner posting through client.
func NewRunner(client twitter.Client) (*Runner, error) {
	if client == nil {
		return nil, errors.New("schedule: twitter client is required")
	}
	return &Runner{client: client, retryCfg: retry.SocialConfig(), sleep: sleepCtx}, nil
}

// PostSequential posts msgs in order, waiting delay between items. Each item
// gets its own result; one failure never aborts the rest. Cancellation stops
// between items and marks everything unattempted with the context error.
func (r *Runner) PostSequential(ctx context.Context, msgs []string, delay time.Duration) []models.ItemResult {
	results := make([]models.ItemResult, 0, len(msgs))

	for i, text := range msgs {
		item := models.ItemResult{ItemID: uuid.NewString(), Text: text}

		if ctx.Err() != nil {
			item.Err = ctx.Err()
			results = append(results, item)
			continue
		}

		if i > 0 && delay > 0 {
			if err := r.sleep(ctx, delay); err != nil {
				item.Err = err
				results = append(results, item)
				continue
			}
		}

		res := retry.WithBackoff(ctx, r.retryCfg, func() error {
			return r.client.PostTweet(ctx, text)
		})
		if !res.Success {
			item.Err = res.LastError
			log.Warn().
				Str("item_id", item.ItemID).
				Int("position", i+1).
				Err(item.Err).
				Msg("Failed to post tweet")
		} else {
			item.PostedAt = time.Now()
			log.Info().
				Str("item_id", item.ItemID).
				Int("position", i+1).
				Int("total", len(msgs)).
				Msg("Posted tweet")
		}
		results = append(results, item)
	}

	return results
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
