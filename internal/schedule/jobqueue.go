package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/rs/zerolog/log"

	"github.com/replydeck/internal/twitter"
	"github.com/replydeck/pkg/models"
)

// TweetJobArgs are the arguments for a queued tweet post.
type TweetJobArgs struct {
	Text   string `json:"text"`
	ItemID string `json:"item_id"`
}

// Kind returns the job kind for River.
func (TweetJobArgs) Kind() string {
	return "tweet_post"
}

// TweetWorker posts queued tweets when their scheduled time arrives.
type TweetWorker struct {
	river.WorkerDefaults[TweetJobArgs]
	client twitter.Client
}

func (w *TweetWorker) Work(ctx context.Context, job *river.Job[TweetJobArgs]) error {
	if err := w.client.PostTweet(ctx, job.Args.Text); err != nil {
		log.Warn().
			Str("item_id", job.Args.ItemID).
			Err(err).
			Msg("Queued tweet post failed")
		return err
	}
	log.Info().Str("item_id", job.Args.ItemID).Msg("Posted queued tweet")
	return nil
}

// Queue is a River-backed durable tweet scheduler. Jobs survive restarts;
// workers pick them up once their scheduled time passes.
type Queue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
}

// NewQueue builds a Queue on an existing connection pool.
func NewQueue(pool *pgxpool.Pool, social twitter.Client) (*Queue, error) {
	if pool == nil {
		return nil, errors.New("schedule: connection pool is required")
	}
	if social == nil {
		return nil, errors.New("schedule: twitter client is required")
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &TweetWorker{client: social})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating queue client: %w", err)
	}

	return &Queue{client: client, pool: pool}, nil
}

// Start begins processing queued jobs.
func (q *Queue) Start(ctx context.Context) error {
	return q.client.Start(ctx)
}

// Stop drains workers and shuts the queue down.
func (q *Queue) Stop(ctx context.Context) error {
	return q.client.Stop(ctx)
}

// Schedule inserts one job per message, all firing at the given time. It
// returns the queued items in message order.
func (q *Queue) Schedule(ctx context.Context, msgs []string, at time.Time) ([]models.ScheduleItem, error) {
	items := make([]models.ScheduleItem, 0, len(msgs))
	for _, text := range msgs {
		item := models.ScheduleItem{ID: uuid.NewString(), Text: text, FireAt: at}
		args := TweetJobArgs{Text: text, ItemID: item.ID}
		if _, err := q.client.Insert(ctx, args, &river.InsertOpts{ScheduledAt: at}); err != nil {
			return items, fmt.Errorf("queueing tweet %s: %w", item.ID, err)
		}
		items = append(items, item)
	}
	log.Info().Int("count", len(items)).Time("fire_at", at).Msg("Scheduled tweets")
	return items, nil
}
