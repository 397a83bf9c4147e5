package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replydeck/internal/retry"
	"github.com/replydeck/pkg/models"
)

type fakePoster struct {
	mu     sync.Mutex
	posted []string
	fail   map[string]error
}

func newFakePoster() *fakePoster {
	return &fakePoster{fail: make(map[string]error)}
}

func (f *fakePoster) PostTweet(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[text]; ok {
		return err
	}
	f.posted = append(f.posted, text)
	return nil
}

func (f *fakePoster) FetchMentions(ctx context.Context, sinceID string) ([]models.Mention, error) {
	return nil, nil
}

func (f *fakePoster) PostReply(ctx context.Context, mentionID, text string) error { return nil }

func (f *fakePoster) VerifyCredentials(ctx context.Context) error { return nil }

func newTestRunner(t *testing.T, client *fakePoster) *Runner {
	t.Helper()
	r, err := NewRunner(client)
	require.NoError(t, err)
	r.retryCfg = retry.Config{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	return r
}

func TestPostSequentialInOrder(t *testing.T) {
	client := newFakePoster()
	r := newTestRunner(t, client)

	msgs := []string{"first", "second", "third"}
	results := r.PostSequential(context.Background(), msgs, 0)

	require.Len(t, results, 3)
	assert.Equal(t, msgs, client.posted)

	seen := make(map[string]bool)
	for i, res := range results {
		assert.True(t, res.Posted(), "item %d should have posted", i)
		assert.Equal(t, msgs[i], res.Text)
		assert.NotEmpty(t, res.ItemID)
		assert.False(t, seen[res.ItemID], "item IDs must be unique")
		seen[res.ItemID] = true
	}
}

func TestPostSequentialFailureIsolated(t *testing.T) {
	client := newFakePoster()
	client.fail["second"] = errors.New("403 forbidden")
	r := newTestRunner(t, client)

	results := r.PostSequential(context.Background(), []string{"first", "second", "third"}, 0)

	require.Len(t, results, 3)
	assert.True(t, results[0].Posted())
	assert.False(t, results[1].Posted())
	assert.Error(t, results[1].Err)
	assert.True(t, results[2].Posted(), "a failed item must not abort the rest")
	assert.Equal(t, []string{"first", "third"}, client.posted)
}

func TestPostSequentialWaitsBetweenItems(t *testing.T) {
	client := newFakePoster()
	r := newTestRunner(t, client)

	var waits []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	r.PostSequential(context.Background(), []string{"a", "b", "c"}, 5*time.Minute)

	// No wait before the first item.
	assert.Equal(t, []time.Duration{5 * time.Minute, 5 * time.Minute}, waits)
}

func TestPostSequentialCancelled(t *testing.T) {
	client := newFakePoster()
	r := newTestRunner(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	r.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	results := r.PostSequential(ctx, []string{"a", "b", "c"}, time.Minute)

	require.Len(t, results, 3)
	assert.True(t, results[0].Posted())
	assert.ErrorIs(t, results[1].Err, context.Canceled)
	assert.ErrorIs(t, results[2].Err, context.Canceled)
	assert.Equal(t, []string{"a"}, client.posted)
}

func TestPostSequentialEmpty(t *testing.T) {
	r := newTestRunner(t, newFakePoster())
	results := r.PostSequential(context.Background(), nil, 0)
	assert.Empty(t, results)
}

func TestTweetJobKind(t *testing.T) {
	assert.Equal(t, "tweet_post", TweetJobArgs{}.Kind())
}
