package autoreply

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replydeck/internal/marker"
	"github.com/replydeck/internal/reply"
	"github.com/replydeck/pkg/models"
)

type fakeTwitter struct {
	mu       sync.Mutex
	mentions []models.Mention
	fetchErr error
	postErr  map[string]error
	failOnce map[string]error

	posts     []string
	postCalls map[string]int
	fetches   int
}

func newFakeTwitter(mentions ...models.Mention) *fakeTwitter {
	return &fakeTwitter{
		mentions:  mentions,
		postErr:   make(map[string]error),
		failOnce:  make(map[string]error),
		postCalls: make(map[string]int),
	}
}

func (f *fakeTwitter) FetchMentions(ctx context.Context, sinceID string) ([]models.Mention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []models.Mention
	for _, m := range f.mentions {
		if sinceID == "" || models.CompareIDs(m.ID, sinceID) > 0 {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeTwitter) PostReply(ctx context.Context, mentionID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postCalls[mentionID]++
	if err, ok := f.failOnce[mentionID]; ok {
		delete(f.failOnce, mentionID)
		return err
	}
	if err, ok := f.postErr[mentionID]; ok {
		return err
	}
	f.posts = append(f.posts, mentionID)
	return nil
}

func (f *fakeTwitter) PostTweet(ctx context.Context, text string) error { return nil }

func (f *fakeTwitter) VerifyCredentials(ctx context.Context) error { return nil }

func (f *fakeTwitter) allowPost(mentionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.postErr, mentionID)
}

func (f *fakeTwitter) postedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.posts...)
}

func (f *fakeTwitter) callsFor(mentionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.postCalls[mentionID]
}

func mention(id, author, text string) models.Mention {
	return models.Mention{ID: id, Author: author, Text: text, CreatedAt: time.Now()}
}

func newTestPoller(t *testing.T, client *fakeTwitter) (*Poller, marker.Store) {
	t.Helper()
	store := marker.NewFileStore(filepath.Join(t.TempDir(), "marker"))
	gen := reply.NewGenerator(reply.Config{})
	p, err := New(Config{Interval: time.Hour}, client, gen, store)
	require.NoError(t, err)
	p.cfg.Interval = 20 * time.Millisecond
	p.retryPause = time.Millisecond
	return p, store
}

// waitEvent consumes events until one matches kind (and mentionID, when
// non-empty) or the timeout expires.
func waitEvent(t *testing.T, events <-chan Event, kind, mentionID string) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("events channel closed while waiting for %s/%s", kind, mentionID)
			}
			if ev.Kind == kind && (mentionID == "" || ev.MentionID == mentionID) {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %s/%s", kind, mentionID)
		}
	}
}

func runPoller(t *testing.T, p *Poller) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return func() {
		stop()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("poller did not stop after cancellation")
		}
	}
}

func TestRunRepliesOldestFirstAndAdvancesMarker(t *testing.T) {
	client := newFakeTwitter(
		mention("1001", "alice", "love this!"),
		mention("1002", "bob", "how does it work?"),
	)
	p, store := newTestPoller(t, client)

	stop := runPoller(t, p)
	waitEvent(t, p.Events(), EventReplied, "1001")
	waitEvent(t, p.Events(), EventReplied, "1002")
	stop()

	assert.Equal(t, []string{"1001", "1002"}, client.postedIDs())

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1002", got)
}

func TestSecondRunReturnsErrAlreadyRunning(t *testing.T) {
	p, _ := newTestPoller(t, newFakeTwitter())

	stop := runPoller(t, p)
	waitEvent(t, p.Events(), EventStarted, "")

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	stop()
}

func TestFetchFailureWaitsForNextCycle(t *testing.T) {
	client := newFakeTwitter(mention("1001", "alice", "hello"))
	client.fetchErr = errors.New("403 forbidden")
	p, store := newTestPoller(t, client)

	stop := runPoller(t, p)
	waitEvent(t, p.Events(), EventFetchError, "")
	stop()

	assert.Empty(t, client.postedIDs())

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestPostFailureHoldsMarkerButContinuesBatch(t *testing.T) {
	client := newFakeTwitter(
		mention("1001", "alice", "thanks!"),
		mention("1002", "bob", "this is broken"),
		mention("1003", "carol", "awesome work"),
	)
	client.postErr["1002"] = errors.New("403 forbidden")
	p, store := newTestPoller(t, client)

	stop := runPoller(t, p)
	defer stop()

	waitEvent(t, p.Events(), EventPostError, "1002")
	waitEvent(t, p.Events(), EventReplied, "1003")

	// Later mentions were attempted, but the marker holds at the last
	// success before the gap.
	require.Eventually(t, func() bool {
		got, err := store.Load(context.Background())
		return err == nil && got == "1001"
	}, 3*time.Second, 10*time.Millisecond)

	// Next cycle the failed mention succeeds; the already answered one is
	// not replied to again and the marker catches up.
	client.allowPost("1002")
	waitEvent(t, p.Events(), EventReplied, "1002")

	require.Eventually(t, func() bool {
		got, err := store.Load(context.Background())
		return err == nil && got == "1003"
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, client.callsFor("1003"), "no duplicate reply after a held marker")
}

func TestTransientPostErrorRetriedWithinTick(t *testing.T) {
	client := newFakeTwitter(mention("1001", "alice", "hi"))
	client.failOnce["1001"] = errors.New("503 service unavailable")
	p, store := newTestPoller(t, client)

	stop := runPoller(t, p)
	waitEvent(t, p.Events(), EventReplied, "1001")
	stop()

	assert.Equal(t, 2, client.callsFor("1001"))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1001", got)
}

func TestIntervalClampedToMinimum(t *testing.T) {
	store := marker.NewFileStore(filepath.Join(t.TempDir(), "marker"))
	gen := reply.NewGenerator(reply.Config{})

	p, err := New(Config{Interval: time.Second}, newFakeTwitter(), gen, store)
	require.NoError(t, err)
	assert.Equal(t, MinInterval, p.cfg.Interval)
}

func TestNewRequiresDependencies(t *testing.T) {
	store := marker.NewFileStore(filepath.Join(t.TempDir(), "marker"))
	gen := reply.NewGenerator(reply.Config{})

	_, err := New(Config{}, nil, gen, store)
	assert.Error(t, err)

	_, err = New(Config{}, newFakeTwitter(), nil, store)
	assert.Error(t, err)

	_, err = New(Config{}, newFakeTwitter(), gen, nil)
	assert.Error(t, err)
}
