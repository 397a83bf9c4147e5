// Package autoreply runs the mention poll loop: fetch mentions newer than
// the persisted marker, generate a reply for each, post it, and advance the
// marker. The loop owns no rendering; progress is reported through an events
// channel so any front end (CLI, control API) can observe it.
package autoreply

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/replydeck/internal/marker"
	"github.com/replydeck/internal/reply"
	"github.com/replydeck/internal/retry"
	"github.com/replydeck/internal/twitter"
	"github.com/replydeck/pkg/models"
)

// ErrAlreadyRunning is returned by Run when the poller has already been
// started. A Poller is single-use.
var ErrAlreadyRunning = errors.New("auto-reply poller already running")

// MinInterval is the floor for the poll interval.
const MinInterval = 1 * time.Minute

// State describes what the poll loop is currently doing.
type State string

const (
	StateIdle     State = "idle"
	StatePolling  State = "polling"
	StateReplying State = "replying"
	StateStopped  State = "stopped"
)

// Event kinds emitted on the poller's events channel.
const (
	EventStarted    = "started"
	EventReplied    = "replied"
	EventFetchError = "fetch_error"
	EventPostError  = "post_error"
	EventStopped    = "stopped"
)

// Event is a progress notification from the poll loop.
type Event struct {
	Kind      string    `json:"kind"`
	MentionID string    `json:"mention_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Err       error     `json:"-"`
	At        time.Time `json:"at"`
}

// Config holds the poll loop settings.
type Config struct {
	Interval time.Duration
}

// Poller drives the fetch/reply/advance cycle.
type Poller struct {
	cfg     Config
	client  twitter.Client
	gen     *reply.Generator
	markers marker.Store

	events  chan Event
	started atomic.Bool
	state   atomic.Value // State

	// IDs replied to in a cycle where the marker could not advance past
	// them; consulted on refetch so a held marker never causes a double
	// reply.
	replied map[string]struct{}

	// Pause before the single quick retry of a transient social call.
	retryPause time.Duration
}

// New builds a Poller. Intervals below MinInterval are raised to it.
func New(cfg Config, client twitter.Client, gen *reply.Generator, markers marker.Store) (*Poller, error) {
	if client == nil {
		return nil, errors.New("autoreply: twitter client is required")
	}
	if gen == nil {
		return nil, errors.New("autoreply: reply generator is required")
	}
	if markers == nil {
		return nil, errors.New("autoreply: marker store is required")
	}
	if cfg.Interval < MinInterval {
		log.Warn().
			Dur("requested", cfg.Interval).
			Dur("minimum", MinInterval).
			Msg("Poll interval below minimum, raising")
		cfg.Interval = MinInterval
	}

	p := &Poller{
		cfg:        cfg,
		client:     client,
		gen:        gen,
		markers:    markers,
		events:     make(chan Event, 64),
		replied:    make(map[string]struct{}),
		retryPause: retry.SocialConfig().BaseDelay,
	}
	p.state.Store(StateIdle)
	return p, nil
}

// Events returns the channel of progress notifications. It is closed when
// Run returns.
func (p *Poller) Events() <-chan Event {
	return p.events
}

// State reports what the loop is currently doing.
func (p *Poller) State() State {
	return p.state.Load().(State)
}

// Run executes the poll loop until ctx is cancelled. The first poll happens
// immediately, then every interval. Only one Run per Poller; subsequent
// calls return ErrAlreadyRunning.
func (p *Poller) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		p.state.Store(StateStopped)
		p.emit(Event{Kind: EventStopped})
		close(p.events)
	}()

	log.Info().Dur("interval", p.cfg.Interval).Msg("Auto-reply poller started")
	p.emit(Event{Kind: EventStarted, Message: "poller started"})

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		p.tick(ctx)
		p.state.Store(StateIdle)

		select {
		case <-ctx.Done():
			log.Info().Msg("Auto-reply poller stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// tick performs one fetch/reply/advance cycle.
func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	p.state.Store(StatePolling)

	since, err := p.markers.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load mention marker")
		p.emit(Event{Kind: EventFetchError, Err: err, Message: "marker load failed"})
		return
	}

	var mentions []models.Mention
	fetchErr := p.quickRetry(ctx, func() error {
		ms, ferr := p.client.FetchMentions(ctx, since)
		if ferr != nil {
			return ferr
		}
		mentions = ms
		return nil
	})
	if fetchErr != nil {
		log.Warn().Err(fetchErr).Str("since", since).Msg("Mention fetch failed, waiting for next cycle")
		p.emit(Event{Kind: EventFetchError, Err: fetchErr, Message: "mention fetch failed"})
		return
	}
	if len(mentions) == 0 {
		log.Debug().Str("since", since).Msg("No new mentions")
		return
	}

	log.Info().Int("count", len(mentions)).Str("since", since).Msg("Processing mentions")
	p.state.Store(StateReplying)

	// Oldest first; the marker only advances across replies that succeeded
	// with no earlier failure, so a failed mention is retried next cycle.
	held := false
	for _, m := range mentions {
		if ctx.Err() != nil {
			return
		}

		if _, done := p.replied[m.ID]; done {
			// Answered in an earlier cycle behind a held marker.
			if !held && p.advance(ctx, m.ID) {
				delete(p.replied, m.ID)
			}
			continue
		}

		res := p.gen.Reply(ctx, models.ReplyRequest{
			MentionText:   m.Text,
			MentionAuthor: m.Author,
		})

		postErr := p.quickRetry(ctx, func() error {
			return p.client.PostReply(ctx, m.ID, res.Text)
		})
		if postErr != nil {
			held = true
			log.Warn().Err(postErr).Str("mention_id", m.ID).Msg("Failed to post reply")
			p.emit(Event{Kind: EventPostError, MentionID: m.ID, Err: postErr, Message: "reply post failed"})
			continue
		}

		log.Info().
			Str("mention_id", m.ID).
			Str("author", m.Author).
			Str("source", res.Source).
			Msg("Replied to mention")
		p.emit(Event{Kind: EventReplied, MentionID: m.ID, Message: res.Text})

		if held || !p.advance(ctx, m.ID) {
			p.replied[m.ID] = struct{}{}
		}
	}
}

// advance moves the marker to id, reporting whether the durable write
// succeeded.
func (p *Poller) advance(ctx context.Context, id string) bool {
	if err := p.markers.Advance(ctx, id); err != nil {
		log.Error().Err(err).Str("mention_id", id).Msg("Failed to advance mention marker")
		p.emit(Event{Kind: EventPostError, MentionID: id, Err: err, Message: "marker advance failed"})
		return false
	}
	return true
}

// quickRetry runs op, retrying once after a short pause when the failure
// looks transient. Anything more waits for the next poll cycle.
func (p *Poller) quickRetry(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || !retry.IsRetryableError(err) {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.retryPause):
	}
	return op()
}

// emit sends an event without blocking; a slow or absent consumer never
// stalls the loop.
func (p *Poller) emit(ev Event) {
	ev.At = time.Now()
	select {
	case p.events <- ev:
	default:
	}
}
