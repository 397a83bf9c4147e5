// Package quota tracks a monthly posting allowance persisted to disk, so
// restarts within the same month keep consuming from the same budget.
package quota

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMonthlyLimit is the number of generated replies allowed per
// calendar month when no explicit limit is configured.
const DefaultMonthlyLimit = 500

type state struct {
	Month string `json:"month"` // YYYY-MM
	Left  int    `json:"left"`
}

// Tracker is a file-backed monthly quota. It resets automatically when the
// calendar month rolls over. Safe for concurrent use.
type Tracker struct {
	path  string
	limit int

	mu sync.Mutex
	st state
	// now is swappable for tests.
	now func() time.Time
}

// NewTracker loads or initializes a quota file at path. A missing or
// corrupt file starts a fresh month at the full limit.
func NewTracker(path string, limit int) (*Tracker, error) {
	if path == "" {
		return nil, fmt.Errorf("quota path must not be empty")
	}
	if limit <= 0 {
		limit = DefaultMonthlyLimit
	}

	t := &Tracker{
		path:  path,
		limit: limit,
		now:   time.Now,
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, &t.st); jsonErr != nil {
			log.Warn().Str("path", path).Err(jsonErr).Msg("Quota file unreadable, starting fresh")
			t.st = state{}
		}
	case os.IsNotExist(err):
		t.st = state{}
	default:
		return nil, fmt.Errorf("reading quota file: %w", err)
	}

	t.mu.Lock()
	t.rollover()
	err = t.persist()
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Consume deducts n from the remaining allowance. It returns false, without
// deducting anything, when fewer than n remain.
func (t *Tracker) Consume(n int) bool {
	if n <= 0 {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	if t.st.Left < n {
		return false
	}
	t.st.Left -= n
	if err := t.persist(); err != nil {
		// The in-memory deduction stands; worst case a restart sees a
		// slightly larger allowance than was actually used.
		log.Warn().Str("path", t.path).Err(err).Msg("Failed to persist quota")
	}
	return true
}

// Remaining reports the allowance left in the current month.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	return t.st.Left
}

// Limit reports the configured monthly limit.
func (t *Tracker) Limit() int {
	return t.limit
}

// rollover resets the allowance when the stored month differs from the
// current one. Caller holds t.mu.
func (t *Tracker) rollover() {
	month := t.now().Format("2006-01")
	if t.st.Month == month {
		return
	}
	if t.st.Month != "" {
		log.Info().
			Str("previous", t.st.Month).
			Str("current", month).
			Int("limit", t.limit).
			Msg("Monthly quota reset")
	}
	t.st = state{Month: month, Left: t.limit}
}

// persist writes the state atomically. Caller holds t.mu.
func (t *Tracker) persist() error {
	data, err := json.MarshalIndent(t.st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding quota state: %w", err)
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating quota directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".quota-*")
	if err != nil {
		return fmt.Errorf("creating quota temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing quota state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing quota temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing quota file: %w", err)
	}
	return nil
}
