// Package marker persists the last-seen mention checkpoint that keeps the
// auto-reply loop from processing a mention twice across restarts.
package marker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/replydeck/pkg/models"
)

// Store is a durable, monotonically advancing checkpoint. Advance with an ID
// at or below the current marker is a no-op; the in-memory value never moves
// ahead of what was durably written.
type Store interface {
	// Load returns the persisted marker, or "" when none exists yet.
	Load(ctx context.Context) (string, error)

	// Advance durably records id as the new marker if it is greater than
	// the current one.
	Advance(ctx context.Context, id string) error
}

// FileStore keeps the marker as a single line in a text file, written
// atomically (temp file + rename).
type FileStore struct {
	path string

	mu      sync.Mutex
	current string
	loaded  bool
}

// NewFileStore creates a FileStore at path. The parent directory is created
// on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.current, nil
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.loaded = true
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read marker file: %w", err)
	}

	s.current = strings.TrimSpace(string(data))
	s.loaded = true
	return s.current, nil
}

// Advance implements Store. The write is durable before the in-memory value
// moves: if persistence fails, the marker stays put so no mention is skipped
// after a restart.
func (s *FileStore) Advance(_ context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("marker id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != "" && models.CompareIDs(id, s.current) <= 0 {
		return nil
	}

	if err := s.writeAtomic(id); err != nil {
		return fmt.Errorf("persist marker: %w", err)
	}

	s.current = id
	return nil
}

func (s *FileStore) writeAtomic(id string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".marker-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(id + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
