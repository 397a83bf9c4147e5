package marker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps one marker row per account. The monotonic guard is
// enforced in SQL so concurrent writers from misconfigured deployments can
// never move the marker backwards.
type PostgresStore struct {
	pool    *pgxpool.Pool
	account string
}

// NewPostgresStore binds a store to a connection pool and account handle,
// creating the checkpoint table when missing.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, account string) (*PostgresStore, error) {
	if strings.TrimSpace(account) == "" {
		return nil, fmt.Errorf("account is required")
	}

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS mention_markers (
			account    TEXT PRIMARY KEY,
			marker_id  TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("ensure marker table: %w", err)
	}

	return &PostgresStore{pool: pool, account: account}, nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context) (string, error) {
	var marker string
	err := s.pool.QueryRow(ctx,
		`SELECT marker_id FROM mention_markers WHERE account = $1`,
		s.account,
	).Scan(&marker)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load marker: %w", err)
	}
	return marker, nil
}

// Advance implements Store. Numeric comparison happens in SQL: IDs are
// compared by length first, then lexicographically, matching the platform's
// monotonically increasing numeric identifiers.
func (s *PostgresStore) Advance(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("marker id cannot be empty")
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO mention_markers (account, marker_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (account) DO UPDATE
		SET marker_id = EXCLUDED.marker_id, updated_at = now()
		WHERE (length(EXCLUDED.marker_id), EXCLUDED.marker_id)
		    > (length(mention_markers.marker_id), mention_markers.marker_id)
	`, s.account, id)
	if err != nil {
		return fmt.Errorf("persist marker: %w", err)
	}
	return nil
}
