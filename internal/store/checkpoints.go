package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clearhours/trackd/internal/activity"
)

// Checkpoint returns the last successful sync time for a source kind, or the
// zero time when the kind has never synced.
func (s *Store) Checkpoint(ctx context.Context, kind activity.Kind) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ts int64
	err := s.db.QueryRowContext(ctx,
		`SELECT synced_at FROM sync_checkpoints WHERE kind = ?`, string(kind),
	).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return time.UnixMilli(ts), nil
}

// SaveCheckpoint records the last successful sync time for a source kind.
func (s *Store) SaveCheckpoint(ctx context.Context, kind activity.Kind, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sync_checkpoints (kind, synced_at) VALUES (?, ?)`,
		string(kind), t.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
