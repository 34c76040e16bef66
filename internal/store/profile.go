package store

import (
	"context"
	"fmt"
	"time"
)

// LoadProfile returns the persisted correction profile.
func (s *Store) LoadProfile(ctx context.Context) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT key, multiplier FROM correction_profile`)
	if err != nil {
		return nil, fmt.Errorf("failed to load correction profile: %w", err)
	}
	defer rows.Close()

	profile := make(map[string]float64)
	for rows.Next() {
		var key string
		var multiplier float64
		if err := rows.Scan(&key, &multiplier); err != nil {
			return nil, fmt.Errorf("failed to scan correction profile row: %w", err)
		}
		profile[key] = multiplier
	}
	return profile, rows.Err()
}

// SaveProfile replaces the persisted correction profile with the given
// snapshot, atomically.
func (s *Store) SaveProfile(ctx context.Context, profile map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin profile transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM correction_profile`); err != nil {
		return fmt.Errorf("failed to clear correction profile: %w", err)
	}

	now := time.Now().UnixMilli()
	for key, multiplier := range profile {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO correction_profile (key, multiplier, updated_at) VALUES (?, ?, ?)`,
			key, multiplier, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save correction factor %q: %w", key, err)
		}
	}

	return tx.Commit()
}
