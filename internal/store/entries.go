package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clearhours/trackd/internal/activity"
	"github.com/clearhours/trackd/internal/classify"
	"github.com/clearhours/trackd/internal/entry"
	"github.com/clearhours/trackd/internal/estimate"
)

// SaveCommitted persists a committed entry. The unique activity_id constraint
// backs the at-most-one-entry-per-activity invariant.
func (s *Store) SaveCommitted(ctx context.Context, e entry.Committed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, keys, err := encodeLists(e.Tags, e.CorrectionKeys)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO committed_entries (
		id, activity_id, kind, title, started_at, project, client, category,
		minutes, confidence, est_source, billable, description, tags,
		correction_keys, committed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		e.ID, e.ActivityID, string(e.Kind), e.Title, e.StartedAt.UnixMilli(),
		e.Classification.Project, e.Classification.Client, string(e.Classification.Category),
		e.Estimate.Minutes, e.Estimate.Confidence, string(e.Estimate.Source),
		boolToInt(e.Billable), e.Description, tags, keys, e.CommittedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save committed entry: %w", err)
	}
	return nil
}

// ListCommitted returns all committed entries, newest first.
func (s *Store) ListCommitted(ctx context.Context) ([]entry.Committed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := entryColumns("committed_entries", "committed_at") + " ORDER BY committed_at DESC"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list committed entries: %w", err)
	}
	defer rows.Close()

	var out []entry.Committed
	for rows.Next() {
		var e entry.Committed
		var ts int64
		if err := scanEntryRow(rows, &e.ID, &e.Candidate, &ts); err != nil {
			return nil, err
		}
		e.CommittedAt = time.UnixMilli(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// SavePending persists a pending entry.
func (s *Store) SavePending(ctx context.Context, p entry.Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, keys, err := encodeLists(p.Tags, p.CorrectionKeys)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO pending_entries (
		id, activity_id, kind, title, started_at, project, client, category,
		minutes, confidence, est_source, billable, description, tags,
		correction_keys, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.ActivityID, string(p.Kind), p.Title, p.StartedAt.UnixMilli(),
		p.Classification.Project, p.Classification.Client, string(p.Classification.Category),
		p.Estimate.Minutes, p.Estimate.Confidence, string(p.Estimate.Source),
		boolToInt(p.Billable), p.Description, tags, keys, p.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save pending entry: %w", err)
	}
	return nil
}

// GetPending retrieves a pending entry by ID. Returns (nil, nil) when absent.
func (s *Store) GetPending(ctx context.Context, id string) (*entry.Pending, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := entryColumns("pending_entries", "created_at") + " WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	var p entry.Pending
	var ts int64
	err := scanEntryRow(row, &p.ID, &p.Candidate, &ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending entry: %w", err)
	}
	p.CreatedAt = time.UnixMilli(ts)
	return &p, nil
}

// ListPending returns all pending entries, oldest first.
func (s *Store) ListPending(ctx context.Context) ([]entry.Pending, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := entryColumns("pending_entries", "created_at") + " ORDER BY created_at ASC"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}
	defer rows.Close()

	var out []entry.Pending
	for rows.Next() {
		var p entry.Pending
		var ts int64
		if err := scanEntryRow(rows, &p.ID, &p.Candidate, &ts); err != nil {
			return nil, err
		}
		p.CreatedAt = time.UnixMilli(ts)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePending removes a pending entry by ID.
func (s *Store) DeletePending(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending entry: %w", err)
	}
	return nil
}

// HasEntryForActivity reports whether a committed or pending entry already
// references the given activity ID.
func (s *Store) HasEntryForActivity(ctx context.Context, activityID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT EXISTS(SELECT 1 FROM committed_entries WHERE activity_id = ?)
	    OR EXISTS(SELECT 1 FROM pending_entries WHERE activity_id = ?)
	`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, activityID, activityID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check entry existence: %w", err)
	}
	return exists, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func entryColumns(table, timeCol string) string {
	return `
	SELECT id, activity_id, kind, title, started_at, project, client, category,
	       minutes, confidence, est_source, billable, description, tags,
	       correction_keys, ` + timeCol + ` FROM ` + table
}

func scanEntryRow(sc scanner, id *string, c *entry.Candidate, ts *int64) error {
	var kind, category, estSource, tagsRaw, keysRaw string
	var startedAt int64
	var billable int

	err := sc.Scan(
		id, &c.ActivityID, &kind, &c.Title, &startedAt,
		&c.Classification.Project, &c.Classification.Client, &category,
		&c.Estimate.Minutes, &c.Estimate.Confidence, &estSource,
		&billable, &c.Description, &tagsRaw, &keysRaw, ts,
	)
	if err != nil {
		return err
	}

	c.Kind = activity.Kind(kind)
	c.Classification.Category = classify.Category(category)
	c.Estimate.Source = estimate.Source(estSource)
	c.StartedAt = time.UnixMilli(startedAt)
	c.Billable = billable != 0

	if err := json.Unmarshal([]byte(tagsRaw), &c.Tags); err != nil {
		return fmt.Errorf("failed to decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(keysRaw), &c.CorrectionKeys); err != nil {
		return fmt.Errorf("failed to decode correction keys: %w", err)
	}
	return nil
}

func encodeLists(tags, keys []string) (string, string, error) {
	if tags == nil {
		tags = []string{}
	}
	if keys == nil {
		keys = []string{}
	}
	t, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode tags: %w", err)
	}
	k, err := json.Marshal(keys)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode correction keys: %w", err)
	}
	return string(t), string(k), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
