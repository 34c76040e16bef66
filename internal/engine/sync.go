package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clearhours/trackd/internal/activity"
	"github.com/clearhours/trackd/internal/entry"
	terrors "github.com/clearhours/trackd/internal/errors"
	"github.com/clearhours/trackd/internal/gate"
	"github.com/clearhours/trackd/internal/retry"
)

// SyncResult summarizes one sync cycle.
type SyncResult struct {
	Committed int       `json:"committed"`
	Pending   int       `json:"pending"`
	Errors    int       `json:"errors"`
	StartedAt time.Time `json:"started_at"`
}

// Per-activity outcomes, used for logging and metrics labels.
const (
	outcomeCommitted = "committed"
	outcomePending   = "pending"
	outcomeSkipped   = "skipped"
	outcomeError     = "error"
)

// RunSyncOnce executes a single sync cycle. Returns ErrSyncInProgress when a
// cycle is already in flight; manual and scheduled triggers share this path.
func (e *Engine) RunSyncOnce(ctx context.Context) (SyncResult, error) {
	if !e.syncMu.TryLock() {
		return SyncResult{}, terrors.ErrSyncInProgress
	}
	defer e.syncMu.Unlock()

	start := e.clock()
	result := SyncResult{StartedAt: start}

	for _, source := range e.deps.Sources {
		kind := source.Kind()
		if e.sourceDisabled(kind) {
			e.logger.Debug().Str("kind", string(kind)).Msg("source disabled, skipping")
			continue
		}

		if err := e.syncSource(ctx, source, start, &result); err != nil {
			// Fetch failed: count it and leave the checkpoint untouched so
			// the next cycle re-covers the same window.
			result.Errors++
			e.deps.Metrics.RecordError("fetch", string(kind))
			e.logger.Error().Err(err).Str("kind", string(kind)).Msg("source fetch failed")
		}
	}

	e.lastSyncMu.Lock()
	e.lastSync = start
	e.lastSyncMu.Unlock()

	cycleResult := "ok"
	if result.Errors > 0 {
		cycleResult = "partial"
	}
	e.deps.Metrics.RecordSyncCycle(cycleResult, e.clock().Sub(start).Seconds())

	if pending, err := e.deps.Entries.ListPending(ctx); err == nil {
		e.deps.Metrics.SetPendingEntries(len(pending))
	}

	e.logger.Info().
		Int("committed", result.Committed).
		Int("pending", result.Pending).
		Int("errors", result.Errors).
		Msg("sync cycle finished")
	return result, nil
}

// syncSource fetches and processes one source. A returned error means the
// fetch itself failed; per-activity failures are absorbed into the result.
func (e *Engine) syncSource(ctx context.Context, source activity.Source, now time.Time, result *SyncResult) error {
	kind := source.Kind()

	since, err := e.deps.Checkpoints.Checkpoint(ctx, kind)
	if err != nil {
		return fmt.Errorf("loading checkpoint: %w", err)
	}
	if since.IsZero() {
		since = now.Add(-e.cfg.DefaultLookback)
	}

	var activities []activity.Activity
	err = retry.Do(ctx, e.cfg.Retry, func(ctx context.Context) error {
		var fetchErr error
		activities, fetchErr = source.Fetch(ctx, since)
		return fetchErr
	})
	if err != nil {
		return fmt.Errorf("fetching activities: %w", err)
	}

	checkpointTo := now
	for _, a := range activities {
		outcome, err := e.processActivity(ctx, a)
		if err != nil {
			// Isolate-and-continue: one bad activity never aborts the batch.
			result.Errors++
			e.deps.Metrics.RecordError("process", string(kind))
			e.logger.Warn().Err(err).Str("activity_id", a.ID).Msg("activity processing failed")
			// Transient failures hold the checkpoint back so the next window
			// re-covers the activity. Malformed activities fail identically
			// on every fetch; they never pin the window.
			if !errors.Is(err, terrors.ErrInvalidInput) && a.Timestamp.Before(checkpointTo) {
				checkpointTo = a.Timestamp
			}
			continue
		}
		e.deps.Metrics.RecordActivity(string(kind), outcome)
		switch outcome {
		case outcomeCommitted:
			result.Committed++
		case outcomePending:
			result.Pending++
		}
	}

	if err := e.deps.Checkpoints.SaveCheckpoint(ctx, kind, checkpointTo); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// processActivity runs one activity through the full pipeline. Activities
// are only ever marked seen by a successful entry write, so persistence
// failures leave them eligible for reprocessing.
func (e *Engine) processActivity(ctx context.Context, a activity.Activity) (string, error) {
	if a.ID == "" {
		return outcomeError, fmt.Errorf("activity without source identifier: %w", terrors.ErrInvalidInput)
	}
	if !a.Kind.Valid() {
		return outcomeError, fmt.Errorf("unknown activity kind %q: %w", a.Kind, terrors.ErrInvalidInput)
	}

	if e.titleExcluded(a.Title) {
		return outcomeSkipped, nil
	}

	seen, err := e.deps.Entries.HasEntryForActivity(ctx, a.ID)
	if err != nil {
		return outcomeError, fmt.Errorf("checking for existing entry: %w", err)
	}
	if seen {
		return outcomeSkipped, nil
	}

	classification := e.deps.Classifier.Classify(a)
	est := e.deps.Estimator.Estimate(a)

	if est.Minutes < e.cfg.MinDurationMinutes {
		return outcomeSkipped, nil
	}

	candidate := e.deps.Builder.Build(a, est, classification)

	switch gate.Decide(candidate, e.Policy()) {
	case gate.DecisionCommit:
		committed := entry.Committed{
			ID:          uuid.NewString(),
			Candidate:   candidate,
			CommittedAt: e.clock(),
		}
		if err := e.deps.Entries.SaveCommitted(ctx, committed); err != nil {
			return outcomeError, fmt.Errorf("persisting committed entry: %w", err)
		}
		return outcomeCommitted, nil

	default:
		pending := entry.Pending{
			ID:        uuid.NewString(),
			Candidate: candidate,
			CreatedAt: e.clock(),
		}
		if err := e.deps.Entries.SavePending(ctx, pending); err != nil {
			return outcomeError, fmt.Errorf("persisting pending entry: %w", err)
		}
		if e.deps.Notifier != nil {
			e.deps.Notifier.PendingCreated(ctx, pending)
		}
		return outcomePending, nil
	}
}

func (e *Engine) sourceDisabled(kind activity.Kind) bool {
	for _, d := range e.cfg.DisabledSources {
		if strings.EqualFold(d, string(kind)) {
			return true
		}
	}
	return false
}

func (e *Engine) titleExcluded(title string) bool {
	lower := strings.ToLower(title)
	for _, pattern := range e.cfg.ExcludePatterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}
