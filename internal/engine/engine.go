// Package engine drives the activity-to-time-entry pipeline: it pulls new
// activities from the connected sources, classifies and estimates them,
// gates the resulting candidates, and owns the pending-approval queue and
// learned correction state.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clearhours/trackd/internal/activity"
	"github.com/clearhours/trackd/internal/classify"
	"github.com/clearhours/trackd/internal/entry"
	terrors "github.com/clearhours/trackd/internal/errors"
	"github.com/clearhours/trackd/internal/estimate"
	"github.com/clearhours/trackd/internal/gate"
	"github.com/clearhours/trackd/internal/metrics"
	"github.com/clearhours/trackd/internal/retry"
)

// EntryStore persists committed entries and the pending queue.
type EntryStore interface {
	SaveCommitted(ctx context.Context, e entry.Committed) error
	SavePending(ctx context.Context, p entry.Pending) error
	GetPending(ctx context.Context, id string) (*entry.Pending, error)
	ListPending(ctx context.Context) ([]entry.Pending, error)
	DeletePending(ctx context.Context, id string) error
	HasEntryForActivity(ctx context.Context, activityID string) (bool, error)
}

// CheckpointStore persists per-kind sync checkpoints.
type CheckpointStore interface {
	Checkpoint(ctx context.Context, kind activity.Kind) (time.Time, error)
	SaveCheckpoint(ctx context.Context, kind activity.Kind, t time.Time) error
}

// ProfileStore persists the learned correction profile.
type ProfileStore interface {
	LoadProfile(ctx context.Context) (map[string]float64, error)
	SaveProfile(ctx context.Context, profile map[string]float64) error
}

// Notifier is told about new pending entries. Implementations must not block
// the sync cycle on failure.
type Notifier interface {
	PendingCreated(ctx context.Context, p entry.Pending)
}

// Config holds the orchestrator settings.
type Config struct {
	// SyncInterval is the period of the auto-sync loop.
	SyncInterval time.Duration

	// DefaultLookback bounds the first sync window when no checkpoint exists.
	DefaultLookback time.Duration

	// MinDurationMinutes drops estimates shorter than this before gating.
	MinDurationMinutes int

	// ExcludePatterns drops activities whose title contains any pattern.
	ExcludePatterns []string

	// DisabledSources lists source kinds to skip entirely.
	DisabledSources []string

	// Retry configures backoff for source fetch calls.
	Retry retry.Config
}

// Deps bundles the engine's collaborators.
type Deps struct {
	Sources     []activity.Source
	Classifier  *classify.Classifier
	Estimator   *estimate.Estimator
	Learner     *estimate.Learner
	Builder     *entry.Builder
	Entries     EntryStore
	Checkpoints CheckpointStore
	Profiles    ProfileStore
	Notifier    Notifier         // optional
	Metrics     *metrics.Metrics // optional
	Policy      gate.Policy
	Clock       func() time.Time // optional, defaults to time.Now
}

// Engine is the sync orchestrator. One sync cycle runs at a time; a trigger
// that fires while a cycle is in flight is skipped, never run concurrently.
type Engine struct {
	cfg    Config
	deps   Deps
	logger zerolog.Logger
	clock  func() time.Time

	policyMu sync.RWMutex
	policy   gate.Policy

	// syncMu is the single-flight guard for sync cycles.
	syncMu sync.Mutex

	lastSyncMu sync.RWMutex
	lastSync   time.Time

	autoMu     sync.Mutex
	autoCancel context.CancelFunc
	autoDone   chan struct{}
}

// New creates an Engine.
func New(cfg Config, deps Deps, logger zerolog.Logger) *Engine {
	if cfg.DefaultLookback <= 0 {
		cfg.DefaultLookback = 24 * time.Hour
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 5 * time.Minute
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With().Str("component", "engine").Logger(),
		clock:  clock,
		policy: deps.Policy,
	}
}

// RestoreProfile loads the persisted correction profile into the learner.
// Called once at startup.
func (e *Engine) RestoreProfile(ctx context.Context) error {
	profile, err := e.deps.Profiles.LoadProfile(ctx)
	if err != nil {
		return err
	}
	e.deps.Learner.LoadFrom(profile)
	e.logger.Info().Int("factors", len(profile)).Msg("correction profile restored")
	return nil
}

// Policy returns the current review policy.
func (e *Engine) Policy() gate.Policy {
	e.policyMu.RLock()
	defer e.policyMu.RUnlock()
	return e.policy
}

// UpdatePolicy applies a partial policy update. Invalid values are rejected
// at this boundary and leave the active policy untouched.
func (e *Engine) UpdatePolicy(patch gate.Patch) (gate.Policy, error) {
	e.policyMu.Lock()
	defer e.policyMu.Unlock()
	next, err := e.policy.Apply(patch)
	if err != nil {
		return e.policy, err
	}
	e.policy = next
	e.logger.Info().
		Bool("auto_approve", next.AutoApprove).
		Float64("confidence_threshold", next.ConfidenceThreshold).
		Bool("require_approval", next.RequireApproval).
		Msg("review policy updated")
	return next, nil
}

// GetPendingEntries returns the pending-approval queue.
func (e *Engine) GetPendingEntries(ctx context.Context) ([]entry.Pending, error) {
	pending, err := e.deps.Entries.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	e.deps.Metrics.SetPendingEntries(len(pending))
	return pending, nil
}

// ApprovePending promotes a pending entry to a committed one. When the user
// supplies a confirmed duration different from the estimate, the correction
// learner is updated before the pending record is discarded.
func (e *Engine) ApprovePending(ctx context.Context, id string, confirmedMinutes *int) (entry.Committed, error) {
	p, err := e.deps.Entries.GetPending(ctx, id)
	if err != nil {
		return entry.Committed{}, err
	}
	if p == nil {
		return entry.Committed{}, terrors.ErrNotFound
	}
	if confirmedMinutes != nil && *confirmedMinutes <= 0 {
		return entry.Committed{}, terrors.ErrInvalidInput
	}

	committed := entry.Committed{
		ID:          p.ID,
		Candidate:   p.Candidate,
		CommittedAt: e.clock(),
	}

	corrected := confirmedMinutes != nil && *confirmedMinutes != p.Estimate.Minutes
	if corrected {
		committed.Estimate = estimate.TimeEstimate{
			Minutes:    *confirmedMinutes,
			Confidence: 1.0,
			Source:     estimate.SourceConfirmed,
		}
		committed.Description = entry.Describe(p.Kind, p.Title, committed.Estimate)
		committed.Tags = entry.Retag(p.Tags, committed.Estimate)
	}

	if err := e.deps.Entries.SaveCommitted(ctx, committed); err != nil {
		return entry.Committed{}, err
	}

	if corrected {
		for _, key := range p.CorrectionKeys {
			if err := e.deps.Learner.RecordCorrection(key, p.Estimate.Minutes, *confirmedMinutes); err != nil {
				e.logger.Warn().Err(err).Str("key", key).Msg("correction rejected")
			}
		}
		if err := e.deps.Profiles.SaveProfile(ctx, e.deps.Learner.Snapshot()); err != nil {
			// At-least-once durability: the in-memory factors are current,
			// only the flush failed. Log and keep going.
			e.logger.Error().Err(err).Msg("failed to persist correction profile")
			e.deps.Metrics.RecordError("profile", "persist")
		}
	}

	if err := e.deps.Entries.DeletePending(ctx, id); err != nil {
		e.logger.Error().Err(err).Str("pending_id", id).Msg("failed to remove promoted pending entry")
	}

	e.logger.Info().
		Str("pending_id", id).
		Str("activity_id", p.ActivityID).
		Bool("corrected", corrected).
		Msg("pending entry approved")
	return committed, nil
}

// RejectPending discards a pending entry. No correction signal is recorded:
// rejection is not confirmation.
func (e *Engine) RejectPending(ctx context.Context, id string) error {
	p, err := e.deps.Entries.GetPending(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return terrors.ErrNotFound
	}
	if err := e.deps.Entries.DeletePending(ctx, id); err != nil {
		return err
	}
	e.logger.Info().
		Str("pending_id", id).
		Str("activity_id", p.ActivityID).
		Msg("pending entry rejected")
	return nil
}

// Status describes the engine state surfaced to the UI layer.
type Status struct {
	LastSync       time.Time `json:"last_sync"`
	PendingCount   int       `json:"pending_count"`
	AutoSyncActive bool      `json:"auto_sync_active"`
}

// CurrentStatus returns the last sync time, pending count, and auto-sync state.
func (e *Engine) CurrentStatus(ctx context.Context) (Status, error) {
	pending, err := e.deps.Entries.ListPending(ctx)
	if err != nil {
		return Status{}, err
	}
	e.lastSyncMu.RLock()
	last := e.lastSync
	e.lastSyncMu.RUnlock()
	return Status{
		LastSync:       last,
		PendingCount:   len(pending),
		AutoSyncActive: e.AutoSyncActive(),
	}, nil
}
