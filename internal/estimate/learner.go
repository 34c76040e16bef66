package estimate

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clearhours/trackd/internal/activity"
)

// Correction key prefixes. An activity can match several keys at once; the
// estimator applies every matching adjustment multiplicatively.
const (
	domainKeyPrefix = "domain:"
	lengthKeyPrefix = "length:"
)

// Content-length bucket boundaries (characters).
const (
	lengthBucketShort  = 500
	lengthBucketMedium = 2000
)

// DomainKey returns the correction key for a sender domain.
func DomainKey(domain string) string {
	return domainKeyPrefix + domain
}

// LengthKey returns the correction key for a content-length bucket.
func LengthKey(contentLength int) string {
	switch {
	case contentLength < lengthBucketShort:
		return lengthKeyPrefix + "short"
	case contentLength < lengthBucketMedium:
		return lengthKeyPrefix + "medium"
	default:
		return lengthKeyPrefix + "long"
	}
}

// CorrectionKeys returns every correction-profile key that applies to a.
func CorrectionKeys(a activity.Activity) []string {
	var keys []string
	if domain := a.SenderDomain(); domain != "" {
		keys = append(keys, DomainKey(domain))
	}
	if a.Signals.ContentLength > 0 {
		keys = append(keys, LengthKey(a.Signals.ContentLength))
	}
	return keys
}

// Learner holds the per-key multiplicative adjustment factors derived from
// user corrections. Factors are seeded at 1.0 and blended toward the observed
// confirmed/estimated ratio on every correction.
type Learner struct {
	mu      sync.Mutex
	factors map[string]float64
	logger  zerolog.Logger
}

// NewLearner creates an empty Learner.
func NewLearner(logger zerolog.Logger) *Learner {
	return &Learner{
		factors: make(map[string]float64),
		logger:  logger.With().Str("component", "learner").Logger(),
	}
}

// LoadFrom replaces the learned factors with a persisted snapshot.
func (l *Learner) LoadFrom(factors map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.factors = make(map[string]float64, len(factors))
	for k, v := range factors {
		l.factors[k] = v
	}
}

// Snapshot returns a copy of the current factors for persistence.
func (l *Learner) Snapshot() map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]float64, len(l.factors))
	for k, v := range l.factors {
		out[k] = v
	}
	return out
}

// AdjustmentFor returns the product of all adjustments matching the given
// keys. Unseen keys contribute 1.0.
func (l *Learner) AdjustmentFor(keys ...string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	adjustment := 1.0
	for _, key := range keys {
		if f, ok := l.factors[key]; ok {
			adjustment *= f
		}
	}
	return adjustment
}

// RecordCorrection blends a user correction into the factor for key. The
// blend halves the distance to the observed ratio each time, so repeated
// identical corrections converge without overshooting.
func (l *Learner) RecordCorrection(key string, estimatedMinutes, confirmedMinutes int) error {
	if estimatedMinutes <= 0 {
		return fmt.Errorf("estimated minutes must be positive, got %d", estimatedMinutes)
	}
	if confirmedMinutes <= 0 {
		return fmt.Errorf("confirmed minutes must be positive, got %d", confirmedMinutes)
	}

	ratio := float64(confirmedMinutes) / float64(estimatedMinutes)

	l.mu.Lock()
	defer l.mu.Unlock()
	old, ok := l.factors[key]
	if !ok {
		old = 1.0
	}
	updated := (old + ratio) / 2
	l.factors[key] = updated

	l.logger.Debug().
		Str("key", key).
		Float64("ratio", ratio).
		Float64("factor", updated).
		Msg("correction recorded")
	return nil
}
