// Package estimate converts raw activities into (duration, confidence) pairs.
// Calendar events with explicit start/end are measured from wall clock; every
// other activity goes through rule-based heuristics blended with the learned
// correction profile.
package estimate

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/clearhours/trackd/internal/activity"
)

// Source indicates how a TimeEstimate was produced.
type Source string

const (
	// SourceHeuristic means the duration was inferred from content signals.
	SourceHeuristic Source = "heuristic"

	// SourceMeasured means the duration came from explicit start/end times.
	SourceMeasured Source = "measured"

	// SourceConfirmed means a user supplied or confirmed the duration.
	SourceConfirmed Source = "confirmed"
)

// TimeEstimate is an immutable estimate for one activity. Corrections produce
// a new TimeEstimate, never an edit.
type TimeEstimate struct {
	Minutes    int     `json:"minutes"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// Heuristic constants. Confidence starts at the baseline and gains a boost
// per corroborating signal, capped below certainty.
const (
	confidenceBaseline = 0.60
	confidenceCap      = 0.95

	lengthBoost     = 0.20
	threadBoost     = 0.05
	attachmentBoost = 0.05
	domainBoost     = 0.05

	baseMessageMinutes  = 2.0
	baseCalendarMinutes = 15.0
	baseDocumentMinutes = 5.0

	compositionShare = 0.5 // reply-writing time relative to reading time

	participantPenaltyMinutes = 1.0
	participantPenaltyCap     = 5.0

	attachmentBonusMinutes = 3.0

	clientDomainMultiplier   = 1.2
	internalDomainMultiplier = 0.8
)

// Config controls domain scaling and reading speed.
type Config struct {
	// ReadingCharsPerMinute converts content length into reading minutes.
	ReadingCharsPerMinute float64

	// ClientDomains scale estimates up (known billable counterparties).
	ClientDomains []string

	// InternalDomain scales estimates down (the tenant's own domain).
	InternalDomain string
}

// DefaultConfig returns the estimator defaults.
func DefaultConfig() Config {
	return Config{ReadingCharsPerMinute: 1000}
}

// Estimator derives TimeEstimates from activities. It is pure with respect to
// its inputs apart from reading the current correction profile.
type Estimator struct {
	cfg     Config
	learner *Learner
	logger  zerolog.Logger
}

// New creates an Estimator. learner may be nil, in which case no learned
// adjustment is applied.
func New(cfg Config, learner *Learner, logger zerolog.Logger) *Estimator {
	if cfg.ReadingCharsPerMinute <= 0 {
		cfg.ReadingCharsPerMinute = DefaultConfig().ReadingCharsPerMinute
	}
	return &Estimator{
		cfg:     cfg,
		learner: learner,
		logger:  logger.With().Str("component", "estimator").Logger(),
	}
}

// Estimate returns a TimeEstimate for the given activity.
func (e *Estimator) Estimate(a activity.Activity) TimeEstimate {
	// Explicit start/end wins outright: wall-clock duration, full confidence,
	// no heuristics and no learned adjustment.
	if a.Kind == activity.KindCalendarEvent {
		if elapsed, ok := a.Elapsed(); ok {
			return TimeEstimate{
				Minutes:    atLeastOne(math.Round(elapsed.Minutes())),
				Confidence: 1.0,
				Source:     SourceMeasured,
			}
		}
	}

	minutes := baseMinutes(a.Kind)
	confidence := confidenceBaseline

	if a.Signals.ContentLength > 0 {
		reading := float64(a.Signals.ContentLength) / e.cfg.ReadingCharsPerMinute
		minutes += reading
		if a.Kind == activity.KindMessage {
			minutes += reading * compositionShare
		}
		confidence += lengthBoost
	}

	if n := partyCount(a); n > 1 {
		penalty := float64(n-1) * participantPenaltyMinutes
		if penalty > participantPenaltyCap {
			penalty = participantPenaltyCap
		}
		minutes += penalty
		confidence += threadBoost
	}

	if a.Signals.HasAttachment {
		minutes += attachmentBonusMinutes
		confidence += attachmentBoost
	}

	switch domain := a.SenderDomain(); {
	case domain != "" && contains(e.cfg.ClientDomains, domain):
		minutes *= clientDomainMultiplier
		confidence += domainBoost
	case domain != "" && domain == e.cfg.InternalDomain:
		minutes *= internalDomainMultiplier
		confidence += domainBoost
	}

	if e.learner != nil {
		minutes *= e.learner.AdjustmentFor(CorrectionKeys(a)...)
	}

	lo, hi := clampRange(a.Kind)
	minutes = math.Min(math.Max(minutes, lo), hi)
	if confidence > confidenceCap {
		confidence = confidenceCap
	}

	return TimeEstimate{
		Minutes:    atLeastOne(math.Round(minutes)),
		Confidence: confidence,
		Source:     SourceHeuristic,
	}
}

func baseMinutes(k activity.Kind) float64 {
	switch k {
	case activity.KindMessage:
		return baseMessageMinutes
	case activity.KindCalendarEvent:
		return baseCalendarMinutes
	case activity.KindDocumentEdit:
		return baseDocumentMinutes
	}
	return baseMessageMinutes
}

func clampRange(k activity.Kind) (float64, float64) {
	switch k {
	case activity.KindMessage:
		return 1, 60
	case activity.KindCalendarEvent:
		return 5, 480
	case activity.KindDocumentEdit:
		return 1, 120
	}
	return 1, 60
}

func partyCount(a activity.Activity) int {
	n := a.Signals.ThreadDepth
	if len(a.Participants) > n {
		n = len(a.Participants)
	}
	return n
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
