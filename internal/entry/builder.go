package entry

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clearhours/trackd/internal/activity"
	"github.com/clearhours/trackd/internal/classify"
	"github.com/clearhours/trackd/internal/estimate"
)

// Minimum minutes before an entry of a given kind counts as billable.
const (
	minBillableMessage  = 2
	minBillableCalendar = 15
	minBillableDocument = 5
)

const longEntryMinutes = 60

// BuilderConfig tunes candidate assembly.
type BuilderConfig struct {
	// BillableConfidence is the confidence floor for the billable flag.
	BillableConfidence float64
}

// DefaultBuilderConfig returns the builder defaults.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{BillableConfidence: 0.7}
}

// Builder assembles candidates from classifier and estimator output. Output
// is deterministic for identical inputs.
type Builder struct {
	cfg    BuilderConfig
	logger zerolog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(cfg BuilderConfig, logger zerolog.Logger) *Builder {
	if cfg.BillableConfidence <= 0 {
		cfg.BillableConfidence = DefaultBuilderConfig().BillableConfidence
	}
	return &Builder{
		cfg:    cfg,
		logger: logger.With().Str("component", "builder").Logger(),
	}
}

// Build combines an activity with its estimate and classification.
func (b *Builder) Build(a activity.Activity, est estimate.TimeEstimate, cl classify.Classification) Candidate {
	c := Candidate{
		ActivityID:     a.ID,
		Kind:           a.Kind,
		Title:          a.Title,
		StartedAt:      a.Timestamp,
		Classification: cl,
		Estimate:       est,
		CorrectionKeys: estimate.CorrectionKeys(a),
	}

	c.Billable = est.Confidence > b.cfg.BillableConfidence &&
		cl.Category != classify.CategoryInternal &&
		est.Minutes >= minBillable(a.Kind)

	c.Description = Describe(a.Kind, a.Title, est)
	c.Tags = tags(a, est)

	return c
}

// Describe renders the generated entry description. Kept separate so approval
// flows can re-render after a correction.
func Describe(kind activity.Kind, title string, est estimate.TimeEstimate) string {
	pct := int(math.Round(est.Confidence * 100))
	return fmt.Sprintf("%s: %s (%d min, %d%% confidence)", kindLabel(kind), title, est.Minutes, pct)
}

// Retag rebuilds the estimate-derived tags (the estimate:<source> marker and
// the long-duration marker) after a correction replaced the estimate. Tags
// unrelated to the estimate are kept in place.
func Retag(tags []string, est estimate.TimeEstimate) []string {
	out := make([]string, 0, len(tags)+1)
	for _, t := range tags {
		switch {
		case strings.HasPrefix(t, "estimate:"):
			out = append(out, "estimate:"+string(est.Source))
			if est.Minutes >= longEntryMinutes {
				out = append(out, "long")
			}
		case t == "long":
			// Re-derived above from the corrected duration.
		default:
			out = append(out, t)
		}
	}
	return out
}

func tags(a activity.Activity, est estimate.TimeEstimate) []string {
	t := []string{string(a.Kind), "estimate:" + string(est.Source)}
	if est.Minutes >= longEntryMinutes {
		t = append(t, "long")
	}
	if len(a.Participants) > 2 || a.Signals.ThreadDepth > 2 {
		t = append(t, "multi-party")
	}
	return t
}

func minBillable(k activity.Kind) int {
	switch k {
	case activity.KindCalendarEvent:
		return minBillableCalendar
	case activity.KindDocumentEdit:
		return minBillableDocument
	}
	return minBillableMessage
}

func kindLabel(k activity.Kind) string {
	switch k {
	case activity.KindMessage:
		return "Email"
	case activity.KindCalendarEvent:
		return "Meeting"
	case activity.KindDocumentEdit:
		return "Document"
	}
	return "Activity"
}
