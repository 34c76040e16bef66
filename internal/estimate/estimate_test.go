package estimate

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhours/trackd/internal/activity"
)

func newEstimator(t *testing.T, cfg Config, learner *Learner) *Estimator {
	t.Helper()
	return New(cfg, learner, zerolog.Nop())
}

func messageActivity(contentLength int) activity.Activity {
	return activity.Activity{
		ID:        "gmail:msg-1",
		Kind:      activity.KindMessage,
		Title:     "Re: project update",
		Sender:    "someone@unknown.example",
		Timestamp: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Signals:   activity.Signals{ContentLength: contentLength, ThreadDepth: 1},
	}
}

func TestEstimate_MessageLengthOnly(t *testing.T) {
	e := newEstimator(t, DefaultConfig(), nil)

	// ~300 words of content, standalone thread, unknown sender domain.
	est := e.Estimate(messageActivity(1800))

	assert.Equal(t, SourceHeuristic, est.Source)
	assert.GreaterOrEqual(t, est.Minutes, 2)
	assert.LessOrEqual(t, est.Minutes, 5)
	assert.InDelta(t, 0.80, est.Confidence, 0.001)
}

func TestEstimate_CalendarEventMeasured(t *testing.T) {
	e := newEstimator(t, DefaultConfig(), nil)

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	est := e.Estimate(activity.Activity{
		ID:           "cal:evt-1",
		Kind:         activity.KindCalendarEvent,
		Title:        "Design review",
		Sender:       "host@ourco.example",
		Participants: []string{"host@ourco.example", "guest@acme.com"},
		Timestamp:    start,
		EndTime:      &end,
	})

	assert.Equal(t, 30, est.Minutes)
	assert.Equal(t, 1.0, est.Confidence)
	assert.Equal(t, SourceMeasured, est.Source)
}

func TestEstimate_CalendarEventWithoutEndFallsBackToHeuristic(t *testing.T) {
	e := newEstimator(t, DefaultConfig(), nil)

	est := e.Estimate(activity.Activity{
		ID:        "cal:evt-2",
		Kind:      activity.KindCalendarEvent,
		Title:     "Ad-hoc call",
		Sender:    "host@ourco.example",
		Timestamp: time.Now(),
	})

	assert.Equal(t, SourceHeuristic, est.Source)
	assert.Less(t, est.Confidence, 1.0)
	assert.GreaterOrEqual(t, est.Minutes, 5)
}

func TestEstimate_ConfidenceMonotonicity(t *testing.T) {
	e := newEstimator(t, DefaultConfig(), nil)

	bare := e.Estimate(messageActivity(0))
	withLength := e.Estimate(messageActivity(1800))

	threaded := messageActivity(1800)
	threaded.Signals.ThreadDepth = 4
	withThread := e.Estimate(threaded)

	full := threaded
	full.Signals.HasAttachment = true
	withAttachment := e.Estimate(full)

	assert.GreaterOrEqual(t, withLength.Confidence, bare.Confidence)
	assert.GreaterOrEqual(t, withThread.Confidence, withLength.Confidence)
	assert.GreaterOrEqual(t, withAttachment.Confidence, withThread.Confidence)
	assert.LessOrEqual(t, withAttachment.Confidence, 0.95)
}

func TestEstimate_ConfidenceNeverExceedsCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClientDomains = []string{"acme.com"}
	e := newEstimator(t, cfg, nil)

	a := messageActivity(5000)
	a.Sender = "buyer@acme.com"
	a.Signals.ThreadDepth = 10
	a.Signals.HasAttachment = true

	est := e.Estimate(a)
	assert.LessOrEqual(t, est.Confidence, 0.95)
}

func TestEstimate_ClientDomainScalesUp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClientDomains = []string{"acme.com"}
	e := newEstimator(t, cfg, nil)

	base := messageActivity(2000)
	client := messageActivity(2000)
	client.Sender = "buyer@acme.com"

	assert.Greater(t, e.Estimate(client).Minutes, e.Estimate(base).Minutes)
}

func TestEstimate_InternalDomainScalesDown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InternalDomain = "ourco.example"
	e := newEstimator(t, cfg, nil)

	base := messageActivity(4000)
	internal := messageActivity(4000)
	internal.Sender = "teammate@ourco.example"

	assert.Less(t, e.Estimate(internal).Minutes, e.Estimate(base).Minutes)
}

func TestEstimate_ParticipantPenaltyIsBounded(t *testing.T) {
	e := newEstimator(t, DefaultConfig(), nil)

	small := messageActivity(0)
	small.Signals.ThreadDepth = 2

	huge := messageActivity(0)
	huge.Signals.ThreadDepth = 200

	capped := messageActivity(0)
	capped.Signals.ThreadDepth = 6 // penalty cap reached

	assert.Equal(t, e.Estimate(capped).Minutes, e.Estimate(huge).Minutes)
	assert.Greater(t, e.Estimate(huge).Minutes, e.Estimate(small).Minutes)
}

func TestEstimate_ClampsToRange(t *testing.T) {
	e := newEstimator(t, DefaultConfig(), nil)

	a := messageActivity(500000)
	a.Signals.HasAttachment = true
	a.Signals.ThreadDepth = 50

	est := e.Estimate(a)
	assert.LessOrEqual(t, est.Minutes, 60)
	assert.GreaterOrEqual(t, est.Minutes, 1)
}

func TestEstimate_AppliesLearnedAdjustment(t *testing.T) {
	learner := NewLearner(zerolog.Nop())
	require.NoError(t, learner.RecordCorrection(DomainKey("acme.com"), 5, 10))

	e := newEstimator(t, DefaultConfig(), learner)

	plain := messageActivity(2000)
	corrected := messageActivity(2000)
	corrected.Sender = "buyer@acme.com"

	base := e.Estimate(plain).Minutes
	adjusted := e.Estimate(corrected).Minutes

	// Factor after one 2x correction is 1.5; the length-bucket key is
	// untouched so only the domain factor applies.
	assert.InDelta(t, float64(base)*1.5, float64(adjusted), 1.5)
	assert.Greater(t, adjusted, base)
}

func TestEstimate_DocumentEdit(t *testing.T) {
	e := newEstimator(t, DefaultConfig(), nil)

	est := e.Estimate(activity.Activity{
		ID:        "drive:doc-1",
		Kind:      activity.KindDocumentEdit,
		Title:     "Q3 proposal",
		Sender:    "me@ourco.example",
		Timestamp: time.Now(),
		Signals:   activity.Signals{ContentLength: 3000},
	})

	assert.Equal(t, SourceHeuristic, est.Source)
	assert.GreaterOrEqual(t, est.Minutes, 5)
	assert.LessOrEqual(t, est.Minutes, 120)
}
