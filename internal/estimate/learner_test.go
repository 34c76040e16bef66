package estimate

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhours/trackd/internal/activity"
)

func TestLearner_DefaultAdjustmentIsOne(t *testing.T) {
	l := NewLearner(zerolog.Nop())
	assert.Equal(t, 1.0, l.AdjustmentFor(DomainKey("never-seen.example")))
	assert.Equal(t, 1.0, l.AdjustmentFor())
}

func TestLearner_SingleCorrection(t *testing.T) {
	l := NewLearner(zerolog.Nop())

	// 5 minutes confirmed as 10: ratio 2.0 blended with seed 1.0 gives 1.5.
	require.NoError(t, l.RecordCorrection(DomainKey("acme.com"), 5, 10))
	assert.InDelta(t, 1.5, l.AdjustmentFor(DomainKey("acme.com")), 0.001)
}

func TestLearner_ConvergesWithoutOvershoot(t *testing.T) {
	l := NewLearner(zerolog.Nop())
	key := DomainKey("acme.com")

	prev := l.AdjustmentFor(key)
	for i := 0; i < 10; i++ {
		require.NoError(t, l.RecordCorrection(key, 10, 20)) // ratio 2.0
		cur := l.AdjustmentFor(key)
		assert.Greater(t, cur, prev)
		assert.LessOrEqual(t, cur, 2.0)
		prev = cur
	}
	assert.InDelta(t, 2.0, prev, 0.01)
}

func TestLearner_ConvergesDownward(t *testing.T) {
	l := NewLearner(zerolog.Nop())
	key := LengthKey(100)

	prev := l.AdjustmentFor(key)
	for i := 0; i < 10; i++ {
		require.NoError(t, l.RecordCorrection(key, 10, 5)) // ratio 0.5
		cur := l.AdjustmentFor(key)
		assert.Less(t, cur, prev)
		assert.GreaterOrEqual(t, cur, 0.5)
		prev = cur
	}
	assert.InDelta(t, 0.5, prev, 0.01)
}

func TestLearner_RejectsNonPositiveMinutes(t *testing.T) {
	l := NewLearner(zerolog.Nop())
	assert.Error(t, l.RecordCorrection("domain:x", 0, 10))
	assert.Error(t, l.RecordCorrection("domain:x", -5, 10))
	assert.Error(t, l.RecordCorrection("domain:x", 5, 0))
	assert.Equal(t, 1.0, l.AdjustmentFor("domain:x"))
}

func TestLearner_MultipleKeysApplyMultiplicatively(t *testing.T) {
	l := NewLearner(zerolog.Nop())
	require.NoError(t, l.RecordCorrection(DomainKey("acme.com"), 10, 20)) // 1.5
	require.NoError(t, l.RecordCorrection(LengthKey(100), 10, 20))        // 1.5

	adj := l.AdjustmentFor(DomainKey("acme.com"), LengthKey(100))
	assert.InDelta(t, 2.25, adj, 0.001)
}

func TestLearner_SnapshotRoundTrip(t *testing.T) {
	l := NewLearner(zerolog.Nop())
	require.NoError(t, l.RecordCorrection(DomainKey("acme.com"), 5, 10))

	snap := l.Snapshot()
	restored := NewLearner(zerolog.Nop())
	restored.LoadFrom(snap)

	assert.InDelta(t, 1.5, restored.AdjustmentFor(DomainKey("acme.com")), 0.001)

	// Snapshot is a copy, not a live view.
	snap[DomainKey("acme.com")] = 99
	assert.InDelta(t, 1.5, l.AdjustmentFor(DomainKey("acme.com")), 0.001)
}

func TestCorrectionKeys(t *testing.T) {
	a := activity.Activity{
		Kind:    activity.KindMessage,
		Sender:  "buyer@acme.com",
		Signals: activity.Signals{ContentLength: 700},
	}
	assert.Equal(t, []string{"domain:acme.com", "length:medium"}, CorrectionKeys(a))

	noSignals := activity.Activity{Kind: activity.KindMessage, Sender: "no-domain"}
	assert.Empty(t, CorrectionKeys(noSignals))
}

func TestLengthKeyBuckets(t *testing.T) {
	assert.Equal(t, "length:short", LengthKey(100))
	assert.Equal(t, "length:medium", LengthKey(500))
	assert.Equal(t, "length:long", LengthKey(2000))
}
