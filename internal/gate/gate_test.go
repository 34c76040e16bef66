package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhours/trackd/internal/entry"
	"github.com/clearhours/trackd/internal/estimate"
)

func candidateWithConfidence(conf float64) entry.Candidate {
	return entry.Candidate{
		ActivityID: "gmail:1",
		Estimate:   estimate.TimeEstimate{Minutes: 10, Confidence: conf, Source: estimate.SourceHeuristic},
	}
}

func TestDecide_AutoApproveOff(t *testing.T) {
	p := Policy{AutoApprove: false, ConfidenceThreshold: 0.8}

	// Without auto-approve everything defers, regardless of confidence.
	assert.Equal(t, DecisionDefer, Decide(candidateWithConfidence(0.1), p))
	assert.Equal(t, DecisionDefer, Decide(candidateWithConfidence(0.99), p))
	assert.Equal(t, DecisionDefer, Decide(candidateWithConfidence(1.0), p))
}

func TestDecide_AutoApproveWithThreshold(t *testing.T) {
	p := Policy{AutoApprove: true, ConfidenceThreshold: 0.8}

	assert.Equal(t, DecisionCommit, Decide(candidateWithConfidence(0.9), p))
	assert.Equal(t, DecisionCommit, Decide(candidateWithConfidence(0.8), p))
	assert.Equal(t, DecisionDefer, Decide(candidateWithConfidence(0.5), p))
}

func TestDecide_RequireApprovalOverridesAutoApprove(t *testing.T) {
	p := Policy{AutoApprove: true, ConfidenceThreshold: 0.5, RequireApproval: true}
	assert.Equal(t, DecisionDefer, Decide(candidateWithConfidence(1.0), p))
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, Policy{ConfidenceThreshold: 0}.Validate())
	assert.NoError(t, Policy{ConfidenceThreshold: 1}.Validate())
	assert.Error(t, Policy{ConfidenceThreshold: -0.1}.Validate())
	assert.Error(t, Policy{ConfidenceThreshold: 1.1}.Validate())
}

func TestPolicy_ApplyPatch(t *testing.T) {
	p := DefaultPolicy()

	auto := true
	threshold := 0.9
	next, err := p.Apply(Patch{AutoApprove: &auto, ConfidenceThreshold: &threshold})
	require.NoError(t, err)

	assert.True(t, next.AutoApprove)
	assert.Equal(t, 0.9, next.ConfidenceThreshold)
	assert.Equal(t, p.RequireApproval, next.RequireApproval)
}

func TestPolicy_ApplyInvalidPatchKeepsOriginal(t *testing.T) {
	p := DefaultPolicy()

	bad := 2.0
	next, err := p.Apply(Patch{ConfidenceThreshold: &bad})
	assert.Error(t, err)
	assert.Equal(t, p, next)
}

func TestPolicy_ApplyEmptyPatchIsNoOp(t *testing.T) {
	p := Policy{AutoApprove: true, ConfidenceThreshold: 0.75, RequireApproval: true}
	next, err := p.Apply(Patch{})
	require.NoError(t, err)
	assert.Equal(t, p, next)
}
