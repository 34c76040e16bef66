// Package gate decides whether a candidate time entry is committed outright
// or parked for human review.
//
// Per-candidate state machine: Created -> {Committed | Pending};
// Pending -> {Committed (approval) | Discarded (rejection)}. Committed and
// Discarded are terminal.
package gate

import (
	"fmt"

	"github.com/clearhours/trackd/internal/entry"
)

// Decision is the gate outcome for one candidate.
type Decision string

const (
	// DecisionCommit means the candidate becomes a committed entry directly.
	DecisionCommit Decision = "commit"

	// DecisionDefer means the candidate joins the pending-approval queue.
	DecisionDefer Decision = "defer"
)

// Policy controls auto-approval behaviour.
type Policy struct {
	AutoApprove         bool    `json:"auto_approve"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	RequireApproval     bool    `json:"require_approval"`
}

// DefaultPolicy returns a conservative policy: everything pends.
func DefaultPolicy() Policy {
	return Policy{
		AutoApprove:         false,
		ConfidenceThreshold: 0.8,
		RequireApproval:     false,
	}
}

// Validate rejects out-of-range policy values. Invalid values are errors,
// never silently clamped.
func (p Policy) Validate() error {
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0,1], got %v", p.ConfidenceThreshold)
	}
	return nil
}

// Patch is a partial policy update; nil fields keep their current value.
type Patch struct {
	AutoApprove         *bool    `json:"auto_approve,omitempty"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	RequireApproval     *bool    `json:"require_approval,omitempty"`
}

// Apply returns p with the patch applied. The result is validated; an invalid
// patch leaves p unchanged.
func (p Policy) Apply(patch Patch) (Policy, error) {
	next := p
	if patch.AutoApprove != nil {
		next.AutoApprove = *patch.AutoApprove
	}
	if patch.ConfidenceThreshold != nil {
		next.ConfidenceThreshold = *patch.ConfidenceThreshold
	}
	if patch.RequireApproval != nil {
		next.RequireApproval = *patch.RequireApproval
	}
	if err := next.Validate(); err != nil {
		return p, err
	}
	return next, nil
}

// Decide evaluates the candidate against the policy. Auto-commit happens only
// when approval is not forced, auto-approve is on, and confidence clears the
// threshold; everything else defers.
func Decide(c entry.Candidate, p Policy) Decision {
	if p.RequireApproval {
		return DecisionDefer
	}
	if p.AutoApprove && c.Estimate.Confidence >= p.ConfidenceThreshold {
		return DecisionCommit
	}
	return DecisionDefer
}
