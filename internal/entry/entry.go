// Package entry defines time-entry records and the builder that assembles
// candidates from pipeline output.
package entry

import (
	"time"

	"github.com/clearhours/trackd/internal/activity"
	"github.com/clearhours/trackd/internal/classify"
	"github.com/clearhours/trackd/internal/estimate"
)

// Candidate is a fully assembled time entry awaiting the review gate.
type Candidate struct {
	ActivityID string        `json:"activity_id"`
	Kind       activity.Kind `json:"kind"`
	Title      string        `json:"title"`
	StartedAt  time.Time     `json:"started_at"`

	Classification classify.Classification `json:"classification"`
	Estimate       estimate.TimeEstimate   `json:"estimate"`

	Billable    bool     `json:"billable"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`

	// CorrectionKeys are the learner keys that applied when the estimate was
	// produced, kept so a later user correction updates the right factors.
	CorrectionKeys []string `json:"correction_keys,omitempty"`
}

// Pending is a candidate parked for human review.
type Pending struct {
	ID string `json:"id"`
	Candidate
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

// Committed is a finalized time entry. At most one committed or pending entry
// may ever exist per activity ID.
type Committed struct {
	ID string `json:"id"`
	Candidate
	CommittedAt time.Time `json:"committed_at"`
}
