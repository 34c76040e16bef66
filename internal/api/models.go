package api

import (
	"github.com/clearhours/trackd/internal/engine"
	"github.com/clearhours/trackd/internal/entry"
)

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// PendingListResponse is the body of GET /api/v1/pending.
type PendingListResponse struct {
	Entries []entry.Pending `json:"entries"`
	Total   int             `json:"total"`
}

// ApproveRequest is the body of POST /api/v1/pending/:id/approve.
type ApproveRequest struct {
	// ConfirmedMinutes, when set, replaces the estimate and feeds the
	// correction learner. Must be positive.
	ConfirmedMinutes *int `json:"confirmed_minutes,omitempty"`
}

// CommittedResponse wraps a committed entry.
type CommittedResponse struct {
	Entry entry.Committed `json:"entry"`
}

// SyncResponse is the body of POST /api/v1/sync.
type SyncResponse struct {
	Result engine.SyncResult `json:"result"`
}

// AutoSyncResponse reports the auto-sync loop state after start/stop.
type AutoSyncResponse struct {
	Active bool `json:"active"`
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	engine.Status
	Version string `json:"version"`
}
