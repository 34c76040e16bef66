// Package activity defines the work-activity event model the engine ingests.
// An Activity is a single external-platform event (email, meeting, document
// edit) with a stable per-source identifier; the engine never mutates one
// after ingestion.
package activity

import (
	"context"
	"strings"
	"time"
)

// Kind is the closed set of activity variants.
type Kind string

const (
	KindMessage       Kind = "message"
	KindCalendarEvent Kind = "calendar_event"
	KindDocumentEdit  Kind = "document_edit"
)

// Kinds lists all activity kinds in a fixed order.
func Kinds() []Kind {
	return []Kind{KindMessage, KindCalendarEvent, KindDocumentEdit}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMessage, KindCalendarEvent, KindDocumentEdit:
		return true
	}
	return false
}

// Signals carries the optional size/complexity hints a source may attach.
type Signals struct {
	// ContentLength is the body length in characters (0 = unknown).
	ContentLength int `json:"content_length,omitempty"`

	// ThreadDepth is the number of messages in the thread (0 or 1 = standalone).
	ThreadDepth int `json:"thread_depth,omitempty"`

	// HasAttachment is set when the activity carries attachments.
	HasAttachment bool `json:"has_attachment,omitempty"`
}

// Activity is one external-origin event considered for time tracking.
type Activity struct {
	// ID is the stable source identifier, unique per source+item
	// (e.g. "gmail:18c2f9a"). Dedup keys off this value.
	ID string `json:"id"`

	Kind  Kind   `json:"kind"`
	Title string `json:"title"`

	// Sender identifies the originating party (e.g. sender address).
	Sender string `json:"sender"`

	// Participants are the other party identifiers (addresses, attendees).
	Participants []string `json:"participants,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	// EndTime is set for activities with an explicit end (calendar events).
	EndTime *time.Time `json:"end_time,omitempty"`

	Signals Signals `json:"signals"`
}

// SenderDomain returns the domain part of the sender identifier, lowercased,
// or "" if the sender has no domain.
func (a Activity) SenderDomain() string {
	return DomainOf(a.Sender)
}

// Elapsed returns the wall-clock duration between Timestamp and EndTime,
// and false when no explicit end exists or the window is non-positive.
func (a Activity) Elapsed() (time.Duration, bool) {
	if a.EndTime == nil {
		return 0, false
	}
	d := a.EndTime.Sub(a.Timestamp)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// DomainOf extracts the lowercased domain from an address-like identifier.
func DomainOf(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(addr[at+1:])
}

// Source supplies raw activities from one external platform. Implementations
// live outside the engine (the platform connectors); the engine only requires
// stable IDs and timestamps on everything returned.
type Source interface {
	// Kind returns the kind of activity this source produces.
	Kind() Kind

	// Fetch returns activities observed at or after since. The bound is
	// inclusive; dedup downstream absorbs re-fetched items.
	Fetch(ctx context.Context, since time.Time) ([]Activity, error)
}
