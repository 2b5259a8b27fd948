package models

import "time"

// Entry methods.
const (
	EntryMethodApp    = "app"
	EntryMethodCamera = "camera"
)

// Session is one parking visit for a plate. A session is open from entry
// until it is paid on exit; exit fields are written together with Paid=true
// in a single update and never mutated again.
type Session struct {
	ID              string     `json:"id"`
	Plate           string     `json:"plate"`
	EntryTime       time.Time  `json:"entryTime"`
	ExitTime        *time.Time `json:"exitTime,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	Charge          *float64   `json:"charge,omitempty"`
	Paid            bool       `json:"paid"`
	Invalid         bool       `json:"invalid,omitempty"`
	EntryMethod     string     `json:"entryMethod,omitempty"`
	Confidence      float64    `json:"confidence,omitempty"`
	Image           string     `json:"image,omitempty"`
	ExitConfidence  float64    `json:"exitConfidence,omitempty"`
	ExitImage       string     `json:"exitImage,omitempty"`
}

// Open reports whether the session is still unpaid and counts toward the
// one-open-session-per-plate invariant. Invalidated duplicates do not.
func (s *Session) Open() bool {
	return !s.Paid && !s.Invalid
}

// Session event types published on the store channel.
const (
	SessionOpened      = "opened"
	SessionClosed      = "closed"
	SessionInvalidated = "invalidated"
)

// SessionEvent is a realtime notification about a session change.
type SessionEvent struct {
	Type    string  `json:"type"`
	Plate   string  `json:"plate"`
	Session Session `json:"session"`
}
