package session

import (
	"encoding/json"
	"errors"
	"maps"
	"time"

	"github.com/smallbiznis/cuadra/internal/erp"
)

var (
	ErrNotFound = errors.New("session_not_found")
	ErrExpired  = errors.New("session_expired")
)

// Session is an authenticated portal visit and the reports it has computed.
type Session struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Capabilities *erp.Capabilities `json:"capabilities,omitempty"`
	Results      map[string]Entry  `json:"results,omitempty"`
}

// Entry is one cached report keyed by the filter signature that produced it.
type Entry struct {
	Signature string          `json:"signature"`
	Payload   json.RawMessage `json:"payload"`
	StoredAt  time.Time       `json:"stored_at"`
}

// Decode unmarshals the cached payload into out.
func (e Entry) Decode(out any) error {
	return json.Unmarshal(e.Payload, out)
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s Session) clone() Session {
	out := s
	if s.Capabilities != nil {
		caps := *s.Capabilities
		out.Capabilities = &caps
	}
	if s.Results != nil {
		out.Results = maps.Clone(s.Results)
	}
	return out
}

// State of a cached result relative to the filter a client now shows.
type State string

const (
	// StateIdle means nothing was computed for the page yet.
	StateIdle State = "idle"
	// StateReady means the cached result matches the current filter.
	StateReady State = "ready"
	// StateStale means the filter changed since the last computation; the
	// client must trigger a new run explicitly.
	StateStale State = "stale"
)

type Lookup struct {
	State State
	Entry Entry
}
