package events

import (
	"time"

	"github.com/spec-kit/membership-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMemberRegistered EventType = "member_registered"
	EventCodeIssued       EventType = "code_issued"
	EventMemberConfirmed  EventType = "member_confirmed"
	EventMemberActivated  EventType = "member_activated"
	EventCodesSwept       EventType = "codes_swept"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	MemberID  string      `json:"member_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MemberRegisteredPayload payload.
type MemberRegisteredPayload struct {
	Email string            `json:"email"`
	Role  domain.MemberRole `json:"role"`
}

// CodeIssuedPayload payload. The code value itself is never carried on the
// event bus.
type CodeIssuedPayload struct {
	Kind      string    `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MemberConfirmedPayload payload.
type MemberConfirmedPayload struct {
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// CodesSweptPayload payload.
type CodesSweptPayload struct {
	Deleted int64 `json:"deleted"`
}
