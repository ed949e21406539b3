package domain

import (
	"time"

	"github.com/spec-kit/membership-service/pkg/util"
)

// MemberRole enumerates directory roles.
type MemberRole string

const (
	RoleMember MemberRole = "MEMBER"
	RoleAdmin  MemberRole = "ADMIN"
)

// ValidRole reports whether the given role is a known one.
func ValidRole(role MemberRole) bool {
	return role == RoleMember || role == RoleAdmin
}

// AccountState is the derived lifecycle state of a member account. Only
// forward transitions exist: Unconfirmed -> Confirmed -> Activated.
type AccountState string

const (
	StateUnconfirmed AccountState = "UNCONFIRMED"
	StateConfirmed   AccountState = "CONFIRMED"
	StateActivated   AccountState = "ACTIVATED"
)

// Member is the aggregate root of account identity.
type Member struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Address      string
	Role         MemberRole
	Confirmed    bool
	ConfirmedAt  *time.Time
	PasswordSet  bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// State derives the account state from the confirmation and password flags.
func (m *Member) State() AccountState {
	switch {
	case m.PasswordSet:
		return StateActivated
	case m.Confirmed:
		return StateConfirmed
	default:
		return StateUnconfirmed
	}
}

// Confirm advances the member to the Confirmed state. Confirming twice is an
// error, never a no-op.
func (m *Member) Confirm(at time.Time) error {
	if m.Confirmed {
		return util.NewAlreadyConfirmed()
	}
	m.Confirmed = true
	m.ConfirmedAt = &at
	return nil
}

// ActivatePassword advances a confirmed member to the Activated state with
// the given password hash.
func (m *Member) ActivatePassword(hash string) error {
	if !m.Confirmed {
		return util.NewConflict("member not confirmed", nil)
	}
	if m.PasswordSet {
		return util.NewPasswordAlreadySet()
	}
	m.PasswordSet = true
	m.PasswordHash = hash
	return nil
}

// DisplayName renders the member's name for email salutations.
func (m *Member) DisplayName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}
