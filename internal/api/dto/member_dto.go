package dto

import (
	"time"

	"github.com/spec-kit/membership-service/internal/domain"
)

// MemberRegisterRequest payload for new members.
type MemberRegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Role      string `json:"role"`
}

// MemberUpdateRequest payload for profile edits; absent fields are untouched.
type MemberUpdateRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Address   *string `json:"address"`
	Role      *string `json:"role"`
}

// MemberResponse is the directory view of a member.
type MemberResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Address     string     `json:"address"`
	Role        string     `json:"role"`
	State       string     `json:"state"`
	Confirmed   bool       `json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	PasswordSet bool       `json:"password_set"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewMemberResponse maps a domain member to its API shape. The password hash
// never leaves the service.
func NewMemberResponse(m *domain.Member) MemberResponse {
	return MemberResponse{
		ID:          m.ID,
		Email:       m.Email,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Address:     m.Address,
		Role:        string(m.Role),
		State:       string(m.State()),
		Confirmed:   m.Confirmed,
		ConfirmedAt: m.ConfirmedAt,
		PasswordSet: m.PasswordSet,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
