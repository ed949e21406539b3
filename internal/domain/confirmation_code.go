package domain

import "time"

// CodeLength is the fixed width of a confirmation code.
const CodeLength = 6

// ConfirmationCode is the single-use, time-boxed proof of email ownership.
// It references its member by identity only; at most one active code exists
// per member, maintained by replacement on reissue.
type ConfirmationCode struct {
	ID        string
	MemberID  string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the code's validity window has passed.
func (c *ConfirmationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
