package dto

// ConfirmRequest payload for submitting a confirmation code.
type ConfirmRequest struct {
	Code string `json:"code"`
}

// ConfirmResponse payload returned on successful confirmation or activation
// token request.
type ConfirmResponse struct {
	Message          string `json:"message"`
	TemporaryToken   string `json:"temporary_token"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// SetPasswordRequest exchanges a temporary token for an initial password.
type SetPasswordRequest struct {
	TemporaryToken string `json:"temporary_token"`
	NewPassword    string `json:"new_password"`
}

// SweepResponse reports the outcome of an expired-code sweep.
type SweepResponse struct {
	Deleted int64 `json:"deleted"`
}
