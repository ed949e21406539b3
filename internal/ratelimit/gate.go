// Package ratelimit bounds the rate of externally triggerable, state-mutating
// operations. Budgets are shared across callers per operation. The gate never
// blocks waiting for a permit; it fails fast so clients can back off.
package ratelimit

import (
	"context"
	"time"

	"github.com/spec-kit/membership-service/internal/config"
)

// Guarded operation names.
const (
	OpRegister = "register"
	OpConfirm  = "confirm"
	OpResend   = "resend"
)

// Budget is N permits per period.
type Budget struct {
	Permits int
	Period  time.Duration
}

// Gate admits or rejects an attempt at a guarded operation. A rejection is
// reported as a RATE_LIMITED domain error; operations without a configured
// budget are always admitted.
type Gate interface {
	Allow(ctx context.Context, operation string) error
}

// BudgetsFromConfig maps the configured per-operation budgets.
func BudgetsFromConfig(cfg config.RateLimitConfig) map[string]Budget {
	return map[string]Budget{
		OpRegister: {Permits: cfg.RegisterPermits, Period: time.Duration(cfg.RegisterPeriodSeconds) * time.Second},
		OpConfirm:  {Permits: cfg.ConfirmPermits, Period: time.Duration(cfg.ConfirmPeriodSeconds) * time.Second},
		OpResend:   {Permits: cfg.ResendPermits, Period: time.Duration(cfg.ResendPeriodSeconds) * time.Second},
	}
}
