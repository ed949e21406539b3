package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/spec-kit/membership-service/pkg/util"
)

type localGate struct {
	limiters map[string]*rate.Limiter
}

// NewLocalGate builds an in-process token-bucket gate: each operation gets a
// bucket of Permits tokens refilled evenly over Period.
func NewLocalGate(budgets map[string]Budget) Gate {
	limiters := make(map[string]*rate.Limiter, len(budgets))
	for op, b := range budgets {
		if b.Permits <= 0 || b.Period <= 0 {
			continue
		}
		limiters[op] = rate.NewLimiter(rate.Every(b.Period/time.Duration(b.Permits)), b.Permits)
	}
	return &localGate{limiters: limiters}
}

func (g *localGate) Allow(_ context.Context, operation string) error {
	limiter, ok := g.limiters[operation]
	if !ok {
		return nil
	}
	if !limiter.Allow() {
		return util.NewAdmissionRejected(operation)
	}
	return nil
}
