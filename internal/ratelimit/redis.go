package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/pkg/util"
)

type redisGate struct {
	client  *redis.Client
	budgets map[string]Budget
	logger  *zap.Logger
	prefix  string
}

// NewRedisGate builds a fixed-window gate shared across service instances:
// one counter key per (operation, window), INCR on every attempt, expiry set
// on the first hit. Redis outages fail open so admission control never takes
// the service down with it.
func NewRedisGate(client *redis.Client, budgets map[string]Budget, logger *zap.Logger) Gate {
	return &redisGate{
		client:  client,
		budgets: budgets,
		logger:  logger,
		prefix:  "ratelimit",
	}
}

func (g *redisGate) Allow(ctx context.Context, operation string) error {
	budget, ok := g.budgets[operation]
	if !ok || budget.Permits <= 0 || budget.Period <= 0 {
		return nil
	}

	window := time.Now().UnixNano() / int64(budget.Period)
	key := fmt.Sprintf("%s:%s:%d", g.prefix, operation, window)

	count, err := g.client.Incr(ctx, key).Result()
	if err != nil {
		g.logger.Warn("rate limit counter unavailable; admitting request",
			zap.String("operation", operation), zap.Error(err))
		return nil
	}
	if count == 1 {
		if err := g.client.Expire(ctx, key, budget.Period).Err(); err != nil {
			g.logger.Warn("rate limit expiry not set", zap.String("key", key), zap.Error(err))
		}
	}

	if count > int64(budget.Permits) {
		return util.NewAdmissionRejected(operation)
	}
	return nil
}
