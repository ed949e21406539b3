package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartCodeSweeper runs the expired-code sweep on a fixed interval until the
// context is cancelled.
func StartCodeSweeper(ctx context.Context, confirmation *service.ConfirmationService, interval time.Duration, logger *zap.Logger) {
	if confirmation == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := confirmation.SweepExpiredCodes(ctx); err != nil {
					logger.Warn("expired code sweep failed", zap.Error(err))
				}
			}
		}
	}()
}
