package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/events"
)

// NotificationService logs an audit trail for membership lifecycle events.
// Confirmation code delivery itself happens synchronously in the
// orchestrator; these handlers only observe.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventMemberRegistered, n.handleMemberRegistered)
	n.dispatcher.Subscribe(events.EventCodeIssued, n.handleCodeIssued)
	n.dispatcher.Subscribe(events.EventMemberConfirmed, n.handleMemberConfirmed)
	n.dispatcher.Subscribe(events.EventMemberActivated, n.handleMemberActivated)
	n.dispatcher.Subscribe(events.EventCodesSwept, n.handleCodesSwept)
}

func (n *NotificationService) handleMemberRegistered(_ context.Context, event events.Event) error {
	n.logger.Info("MemberRegistered", zap.String("member_id", event.MemberID))
	return nil
}

func (n *NotificationService) handleCodeIssued(_ context.Context, event events.Event) error {
	n.logger.Info("CodeIssued", zap.String("member_id", event.MemberID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleMemberConfirmed(_ context.Context, event events.Event) error {
	n.logger.Info("MemberConfirmed", zap.String("member_id", event.MemberID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleMemberActivated(_ context.Context, event events.Event) error {
	n.logger.Info("MemberActivated", zap.String("member_id", event.MemberID))
	return nil
}

func (n *NotificationService) handleCodesSwept(_ context.Context, event events.Event) error {
	n.logger.Info("CodesSwept", zap.Any("payload", event.Payload))
	return nil
}
