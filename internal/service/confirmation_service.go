package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/auth"
	"github.com/spec-kit/membership-service/internal/codegen"
	"github.com/spec-kit/membership-service/internal/config"
	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/events"
	"github.com/spec-kit/membership-service/internal/mailer"
	"github.com/spec-kit/membership-service/internal/repository"
	"github.com/spec-kit/membership-service/pkg/util"
)

// CodeKind distinguishes the initial registration code from explicit resends.
// The two carry different TTLs: resends are assumed to be requested promptly.
type CodeKind string

const (
	CodeKindInitial CodeKind = "initial"
	CodeKindResend  CodeKind = "resend"
)

// ConfirmResult is returned after a successful confirmation or activation
// token request.
type ConfirmResult struct {
	Message          string
	TemporaryToken   string
	ExpiresInSeconds int
}

// ConfirmationService drives the member from unconfirmed to confirmed and
// mediates temporary credential issuance.
type ConfirmationService struct {
	members    repository.MemberRepository
	codes      repository.ConfirmationCodeRepository
	generator  codegen.Generator
	mailer     mailer.Mailer
	creds      auth.CredentialService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	initialTTL time.Duration
	resendTTL  time.Duration
	bcryptCost int
}

// ConfirmationDependencies encapsulates collaborator requirements.
type ConfirmationDependencies struct {
	MemberRepo  repository.MemberRepository
	CodeRepo    repository.ConfirmationCodeRepository
	Generator   codegen.Generator
	Mailer      mailer.Mailer
	Credentials auth.CredentialService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewConfirmationService builds the service.
func NewConfirmationService(cfg config.Config, deps ConfirmationDependencies) *ConfirmationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmationService{
		members:    deps.MemberRepo,
		codes:      deps.CodeRepo,
		generator:  deps.Generator,
		mailer:     deps.Mailer,
		creds:      deps.Credentials,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		initialTTL: cfg.Confirmation.InitialCodeTTL(),
		resendTTL:  cfg.Confirmation.ResendCodeTTL(),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// IssueCode replaces the member's active confirmation code with a fresh one
// and asks the notification gateway to deliver it. A delivery failure is
// surfaced to the caller but the code stays durably stored; retrying via the
// same operation replaces it again.
func (s *ConfirmationService) IssueCode(ctx context.Context, memberID string, kind CodeKind) (*domain.ConfirmationCode, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewNotFound("member")
		}
		return nil, err
	}
	if member.Confirmed {
		return nil, util.NewAlreadyConfirmed()
	}

	value, err := s.generator.Generate()
	if err != nil {
		return nil, err
	}

	ttl := s.initialTTL
	if kind == CodeKindResend {
		ttl = s.resendTTL
	}

	code := &domain.ConfirmationCode{
		MemberID:  member.ID,
		Code:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.codes.Replace(ctx, code); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventCodeIssued,
		MemberID: member.ID,
		Payload:  events.CodeIssuedPayload{Kind: string(kind), ExpiresAt: code.ExpiresAt},
	})

	if err := s.mailer.SendConfirmationCode(ctx, member.Email, code.Code, member.DisplayName()); err != nil {
		return code, util.NewNotificationFailure("confirmation code", err)
	}
	return code, nil
}

// Confirm validates a submitted code and advances the member to the
// Confirmed state. Validation order matters: a missing member beats an
// already-confirmed member, which beats any code problem; an unmatched
// (member, code) pair reads as invalid regardless of which member the code
// actually belongs to.
func (s *ConfirmationService) Confirm(ctx context.Context, memberID, submittedCode string) (*ConfirmResult, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewNotFound("member")
		}
		return nil, err
	}
	if member.Confirmed {
		return nil, util.NewAlreadyConfirmed()
	}

	code, err := s.codes.GetActive(ctx, member.ID, submittedCode)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewInvalidCode()
		}
		return nil, err
	}

	now := time.Now()
	if code.Expired(now) {
		return nil, util.NewExpiredCode()
	}

	// Member flip and code consumption commit as one unit; a concurrent
	// attempt with the same code loses here.
	if err := s.members.ConfirmMember(ctx, member.ID, code.ID, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyConfirmed):
			return nil, util.NewAlreadyConfirmed()
		case errors.Is(err, repository.ErrCodeConsumed):
			return nil, util.NewInvalidCode()
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventMemberConfirmed,
		MemberID: member.ID,
		Payload:  events.MemberConfirmedPayload{ConfirmedAt: now},
	})

	token, ttl, err := s.creds.IssueTemporaryToken(ctx, member.Email)
	if err != nil {
		// Confirmation stays committed; the member recovers through
		// RequestActivationToken.
		s.logger.Error("temporary token issuance failed after confirmation",
			zap.String("member_id", member.ID), zap.Error(err))
		return nil, util.NewTokenIssuanceFailure(err)
	}

	return &ConfirmResult{
		Message:          "account confirmed",
		TemporaryToken:   token,
		ExpiresInSeconds: int(ttl.Seconds()),
	}, nil
}

// RequestActivationToken issues a fresh temporary credential for a member who
// confirmed but has not set a password yet. This is the recovery path when
// token issuance failed during Confirm.
func (s *ConfirmationService) RequestActivationToken(ctx context.Context, memberID string) (*ConfirmResult, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewNotFound("member")
		}
		return nil, err
	}
	if !member.Confirmed {
		return nil, util.NewConflict("member not confirmed", nil)
	}
	if member.PasswordSet {
		return nil, util.NewPasswordAlreadySet()
	}

	token, ttl, err := s.creds.IssueTemporaryToken(ctx, member.Email)
	if err != nil {
		return nil, util.NewTokenIssuanceFailure(err)
	}

	return &ConfirmResult{
		Message:          "activation token issued",
		TemporaryToken:   token,
		ExpiresInSeconds: int(ttl.Seconds()),
	}, nil
}

// SetPassword exchanges a temporary token for an initial password, advancing
// the member to the Activated state. Setting a password twice is an error.
func (s *ConfirmationService) SetPassword(ctx context.Context, temporaryToken, newPassword string) error {
	email, err := s.creds.VerifyTemporaryToken(ctx, temporaryToken)
	if err != nil {
		return util.NewUnauthorized("invalid or expired temporary token")
	}

	member, err := s.members.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return util.NewNotFound("member")
		}
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	if err := member.ActivatePassword(hash); err != nil {
		return err
	}
	if err := s.members.Update(ctx, member); err != nil {
		return err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventMemberActivated,
		MemberID: member.ID,
	})
	return nil
}

// SweepExpiredCodes deletes codes whose validity window has passed.
func (s *ConfirmationService) SweepExpiredCodes(ctx context.Context) (int64, error) {
	deleted, err := s.codes.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("expired confirmation codes swept", zap.Int64("deleted", deleted))
		s.publishEvent(ctx, events.Event{
			Type:    events.EventCodesSwept,
			Payload: events.CodesSweptPayload{Deleted: deleted},
		})
	}
	return deleted, nil
}

func (s *ConfirmationService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
