package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/events"
	"github.com/spec-kit/membership-service/internal/repository"
	"github.com/spec-kit/membership-service/pkg/util"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// MemberService covers registration and directory CRUD.
type MemberService struct {
	members      repository.MemberRepository
	confirmation *ConfirmationService
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// NewMemberService builds the service.
func NewMemberService(members repository.MemberRepository, confirmation *ConfirmationService, dispatcher events.Dispatcher, logger *zap.Logger) *MemberService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{
		members:      members,
		confirmation: confirmation,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// RegisterInput carries new member attributes.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Address   string
	Role      domain.MemberRole
}

// Register creates an unconfirmed member and issues the initial confirmation
// code. The member and code are committed even when code delivery fails; a
// non-nil member is returned alongside any delivery error.
func (s *MemberService) Register(ctx context.Context, input RegisterInput) (*domain.Member, error) {
	exists, err := s.members.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.NewConflict("email already registered", nil)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleMember
	}
	if !domain.ValidRole(role) {
		return nil, util.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}

	member := &domain.Member{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Address:   input.Address,
		Role:      role,
	}
	// Create can still hit the unique index when two registrations race past
	// the ExistsByEmail check.
	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, util.NewConflict("email already registered", nil)
		}
		return nil, util.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventMemberRegistered,
		MemberID: member.ID,
		Payload:  events.MemberRegisteredPayload{Email: member.Email, Role: member.Role},
	})

	if _, err := s.confirmation.IssueCode(ctx, member.ID, CodeKindInitial); err != nil {
		return member, err
	}
	return member, nil
}

// Get returns a member by identity.
func (s *MemberService) Get(ctx context.Context, id string) (*domain.Member, error) {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewNotFound("member")
		}
		return nil, err
	}
	return member, nil
}

// List returns a page of members ordered by creation time.
func (s *MemberService) List(ctx context.Context, limit, offset int) ([]domain.Member, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.members.List(ctx, limit, offset)
}

// UpdateInput carries optional profile changes; nil fields are untouched.
type UpdateInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Address   *string
	Role      *domain.MemberRole
}

// Update applies profile changes to a member. Confirmation and password
// flags are not editable here.
func (s *MemberService) Update(ctx context.Context, id string, input UpdateInput) (*domain.Member, error) {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewNotFound("member")
		}
		return nil, err
	}

	if input.Email != nil && *input.Email != member.Email {
		exists, err := s.members.ExistsByEmail(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, util.NewConflict("email already registered", nil)
		}
		member.Email = *input.Email
	}
	if input.FirstName != nil {
		member.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		member.LastName = *input.LastName
	}
	if input.Address != nil {
		member.Address = *input.Address
	}
	if input.Role != nil {
		if !domain.ValidRole(*input.Role) {
			return nil, util.NewValidationError("unknown role", map[string]any{"role": string(*input.Role)})
		}
		member.Role = *input.Role
	}

	if err := s.members.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Delete removes a member from the directory along with any active code.
func (s *MemberService) Delete(ctx context.Context, id string) error {
	if err := s.members.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return util.NewNotFound("member")
		}
		return err
	}
	return nil
}

func (s *MemberService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
