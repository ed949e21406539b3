package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/membership-service/internal/domain"
)

// MemoryStore is an in-process implementation of both MemberRepository and
// ConfirmationCodeRepository. It backs unit tests and DSN-less development
// runs, and enforces the same atomicity as the Postgres implementation by
// holding one mutex across the confirm unit of work.
type MemoryStore struct {
	mu      sync.Mutex
	members map[string]domain.Member
	byEmail map[string]string
	codes   map[string]domain.ConfirmationCode // keyed by member id
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members: make(map[string]domain.Member),
		byEmail: make(map[string]string),
		codes:   make(map[string]domain.ConfirmationCode),
	}
}

var _ MemberRepository = (*MemoryStore)(nil)
var _ ConfirmationCodeRepository = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, member *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[member.Email]; exists {
		return ErrDuplicateEmail
	}
	now := time.Now()
	member.ID = uuid.NewString()
	member.CreatedAt = now
	member.UpdatedAt = now
	s.members[member.ID] = *member
	s.byEmail[member.Email] = member.ID
	return nil
}

func (s *MemoryStore) Update(_ context.Context, member *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.members[member.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if current.Email != member.Email {
		delete(s.byEmail, current.Email)
		s.byEmail[member.Email] = member.ID
	}
	member.UpdatedAt = time.Now()
	s.members[member.ID] = *member
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &member, nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	member := s.members[id]
	return &member, nil
}

func (s *MemoryStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *MemoryStore) List(_ context.Context, limit, offset int) ([]domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.Member, 0, len(s.members))
	for _, m := range s.members {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []domain.Member{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[id]
	if !ok {
		return pgx.ErrNoRows
	}
	delete(s.members, id)
	delete(s.byEmail, member.Email)
	delete(s.codes, id)
	return nil
}

func (s *MemoryStore) ConfirmMember(_ context.Context, memberID, codeID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[memberID]
	if !ok || member.Confirmed {
		return ErrAlreadyConfirmed
	}
	code, ok := s.codes[memberID]
	if !ok || code.ID != codeID {
		return ErrCodeConsumed
	}

	member.Confirmed = true
	member.ConfirmedAt = &at
	member.UpdatedAt = time.Now()
	s.members[memberID] = member
	delete(s.codes, memberID)
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, code *domain.ConfirmationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code.ID = uuid.NewString()
	code.CreatedAt = time.Now()
	s.codes[code.MemberID] = *code
	return nil
}

func (s *MemoryStore) GetActive(_ context.Context, memberID, codeStr string) (*domain.ConfirmationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[memberID]
	if !ok || code.Code != codeStr {
		return nil, pgx.ErrNoRows
	}
	return &code, nil
}

func (s *MemoryStore) DeleteForMember(_ context.Context, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.codes, memberID)
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for memberID, code := range s.codes {
		if code.ExpiresAt.Before(before) {
			delete(s.codes, memberID)
			deleted++
		}
	}
	return deleted, nil
}
