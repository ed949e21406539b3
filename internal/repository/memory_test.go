package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/membership-service/internal/domain"
	"github.com/spec-kit/membership-service/internal/repository"
)

func newMember(t *testing.T, store *repository.MemoryStore, email string) *domain.Member {
	t.Helper()
	member := &domain.Member{Email: email, Role: domain.RoleMember}
	require.NoError(t, store.Create(context.Background(), member))
	require.NotEmpty(t, member.ID)
	return member
}

func TestCreateDuplicateEmail(t *testing.T) {
	store := repository.NewMemoryStore()
	newMember(t, store, "a@x.com")

	err := store.Create(context.Background(), &domain.Member{Email: "a@x.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestGetByEmailAfterUpdate(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	member := newMember(t, store, "a@x.com")

	member.Email = "b@x.com"
	require.NoError(t, store.Update(ctx, member))

	_, err := store.GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	found, err := store.GetByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, member.ID, found.ID)
}

func TestReplaceSupersedesPriorCode(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	member := newMember(t, store, "a@x.com")

	first := &domain.ConfirmationCode{MemberID: member.ID, Code: "111111", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Replace(ctx, first))

	second := &domain.ConfirmationCode{MemberID: member.ID, Code: "222222", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Replace(ctx, second))

	_, err := store.GetActive(ctx, member.ID, "111111")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	found, err := store.GetActive(ctx, member.ID, "222222")
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)
}

func TestGetActiveExactMatchOnly(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	alice := newMember(t, store, "alice@x.com")
	bob := newMember(t, store, "bob@x.com")

	code := &domain.ConfirmationCode{MemberID: alice.ID, Code: "123456", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Replace(ctx, code))

	// Right code, wrong member.
	_, err := store.GetActive(ctx, bob.ID, "123456")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	// Wrong code, right member.
	_, err = store.GetActive(ctx, alice.ID, "654321")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestConfirmMemberUnitOfWork(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	member := newMember(t, store, "a@x.com")

	code := &domain.ConfirmationCode{MemberID: member.ID, Code: "123456", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Replace(ctx, code))

	at := time.Now()
	require.NoError(t, store.ConfirmMember(ctx, member.ID, code.ID, at))

	updated, err := store.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, updated.Confirmed)
	require.NotNil(t, updated.ConfirmedAt)
	assert.Equal(t, at, *updated.ConfirmedAt)

	_, err = store.GetActive(ctx, member.ID, "123456")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	// A second run finds the member already confirmed.
	err = store.ConfirmMember(ctx, member.ID, code.ID, time.Now())
	assert.ErrorIs(t, err, repository.ErrAlreadyConfirmed)
}

func TestConfirmMemberStaleCode(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	member := newMember(t, store, "a@x.com")

	stale := &domain.ConfirmationCode{MemberID: member.ID, Code: "111111", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Replace(ctx, stale))
	staleID := stale.ID

	fresh := &domain.ConfirmationCode{MemberID: member.ID, Code: "222222", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Replace(ctx, fresh))

	err := store.ConfirmMember(ctx, member.ID, staleID, time.Now())
	assert.ErrorIs(t, err, repository.ErrCodeConsumed)

	// Member state untouched by the failed unit of work.
	current, err := store.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.False(t, current.Confirmed)
}

func TestDeleteExpired(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	alice := newMember(t, store, "alice@x.com")
	bob := newMember(t, store, "bob@x.com")

	now := time.Now()
	require.NoError(t, store.Replace(ctx, &domain.ConfirmationCode{MemberID: alice.ID, Code: "111111", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, store.Replace(ctx, &domain.ConfirmationCode{MemberID: bob.ID, Code: "222222", ExpiresAt: now.Add(time.Hour)}))

	deleted, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.GetActive(ctx, alice.ID, "111111")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	_, err = store.GetActive(ctx, bob.ID, "222222")
	assert.NoError(t, err)
}

func TestDeleteMemberRemovesCode(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	member := newMember(t, store, "a@x.com")
	require.NoError(t, store.Replace(ctx, &domain.ConfirmationCode{MemberID: member.ID, Code: "123456", ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, store.Delete(ctx, member.ID))

	_, err := store.GetByID(ctx, member.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = store.GetActive(ctx, member.ID, "123456")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestListPagination(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		newMember(t, store, email)
	}

	page, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = store.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	page, err = store.List(ctx, 2, 5)
	require.NoError(t, err)
	assert.Empty(t, page)
}
