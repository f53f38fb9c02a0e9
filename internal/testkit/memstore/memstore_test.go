package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workhub/internal/models"
)

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := s.MustAccount("owner@example.com")
	ws := models.Workspace{OwnerAccountID: owner.ID, Name: "alpha"}
	require.NoError(t, s.CreateWorkspace(ctx, &ws))

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(repo models.Repository) error {
		require.NoError(t, repo.CreateMembership(ctx, &models.Membership{WorkspaceID: ws.ID, AccountID: owner.ID, Role: models.RoleOwner}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetMembership(ctx, ws.ID, owner.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTransactionCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := s.MustAccount("owner@example.com")
	wsID := uuid.New()

	err := s.Transaction(ctx, func(repo models.Repository) error {
		if err := repo.CreateWorkspace(ctx, &models.Workspace{ID: wsID, OwnerAccountID: owner.ID, Name: "alpha"}); err != nil {
			return err
		}
		return repo.CreateMembership(ctx, &models.Membership{WorkspaceID: wsID, AccountID: owner.ID, Role: models.RoleOwner})
	})
	require.NoError(t, err)

	list, err := s.ListWorkspacesForAccount(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, wsID, list[0].ID)
}

func TestMembershipPairIsUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := models.Membership{WorkspaceID: uuid.New(), AccountID: uuid.New(), Role: models.RoleMember}

	require.NoError(t, s.CreateMembership(ctx, &m))
	assert.ErrorIs(t, s.CreateMembership(ctx, &m), models.ErrDuplicate)
}

func TestFailNext(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	s.FailNext("GetTask", boom)

	_, err := s.GetTask(ctx, uuid.New())
	assert.ErrorIs(t, err, boom)

	_, err = s.GetTask(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestNotificationDedupe(t *testing.T) {
	ctx := context.Background()
	s := New()
	recipient := uuid.New()
	key := "deadline:x"

	created, err := s.CreateNotification(ctx, &models.Notification{RecipientAccountID: recipient, Type: "DeadlineApproaching", DedupeKey: &key})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateNotification(ctx, &models.Notification{RecipientAccountID: recipient, Type: "DeadlineApproaching", DedupeKey: &key})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, s.Notifications(recipient), 1)
}
