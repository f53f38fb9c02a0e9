package workspaces_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workhub/internal/apperr"
	"workhub/internal/events"
	"workhub/internal/models"
	"workhub/internal/testkit/memstore"
	"workhub/internal/workspaces"
)

func TestCreateMakesCallerOwner(t *testing.T) {
	store := memstore.New()
	alice := store.MustAccount("alice@example.com")
	svc := workspaces.NewService(store, nil)
	ctx := context.Background()

	ws, err := svc.Create(ctx, alice.ID, workspaces.CreateInput{Name: "  Launch  "})
	require.NoError(t, err)
	assert.Equal(t, "Launch", ws.Name)
	assert.Equal(t, models.WorkspaceActive, ws.Status)

	m, err := store.GetMembership(ctx, ws.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, m.Role)

	list, err := svc.ListForAccount(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ws.ID, list[0].ID)
}

func TestCreateRollsBackWithoutOwnerAccount(t *testing.T) {
	store := memstore.New()
	svc := workspaces.NewService(store, nil)
	ghost := uuid.New()

	_, err := svc.Create(context.Background(), ghost, workspaces.CreateInput{Name: "Launch"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := svc.ListForAccount(context.Background(), ghost)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateRequiresName(t *testing.T) {
	store := memstore.New()
	alice := store.MustAccount("alice@example.com")

	_, err := workspaces.NewService(store, nil).Create(context.Background(), alice.ID, workspaces.CreateInput{Name: " "})

	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestGetRequiresMembership(t *testing.T) {
	f := memstore.NewFixture()
	svc := workspaces.NewService(f.Store, nil)

	ws, err := svc.Get(context.Background(), f.Member.ID, f.Workspace.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Workspace.ID, ws.ID)

	_, err = svc.Get(context.Background(), f.Outsider.ID, f.Workspace.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdateNotifiesMembers(t *testing.T) {
	f := memstore.NewFixture()
	rec := &events.Recorder{}
	svc := workspaces.NewService(f.Store, rec)
	name := "Apollo 2"
	status := models.WorkspaceCompleted

	ws, err := svc.Update(context.Background(), f.Admin.ID, f.Workspace.ID, workspaces.UpdateInput{Name: &name, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, name, ws.Name)
	assert.Equal(t, status, ws.Status)

	updates := rec.OfType(events.ProjectUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, "name, status", updates[0].Detail)
	assert.ElementsMatch(t, []uuid.UUID{f.Owner.ID, f.Admin.ID, f.Member.ID}, updates[0].Audience.MemberIDs)
}

func TestUpdateRules(t *testing.T) {
	f := memstore.NewFixture()
	rec := &events.Recorder{}
	svc := workspaces.NewService(f.Store, rec)
	name := "x"
	bad := models.WorkspaceStatus("paused")

	_, err := svc.Update(context.Background(), f.Member.ID, f.Workspace.ID, workspaces.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Update(context.Background(), f.Owner.ID, f.Workspace.ID, workspaces.UpdateInput{Status: &bad})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Update(context.Background(), f.Owner.ID, f.Workspace.ID, workspaces.UpdateInput{})
	require.NoError(t, err)
	assert.Empty(t, rec.Events())
}
