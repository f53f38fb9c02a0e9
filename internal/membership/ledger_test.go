package membership_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workhub/internal/apperr"
	"workhub/internal/events"
	"workhub/internal/membership"
	"workhub/internal/models"
	"workhub/internal/testkit/memstore"
)

func newLedger(f *memstore.Fixture) (*membership.Ledger, *events.Recorder) {
	rec := &events.Recorder{}
	return membership.NewLedger(f.Store, rec), rec
}

func ownerCount(t *testing.T, f *memstore.Fixture) int {
	t.Helper()
	list, err := f.Store.ListMemberships(context.Background(), f.Workspace.ID)
	require.NoError(t, err)
	n := 0
	for _, m := range list {
		if m.Role == models.RoleOwner {
			n++
		}
	}
	return n
}

func TestAddMember(t *testing.T) {
	f := memstore.NewFixture()
	ledger, _ := newLedger(f)
	ctx := context.Background()

	m, err := ledger.AddMember(ctx, f.Admin.ID, f.Workspace.ID, f.Outsider.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, m.Role)

	_, err = ledger.AddMember(ctx, f.Owner.ID, f.Workspace.ID, f.Outsider.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrAlreadyMember)
}

func TestAddMember_ConcurrentCallsAddOnce(t *testing.T) {
	f := memstore.NewFixture()
	ledger, _ := newLedger(f)
	ctx := context.Background()
	before, err := f.Store.ListMemberships(ctx, f.Workspace.ID)
	require.NoError(t, err)

	const callers = 8
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.AddMember(ctx, f.Owner.ID, f.Workspace.ID, f.Outsider.ID, models.RoleMember)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	added := 0
	for err := range results {
		if err == nil {
			added++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrAlreadyMember)
	}
	assert.Equal(t, 1, added)

	after, err := f.Store.ListMemberships(ctx, f.Workspace.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
}

func TestAddMember_RequiresAdmin(t *testing.T) {
	f := memstore.NewFixture()
	ledger, _ := newLedger(f)

	_, err := ledger.AddMember(context.Background(), f.Member.ID, f.Workspace.ID, f.Outsider.ID, models.RoleMember)

	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAddMember_CannotGrantOwner(t *testing.T) {
	f := memstore.NewFixture()
	ledger, _ := newLedger(f)

	_, err := ledger.AddMember(context.Background(), f.Owner.ID, f.Workspace.ID, f.Outsider.ID, models.RoleOwner)

	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Equal(t, 1, ownerCount(t, f))
}

func TestAddMember_UnknownAccount(t *testing.T) {
	f := memstore.NewFixture()
	ledger, _ := newLedger(f)

	_, err := ledger.AddMember(context.Background(), f.Owner.ID, f.Workspace.ID, uuid.New(), models.RoleMember)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveMember_PrunesAssignmentsAndNotifies(t *testing.T) {
	f := memstore.NewFixture()
	ledger, rec := newLedger(f)
	ctx := context.Background()
	task := f.AddTask("ship it", f.Member.ID, f.Admin.ID)

	require.NoError(t, ledger.RemoveMember(ctx, f.Owner.ID, f.Workspace.ID, f.Member.ID))

	_, err := f.Store.GetMembership(ctx, f.Workspace.ID, f.Member.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	stored, err := f.Store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.Admin.ID}, stored.AssignedTo)

	removed := rec.OfType(events.ProjectRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, f.Member.ID, removed[0].TargetID)
	assert.Equal(t, f.Owner.ID, removed[0].ActorID)
}

func TestRemoveMember_Errors(t *testing.T) {
	f := memstore.NewFixture()
	ledger, _ := newLedger(f)
	ctx := context.Background()

	err := ledger.RemoveMember(ctx, f.Admin.ID, f.Workspace.ID, f.Owner.ID)
	assert.ErrorIs(t, err, apperr.ErrCannotRemoveOwner)

	err = ledger.RemoveMember(ctx, f.Owner.ID, f.Workspace.ID, f.Owner.ID)
	assert.ErrorIs(t, err, apperr.ErrCannotRemoveOwner)

	err = ledger.RemoveMember(ctx, f.Owner.ID, f.Workspace.ID, f.Outsider.ID)
	assert.ErrorIs(t, err, apperr.ErrNotMember)

	err = ledger.RemoveMember(ctx, f.Member.ID, f.Workspace.ID, f.Admin.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	assert.Equal(t, 1, ownerCount(t, f))
}

func TestRemoveMember_SelfLeave(t *testing.T) {
	f := memstore.NewFixture()
	ledger, rec := newLedger(f)

	require.NoError(t, ledger.RemoveMember(context.Background(), f.Member.ID, f.Workspace.ID, f.Member.ID))

	assert.Empty(t, rec.OfType(events.ProjectRemoved))
}

func TestUpdateRole(t *testing.T) {
	f := memstore.NewFixture()
	ledger, _ := newLedger(f)
	ctx := context.Background()

	m, err := ledger.UpdateRole(ctx, f.Owner.ID, f.Workspace.ID, f.Member.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, m.Role)

	m, err = ledger.UpdateRole(ctx, f.Owner.ID, f.Workspace.ID, f.Member.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, m.Role)

	_, err = ledger.UpdateRole(ctx, f.Owner.ID, f.Workspace.ID, f.Outsider.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrNotMember)

	_, err = ledger.UpdateRole(ctx, f.Admin.ID, f.Workspace.ID, f.Owner.ID, models.RoleMember)
	assert.ErrorIs(t, err, apperr.ErrCannotRemoveOwner)

	_, err = ledger.UpdateRole(ctx, f.Owner.ID, f.Workspace.ID, f.Admin.ID, models.RoleOwner)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	assert.Equal(t, 1, ownerCount(t, f))
}

func TestGetMembers_OrderedByJoin(t *testing.T) {
	f := memstore.NewFixture()
	ledger, _ := newLedger(f)

	members, err := ledger.GetMembers(context.Background(), f.Member.ID, f.Workspace.ID)

	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, f.Owner.ID, members[0].AccountID)
	assert.Equal(t, models.RoleOwner, members[0].Role)
	assert.Equal(t, f.Admin.ID, members[1].AccountID)
	assert.Equal(t, f.Member.ID, members[2].AccountID)
	assert.True(t, members[0].JoinedAt.Before(members[2].JoinedAt))

	_, err = ledger.GetMembers(context.Background(), f.Outsider.ID, f.Workspace.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestOwnerInvariantAcrossSequence(t *testing.T) {
	f := memstore.NewFixture()
	ledger, _ := newLedger(f)
	ctx := context.Background()
	extra := f.Store.MustAccount("extra@example.com")

	_, _ = ledger.AddMember(ctx, f.Owner.ID, f.Workspace.ID, extra.ID, models.RoleAdmin)
	_, _ = ledger.UpdateRole(ctx, f.Owner.ID, f.Workspace.ID, extra.ID, models.RoleMember)
	_ = ledger.RemoveMember(ctx, f.Owner.ID, f.Workspace.ID, f.Admin.ID)
	_, _ = ledger.UpdateRole(ctx, extra.ID, f.Workspace.ID, f.Owner.ID, models.RoleMember)
	_ = ledger.RemoveMember(ctx, extra.ID, f.Workspace.ID, extra.ID)

	assert.Equal(t, 1, ownerCount(t, f))
	role, err := f.Store.GetMembership(ctx, f.Workspace.ID, f.Owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, role.Role)
}
