package issues_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workhub/internal/apperr"
	"workhub/internal/events"
	"workhub/internal/issues"
	"workhub/internal/models"
	"workhub/internal/testkit/memstore"
)

func setup(policy issues.TransitionPolicy) (*memstore.Fixture, *issues.Service, *events.Recorder, models.Task) {
	f := memstore.NewFixture()
	rec := &events.Recorder{}
	task := f.AddTask("Build landing page", f.Member.ID)
	return f, issues.NewService(f.Store, rec, policy), rec, task
}

func TestCreate(t *testing.T) {
	f, svc, rec, task := setup(nil)

	issue, err := svc.Create(context.Background(), f.Member.ID, task.ID, issues.CreateInput{Title: "Broken link"})

	require.NoError(t, err)
	assert.Equal(t, models.IssueOpen, issue.Status)
	assert.Equal(t, f.Member.ID, issue.OwnerAccountID)
	require.NotNil(t, issue.LastStatusChangedBy)
	assert.Equal(t, f.Member.ID, *issue.LastStatusChangedBy)

	stored, err := f.Store.GetIssue(context.Background(), issue.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastStatusChangedBy)
	assert.Equal(t, f.Member.ID, *stored.LastStatusChangedBy)

	created := rec.OfType(events.IssueCreated)
	require.Len(t, created, 1)
	assert.Equal(t, issue.ID, created[0].IssueID)
	assert.Equal(t, f.Owner.ID, created[0].Audience.OwnerID)
}

func TestCreate_Rules(t *testing.T) {
	f, svc, _, task := setup(nil)

	_, err := svc.Create(context.Background(), f.Outsider.ID, task.ID, issues.CreateInput{Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Create(context.Background(), f.Member.ID, task.ID, issues.CreateInput{Title: " "})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestChangeStatus_ResolvedNotifiesOwner(t *testing.T) {
	f, svc, rec, task := setup(nil)
	issue := f.AddIssue(task.ID, f.Member.ID, "Broken link")

	updated, err := svc.ChangeStatus(context.Background(), f.Admin.ID, issue.ID, models.IssueResolved)

	require.NoError(t, err)
	assert.Equal(t, models.IssueResolved, updated.Status)
	require.NotNil(t, updated.LastStatusChangedBy)
	assert.Equal(t, f.Admin.ID, *updated.LastStatusChangedBy)

	resolved := rec.OfType(events.IssueResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, f.Member.ID, resolved[0].TargetID)
}

func TestChangeStatus_OwnerResolvingOwnIssueIsSilent(t *testing.T) {
	f, svc, rec, task := setup(nil)
	issue := f.AddIssue(task.ID, f.Member.ID, "Broken link")

	_, err := svc.ChangeStatus(context.Background(), f.Member.ID, issue.ID, models.IssueResolved)

	require.NoError(t, err)
	assert.Empty(t, rec.OfType(events.IssueResolved))
}

func TestChangeStatus_Rules(t *testing.T) {
	f, svc, _, task := setup(nil)
	issue := f.AddIssue(task.ID, f.Member.ID, "Broken link")
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, f.Outsider.ID, issue.ID, models.IssueClosed)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.ChangeStatus(ctx, f.Member.ID, issue.ID, "wontfix")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestChangeStatus_StrictPolicy(t *testing.T) {
	f, svc, _, task := setup(issues.Strict)
	issue := f.AddIssue(task.ID, f.Member.ID, "Broken link")
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, f.Member.ID, issue.ID, models.IssueClosed)
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, f.Member.ID, issue.ID, models.IssueResolved)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.ChangeStatus(ctx, f.Member.ID, issue.ID, models.IssueOpen)
	assert.NoError(t, err)
}

func TestUpdateAndDelete_OwnerOnly(t *testing.T) {
	f, svc, _, task := setup(nil)
	issue := f.AddIssue(task.ID, f.Member.ID, "Broken link")
	ctx := context.Background()
	title := "Broken footer link"

	_, err := svc.Update(ctx, f.Owner.ID, issue.ID, issues.UpdateInput{Title: &title})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, f.Admin.ID, issue.ID), apperr.ErrForbidden)

	updated, err := svc.Update(ctx, f.Member.ID, issue.ID, issues.UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	require.NoError(t, svc.Delete(ctx, f.Member.ID, issue.ID))
	_, err = svc.Get(ctx, f.Member.ID, issue.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListForTask(t *testing.T) {
	f, svc, _, task := setup(nil)
	f.AddIssue(task.ID, f.Member.ID, "one")
	f.AddIssue(task.ID, f.Admin.ID, "two")

	list, err := svc.ListForTask(context.Background(), f.Owner.ID, task.ID)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].Title)
}

func TestPolicyByName(t *testing.T) {
	p, err := issues.PolicyByName("strict")
	require.NoError(t, err)
	assert.False(t, p.Allowed(models.IssueClosed, models.IssueResolved))

	p, err = issues.PolicyByName("")
	require.NoError(t, err)
	assert.True(t, p.Allowed(models.IssueClosed, models.IssueResolved))

	_, err = issues.PolicyByName("chaos")
	assert.Error(t, err)
}
