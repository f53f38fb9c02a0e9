package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workhub/internal/apperr"
	"workhub/internal/events"
	"workhub/internal/models"
	"workhub/internal/tasks"
	"workhub/internal/testkit/memstore"
)

func newService(f *memstore.Fixture) (*tasks.Service, *events.Recorder) {
	rec := &events.Recorder{}
	return tasks.NewService(f.Store, rec), rec
}

func TestCreate(t *testing.T) {
	f := memstore.NewFixture()
	svc, rec := newService(f)
	due := time.Now().Add(48 * time.Hour)

	task, err := svc.Create(context.Background(), f.Admin.ID, f.Workspace.ID, tasks.CreateInput{
		Title:      "Draft launch plan",
		DueDate:    &due,
		AssignedTo: []uuid.UUID{f.Member.ID, f.Admin.ID, f.Member.ID},
	})

	require.NoError(t, err)
	assert.Equal(t, models.TaskTodo, task.Status)
	assert.Equal(t, models.PriorityNone, task.Priority)
	assert.Equal(t, []uuid.UUID{f.Member.ID, f.Admin.ID}, task.AssignedTo)

	assigned := rec.OfType(events.TaskAssigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, f.Member.ID, assigned[0].TargetID)
	assert.Equal(t, f.Workspace.ID, assigned[0].WorkspaceID)
}

func TestCreate_Rules(t *testing.T) {
	f := memstore.NewFixture()
	svc, _ := newService(f)
	ctx := context.Background()

	_, err := svc.Create(ctx, f.Member.ID, f.Workspace.ID, tasks.CreateInput{Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Create(ctx, f.Owner.ID, f.Workspace.ID, tasks.CreateInput{Title: "x", AssignedTo: []uuid.UUID{f.Outsider.ID}})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Create(ctx, f.Owner.ID, f.Workspace.ID, tasks.CreateInput{Title: ""})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Create(ctx, f.Owner.ID, f.Workspace.ID, tasks.CreateInput{Title: "x", Priority: "critical"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Create(ctx, f.Owner.ID, uuid.New(), tasks.CreateInput{Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdate_StatusAndAssignees(t *testing.T) {
	f := memstore.NewFixture()
	svc, rec := newService(f)
	task := f.AddTask("Polish", f.Member.ID)
	done := models.TaskDone
	assignees := []uuid.UUID{f.Member.ID, f.Admin.ID}

	updated, err := svc.Update(context.Background(), f.Owner.ID, task.ID, tasks.UpdateInput{Status: &done, AssignedTo: &assignees})

	require.NoError(t, err)
	assert.Equal(t, models.TaskDone, updated.Status)
	assert.Equal(t, assignees, updated.AssignedTo)

	require.Len(t, rec.OfType(events.TaskStatusChanged), 1)
	require.Len(t, rec.OfType(events.TaskCompleted), 1)
	assigned := rec.OfType(events.TaskAssigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, f.Admin.ID, assigned[0].TargetID)
}

func TestUpdate_RejectsNonMemberAssignee(t *testing.T) {
	f := memstore.NewFixture()
	svc, _ := newService(f)
	task := f.AddTask("Polish", f.Member.ID)
	assignees := []uuid.UUID{f.Outsider.ID}

	_, err := svc.Update(context.Background(), f.Owner.ID, task.ID, tasks.UpdateInput{AssignedTo: &assignees})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	stored, err := f.Store.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.Member.ID}, stored.AssignedTo)
}

func TestUpdate_SameStatusEmitsNothing(t *testing.T) {
	f := memstore.NewFixture()
	svc, rec := newService(f)
	task := f.AddTask("Polish")
	todo := models.TaskTodo

	_, err := svc.Update(context.Background(), f.Admin.ID, task.ID, tasks.UpdateInput{Status: &todo})

	require.NoError(t, err)
	assert.Empty(t, rec.Events())
}

func TestSubmit_UnassignedTaskByMember(t *testing.T) {
	f := memstore.NewFixture()
	svc, _ := newService(f)
	task := f.AddTask("Open task")

	updated, err := svc.Submit(context.Background(), f.Member.ID, task.ID, tasks.SubmitInput{Message: "done", Attachments: []string{"report.pdf"}})

	require.NoError(t, err)
	assert.Equal(t, models.TaskDone, updated.Status)
	sub := updated.Submission()
	require.NotNil(t, sub)
	assert.Equal(t, models.SubmissionSubmitted, sub.Kind)
	assert.Equal(t, f.Member.ID, sub.ByAccountID)
	assert.Equal(t, []string{"report.pdf"}, sub.Attachments)
}

func TestSubmit_NonAssigneeForbidden(t *testing.T) {
	f := memstore.NewFixture()
	svc, _ := newService(f)
	other := f.AddMember(models.RoleMember)
	task := f.AddTask("Assigned task", other.ID)

	_, err := svc.Submit(context.Background(), f.Member.ID, task.ID, tasks.SubmitInput{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	stored, err := f.Store.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskTodo, stored.Status)
	assert.Nil(t, stored.Submission())
}

func TestSubmit_OutsiderForbiddenEvenOnOpenTask(t *testing.T) {
	f := memstore.NewFixture()
	svc, _ := newService(f)
	task := f.AddTask("Open task")

	_, err := svc.Submit(context.Background(), f.Outsider.ID, task.ID, tasks.SubmitInput{})

	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestReject(t *testing.T) {
	f := memstore.NewFixture()
	svc, rec := newService(f)
	task := f.AddTask("Review", f.Member.ID)

	_, err := svc.Submit(context.Background(), f.Member.ID, task.ID, tasks.SubmitInput{Message: "ready"})
	require.NoError(t, err)

	updated, err := svc.Reject(context.Background(), f.Admin.ID, task.ID, tasks.SubmitInput{Message: "missing tests"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskInProgress, updated.Status)
	sub := updated.Submission()
	require.NotNil(t, sub)
	assert.Equal(t, models.SubmissionRejected, sub.Kind)
	assert.Equal(t, f.Admin.ID, sub.ByAccountID)
	assert.Equal(t, "missing tests", sub.Message)

	changes := rec.OfType(events.TaskStatusChanged)
	require.Len(t, changes, 2)
	assert.Equal(t, "in-progress", changes[1].Detail)
}

func TestAssignAndUnassign(t *testing.T) {
	f := memstore.NewFixture()
	svc, rec := newService(f)
	ctx := context.Background()
	task := f.AddTask("Pair up")

	updated, err := svc.Assign(ctx, f.Admin.ID, task.ID, f.Member.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.Member.ID}, updated.AssignedTo)
	assert.Len(t, rec.OfType(events.TaskAssigned), 1)

	_, err = svc.Assign(ctx, f.Admin.ID, task.ID, f.Member.ID)
	assert.ErrorIs(t, err, apperr.ErrAlreadyAssigned)

	_, err = svc.Assign(ctx, f.Admin.ID, task.ID, f.Outsider.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Assign(ctx, f.Member.ID, task.ID, f.Admin.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err = svc.Unassign(ctx, f.Admin.ID, task.ID, f.Member.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.AssignedTo)

	_, err = svc.Unassign(ctx, f.Admin.ID, task.ID, f.Member.ID)
	assert.ErrorIs(t, err, apperr.ErrNotAssigned)
}

func TestDelete_CascadesChildren(t *testing.T) {
	f := memstore.NewFixture()
	svc, _ := newService(f)
	ctx := context.Background()
	task := f.AddTask("Remove me")
	f.AddIssue(task.ID, f.Member.ID, "broken")
	f.AddComment(task.ID, f.Member.ID, "hello")

	require.NoError(t, svc.Delete(ctx, f.Owner.ID, task.ID))

	_, err := f.Store.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	issues, _ := f.Store.ListIssues(ctx, task.ID)
	assert.Empty(t, issues)
	comments, _ := f.Store.ListComments(ctx, task.ID)
	assert.Empty(t, comments)
}

func TestDelete_PartialFailureRollsBack(t *testing.T) {
	f := memstore.NewFixture()
	svc, _ := newService(f)
	ctx := context.Background()
	task := f.AddTask("Keep me")
	f.AddIssue(task.ID, f.Member.ID, "broken")
	f.AddComment(task.ID, f.Member.ID, "hello")
	f.Store.FailNext("DeleteTask", errors.New("disk full"))

	err := svc.Delete(ctx, f.Owner.ID, task.ID)
	assert.ErrorIs(t, err, apperr.ErrInternal)

	_, err = f.Store.GetTask(ctx, task.ID)
	assert.NoError(t, err)
	issues, _ := f.Store.ListIssues(ctx, task.ID)
	assert.Len(t, issues, 1)
	comments, _ := f.Store.ListComments(ctx, task.ID)
	assert.Len(t, comments, 1)
}

func TestDelete_TaskRemovedConcurrentlyIsNotFound(t *testing.T) {
	f := memstore.NewFixture()
	svc, _ := newService(f)
	task := f.AddTask("Gone")
	f.Store.FailNext("DeleteTask", models.ErrNotFound)

	err := svc.Delete(context.Background(), f.Owner.ID, task.ID)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestDelete_RequiresAdmin(t *testing.T) {
	f := memstore.NewFixture()
	svc, _ := newService(f)
	task := f.AddTask("Keep me")

	assert.ErrorIs(t, svc.Delete(context.Background(), f.Member.ID, task.ID), apperr.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(context.Background(), f.Owner.ID, uuid.New()), apperr.ErrNotFound)
}

func TestAddComment(t *testing.T) {
	f := memstore.NewFixture()
	svc, rec := newService(f)
	ctx := context.Background()
	task := f.AddTask("Discuss", f.Admin.ID)

	comment, err := svc.AddComment(ctx, f.Member.ID, task.ID, "  what about mobile?  ", []string{"sketch.png"})
	require.NoError(t, err)
	assert.Equal(t, "what about mobile?", comment.Content)

	added := rec.OfType(events.CommentAdded)
	require.Len(t, added, 1)
	assert.Equal(t, comment.ID, added[0].CommentID)
	assert.Equal(t, []uuid.UUID{f.Admin.ID}, added[0].Audience.AssigneeIDs)

	list, err := svc.ListComments(ctx, f.Owner.ID, task.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.AddComment(ctx, f.Outsider.ID, task.ID, "hi", nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.AddComment(ctx, f.Member.ID, task.ID, "   ", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestAssigneesStayMembers(t *testing.T) {
	f := memstore.NewFixture()
	svc, _ := newService(f)
	ctx := context.Background()

	task, err := svc.Create(ctx, f.Owner.ID, f.Workspace.ID, tasks.CreateInput{Title: "a", AssignedTo: []uuid.UUID{f.Member.ID}})
	require.NoError(t, err)
	set := []uuid.UUID{f.Admin.ID, f.Outsider.ID}
	_, _ = svc.Update(ctx, f.Owner.ID, task.ID, tasks.UpdateInput{AssignedTo: &set})

	stored, err := f.Store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	for _, id := range stored.AssignedTo {
		_, err := f.Store.GetMembership(ctx, f.Workspace.ID, id)
		assert.NoError(t, err)
	}
}
