// Package tasks owns task status, assignment, submission and comments.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"workhub/internal/access"
	"workhub/internal/apperr"
	"workhub/internal/events"
	"workhub/internal/models"
)

type CreateInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	DueDate     *time.Time
	AssignedTo  []uuid.UUID
}

// UpdateInput carries only the fields to change. AssignedTo replaces the
// whole assignee list when non-nil.
type UpdateInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	AssignedTo   *[]uuid.UUID
}

type SubmitInput struct {
	Message     string
	Attachments []string
}

type Service struct {
	repo      models.Repository
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo models.Repository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Service{repo: repo, publisher: publisher, now: time.Now}
}

// Create adds a task to the workspace. Admin or owner only.
func (s *Service) Create(ctx context.Context, actorID, workspaceID uuid.UUID, in CreateInput) (*models.Task, error) {
	r, err := access.New(s.repo).ViaWorkspace(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireAdminOrOwner(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Invalid("task title is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityNone
	}
	if !priority.Valid() {
		return nil, apperr.Invalid(fmt.Sprintf("unknown priority %q", priority))
	}
	assignees, err := s.checkAssignees(ctx, workspaceID, in.AssignedTo)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		CreatedBy:   actorID,
		Title:       title,
		Description: in.Description,
		Status:      models.TaskTodo,
		Priority:    priority,
		DueDate:     in.DueDate,
		AssignedTo:  assignees,
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, apperr.Internal("create task", err)
	}

	s.emit(ctx, r.Workspace, task, s.assignedEvents(actorID, task, assignees)...)
	return task, nil
}

// Get returns a task of a workspace the caller belongs to.
func (s *Service) Get(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	r, err := access.New(s.repo).ViaTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireMember(); err != nil {
		return nil, err
	}
	return r.Task, nil
}

func (s *Service) ListForWorkspace(ctx context.Context, actorID, workspaceID uuid.UUID) ([]models.Task, error) {
	r, err := access.New(s.repo).ViaWorkspace(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireMember(); err != nil {
		return nil, err
	}
	list, err := s.repo.ListTasks(ctx, workspaceID)
	if err != nil {
		return nil, apperr.Internal("list tasks", err)
	}
	return list, nil
}

// Update applies the provided fields. Admin or owner only.
func (s *Service) Update(ctx context.Context, actorID, taskID uuid.UUID, in UpdateInput) (*models.Task, error) {
	r, err := access.New(s.repo).ViaTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireAdminOrOwner(); err != nil {
		return nil, err
	}

	task := r.Task
	before := task.Status
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Invalid("task title is required")
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Invalid(fmt.Sprintf("unknown task status %q", *in.Status))
		}
		task.Status = *in.Status
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, apperr.Invalid(fmt.Sprintf("unknown priority %q", *in.Priority))
		}
		task.Priority = *in.Priority
	}
	if in.ClearDueDate {
		task.DueDate = nil
	} else if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	var added []uuid.UUID
	if in.AssignedTo != nil {
		assignees, err := s.checkAssignees(ctx, task.WorkspaceID, *in.AssignedTo)
		if err != nil {
			return nil, err
		}
		for _, id := range assignees {
			if !task.IsAssigned(id) {
				added = append(added, id)
			}
		}
		task.AssignedTo = assignees
	}

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, apperr.Internal("update task", err)
	}

	evs := s.statusEvents(actorID, task, before)
	evs = append(evs, s.assignedEvents(actorID, task, added)...)
	s.emit(ctx, r.Workspace, task, evs...)
	return task, nil
}

// Submit marks the task done and records who submitted it.
func (s *Service) Submit(ctx context.Context, actorID, taskID uuid.UUID, in SubmitInput) (*models.Task, error) {
	return s.decide(ctx, actorID, taskID, in, models.TaskDone, models.SubmissionSubmitted)
}

// Reject sends the task back to in-progress and records why.
func (s *Service) Reject(ctx context.Context, actorID, taskID uuid.UUID, in SubmitInput) (*models.Task, error) {
	return s.decide(ctx, actorID, taskID, in, models.TaskInProgress, models.SubmissionRejected)
}

func (s *Service) decide(ctx context.Context, actorID, taskID uuid.UUID, in SubmitInput, status models.TaskStatus, kind models.SubmissionKind) (*models.Task, error) {
	r, err := access.New(s.repo).ViaTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if !CanSubmit(r, actorID) {
		return nil, apperr.Forbidden("only admins, the owner or an assignee may submit this task")
	}

	task := r.Task
	before := task.Status
	task.Status = status
	task.SetSubmission(models.Submission{
		ByAccountID: actorID,
		Kind:        kind,
		Message:     in.Message,
		Attachments: in.Attachments,
	})
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, apperr.Internal("update task", err)
	}

	s.emit(ctx, r.Workspace, task, s.statusEvents(actorID, task, before)...)
	return task, nil
}

// CanSubmit is the shared rule for Submit and Reject: admins and the owner
// always may; otherwise the caller must be a member and either the task has
// no assignees or the caller is one of them.
func CanSubmit(r *access.Resolved, actorID uuid.UUID) bool {
	if r.IsAdminOrOwner() {
		return true
	}
	if !r.IsMember() {
		return false
	}
	return len(r.Task.AssignedTo) == 0 || r.Task.IsAssigned(actorID)
}

// Assign adds one member to the task's assignees. Admin or owner only.
func (s *Service) Assign(ctx context.Context, actorID, taskID, accountID uuid.UUID) (*models.Task, error) {
	r, err := access.New(s.repo).ViaTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireAdminOrOwner(); err != nil {
		return nil, err
	}
	task := r.Task
	if task.IsAssigned(accountID) {
		return nil, apperr.ErrAlreadyAssigned
	}
	if _, err := s.checkAssignees(ctx, task.WorkspaceID, []uuid.UUID{accountID}); err != nil {
		return nil, err
	}

	task.AssignedTo = append(task.AssignedTo, accountID)
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, apperr.Internal("update task", err)
	}
	s.emit(ctx, r.Workspace, task, s.assignedEvents(actorID, task, []uuid.UUID{accountID})...)
	return task, nil
}

// Unassign removes one account from the task's assignees. Admin or owner only.
func (s *Service) Unassign(ctx context.Context, actorID, taskID, accountID uuid.UUID) (*models.Task, error) {
	r, err := access.New(s.repo).ViaTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireAdminOrOwner(); err != nil {
		return nil, err
	}
	task := r.Task
	if !task.IsAssigned(accountID) {
		return nil, apperr.ErrNotAssigned
	}

	kept := make([]uuid.UUID, 0, len(task.AssignedTo)-1)
	for _, id := range task.AssignedTo {
		if id != accountID {
			kept = append(kept, id)
		}
	}
	task.AssignedTo = kept
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, apperr.Internal("update task", err)
	}
	return task, nil
}

// Delete removes the task with its issues and comments. Either everything
// goes or nothing does.
func (s *Service) Delete(ctx context.Context, actorID, taskID uuid.UUID) error {
	r, err := access.New(s.repo).ViaTask(ctx, taskID, actorID)
	if err != nil {
		return err
	}
	if err := r.RequireAdminOrOwner(); err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(tx models.Repository) error {
		if err := tx.DeleteTaskComments(ctx, taskID); err != nil {
			return err
		}
		if err := tx.DeleteTaskIssues(ctx, taskID); err != nil {
			return err
		}
		return tx.DeleteTask(ctx, taskID)
	})
	if errors.Is(err, models.ErrNotFound) {
		return apperr.NotFound("task")
	}
	if err != nil {
		return apperr.Internal("delete task", err)
	}
	log.Printf("[tasks] task %s deleted by %s", taskID, actorID)
	return nil
}

// AddComment appends a comment. Any member may comment.
func (s *Service) AddComment(ctx context.Context, actorID, taskID uuid.UUID, content string, attachments []string) (*models.Comment, error) {
	r, err := access.New(s.repo).ViaTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireMember(); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Invalid("comment content is required")
	}

	comment := &models.Comment{
		ID:              uuid.New(),
		TaskID:          taskID,
		AuthorAccountID: actorID,
		Content:         content,
		Attachments:     append(models.StringList{}, attachments...),
		CreatedAt:       s.now(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, apperr.Internal("create comment", err)
	}

	s.emit(ctx, r.Workspace, r.Task, events.Event{
		Type:      events.CommentAdded,
		ActorID:   actorID,
		TaskID:    taskID,
		CommentID: comment.ID,
		Subject:   r.Task.Title,
		Detail:    content,
	})
	return comment, nil
}

func (s *Service) ListComments(ctx context.Context, actorID, taskID uuid.UUID) ([]models.Comment, error) {
	r, err := access.New(s.repo).ViaTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireMember(); err != nil {
		return nil, err
	}
	list, err := s.repo.ListComments(ctx, taskID)
	if err != nil {
		return nil, apperr.Internal("list comments", err)
	}
	return list, nil
}

// checkAssignees dedupes ids and requires each to be a workspace member.
func (s *Service) checkAssignees(ctx context.Context, workspaceID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	gate := access.New(s.repo)
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		ok, err := gate.IsMember(ctx, workspaceID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Invalid(fmt.Sprintf("assignee %s is not a member of this workspace", id))
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *Service) assignedEvents(actorID uuid.UUID, task *models.Task, ids []uuid.UUID) []events.Event {
	var evs []events.Event
	for _, id := range ids {
		if id == actorID {
			continue
		}
		evs = append(evs, events.Event{
			Type:     events.TaskAssigned,
			ActorID:  actorID,
			TaskID:   task.ID,
			Subject:  task.Title,
			TargetID: id,
		})
	}
	return evs
}

func (s *Service) statusEvents(actorID uuid.UUID, task *models.Task, before models.TaskStatus) []events.Event {
	if task.Status == before {
		return nil
	}
	evs := []events.Event{{
		Type:    events.TaskStatusChanged,
		ActorID: actorID,
		TaskID:  task.ID,
		Subject: task.Title,
		Detail:  string(task.Status),
	}}
	if task.Status == models.TaskDone {
		evs = append(evs, events.Event{
			Type:    events.TaskCompleted,
			ActorID: actorID,
			TaskID:  task.ID,
			Subject: task.Title,
		})
	}
	return evs
}

// emit fills the shared fields and publishes. A failed audience snapshot is
// logged; the mutation already succeeded.
func (s *Service) emit(ctx context.Context, ws *models.Workspace, task *models.Task, evs ...events.Event) {
	if len(evs) == 0 {
		return
	}
	audience, err := events.Snapshot(ctx, s.repo, ws, task)
	if err != nil {
		log.Printf("[tasks] audience snapshot for workspace %s failed: %v", ws.ID, err)
		return
	}
	now := s.now()
	for i := range evs {
		evs[i].WorkspaceID = ws.ID
		evs[i].WorkspaceName = ws.Name
		evs[i].Audience = audience
		evs[i].OccurredAt = now
	}
	s.publisher.Publish(ctx, evs...)
}
