// Package issues owns the lifecycle of issues raised against tasks.
package issues

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
}

type UpdateInput struct {
	Title       *string
	Description *string
}

type Service struct {
	repo      models.Repository
	publisher events.Publisher
	policy    TransitionPolicy
	now       func() time.Time
}

func NewService(repo models.Repository, publisher events.Publisher, policy TransitionPolicy) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if policy == nil {
		policy = Permissive{}
	}
	return &Service{repo: repo, publisher: publisher, policy: policy, now: time.Now}
}

// Create raises an issue on a task. Any member may; the caller owns the issue.
func (s *Service) Create(ctx context.Context, actorID, taskID uuid.UUID, in CreateInput) (*models.Issue, error) {
	r, err := access.New(s.repo).ViaTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireMember(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Invalid("issue title is required")
	}

	issue := &models.Issue{
		ID:             uuid.New(),
		TaskID:         taskID,
		OwnerAccountID: actorID,
		Title:          title,
		Description:    in.Description,
		Status:         models.IssueOpen,

		LastStatusChangedBy: &actorID,
	}
	if err := s.repo.CreateIssue(ctx, issue); err != nil {
		return nil, apperr.Internal("create issue", err)
	}

	s.emit(ctx, r, events.Event{
		Type:    events.IssueCreated,
		ActorID: actorID,
		TaskID:  taskID,
		IssueID: issue.ID,
		Subject: issue.Title,
	})
	return issue, nil
}

func (s *Service) Get(ctx context.Context, actorID, issueID uuid.UUID) (*models.Issue, error) {
	r, err := access.New(s.repo).ViaIssue(ctx, issueID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireMember(); err != nil {
		return nil, err
	}
	return r.Issue, nil
}

func (s *Service) ListForTask(ctx context.Context, actorID, taskID uuid.UUID) ([]models.Issue, error) {
	r, err := access.New(s.repo).ViaTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireMember(); err != nil {
		return nil, err
	}
	list, err := s.repo.ListIssues(ctx, taskID)
	if err != nil {
		return nil, apperr.Internal("list issues", err)
	}
	return list, nil
}

// ChangeStatus moves the issue to status. Any member may, subject to the
// configured transition policy.
func (s *Service) ChangeStatus(ctx context.Context, actorID, issueID uuid.UUID, status models.IssueStatus) (*models.Issue, error) {
	r, err := access.New(s.repo).ViaIssue(ctx, issueID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireMember(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperr.Invalid(fmt.Sprintf("unknown issue status %q", status))
	}

	issue := r.Issue
	before := issue.Status
	if !s.policy.Allowed(before, status) {
		return nil, apperr.Invalid(fmt.Sprintf("cannot move issue from %s to %s", before, status))
	}
	issue.Status = status
	issue.LastStatusChangedBy = &actorID
	if err := s.repo.UpdateIssue(ctx, issue); err != nil {
		return nil, apperr.Internal("update issue", err)
	}

	if status == models.IssueResolved && before != models.IssueResolved && issue.OwnerAccountID != actorID {
		s.emit(ctx, r, events.Event{
			Type:     events.IssueResolved,
			ActorID:  actorID,
			TaskID:   issue.TaskID,
			IssueID:  issue.ID,
			Subject:  issue.Title,
			TargetID: issue.OwnerAccountID,
		})
	}
	return issue, nil
}

// Update edits title or description. Only the issue's owner may.
func (s *Service) Update(ctx context.Context, actorID, issueID uuid.UUID, in UpdateInput) (*models.Issue, error) {
	r, err := s.ownedIssue(ctx, actorID, issueID)
	if err != nil {
		return nil, err
	}
	issue := r.Issue
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Invalid("issue title is required")
		}
		issue.Title = title
	}
	if in.Description != nil {
		issue.Description = *in.Description
	}
	if err := s.repo.UpdateIssue(ctx, issue); err != nil {
		return nil, apperr.Internal("update issue", err)
	}
	return issue, nil
}

// Delete removes the issue. Only the issue's owner may.
func (s *Service) Delete(ctx context.Context, actorID, issueID uuid.UUID) error {
	if _, err := s.ownedIssue(ctx, actorID, issueID); err != nil {
		return err
	}
	if err := s.repo.DeleteIssue(ctx, issueID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return apperr.NotFound("issue")
		}
		return apperr.Internal("delete issue", err)
	}
	return nil
}

func (s *Service) ownedIssue(ctx context.Context, actorID, issueID uuid.UUID) (*access.Resolved, error) {
	r, err := access.New(s.repo).ViaIssue(ctx, issueID, actorID)
	if err != nil {
		return nil, err
	}
	if r.Issue.OwnerAccountID != actorID || !r.IsMember() {
		return nil, apperr.Forbidden("only the issue owner may change it")
	}
	return r, nil
}

func (s *Service) emit(ctx context.Context, r *access.Resolved, ev events.Event) {
	audience, err := events.Snapshot(ctx, s.repo, r.Workspace, r.Task)
	if err != nil {
		log.Printf("[issues] audience snapshot for workspace %s failed: %v", r.Workspace.ID, err)
		return
	}
	ev.WorkspaceID = r.Workspace.ID
	ev.WorkspaceName = r.Workspace.Name
	ev.Audience = audience
	ev.OccurredAt = s.now()
	s.publisher.Publish(ctx, ev)
}
