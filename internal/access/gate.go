// Package access resolves a caller's role in a workspace, walking the
// Comment -> Task -> Workspace and Issue -> Task -> Workspace references.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"workhub/internal/apperr"
	"workhub/internal/models"
)

// Reader is the subset of the repository the gate reads from.
type Reader interface {
	models.WorkspaceStore
	models.MembershipStore
	models.TaskStore
	models.IssueStore
	models.CommentStore
}

// Gate answers authorization questions. It never writes.
type Gate struct {
	repo Reader
}

func New(repo Reader) *Gate {
	return &Gate{repo: repo}
}

// Resolved is the context a chain lookup produced. Role is empty when the
// caller is not a member of the workspace.
type Resolved struct {
	Workspace *models.Workspace
	Task      *models.Task
	Issue     *models.Issue
	Comment   *models.Comment
	Role      models.Role
}

func (r *Resolved) IsMember() bool {
	return r.Role != ""
}

func (r *Resolved) IsAdminOrOwner() bool {
	return r.Role.AtLeastAdmin()
}

func (r *Resolved) IsOwner() bool {
	return r.Role == models.RoleOwner
}

// RequireMember fails with Forbidden unless the caller belongs to the workspace.
func (r *Resolved) RequireMember() error {
	if !r.IsMember() {
		return apperr.Forbidden("not a member of this workspace")
	}
	return nil
}

// RequireAdminOrOwner fails with Forbidden unless the caller manages the workspace.
func (r *Resolved) RequireAdminOrOwner() error {
	if !r.IsAdminOrOwner() {
		return apperr.Forbidden("requires admin or owner role")
	}
	return nil
}

// RequireOwner fails with Forbidden unless the caller owns the workspace.
func (r *Resolved) RequireOwner() error {
	if !r.IsOwner() {
		return apperr.Forbidden("requires owner role")
	}
	return nil
}

// RoleOf returns the account's role in the workspace, or "" when it has none.
func (g *Gate) RoleOf(ctx context.Context, workspaceID, accountID uuid.UUID) (models.Role, error) {
	m, err := g.repo.GetMembership(ctx, workspaceID, accountID)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Internal("look up membership", err)
	}
	return m.Role, nil
}

func (g *Gate) IsMember(ctx context.Context, workspaceID, accountID uuid.UUID) (bool, error) {
	role, err := g.RoleOf(ctx, workspaceID, accountID)
	return role != "", err
}

func (g *Gate) IsAdminOrOwner(ctx context.Context, workspaceID, accountID uuid.UUID) (bool, error) {
	role, err := g.RoleOf(ctx, workspaceID, accountID)
	return role.AtLeastAdmin(), err
}

// ViaWorkspace loads the workspace and the caller's role in it.
func (g *Gate) ViaWorkspace(ctx context.Context, workspaceID, accountID uuid.UUID) (*Resolved, error) {
	ws, err := g.repo.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, lookupError("workspace", err)
	}
	role, err := g.RoleOf(ctx, ws.ID, accountID)
	if err != nil {
		return nil, err
	}
	return &Resolved{Workspace: ws, Role: role}, nil
}

// ViaTask walks Task -> Workspace.
func (g *Gate) ViaTask(ctx context.Context, taskID, accountID uuid.UUID) (*Resolved, error) {
	task, err := g.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, lookupError("task", err)
	}
	r, err := g.ViaWorkspace(ctx, task.WorkspaceID, accountID)
	if err != nil {
		return nil, err
	}
	r.Task = task
	return r, nil
}

// ViaIssue walks Issue -> Task -> Workspace.
func (g *Gate) ViaIssue(ctx context.Context, issueID, accountID uuid.UUID) (*Resolved, error) {
	issue, err := g.repo.GetIssue(ctx, issueID)
	if err != nil {
		return nil, lookupError("issue", err)
	}
	r, err := g.ViaTask(ctx, issue.TaskID, accountID)
	if err != nil {
		return nil, err
	}
	r.Issue = issue
	return r, nil
}

// ViaComment walks Comment -> Task -> Workspace.
func (g *Gate) ViaComment(ctx context.Context, commentID, accountID uuid.UUID) (*Resolved, error) {
	comment, err := g.repo.GetComment(ctx, commentID)
	if err != nil {
		return nil, lookupError("comment", err)
	}
	r, err := g.ViaTask(ctx, comment.TaskID, accountID)
	if err != nil {
		return nil, err
	}
	r.Comment = comment
	return r, nil
}

func lookupError(entity string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return apperr.NotFound(entity)
	}
	return apperr.Internal(fmt.Sprintf("look up %s", entity), err)
}
