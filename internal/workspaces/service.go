package workspaces

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"workhub/internal/access"
	"workhub/internal/apperr"
	"workhub/internal/events"
	"workhub/internal/membership"
	"workhub/internal/models"
)

type CreateInput struct {
	Name        string
	Description string
	TargetDate  *time.Time
}

// UpdateInput carries only the fields to change.
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *models.WorkspaceStatus
	TargetDate  *time.Time
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

// Create makes a workspace owned by the caller. The workspace row and the
// owner membership are written in one transaction.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*models.Workspace, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("workspace name is required")
	}

	ws := &models.Workspace{
		ID:             uuid.New(),
		OwnerAccountID: actorID,
		Name:           name,
		Description:    in.Description,
		Status:         models.WorkspaceActive,
		TargetDate:     in.TargetDate,
	}
	err := s.repo.Transaction(ctx, func(tx models.Repository) error {
		if err := tx.CreateWorkspace(ctx, ws); err != nil {
			return apperr.Internal("create workspace", err)
		}
		_, err := membership.AddOwner(ctx, tx, ws.ID, actorID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// Get returns a workspace the caller belongs to.
func (s *Service) Get(ctx context.Context, actorID, workspaceID uuid.UUID) (*models.Workspace, error) {
	r, err := access.New(s.repo).ViaWorkspace(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireMember(); err != nil {
		return nil, err
	}
	return r.Workspace, nil
}

// ListForAccount returns the caller's workspaces in join order.
func (s *Service) ListForAccount(ctx context.Context, actorID uuid.UUID) ([]models.Workspace, error) {
	list, err := s.repo.ListWorkspacesForAccount(ctx, actorID)
	if err != nil {
		return nil, apperr.Internal("list workspaces", err)
	}
	return list, nil
}

// Update changes workspace details and tells every other member.
func (s *Service) Update(ctx context.Context, actorID, workspaceID uuid.UUID, in UpdateInput) (*models.Workspace, error) {
	r, err := access.New(s.repo).ViaWorkspace(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireAdminOrOwner(); err != nil {
		return nil, err
	}

	ws := r.Workspace
	var changed []string
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Invalid("workspace name is required")
		}
		if name != ws.Name {
			ws.Name = name
			changed = append(changed, "name")
		}
	}
	if in.Description != nil && *in.Description != ws.Description {
		ws.Description = *in.Description
		changed = append(changed, "description")
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Invalid(fmt.Sprintf("unknown workspace status %q", *in.Status))
		}
		if *in.Status != ws.Status {
			ws.Status = *in.Status
			changed = append(changed, "status")
		}
	}
	if in.TargetDate != nil {
		ws.TargetDate = in.TargetDate
		changed = append(changed, "target date")
	}
	if len(changed) == 0 {
		return ws, nil
	}

	if err := s.repo.UpdateWorkspace(ctx, ws); err != nil {
		return nil, apperr.Internal("update workspace", err)
	}

	audience, err := events.Snapshot(ctx, s.repo, ws, nil)
	if err != nil {
		log.Printf("[workspaces] audience snapshot for workspace %s failed: %v", ws.ID, err)
		return ws, nil
	}
	s.publisher.Publish(ctx, events.Event{
		Type:          events.ProjectUpdate,
		ActorID:       actorID,
		WorkspaceID:   ws.ID,
		WorkspaceName: ws.Name,
		Detail:        strings.Join(changed, ", "),
		Audience:      audience,
		OccurredAt:    s.now(),
	})
	return ws, nil
}
