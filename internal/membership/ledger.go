// Package membership owns workspace membership, roles and the owner invariant.
package membership

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"workhub/internal/access"
	"workhub/internal/apperr"
	"workhub/internal/events"
	"workhub/internal/models"
)

// Member is a membership joined with the account it belongs to.
type Member struct {
	AccountID   uuid.UUID   `json:"account_id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	Role        models.Role `json:"role"`
	JoinedAt    time.Time   `json:"joined_at"`
}

type Ledger struct {
	repo      models.Repository
	publisher events.Publisher
	now       func() time.Time
}

func NewLedger(repo models.Repository, publisher events.Publisher) *Ledger {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Ledger{repo: repo, publisher: publisher, now: time.Now}
}

// Add inserts a non-owner membership. It is shared with the invitation
// workflow so acceptance can run inside the caller's transaction.
func Add(ctx context.Context, repo models.Repository, workspaceID, accountID uuid.UUID, role models.Role, joinedAt time.Time) (*models.Membership, error) {
	if role == "" {
		role = models.RoleMember
	}
	if role == models.RoleOwner {
		return nil, apperr.Invalid("the owner role cannot be granted")
	}
	if !role.Valid() {
		return nil, apperr.Invalid("unknown role " + string(role))
	}
	return insert(ctx, repo, workspaceID, accountID, role, joinedAt)
}

// AddOwner inserts the single owner membership of a new workspace.
func AddOwner(ctx context.Context, repo models.Repository, workspaceID, accountID uuid.UUID, joinedAt time.Time) (*models.Membership, error) {
	return insert(ctx, repo, workspaceID, accountID, models.RoleOwner, joinedAt)
}

func insert(ctx context.Context, repo models.Repository, workspaceID, accountID uuid.UUID, role models.Role, joinedAt time.Time) (*models.Membership, error) {
	if _, err := repo.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, apperr.NotFound("account")
		}
		return nil, apperr.Internal("look up account", err)
	}

	m := &models.Membership{
		WorkspaceID: workspaceID,
		AccountID:   accountID,
		Role:        role,
		JoinedAt:    joinedAt,
	}
	if err := repo.CreateMembership(ctx, m); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, apperr.ErrAlreadyMember
		}
		return nil, apperr.Internal("create membership", err)
	}
	return m, nil
}

// AddMember adds account to the workspace. The caller must be admin or owner.
func (l *Ledger) AddMember(ctx context.Context, actorID, workspaceID, accountID uuid.UUID, role models.Role) (*models.Membership, error) {
	r, err := access.New(l.repo).ViaWorkspace(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireAdminOrOwner(); err != nil {
		return nil, err
	}
	return Add(ctx, l.repo, workspaceID, accountID, role, l.now())
}

// RemoveMember removes account from the workspace and from every task
// assignment in it. Members may remove themselves; removing anyone else
// requires admin or owner. The owner can never be removed.
func (l *Ledger) RemoveMember(ctx context.Context, actorID, workspaceID, accountID uuid.UUID) error {
	r, err := access.New(l.repo).ViaWorkspace(ctx, workspaceID, actorID)
	if err != nil {
		return err
	}
	if actorID == accountID {
		err = r.RequireMember()
	} else {
		err = r.RequireAdminOrOwner()
	}
	if err != nil {
		return err
	}

	target, err := l.membership(ctx, l.repo, workspaceID, accountID)
	if err != nil {
		return err
	}
	if target.IsOwner() || r.Workspace.OwnerAccountID == accountID {
		return apperr.ErrCannotRemoveOwner
	}

	err = l.repo.Transaction(ctx, func(tx models.Repository) error {
		if err := tx.DeleteMembership(ctx, workspaceID, accountID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return apperr.ErrNotMember
			}
			return apperr.Internal("delete membership", err)
		}
		if err := tx.RemoveAssigneeFromWorkspace(ctx, workspaceID, accountID); err != nil {
			return apperr.Internal("prune task assignments", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if actorID != accountID {
		l.publisher.Publish(ctx, events.Event{
			Type:          events.ProjectRemoved,
			ActorID:       actorID,
			WorkspaceID:   workspaceID,
			WorkspaceName: r.Workspace.Name,
			TargetID:      accountID,
			OccurredAt:    l.now(),
		})
	}
	log.Printf("[membership] account %s removed from workspace %s by %s", accountID, workspaceID, actorID)
	return nil
}

// UpdateRole changes a member's role between admin and member. Setting the
// current role again is a no-op. The owner's role is fixed.
func (l *Ledger) UpdateRole(ctx context.Context, actorID, workspaceID, accountID uuid.UUID, role models.Role) (*models.Membership, error) {
	r, err := access.New(l.repo).ViaWorkspace(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireAdminOrOwner(); err != nil {
		return nil, err
	}
	if role == models.RoleOwner {
		return nil, apperr.Invalid("ownership cannot be transferred")
	}
	if !role.Valid() {
		return nil, apperr.Invalid("unknown role " + string(role))
	}

	target, err := l.membership(ctx, l.repo, workspaceID, accountID)
	if err != nil {
		return nil, err
	}
	if target.IsOwner() {
		return nil, apperr.ErrCannotRemoveOwner
	}
	if target.Role == role {
		return target, nil
	}

	if err := l.repo.UpdateMembershipRole(ctx, workspaceID, accountID, role); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, apperr.ErrNotMember
		}
		return nil, apperr.Internal("update role", err)
	}
	target.Role = role
	return target, nil
}

// GetMembers lists the workspace's members in join order. Members only.
func (l *Ledger) GetMembers(ctx context.Context, actorID, workspaceID uuid.UUID) ([]Member, error) {
	r, err := access.New(l.repo).ViaWorkspace(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if err := r.RequireMember(); err != nil {
		return nil, err
	}

	memberships, err := l.repo.ListMemberships(ctx, workspaceID)
	if err != nil {
		return nil, apperr.Internal("list memberships", err)
	}
	members := make([]Member, 0, len(memberships))
	for _, m := range memberships {
		account, err := l.repo.GetAccount(ctx, m.AccountID)
		if err != nil {
			return nil, apperr.Internal("look up member account", err)
		}
		members = append(members, Member{
			AccountID:   m.AccountID,
			Email:       account.Email,
			DisplayName: account.DisplayName,
			Role:        m.Role,
			JoinedAt:    m.JoinedAt,
		})
	}
	return members, nil
}

func (l *Ledger) membership(ctx context.Context, repo models.Repository, workspaceID, accountID uuid.UUID) (*models.Membership, error) {
	m, err := repo.GetMembership(ctx, workspaceID, accountID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.ErrNotMember
	}
	if err != nil {
		return nil, apperr.Internal("look up membership", err)
	}
	return m, nil
}
