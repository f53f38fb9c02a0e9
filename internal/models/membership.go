package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership is the (workspace, account, role) relationship that grants access.
// The pair is the primary key, so an account holds at most one role per workspace.
type Membership struct {
	WorkspaceID uuid.UUID `gorm:"type:uuid;primaryKey" json:"workspace_id"`
	AccountID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"account_id"`
	Role        Role      `gorm:"column:role;not null;default:'member'" json:"role"`
	JoinedAt    time.Time `gorm:"column:joined_at" json:"joined_at"`
}

// TableName specifies the table name for the Membership model
func (Membership) TableName() string {
	return "workspace_memberships"
}

// BeforeCreate sets the joined_at timestamp if not set
func (wm *Membership) BeforeCreate(tx *gorm.DB) error {
	if wm.JoinedAt.IsZero() {
		wm.JoinedAt = time.Now()
	}
	return nil
}

// IsOwner checks if the membership has owner role
func (wm *Membership) IsOwner() bool {
	return wm.Role == RoleOwner
}

// CanManageMembers checks if the membership can manage other members
func (wm *Membership) CanManageMembers() bool {
	return wm.Role.AtLeastAdmin()
}

// MembershipManager provides ORM methods for Membership
type MembershipManager struct {
	db *gorm.DB
}

// NewMembershipManager creates a new MembershipManager instance
func NewMembershipManager(db *gorm.DB) *MembershipManager {
	return &MembershipManager{db: db}
}

// CreateMembership inserts a membership, returning ErrDuplicate when the pair exists
func (m *MembershipManager) CreateMembership(ctx context.Context, membership *Membership) error {
	return translate(m.db.WithContext(ctx).Create(membership).Error)
}

// GetMembership retrieves the membership of an account in a workspace
func (m *MembershipManager) GetMembership(ctx context.Context, workspaceID, accountID uuid.UUID) (*Membership, error) {
	var membership Membership
	err := m.db.WithContext(ctx).
		Where("workspace_id = ? AND account_id = ?", workspaceID, accountID).
		First(&membership).Error
	if err != nil {
		return nil, translate(err)
	}
	return &membership, nil
}

// ListMemberships returns all memberships of a workspace in join order
func (m *MembershipManager) ListMemberships(ctx context.Context, workspaceID uuid.UUID) ([]Membership, error) {
	var memberships []Membership
	err := m.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("joined_at ASC, account_id ASC").
		Find(&memberships).Error
	return memberships, translate(err)
}

// UpdateMembershipRole changes the role of an existing membership
func (m *MembershipManager) UpdateMembershipRole(ctx context.Context, workspaceID, accountID uuid.UUID, role Role) error {
	result := m.db.WithContext(ctx).Model(&Membership{}).
		Where("workspace_id = ? AND account_id = ?", workspaceID, accountID).
		Update("role", role)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMembership removes an account from a workspace
func (m *MembershipManager) DeleteMembership(ctx context.Context, workspaceID, accountID uuid.UUID) error {
	result := m.db.WithContext(ctx).
		Where("workspace_id = ? AND account_id = ?", workspaceID, accountID).
		Delete(&Membership{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
