package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workspace represents a shared project container
type Workspace struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerAccountID uuid.UUID       `gorm:"type:uuid;column:owner_account_id;not null" json:"owner_account_id"`
	Name           string          `gorm:"column:name;not null" json:"name"`
	Description    string          `gorm:"column:description" json:"description"`
	Status         WorkspaceStatus `gorm:"column:status;default:'active'" json:"status"`
	TargetDate     *time.Time      `gorm:"column:target_date" json:"target_date,omitempty"`
	Timestamps
}

// TableName specifies the table name for the Workspace model
func (Workspace) TableName() string {
	return "workspaces"
}

// BeforeCreate defaults the status of a new workspace
func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.Status == "" {
		w.Status = WorkspaceActive
	}
	return nil
}

// WorkspaceManager provides ORM methods for Workspace
type WorkspaceManager struct {
	db *gorm.DB
}

// NewWorkspaceManager creates a new WorkspaceManager instance
func NewWorkspaceManager(db *gorm.DB) *WorkspaceManager {
	return &WorkspaceManager{db: db}
}

// CreateWorkspace creates a new workspace
func (m *WorkspaceManager) CreateWorkspace(ctx context.Context, workspace *Workspace) error {
	return translate(m.db.WithContext(ctx).Create(workspace).Error)
}

// GetWorkspace retrieves a workspace by ID
func (m *WorkspaceManager) GetWorkspace(ctx context.Context, id uuid.UUID) (*Workspace, error) {
	var workspace Workspace
	if err := m.db.WithContext(ctx).First(&workspace, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &workspace, nil
}

// UpdateWorkspace saves every column of the workspace
func (m *WorkspaceManager) UpdateWorkspace(ctx context.Context, workspace *Workspace) error {
	return translate(m.db.WithContext(ctx).Save(workspace).Error)
}

// ListWorkspacesForAccount derives an account's workspaces from its memberships
func (m *WorkspaceManager) ListWorkspacesForAccount(ctx context.Context, accountID uuid.UUID) ([]Workspace, error) {
	var workspaces []Workspace
	err := m.db.WithContext(ctx).
		Joins("JOIN workspace_memberships ON workspace_memberships.workspace_id = workspaces.id").
		Where("workspace_memberships.account_id = ?", accountID).
		Order("workspace_memberships.joined_at ASC").
		Find(&workspaces).Error
	return workspaces, translate(err)
}
