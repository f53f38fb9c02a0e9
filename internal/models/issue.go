package models

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Issue is a problem raised against a task
type Issue struct {
	ID                  uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID              uuid.UUID   `gorm:"type:uuid;column:task_id;not null" json:"task_id"`
	OwnerAccountID      uuid.UUID   `gorm:"type:uuid;column:owner_account_id;not null" json:"owner_account_id"`
	Title               string      `gorm:"column:title;not null" json:"title"`
	Description         string      `gorm:"column:description" json:"description"`
	Status              IssueStatus `gorm:"column:status;not null;default:'open'" json:"status"`
	LastStatusChangedBy *uuid.UUID  `gorm:"type:uuid;column:last_status_changed_by" json:"last_status_changed_by,omitempty"`
	Timestamps
}

// TableName specifies the table name for the Issue model
func (Issue) TableName() string {
	return "issues"
}

// IssueManager provides ORM methods for Issue
type IssueManager struct {
	db *gorm.DB
}

// NewIssueManager creates a new IssueManager instance
func NewIssueManager(db *gorm.DB) *IssueManager {
	return &IssueManager{db: db}
}

// CreateIssue creates a new issue
func (m *IssueManager) CreateIssue(ctx context.Context, issue *Issue) error {
	return translate(m.db.WithContext(ctx).Create(issue).Error)
}

// GetIssue retrieves an issue by ID
func (m *IssueManager) GetIssue(ctx context.Context, id uuid.UUID) (*Issue, error) {
	var issue Issue
	if err := m.db.WithContext(ctx).First(&issue, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &issue, nil
}

// UpdateIssue saves every column of the issue
func (m *IssueManager) UpdateIssue(ctx context.Context, issue *Issue) error {
	return translate(m.db.WithContext(ctx).Save(issue).Error)
}

// DeleteIssue deletes an issue by ID
func (m *IssueManager) DeleteIssue(ctx context.Context, id uuid.UUID) error {
	result := m.db.WithContext(ctx).Delete(&Issue{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListIssues returns the issues raised against a task, oldest first
func (m *IssueManager) ListIssues(ctx context.Context, taskID uuid.UUID) ([]Issue, error) {
	var issues []Issue
	err := m.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at ASC").Find(&issues).Error
	return issues, translate(err)
}

// DeleteTaskIssues deletes every issue of a task
func (m *IssueManager) DeleteTaskIssues(ctx context.Context, taskID uuid.UUID) error {
	return translate(m.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&Issue{}).Error)
}
