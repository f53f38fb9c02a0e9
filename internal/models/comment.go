package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is an append-only note on a task
type Comment struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID          uuid.UUID  `gorm:"type:uuid;column:task_id;not null" json:"task_id"`
	AuthorAccountID uuid.UUID  `gorm:"type:uuid;column:author_account_id;not null" json:"author_account_id"`
	Content         string     `gorm:"column:content;not null" json:"content"`
	Attachments     StringList `gorm:"column:attachments;type:jsonb;default:'[]'" json:"attachments"`
	CreatedAt       time.Time  `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for the Comment model
func (Comment) TableName() string {
	return "comments"
}

type CommentManager struct {
	db *gorm.DB
}

func NewCommentManager(db *gorm.DB) *CommentManager {
	return &CommentManager{db: db}
}

func (m *CommentManager) CreateComment(ctx context.Context, comment *Comment) error {
	return translate(m.db.WithContext(ctx).Create(comment).Error)
}

func (m *CommentManager) GetComment(ctx context.Context, id uuid.UUID) (*Comment, error) {
	var comment Comment
	if err := m.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

// ListComments returns a task's comments in the order they were written
func (m *CommentManager) ListComments(ctx context.Context, taskID uuid.UUID) ([]Comment, error) {
	var comments []Comment
	err := m.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at ASC").Find(&comments).Error
	return comments, translate(err)
}

func (m *CommentManager) DeleteTaskComments(ctx context.Context, taskID uuid.UUID) error {
	return translate(m.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&Comment{}).Error)
}
