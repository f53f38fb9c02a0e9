// Package models provides GORM-backed entities and managers for accounts,
// workspaces, memberships, tasks, issues, comments and mail.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a lookup or conditional write matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write hits a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// JSONB handles JSON object storage
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("unsupported type for JSONB")
	}
}

// StringList stores attachment references as a JSON array
type StringList []string

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for StringList")
	}
}

// Notification is a per-recipient record produced by fan-out. It is
// persisted through the raw SQL store in internal/database, not GORM.
type Notification struct {
	ID                 uuid.UUID  `json:"id"`
	RecipientAccountID uuid.UUID  `json:"recipient_account_id"`
	Type               string     `json:"type"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Read               bool       `json:"read"`
	WorkspaceID        *uuid.UUID `json:"workspace_id,omitempty"`
	TaskID             *uuid.UUID `json:"task_id,omitempty"`
	IssueID            *uuid.UUID `json:"issue_id,omitempty"`
	CommentID          *uuid.UUID `json:"comment_id,omitempty"`
	ActionURL          string     `json:"action_url"`
	CreatedBy          *uuid.UUID `json:"created_by,omitempty"`
	DedupeKey          *string    `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
}
