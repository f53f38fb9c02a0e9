package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Task is a unit of work inside a workspace. AssignedTo is persisted in
// task_assignees; an empty list means any member may work on it.
type Task struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID uuid.UUID    `gorm:"type:uuid;column:workspace_id;not null" json:"workspace_id"`
	CreatedBy   uuid.UUID    `gorm:"type:uuid;column:created_by;not null" json:"created_by"`
	Title       string       `gorm:"column:title;not null" json:"title"`
	Description string       `gorm:"column:description" json:"description"`
	Status      TaskStatus   `gorm:"column:status;not null;default:'todo'" json:"status"`
	Priority    TaskPriority `gorm:"column:priority;not null;default:'no-priority'" json:"priority"`
	DueDate     *time.Time   `gorm:"column:due_date" json:"due_date,omitempty"`

	SubmissionBy          *uuid.UUID      `gorm:"type:uuid;column:submission_by" json:"-"`
	SubmissionKind        *SubmissionKind `gorm:"column:submission_kind" json:"-"`
	SubmissionMessage     string          `gorm:"column:submission_message" json:"-"`
	SubmissionAttachments StringList      `gorm:"column:submission_attachments;type:jsonb;default:'[]'" json:"-"`

	AssignedTo []uuid.UUID `gorm:"-" json:"assigned_to"`
	Timestamps
}

// Submission records who last marked a task done or sent it back, and why
type Submission struct {
	ByAccountID uuid.UUID      `json:"by_account_id"`
	Kind        SubmissionKind `json:"kind"`
	Message     string         `json:"message"`
	Attachments []string       `json:"attachments"`
}

// TableName specifies the table name for the Task model
func (Task) TableName() string {
	return "tasks"
}

// Submission returns the task's submission record, or nil when none was made
func (t *Task) Submission() *Submission {
	if t.SubmissionBy == nil || t.SubmissionKind == nil {
		return nil
	}
	return &Submission{
		ByAccountID: *t.SubmissionBy,
		Kind:        *t.SubmissionKind,
		Message:     t.SubmissionMessage,
		Attachments: append([]string(nil), t.SubmissionAttachments...),
	}
}

// SetSubmission replaces the submission record
func (t *Task) SetSubmission(s Submission) {
	by, kind := s.ByAccountID, s.Kind
	t.SubmissionBy = &by
	t.SubmissionKind = &kind
	t.SubmissionMessage = s.Message
	t.SubmissionAttachments = append(StringList{}, s.Attachments...)
}

// IsAssigned reports whether the account is one of the task's assignees
func (t *Task) IsAssigned(accountID uuid.UUID) bool {
	for _, id := range t.AssignedTo {
		if id == accountID {
			return true
		}
	}
	return false
}

// TaskAssignee joins a task to one of its assigned accounts
type TaskAssignee struct {
	TaskID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"task_id"`
	AccountID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"account_id"`
	AssignedAt time.Time `gorm:"column:assigned_at" json:"assigned_at"`
}

// TableName specifies the table name for the TaskAssignee model
func (TaskAssignee) TableName() string {
	return "task_assignees"
}

// TaskManager provides ORM methods for Task and its assignees
type TaskManager struct {
	db *gorm.DB
}

// NewTaskManager creates a new TaskManager instance
func NewTaskManager(db *gorm.DB) *TaskManager {
	return &TaskManager{db: db}
}

// CreateTask inserts the task and its assignee rows
func (m *TaskManager) CreateTask(ctx context.Context, task *Task) error {
	return translate(m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return insertAssignees(tx, task.ID, task.AssignedTo)
	}))
}

// GetTask retrieves a task with its assignees
func (m *TaskManager) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	db := m.db.WithContext(ctx)
	var task Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	tasks := []Task{task}
	if err := loadAssignees(db, tasks); err != nil {
		return nil, translate(err)
	}
	return &tasks[0], nil
}

// UpdateTask saves the task and reconciles its assignee rows with AssignedTo
func (m *TaskManager) UpdateTask(ctx context.Context, task *Task) error {
	return translate(m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Save(task)
		if result.Error != nil {
			return result.Error
		}
		stale := tx.Where("task_id = ?", task.ID)
		if len(task.AssignedTo) > 0 {
			stale = stale.Where("account_id NOT IN ?", task.AssignedTo)
		}
		if err := stale.Delete(&TaskAssignee{}).Error; err != nil {
			return err
		}
		return insertAssignees(tx, task.ID, task.AssignedTo)
	}))
}

// DeleteTask deletes a task row; its assignee rows go with it
func (m *TaskManager) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return translate(m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&TaskAssignee{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Task{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}))
}

// ListTasks returns the tasks of a workspace, oldest first
func (m *TaskManager) ListTasks(ctx context.Context, workspaceID uuid.UUID) ([]Task, error) {
	db := m.db.WithContext(ctx)
	var tasks []Task
	if err := db.Where("workspace_id = ?", workspaceID).Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, translate(err)
	}
	return tasks, translate(loadAssignees(db, tasks))
}

// ListTasksDueBetween returns open tasks whose due date falls in [from, to)
func (m *TaskManager) ListTasksDueBetween(ctx context.Context, from, to time.Time) ([]Task, error) {
	db := m.db.WithContext(ctx)
	var tasks []Task
	err := db.Where("due_date >= ? AND due_date < ? AND status NOT IN ?",
		from, to, []TaskStatus{TaskDone, TaskCancelled}).
		Order("due_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, translate(err)
	}
	return tasks, translate(loadAssignees(db, tasks))
}

// RemoveAssigneeFromWorkspace drops an account from every task of a workspace
func (m *TaskManager) RemoveAssigneeFromWorkspace(ctx context.Context, workspaceID, accountID uuid.UUID) error {
	err := m.db.WithContext(ctx).
		Where("account_id = ? AND task_id IN (?)", accountID,
			m.db.Model(&Task{}).Select("id").Where("workspace_id = ?", workspaceID)).
		Delete(&TaskAssignee{}).Error
	return translate(err)
}

func insertAssignees(tx *gorm.DB, taskID uuid.UUID, accountIDs []uuid.UUID) error {
	if len(accountIDs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]TaskAssignee, 0, len(accountIDs))
	for i, id := range accountIDs {
		// keep insertion order stable for reads ordered by assigned_at
		rows = append(rows, TaskAssignee{TaskID: taskID, AccountID: id, AssignedAt: now.Add(time.Duration(i) * time.Microsecond)})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func loadAssignees(db *gorm.DB, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(tasks))
	index := make(map[uuid.UUID]int, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		index[tasks[i].ID] = i
		tasks[i].AssignedTo = []uuid.UUID{}
	}
	var rows []TaskAssignee
	err := db.Where("task_id IN ?", ids).Order("assigned_at ASC, account_id ASC").Find(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		i := index[row.TaskID]
		tasks[i].AssignedTo = append(tasks[i].AssignedTo, row.AccountID)
	}
	return nil
}
