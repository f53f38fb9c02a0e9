package models

import (
	"time"
)

// Custom types to match the CHECK constraints in the schema
type Role string
type WorkspaceStatus string
type TaskStatus string
type TaskPriority string
type SubmissionKind string
type IssueStatus string
type MailKind string
type InvitationStatus string

const (
	// Membership Roles
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"

	// Workspace Status
	WorkspaceActive    WorkspaceStatus = "active"
	WorkspaceArchived  WorkspaceStatus = "archived"
	WorkspaceCompleted WorkspaceStatus = "completed"

	// Task Status
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in-progress"
	TaskDone       TaskStatus = "done"
	TaskCancelled  TaskStatus = "cancelled"

	// Task Priority
	PriorityNone   TaskPriority = "no-priority"
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"

	// Submission Kinds
	SubmissionSubmitted SubmissionKind = "submission"
	SubmissionRejected  SubmissionKind = "rejection"

	// Issue Status
	IssueOpen       IssueStatus = "open"
	IssueInProgress IssueStatus = "in-progress"
	IssueResolved   IssueStatus = "resolved"
	IssueClosed     IssueStatus = "closed"

	// Mail Kinds
	MailInvitation MailKind = "invitation"

	// Invitation Status
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// AtLeastAdmin reports whether the role can manage the workspace.
func (r Role) AtLeastAdmin() bool {
	return r == RoleOwner || r == RoleAdmin
}

func (s WorkspaceStatus) Valid() bool {
	switch s {
	case WorkspaceActive, WorkspaceArchived, WorkspaceCompleted:
		return true
	}
	return false
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone, TaskCancelled:
		return true
	}
	return false
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueOpen, IssueInProgress, IssueResolved, IssueClosed:
		return true
	}
	return false
}

// Timestamps contains the bookkeeping columns shared by most tables
type Timestamps struct {
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}
