package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence surface the workflow services depend on.
// *DB implements it over Postgres; tests use an in-memory implementation.
type Repository interface {
	// Transaction runs fn against a repository bound to one transaction.
	// Any error returned by fn rolls every write back.
	Transaction(ctx context.Context, fn func(Repository) error) error

	AccountStore
	WorkspaceStore
	MembershipStore
	TaskStore
	IssueStore
	CommentStore
	MailStore
}

type AccountStore interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
}

type WorkspaceStore interface {
	CreateWorkspace(ctx context.Context, workspace *Workspace) error
	GetWorkspace(ctx context.Context, id uuid.UUID) (*Workspace, error)
	UpdateWorkspace(ctx context.Context, workspace *Workspace) error
	ListWorkspacesForAccount(ctx context.Context, accountID uuid.UUID) ([]Workspace, error)
}

type MembershipStore interface {
	CreateMembership(ctx context.Context, membership *Membership) error
	GetMembership(ctx context.Context, workspaceID, accountID uuid.UUID) (*Membership, error)
	ListMemberships(ctx context.Context, workspaceID uuid.UUID) ([]Membership, error)
	UpdateMembershipRole(ctx context.Context, workspaceID, accountID uuid.UUID, role Role) error
	DeleteMembership(ctx context.Context, workspaceID, accountID uuid.UUID) error
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id uuid.UUID) (*Task, error)
	UpdateTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ListTasks(ctx context.Context, workspaceID uuid.UUID) ([]Task, error)
	ListTasksDueBetween(ctx context.Context, from, to time.Time) ([]Task, error)
	RemoveAssigneeFromWorkspace(ctx context.Context, workspaceID, accountID uuid.UUID) error
}

type IssueStore interface {
	CreateIssue(ctx context.Context, issue *Issue) error
	GetIssue(ctx context.Context, id uuid.UUID) (*Issue, error)
	UpdateIssue(ctx context.Context, issue *Issue) error
	DeleteIssue(ctx context.Context, id uuid.UUID) error
	ListIssues(ctx context.Context, taskID uuid.UUID) ([]Issue, error)
	DeleteTaskIssues(ctx context.Context, taskID uuid.UUID) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListComments(ctx context.Context, taskID uuid.UUID) ([]Comment, error)
	DeleteTaskComments(ctx context.Context, taskID uuid.UUID) error
}

type MailStore interface {
	CreateMail(ctx context.Context, mail *Mail) error
	GetMail(ctx context.Context, id uuid.UUID) (*Mail, error)
	ListMailForRecipient(ctx context.Context, accountID uuid.UUID) ([]Mail, error)
	HasPendingInvitation(ctx context.Context, workspaceID, recipientID uuid.UUID) (bool, error)
	DecideInvitation(ctx context.Context, id uuid.UUID, status InvitationStatus) (bool, error)
	SetMailRead(ctx context.Context, id uuid.UUID, read bool) error
}
