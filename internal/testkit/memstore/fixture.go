package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"workhub/internal/models"
)

// Fixture is a workspace with an owner, one admin, one member and one outsider.
type Fixture struct {
	Store     *Store
	Workspace models.Workspace
	Owner     models.Account
	Admin     models.Account
	Member    models.Account
	Outsider  models.Account

	joined time.Time
	n      int
}

func NewFixture() *Fixture {
	s := New()
	f := &Fixture{Store: s, joined: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	f.Owner = s.MustAccount("owner@example.com")
	f.Workspace = models.Workspace{OwnerAccountID: f.Owner.ID, Name: "Apollo", Status: models.WorkspaceActive}
	if err := s.CreateWorkspace(context.Background(), &f.Workspace); err != nil {
		panic(err)
	}
	f.join(f.Owner.ID, models.RoleOwner)
	f.Admin = f.AddMember(models.RoleAdmin)
	f.Member = f.AddMember(models.RoleMember)
	f.Outsider = s.MustAccount("outsider@example.com")
	return f
}

// AddMember creates a new account and joins it with role.
func (f *Fixture) AddMember(role models.Role) models.Account {
	f.n++
	account := f.Store.MustAccount(fmt.Sprintf("%s%d@example.com", role, f.n))
	f.join(account.ID, role)
	return account
}

func (f *Fixture) join(accountID uuid.UUID, role models.Role) {
	f.joined = f.joined.Add(time.Minute)
	m := models.Membership{WorkspaceID: f.Workspace.ID, AccountID: accountID, Role: role, JoinedAt: f.joined}
	if err := f.Store.CreateMembership(context.Background(), &m); err != nil {
		panic(err)
	}
}

// AddTask stores a todo task created by the owner.
func (f *Fixture) AddTask(title string, assignees ...uuid.UUID) models.Task {
	task := models.Task{
		WorkspaceID: f.Workspace.ID,
		CreatedBy:   f.Owner.ID,
		Title:       title,
		Status:      models.TaskTodo,
		Priority:    models.PriorityNone,
		AssignedTo:  append([]uuid.UUID{}, assignees...),
	}
	if err := f.Store.CreateTask(context.Background(), &task); err != nil {
		panic(err)
	}
	return task
}

// AddIssue stores an open issue on a task.
func (f *Fixture) AddIssue(taskID, ownerID uuid.UUID, title string) models.Issue {
	issue := models.Issue{TaskID: taskID, OwnerAccountID: ownerID, Title: title, Status: models.IssueOpen}
	if err := f.Store.CreateIssue(context.Background(), &issue); err != nil {
		panic(err)
	}
	return issue
}

// AddComment stores a comment on a task.
func (f *Fixture) AddComment(taskID, authorID uuid.UUID, content string) models.Comment {
	comment := models.Comment{TaskID: taskID, AuthorAccountID: authorID, Content: content}
	if err := f.Store.CreateComment(context.Background(), &comment); err != nil {
		panic(err)
	}
	return comment
}
