// Package events defines the domain events emitted by the workflow services.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"workhub/internal/models"
)

// Type is the closed set of notification-producing events.
type Type string

const (
	TaskAssigned        Type = "TaskAssigned"
	TaskStatusChanged   Type = "TaskStatusChanged"
	TaskCompleted       Type = "TaskCompleted"
	CommentAdded        Type = "CommentAdded"
	IssueCreated        Type = "IssueCreated"
	IssueResolved       Type = "IssueResolved"
	ProjectInvite       Type = "ProjectInvite"
	ProjectUpdate       Type = "ProjectUpdate"
	ProjectRemoved      Type = "ProjectRemoved"
	DeadlineApproaching Type = "DeadlineApproaching"
)

// Types lists every event type.
var Types = []Type{
	TaskAssigned, TaskStatusChanged, TaskCompleted, CommentAdded, IssueCreated,
	IssueResolved, ProjectInvite, ProjectUpdate, ProjectRemoved, DeadlineApproaching,
}

// Audience is the snapshot of workspace relationships taken when the event
// was emitted. Recipient resolution reads only this snapshot.
type Audience struct {
	OwnerID     uuid.UUID
	AdminIDs    []uuid.UUID // admins, not including the owner
	MemberIDs   []uuid.UUID // every member, owner included
	AssigneeIDs []uuid.UUID
}

// Event is a fact about a successful mutation.
type Event struct {
	Type          Type
	ActorID       uuid.UUID // uuid.Nil for system-originated events
	WorkspaceID   uuid.UUID
	WorkspaceName string
	TaskID        uuid.UUID
	IssueID       uuid.UUID
	CommentID     uuid.UUID
	MailID        uuid.UUID
	Subject       string    // title of the task or issue involved
	Detail        string    // status, role or change summary
	TargetID      uuid.UUID // the single account the event is about, if any
	Audience      Audience
	OccurredAt    time.Time
	DedupeKey     string
}

// NewAudience snapshots a workspace's memberships and, when given, a task's assignees.
func NewAudience(ws *models.Workspace, members []models.Membership, task *models.Task) Audience {
	a := Audience{OwnerID: ws.OwnerAccountID}
	for _, m := range members {
		a.MemberIDs = append(a.MemberIDs, m.AccountID)
		if m.Role == models.RoleAdmin {
			a.AdminIDs = append(a.AdminIDs, m.AccountID)
		}
	}
	if task != nil {
		a.AssigneeIDs = append([]uuid.UUID{}, task.AssignedTo...)
	}
	return a
}

// Publisher receives events after the mutation that produced them committed.
// Implementations must not report delivery failures back to the caller.
type Publisher interface {
	Publish(ctx context.Context, evs ...Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, ...Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, evs ...Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evs...)
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events of one type.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Snapshot loads the workspace memberships and builds the audience.
func Snapshot(ctx context.Context, store models.MembershipStore, ws *models.Workspace, task *models.Task) (Audience, error) {
	members, err := store.ListMemberships(ctx, ws.ID)
	if err != nil {
		return Audience{}, err
	}
	return NewAudience(ws, members, task), nil
}
