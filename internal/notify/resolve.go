// Package notify turns domain events into per-recipient notification rows.
package notify

import (
	"github.com/google/uuid"

	"workhub/internal/events"
)

// Resolve returns the deduplicated recipients of an event, in first-seen
// order. It reads only the event and its audience snapshot. The actor is
// never a recipient.
func Resolve(ev events.Event) []uuid.UUID {
	a := ev.Audience

	var candidates []uuid.UUID
	switch ev.Type {
	case events.TaskAssigned, events.IssueResolved, events.ProjectInvite, events.ProjectRemoved:
		candidates = []uuid.UUID{ev.TargetID}
	case events.TaskStatusChanged, events.DeadlineApproaching:
		candidates = a.AssigneeIDs
	case events.TaskCompleted, events.IssueCreated:
		candidates = append([]uuid.UUID{a.OwnerID}, a.AdminIDs...)
	case events.CommentAdded:
		candidates = append(append([]uuid.UUID{}, a.AssigneeIDs...), a.OwnerID)
	case events.ProjectUpdate:
		candidates = a.MemberIDs
	}

	seen := make(map[uuid.UUID]struct{}, len(candidates))
	var out []uuid.UUID
	for _, id := range candidates {
		if id == uuid.Nil || id == ev.ActorID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
