package notify

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"workhub/internal/events"
	"workhub/internal/models"
)

// Renderer builds the user-facing text and link of a notification.
type Renderer struct {
	BaseURL string
}

// Render builds the notification for one recipient of ev.
func (r Renderer) Render(ev events.Event, recipientID uuid.UUID) *models.Notification {
	title, description := text(ev)
	n := &models.Notification{
		ID:                 uuid.New(),
		RecipientAccountID: recipientID,
		Type:               string(ev.Type),
		Title:              title,
		Description:        description,
		WorkspaceID:        ref(ev.WorkspaceID),
		TaskID:             ref(ev.TaskID),
		IssueID:            ref(ev.IssueID),
		CommentID:          ref(ev.CommentID),
		ActionURL:          r.actionURL(ev),
		CreatedBy:          ref(ev.ActorID),
	}
	if ev.DedupeKey != "" {
		key := ev.DedupeKey
		n.DedupeKey = &key
	}
	if !ev.OccurredAt.IsZero() {
		n.CreatedAt = ev.OccurredAt
	}
	return n
}

func text(ev events.Event) (string, string) {
	switch ev.Type {
	case events.TaskAssigned:
		return "New task assigned", fmt.Sprintf("You were assigned to %q in %s", ev.Subject, ev.WorkspaceName)
	case events.TaskStatusChanged:
		return "Task status updated", fmt.Sprintf("%q is now %s", ev.Subject, ev.Detail)
	case events.TaskCompleted:
		return "Task completed", fmt.Sprintf("%q in %s was marked done", ev.Subject, ev.WorkspaceName)
	case events.CommentAdded:
		return "New comment", fmt.Sprintf("New comment on %q: %s", ev.Subject, excerpt(ev.Detail))
	case events.IssueCreated:
		return "New issue", fmt.Sprintf("Issue %q was opened in %s", ev.Subject, ev.WorkspaceName)
	case events.IssueResolved:
		return "Issue resolved", fmt.Sprintf("Your issue %q was resolved", ev.Subject)
	case events.ProjectInvite:
		return "Workspace invitation", fmt.Sprintf("You were invited to join %s as %s", ev.WorkspaceName, ev.Detail)
	case events.ProjectUpdate:
		return "Workspace updated", fmt.Sprintf("%s was updated: %s", ev.WorkspaceName, ev.Detail)
	case events.ProjectRemoved:
		return "Removed from workspace", fmt.Sprintf("You were removed from %s", ev.WorkspaceName)
	case events.DeadlineApproaching:
		return "Deadline approaching", fmt.Sprintf("%q is due %s", ev.Subject, ev.Detail)
	default:
		return string(ev.Type), ev.Subject
	}
}

func (r Renderer) actionURL(ev events.Event) string {
	base := strings.TrimRight(r.BaseURL, "/")
	switch {
	case ev.Type == events.ProjectInvite && ev.MailID != uuid.Nil:
		return fmt.Sprintf("%s/mail/%s", base, ev.MailID)
	case ev.Type == events.ProjectRemoved:
		return base + "/workspaces"
	case ev.IssueID != uuid.Nil:
		return fmt.Sprintf("%s/workspaces/%s/tasks/%s/issues/%s", base, ev.WorkspaceID, ev.TaskID, ev.IssueID)
	case ev.TaskID != uuid.Nil:
		return fmt.Sprintf("%s/workspaces/%s/tasks/%s", base, ev.WorkspaceID, ev.TaskID)
	case ev.WorkspaceID != uuid.Nil:
		return fmt.Sprintf("%s/workspaces/%s", base, ev.WorkspaceID)
	}
	return base
}

func excerpt(s string) string {
	const max = 80
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}

func ref(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
