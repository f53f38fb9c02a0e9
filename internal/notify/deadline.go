package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"workhub/internal/events"
	"workhub/internal/models"
)

// DueTasks is the read side the sweeper needs.
type DueTasks interface {
	ListTasksDueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error)
	GetWorkspace(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
}

// DeadlineSweeper emits DeadlineApproaching for open tasks due inside the
// window. Each event carries a dedupe key bound to the task and its due
// date, so a task is announced once per due date however often it sweeps.
type DeadlineSweeper struct {
	tasks     DueTasks
	publisher events.Publisher
	window    time.Duration
	now       func() time.Time
}

func NewDeadlineSweeper(tasks DueTasks, publisher events.Publisher, window time.Duration) *DeadlineSweeper {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &DeadlineSweeper{tasks: tasks, publisher: publisher, window: window, now: time.Now}
}

// DeadlineKey identifies one announcement of a task's due date.
func DeadlineKey(taskID uuid.UUID, due time.Time) string {
	return fmt.Sprintf("deadline:%s:%s", taskID, due.UTC().Format("2006-01-02"))
}

// Sweep publishes one event per due task with assignees and returns how
// many it published.
func (s *DeadlineSweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.tasks.ListTasksDueBetween(ctx, now, now.Add(s.window))
	if err != nil {
		return 0, fmt.Errorf("list due tasks: %w", err)
	}

	workspaces := make(map[uuid.UUID]*models.Workspace)
	var evs []events.Event
	for _, task := range due {
		if task.DueDate == nil || len(task.AssignedTo) == 0 {
			continue
		}
		ws, ok := workspaces[task.WorkspaceID]
		if !ok {
			ws, err = s.tasks.GetWorkspace(ctx, task.WorkspaceID)
			if err != nil {
				log.Printf("[notify] deadline sweep: workspace %s: %v", task.WorkspaceID, err)
				continue
			}
			workspaces[task.WorkspaceID] = ws
		}
		evs = append(evs, events.Event{
			Type:          events.DeadlineApproaching,
			WorkspaceID:   ws.ID,
			WorkspaceName: ws.Name,
			TaskID:        task.ID,
			Subject:       task.Title,
			Detail:        task.DueDate.UTC().Format("Jan 2, 15:04 MST"),
			Audience:      events.Audience{OwnerID: ws.OwnerAccountID, AssigneeIDs: append([]uuid.UUID{}, task.AssignedTo...)},
			OccurredAt:    now,
			DedupeKey:     DeadlineKey(task.ID, *task.DueDate),
		})
	}
	if len(evs) > 0 {
		s.publisher.Publish(ctx, evs...)
	}
	return len(evs), nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *DeadlineSweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := s.Sweep(ctx); err != nil {
			log.Printf("[notify] deadline sweep failed: %v", err)
		} else if n > 0 {
			log.Printf("[notify] deadline sweep announced %d tasks", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
