package notify

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"workhub/internal/events"
	"workhub/internal/models"
)

// Store persists notification rows.
type Store interface {
	// CreateNotification returns false when a row with the same recipient
	// and dedupe key already exists.
	CreateNotification(ctx context.Context, n *models.Notification) (bool, error)
	ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error)
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	SetNotificationRead(ctx context.Context, id uuid.UUID, read bool) error
	DeleteNotification(ctx context.Context, id uuid.UUID) error
	CountUnreadNotifications(ctx context.Context, recipientID uuid.UUID) (int, error)
}

// Report summarises the fan-out of one event.
type Report struct {
	Recipients int
	Written    int
	Duplicates int
	Failed     []uuid.UUID
}

// Dispatcher writes one notification per resolved recipient. Writes are
// independent: a failed write is logged and does not stop the others.
type Dispatcher struct {
	store       Store
	renderer    Renderer
	concurrency int
}

var _ events.Publisher = (*Dispatcher)(nil)

func NewDispatcher(store Store, baseURL string, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Dispatcher{store: store, renderer: Renderer{BaseURL: baseURL}, concurrency: concurrency}
}

// Publish fans out every event. It never reports failures to the caller.
func (d *Dispatcher) Publish(ctx context.Context, evs ...events.Event) {
	for _, ev := range evs {
		report := d.Dispatch(ctx, ev)
		if len(report.Failed) > 0 {
			log.Printf("[notify] %s: %d of %d notifications failed", ev.Type, len(report.Failed), report.Recipients)
		}
	}
}

// Dispatch resolves the recipients of ev and writes their notifications
// concurrently.
func (d *Dispatcher) Dispatch(ctx context.Context, ev events.Event) Report {
	recipients := Resolve(ev)
	report := Report{Recipients: len(recipients)}
	if len(recipients) == 0 {
		return report
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(d.concurrency)
	for _, id := range recipients {
		id := id
		g.Go(func() error {
			created, err := d.store.CreateNotification(ctx, d.renderer.Render(ev, id))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				log.Printf("[notify] %s for %s not written: %v", ev.Type, id, err)
				report.Failed = append(report.Failed, id)
			case created:
				report.Written++
			default:
				report.Duplicates++
			}
			return nil
		})
	}
	_ = g.Wait()
	return report
}
