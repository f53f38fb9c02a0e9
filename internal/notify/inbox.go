package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"workhub/internal/apperr"
	"workhub/internal/models"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Inbox exposes a recipient's notifications. Every call is scoped to the
// caller; other accounts' rows are Forbidden.
type Inbox struct {
	store Store
}

func NewInbox(store Store) *Inbox {
	return &Inbox{store: store}
}

// List returns the newest notifications first. A non-positive limit means
// DefaultLimit; anything above MaxLimit is capped.
func (i *Inbox) List(ctx context.Context, actorID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	list, err := i.store.ListNotifications(ctx, actorID, limit)
	if err != nil {
		return nil, apperr.Internal("list notifications", err)
	}
	return list, nil
}

func (i *Inbox) SetRead(ctx context.Context, actorID, id uuid.UUID, read bool) error {
	if _, err := i.owned(ctx, actorID, id); err != nil {
		return err
	}
	if err := i.store.SetNotificationRead(ctx, id, read); err != nil {
		return apperr.Internal("mark notification", err)
	}
	return nil
}

func (i *Inbox) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if _, err := i.owned(ctx, actorID, id); err != nil {
		return err
	}
	if err := i.store.DeleteNotification(ctx, id); err != nil {
		return apperr.Internal("delete notification", err)
	}
	return nil
}

func (i *Inbox) UnreadCount(ctx context.Context, actorID uuid.UUID) (int, error) {
	n, err := i.store.CountUnreadNotifications(ctx, actorID)
	if err != nil {
		return 0, apperr.Internal("count notifications", err)
	}
	return n, nil
}

func (i *Inbox) owned(ctx context.Context, actorID, id uuid.UUID) (*models.Notification, error) {
	n, err := i.store.GetNotification(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound("notification")
	}
	if err != nil {
		return nil, apperr.Internal("look up notification", err)
	}
	if n.RecipientAccountID != actorID {
		return nil, apperr.Forbidden("notification belongs to another account")
	}
	return n, nil
}
