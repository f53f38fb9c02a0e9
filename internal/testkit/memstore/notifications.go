package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"workhub/internal/models"
)

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) (bool, error) {
	st, done, err := s.begin("CreateNotification")
	defer done()
	if err != nil {
		return false, err
	}
	if n.DedupeKey != nil {
		for _, existing := range st.notifications {
			if existing.RecipientAccountID == n.RecipientAccountID &&
				existing.DedupeKey != nil && *existing.DedupeKey == *n.DedupeKey {
				return false, nil
			}
		}
	}
	ensureID(&n.ID)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	st.notifications[n.ID] = *n
	st.order[n.ID] = st.next()
	return true, nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error) {
	st, done, err := s.begin("ListNotifications")
	defer done()
	if err != nil {
		return nil, err
	}
	var out []models.Notification
	for _, n := range st.notifications {
		if n.RecipientAccountID == recipientID {
			out = append(out, n)
		}
	}
	sortByOrder(st, out, func(n models.Notification) uuid.UUID { return n.ID }, true)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	st, done, err := s.begin("GetNotification")
	defer done()
	if err != nil {
		return nil, err
	}
	n, ok := st.notifications[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &n, nil
}

func (s *Store) SetNotificationRead(ctx context.Context, id uuid.UUID, read bool) error {
	st, done, err := s.begin("SetNotificationRead")
	defer done()
	if err != nil {
		return err
	}
	n, ok := st.notifications[id]
	if !ok {
		return models.ErrNotFound
	}
	n.Read = read
	st.notifications[id] = n
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	st, done, err := s.begin("DeleteNotification")
	defer done()
	if err != nil {
		return err
	}
	if _, ok := st.notifications[id]; !ok {
		return models.ErrNotFound
	}
	delete(st.notifications, id)
	return nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, recipientID uuid.UUID) (int, error) {
	st, done, err := s.begin("CountUnreadNotifications")
	defer done()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range st.notifications {
		if n.RecipientAccountID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

// Notifications returns every stored notification for a recipient, oldest first.
func (s *Store) Notifications(recipientID uuid.UUID) []models.Notification {
	st, done, _ := s.begin("")
	defer done()
	var out []models.Notification
	for _, n := range st.notifications {
		if n.RecipientAccountID == recipientID {
			out = append(out, n)
		}
	}
	sortByOrder(st, out, func(n models.Notification) uuid.UUID { return n.ID }, false)
	return out
}

// AllNotifications returns the number of stored notifications.
func (s *Store) AllNotifications() int {
	st, done, _ := s.begin("")
	defer done()
	return len(st.notifications)
}
