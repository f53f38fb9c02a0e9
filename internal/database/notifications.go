package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"workhub/internal/models"
)

const notificationColumns = `id, recipient_account_id, type, title, description, read,
	workspace_id, task_id, issue_id, comment_id, action_url, created_by, dedupe_key, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	n := &models.Notification{}
	err := row.Scan(
		&n.ID,
		&n.RecipientAccountID,
		&n.Type,
		&n.Title,
		&n.Description,
		&n.Read,
		&n.WorkspaceID,
		&n.TaskID,
		&n.IssueID,
		&n.CommentID,
		&n.ActionURL,
		&n.CreatedBy,
		&n.DedupeKey,
		&n.CreatedAt,
	)
	return n, err
}

// CreateNotification inserts a notification. It reports false when the
// recipient already has a row with the same dedupe key.
func (s *service) CreateNotification(ctx context.Context, n *models.Notification) (bool, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	var createdAt any
	if !n.CreatedAt.IsZero() {
		createdAt = n.CreatedAt
	}

	query := `
		INSERT INTO notifications (id, recipient_account_id, type, title, description, read,
			workspace_id, task_id, issue_id, comment_id, action_url, created_by, dedupe_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, COALESCE($14::timestamptz, NOW()))
		ON CONFLICT (recipient_account_id, dedupe_key) DO NOTHING
		RETURNING created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		n.ID,
		n.RecipientAccountID,
		n.Type,
		n.Title,
		n.Description,
		n.Read,
		n.WorkspaceID,
		n.TaskID,
		n.IssueID,
		n.CommentID,
		n.ActionURL,
		n.CreatedBy,
		n.DedupeKey,
		createdAt,
	).Scan(&n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}
	return true, nil
}

// ListNotifications retrieves the newest notifications of a recipient
func (s *service) ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *service) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// SetNotificationRead toggles the read flag of a notification
func (s *service) SetNotificationRead(ctx context.Context, id uuid.UUID, read bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = $2 WHERE id = $1`, id, read)
	if err != nil {
		return fmt.Errorf("failed to mark notification: %w", err)
	}
	return expectOne(result)
}

func (s *service) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return expectOne(result)
}

func (s *service) CountUnreadNotifications(ctx context.Context, recipientID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_account_id = $1 AND NOT read`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func expectOne(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
