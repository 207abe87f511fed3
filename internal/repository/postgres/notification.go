package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "userID", n.UserID, "type", n.Type, "title", n.Title)

	query := `INSERT INTO notifications (user_id, type, title, message, link, is_read, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	logger.DatabaseCall("INSERT", "notifications", "userID", n.UserID)

	n.CreatedAt = time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, n.UserID, n.Type, n.Title, n.Message, n.Link, n.IsRead, n.CreatedAt).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "userID", n.UserID)
	} else {
		logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	}
	return err
}

func (r *notificationRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, int, error) {
	query := `SELECT id, user_id, type, title, message, COALESCE(link, ''), is_read, created_at
	          FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int
	countQuery := `SELECT count(*) FROM notifications WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&count); err != nil {
		return nil, 0, err
	}
	return notes, count, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&count)
	return count, err
}

// MarkRead goes through mark_notification_read, which returns false when the
// notification does not belong to the user.
func (r *notificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	var ok bool
	if err := r.db.QueryRowContext(ctx, `SELECT mark_notification_read($1, $2)`, id, userID).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *notificationRepository) GenerateDaily(ctx context.Context) (int, error) {
	logger.DatabaseCall("CALL", "generate_daily_notifications")
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT generate_daily_notifications()`).Scan(&n)
	logger.DatabaseResult("CALL", int64(n), err)
	return n, err
}

func (r *notificationRepository) Cleanup(ctx context.Context, retentionDays int) (int, error) {
	logger.DatabaseCall("CALL", "cleanup_old_notifications", "retentionDays", retentionDays)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT cleanup_old_notifications($1)`, retentionDays).Scan(&n)
	logger.DatabaseResult("CALL", int64(n), err)
	return n, err
}

func (r *notificationRepository) ListUnreadForDigest(ctx context.Context, since time.Time) ([]domain.DigestEntry, error) {
	query := `SELECT u.id, u.email, u.full_name, n.id, n.type, n.title, n.message, COALESCE(n.link, ''), n.created_at
	          FROM notifications n JOIN users u ON u.id = n.user_id
	          WHERE n.is_read = FALSE AND n.created_at >= $1 AND u.email_verified = TRUE
	          ORDER BY u.id, n.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DigestEntry
	for rows.Next() {
		var (
			userID          uuid.UUID
			email, fullName string
			n               domain.Notification
		)
		if err := rows.Scan(&userID, &email, &fullName, &n.ID, &n.Type, &n.Title, &n.Message, &n.Link, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.UserID = userID
		if len(out) == 0 || out[len(out)-1].UserID != userID {
			out = append(out, domain.DigestEntry{UserID: userID, Email: email, FullName: fullName})
		}
		last := &out[len(out)-1]
		last.Unread = append(last.Unread, n)
	}
	return out, rows.Err()
}
