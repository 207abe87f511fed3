package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/notify"
	"propdesk-backend/internal/repository"
)

const maxPageSize = 100

type notificationService struct {
	noteRepo repository.NotificationRepository
	hub      *notify.Hub
	email    EmailService
}

func NewNotificationService(noteRepo repository.NotificationRepository, hub *notify.Hub, email EmailService) NotificationService {
	return &notificationService{noteRepo: noteRepo, hub: hub, email: email}
}

var errNotificationNotFound = apperr.WithMessage(apperr.ErrNotFound, "Notification not found")

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	notes, total, err := s.noteRepo.List(ctx, userID, pageSize, offset)
	if err != nil {
		return nil, 0, repoErr(err, errNotificationNotFound)
	}
	return notes, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.noteRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, repoErr(err, errNotificationNotFound)
	}
	return n, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return repoErr(s.noteRepo.MarkRead(ctx, userID, id), errNotificationNotFound)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.noteRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, repoErr(err, errNotificationNotFound)
	}
	return n, nil
}

func (s *notificationService) Notify(ctx context.Context, n *domain.Notification) error {
	if n.Type == "" {
		n.Type = domain.NotificationSystem
	}
	if err := s.noteRepo.Create(ctx, n); err != nil {
		return repoErr(err, errNotificationNotFound)
	}
	delivered := s.hub.Publish(*n)
	logger.Debug("Notification published", "notificationID", n.ID, "userID", n.UserID, "delivered", delivered)
	return nil
}

func (s *notificationService) Subscribe(userID uuid.UUID) (<-chan domain.Notification, func()) {
	return s.hub.Subscribe(userID)
}

func (s *notificationService) GenerateDaily(ctx context.Context) (int, error) {
	logger.EnterMethod("notificationService.GenerateDaily")
	n, err := s.noteRepo.GenerateDaily(ctx)
	if err != nil {
		logger.ExitMethodWithError("notificationService.GenerateDaily", err)
		return 0, err
	}
	logger.ExitMethod("notificationService.GenerateDaily", "created", n)
	return n, nil
}

func (s *notificationService) Cleanup(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, invalid("Retention must be at least one day")
	}
	logger.EnterMethod("notificationService.Cleanup", "retentionDays", retentionDays)
	n, err := s.noteRepo.Cleanup(ctx, retentionDays)
	if err != nil {
		logger.ExitMethodWithError("notificationService.Cleanup", err)
		return 0, err
	}
	logger.ExitMethod("notificationService.Cleanup", "deleted", n)
	return n, nil
}

// SendDigests emails every verified user their unread notifications created
// since the given time. A failed send is logged and skipped.
func (s *notificationService) SendDigests(ctx context.Context, since time.Time) (int, error) {
	logger.EnterMethod("notificationService.SendDigests", "since", since)

	entries, err := s.noteRepo.ListUnreadForDigest(ctx, since)
	if err != nil {
		logger.ExitMethodWithError("notificationService.SendDigests", err)
		return 0, err
	}

	sent := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := s.email.SendNotificationDigest(ctx, e.Email, e.FullName, e.Unread); err != nil {
			logger.Warn("Failed to send notification digest", "userID", e.UserID, "error", err)
			continue
		}
		sent++
	}

	logger.ExitMethod("notificationService.SendDigests", "users", len(entries), "sent", sent)
	return sent, nil
}
