package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationRentDue        NotificationType = "rent_due"
	NotificationRentOverdue    NotificationType = "rent_overdue"
	NotificationLeaseExpiring  NotificationType = "lease_expiring"
	NotificationReconciliation NotificationType = "reconciliation"
	NotificationSystem         NotificationType = "system"
)

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// DigestEntry groups a user's unread notifications for the email digest.
type DigestEntry struct {
	UserID   uuid.UUID
	Email    string
	FullName string
	Unread   []Notification
}
