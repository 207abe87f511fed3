package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
)

// ErrNotFound is returned when a row does not exist or is not visible to the caller.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write collides with a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

type PropertyRepository interface {
	Create(ctx context.Context, p *domain.Property) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Property, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.Property, error)
	Update(ctx context.Context, p *domain.Property) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type TenantRepository interface {
	Create(ctx context.Context, t *domain.Tenant) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Tenant, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.Tenant, error)
	Update(ctx context.Context, t *domain.Tenant) error
}

// LeaseFilter narrows List; zero values mean no filter.
type LeaseFilter struct {
	PropertyID *uuid.UUID
	Status     domain.LeaseStatus
}

type LeaseRepository interface {
	Create(ctx context.Context, l *domain.Lease) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Lease, error)
	List(ctx context.Context, ownerID uuid.UUID, filter LeaseFilter) ([]domain.Lease, error)
	End(ctx context.Context, ownerID, id uuid.UUID, status domain.LeaseStatus, endDate time.Time) error
}

// PaymentFilter narrows List; zero values mean no filter.
type PaymentFilter struct {
	LeaseID      *uuid.UUID
	Unreconciled bool
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Payment, error)
	List(ctx context.Context, ownerID uuid.UUID, filter PaymentFilter) ([]domain.Payment, error)
	// ListByLeaseBetween returns the lease's payments dated within [from, to].
	ListByLeaseBetween(ctx context.Context, ownerID, leaseID uuid.UUID, from, to time.Time) ([]domain.Payment, error)
	// Delete removes an unreconciled payment. Reconciled rows are left alone
	// and reported as ErrNotFound.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type DocumentRepository interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.Document, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)

	// GenerateDaily runs generate_daily_notifications() and returns the
	// number of notifications it inserted.
	GenerateDaily(ctx context.Context) (int, error)
	// Cleanup runs cleanup_old_notifications(retentionDays) and returns the
	// number of rows removed.
	Cleanup(ctx context.Context, retentionDays int) (int, error)
	// ListUnreadForDigest groups unread notifications per verified user.
	ListUnreadForDigest(ctx context.Context, since time.Time) ([]domain.DigestEntry, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	List(ctx context.Context, senderID uuid.UUID) ([]domain.Message, error)
}

type ErrorLogRepository interface {
	Create(ctx context.Context, e *domain.ErrorLog) error
}

// ReconciliationRepository covers sessions, bank transactions, candidate
// matches and learned patterns. Every method is scoped by user id.
type ReconciliationRepository interface {
	CreateSession(ctx context.Context, s *domain.ReconciliationSession) error
	GetSession(ctx context.Context, userID, id uuid.UUID) (*domain.ReconciliationSession, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]domain.ReconciliationSession, error)
	SetStorageKey(ctx context.Context, userID, id uuid.UUID, key string) error
	// UpdateSessionStatus sets processing_status and error_message and stamps
	// completed_at when the new status is completed.
	UpdateSessionStatus(ctx context.Context, userID, id uuid.UUID, status domain.SessionStatus, errMsg string) error
	// RefreshSessionCounts recomputes the aggregate counters from the rows.
	RefreshSessionCounts(ctx context.Context, userID, id uuid.UUID) error
	// TerminateSession deletes the session's reconciliations and bank
	// transactions and marks it cancelled, atomically.
	TerminateSession(ctx context.Context, userID, id uuid.UUID) error

	ListViews(ctx context.Context, userID, sessionID uuid.UUID) ([]domain.ReconciliationView, error)
	GetView(ctx context.Context, userID, id uuid.UUID) (*domain.ReconciliationView, error)
	// UpdateReview persists a review decision: status, link, confidence and
	// reviewer stamp.
	UpdateReview(ctx context.Context, rec *domain.PaymentReconciliation) error
	// MarkReconciled flags the given reconciliations and their payments as
	// reconciled in a single transaction.
	MarkReconciled(ctx context.Context, userID uuid.UUID, recs []domain.PaymentReconciliation, at time.Time) error

	GetBankTransaction(ctx context.Context, userID, id uuid.UUID) (*domain.BankTransaction, error)
	// ListUnusedBankTransactions returns the session's transactions not linked
	// by any reconciliation.
	ListUnusedBankTransactions(ctx context.Context, userID, sessionID uuid.UUID) ([]domain.BankTransaction, error)

	// UpsertPattern writes a pattern keyed on (user, tenant, description).
	// times_confirmed is always written as given, never incremented.
	UpsertPattern(ctx context.Context, p *domain.ReconciliationPattern) error
}
