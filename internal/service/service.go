package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/edge"
	"propdesk-backend/internal/reconcile"
	"propdesk-backend/internal/repository"
	"propdesk-backend/internal/session"
)

// AuthResult is what signup, login and refresh hand back to the client.
type AuthResult struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

type AuthService interface {
	Signup(ctx context.Context, fullName, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, p session.Principal, refreshToken string) error
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	Me(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

type EmailService interface {
	SendVerificationEmail(ctx context.Context, to, name, link string) error
	SendNotificationDigest(ctx context.Context, to, name string, unread []domain.Notification) error
}

type PropertyService interface {
	Create(ctx context.Context, p *domain.Property) error
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Property, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.Property, error)
	Update(ctx context.Context, p *domain.Property) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type TenantService interface {
	Create(ctx context.Context, t *domain.Tenant) error
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Tenant, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.Tenant, error)
	Update(ctx context.Context, t *domain.Tenant) error
}

type LeaseService interface {
	Create(ctx context.Context, l *domain.Lease) error
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Lease, error)
	List(ctx context.Context, ownerID uuid.UUID, filter repository.LeaseFilter) ([]domain.Lease, error)
	End(ctx context.Context, ownerID, id uuid.UUID, status domain.LeaseStatus, endDate time.Time) error
}

type PaymentService interface {
	// Create records a payment. Unless force is set, a payment that looks like
	// an existing one is refused with the warnings that triggered it.
	Create(ctx context.Context, p *domain.Payment, force bool) ([]domain.DuplicateWarning, error)
	CheckDuplicates(ctx context.Context, p *domain.Payment) ([]domain.DuplicateWarning, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Payment, error)
	List(ctx context.Context, ownerID uuid.UUID, filter repository.PaymentFilter) ([]domain.Payment, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// DocumentUpload is the metadata accompanying an uploaded file.
type DocumentUpload struct {
	FileName    string
	ContentType string
	PropertyID  *uuid.UUID
	LeaseID     *uuid.UUID
}

type DocumentService interface {
	Upload(ctx context.Context, ownerID uuid.UUID, meta DocumentUpload, r io.Reader) (*domain.Document, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.Document, error)
	Open(ctx context.Context, ownerID, id uuid.UUID) (*domain.Document, io.ReadCloser, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Notification, int, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	// Notify stores n and pushes it to the user's live subscribers.
	Notify(ctx context.Context, n *domain.Notification) error
	Subscribe(userID uuid.UUID) (<-chan domain.Notification, func())

	GenerateDaily(ctx context.Context) (int, error)
	Cleanup(ctx context.Context, retentionDays int) (int, error)
	SendDigests(ctx context.Context, since time.Time) (int, error)
}

type MessageService interface {
	Compose(ctx context.Context, m *domain.Message) error
	List(ctx context.Context, senderID uuid.UUID) ([]domain.Message, error)
}

type ErrorLogService interface {
	Record(ctx context.Context, e *domain.ErrorLog) error
}

// StartResult is the outcome of a successful upload and match run.
type StartResult struct {
	Session          *domain.ReconciliationSession `json:"session"`
	TransactionCount int                           `json:"transaction_count"`
	Summary          domain.MatchSummary           `json:"summary"`
}

// SessionDetail is a session loaded for review.
type SessionDetail struct {
	Session  *domain.ReconciliationSession `json:"session"`
	Phase    reconcile.Phase               `json:"phase"`
	Mode     reconcile.Mode                `json:"mode"`
	ReadOnly bool                          `json:"read_only"`
	Summary  reconcile.Summary             `json:"summary"`
	Matches  []MatchRow                    `json:"matches"`
}

// MatchRow is a reconciliation as shown in the review list.
type MatchRow struct {
	domain.ReconciliationView
	TenantMismatch bool `json:"tenant_mismatch"`
}

// FinalizeResult reports what a finalize call changed.
type FinalizeResult struct {
	Reconciled    int                           `json:"reconciled"`
	PendingReview int                           `json:"pending_review"`
	Completed     bool                          `json:"completed"`
	Session       *domain.ReconciliationSession `json:"session"`
}

// BulkSelection names the rows a bulk action applies to. Ids outside the
// rows visible under Filter are dropped; All selects every visible row.
type BulkSelection struct {
	IDs    []uuid.UUID
	All    bool
	Filter reconcile.ViewFilter
}

// BulkResult counts the per-item outcomes of a bulk review action.
type BulkResult struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	OutOfView int `json:"out_of_view"`
}

// ExplainResult is the explanation of one match plus its mismatch badge.
type ExplainResult struct {
	Explanation    reconcile.Explanation `json:"explanation"`
	TenantMismatch bool                  `json:"tenant_mismatch"`
}

type ReconciliationService interface {
	StartSession(ctx context.Context, userID uuid.UUID, fileName string, content []byte) (*StartResult, error)
	LoadSession(ctx context.Context, userID, sessionID uuid.UUID, filter reconcile.ViewFilter) (*SessionDetail, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]domain.ReconciliationSession, error)
	Finalize(ctx context.Context, userID, sessionID uuid.UUID) (*FinalizeResult, error)
	Terminate(ctx context.Context, userID, sessionID uuid.UUID) error
	SaveForLater(ctx context.Context, userID, sessionID uuid.UUID) error

	Confirm(ctx context.Context, userID, recID uuid.UUID, notes string) (*domain.ReconciliationView, error)
	Reject(ctx context.Context, userID, recID uuid.UUID, notes string) (*domain.ReconciliationView, error)
	ManualLink(ctx context.Context, userID, recID, bankTxID uuid.UUID, notes string) (*domain.ReconciliationView, error)
	BulkConfirm(ctx context.Context, userID, sessionID uuid.UUID, sel BulkSelection, notes string) (*BulkResult, error)
	BulkReject(ctx context.Context, userID, sessionID uuid.UUID, sel BulkSelection, notes string) (*BulkResult, error)
	UnusedBankTransactions(ctx context.Context, userID, sessionID uuid.UUID) ([]domain.BankTransaction, error)
	Explain(ctx context.Context, userID, recID uuid.UUID) (*ExplainResult, error)
}

// EdgeClient is the remote parse and match pipeline.
type EdgeClient interface {
	ParseBankStatement(ctx context.Context, csvContent string, sessionID uuid.UUID) (*edge.ParseResult, error)
	ReconcilePayments(ctx context.Context, sessionID uuid.UUID) (*edge.ReconcileResult, error)
}

// UserHooks receives account lifecycle events.
type UserHooks interface {
	UserSignedUp(u *domain.User)
	UserVerified(u *domain.User)
}

// MessageHooks receives composed messages.
type MessageHooks interface {
	MessageComposed(m *domain.Message)
}

// SessionBroker revokes tokens and fans out session events.
type SessionBroker interface {
	Revoke(tokenID string, until time.Time)
	IsRevoked(tokenID string) bool
	Publish(e session.Event)
}
