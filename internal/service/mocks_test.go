package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/edge"
	"propdesk-backend/internal/repository"
	"propdesk-backend/internal/session"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPropertyRepo
type MockPropertyRepo struct {
	mock.Mock
}

func (m *MockPropertyRepo) Create(ctx context.Context, p *domain.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPropertyRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Property, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}
func (m *MockPropertyRepo) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Property, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Property), args.Error(1)
}
func (m *MockPropertyRepo) Update(ctx context.Context, p *domain.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPropertyRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockTenantRepo
type MockTenantRepo struct {
	mock.Mock
}

func (m *MockTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockTenantRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}
func (m *MockTenantRepo) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Tenant, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Tenant), args.Error(1)
}
func (m *MockTenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// MockMessageRepo
type MockMessageRepo struct {
	mock.Mock
}

func (m *MockMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
func (m *MockMessageRepo) List(ctx context.Context, senderID uuid.UUID) ([]domain.Message, error) {
	args := m.Called(ctx, senderID)
	return args.Get(0).([]domain.Message), args.Error(1)
}

// MockLeaseRepo
type MockLeaseRepo struct {
	mock.Mock
}

func (m *MockLeaseRepo) Create(ctx context.Context, l *domain.Lease) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}
func (m *MockLeaseRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Lease, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lease), args.Error(1)
}
func (m *MockLeaseRepo) List(ctx context.Context, ownerID uuid.UUID, filter repository.LeaseFilter) ([]domain.Lease, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]domain.Lease), args.Error(1)
}
func (m *MockLeaseRepo) End(ctx context.Context, ownerID, id uuid.UUID, status domain.LeaseStatus, endDate time.Time) error {
	args := m.Called(ctx, ownerID, id, status, endDate)
	return args.Error(0)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPaymentRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) List(ctx context.Context, ownerID uuid.UUID, filter repository.PaymentFilter) ([]domain.Payment, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) ListByLeaseBetween(ctx context.Context, ownerID, leaseID uuid.UUID, from, to time.Time) ([]domain.Payment, error) {
	args := m.Called(ctx, ownerID, leaseID, from, to)
	return args.Get(0).([]domain.Payment), args.Error(1)
}
func (m *MockPaymentRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockDocumentRepo
type MockDocumentRepo struct {
	mock.Mock
}

func (m *MockDocumentRepo) Create(ctx context.Context, d *domain.Document) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
func (m *MockDocumentRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Document, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}
func (m *MockDocumentRepo) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Document, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Document), args.Error(1)
}
func (m *MockDocumentRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Int(1), args.Error(2)
}
func (m *MockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *MockNotificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
func (m *MockNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockNotificationRepo) GenerateDaily(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *MockNotificationRepo) Cleanup(ctx context.Context, retentionDays int) (int, error) {
	args := m.Called(ctx, retentionDays)
	return args.Int(0), args.Error(1)
}
func (m *MockNotificationRepo) ListUnreadForDigest(ctx context.Context, since time.Time) ([]domain.DigestEntry, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]domain.DigestEntry), args.Error(1)
}

// MockReconciliationRepo
type MockReconciliationRepo struct {
	mock.Mock
}

func (m *MockReconciliationRepo) CreateSession(ctx context.Context, s *domain.ReconciliationSession) error {
	args := m.Called(ctx, s)
	if args.Error(0) == nil && s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return args.Error(0)
}
func (m *MockReconciliationRepo) GetSession(ctx context.Context, userID, id uuid.UUID) (*domain.ReconciliationSession, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationSession), args.Error(1)
}
func (m *MockReconciliationRepo) ListSessions(ctx context.Context, userID uuid.UUID) ([]domain.ReconciliationSession, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.ReconciliationSession), args.Error(1)
}
func (m *MockReconciliationRepo) SetStorageKey(ctx context.Context, userID, id uuid.UUID, key string) error {
	args := m.Called(ctx, userID, id, key)
	return args.Error(0)
}
func (m *MockReconciliationRepo) UpdateSessionStatus(ctx context.Context, userID, id uuid.UUID, status domain.SessionStatus, errMsg string) error {
	args := m.Called(ctx, userID, id, status, errMsg)
	return args.Error(0)
}
func (m *MockReconciliationRepo) RefreshSessionCounts(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
func (m *MockReconciliationRepo) TerminateSession(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
func (m *MockReconciliationRepo) ListViews(ctx context.Context, userID, sessionID uuid.UUID) ([]domain.ReconciliationView, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Get(0).([]domain.ReconciliationView), args.Error(1)
}
func (m *MockReconciliationRepo) GetView(ctx context.Context, userID, id uuid.UUID) (*domain.ReconciliationView, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationView), args.Error(1)
}
func (m *MockReconciliationRepo) UpdateReview(ctx context.Context, rec *domain.PaymentReconciliation) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
func (m *MockReconciliationRepo) MarkReconciled(ctx context.Context, userID uuid.UUID, recs []domain.PaymentReconciliation, at time.Time) error {
	args := m.Called(ctx, userID, recs, at)
	return args.Error(0)
}
func (m *MockReconciliationRepo) GetBankTransaction(ctx context.Context, userID, id uuid.UUID) (*domain.BankTransaction, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankTransaction), args.Error(1)
}
func (m *MockReconciliationRepo) ListUnusedBankTransactions(ctx context.Context, userID, sessionID uuid.UUID) ([]domain.BankTransaction, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Get(0).([]domain.BankTransaction), args.Error(1)
}
func (m *MockReconciliationRepo) UpsertPattern(ctx context.Context, p *domain.ReconciliationPattern) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendVerificationEmail(ctx context.Context, to, name, link string) error {
	args := m.Called(ctx, to, name, link)
	return args.Error(0)
}
func (m *MockEmailService) SendNotificationDigest(ctx context.Context, to, name string, unread []domain.Notification) error {
	args := m.Called(ctx, to, name, unread)
	return args.Error(0)
}

// MockEdgeClient
type MockEdgeClient struct {
	mock.Mock
}

func (m *MockEdgeClient) ParseBankStatement(ctx context.Context, csvContent string, sessionID uuid.UUID) (*edge.ParseResult, error) {
	args := m.Called(ctx, csvContent, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*edge.ParseResult), args.Error(1)
}
func (m *MockEdgeClient) ReconcilePayments(ctx context.Context, sessionID uuid.UUID) (*edge.ReconcileResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*edge.ReconcileResult), args.Error(1)
}

// MockHooks records webhook events.
type MockHooks struct {
	mock.Mock
}

func (m *MockHooks) UserSignedUp(u *domain.User)         { m.Called(u) }
func (m *MockHooks) UserVerified(u *domain.User)         { m.Called(u) }
func (m *MockHooks) MessageComposed(msg *domain.Message) { m.Called(msg) }

// MockNotificationService is the notifier seen by the reconciliation service.
type MockNotificationService struct {
	mock.Mock
	NotificationService
}

func (m *MockNotificationService) Notify(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

var (
	_ repository.UserRepository           = (*MockUserRepo)(nil)
	_ repository.ReconciliationRepository = (*MockReconciliationRepo)(nil)
	_ EdgeClient                          = (*MockEdgeClient)(nil)
	_ UserHooks                           = (*MockHooks)(nil)
	_ MessageHooks                        = (*MockHooks)(nil)
	_ SessionBroker                       = (*session.Broker)(nil)
)
