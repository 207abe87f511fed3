package http

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/notify"
	"propdesk-backend/internal/reconcile"
	"propdesk-backend/internal/service"
	"propdesk-backend/internal/session"
)

// Each mock embeds its interface so only the methods a test needs are written.

type MockAuthService struct {
	service.AuthService
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, fullName, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, fullName, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, p session.Principal, refreshToken string) error {
	args := m.Called(ctx, p, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockPropertyService struct {
	service.PropertyService
	mock.Mock
}

func (m *MockPropertyService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Property, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

func (m *MockPropertyService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Property, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Property), args.Error(1)
}

type MockPaymentService struct {
	service.PaymentService
	mock.Mock
}

func (m *MockPaymentService) Create(ctx context.Context, p *domain.Payment, force bool) ([]domain.DuplicateWarning, error) {
	args := m.Called(ctx, p, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DuplicateWarning), args.Error(1)
}

type MockDocumentService struct {
	service.DocumentService
	mock.Mock
}

func (m *MockDocumentService) Open(ctx context.Context, ownerID, id uuid.UUID) (*domain.Document, io.ReadCloser, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Document), args.Get(1).(io.ReadCloser), args.Error(2)
}

type MockErrorLogService struct {
	mock.Mock
}

func (m *MockErrorLogService) Record(ctx context.Context, e *domain.ErrorLog) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// MockNotificationService fans out through a real hub so streams can be tested.
type MockNotificationService struct {
	service.NotificationService
	mock.Mock
	hub *notify.Hub
}

func (m *MockNotificationService) Subscribe(userID uuid.UUID) (<-chan domain.Notification, func()) {
	return m.hub.Subscribe(userID)
}

func (m *MockNotificationService) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Notification, int, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Int(1), args.Error(2)
}

type MockReconciliationService struct {
	service.ReconciliationService
	mock.Mock
}

func (m *MockReconciliationService) StartSession(ctx context.Context, userID uuid.UUID, fileName string, content []byte) (*service.StartResult, error) {
	args := m.Called(ctx, userID, fileName, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StartResult), args.Error(1)
}

func (m *MockReconciliationService) LoadSession(ctx context.Context, userID, sessionID uuid.UUID, filter reconcile.ViewFilter) (*service.SessionDetail, error) {
	args := m.Called(ctx, userID, sessionID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionDetail), args.Error(1)
}

func (m *MockReconciliationService) Terminate(ctx context.Context, userID, sessionID uuid.UUID) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func (m *MockReconciliationService) Confirm(ctx context.Context, userID, recID uuid.UUID, notes string) (*domain.ReconciliationView, error) {
	args := m.Called(ctx, userID, recID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationView), args.Error(1)
}

func (m *MockReconciliationService) ManualLink(ctx context.Context, userID, recID, bankTxID uuid.UUID, notes string) (*domain.ReconciliationView, error) {
	args := m.Called(ctx, userID, recID, bankTxID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationView), args.Error(1)
}

func (m *MockReconciliationService) BulkConfirm(ctx context.Context, userID, sessionID uuid.UUID, sel service.BulkSelection, notes string) (*service.BulkResult, error) {
	args := m.Called(ctx, userID, sessionID, sel, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkResult), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
