package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"propdesk-backend/internal/repository"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.PropertyRepository
	repository.TenantRepository
	repository.LeaseRepository
	repository.PaymentRepository
	repository.DocumentRepository
	repository.NotificationRepository
	repository.MessageRepository
	repository.ErrorLogRepository
	repository.ReconciliationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                       db,
		UserRepository:           NewUserRepository(db),
		PropertyRepository:       NewPropertyRepository(db),
		TenantRepository:         NewTenantRepository(db),
		LeaseRepository:          NewLeaseRepository(db),
		PaymentRepository:        NewPaymentRepository(db),
		DocumentRepository:       NewDocumentRepository(db),
		NotificationRepository:   NewNotificationRepository(db),
		MessageRepository:        NewMessageRepository(db),
		ErrorLogRepository:       NewErrorLogRepository(db),
		ReconciliationRepository: NewReconciliationRepository(db),
	}
}

// Ping checks the connection; used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const uniqueViolation = "23505"

// mapErr converts sql.ErrNoRows into repository.ErrNotFound and unique
// violations into repository.ErrDuplicate.
func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Constraint)
	}
	return err
}

// requireRow reports ErrNotFound when an UPDATE or DELETE touched nothing.
func requireRow(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
