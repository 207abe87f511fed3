package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/repository"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, owner_id, lease_id, amount, payment_date, method, COALESCE(reference, ''), payment_type,
	COALESCE(notes, ''), is_reconciled, reconciled_at, created_at`

func scanPayment(row rowScanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := row.Scan(&p.ID, &p.OwnerID, &p.LeaseID, &p.Amount, &p.PaymentDate, &p.Method, &p.Reference,
		&p.PaymentType, &p.Notes, &p.IsReconciled, &p.ReconciledAt, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func scanPayments(rows *sql.Rows) ([]domain.Payment, error) {
	defer rows.Close()
	var out []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (owner_id, lease_id, amount, payment_date, method, reference, payment_type, notes, is_reconciled, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9) RETURNING id`
	p.CreatedAt = time.Now().UTC()
	p.IsReconciled = false
	return r.db.QueryRowContext(ctx, query, p.OwnerID, p.LeaseID, p.Amount, p.PaymentDate, p.Method,
		p.Reference, p.PaymentType, p.Notes, p.CreatedAt).Scan(&p.ID)
}

func (r *paymentRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND owner_id = $2`
	return scanPayment(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *paymentRepository) List(ctx context.Context, ownerID uuid.UUID, filter repository.PaymentFilter) ([]domain.Payment, error) {
	where := []string{"owner_id = $1"}
	args := []any{ownerID}
	if filter.LeaseID != nil {
		args = append(args, *filter.LeaseID)
		where = append(where, fmt.Sprintf("lease_id = $%d", len(args)))
	}
	if filter.Unreconciled {
		where = append(where, "is_reconciled = FALSE")
	}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY payment_date DESC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanPayments(rows)
}

func (r *paymentRepository) ListByLeaseBetween(ctx context.Context, ownerID, leaseID uuid.UUID, from, to time.Time) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
	          WHERE owner_id = $1 AND lease_id = $2 AND payment_date BETWEEN $3 AND $4
	          ORDER BY payment_date`
	rows, err := r.db.QueryContext(ctx, query, ownerID, leaseID, from, to)
	if err != nil {
		return nil, err
	}
	return scanPayments(rows)
}

func (r *paymentRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM payments WHERE id = $1 AND owner_id = $2 AND is_reconciled = FALSE`
	return requireRow(r.db.ExecContext(ctx, query, id, ownerID))
}
