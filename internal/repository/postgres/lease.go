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

type leaseRepository struct {
	db *sql.DB
}

func NewLeaseRepository(db *sql.DB) repository.LeaseRepository {
	return &leaseRepository{db: db}
}

const leaseColumns = `id, owner_id, property_id, tenant_id, start_date, end_date, monthly_rent, security_deposit, due_day, status, created_at, updated_at`

func scanLease(row rowScanner) (*domain.Lease, error) {
	l := &domain.Lease{}
	err := row.Scan(&l.ID, &l.OwnerID, &l.PropertyID, &l.TenantID, &l.StartDate, &l.EndDate,
		&l.MonthlyRent, &l.SecurityDeposit, &l.DueDay, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return l, nil
}

func (r *leaseRepository) Create(ctx context.Context, l *domain.Lease) error {
	query := `INSERT INTO leases (owner_id, property_id, tenant_id, start_date, end_date, monthly_rent, security_deposit, due_day, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	return r.db.QueryRowContext(ctx, query, l.OwnerID, l.PropertyID, l.TenantID, l.StartDate, l.EndDate,
		l.MonthlyRent, l.SecurityDeposit, l.DueDay, l.Status, l.CreatedAt, l.UpdatedAt).Scan(&l.ID)
}

func (r *leaseRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE id = $1 AND owner_id = $2`
	return scanLease(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *leaseRepository) List(ctx context.Context, ownerID uuid.UUID, filter repository.LeaseFilter) ([]domain.Lease, error) {
	where := []string{"owner_id = $1"}
	args := []any{ownerID}
	if filter.PropertyID != nil {
		args = append(args, *filter.PropertyID)
		where = append(where, fmt.Sprintf("property_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE ` + strings.Join(where, " AND ") + ` ORDER BY start_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *leaseRepository) End(ctx context.Context, ownerID, id uuid.UUID, status domain.LeaseStatus, endDate time.Time) error {
	query := `UPDATE leases SET status=$1, end_date=$2, updated_at=$3 WHERE id=$4 AND owner_id=$5 AND status = 'active'`
	return requireRow(r.db.ExecContext(ctx, query, status, endDate, time.Now().UTC(), id, ownerID))
}
