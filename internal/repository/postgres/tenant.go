package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/repository"
)

type tenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) repository.TenantRepository {
	return &tenantRepository{db: db}
}

const tenantColumns = `id, owner_id, full_name, COALESCE(email, ''), COALESCE(phone, ''), created_at, updated_at`

func scanTenant(row rowScanner) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	if err := row.Scan(&t.ID, &t.OwnerID, &t.FullName, &t.Email, &t.Phone, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

func (r *tenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	query := `INSERT INTO tenants (owner_id, full_name, email, phone, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	return r.db.QueryRowContext(ctx, query, t.OwnerID, t.FullName, t.Email, t.Phone, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
}

func (r *tenantRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1 AND owner_id = $2`
	return scanTenant(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *tenantRepository) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE owner_id = $1 ORDER BY full_name`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *tenantRepository) Update(ctx context.Context, t *domain.Tenant) error {
	query := `UPDATE tenants SET full_name=$1, email=$2, phone=$3, updated_at=$4 WHERE id=$5 AND owner_id=$6`
	t.UpdatedAt = time.Now().UTC()
	return requireRow(r.db.ExecContext(ctx, query, t.FullName, t.Email, t.Phone, t.UpdatedAt, t.ID, t.OwnerID))
}
