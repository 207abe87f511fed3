package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/repository"
)

type propertyRepository struct {
	db *sql.DB
}

func NewPropertyRepository(db *sql.DB) repository.PropertyRepository {
	return &propertyRepository{db: db}
}

const propertyColumns = `id, owner_id, name, COALESCE(address, ''), COALESCE(city, ''), property_type, units, created_at, updated_at`

func scanProperty(row rowScanner) (*domain.Property, error) {
	p := &domain.Property{}
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Address, &p.City, &p.PropertyType, &p.Units, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (r *propertyRepository) Create(ctx context.Context, p *domain.Property) error {
	query := `INSERT INTO properties (owner_id, name, address, city, property_type, units, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return r.db.QueryRowContext(ctx, query, p.OwnerID, p.Name, p.Address, p.City, p.PropertyType, p.Units, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
}

func (r *propertyRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1 AND owner_id = $2`
	return scanProperty(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *propertyRepository) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE owner_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *propertyRepository) Update(ctx context.Context, p *domain.Property) error {
	query := `UPDATE properties SET name=$1, address=$2, city=$3, property_type=$4, units=$5, updated_at=$6
	          WHERE id=$7 AND owner_id=$8`
	p.UpdatedAt = time.Now().UTC()
	return requireRow(r.db.ExecContext(ctx, query, p.Name, p.Address, p.City, p.PropertyType, p.Units, p.UpdatedAt, p.ID, p.OwnerID))
}

func (r *propertyRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM properties WHERE id = $1 AND owner_id = $2`
	return requireRow(r.db.ExecContext(ctx, query, id, ownerID))
}
