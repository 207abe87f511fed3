package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/repository"
)

type documentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `id, owner_id, property_id, lease_id, file_name, content_type, size_bytes, storage_key, created_at`

func scanDocument(row rowScanner) (*domain.Document, error) {
	d := &domain.Document{}
	err := row.Scan(&d.ID, &d.OwnerID, &d.PropertyID, &d.LeaseID, &d.FileName, &d.ContentType, &d.SizeBytes, &d.StorageKey, &d.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}

func (r *documentRepository) Create(ctx context.Context, d *domain.Document) error {
	query := `INSERT INTO documents (id, owner_id, property_id, lease_id, file_name, content_type, size_bytes, storage_key, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, d.ID, d.OwnerID, d.PropertyID, d.LeaseID, d.FileName, d.ContentType, d.SizeBytes, d.StorageKey, d.CreatedAt)
	return err
}

func (r *documentRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND owner_id = $2`
	return scanDocument(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *documentRepository) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *documentRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM documents WHERE id = $1 AND owner_id = $2`
	return requireRow(r.db.ExecContext(ctx, query, id, ownerID))
}
