package postgres

import (
	"context"
	"database/sql"
	"time"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/repository"
)

type errorLogRepository struct {
	db *sql.DB
}

func NewErrorLogRepository(db *sql.DB) repository.ErrorLogRepository {
	return &errorLogRepository{db: db}
}

func (r *errorLogRepository) Create(ctx context.Context, e *domain.ErrorLog) error {
	query := `INSERT INTO error_logs (user_id, message, stack, url, user_agent, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	e.CreatedAt = time.Now().UTC()
	return r.db.QueryRowContext(ctx, query, e.UserID, e.Message, e.Stack, e.URL, e.UserAgent, e.CreatedAt).Scan(&e.ID)
}
