package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/repository"
)

type messageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	query := `INSERT INTO messages (sender_id, tenant_id, subject, body, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	m.CreatedAt = time.Now().UTC()
	return r.db.QueryRowContext(ctx, query, m.SenderID, m.TenantID, m.Subject, m.Body, m.CreatedAt).Scan(&m.ID)
}

func (r *messageRepository) List(ctx context.Context, senderID uuid.UUID) ([]domain.Message, error) {
	query := `SELECT id, sender_id, tenant_id, subject, body, created_at FROM messages WHERE sender_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, senderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.TenantID, &m.Subject, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
