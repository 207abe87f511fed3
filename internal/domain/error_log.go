package domain

import (
	"time"

	"github.com/google/uuid"
)

// ErrorLog is an unhandled runtime error reported by a client or recovered by the server.
type ErrorLog struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Message   string     `json:"message"`
	Stack     string     `json:"stack"`
	URL       string     `json:"url"`
	UserAgent string     `json:"user_agent"`
	CreatedAt time.Time  `json:"created_at"`
}
