package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/repository"
)

type messageService struct {
	messageRepo repository.MessageRepository
	tenantRepo  repository.TenantRepository
	hooks       MessageHooks
}

func NewMessageService(messageRepo repository.MessageRepository, tenantRepo repository.TenantRepository, hooks MessageHooks) MessageService {
	return &messageService{messageRepo: messageRepo, tenantRepo: tenantRepo, hooks: hooks}
}

// Compose stores the message and hands it to the message webhook.
func (s *messageService) Compose(ctx context.Context, m *domain.Message) error {
	m.Subject = strings.TrimSpace(m.Subject)
	m.Body = strings.TrimSpace(m.Body)
	if m.Subject == "" || m.Body == "" {
		return invalid("Subject and body are required")
	}
	if m.TenantID != nil {
		if _, err := s.tenantRepo.GetByID(ctx, m.SenderID, *m.TenantID); err != nil {
			return repoErr(err, errTenantNotFound)
		}
	}
	if err := s.messageRepo.Create(ctx, m); err != nil {
		return repoErr(err, apperr.ErrNotFound)
	}
	s.hooks.MessageComposed(m)
	logger.Info("Message composed", "messageID", m.ID, "senderID", m.SenderID)
	return nil
}

func (s *messageService) List(ctx context.Context, senderID uuid.UUID) ([]domain.Message, error) {
	ms, err := s.messageRepo.List(ctx, senderID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrNotFound)
	}
	return ms, nil
}
