package service

import (
	"context"
	"strings"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/repository"
)

const (
	maxErrorMessageLen = 2000
	maxErrorStackLen   = 10000
	maxErrorURLLen     = 2000
)

type errorLogService struct {
	repo repository.ErrorLogRepository
}

func NewErrorLogService(repo repository.ErrorLogRepository) ErrorLogService {
	return &errorLogService{repo: repo}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (s *errorLogService) Record(ctx context.Context, e *domain.ErrorLog) error {
	e.Message = truncate(strings.TrimSpace(e.Message), maxErrorMessageLen)
	if e.Message == "" {
		return invalid("Error message is required")
	}
	e.Stack = truncate(e.Stack, maxErrorStackLen)
	e.URL = truncate(e.URL, maxErrorURLLen)
	e.UserAgent = truncate(e.UserAgent, maxErrorURLLen)

	if err := s.repo.Create(ctx, e); err != nil {
		logger.Error("Failed to store error log", "message", e.Message, "error", err)
		return repoErr(err, apperr.ErrNotFound)
	}
	return nil
}
