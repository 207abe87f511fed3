package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/repository"
)

type tenantService struct {
	repo repository.TenantRepository
}

func NewTenantService(repo repository.TenantRepository) TenantService {
	return &tenantService{repo: repo}
}

var errTenantNotFound = apperr.WithMessage(apperr.ErrNotFound, "Tenant not found")

func validateTenant(t *domain.Tenant) error {
	t.FullName = strings.TrimSpace(t.FullName)
	t.Email = strings.TrimSpace(t.Email)
	if t.FullName == "" {
		return invalid("Tenant name is required")
	}
	if t.Email != "" {
		if _, err := mail.ParseAddress(t.Email); err != nil {
			return invalid("Tenant email is not valid")
		}
	}
	return nil
}

func (s *tenantService) Create(ctx context.Context, t *domain.Tenant) error {
	if err := validateTenant(t); err != nil {
		return err
	}
	return repoErr(s.repo.Create(ctx, t), errTenantNotFound)
}

func (s *tenantService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Tenant, error) {
	t, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, repoErr(err, errTenantNotFound)
	}
	return t, nil
}

func (s *tenantService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Tenant, error) {
	ts, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, repoErr(err, errTenantNotFound)
	}
	return ts, nil
}

func (s *tenantService) Update(ctx context.Context, t *domain.Tenant) error {
	if err := validateTenant(t); err != nil {
		return err
	}
	return repoErr(s.repo.Update(ctx, t), errTenantNotFound)
}
