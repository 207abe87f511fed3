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

type propertyService struct {
	repo repository.PropertyRepository
}

func NewPropertyService(repo repository.PropertyRepository) PropertyService {
	return &propertyService{repo: repo}
}

func validateProperty(p *domain.Property) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return invalid("Property name is required")
	}
	switch p.PropertyType {
	case "":
		p.PropertyType = domain.PropertyTypeApartment
	case domain.PropertyTypeApartment, domain.PropertyTypeHouse, domain.PropertyTypeCommercial, domain.PropertyTypeOther:
	default:
		return invalid("Unknown property type")
	}
	if p.Units <= 0 {
		p.Units = 1
	}
	return nil
}

func (s *propertyService) Create(ctx context.Context, p *domain.Property) error {
	if err := validateProperty(p); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return repoErr(err, apperr.ErrNotFound)
	}
	logger.Info("Property created", "propertyID", p.ID, "ownerID", p.OwnerID)
	return nil
}

func (s *propertyService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Property, error) {
	p, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, repoErr(err, apperr.WithMessage(apperr.ErrNotFound, "Property not found"))
	}
	return p, nil
}

func (s *propertyService) List(ctx context.Context, ownerID uuid.UUID) ([]domain.Property, error) {
	props, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrNotFound)
	}
	return props, nil
}

func (s *propertyService) Update(ctx context.Context, p *domain.Property) error {
	if err := validateProperty(p); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return repoErr(err, apperr.WithMessage(apperr.ErrNotFound, "Property not found"))
	}
	return nil
}

func (s *propertyService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return repoErr(err, apperr.WithMessage(apperr.ErrNotFound, "Property not found"))
	}
	logger.Info("Property deleted", "propertyID", id, "ownerID", ownerID)
	return nil
}
