package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/repository"
)

type leaseService struct {
	leaseRepo    repository.LeaseRepository
	propertyRepo repository.PropertyRepository
	tenantRepo   repository.TenantRepository
}

func NewLeaseService(leaseRepo repository.LeaseRepository, propertyRepo repository.PropertyRepository, tenantRepo repository.TenantRepository) LeaseService {
	return &leaseService{leaseRepo: leaseRepo, propertyRepo: propertyRepo, tenantRepo: tenantRepo}
}

var errLeaseNotFound = apperr.WithMessage(apperr.ErrNotFound, "Lease not found")

func (s *leaseService) Create(ctx context.Context, l *domain.Lease) error {
	logger.EnterMethod("leaseService.Create", "ownerID", l.OwnerID, "propertyID", l.PropertyID, "tenantID", l.TenantID)

	if l.StartDate.IsZero() {
		return invalid("Lease start date is required")
	}
	if l.EndDate != nil && !l.EndDate.After(l.StartDate) {
		return invalid("Lease end date must be after the start date")
	}
	if !l.MonthlyRent.IsPositive() {
		return invalid("Monthly rent must be greater than zero")
	}
	if l.SecurityDeposit.IsNegative() {
		return invalid("Security deposit cannot be negative")
	}
	if l.DueDay < 1 || l.DueDay > 31 {
		return invalid("Rent due day must be between 1 and 31")
	}
	if l.Status == "" {
		l.Status = domain.LeaseStatusActive
	}

	if _, err := s.propertyRepo.GetByID(ctx, l.OwnerID, l.PropertyID); err != nil {
		return repoErr(err, apperr.WithMessage(apperr.ErrNotFound, "Property not found"))
	}
	if _, err := s.tenantRepo.GetByID(ctx, l.OwnerID, l.TenantID); err != nil {
		return repoErr(err, errTenantNotFound)
	}

	if err := s.leaseRepo.Create(ctx, l); err != nil {
		logger.ExitMethodWithError("leaseService.Create", err)
		return repoErr(err, errLeaseNotFound)
	}
	logger.ExitMethod("leaseService.Create", "leaseID", l.ID)
	return nil
}

func (s *leaseService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Lease, error) {
	l, err := s.leaseRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, repoErr(err, errLeaseNotFound)
	}
	return l, nil
}

func (s *leaseService) List(ctx context.Context, ownerID uuid.UUID, filter repository.LeaseFilter) ([]domain.Lease, error) {
	ls, err := s.leaseRepo.List(ctx, ownerID, filter)
	if err != nil {
		return nil, repoErr(err, errLeaseNotFound)
	}
	return ls, nil
}

// End closes an active lease as ended or terminated.
func (s *leaseService) End(ctx context.Context, ownerID, id uuid.UUID, status domain.LeaseStatus, endDate time.Time) error {
	if status != domain.LeaseStatusEnded && status != domain.LeaseStatusTerminated {
		return invalid("Lease can only be ended or terminated")
	}
	l, err := s.leaseRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return repoErr(err, errLeaseNotFound)
	}
	if l.Status != domain.LeaseStatusActive {
		return apperr.WithMessage(apperr.ErrConflict, "Lease is no longer active")
	}
	if endDate.IsZero() {
		endDate = time.Now()
	}
	if endDate.Before(l.StartDate) {
		return invalid("Lease end date must be after the start date")
	}
	if err := s.leaseRepo.End(ctx, ownerID, id, status, endDate); err != nil {
		return repoErr(err, errLeaseNotFound)
	}
	logger.Info("Lease ended", "leaseID", id, "status", status)
	return nil
}
