package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/repository"
)

// References shorter than minReferenceLength are too generic to compare.
const (
	duplicateWindow      = 3 * 24 * time.Hour
	minReferenceLength   = 4
	maxReferenceDistance = 1
)

type paymentService struct {
	paymentRepo repository.PaymentRepository
	leaseRepo   repository.LeaseRepository
}

func NewPaymentService(paymentRepo repository.PaymentRepository, leaseRepo repository.LeaseRepository) PaymentService {
	return &paymentService{paymentRepo: paymentRepo, leaseRepo: leaseRepo}
}

var errPaymentNotFound = apperr.WithMessage(apperr.ErrNotFound, "Payment not found")

func validatePayment(p *domain.Payment) error {
	if !p.Amount.IsPositive() {
		return invalid("Payment amount must be greater than zero")
	}
	if p.PaymentDate.IsZero() {
		return invalid("Payment date is required")
	}
	switch p.Method {
	case "":
		p.Method = domain.PaymentMethodBankTransfer
	case domain.PaymentMethodBankTransfer, domain.PaymentMethodUPI, domain.PaymentMethodCash,
		domain.PaymentMethodCheque, domain.PaymentMethodCard:
	default:
		return invalid("Unknown payment method")
	}
	switch p.PaymentType {
	case "":
		p.PaymentType = domain.PaymentTypeRent
	case domain.PaymentTypeRent, domain.PaymentTypeMaintenance, domain.PaymentTypeDeposit, domain.PaymentTypeOther:
	default:
		return invalid("Unknown payment type")
	}
	p.Reference = strings.TrimSpace(p.Reference)
	return nil
}

func (s *paymentService) Create(ctx context.Context, p *domain.Payment, force bool) ([]domain.DuplicateWarning, error) {
	logger.EnterMethod("paymentService.Create", "ownerID", p.OwnerID, "leaseID", p.LeaseID, "force", force)

	if err := validatePayment(p); err != nil {
		return nil, err
	}
	if _, err := s.leaseRepo.GetByID(ctx, p.OwnerID, p.LeaseID); err != nil {
		return nil, repoErr(err, errLeaseNotFound)
	}

	warnings, err := s.CheckDuplicates(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(warnings) > 0 && !force {
		logger.Info("Payment refused as possible duplicate", "leaseID", p.LeaseID, "warnings", len(warnings))
		return warnings, apperr.ErrPossibleDuplicate
	}

	p.IsReconciled = false
	p.ReconciledAt = nil
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		logger.ExitMethodWithError("paymentService.Create", err)
		return nil, repoErr(err, errPaymentNotFound)
	}
	logger.ExitMethod("paymentService.Create", "paymentID", p.ID, "warnings", len(warnings))
	return warnings, nil
}

// CheckDuplicates compares p with the lease's existing payments. It flags an
// equal amount within three days, and a reference one edit away from an
// existing one.
func (s *paymentService) CheckDuplicates(ctx context.Context, p *domain.Payment) ([]domain.DuplicateWarning, error) {
	nearby, err := s.paymentRepo.ListByLeaseBetween(ctx, p.OwnerID, p.LeaseID,
		p.PaymentDate.Add(-duplicateWindow), p.PaymentDate.Add(duplicateWindow))
	if err != nil {
		return nil, repoErr(err, errPaymentNotFound)
	}

	var warnings []domain.DuplicateWarning
	flagged := make(map[uuid.UUID]bool)
	for _, existing := range nearby {
		if existing.ID == p.ID || !existing.Amount.Equal(p.Amount) {
			continue
		}
		flagged[existing.ID] = true
		warnings = append(warnings, domain.DuplicateWarning{
			PaymentID: existing.ID,
			Reason:    fmt.Sprintf("Same amount %s recorded on %s", existing.Amount.StringFixed(2), existing.PaymentDate.Format("2006-01-02")),
		})
	}

	if len(p.Reference) < minReferenceLength {
		return warnings, nil
	}
	leaseID := p.LeaseID
	all, err := s.paymentRepo.List(ctx, p.OwnerID, repository.PaymentFilter{LeaseID: &leaseID})
	if err != nil {
		return nil, repoErr(err, errPaymentNotFound)
	}
	ref := strings.ToLower(p.Reference)
	for _, existing := range all {
		if existing.ID == p.ID || flagged[existing.ID] || len(existing.Reference) < minReferenceLength {
			continue
		}
		if levenshtein.ComputeDistance(ref, strings.ToLower(existing.Reference)) <= maxReferenceDistance {
			warnings = append(warnings, domain.DuplicateWarning{
				PaymentID: existing.ID,
				Reason:    fmt.Sprintf("Reference %q matches an existing payment", existing.Reference),
			})
		}
	}
	return warnings, nil
}

func (s *paymentService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Payment, error) {
	p, err := s.paymentRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, repoErr(err, errPaymentNotFound)
	}
	return p, nil
}

func (s *paymentService) List(ctx context.Context, ownerID uuid.UUID, filter repository.PaymentFilter) ([]domain.Payment, error) {
	ps, err := s.paymentRepo.List(ctx, ownerID, filter)
	if err != nil {
		return nil, repoErr(err, errPaymentNotFound)
	}
	return ps, nil
}

func (s *paymentService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	p, err := s.paymentRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return repoErr(err, errPaymentNotFound)
	}
	if p.IsReconciled {
		return apperr.ErrPaymentReconciled
	}
	if err := s.paymentRepo.Delete(ctx, ownerID, id); err != nil {
		return repoErr(err, errPaymentNotFound)
	}
	logger.Info("Payment deleted", "paymentID", id, "ownerID", ownerID)
	return nil
}
