package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/repository"
	"propdesk-backend/internal/service"
)

// LeaseHandler serves leases and the payments recorded against them
type LeaseHandler struct {
	leaseSvc   service.LeaseService
	paymentSvc service.PaymentService
}

func NewLeaseHandler(leaseSvc service.LeaseService, paymentSvc service.PaymentService) *LeaseHandler {
	return &LeaseHandler{leaseSvc: leaseSvc, paymentSvc: paymentSvc}
}

type leaseRequest struct {
	PropertyID      string          `json:"property_id" validate:"required,uuid"`
	TenantID        string          `json:"tenant_id" validate:"required,uuid"`
	StartDate       string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate         string          `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	MonthlyRent     decimal.Decimal `json:"monthly_rent"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	DueDay          int             `json:"due_day" validate:"min=1,max=31"`
}

type endLeaseRequest struct {
	Status  string `json:"status" validate:"required,lease_end_status"`
	EndDate string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type paymentRequest struct {
	LeaseID     string          `json:"lease_id" validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Method      string          `json:"method" validate:"omitempty,payment_method"`
	Reference   string          `json:"reference" validate:"max=100"`
	PaymentType string          `json:"payment_type" validate:"omitempty,payment_type"`
	Notes       string          `json:"notes" validate:"max=2000"`
	// Force records the payment even when it looks like a duplicate.
	Force bool `json:"force"`
}

type paymentResponse struct {
	Payment  *domain.Payment           `json:"payment"`
	Warnings []domain.DuplicateWarning `json:"warnings"`
}

// parseDate parses a layout-validated date; an empty string yields the zero time.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, s)
	return t
}

func (req paymentRequest) toDomain(ownerID uuid.UUID) *domain.Payment {
	return &domain.Payment{
		OwnerID:     ownerID,
		LeaseID:     uuid.MustParse(req.LeaseID),
		Amount:      req.Amount,
		PaymentDate: parseDate(req.PaymentDate),
		Method:      domain.PaymentMethod(req.Method),
		Reference:   req.Reference,
		PaymentType: domain.PaymentType(req.PaymentType),
		Notes:       req.Notes,
	}
}

func (h *LeaseHandler) ListLeases(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	propertyID, err := queryUUID(r, "property_id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	filter := repository.LeaseFilter{PropertyID: propertyID, Status: domain.LeaseStatus(r.URL.Query().Get("status"))}
	leases, err := h.leaseSvc.List(r.Context(), p.UserID, filter)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, leases)
}

func (h *LeaseHandler) CreateLease(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req leaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	l := &domain.Lease{
		OwnerID:         p.UserID,
		PropertyID:      uuid.MustParse(req.PropertyID),
		TenantID:        uuid.MustParse(req.TenantID),
		StartDate:       parseDate(req.StartDate),
		MonthlyRent:     req.MonthlyRent,
		SecurityDeposit: req.SecurityDeposit,
		DueDay:          req.DueDay,
	}
	if req.EndDate != "" {
		end := parseDate(req.EndDate)
		l.EndDate = &end
	}
	if err := h.leaseSvc.Create(r.Context(), l); err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *LeaseHandler) GetLease(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	l, err := h.leaseSvc.Get(r.Context(), p.UserID, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *LeaseHandler) EndLease(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req endLeaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := h.leaseSvc.End(r.Context(), p.UserID, id, domain.LeaseStatus(req.Status), parseDate(req.EndDate)); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LeaseHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	leaseID, err := queryUUID(r, "lease_id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	filter := repository.PaymentFilter{LeaseID: leaseID, Unreconciled: r.URL.Query().Get("unreconciled") == "true"}
	payments, err := h.paymentSvc.List(r.Context(), p.UserID, filter)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// CreatePayment records a payment. A suspected duplicate is refused with 409
// and the warnings as error details unless the request sets force.
func (h *LeaseHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	payment := req.toDomain(p.UserID)
	warnings, err := h.paymentSvc.Create(r.Context(), payment, req.Force)
	if errors.Is(err, apperr.ErrPossibleDuplicate) {
		respondWithDetails(w, r, err, warnings)
		return
	}
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if warnings == nil {
		warnings = []domain.DuplicateWarning{}
	}
	writeJSON(w, http.StatusCreated, paymentResponse{Payment: payment, Warnings: warnings})
}

// CheckDuplicates reports possible duplicates without recording anything.
func (h *LeaseHandler) CheckDuplicates(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	warnings, err := h.paymentSvc.CheckDuplicates(r.Context(), req.toDomain(p.UserID))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if warnings == nil {
		warnings = []domain.DuplicateWarning{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"warnings": warnings})
}

func (h *LeaseHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	payment, err := h.paymentSvc.Get(r.Context(), p.UserID, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *LeaseHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := h.paymentSvc.Delete(r.Context(), p.UserID, id); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
