package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus is the processing_status of a reconciliation session.
type SessionStatus string

const (
	SessionStatusUploaded   SessionStatus = "uploaded"
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
	SessionStatusCancelled  SessionStatus = "cancelled"
	SessionStatusSaved      SessionStatus = "saved"
)

// MatchStatus is the categorical state of a candidate payment/bank link.
type MatchStatus string

const (
	MatchStatusDefinite       MatchStatus = "definite_match"
	MatchStatusHighConfidence MatchStatus = "high_confidence"
	MatchStatusReviewRequired MatchStatus = "review_required"
	MatchStatusUnmatched      MatchStatus = "unmatched"
	MatchStatusConfirmed      MatchStatus = "confirmed"
	MatchStatusRejected       MatchStatus = "rejected"
	MatchStatusManuallyLinked MatchStatus = "manually_linked"
)

// IsAutoMatched reports whether finalize may reconcile a match in this state.
func (s MatchStatus) IsAutoMatched() bool {
	return s == MatchStatusDefinite || s == MatchStatusHighConfidence
}

// IsResolved reports whether no further review action is pending.
func (s MatchStatus) IsResolved() bool {
	switch s {
	case MatchStatusConfirmed, MatchStatusManuallyLinked, MatchStatusRejected, MatchStatusUnmatched:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusDefinite, MatchStatusHighConfidence, MatchStatusReviewRequired, MatchStatusUnmatched,
		MatchStatusConfirmed, MatchStatusRejected, MatchStatusManuallyLinked:
		return true
	}
	return false
}

// Learned-pattern confidence boosts written on review actions.
const (
	ConfirmConfidenceBoost    = 10
	ManualLinkConfidenceBoost = 15
	ManualLinkConfidence      = 100
)

// ReconciliationSession groups one uploaded statement and its processing run.
type ReconciliationSession struct {
	ID                uuid.UUID     `json:"id"`
	UserID            uuid.UUID     `json:"user_id"`
	FileName          string        `json:"file_name"`
	FileSize          int64         `json:"file_size"`
	StorageKey        string        `json:"-"`
	ProcessingStatus  SessionStatus `json:"processing_status"`
	TotalTransactions int           `json:"total_transactions"`
	AutoMatched       int           `json:"auto_matched"`
	ReviewRequired    int           `json:"review_required"`
	Unmatched         int           `json:"unmatched"`
	ErrorMessage      string        `json:"error_message,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
}

// BankTransaction is a statement row produced by the remote parser.
type BankTransaction struct {
	ID              uuid.UUID       `json:"id"`
	SessionID       uuid.UUID       `json:"session_id"`
	UserID          uuid.UUID       `json:"user_id"`
	TransactionDate time.Time       `json:"transaction_date"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"reference_number"`
	TransactionType string          `json:"transaction_type"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PaymentReconciliation links zero or one bank transaction to exactly one payment.
type PaymentReconciliation struct {
	ID                uuid.UUID   `json:"id"`
	UserID            uuid.UUID   `json:"user_id"`
	SessionID         uuid.UUID   `json:"session_id"`
	PaymentID         uuid.UUID   `json:"payment_id"`
	BankTransactionID *uuid.UUID  `json:"bank_transaction_id,omitempty"`
	ConfidenceScore   int         `json:"confidence_score"`
	MatchStatus       MatchStatus `json:"match_status"`
	MatchingReasons   []string    `json:"matching_reasons"`
	IsReconciled      bool        `json:"is_reconciled"`
	ReviewedBy        *uuid.UUID  `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time  `json:"reviewed_at,omitempty"`
	ReviewNotes       string      `json:"review_notes,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// ReconciliationPattern is a learned tenant/description association consumed
// by the remote matcher.
type ReconciliationPattern struct {
	ID                     uuid.UUID `json:"id"`
	UserID                 uuid.UUID `json:"user_id"`
	TenantID               uuid.UUID `json:"tenant_id"`
	BankDescriptionPattern string    `json:"bank_description_pattern"`
	ConfidenceBoost        int       `json:"confidence_boost"`
	TimesConfirmed         int       `json:"times_confirmed"`
	LastUsedAt             time.Time `json:"last_used_at"`
}

// PropertyRef is the property joined through payment -> lease. A missing join
// is represented explicitly rather than as a zero value.
type PropertyRef struct {
	ID    *uuid.UUID `json:"id,omitempty"`
	Name  string     `json:"name"`
	Known bool       `json:"known"`
}

// NewPropertyRef builds a ref from nullable join columns.
func NewPropertyRef(id uuid.NullUUID, name *string) PropertyRef {
	if !id.Valid || name == nil || *name == "" {
		return PropertyRef{Name: "Unknown Property"}
	}
	pid := id.UUID
	return PropertyRef{ID: &pid, Name: *name, Known: true}
}

// TenantRef is the tenant joined through payment -> lease.
type TenantRef struct {
	ID    *uuid.UUID `json:"id,omitempty"`
	Name  string     `json:"name"`
	Known bool       `json:"known"`
}

// NewTenantRef builds a ref from nullable join columns.
func NewTenantRef(id uuid.NullUUID, name *string) TenantRef {
	if !id.Valid || name == nil || *name == "" {
		return TenantRef{Name: "Unknown Tenant"}
	}
	tid := id.UUID
	return TenantRef{ID: &tid, Name: *name, Known: true}
}

// MatchName returns the tenant name used for matching, empty when unknown.
func (t TenantRef) MatchName() string {
	if !t.Known {
		return ""
	}
	return t.Name
}

// PaymentSummary is the subset of a payment shown next to a match.
type PaymentSummary struct {
	ID           uuid.UUID       `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentDate  time.Time       `json:"payment_date"`
	Method       PaymentMethod   `json:"method"`
	Reference    string          `json:"reference"`
	PaymentType  PaymentType     `json:"payment_type"`
	IsReconciled bool            `json:"is_reconciled"`
}

// ReconciliationView is a reconciliation with its nested joins resolved.
type ReconciliationView struct {
	PaymentReconciliation
	Payment         PaymentSummary   `json:"payment"`
	Property        PropertyRef      `json:"property"`
	Tenant          TenantRef        `json:"tenant"`
	BankTransaction *BankTransaction `json:"bank_transaction,omitempty"`
}

// MatchSummary is the remote matcher's aggregate report, taken verbatim.
type MatchSummary struct {
	AutoMatched    int `json:"auto_matched"`
	ReviewRequired int `json:"review_required"`
	Unmatched      int `json:"unmatched"`
	TotalPayments  int `json:"total_payments"`
}
