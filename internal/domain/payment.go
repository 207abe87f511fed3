package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeRent        PaymentType = "rent"
	PaymentTypeMaintenance PaymentType = "maintenance"
	PaymentTypeDeposit     PaymentType = "deposit"
	PaymentTypeOther       PaymentType = "other"
)

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodCard         PaymentMethod = "card"
)

// Payment is a transaction recorded by the owner against a lease.
// Once IsReconciled is set the record is immutable.
type Payment struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	LeaseID      uuid.UUID       `json:"lease_id"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentDate  time.Time       `json:"payment_date"`
	Method       PaymentMethod   `json:"method"`
	Reference    string          `json:"reference"`
	PaymentType  PaymentType     `json:"payment_type"`
	Notes        string          `json:"notes"`
	IsReconciled bool            `json:"is_reconciled"`
	ReconciledAt *time.Time      `json:"reconciled_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DuplicateWarning describes an existing payment that resembles a new one.
type DuplicateWarning struct {
	PaymentID uuid.UUID `json:"payment_id"`
	Reason    string    `json:"reason"`
}
