package reconcile

import (
	"strings"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
)

// HasTenantMismatch flags a linked bank transaction whose description shares
// no name token (longer than two characters) with the tenant. It is a warning
// badge only and never blocks review actions.
func HasTenantMismatch(bankTransactionID *uuid.UUID, tenantName, bankDescription string) bool {
	if bankTransactionID == nil {
		return false
	}
	if strings.TrimSpace(tenantName) == "" || strings.TrimSpace(bankDescription) == "" {
		return false
	}
	desc := strings.ToLower(bankDescription)
	for _, token := range nameTokens(tenantName) {
		if strings.Contains(desc, token) {
			return false
		}
	}
	return true
}

// ViewHasTenantMismatch applies HasTenantMismatch to a joined reconciliation.
func ViewHasTenantMismatch(v domain.ReconciliationView) bool {
	desc := ""
	if v.BankTransaction != nil {
		desc = v.BankTransaction.Description
	}
	return HasTenantMismatch(v.BankTransactionID, v.Tenant.MatchName(), desc)
}
