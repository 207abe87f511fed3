package reconcile

import "propdesk-backend/internal/domain"

// Summary is the live per-status count of a session's rows.
type Summary struct {
	Total          int `json:"total"`
	AutoMatched    int `json:"auto_matched"`
	ReviewRequired int `json:"review_required"`
	Unmatched      int `json:"unmatched"`
	Confirmed      int `json:"confirmed"`
	Rejected       int `json:"rejected"`
	ManuallyLinked int `json:"manually_linked"`
	Reconciled     int `json:"reconciled"`
	Mismatches     int `json:"tenant_mismatches"`
}

// Summarize recomputes counts from the rows currently loaded.
func Summarize(views []domain.ReconciliationView) Summary {
	var s Summary
	for _, v := range views {
		s.Total++
		switch v.MatchStatus {
		case domain.MatchStatusDefinite, domain.MatchStatusHighConfidence:
			s.AutoMatched++
		case domain.MatchStatusReviewRequired:
			s.ReviewRequired++
		case domain.MatchStatusUnmatched:
			s.Unmatched++
		case domain.MatchStatusConfirmed:
			s.Confirmed++
		case domain.MatchStatusRejected:
			s.Rejected++
		case domain.MatchStatusManuallyLinked:
			s.ManuallyLinked++
		}
		if v.IsReconciled {
			s.Reconciled++
		}
		if ViewHasTenantMismatch(v) {
			s.Mismatches++
		}
	}
	return s
}
