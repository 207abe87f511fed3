package reconcile

import (
	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
)

// Phase is the step of the upload workflow a session belongs in.
type Phase string

const (
	PhaseUpload     Phase = "upload"
	PhaseProcessing Phase = "processing"
	PhaseResults    Phase = "results"
)

// Mode tells whether the results of a session may still change.
type Mode string

const (
	ModeActive   Mode = "active"
	ModeReadOnly Mode = "read_only"
)

// Action is a user operation on a session.
type Action string

const (
	ActionReview    Action = "review"
	ActionFinalize  Action = "finalize"
	ActionTerminate Action = "terminate"
	ActionSave      Action = "save"
)

// processing covers both the in-flight pipeline and the editable results
// that follow a successful match; only finalize moves a session to completed.
var transitions = map[domain.SessionStatus][]domain.SessionStatus{
	domain.SessionStatusUploaded: {
		domain.SessionStatusProcessing,
		domain.SessionStatusFailed,
		domain.SessionStatusCancelled,
	},
	domain.SessionStatusProcessing: {
		domain.SessionStatusCompleted,
		domain.SessionStatusFailed,
		domain.SessionStatusCancelled,
		domain.SessionStatusSaved,
	},
	domain.SessionStatusSaved: {
		domain.SessionStatusCompleted,
		domain.SessionStatusCancelled,
		domain.SessionStatusSaved,
	},
	domain.SessionStatusFailed: {
		domain.SessionStatusCancelled,
	},
}

// CanTransition reports whether a session may move from one status to another.
func CanTransition(from, to domain.SessionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ModeFor derives read-only purely from the completed status.
func ModeFor(status domain.SessionStatus) Mode {
	if status == domain.SessionStatusCompleted {
		return ModeReadOnly
	}
	return ModeActive
}

// PhaseFor returns where a resumed session lands.
func PhaseFor(status domain.SessionStatus) Phase {
	switch status {
	case domain.SessionStatusUploaded:
		return PhaseProcessing
	case domain.SessionStatusFailed, domain.SessionStatusCancelled:
		return PhaseUpload
	default:
		return PhaseResults
	}
}

// Guard returns an error when action is not allowed for a session in status.
func Guard(status domain.SessionStatus, action Action) error {
	if status == domain.SessionStatusCompleted {
		return apperr.ErrSessionReadOnly
	}
	var target domain.SessionStatus
	switch action {
	case ActionReview, ActionFinalize:
		if status == domain.SessionStatusProcessing || status == domain.SessionStatusSaved {
			return nil
		}
		return apperr.ErrInvalidTransition
	case ActionTerminate:
		target = domain.SessionStatusCancelled
	case ActionSave:
		target = domain.SessionStatusSaved
	default:
		return apperr.ErrInvalidTransition
	}
	if !CanTransition(status, target) {
		return apperr.ErrInvalidTransition
	}
	return nil
}

// FinalizePlan is what a finalize call will do.
type FinalizePlan struct {
	ToReconcile     []domain.PaymentReconciliation
	PendingReview   int
	CompleteSession bool
}

// PlanFinalize selects the auto-matched, not yet reconciled rows and decides
// whether the session closes: it does iff no review_required rows remain.
func PlanFinalize(recs []domain.PaymentReconciliation) FinalizePlan {
	var plan FinalizePlan
	for _, r := range recs {
		if r.MatchStatus.IsAutoMatched() && !r.IsReconciled {
			plan.ToReconcile = append(plan.ToReconcile, r)
		}
		if r.MatchStatus == domain.MatchStatusReviewRequired {
			plan.PendingReview++
		}
	}
	plan.CompleteSession = plan.PendingReview == 0
	return plan
}
