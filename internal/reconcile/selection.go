package reconcile

import (
	"strings"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
)

// Tab is a review list partition.
type Tab string

const (
	TabAll            Tab = "all"
	TabAutoMatched    Tab = "auto_matched"
	TabReviewRequired Tab = "review_required"
	TabUnmatched      Tab = "unmatched"
	TabResolved       Tab = "resolved"
)

// ParseTab accepts an empty value as TabAll.
func ParseTab(s string) (Tab, bool) {
	switch Tab(s) {
	case "", TabAll:
		return TabAll, true
	case TabAutoMatched, TabReviewRequired, TabUnmatched, TabResolved:
		return Tab(s), true
	}
	return "", false
}

// Includes reports whether a row with status belongs to the tab.
func (t Tab) Includes(status domain.MatchStatus) bool {
	switch t {
	case TabAutoMatched:
		return status.IsAutoMatched()
	case TabReviewRequired:
		return status == domain.MatchStatusReviewRequired
	case TabUnmatched:
		return status == domain.MatchStatusUnmatched
	case TabResolved:
		return status == domain.MatchStatusConfirmed ||
			status == domain.MatchStatusRejected ||
			status == domain.MatchStatusManuallyLinked
	default:
		return true
	}
}

// ViewFilter is the tab plus free-text search of the review list.
type ViewFilter struct {
	Tab    Tab
	Search string
}

// FilterViews returns the rows visible under f, preserving order.
func FilterViews(views []domain.ReconciliationView, f ViewFilter) []domain.ReconciliationView {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.ReconciliationView, 0, len(views))
	for _, v := range views {
		if !f.Tab.Includes(v.MatchStatus) {
			continue
		}
		if q != "" && !matchesSearch(v, q) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func matchesSearch(v domain.ReconciliationView, q string) bool {
	fields := []string{v.Tenant.Name, v.Property.Name, v.Payment.Reference}
	if v.BankTransaction != nil {
		fields = append(fields, v.BankTransaction.Description, v.BankTransaction.ReferenceNumber)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// VisibleIDs lists the ids of views in order.
func VisibleIDs(views []domain.ReconciliationView) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}

// Selection is an ordered set of reconciliation ids.
type Selection struct {
	order []uuid.UUID
	set   map[uuid.UUID]struct{}
}

// NewSelection builds a selection, ignoring duplicates.
func NewSelection(ids ...uuid.UUID) *Selection {
	s := &Selection{set: make(map[uuid.UUID]struct{}, len(ids))}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *Selection) add(id uuid.UUID) {
	if _, ok := s.set[id]; ok {
		return
	}
	s.set[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *Selection) remove(id uuid.UUID) {
	if _, ok := s.set[id]; !ok {
		return
	}
	delete(s.set, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ToggleAll flips between "every visible row" and empty. Rows outside the
// current view are never selected by it.
func (s *Selection) ToggleAll(visible []uuid.UUID) {
	allSelected := len(visible) > 0 && s.Len() == len(visible)
	if allSelected {
		for _, id := range visible {
			if !s.Contains(id) {
				allSelected = false
				break
			}
		}
	}
	s.Clear()
	if !allSelected {
		for _, id := range visible {
			s.add(id)
		}
	}
}

// ScopeTo drops ids that are not in the visible set.
func (s *Selection) ScopeTo(visible []uuid.UUID) {
	keep := make(map[uuid.UUID]struct{}, len(visible))
	for _, id := range visible {
		keep[id] = struct{}{}
	}
	for _, id := range append([]uuid.UUID(nil), s.order...) {
		if _, ok := keep[id]; !ok {
			s.remove(id)
		}
	}
}

func (s *Selection) Contains(id uuid.UUID) bool {
	_, ok := s.set[id]
	return ok
}

func (s *Selection) Len() int { return len(s.order) }

func (s *Selection) Clear() {
	s.order = nil
	s.set = make(map[uuid.UUID]struct{})
}

// IDs returns the selected ids in insertion order.
func (s *Selection) IDs() []uuid.UUID {
	return append([]uuid.UUID(nil), s.order...)
}
