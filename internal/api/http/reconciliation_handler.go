package http

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/reconcile"
	"propdesk-backend/internal/service"
)

// ReconciliationHandler drives statement upload and the review workflow
type ReconciliationHandler struct {
	reconSvc service.ReconciliationService
	maxBytes int64
}

func NewReconciliationHandler(reconSvc service.ReconciliationService, maxBytes int64) *ReconciliationHandler {
	return &ReconciliationHandler{reconSvc: reconSvc, maxBytes: maxBytes}
}

type reviewRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type linkRequest struct {
	BankTransactionID string `json:"bank_transaction_id" validate:"required,uuid"`
	Notes             string `json:"notes" validate:"max=2000"`
}

// bulkRequest selects rows by id or, with All, every row visible under the
// same tab and search the review list uses.
type bulkRequest struct {
	IDs    []string `json:"ids" validate:"omitempty,max=500,dive,uuid"`
	All    bool     `json:"all"`
	Tab    string   `json:"tab"`
	Search string   `json:"search" validate:"max=200"`
	Notes  string   `json:"notes" validate:"max=2000"`
}

// StartSession accepts a CSV statement as the "file" multipart field and
// runs parse and match before responding.
func (h *ReconciliationHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	file, name, _, err := formFile(w, r, h.maxBytes)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		respondWithError(w, r, apperr.Wrap(apperr.ErrInvalidInput, err))
		return
	}
	res, err := h.reconSvc.StartSession(r.Context(), p.UserID, name, content)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ReconciliationHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	sessions, err := h.reconSvc.ListSessions(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// GetSession loads a session for review, filtered by ?tab= and ?search=.
func (h *ReconciliationHandler) GetSession(w http.ResponseWriter, r *http.Request) {
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
	tab, ok := reconcile.ParseTab(r.URL.Query().Get("tab"))
	if !ok {
		respondWithError(w, r, apperr.WithMessage(apperr.ErrInvalidInput, "Unknown tab"))
		return
	}
	detail, err := h.reconSvc.LoadSession(r.Context(), p.UserID, id, reconcile.ViewFilter{Tab: tab, Search: r.URL.Query().Get("search")})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ReconciliationHandler) Finalize(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.reconSvc.Finalize(r.Context(), p.UserID, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReconciliationHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.reconSvc.Terminate)
}

func (h *ReconciliationHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.sessionAction(w, r, h.reconSvc.SaveForLater)
}

func (h *ReconciliationHandler) sessionAction(w http.ResponseWriter, r *http.Request, action func(context.Context, uuid.UUID, uuid.UUID) error) {
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
	if err := action(r.Context(), p.UserID, id); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReconciliationHandler) UnusedBankTransactions(w http.ResponseWriter, r *http.Request) {
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
	txs, err := h.reconSvc.UnusedBankTransactions(r.Context(), p.UserID, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *ReconciliationHandler) BulkConfirm(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.reconSvc.BulkConfirm)
}

func (h *ReconciliationHandler) BulkReject(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.reconSvc.BulkReject)
}

type bulkFunc func(ctx context.Context, userID, sessionID uuid.UUID, sel service.BulkSelection, notes string) (*service.BulkResult, error)

func (h *ReconciliationHandler) bulk(w http.ResponseWriter, r *http.Request, action bulkFunc) {
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
	var req bulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if !req.All && len(req.IDs) == 0 {
		respondWithError(w, r, apperr.WithMessage(apperr.ErrInvalidInput, "ids is required unless all is set"))
		return
	}
	tab, ok := reconcile.ParseTab(req.Tab)
	if !ok {
		respondWithError(w, r, apperr.WithMessage(apperr.ErrInvalidInput, "Unknown tab"))
		return
	}
	sel := service.BulkSelection{
		IDs:    make([]uuid.UUID, len(req.IDs)),
		All:    req.All,
		Filter: reconcile.ViewFilter{Tab: tab, Search: req.Search},
	}
	for i, raw := range req.IDs {
		sel.IDs[i] = uuid.MustParse(raw)
	}
	res, err := action(r.Context(), p.UserID, id, sel, req.Notes)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReconciliationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.reconSvc.Confirm)
}

func (h *ReconciliationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.reconSvc.Reject)
}

type reviewFunc func(ctx context.Context, userID, recID uuid.UUID, notes string) (*domain.ReconciliationView, error)

func (h *ReconciliationHandler) review(w http.ResponseWriter, r *http.Request, action reviewFunc) {
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
	var req reviewRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	view, err := action(r.Context(), p.UserID, id, req.Notes)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ReconciliationHandler) Link(w http.ResponseWriter, r *http.Request) {
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
	var req linkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	view, err := h.reconSvc.ManualLink(r.Context(), p.UserID, id, uuid.MustParse(req.BankTransactionID), req.Notes)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ReconciliationHandler) Explain(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.reconSvc.Explain(r.Context(), p.UserID, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
