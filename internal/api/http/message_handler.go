package http

import (
	"net/http"

	"github.com/google/uuid"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/service"
)

// MessageHandler handles owner messages and client error reports
type MessageHandler struct {
	messageSvc  service.MessageService
	errorLogSvc service.ErrorLogService
}

func NewMessageHandler(messageSvc service.MessageService, errorLogSvc service.ErrorLogService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc, errorLogSvc: errorLogSvc}
}

type messageRequest struct {
	TenantID string `json:"tenant_id" validate:"omitempty,uuid"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Body     string `json:"body" validate:"required,max=10000"`
}

type errorLogRequest struct {
	Message   string `json:"message" validate:"required"`
	Stack     string `json:"stack"`
	URL       string `json:"url"`
	UserAgent string `json:"user_agent"`
}

func (h *MessageHandler) Compose(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	m := &domain.Message{SenderID: p.UserID, Subject: req.Subject, Body: req.Body}
	if req.TenantID != "" {
		id := uuid.MustParse(req.TenantID)
		m.TenantID = &id
	}
	if err := h.messageSvc.Compose(r.Context(), m); err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	msgs, err := h.messageSvc.List(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// ReportError stores a client-side error. Anonymous reports are accepted.
func (h *MessageHandler) ReportError(w http.ResponseWriter, r *http.Request) {
	var req errorLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	entry := &domain.ErrorLog{Message: req.Message, Stack: req.Stack, URL: req.URL, UserAgent: req.UserAgent}
	if entry.UserAgent == "" {
		entry.UserAgent = r.UserAgent()
	}
	if p, err := principal(r); err == nil {
		uid := p.UserID
		entry.UserID = &uid
	}
	if err := h.errorLogSvc.Record(r.Context(), entry); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
