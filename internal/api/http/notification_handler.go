package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/service"
	"propdesk-backend/internal/session"
)

// SessionEvents is the per-user feed of logout and refresh events.
type SessionEvents interface {
	Subscribe(userID uuid.UUID) (<-chan session.Event, func())
}

// NotificationHandler serves the notification inbox and its live stream
type NotificationHandler struct {
	noteSvc   service.NotificationService
	sessions  SessionEvents
	heartbeat time.Duration
}

func NewNotificationHandler(noteSvc service.NotificationService, sessions SessionEvents) *NotificationHandler {
	return &NotificationHandler{noteSvc: noteSvc, sessions: sessions, heartbeat: 25 * time.Second}
}

type notificationPage struct {
	Notifications any `json:"notifications"`
	Total         int `json:"total"`
	Page          int `json:"page"`
	PageSize      int `json:"page_size"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	notes, total, err := h.noteSvc.List(r.Context(), p.UserID, page, pageSize)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notificationPage{Notifications: notes, Total: total, Page: page, PageSize: pageSize})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	n, err := h.noteSvc.UnreadCount(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
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
	if err := h.noteSvc.MarkRead(r.Context(), p.UserID, id); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	n, err := h.noteSvc.MarkAllRead(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// Stream pushes new notifications as server-sent events until the client
// disconnects or the session behind the request is logged out.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, r, apperr.WithMessage(apperr.ErrInternal, "Streaming is not supported"))
		return
	}

	notes, cancelNotes := h.noteSvc.Subscribe(p.UserID)
	defer cancelNotes()
	events, cancelEvents := h.sessions.Subscribe(p.UserID)
	defer cancelEvents()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	logger.Debug("Notification stream opened", "userID", p.UserID)
	defer logger.Debug("Notification stream closed", "userID", p.UserID)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case n, ok := <-notes:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				logger.Warn("Failed to encode notification", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: notification\nid: %s\ndata: %s\n\n", n.ID, data)
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind == session.EventLogout && ev.TokenID == p.TokenID {
				fmt.Fprint(w, "event: logout\ndata: {}\n\n")
				flusher.Flush()
				return
			}
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
