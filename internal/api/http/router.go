package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/security"
	"propdesk-backend/internal/service"
)

// Pinger checks a backing dependency for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sessions is what the HTTP layer needs from the session broker.
type Sessions interface {
	SessionChecker
	SessionEvents
}

// Dependencies wires the services behind the API.
type Dependencies struct {
	Auth           service.AuthService
	Properties     service.PropertyService
	Tenants        service.TenantService
	Leases         service.LeaseService
	Payments       service.PaymentService
	Documents      service.DocumentService
	Notifications  service.NotificationService
	Messages       service.MessageService
	ErrorLogs      service.ErrorLogService
	Reconciliation service.ReconciliationService

	Tokens   security.TokenManager
	Sessions Sessions
	Health   Pinger

	// LoginLimiter throttles signup and login; nil disables it.
	LoginLimiter   *rate.Limiter
	MaxUploadBytes int64
}

// NewLoginLimiter builds the shared limiter for the credential endpoints.
func NewLoginLimiter(perSecond, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(perSecond)), burst)
}

// NewRouter registers every API route and returns the full handler chain.
func NewRouter(d Dependencies) http.Handler {
	router := mux.NewRouter()

	authH := NewAuthHandler(d.Auth)
	propH := NewPropertyHandler(d.Properties, d.Tenants)
	leaseH := NewLeaseHandler(d.Leases, d.Payments)
	docH := NewDocumentHandler(d.Documents, d.MaxUploadBytes)
	noteH := NewNotificationHandler(d.Notifications, d.Sessions)
	msgH := NewMessageHandler(d.Messages, d.ErrorLogs)
	reconH := NewReconciliationHandler(d.Reconciliation, d.MaxUploadBytes)
	limit := RateLimit(d.LoginLimiter)

	router.HandleFunc("/healthz", healthz(d.Health)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/signup", limit(authH.Signup)).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", limit(authH.Login)).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", authH.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", authH.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", authH.Verify).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", authH.Me).Methods(http.MethodGet)

	api.HandleFunc("/properties", propH.ListProperties).Methods(http.MethodGet)
	api.HandleFunc("/properties", propH.CreateProperty).Methods(http.MethodPost)
	api.HandleFunc("/properties/{id}", propH.GetProperty).Methods(http.MethodGet)
	api.HandleFunc("/properties/{id}", propH.UpdateProperty).Methods(http.MethodPut)
	api.HandleFunc("/properties/{id}", propH.DeleteProperty).Methods(http.MethodDelete)

	api.HandleFunc("/tenants", propH.ListTenants).Methods(http.MethodGet)
	api.HandleFunc("/tenants", propH.CreateTenant).Methods(http.MethodPost)
	api.HandleFunc("/tenants/{id}", propH.GetTenant).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{id}", propH.UpdateTenant).Methods(http.MethodPut)

	api.HandleFunc("/leases", leaseH.ListLeases).Methods(http.MethodGet)
	api.HandleFunc("/leases", leaseH.CreateLease).Methods(http.MethodPost)
	api.HandleFunc("/leases/{id}", leaseH.GetLease).Methods(http.MethodGet)
	api.HandleFunc("/leases/{id}/end", leaseH.EndLease).Methods(http.MethodPost)

	api.HandleFunc("/payments", leaseH.ListPayments).Methods(http.MethodGet)
	api.HandleFunc("/payments", leaseH.CreatePayment).Methods(http.MethodPost)
	api.HandleFunc("/payments/check-duplicates", leaseH.CheckDuplicates).Methods(http.MethodPost)
	api.HandleFunc("/payments/{id}", leaseH.GetPayment).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}", leaseH.DeletePayment).Methods(http.MethodDelete)

	api.HandleFunc("/documents", docH.List).Methods(http.MethodGet)
	api.HandleFunc("/documents", docH.Upload).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/download", docH.Download).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", docH.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/messages", msgH.List).Methods(http.MethodGet)
	api.HandleFunc("/messages", msgH.Compose).Methods(http.MethodPost)
	api.HandleFunc("/error-logs", msgH.ReportError).Methods(http.MethodPost)

	api.HandleFunc("/notifications", noteH.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/unread-count", noteH.UnreadCount).Methods(http.MethodGet)
	api.HandleFunc("/notifications/stream", noteH.Stream).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", noteH.MarkAllRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}/read", noteH.MarkRead).Methods(http.MethodPost)

	api.HandleFunc("/reconciliation/sessions", reconH.ListSessions).Methods(http.MethodGet)
	api.HandleFunc("/reconciliation/sessions", reconH.StartSession).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/sessions/{id}", reconH.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/reconciliation/sessions/{id}/finalize", reconH.Finalize).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/sessions/{id}/terminate", reconH.Terminate).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/sessions/{id}/save", reconH.Save).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/sessions/{id}/bank-transactions/unused", reconH.UnusedBankTransactions).Methods(http.MethodGet)
	api.HandleFunc("/reconciliation/sessions/{id}/bulk/confirm", reconH.BulkConfirm).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/sessions/{id}/bulk/reject", reconH.BulkReject).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/matches/{id}/confirm", reconH.Confirm).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/matches/{id}/reject", reconH.Reject).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/matches/{id}/link", reconH.Link).Methods(http.MethodPost)
	api.HandleFunc("/reconciliation/matches/{id}/explain", reconH.Explain).Methods(http.MethodGet)

	// Route-aware middleware runs after matching so the template is known.
	router.Use(Metrics, NewAuthMiddleware(d.Tokens, d.Sessions).Handler, Recovery(d.ErrorLogs))

	return RequestID(AccessLog(router))
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				logger.Warn("Health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
