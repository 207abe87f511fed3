package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/config"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/metrics"
	"propdesk-backend/internal/security"
	"propdesk-backend/internal/service"
	"propdesk-backend/internal/session"
)

type requestIDKey struct{}
type bearerKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// bearerToken returns the raw token the auth middleware accepted.
func bearerToken(ctx context.Context) string {
	t, _ := ctx.Value(bearerKey{}).(string)
	return t
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func recorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// routeTemplate is the matched mux path template, or "unmatched".
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RequestID assigns each request an id, reusing a well-formed X-Request-ID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		ctx = logger.WithContext(ctx, logger.Get().With("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccessLog logs method, path, status and latency of every request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := recorder(w)
		next.ServeHTTP(rec, r)
		logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr)
	})
}

// Metrics records request counts and latency by route template.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.HTTPActiveRequests.Inc()
		defer metrics.HTTPActiveRequests.Dec()

		rec := recorder(w)
		next.ServeHTTP(rec, r)

		route := routeTemplate(r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Recovery turns handler panics into 500 responses and stores them in the
// error log.
func Recovery(errorLogs service.ErrorLogService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rv := recover()
				if rv == nil {
					return
				}
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				stack := string(debug.Stack())
				logger.ErrorContext(r.Context(), "Handler panicked", "panic", rv, "path", r.URL.Path)

				entry := &domain.ErrorLog{
					Message:   fmt.Sprintf("panic: %v", rv),
					Stack:     stack,
					URL:       r.URL.String(),
					UserAgent: r.UserAgent(),
				}
				if p, ok := session.FromContext(r.Context()); ok {
					uid := p.UserID
					entry.UserID = &uid
				}
				if errorLogs != nil {
					if err := errorLogs.Record(context.WithoutCancel(r.Context()), entry); err != nil {
						logger.Warn("Failed to store panic in error log", "error", err)
					}
				}
				respondWithError(w, r, apperr.ErrInternal)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionChecker reports revoked token ids.
type SessionChecker interface {
	IsRevoked(tokenID string) bool
}

// AuthMiddleware authenticates requests according to the security level of
// the matched route.
type AuthMiddleware struct {
	tokens   security.TokenManager
	sessions SessionChecker
}

func NewAuthMiddleware(tokens security.TokenManager, sessions SessionChecker) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions}
}

// streamRoute may carry its token in the query string since browsers cannot
// set headers on an EventSource.
const streamRoute = "/api/v1/notifications/stream"

func (m *AuthMiddleware) extractToken(r *http.Request, route string) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if route == streamRoute && r.Method == http.MethodGet {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeTemplate(r)
		level := config.GetSecurityLevel(r.Method, route)
		token := m.extractToken(r, route)

		if level == config.SecurityPublic {
			// A valid access token on a public route still identifies the caller.
			if token != "" {
				if claims, err := m.tokens.ValidateTokenType(token, security.TokenTypeAccess); err == nil && !m.sessions.IsRevoked(claims.TokenID()) {
					r = r.WithContext(session.WithPrincipal(r.Context(), principalFrom(claims)))
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		if token == "" {
			respondWithError(w, r, apperr.WithMessage(apperr.ErrUnauthorized, "Authorization token is not provided"))
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			respondWithError(w, r, apperr.Wrap(apperr.ErrUnauthorized, err))
			return
		}
		if err := checkSecurityLevel(level, claims); err != nil {
			respondWithError(w, r, err)
			return
		}
		if m.sessions.IsRevoked(claims.TokenID()) {
			respondWithError(w, r, apperr.WithMessage(apperr.ErrUnauthorized, "Session has ended"))
			return
		}

		ctx := session.WithPrincipal(r.Context(), principalFrom(claims))
		ctx = context.WithValue(ctx, bearerKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFrom(claims *security.UserClaims) session.Principal {
	return session.Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.TokenID(),
		ExpiresAt: claims.Expiry(),
	}
}

func checkSecurityLevel(level config.SecurityLevel, claims *security.UserClaims) error {
	switch level {
	case config.SecurityAccess:
		if claims.Type != security.TokenTypeAccess {
			return apperr.WithMessage(apperr.ErrForbidden, "access token required")
		}
	case config.SecurityRefresh:
		if claims.Type != security.TokenTypeRefresh {
			return apperr.WithMessage(apperr.ErrForbidden, "refresh token required")
		}
	case config.SecurityVerify:
		if claims.Type != security.TokenTypeVerify {
			return apperr.WithMessage(apperr.ErrForbidden, "email verification token required")
		}
	}
	return nil
}

// RateLimit rejects requests beyond the limiter's rate with 429.
func RateLimit(limiter *rate.Limiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				respondWithError(w, r, apperr.ErrTooManyRequests)
				return
			}
			next(w, r)
		}
	}
}
