package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/notify"
	"propdesk-backend/internal/reconcile"
	"propdesk-backend/internal/security"
	"propdesk-backend/internal/service"
	"propdesk-backend/internal/session"
)

const testSecret = "test-secret-that-is-at-least-32-chars!"

type apiFixture struct {
	handler    http.Handler
	tokens     security.TokenManager
	broker     *session.Broker
	hub        *notify.Hub
	auth       *MockAuthService
	properties *MockPropertyService
	payments   *MockPaymentService
	documents  *MockDocumentService
	errorLogs  *MockErrorLogService
	notes      *MockNotificationService
	recon      *MockReconciliationService
	userID     uuid.UUID
}

func newAPIFixture(t *testing.T, deps ...func(*Dependencies)) *apiFixture {
	t.Helper()
	f := &apiFixture{
		tokens:     security.NewTokenManager(testSecret, security.DefaultTTL),
		broker:     session.NewBroker(),
		hub:        notify.NewHub(),
		auth:       new(MockAuthService),
		properties: new(MockPropertyService),
		payments:   new(MockPaymentService),
		documents:  new(MockDocumentService),
		errorLogs:  new(MockErrorLogService),
		recon:      new(MockReconciliationService),
		userID:     uuid.New(),
	}
	f.notes = &MockNotificationService{hub: f.hub}
	d := Dependencies{
		Auth:           f.auth,
		Properties:     f.properties,
		Payments:       f.payments,
		Documents:      f.documents,
		Notifications:  f.notes,
		ErrorLogs:      f.errorLogs,
		Reconciliation: f.recon,
		Tokens:         f.tokens,
		Sessions:       f.broker,
		Health:         stubPinger{},
		MaxUploadBytes: 1 << 20,
	}
	for _, fn := range deps {
		fn(&d)
	}
	f.handler = NewRouter(d)
	return f
}

func (f *apiFixture) accessToken(t *testing.T) string {
	t.Helper()
	tok, err := f.tokens.GenerateAccessToken(f.userID, "owner@example.com")
	require.NoError(t, err)
	return tok
}

func (f *apiFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) authed(t *testing.T, method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+f.accessToken(t))
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body struct {
		Error errorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealthz(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newAPIFixture(t)
		rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("Database Down", func(t *testing.T) {
		f := newAPIFixture(t, func(d *Dependencies) { d.Health = stubPinger{err: errors.New("refused")} })
		rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "propdesk_http_active_requests")
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("Missing Token", func(t *testing.T) {
		f := newAPIFixture(t)
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
	})

	t.Run("Refresh Token On Access Route", func(t *testing.T) {
		f := newAPIFixture(t)
		refresh, _ := f.tokens.GenerateRefreshToken(f.userID, "owner@example.com")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)

		rec := f.do(req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Revoked Token", func(t *testing.T) {
		f := newAPIFixture(t)
		tok := f.accessToken(t)
		claims, err := f.tokens.ValidateToken(tok)
		require.NoError(t, err)
		f.broker.Revoke(claims.TokenID(), claims.Expiry())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
		req.Header.Set("Authorization", "Bearer "+tok)

		rec := f.do(req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Session has ended", decodeError(t, rec).Message)
	})

	t.Run("Principal Reaches Handler", func(t *testing.T) {
		f := newAPIFixture(t)
		f.properties.On("List", mock.Anything, f.userID).Return([]domain.Property{{Name: "Lake View"}}, nil)

		rec := f.do(f.authed(t, http.MethodGet, "/api/v1/properties", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Lake View")
	})
}

func TestLoginRateLimit(t *testing.T) {
	f := newAPIFixture(t, func(d *Dependencies) { d.LoginLimiter = NewLoginLimiter(1, 2) })
	f.auth.On("Login", mock.Anything, "owner@example.com", "wrong-pass").Return(nil, apperr.ErrInvalidCredentials)

	login := func() *httptest.ResponseRecorder {
		body := `{"email":"owner@example.com","password":"wrong-pass"}`
		return f.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)))
	}

	assert.Equal(t, http.StatusUnauthorized, login().Code)
	assert.Equal(t, http.StatusUnauthorized, login().Code)
	rec := login()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)
}

func TestSignupValidation(t *testing.T) {
	f := newAPIFixture(t)
	body := `{"full_name":"Amit Sharma","email":"not-an-email","password":"s3cret-pass"}`

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email must be a valid email address", decodeError(t, rec).Message)
	f.auth.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLogoutPassesPrincipalAndRefreshToken(t *testing.T) {
	f := newAPIFixture(t)
	f.auth.On("Logout", mock.Anything, mock.MatchedBy(func(p session.Principal) bool {
		return p.UserID == f.userID && p.TokenID != ""
	}), "refresh-token").Return(nil)

	rec := f.do(f.authed(t, http.MethodPost, "/api/v1/auth/logout", strings.NewReader(`{"refresh_token":"refresh-token"}`)))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	f.auth.AssertExpectations(t)
}

func TestCreatePayment(t *testing.T) {
	leaseID := uuid.New()
	body := `{"lease_id":"` + leaseID.String() + `","amount":"15000.00","payment_date":"2024-01-05","reference":"UTR20240105"}`

	t.Run("Success", func(t *testing.T) {
		f := newAPIFixture(t)
		f.payments.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
			return p.OwnerID == f.userID && p.LeaseID == leaseID &&
				p.Amount.Equal(decimal.NewFromInt(15000)) &&
				p.PaymentDate.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
		}), false).Return(nil, nil)

		rec := f.do(f.authed(t, http.MethodPost, "/api/v1/payments", strings.NewReader(body)))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"warnings":[]`)
	})

	t.Run("Possible Duplicate", func(t *testing.T) {
		f := newAPIFixture(t)
		warning := domain.DuplicateWarning{PaymentID: uuid.New(), Reason: "Same amount 15000 recorded on 2024-01-06"}
		f.payments.On("Create", mock.Anything, mock.Anything, false).
			Return([]domain.DuplicateWarning{warning}, apperr.ErrPossibleDuplicate)

		rec := f.do(f.authed(t, http.MethodPost, "/api/v1/payments", strings.NewReader(body)))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "POSSIBLE_DUPLICATE", decodeError(t, rec).Code)
		assert.Contains(t, rec.Body.String(), warning.PaymentID.String())
	})

	t.Run("Bad Date", func(t *testing.T) {
		f := newAPIFixture(t)
		bad := `{"lease_id":"` + leaseID.String() + `","amount":"10","payment_date":"05/01/2024"}`

		rec := f.do(f.authed(t, http.MethodPost, "/api/v1/payments", strings.NewReader(bad)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "payment_date must be a date in YYYY-MM-DD format", decodeError(t, rec).Message)
	})
}

func TestRecoveryStoresPanic(t *testing.T) {
	f := newAPIFixture(t)
	propID := uuid.New()
	f.properties.On("Get", mock.Anything, f.userID, propID).Run(func(mock.Arguments) { panic("nil map write") }).Return(nil, nil)
	f.errorLogs.On("Record", mock.Anything, mock.MatchedBy(func(e *domain.ErrorLog) bool {
		return e.UserID != nil && *e.UserID == f.userID && strings.Contains(e.Message, "nil map write") && e.Stack != ""
	})).Return(nil)

	rec := f.do(f.authed(t, http.MethodGet, "/api/v1/properties/"+propID.String(), nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
	f.errorLogs.AssertExpectations(t)
}

func TestReportErrorIsPublic(t *testing.T) {
	f := newAPIFixture(t)
	f.errorLogs.On("Record", mock.Anything, mock.MatchedBy(func(e *domain.ErrorLog) bool {
		return e.UserID == nil && e.Message == "TypeError: x is undefined"
	})).Return(nil)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/error-logs", strings.NewReader(`{"message":"TypeError: x is undefined"}`)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestDocumentDownload(t *testing.T) {
	f := newAPIFixture(t)
	docID := uuid.New()
	doc := &domain.Document{ID: docID, FileName: "lease 4B.pdf", ContentType: "application/pdf", SizeBytes: 8}
	f.documents.On("Open", mock.Anything, f.userID, docID).Return(doc, io.NopCloser(strings.NewReader("%PDF-1.4")), nil)

	rec := f.do(f.authed(t, http.MethodGet, "/api/v1/documents/"+docID.String()+"/download", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="lease 4B.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
}

func TestReconciliationRoutes(t *testing.T) {
	sessionID := uuid.New()

	t.Run("Start Session", func(t *testing.T) {
		f := newAPIFixture(t)
		csv := "date,amount,description\n2024-01-05,15000,NEFT AMIT SHARMA\n"
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "jan.csv")
		require.NoError(t, err)
		_, _ = part.Write([]byte(csv))
		require.NoError(t, mw.Close())

		f.recon.On("StartSession", mock.Anything, f.userID, "jan.csv", []byte(csv)).Return(&service.StartResult{
			Session:          &domain.ReconciliationSession{ID: sessionID},
			TransactionCount: 1,
			Summary:          domain.MatchSummary{AutoMatched: 1, TotalPayments: 1},
		}, nil)

		req := f.authed(t, http.MethodPost, "/api/v1/reconciliation/sessions", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := f.do(req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"auto_matched":1`)
	})

	t.Run("Load Session With Filter", func(t *testing.T) {
		f := newAPIFixture(t)
		filter := reconcile.ViewFilter{Tab: reconcile.TabReviewRequired, Search: "sharma"}
		f.recon.On("LoadSession", mock.Anything, f.userID, sessionID, filter).
			Return(&service.SessionDetail{ReadOnly: true, Matches: []service.MatchRow{}}, nil)

		rec := f.do(f.authed(t, http.MethodGet, "/api/v1/reconciliation/sessions/"+sessionID.String()+"?tab=review_required&search=sharma", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"read_only":true`)
	})

	t.Run("Unknown Tab", func(t *testing.T) {
		f := newAPIFixture(t)
		rec := f.do(f.authed(t, http.MethodGet, "/api/v1/reconciliation/sessions/"+sessionID.String()+"?tab=archived", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Session Not Found", func(t *testing.T) {
		f := newAPIFixture(t)
		f.recon.On("LoadSession", mock.Anything, f.userID, sessionID, mock.Anything).Return(nil, apperr.ErrSessionNotFound)

		rec := f.do(f.authed(t, http.MethodGet, "/api/v1/reconciliation/sessions/"+sessionID.String(), nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Session not found", decodeError(t, rec).Message)
	})

	t.Run("Terminate Read Only", func(t *testing.T) {
		f := newAPIFixture(t)
		f.recon.On("Terminate", mock.Anything, f.userID, sessionID).Return(apperr.ErrSessionReadOnly)

		rec := f.do(f.authed(t, http.MethodPost, "/api/v1/reconciliation/sessions/"+sessionID.String()+"/terminate", nil))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "SESSION_READ_ONLY", decodeError(t, rec).Code)
	})

	t.Run("Bulk Confirm", func(t *testing.T) {
		f := newAPIFixture(t)
		a, b := uuid.New(), uuid.New()
		sel := service.BulkSelection{
			IDs:    []uuid.UUID{a, b},
			Filter: reconcile.ViewFilter{Tab: reconcile.TabReviewRequired, Search: "amit"},
		}
		f.recon.On("BulkConfirm", mock.Anything, f.userID, sessionID, sel, "checked").
			Return(&service.BulkResult{Requested: 2, Succeeded: 1, OutOfView: 1}, nil)
		body := `{"ids":["` + a.String() + `","` + b.String() + `"],"tab":"review_required","search":"amit","notes":"checked"}`

		rec := f.do(f.authed(t, http.MethodPost, "/api/v1/reconciliation/sessions/"+sessionID.String()+"/bulk/confirm", strings.NewReader(body)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"requested":2,"succeeded":1,"failed":0,"out_of_view":1}`, rec.Body.String())
	})

	t.Run("Bulk Confirm All Visible", func(t *testing.T) {
		f := newAPIFixture(t)
		sel := service.BulkSelection{IDs: []uuid.UUID{}, All: true, Filter: reconcile.ViewFilter{Tab: reconcile.TabAll}}
		f.recon.On("BulkConfirm", mock.Anything, f.userID, sessionID, sel, "").
			Return(&service.BulkResult{Requested: 3, Succeeded: 3}, nil)

		rec := f.do(f.authed(t, http.MethodPost, "/api/v1/reconciliation/sessions/"+sessionID.String()+"/bulk/confirm",
			strings.NewReader(`{"all":true}`)))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Bulk Confirm Needs A Selection", func(t *testing.T) {
		f := newAPIFixture(t)
		rec := f.do(f.authed(t, http.MethodPost, "/api/v1/reconciliation/sessions/"+sessionID.String()+"/bulk/confirm",
			strings.NewReader(`{"ids":[]}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ids is required unless all is set", decodeError(t, rec).Message)
		f.recon.AssertNotCalled(t, "BulkConfirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Bulk Confirm Unknown Tab", func(t *testing.T) {
		f := newAPIFixture(t)
		rec := f.do(f.authed(t, http.MethodPost, "/api/v1/reconciliation/sessions/"+sessionID.String()+"/bulk/confirm",
			strings.NewReader(`{"all":true,"tab":"archived"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Unknown tab", decodeError(t, rec).Message)
	})

	t.Run("Bulk Confirm Rejects Bad Ids", func(t *testing.T) {
		f := newAPIFixture(t)
		rec := f.do(f.authed(t, http.MethodPost, "/api/v1/reconciliation/sessions/"+sessionID.String()+"/bulk/confirm",
			strings.NewReader(`{"ids":["nope"]}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Confirm Without Body", func(t *testing.T) {
		f := newAPIFixture(t)
		recID := uuid.New()
		f.recon.On("Confirm", mock.Anything, f.userID, recID, "").Return(&domain.ReconciliationView{}, nil)

		rec := f.do(f.authed(t, http.MethodPost, "/api/v1/reconciliation/matches/"+recID.String()+"/confirm", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Manual Link In Use", func(t *testing.T) {
		f := newAPIFixture(t)
		recID, bankID := uuid.New(), uuid.New()
		f.recon.On("ManualLink", mock.Anything, f.userID, recID, bankID, "").Return(nil, apperr.ErrBankTransactionInUse)

		rec := f.do(f.authed(t, http.MethodPost, "/api/v1/reconciliation/matches/"+recID.String()+"/link",
			strings.NewReader(`{"bank_transaction_id":"`+bankID.String()+`"}`)))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "BANK_TRANSACTION_IN_USE", decodeError(t, rec).Code)
	})
}

func TestNotificationStream(t *testing.T) {
	f := newAPIFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	tok := f.accessToken(t)
	claims, err := f.tokens.ValidateToken(tok)
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/notifications/stream?access_token=" + tok)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewReader(resp.Body)
	readLine := func() string {
		line, err := lines.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimRight(line, "\n")
	}
	assert.Equal(t, ": connected", readLine())
	readLine()

	n := domain.Notification{ID: uuid.New(), UserID: f.userID, Title: "Reconciliation complete"}
	assert.Equal(t, 1, f.hub.Publish(n))
	assert.Equal(t, "event: notification", readLine())
	assert.Equal(t, "id: "+n.ID.String(), readLine())
	assert.Contains(t, readLine(), "Reconciliation complete")
	readLine()

	f.broker.Publish(session.Event{Kind: session.EventLogout, UserID: f.userID, TokenID: claims.TokenID()})
	assert.Equal(t, "event: logout", readLine())
	readLine()
	readLine()

	_, err = lines.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
}
