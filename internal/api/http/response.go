package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/session"
)

// maxJSONBody caps JSON request bodies; uploads use multipart limits instead.
const maxJSONBody = 1 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// respondWithError writes a consistent JSON error response. Errors that are
// not AppErrors are logged and reported as a generic internal error.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	respondWithDetails(w, r, err, nil)
}

func respondWithDetails(w http.ResponseWriter, r *http.Request, err error, details any) {
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		logger.Error("Unexpected error", "error", err, "method", r.Method, "path", r.URL.Path)
		appErr = apperr.ErrInternal
	} else if appErr.Internal != nil {
		logger.Error("App error",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID(r.Context()))
	}

	writeJSON(w, appErr.StatusCode, errorResponse{Error: errorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: details,
	}})
}

// decodeJSON reads a JSON body into dst and validates its struct tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.WithMessage(apperr.ErrInvalidInput, "Request body is required")
		}
		return apperr.WithMessage(apperr.ErrInvalidInput, "Malformed JSON: "+err.Error())
	}
	return validateStruct(dst)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.ContentLength == 0 {
		return validateStruct(dst)
	}
	err := decodeJSON(w, r, dst)
	var appErr *apperr.AppError
	if errors.As(err, &appErr) && appErr.Message == "Request body is required" {
		return validateStruct(dst)
	}
	return err
}

// pathUUID parses a uuid path variable.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, apperr.WithMessage(apperr.ErrInvalidInput, "Invalid "+name)
	}
	return id, nil
}

// queryUUID parses an optional uuid query parameter.
func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.WithMessage(apperr.ErrInvalidInput, "Invalid "+name)
	}
	return &id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.WithMessage(apperr.ErrInvalidInput, "Invalid "+name)
	}
	return n, nil
}

// principal returns the authenticated owner of the request.
func principal(r *http.Request) (session.Principal, error) {
	p, ok := session.FromContext(r.Context())
	if !ok {
		return session.Principal{}, apperr.ErrUnauthorized
	}
	return p, nil
}
