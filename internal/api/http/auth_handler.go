package http

import (
	"net/http"

	"propdesk-backend/internal/service"
)

// AuthHandler handles signup, login and token lifecycle requests
type AuthHandler struct {
	authSvc service.AuthService
}

func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type signupRequest struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	res, err := h.authSvc.Signup(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	res, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Refresh expects the refresh token as the bearer token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.authSvc.Refresh(r.Context(), bearerToken(r.Context()))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Logout ends the current access token and, when given, its refresh token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req logoutRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := h.authSvc.Logout(r.Context(), p, req.RefreshToken); err != nil {
		respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Verify expects the emailed verification token as the bearer token.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, err := h.authSvc.VerifyEmail(r.Context(), bearerToken(r.Context()))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	user, err := h.authSvc.Me(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
