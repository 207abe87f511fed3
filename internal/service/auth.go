package service

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
	"propdesk-backend/internal/repository"
	"propdesk-backend/internal/security"
	"propdesk-backend/internal/session"
)

const minPasswordLength = 8

type authService struct {
	userRepo  repository.UserRepository
	tokens    security.TokenManager
	broker    SessionBroker
	email     EmailService
	hooks     UserHooks
	publicURL string
}

func NewAuthService(userRepo repository.UserRepository, tokens security.TokenManager, broker SessionBroker, email EmailService, hooks UserHooks, publicURL string) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokens:    tokens,
		broker:    broker,
		email:     email,
		hooks:     hooks,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *authService) Signup(ctx context.Context, fullName, email, password string) (*AuthResult, error) {
	logger.EnterMethod("authService.Signup", "email", email)

	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("A valid email address is required")
	}
	if fullName == "" {
		return nil, invalid("Full name is required")
	}
	if len(password) < minPasswordLength {
		return nil, invalid("Password must be at least 8 characters")
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		logger.ExitMethodWithError("authService.Signup", err, "reason", "email lookup failed")
		return nil, apperr.Wrap(apperr.ErrInternal, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, err)
	}

	user := &domain.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		logger.ExitMethodWithError("authService.Signup", err, "reason", "create user failed")
		return nil, apperr.Wrap(apperr.ErrInternal, err)
	}

	s.sendVerification(ctx, user)
	s.hooks.UserSignedUp(user)

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("authService.Signup", "userID", user.ID)
	return result, nil
}

// sendVerification mails the verify link. Failure does not undo the signup.
func (s *authService) sendVerification(ctx context.Context, user *domain.User) {
	token, err := s.tokens.GenerateVerifyToken(user.ID, user.Email)
	if err != nil {
		logger.Error("Failed to generate verification token", "userID", user.ID, "error", err)
		return
	}
	link := s.publicURL + "/verify-email?token=" + url.QueryEscape(token)
	if err := s.email.SendVerificationEmail(ctx, user.Email, user.FullName, link); err != nil {
		logger.Warn("Failed to send verification email", "userID", user.ID, "error", err)
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	logger.EnterMethod("authService.Login", "email", email)

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, apperr.Wrap(apperr.ErrInternal, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Info("Login rejected", "userID", user.ID)
		return nil, apperr.ErrInvalidCredentials
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("authService.Login", "userID", user.ID)
	return result, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.ValidateTokenType(refreshToken, security.TokenTypeRefresh)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, err)
	}
	if s.broker.IsRevoked(claims.TokenID()) {
		return nil, apperr.ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrUnauthorized)
	}

	s.broker.Revoke(claims.TokenID(), claims.Expiry())
	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.broker.Publish(session.Event{Kind: session.EventRefresh, UserID: user.ID, TokenID: claims.TokenID()})
	return result, nil
}

func (s *authService) Logout(ctx context.Context, p session.Principal, refreshToken string) error {
	logger.EnterMethod("authService.Logout", "userID", p.UserID)

	if p.TokenID != "" {
		s.broker.Revoke(p.TokenID, p.ExpiresAt)
	}
	if refreshToken != "" {
		claims, err := s.tokens.ValidateTokenType(refreshToken, security.TokenTypeRefresh)
		if err == nil && claims.UserID == p.UserID {
			s.broker.Revoke(claims.TokenID(), claims.Expiry())
		}
	}
	s.broker.Publish(session.Event{Kind: session.EventLogout, UserID: p.UserID, TokenID: p.TokenID})

	logger.ExitMethod("authService.Logout", "userID", p.UserID)
	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateTokenType(token, security.TokenTypeVerify)
	if err != nil {
		return nil, apperr.Wrap(apperr.WithMessage(apperr.ErrInvalidInput, "Invalid or expired verification link"), err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrNotFound)
	}
	if user.EmailVerified {
		return user, nil
	}
	if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, repoErr(err, apperr.ErrNotFound)
	}
	user.EmailVerified = true
	s.hooks.UserVerified(user)
	logger.Info("Email verified", "userID", user.ID)
	return user, nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, repoErr(err, apperr.ErrNotFound)
	}
	return user, nil
}

func (s *authService) issue(user *domain.User) (*AuthResult, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, err)
	}
	claims, err := s.tokens.ValidateToken(access)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, err)
	}
	return &AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    claims.Expiry(),
	}, nil
}
