package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
	TokenTypeVerify  TokenType = "verify_email"
)

const issuer = "propdesk-auth"

// UserClaims defines the claims carried by every token we issue
type UserClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Type   TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenID returns the jti used for revocation.
func (c *UserClaims) TokenID() string {
	return c.ID
}

// Expiry returns the expiration time, zero if absent.
func (c *UserClaims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenTTL sets the lifetime of each token type.
type TokenTTL struct {
	Access  time.Duration
	Refresh time.Duration
	Verify  time.Duration
}

// DefaultTTL is 1 hour access, 7 day refresh and 24 hour verification links.
var DefaultTTL = TokenTTL{Access: time.Hour, Refresh: 7 * 24 * time.Hour, Verify: 24 * time.Hour}

type TokenManager interface {
	GenerateAccessToken(userID uuid.UUID, email string) (string, error)
	GenerateRefreshToken(userID uuid.UUID, email string) (string, error)
	GenerateVerifyToken(userID uuid.UUID, email string) (string, error)
	ValidateToken(tokenString string) (*UserClaims, error)
	// ValidateTokenType validates and also checks the token's type.
	ValidateTokenType(tokenString string, want TokenType) (*UserClaims, error)
}

type tokenManager struct {
	secret []byte
	ttl    TokenTTL
}

func NewTokenManager(secret string, ttl TokenTTL) TokenManager {
	if ttl.Access <= 0 {
		ttl.Access = DefaultTTL.Access
	}
	if ttl.Refresh <= 0 {
		ttl.Refresh = DefaultTTL.Refresh
	}
	if ttl.Verify <= 0 {
		ttl.Verify = DefaultTTL.Verify
	}
	return &tokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *tokenManager) GenerateAccessToken(userID uuid.UUID, email string) (string, error) {
	return m.sign(userID, email, TokenTypeAccess, m.ttl.Access, "api-access")
}

func (m *tokenManager) GenerateRefreshToken(userID uuid.UUID, email string) (string, error) {
	return m.sign(userID, email, TokenTypeRefresh, m.ttl.Refresh, "token-refresh")
}

func (m *tokenManager) GenerateVerifyToken(userID uuid.UUID, email string) (string, error) {
	return m.sign(userID, email, TokenTypeVerify, m.ttl.Verify, "email-verification")
}

func (m *tokenManager) sign(userID uuid.UUID, email string, typ TokenType, ttl time.Duration, audience string) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID: userID,
		Email:  email,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		if claims.UserID == uuid.Nil && claims.Subject != "" {
			uid, err := uuid.Parse(claims.Subject)
			if err != nil {
				return nil, ErrInvalidToken
			}
			claims.UserID = uid
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func (m *tokenManager) ValidateTokenType(tokenString string, want TokenType) (*UserClaims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
