package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"blog-api/internal/domain"
)

// Purpose separates session tokens from email verification tokens so one can
// never be presented in place of the other.
type Purpose string

const (
	PurposeSession           Purpose = "session"
	PurposeEmailVerification Purpose = "email_verification"
)

const DefaultSessionTTL = 30 * 24 * time.Hour

type Claims struct {
	jwt.RegisteredClaims
	UserID   string  `json:"uid,omitempty"`
	Username string  `json:"username,omitempty"`
	Purpose  Purpose `json:"purpose"`
}

// TokenService issues and verifies HS256 tokens.
type TokenService struct {
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret string, sessionTTL time.Duration, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	s := &TokenService{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *TokenService) IssueSessionToken(userID string) (string, error) {
	now := s.now()
	return s.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
		UserID:  userID,
		Purpose: PurposeSession,
	})
}

// IssueVerificationToken returns a token keyed to the username. It carries no expiry.
func (s *TokenService) IssueVerificationToken(username string) (string, error) {
	return s.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
		Username: username,
		Purpose:  PurposeEmailVerification,
	})
}

// VerifyToken checks signature, expiry and purpose. Every failure is reported
// as domain.ErrInvalidToken.
func (s *TokenService) VerifyToken(tokenString string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuedAt(),
	)
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, domain.ErrInvalidToken
	}

	switch purpose {
	case PurposeSession:
		if claims.UserID == "" || claims.ExpiresAt == nil {
			return nil, domain.ErrInvalidToken
		}
	case PurposeEmailVerification:
		if claims.Username == "" {
			return nil, domain.ErrInvalidToken
		}
	}
	return claims, nil
}

func (s *TokenService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
