package auth

import (
	"context"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// CredentialService is the capability the confirmation flow depends on: it
// hands out an opaque, short-lived token a confirmed member exchanges once to
// set an initial password, and verifies such a token when it comes back. The
// token format is an adapter concern, never inspected by callers.
type CredentialService interface {
	IssueTemporaryToken(ctx context.Context, email string) (token string, ttl time.Duration, err error)
	VerifyTemporaryToken(ctx context.Context, token string) (email string, err error)
}

const purposeActivation = "activation"

// TokenManager is the local JWT-backed credential adapter.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a manager issuing HS256 tokens with the given TTL.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

type activationClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// IssueTemporaryToken signs a short-lived activation token for the email.
func (tm *TokenManager) IssueTemporaryToken(_ context.Context, email string) (string, time.Duration, error) {
	now := time.Now()
	claims := &activationClaims{
		Email:   email,
		Purpose: purposeActivation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, tm.ttl, nil
}

// VerifyTemporaryToken validates an activation token and returns the email it
// was issued for.
func (tm *TokenManager) VerifyTemporaryToken(_ context.Context, tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &activationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*activationClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token claims")
	}
	if claims.Purpose != purposeActivation {
		return "", errors.New("not an activation token")
	}
	return claims.Email, nil
}
