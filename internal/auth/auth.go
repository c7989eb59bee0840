// Package auth issues and verifies the bearer tokens the API runs on,
// hashes account passwords, and carries the authenticated user through
// request contexts.
//
// Tokens are HS256 JWTs whose subject is the user ID. Expiry comes from
// the configured TTL. Verification failures surface as coded errors so
// the HTTP layer can answer 401 with a precise reason.
package auth

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pengpongpang/deepbrain/pkg/errors"
)

// TokenType is the scheme reported to clients alongside issued tokens.
const TokenType = "bearer"

// Manager signs and verifies access tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager returns a Manager signing with secret. Tokens stay valid
// for ttl after issue.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed token identifying subject.
func (m *Manager) Issue(subject string) (string, error) {
	now := m.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its subject. Expired tokens map to
// TOKEN_EXPIRED, everything else invalid to UNAUTHORIZED.
func (m *Manager) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		return "", errors.New(errors.ErrCodeTokenExpired, "Token expired")
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnauthorized, err, "Could not validate credentials")
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New(errors.ErrCodeUnauthorized, "Could not validate credentials")
	}
	return claims.Subject, nil
}

func (m *Manager) keyFunc(*jwt.Token) (any, error) { return m.secret, nil }

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
