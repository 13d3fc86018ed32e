// Package auth issues and verifies the bearer tokens that identify the
// calling user. Tokens are HS256 JWTs carrying the user id in the "uid"
// claim; the HTTP layer turns a verified token into the request's actor.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims are the JWT claims understood by the service.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Manager signs and verifies access tokens with a shared secret.
type Manager struct {
	Secret []byte
	TTL    time.Duration
	Issuer string

	now func() time.Time
}

// NewManager returns a Manager for secret with the given token lifetime.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{Secret: []byte(secret), TTL: ttl, Issuer: "go-social-backend", now: time.Now}
}

func (m *Manager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// Issue signs a token for userID and returns it with its expiry.
func (m *Manager) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("auth: empty user id")
	}
	now := m.clock()
	exp := now.Add(m.TTL)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	return s, exp, err
}

// Parse verifies tokenStr and returns its claims. Any failure (bad
// signature, wrong algorithm, expiry, missing uid) yields ErrInvalidToken.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
