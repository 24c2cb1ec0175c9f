// Package token issues and verifies the HS256 access/refresh pair.
package token

import (
	"errors"
	"fmt"
	"time"

	autherrors "go-ems/internal/auth/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *Manager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *Manager) Issue(email, role, typ string) (string, error) {
	ttl := m.accessTTL
	if typ == TypeRefresh {
		ttl = m.refreshTTL
	}
	now := m.now()
	claims := Claims{
		Email: email,
		Role:  role,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", autherrors.ErrTokenGenerationFailed.WithCause(err)
	}
	return signed, nil
}

func (m *Manager) IssuePair(email, role string) (access, refresh string, err error) {
	if access, err = m.Issue(email, role, TypeAccess); err != nil {
		return "", "", err
	}
	if refresh, err = m.Issue(email, role, TypeRefresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Parse verifies the signature and expiry and checks that the token is of
// the wanted type.
func (m *Manager) Parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherrors.ErrTokenExpired
		}
		return nil, autherrors.ErrInvalidToken.WithCause(err)
	}
	if !tok.Valid || claims.Email == "" || claims.Type != wantType {
		return nil, autherrors.ErrInvalidToken
	}
	return claims, nil
}
