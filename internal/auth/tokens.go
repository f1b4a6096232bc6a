package auth

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"time"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type Claims struct {
	Admin bool   `json:"adm"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Revoker remembers revoked token IDs until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Manager issues and verifies HS256 access/refresh pairs.
type Manager struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Revoked    Revoker
	Now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration, revoked Revoker) *Manager {
	return &Manager{Secret: []byte(secret), AccessTTL: accessTTL, RefreshTTL: refreshTTL, Revoked: revoked, Now: time.Now}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) sign(dni string, admin bool, typ string, ttl time.Duration) (string, error) {
	now := m.now()
	c := Claims{
		Admin: admin,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   dni,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.Secret)
}

func (m *Manager) Issue(dni string, admin bool) (Pair, error) {
	access, err := m.sign(dni, admin, TypeAccess, m.AccessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.sign(dni, admin, TypeRefresh, m.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (m *Manager) parse(token, typ string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil {
		return nil, apperr.Unauthorized("token is invalid or expired")
	}
	if c.Type != typ || c.Subject == "" {
		return nil, apperr.Unauthorized("token has wrong type")
	}
	return &c, nil
}

func (m *Manager) ParseAccess(token string) (*Claims, error) { return m.parse(token, TypeAccess) }

func (m *Manager) checkRevoked(ctx context.Context, c *Claims) error {
	if m.Revoked == nil {
		return nil
	}
	revoked, err := m.Revoked.IsRevoked(ctx, c.ID)
	if err != nil {
		return err
	}
	if revoked {
		return apperr.Unauthorized("token has been revoked")
	}
	return nil
}

func (m *Manager) revoke(ctx context.Context, c *Claims) error {
	if m.Revoked == nil || c.ExpiresAt == nil {
		return nil
	}
	return m.Revoked.Revoke(ctx, c.ID, c.ExpiresAt.Time.Sub(m.now()))
}

// Refresh trades a live refresh token for a new pair and revokes the old one.
func (m *Manager) Refresh(ctx context.Context, refresh string) (Pair, error) {
	c, err := m.parse(refresh, TypeRefresh)
	if err != nil {
		return Pair{}, err
	}
	if err := m.checkRevoked(ctx, c); err != nil {
		return Pair{}, err
	}
	if err := m.revoke(ctx, c); err != nil {
		return Pair{}, err
	}
	return m.Issue(c.Subject, c.Admin)
}

// Logout revokes the refresh token, and the access token when one is given.
func (m *Manager) Logout(ctx context.Context, refresh, access string) error {
	if refresh == "" {
		return apperr.Invalid("refresh token is required")
	}
	c, err := m.parse(refresh, TypeRefresh)
	if err != nil {
		return err
	}
	if err := m.revoke(ctx, c); err != nil {
		return err
	}
	if access == "" {
		return nil
	}
	if ac, err := m.parse(access, TypeAccess); err == nil {
		return m.revoke(ctx, ac)
	} else if !errors.Is(err, apperr.ErrUnauthorized) {
		return err
	}
	return nil
}
