package auth

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

type memRevoker struct {
	mu  sync.Mutex
	ids map[string]time.Duration
}

func (m *memRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ids == nil {
		m.ids = map[string]time.Duration{}
	}
	m.ids[jti] = ttl
	return nil
}

func (m *memRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[jti]
	return ok, nil
}

func newManager() (*Manager, *memRevoker) {
	rev := &memRevoker{}
	return NewManager("test-secret", 15*time.Minute, 7*24*time.Hour, rev), rev
}

func TestIssueAndParse(t *testing.T) {
	m, _ := newManager()
	pair, err := m.Issue("30111222", true)
	require.NoError(t, err)

	c, err := m.ParseAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "30111222", c.Subject)
	assert.True(t, c.Admin)
	assert.Equal(t, TypeAccess, c.Type)
	assert.NotEmpty(t, c.ID)

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, err := m.ParseAccess(pair.Refresh)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
	t.Run("other secret is rejected", func(t *testing.T) {
		other := NewManager("other-secret", time.Minute, time.Hour, nil)
		_, err := other.ParseAccess(pair.Access)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
	t.Run("expired token is rejected", func(t *testing.T) {
		old, _ := newManager()
		old.Now = func() time.Time { return time.Now().Add(-time.Hour) }
		stale, err := old.Issue("30111222", false)
		require.NoError(t, err)
		_, err = m.ParseAccess(stale.Access)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := m.ParseAccess("not.a.jwt")
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	m, rev := newManager()
	pair, err := m.Issue("30111222", false)
	require.NoError(t, err)

	next, err := m.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, next.Refresh)
	assert.Len(t, rev.ids, 1)

	_, err = m.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized, "a refresh token works once")

	_, err = m.Refresh(ctx, next.Access)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	m, rev := newManager()
	pair, err := m.Issue("30111222", false)
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx, pair.Refresh, pair.Access))
	assert.Len(t, rev.ids, 2)
	for _, ttl := range rev.ids {
		assert.Positive(t, ttl)
	}

	_, err = m.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	assert.ErrorIs(t, m.Logout(ctx, "", ""), apperr.ErrInvalid)
}
