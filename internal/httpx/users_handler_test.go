package httpx

import (
	"context"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"github.com/ariefcatur/go-retail-backend/internal/auth"
	"github.com/ariefcatur/go-retail-backend/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"testing"
)

type memUserStore struct {
	UserStore
	byDNI   map[string]*users.User
	deleted []string
	removed map[int64]string
}

func (m *memUserStore) Get(_ context.Context, dni string) (*users.User, error) {
	u, ok := m.byDNI[dni]
	if !ok {
		return nil, apperr.NotFound("user %s not found", dni)
	}
	return u, nil
}

func (m *memUserStore) Update(_ context.Context, username string, in users.UpdateInput) (*users.User, error) {
	for _, u := range m.byDNI {
		if u.Username == username {
			if in.Address != nil {
				u.Address = *in.Address
			}
			return u, nil
		}
	}
	return nil, apperr.NotFound("user %s not found", username)
}

func (m *memUserStore) Delete(_ context.Context, username string) error {
	m.deleted = append(m.deleted, username)
	return nil
}

func (m *memUserStore) RemoveTestimonial(_ context.Context, id int64, authorDNI string) error {
	m.removed[id] = authorDNI
	return nil
}

type stubTokens struct{ refreshed, loggedOut string }

func (s *stubTokens) Refresh(_ context.Context, refresh string) (auth.Pair, error) {
	s.refreshed = refresh
	return auth.Pair{Access: "a2", Refresh: "r2"}, nil
}

func (s *stubTokens) Logout(_ context.Context, refresh, access string) error {
	s.loggedOut = refresh + "|" + access
	return nil
}

func newUsersFixture() (*UsersHandler, *memUserStore, *stubTokens) {
	store := &memUserStore{
		byDNI: map[string]*users.User{
			customer.dni: {DNI: customer.dni, Username: "ana"},
			stranger.dni: {DNI: stranger.dni, Username: "bruno"},
		},
		removed: map[int64]string{},
	}
	tokens := &stubTokens{}
	return &UsersHandler{Users: store, Tokens: tokens, Guard: testGuard}, store, tokens
}

func TestUserUpdateOwnership(t *testing.T) {
	h, store, _ := newUsersFixture()
	addr := "Av. Siempreviva 742"

	rr := serve(t, h, customer, http.MethodPut, "/users/user/update/", userUpdate{Username: "ana", UpdateInput: users.UpdateInput{Address: &addr}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, addr, store.byDNI[customer.dni].Address)

	rr = serve(t, h, customer, http.MethodPut, "/users/user/update/", userUpdate{Username: "bruno"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(t, h, staff, http.MethodPut, "/users/user/update/", userUpdate{Username: "bruno"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(t, h, customer, http.MethodPut, "/users/user/update/", userUpdate{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUserDelete(t *testing.T) {
	h, store, _ := newUsersFixture()

	assert.Equal(t, http.StatusForbidden, serve(t, h, stranger, http.MethodDelete, "/users/delete/", usernameReq{Username: "ana"}).Code)
	assert.Equal(t, http.StatusOK, serve(t, h, customer, http.MethodDelete, "/users/delete/", usernameReq{Username: "ana"}).Code)
	assert.Equal(t, []string{"ana"}, store.deleted)
}

func TestTestimonialRemoval(t *testing.T) {
	h, store, _ := newUsersFixture()

	assert.Equal(t, http.StatusNoContent, serve(t, h, customer, http.MethodDelete, "/testimonials/testimonial/remove/?id=3", nil).Code)
	assert.Equal(t, customer.dni, store.removed[3])

	assert.Equal(t, http.StatusForbidden, serve(t, h, customer, http.MethodDelete, "/testimonials/remove/?id=4", nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(t, h, staff, http.MethodDelete, "/testimonials/remove/?id=4", nil).Code)
	assert.Equal(t, "", store.removed[4])
}

func TestTokenRoutes(t *testing.T) {
	h, _, tokens := newUsersFixture()

	rr := serve(t, h, anon, http.MethodPost, "/users/token/refresh/", refreshReq{Refresh: "r1"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "r2", decodeBody[auth.Pair](t, rr).Refresh)
	assert.Equal(t, "r1", tokens.refreshed)

	assert.Equal(t, http.StatusBadRequest, serve(t, h, anon, http.MethodPost, "/users/token/refresh/", refreshReq{}).Code)

	rr = serve(t, h, customer, http.MethodPost, "/users/logout/", refreshReq{Refresh: "r2"}, "Authorization", "Bearer a2")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "r2|a2", tokens.loggedOut)
}
