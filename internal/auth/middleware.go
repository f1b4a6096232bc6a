package auth

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/ariefcatur/go-retail-backend/internal/apperr"
	"log"
	"net/http"
	"strings"
)

type Principal struct {
	DNI   string
	Admin bool
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate requires a valid access token and stores its Principal in the request context.
func (m *Manager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			deny(w, http.StatusUnauthorized, "authentication credentials were not provided")
			return
		}
		c, err := m.ParseAccess(token)
		if err != nil {
			deny(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err := m.checkRevoked(r.Context(), c); err != nil {
			if errors.Is(err, apperr.ErrUnauthorized) {
				deny(w, http.StatusUnauthorized, err.Error())
				return
			}
			// revocation store down, fall back to the signature check
			log.Printf("auth: revocation lookup: %v", err)
		}
		ctx := WithPrincipal(r.Context(), Principal{DNI: c.Subject, Admin: c.Admin})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, "authentication credentials were not provided")
			return
		}
		if !p.Admin {
			deny(w, http.StatusForbidden, "you do not have permission to perform this action")
			return
		}
		next.ServeHTTP(w, r)
	})
}
