package httpx

import (
	"bytes"
	"encoding/json"
	"github.com/ariefcatur/go-retail-backend/internal/auth"
	"github.com/go-chi/chi/v5"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// testGuard trusts X-Test-DNI and X-Test-Admin instead of a bearer token.
var testGuard = Guard{
	Authenticate: func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dni := r.Header.Get("X-Test-DNI")
			if dni == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			p := auth.Principal{DNI: dni, Admin: r.Header.Get("X-Test-Admin") == "1"}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	},
	RequireAdmin: auth.RequireAdmin,
}

type caller struct {
	dni   string
	admin bool
}

var (
	anon     = caller{}
	customer = caller{dni: "30111222"}
	stranger = caller{dni: "40999888"}
	staff    = caller{dni: "20000001", admin: true}
)

func serve(t *testing.T, h interface{ Register(*chi.Mux) }, who caller, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if who.dni != "" {
		req.Header.Set("X-Test-DNI", who.dni)
	}
	if who.admin {
		req.Header.Set("X-Test-Admin", "1")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// serveRaw sends body verbatim instead of encoding a value.
func serveRaw(t *testing.T, h interface{ Register(*chi.Mux) }, who caller, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("X-Test-DNI", who.dni)
	if who.admin {
		req.Header.Set("X-Test-Admin", "1")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}
