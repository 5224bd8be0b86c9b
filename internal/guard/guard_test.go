package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		authenticated bool
		want          Decision
	}{
		{"products without token", "/products", false, Decision{RedirectTo: "/login"}},
		{"sales without token", "/sales", false, Decision{RedirectTo: "/login"}},
		{"boleta without token", "/boleta", false, Decision{RedirectTo: "/login"}},
		{"root without token", "/", false, Decision{RedirectTo: "/login"}},
		{"sub-path without token", "/products/12", false, Decision{RedirectTo: "/login"}},
		{"login without token", "/login", false, Decision{Allow: true}},
		{"login while authenticated", "/login", true, Decision{RedirectTo: "/boleta"}},
		{"root while authenticated", "/", true, Decision{RedirectTo: "/boleta"}},
		{"products while authenticated", "/products", true, Decision{Allow: true}},
		{"trailing slash", "/sales/", true, Decision{Allow: true}},
		{"unknown path", "/healthz", false, Decision{Allow: true}},
		{"prefix is not a sub-path", "/salesforce", false, Decision{Allow: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.path, tt.authenticated); got != tt.want {
				t.Fatalf("Resolve(%q, %v) = %+v, want %+v", tt.path, tt.authenticated, got, tt.want)
			}
		})
	}
}

func TestLookupInheritsParent(t *testing.T) {
	r, ok := Lookup("/sales/report/pdf")
	if !ok || r.Path != SalesPath || !r.RequiresAuth {
		t.Fatalf("expected /sales route, got %+v (ok=%v)", r, ok)
	}
}

func TestMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name          string
		method        string
		path          string
		authenticated bool
		wantStatus    int
		wantLocation  string
	}{
		{"navigation redirected to login", http.MethodGet, "/sales", false, http.StatusFound, "/login"},
		{"login redirected to boleta", http.MethodGet, "/login", true, http.StatusFound, "/boleta"},
		{"root redirected to boleta", http.MethodGet, "/", true, http.StatusFound, "/boleta"},
		{"action rejected", http.MethodPost, "/products", false, http.StatusUnauthorized, ""},
		{"authenticated action passes", http.MethodDelete, "/products/3", true, http.StatusTeapot, ""},
		{"login post passes", http.MethodPost, "/login", false, http.StatusTeapot, ""},
		{"public path passes", http.MethodGet, "/healthz", false, http.StatusTeapot, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Middleware(func(*http.Request) bool { return tt.authenticated }, next)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if loc := w.Header().Get("Location"); loc != tt.wantLocation {
				t.Fatalf("expected Location %q, got %q", tt.wantLocation, loc)
			}
		})
	}
}
