package guard

import (
	"log"
	"net/http"
)

// AuthFunc reports whether the request belongs to an authenticated session.
type AuthFunc func(r *http.Request) bool

// Middleware applies Resolve to every request. Page navigations (GET, HEAD)
// are redirected; other methods on guarded paths get 401.
func Middleware(authenticated AuthFunc, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := Resolve(r.URL.Path, authenticated(r))
		if d.Allow {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			http.Redirect(w, r, d.RedirectTo, http.StatusFound)
			return
		}

		if d.RedirectTo == LoginPath {
			log.Printf("WARN guard: rejected %s %s without session", r.Method, r.URL.Path)
			writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		// Authenticated non-navigation requests (POST /login, POST / ...) pass.
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
