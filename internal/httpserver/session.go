package httpserver

import (
	"context"
	"log"
	"net/http"

	"github.com/rossyflor/pos-admin/internal/session"
)

type workspaceKey struct{}

// workspaceFrom returns the session workspace attached by sessionMiddleware.
func workspaceFrom(ctx context.Context) *session.Workspace {
	ws, _ := ctx.Value(workspaceKey{}).(*session.Workspace)
	return ws
}

// sessionMiddleware resolves the session cookie into a workspace. A missing
// or malformed cookie starts a new session.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		id := ""
		if c, err := r.Cookie(s.config.SessionCookieName); err == nil && session.ValidID(c.Value) {
			id = c.Value
		}
		if id == "" {
			id = session.NewID()
			http.SetCookie(w, &http.Cookie{
				Name:     s.config.SessionCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.config.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ws, err := s.registry.Get(r.Context(), id)
		if err != nil {
			log.Printf("ERROR httpserver: session %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "session_error", "Failed to load session")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), workspaceKey{}, ws)))
	})
}

func sessionExempt(path string) bool {
	return path == "/healthz" || path == "/metrics"
}

// authenticated is the guard's view of the request.
func authenticated(r *http.Request) bool {
	ws := workspaceFrom(r.Context())
	return ws != nil && ws.Auth.IsAuthenticated()
}
