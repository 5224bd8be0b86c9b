package httpserver

import (
	"net/http"

	"github.com/rossyflor/pos-admin/internal/auth"
	"github.com/rossyflor/pos-admin/internal/guard"
	"github.com/rossyflor/pos-admin/internal/sales"
)

// ViewResponse describes a page the front end should render.
type ViewResponse struct {
	View string     `json:"view"`
	User *auth.User `json:"user,omitempty"`
}

// SessionResponse is returned by the auth actions.
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	User          *auth.User `json:"user,omitempty"`
	RedirectTo    string     `json:"redirectTo,omitempty"`
}

// GET /login
func (s *Server) handleLoginView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ViewResponse{View: guard.LoginRoute})
}

// POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	var creds auth.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	if err := ws.Auth.Login(r.Context(), creds.Username, creds.Password); err != nil {
		writeActionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		Authenticated: true,
		User:          ws.Auth.User(),
		RedirectTo:    guard.BoletaPath,
	})
}

// POST /register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	var creds auth.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	if err := ws.Auth.Register(r.Context(), creds.Username, creds.Password); err != nil {
		writeActionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{
		Authenticated: ws.Auth.IsAuthenticated(),
		RedirectTo:    guard.LoginPath,
	})
}

// POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	if err := ws.Auth.Logout(r.Context()); err != nil {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{RedirectTo: guard.LoginPath})
}

// GET /
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, guard.BoletaPath, http.StatusFound)
}

// GET /boleta
func (s *Server) handleBoletaView(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	writeJSON(w, http.StatusOK, ViewResponse{View: "boleta", User: ws.Auth.User()})
}

// POST /boleta
func (s *Server) handleIssueReceipt(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	var req sales.SaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	receipt, err := ws.Sales.IssueReceipt(r.Context(), req)
	if err != nil {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}
