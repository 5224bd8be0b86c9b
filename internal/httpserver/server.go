package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rossyflor/pos-admin/internal/config"
	"github.com/rossyflor/pos-admin/internal/guard"
	"github.com/rossyflor/pos-admin/internal/reports"
	"github.com/rossyflor/pos-admin/internal/session"
)

// Server is the admin HTTP surface. Each request runs against the workspace
// of its session cookie.
type Server struct {
	config   *config.Config
	mux      *http.ServeMux
	registry *session.Registry
	reports  *reports.Service
	gatherer prometheus.Gatherer

	httpServer *http.Server
}

// New creates the server and registers its routes. A nil gatherer disables
// /metrics.
func New(cfg *config.Config, registry *session.Registry, reportService *reports.Service, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		config:   cfg,
		mux:      http.NewServeMux(),
		registry: registry,
		reports:  reportService,
		gatherer: gatherer,
	}
	s.routes()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	// Health check (no session)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// Auth
	s.mux.HandleFunc("GET /login", s.handleLoginView)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /logout", s.handleLogout)

	// Boleta
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /boleta", s.handleBoletaView)
	s.mux.HandleFunc("POST /boleta", s.handleIssueReceipt)

	// Products
	s.mux.HandleFunc("GET /products", s.handleProductsView)
	s.mux.HandleFunc("POST /products", s.handleCreateProduct)
	s.mux.HandleFunc("PUT /products/{id}", s.handleUpdateProduct)
	s.mux.HandleFunc("DELETE /products/{id}", s.handleDeleteProduct)
	s.mux.HandleFunc("POST /products/{id}/sell", s.handleSellProduct)

	// Sales
	s.mux.HandleFunc("GET /sales", s.handleSalesView)
	s.mux.HandleFunc("POST /sales/manual", s.handleCreateManualSale)
	s.mux.HandleFunc("GET /sales/{id}", s.handleGetSale)
	s.mux.HandleFunc("PUT /sales/{id}", s.handleUpdateSale)
	s.mux.HandleFunc("GET /sales/{id}/details", s.handleSaleDetails)

	// Reports
	s.mux.HandleFunc("GET /sales/report/pdf", s.handleBackendReport(false))
	s.mux.HandleFunc("GET /sales/report/excel", s.handleBackendReport(true))
	s.mux.HandleFunc("GET /sales/report/local", s.handleLocalReport)
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	// Outermost first: CORS → Rate Limit → Session → Guard → Router
	var handler http.Handler = s.mux
	handler = guard.Middleware(authenticated, handler)
	handler = s.sessionMiddleware(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	addr := s.httpServer.Addr
	log.Printf("INFO httpserver: listening on http://localhost%s", addr)
	log.Printf("INFO httpserver: health check http://localhost%s/healthz", addr)
	log.Printf("INFO httpserver: backend %s", s.config.BackendBaseURL)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
