package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rossyflor/pos-admin/internal/apiclient"
	"github.com/rossyflor/pos-admin/internal/config"
	"github.com/rossyflor/pos-admin/internal/reports"
	"github.com/rossyflor/pos-admin/internal/session"
	"github.com/rossyflor/pos-admin/internal/storage/memory"
)

const cookieName = "pos_sid"

// backend fakes the POS REST API under /api.
type backend struct {
	mu    sync.Mutex
	auths []string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.auths = append(b.auths, r.Method+" "+r.URL.Path+" "+r.Header.Get("Authorization"))
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.Method + " " + r.URL.Path {
	case "POST /api/login":
		var creds struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"jwt":"tok-123456789"}`))
	case "GET /api/productos":
		w.Write([]byte(`{"content":[{"id":1,"nombre":"Rosa roja","precio":3.5,"stock":10}],"totalPages":1,"totalElements":1}`))
	case "POST /api/productos":
		w.WriteHeader(http.StatusCreated)
	case "PUT /api/productos/1":
		w.WriteHeader(http.StatusInternalServerError)
	case "GET /api/ventas":
		w.Write([]byte(`{"content":[{"id":1,"fechaHora":"2024-03-05T14:30:00","modoPago":"EFECTIVO","totalFinal":12.5}],"totalPages":1,"totalElements":1}`))
	case "POST /api/ventas/emitir-boleta":
		w.Write([]byte(`{"id":9,"modoPago":"YAPE","totalFinal":12.5}`))
	case "GET /api/ventas/reporte-pdf":
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("%PDF-backend"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *backend) sawBearer(line string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.auths {
		if a == line {
			return true
		}
	}
	return false
}

// browser replays the session cookie like a real browser would.
type browser struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (b *browser) do(method, path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			b.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rr := httptest.NewRecorder()
	b.h.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.Name == cookieName {
			b.cookie = c
		}
	}
	return rr
}

func (b *browser) login() {
	b.t.Helper()
	if rr := b.do(http.MethodPost, "/login", map[string]string{"username": "rosa", "password": "secret"}); rr.Code != http.StatusOK {
		b.t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func newTestServer(t *testing.T) (*Server, *backend, *prometheus.Registry) {
	t.Helper()
	be := &backend{}
	api := httptest.NewServer(be)
	t.Cleanup(api.Close)

	reg := prometheus.NewRegistry()
	registry := session.NewRegistry(session.Options{
		BackendBaseURL: api.URL + "/api",
		BackendTimeout: 2 * time.Second,
		Metrics:        apiclient.NewMetrics(reg),
	}, memory.New(), nil)

	reportService := reports.NewService(reports.NewGenerator(time.UTC), nil, 0, nil)
	cfg := &config.Config{Port: 8090, SessionCookieName: cookieName}
	return New(cfg, registry, reportService, reg), be, reg
}

func newBrowser(t *testing.T) (*browser, *backend) {
	srv, be, _ := newTestServer(t)
	return &browser{t: t, h: srv.Handler()}, be
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rr.Body.String())
	}
	return body.Error
}

func TestHealthz(t *testing.T) {
	b, _ := newBrowser(t)

	rr := b.do(http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status=ok, got %s", resp["status"])
	}
	if b.cookie != nil {
		t.Error("health checks must not start sessions")
	}
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	b, _ := newBrowser(t)

	if rr := b.do(http.MethodPost, "/healthz", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rr.Code)
	}
}

func TestAnonymousNavigation(t *testing.T) {
	tests := []struct {
		path     string
		wantCode int
		wantLoc  string
	}{
		{"/", http.StatusFound, "/login"},
		{"/products", http.StatusFound, "/login"},
		{"/sales", http.StatusFound, "/login"},
		{"/boleta", http.StatusFound, "/login"},
		{"/login", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			b, _ := newBrowser(t)
			rr := b.do(http.MethodGet, tt.path, nil)
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			if got := rr.Header().Get("Location"); got != tt.wantLoc {
				t.Fatalf("expected Location %q, got %q", tt.wantLoc, got)
			}
			if b.cookie == nil || !session.ValidID(b.cookie.Value) || !b.cookie.HttpOnly {
				t.Fatal("expected an HttpOnly session cookie")
			}
		})
	}
}

func TestAnonymousActionsRejected(t *testing.T) {
	b, _ := newBrowser(t)

	rr := b.do(http.MethodPost, "/products", map[string]any{"nombre": "Tulipán"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	b, be := newBrowser(t)

	rr := b.do(http.MethodPost, "/login", map[string]string{"username": "rosa", "password": "secret"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rr.Code)
	}
	var sess SessionResponse
	if err := json.NewDecoder(rr.Body).Decode(&sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !sess.Authenticated || sess.User == nil || sess.User.Username != "rosa" || sess.RedirectTo != "/boleta" {
		t.Fatalf("unexpected session response: %+v", sess)
	}

	if rr := b.do(http.MethodGet, "/login", nil); rr.Code != http.StatusFound || rr.Header().Get("Location") != "/boleta" {
		t.Fatalf("authenticated /login must redirect to /boleta, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if rr := b.do(http.MethodGet, "/", nil); rr.Header().Get("Location") != "/boleta" {
		t.Fatalf("home must redirect to /boleta, got %q", rr.Header().Get("Location"))
	}

	rr = b.do(http.MethodGet, "/boleta", nil)
	var view ViewResponse
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.View != "boleta" || view.User == nil || view.User.Username != "rosa" {
		t.Fatalf("unexpected boleta view: %+v", view)
	}

	rr = b.do(http.MethodGet, "/products?page=0&search=rosa", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("products: expected 200, got %d", rr.Code)
	}
	var snap struct {
		Products []struct {
			Nombre string `json:"nombre"`
		} `json:"products"`
		TotalElements int64 `json:"totalElements"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Products) != 1 || snap.Products[0].Nombre != "Rosa roja" || snap.TotalElements != 1 {
		t.Fatalf("unexpected products snapshot: %+v", snap)
	}
	if !be.sawBearer("GET /api/productos Bearer tok-123456789") {
		t.Fatal("backend did not receive the session token")
	}
}

func TestLoginRejected(t *testing.T) {
	b, _ := newBrowser(t)

	rr := b.do(http.MethodPost, "/login", map[string]string{"username": "rosa", "password": "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr := b.do(http.MethodGet, "/boleta", nil); rr.Code != http.StatusFound {
		t.Fatalf("failed login must stay logged out, got %d", rr.Code)
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	b, _ := newBrowser(t)

	rr := b.do(http.MethodPost, "/login", map[string]string{"username": "rosa"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if e := decodeError(t, rr); e.Code != "validation_error" || e.Message != "username and password are required" {
		t.Fatalf("unexpected error: %+v", e)
	}
}

func TestLogout(t *testing.T) {
	b, _ := newBrowser(t)
	b.login()

	if rr := b.do(http.MethodPost, "/logout", nil); rr.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rr.Code)
	}
	if rr := b.do(http.MethodGet, "/sales", nil); rr.Code != http.StatusFound || rr.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login after logout, got %d", rr.Code)
	}
}

func TestActionErrors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"backend failure", http.MethodPut, "/products/1", map[string]any{"nombre": "Rosa"}, http.StatusBadGateway, "backend_error"},
		{"backend not found", http.MethodDelete, "/products/77", nil, http.StatusNotFound, "not_found"},
		{"invalid id", http.MethodPut, "/products/abc", map[string]any{"nombre": "Rosa"}, http.StatusBadRequest, "invalid_id"},
		{"missing name", http.MethodPost, "/products", map[string]any{"stock": 1}, http.StatusBadRequest, "validation_error"},
		{"bad quantity", http.MethodPost, "/products/1/sell", map[string]any{"cantidad": 0}, http.StatusBadRequest, "validation_error"},
		{"empty receipt", http.MethodPost, "/boleta", map[string]any{"modoPago": "YAPE"}, http.StatusBadRequest, "validation_error"},
		{"report without range", http.MethodGet, "/sales/report/pdf", nil, http.StatusBadRequest, "validation_error"},
		{"bad page", http.MethodGet, "/sales?page=-1", nil, http.StatusBadRequest, "invalid_page"},
		{"bad local format", http.MethodGet, "/sales/report/local?format=xlsx", nil, http.StatusBadRequest, "validation_error"},
		{"bad total", http.MethodGet, "/sales/report/local?total=abc", nil, http.StatusBadRequest, "invalid_total"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBrowser(t)
			b.login()

			rr := b.do(tt.method, tt.path, tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if e := decodeError(t, rr); e.Code != tt.wantErr {
				t.Fatalf("expected code %q, got %+v", tt.wantErr, e)
			}
		})
	}
}

func TestReportRangeMessage(t *testing.T) {
	b, _ := newBrowser(t)
	b.login()

	rr := b.do(http.MethodGet, "/sales/report/excel?fechaInicio=2024-03-01", nil)
	if e := decodeError(t, rr); e.Message != "Seleccione un rango de fechas" {
		t.Fatalf("unexpected message: %q", e.Message)
	}
}

func TestIssueReceipt(t *testing.T) {
	b, _ := newBrowser(t)
	b.login()

	rr := b.do(http.MethodPost, "/boleta", map[string]any{
		"modoPago": "YAPE",
		"items":    []map[string]any{{"productoId": 1, "cantidad": 2, "precioUnitario": "6.25"}},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var receipt struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&receipt); err != nil || receipt.ID != 9 {
		t.Fatalf("unexpected receipt: %+v (%v)", receipt, err)
	}
}

func TestBackendReportDownload(t *testing.T) {
	b, _ := newBrowser(t)
	b.login()

	rr := b.do(http.MethodGet, "/sales/report/pdf?fechaInicio=2024-03-01&fechaFin=2024-03-31", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("expected pdf content type fallback, got %q", got)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, `filename="reporte_ventas.pdf"`) {
		t.Fatalf("unexpected disposition: %q", got)
	}
	if rr.Body.String() != "%PDF-backend" {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestLocalReport(t *testing.T) {
	b, _ := newBrowser(t)
	b.login()

	rr := b.do(http.MethodGet, "/sales/report/local?fechaInicio=2024-03-01&fechaFin=2024-03-31", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, `filename="Reporte_Ventas.pdf"`) {
		t.Fatalf("unexpected disposition: %q", got)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF-")) {
		t.Fatal("expected a PDF body")
	}

	rr = b.do(http.MethodGet, "/sales/report/local?format=csv", nil)
	if got := rr.Body.String(); !strings.Contains(got, "05/03/2024,14:30,EFECTIVO,12.50") {
		t.Fatalf("unexpected csv: %q", got)
	}
}

func TestSalesViewAndDetails(t *testing.T) {
	b, _ := newBrowser(t)
	b.login()

	rr := b.do(http.MethodGet, "/sales?page=0&fechaInicio=2024-03-01T00:00&fechaFin=2024-03-31T23:59", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var snap struct {
		Sales   []json.RawMessage `json:"sales"`
		Filters struct {
			FechaInicio string `json:"fechaInicio"`
		} `json:"filters"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Sales) != 1 || snap.Filters.FechaInicio != "2024-03-01T00:00:00" {
		t.Fatalf("unexpected sales snapshot: %+v", snap)
	}

	if rr := b.do(http.MethodGet, "/sales/5/details", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected backend 404 to surface, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	b := &browser{t: t, h: srv.Handler()}
	b.login()

	rr := b.do(http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `pos_admin_backend_requests_total{method="POST",route="/login",status="200"} 1`) {
		t.Fatalf("expected backend login counter, got:\n%s", rr.Body.String())
	}
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	registry := session.NewRegistry(session.Options{}, memory.New(), nil)
	srv := New(&config.Config{SessionCookieName: cookieName}, registry, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
