package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api", time.Second, staticToken("abcdefghijklmnop"))

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Get(context.Background(), "/productos", nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer abcdefghijklmnop" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotPath != "/api/productos" {
		t.Fatalf("expected base path to be prefixed, got %q", gotPath)
	}
	if !out.OK {
		t.Fatal("expected response to be decoded")
	}
}

func TestClientWarnsWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	c := New(srv.URL, time.Second, staticToken(""), WithLogger(log.New(&buf, "", 0)))

	if err := c.Delete(context.Background(), "/productos/3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header, got %q", gotAuth)
	}
	if !strings.Contains(buf.String(), "WARN apiclient: no token") {
		t.Fatalf("expected missing token warning, got: %s", buf.String())
	}
}

func TestClientTokenLogIsTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	var buf bytes.Buffer
	c := New(srv.URL, time.Second, staticToken("0123456789SECRETTAIL"), WithLogger(log.New(&buf, "", 0)))
	if err := c.Get(context.Background(), "/ventas", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "SECRETTAIL") {
		t.Fatalf("log leaks full token: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "0123456789...") {
		t.Fatalf("expected token prefix in log, got: %s", buf.String())
	}
}

func TestClientSendsQueryAndBody(t *testing.T) {
	var gotQuery url.Values
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&gotBody)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)

	q := url.Values{"page": {"2"}, "busqueda": {"rosa"}}
	if err := c.Do(context.Background(), http.MethodPost, "/productos", q, map[string]any{"nombre": "Rosa"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery.Get("page") != "2" || gotQuery.Get("busqueda") != "rosa" {
		t.Fatalf("unexpected query: %v", gotQuery)
	}
	if gotBody["nombre"] != "Rosa" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
}

func TestClientMapsErrorStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindUnauthorized},
		{http.StatusNotFound, KindNotFound},
		{http.StatusInternalServerError, KindBackend},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := New(srv.URL, time.Second, nil)
			err := c.Get(context.Background(), "/ventas", nil, &struct{}{})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.Status != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if got := Classify(err); got != tt.want {
				t.Fatalf("expected kind %s, got %s", tt.want, got)
			}
			if StatusOf(err) != tt.status {
				t.Fatalf("StatusOf: expected %d, got %d", tt.status, StatusOf(err))
			}
		})
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, 50*time.Millisecond, nil)
	err := c.Get(context.Background(), "/ventas", nil, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if Classify(err) != KindTimeout {
		t.Fatalf("expected timeout kind, got %s", Classify(err))
	}
}

func TestClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := New(addr, time.Second, nil)
	err := c.Get(context.Background(), "/ventas", nil, nil)
	if Classify(err) != KindNetwork {
		t.Fatalf("expected network kind, got %s (%v)", Classify(err), err)
	}
}

func TestClientBlob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fechaInicio") != "2024-03-01" {
			t.Errorf("missing fechaInicio: %v", r.URL.Query())
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	blob, err := c.Blob(context.Background(), "/ventas/reporte-pdf", url.Values{"fechaInicio": {"2024-03-01"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blob.ContentType != "application/pdf" || string(blob.Data) != "%PDF-1.4 fake" {
		t.Fatalf("unexpected blob: %+v", blob)
	}
}

func TestClientRecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := New(srv.URL, time.Second, nil, WithMetrics(m))

	for _, id := range []string{"1", "2", "3"} {
		if err := c.Delete(context.Background(), "/productos/"+id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodDelete, "/productos/{id}", "200"))
	if got != 3 {
		t.Fatalf("expected 3 requests on collapsed route, got %v", got)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/productos":            "/productos",
		"/productos/12":         "/productos/{id}",
		"productos/12/vender":   "/productos/{id}/vender",
		"/ventas/emitir-boleta": "/ventas/emitir-boleta",
	}
	for in, want := range tests {
		if got := routeLabel(in); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassifyValidation(t *testing.T) {
	err := errors.Join(ErrValidation, errors.New("missing range"))
	if Classify(err) != KindValidation {
		t.Fatalf("expected validation kind, got %s", Classify(err))
	}
	if Classify(nil) != KindNone {
		t.Fatal("expected KindNone for nil")
	}
}
