package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAdminBase = "http://localhost:8090"
)

var (
	adminBase string
	username  string
	password  string
	client    *http.Client
	fromDate  string
	toDate    string
)

func main() {
	fmt.Println("=== POS Admin E2E Smoke Test ===")
	fmt.Println()

	adminBase = strings.TrimRight(getEnv("ADMIN_BASE_URL", defaultAdminBase), "/")
	username = getEnv("SMOKE_USERNAME", "")
	password = getEnv("SMOKE_PASSWORD", "")

	fmt.Printf("Admin Base: %s\n", adminBase)
	fmt.Printf("Username: %s\n", maskString(username))
	fmt.Printf("Password: %s\n", maskString(password))
	fmt.Println()

	if username == "" || password == "" {
		fmt.Println("SMOKE_USERNAME and SMOKE_PASSWORD are required")
		os.Exit(2)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		fmt.Printf("cookie jar: %v\n", err)
		os.Exit(1)
	}
	client = &http.Client{
		Timeout: 30 * time.Second,
		Jar:     jar,
		// Guard redirects are asserted, not followed.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	fromDate = time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	toDate = time.Now().Format("2006-01-02")

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Guard Redirects Anonymous", testGuardRedirect},
		{"Login", testLogin},
		{"Products View", testProductsView},
		{"Sales View", testSalesView},
		{"Local Report (PDF)", testLocalReportPDF},
		{"Local Report (CSV)", testLocalReportCSV},
		{"Logout", testLogout},
		{"Guard After Logout", testGuardRedirect},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	resp, err := do(http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

func testGuardRedirect() error {
	resp, err := do(http.MethodGet, "/boleta", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusFound); err != nil {
		return err
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		return fmt.Errorf("expected redirect to /login, got %q", loc)
	}
	return nil
}

func testLogin() error {
	resp, err := do(http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if !result.Authenticated {
		return fmt.Errorf("login did not authenticate the session")
	}
	return nil
}

func testProductsView() error {
	resp, err := do(http.MethodGet, "/products?page=0", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result struct {
		Products []json.RawMessage `json:"products"`
		Error    string            `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Error != "" {
		return fmt.Errorf("products view error: %s", result.Error)
	}
	return nil
}

func testSalesView() error {
	resp, err := do(http.MethodGet, fmt.Sprintf("/sales?page=0&fechaInicio=%sT00:00&fechaFin=%sT23:59", fromDate, toDate), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Error != "" {
		return fmt.Errorf("sales view error: %s", result.Error)
	}
	return nil
}

func testLocalReportPDF() error {
	return fetchLocalReport("pdf", "%PDF-")
}

func testLocalReportCSV() error {
	return fetchLocalReport("csv", "Fecha,Hora,Modo Pago")
}

// fetchLocalReport accepts the file itself (local mode) or a JSON link to
// the archived copy (s3 mode).
func fetchLocalReport(format, wantPrefix string) error {
	path := fmt.Sprintf("/sales/report/local?format=%s&fechaInicio=%s&fechaFin=%s", format, fromDate, toDate)
	resp, err := do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var link struct {
			DownloadURL string `json:"downloadUrl"`
		}
		if err := json.Unmarshal(data, &link); err != nil {
			return fmt.Errorf("decode failed: %w", err)
		}
		if link.DownloadURL == "" {
			return fmt.Errorf("archived report without downloadUrl")
		}

		getResp, err := http.Get(link.DownloadURL)
		if err != nil {
			return fmt.Errorf("failed to follow download URL: %w", err)
		}
		defer getResp.Body.Close()
		if err := expectStatus(getResp, http.StatusOK); err != nil {
			return err
		}
		if data, err = io.ReadAll(getResp.Body); err != nil {
			return fmt.Errorf("failed to read archived body: %w", err)
		}
	}

	if !bytes.HasPrefix(data, []byte(wantPrefix)) {
		return fmt.Errorf("unexpected %s report start: %q", format, truncate(data, 32))
	}
	return nil
}

func testLogout() error {
	resp, err := do(http.MethodPost, "/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

// Helper functions

func do(method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, adminBase+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return client.Do(req)
}

func expectStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
