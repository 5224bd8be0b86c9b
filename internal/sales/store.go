package sales

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/rossyflor/pos-admin/internal/apiclient"
)

const (
	DefaultPageSize = 10
	// allPageSize is the page size used when walking every page for reports.
	allPageSize = 100
	// maxWalkPages bounds All against a backend that never reports the last page.
	maxWalkPages = 1000
)

// FetchErrorMessage is stored in the error field when a list fetch fails.
const FetchErrorMessage = "Error al cargar ventas"

// Report filenames for server-generated downloads.
const (
	ReportPDFFilename   = "reporte_ventas.pdf"
	ReportExcelFilename = "reporte_ventas.xlsx"
)

var (
	ErrDateRangeRequired = fmt.Errorf("%w: Seleccione un rango de fechas", apiclient.ErrValidation)
	ErrInvalidID         = fmt.Errorf("%w: sale id must be positive", apiclient.ErrValidation)
	ErrNoItems           = fmt.Errorf("%w: a sale needs at least one item", apiclient.ErrValidation)
)

// API is the subset of apiclient.Client used by the store.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Blob(ctx context.Context, path string, query url.Values) (*apiclient.Blob, error)
}

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// Store is the sales view state of one session. The backend pages sales from
// 1; the store keeps 0-based page numbers and converts on the wire.
type Store struct {
	api    API
	logger Logger

	mu            sync.Mutex
	sales         []Sale
	loading       bool
	errMsg        string
	totalPages    int
	totalElements int64
	currentPage   int
	pageSize      int
	filters       Filters
	seq           uint64
}

// NewStore creates an empty store. pageSize <= 0 means DefaultPageSize.
func NewStore(api API, pageSize int, logger Logger) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{api: api, pageSize: pageSize, logger: logger}
}

// Fetch loads 0-based page from GET /ventas. Only the most recently started
// fetch updates the list.
func (s *Store) Fetch(ctx context.Context, page int, f Filters) error {
	if page < 0 {
		page = 0
	}
	f = f.normalized()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.loading = true
	s.errMsg = ""
	size := s.pageSize
	s.mu.Unlock()

	var resp apiclient.Page[Sale]
	err := s.api.Get(ctx, "/ventas", f.query(page+1, size), &resp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.logf("DEBUG sales: discarding stale response for page %d", page)
		return err
	}
	s.loading = false

	if err != nil {
		s.errMsg = FetchErrorMessage
		s.logf("ERROR sales: fetch page %d: %v", page, err)
		return err
	}

	s.sales = resp.Content
	if s.sales == nil {
		s.sales = []Sale{}
	}
	s.totalPages = resp.TotalPages
	s.totalElements = resp.TotalElements
	s.currentPage = page
	s.filters = f
	return nil
}

// Refresh re-fetches the current page with the last used filters.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	page, f := s.currentPage, s.filters
	s.mu.Unlock()
	return s.Fetch(ctx, page, f)
}

// All walks every backend page matching f without touching the view state.
func (s *Store) All(ctx context.Context, f Filters) ([]Sale, error) {
	f = f.normalized()
	var all []Sale
	for page := 1; page <= maxWalkPages; page++ {
		var resp apiclient.Page[Sale]
		if err := s.api.Get(ctx, "/ventas", f.query(page, allPageSize), &resp); err != nil {
			return nil, fmt.Errorf("list sales page %d: %w", page, err)
		}
		all = append(all, resp.Content...)
		if len(resp.Content) == 0 || page >= resp.TotalPages {
			return all, nil
		}
	}
	s.logf("WARN sales: stopped listing after %d pages", maxWalkPages)
	return all, nil
}

// CreateManual records a manual sale and refreshes the current page.
func (s *Store) CreateManual(ctx context.Context, req SaleRequest) error {
	if len(req.Items) == 0 {
		return ErrNoItems
	}
	req.FechaHora = NormalizeDateTime(req.FechaHora)
	if err := s.api.Post(ctx, "/ventas/manual", req, nil); err != nil {
		s.logf("ERROR sales: create manual sale: %v", err)
		return fmt.Errorf("create manual sale: %w", err)
	}
	s.refreshAfter(ctx, "manual sale")
	return nil
}

// Update replaces sale id and refreshes the current page.
func (s *Store) Update(ctx context.Context, id int64, req SaleRequest) error {
	if id <= 0 {
		return ErrInvalidID
	}
	req.FechaHora = NormalizeDateTime(req.FechaHora)
	if err := s.api.Put(ctx, salePath(id), req, nil); err != nil {
		return fmt.Errorf("update sale %d: %w", id, err)
	}
	s.refreshAfter(ctx, "update")
	return nil
}

// Get returns a single sale.
func (s *Store) Get(ctx context.Context, id int64) (*Sale, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	var sale Sale
	if err := s.api.Get(ctx, salePath(id), nil, &sale); err != nil {
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}
	return &sale, nil
}

// IssueReceipt issues a boleta. The loading flag is held for the duration.
func (s *Store) IssueReceipt(ctx context.Context, req SaleRequest) (*Receipt, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	req.FechaHora = NormalizeDateTime(req.FechaHora)

	s.setLoading(true)
	defer s.setLoading(false)

	var receipt Receipt
	if err := s.api.Post(ctx, "/ventas/emitir-boleta", req, &receipt); err != nil {
		s.logf("ERROR sales: issue receipt: %v", err)
		return nil, fmt.Errorf("issue receipt: %w", err)
	}
	return &receipt, nil
}

// Details returns the line items of sale id.
func (s *Store) Details(ctx context.Context, id int64) ([]SaleDetail, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	var details []SaleDetail
	if err := s.api.Get(ctx, salePath(id)+"/detalles", nil, &details); err != nil {
		s.logf("ERROR sales: fetch details of %d: %v", id, err)
		return nil, fmt.Errorf("sale %d details: %w", id, err)
	}
	if details == nil {
		details = []SaleDetail{}
	}
	return details, nil
}

// DownloadReportPDF fetches the server-generated PDF report. Both dates are
// required and checked before any request.
func (s *Store) DownloadReportPDF(ctx context.Context, startDate, endDate string) (*Download, error) {
	return s.download(ctx, "/ventas/reporte-pdf", ReportPDFFilename, "application/pdf", startDate, endDate)
}

// DownloadReportExcel fetches the server-generated Excel report.
func (s *Store) DownloadReportExcel(ctx context.Context, startDate, endDate string) (*Download, error) {
	return s.download(ctx, "/ventas/reporte-excel", ReportExcelFilename,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", startDate, endDate)
}

func (s *Store) download(ctx context.Context, path, filename, fallbackType, startDate, endDate string) (*Download, error) {
	if startDate == "" || endDate == "" {
		return nil, ErrDateRangeRequired
	}

	q := url.Values{}
	q.Set("fechaInicio", startDate)
	q.Set("fechaFin", endDate)

	blob, err := s.api.Blob(ctx, path, q)
	if err != nil {
		s.logf("ERROR sales: download %s: %v", filename, err)
		return nil, fmt.Errorf("download %s: %w", filename, err)
	}

	contentType := blob.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = fallbackType
	}
	return &Download{Filename: filename, ContentType: contentType, Data: blob.Data}, nil
}

// Snapshot returns a copy of the current fields.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Sale, len(s.sales))
	copy(list, s.sales)
	return Snapshot{
		Sales:         list,
		Loading:       s.loading,
		Error:         s.errMsg,
		TotalPages:    s.totalPages,
		TotalElements: s.totalElements,
		CurrentPage:   s.currentPage,
		PageSize:      s.pageSize,
		Filters:       s.filters,
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) refreshAfter(ctx context.Context, action string) {
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logf("WARN sales: refresh after %s failed: %v", action, err)
	}
}

func (s *Store) logf(format string, v ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, v...)
}

func (f Filters) normalized() Filters {
	return Filters{
		FechaInicio: NormalizeDateTime(f.FechaInicio),
		FechaFin:    NormalizeDateTime(f.FechaFin),
		ModoPago:    f.ModoPago,
	}
}

func (f Filters) query(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if f.FechaInicio != "" {
		q.Set("fechaInicio", f.FechaInicio)
	}
	if f.FechaFin != "" {
		q.Set("fechaFin", f.FechaFin)
	}
	if f.ModoPago != "" {
		q.Set("modoPago", f.ModoPago)
	}
	return q
}

func salePath(id int64) string {
	return "/ventas/" + strconv.FormatInt(id, 10)
}
