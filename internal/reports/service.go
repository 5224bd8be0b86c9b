package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rossyflor/pos-admin/internal/blob"
	"github.com/rossyflor/pos-admin/internal/sales"
)

// SalesSource lists every sale matching a filter (sales.Store.All).
type SalesSource interface {
	All(ctx context.Context, f sales.Filters) ([]sales.Sale, error)
}

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// Service renders locally generated sales reports and, when an archive is
// configured, uploads them and returns a download URL.
type Service struct {
	generator  *Generator
	archive    blob.Store
	presignTTL time.Duration
	logger     Logger
}

// NewService creates a report service. A nil archive means local mode.
func NewService(generator *Generator, archive blob.Store, presignTTL time.Duration, logger Logger) *Service {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &Service{
		generator:  generator,
		archive:    archive,
		presignTTL: presignTTL,
		logger:     logger,
	}
}

// Archived reports whether generated reports are uploaded.
func (s *Service) Archived() bool {
	return s.archive != nil
}

// Generate fetches all sales in the requested range from src and renders
// them. When only one date is given the report covers the full history.
func (s *Service) Generate(ctx context.Context, src SalesSource, req Request) (*Result, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = FormatPDF
	}
	if format != FormatPDF && format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	start, end := strings.TrimSpace(req.StartDate), strings.TrimSpace(req.EndDate)
	if (start == "") != (end == "") {
		s.logf("WARN reports: only one date given (start=%q end=%q), reporting full history", start, end)
		start, end = "", ""
	}
	if start != "" {
		if err := checkRange(start, end); err != nil {
			return nil, err
		}
	}

	rows, err := src.All(ctx, sales.Filters{FechaInicio: start, FechaFin: end, ModoPago: req.ModoPago})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sales: %w", err)
	}

	total := sumTotals(rows)
	if req.Total != nil {
		total = *req.Total
	}

	var doc *Document
	switch format {
	case FormatCSV:
		doc, err = s.generator.GenerateSalesCSV(rows)
	default:
		doc, err = s.generator.GenerateSalesReport(rows, start, end, total)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	s.logf("INFO reports: generated %s rows=%d pages=%d size=%d", doc.Filename, doc.Rows, doc.Pages, len(doc.Data))

	result := &Result{Document: doc, Total: total}
	if s.archive == nil {
		return result, nil
	}

	key := objectKey(start, end, format)
	if _, err := s.archive.PutObject(ctx, key, doc.Data, doc.ContentType); err != nil {
		return nil, fmt.Errorf("failed to archive report: %w", err)
	}
	url, err := s.archive.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		if delErr := s.archive.DeleteObject(ctx, key); delErr != nil {
			s.logf("WARN reports: cleanup of %s failed: %v", key, delErr)
		}
		return nil, fmt.Errorf("failed to presign report: %w", err)
	}

	result.ObjectKey = key
	result.DownloadURL = url
	return result, nil
}

func sumTotals(rows []sales.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if r.TotalFinal.Valid {
			total = total.Add(r.TotalFinal.Decimal)
		}
	}
	return total
}

func checkRange(start, end string) error {
	from, err := parseDay(start)
	if err != nil {
		return ErrInvalidDate
	}
	to, err := parseDay(end)
	if err != nil {
		return ErrInvalidDate
	}
	if from.After(to) {
		return ErrInvalidDateRange
	}
	return nil
}

func parseDay(s string) (time.Time, error) {
	if len(s) < 10 {
		return time.Time{}, fmt.Errorf("short date %q", s)
	}
	return time.Parse("2006-01-02", s[:10])
}

func objectKey(start, end, format string) string {
	period := "historico"
	if start != "" {
		period = start[:10] + "_" + end[:10]
	}
	return fmt.Sprintf("reports/sales/%s/%s_%s.%s", time.Now().UTC().Format("2006-01-02"), period, uuid.NewString(), format)
}

func (s *Service) logf(format string, v ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, v...)
}
