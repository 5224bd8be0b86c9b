package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rossyflor/pos-admin/internal/apiclient"
	"github.com/rossyflor/pos-admin/internal/reports"
	"github.com/rossyflor/pos-admin/internal/sales"
)

// ReportLinkResponse is returned instead of the file when reports are archived.
type ReportLinkResponse struct {
	Filename    string          `json:"filename"`
	ObjectKey   string          `json:"objectKey"`
	DownloadURL string          `json:"downloadUrl"`
	Rows        int             `json:"rows"`
	Pages       int             `json:"pages,omitempty"`
	Total       decimal.Decimal `json:"total"`
}

func salesFilters(r *http.Request) sales.Filters {
	q := r.URL.Query()
	return sales.Filters{
		FechaInicio: strings.TrimSpace(q.Get("fechaInicio")),
		FechaFin:    strings.TrimSpace(q.Get("fechaFin")),
		ModoPago:    strings.TrimSpace(q.Get("modoPago")),
	}
}

// GET /sales?page=&fechaInicio=&fechaFin=&modoPago=
func (s *Server) handleSalesView(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	page, err := queryInt(r, "page", 0)
	if err != nil || page < 0 {
		writeError(w, http.StatusBadRequest, "invalid_page", "page must be a non-negative integer")
		return
	}
	if err := ws.Sales.Fetch(r.Context(), page, salesFilters(r)); err != nil && apiclient.Classify(err) == apiclient.KindUnauthorized {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Sales.Snapshot())
}

// POST /sales/manual
func (s *Server) handleCreateManualSale(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	var req sales.SaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := ws.Sales.CreateManual(r.Context(), req); err != nil {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws.Sales.Snapshot())
}

// GET /sales/{id}
func (s *Server) handleGetSale(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sale, err := ws.Sales.Get(r.Context(), id)
	if err != nil {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// PUT /sales/{id}
func (s *Server) handleUpdateSale(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req sales.SaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := ws.Sales.Update(r.Context(), id, req); err != nil {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Sales.Snapshot())
}

// GET /sales/{id}/details
func (s *Server) handleSaleDetails(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	details, err := ws.Sales.Details(r.Context(), id)
	if err != nil {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// GET /sales/report/pdf and GET /sales/report/excel
func (s *Server) handleBackendReport(excel bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFrom(r.Context())
		f := salesFilters(r)

		var (
			dl  *sales.Download
			err error
		)
		if excel {
			dl, err = ws.Sales.DownloadReportExcel(r.Context(), f.FechaInicio, f.FechaFin)
		} else {
			dl, err = ws.Sales.DownloadReportPDF(r.Context(), f.FechaInicio, f.FechaFin)
		}
		if err != nil {
			writeActionError(w, r, err)
			return
		}
		writeAttachment(w, dl.Filename, dl.ContentType, dl.Data)
	}
}

// GET /sales/report/local?fechaInicio=&fechaFin=&modoPago=&format=&total=
func (s *Server) handleLocalReport(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	f := salesFilters(r)

	req := reports.Request{
		StartDate: f.FechaInicio,
		EndDate:   f.FechaFin,
		ModoPago:  f.ModoPago,
		Format:    r.URL.Query().Get("format"),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("total")); raw != "" {
		total, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_total", "total must be a decimal number")
			return
		}
		req.Total = &total
	}

	res, err := s.reports.Generate(r.Context(), ws.Sales, req)
	if err != nil {
		writeActionError(w, r, err)
		return
	}

	if res.DownloadURL != "" {
		writeJSON(w, http.StatusOK, ReportLinkResponse{
			Filename:    res.Document.Filename,
			ObjectKey:   res.ObjectKey,
			DownloadURL: res.DownloadURL,
			Rows:        res.Document.Rows,
			Pages:       res.Document.Pages,
			Total:       res.Total,
		})
		return
	}
	writeAttachment(w, res.Document.Filename, res.Document.ContentType, res.Document.Data)
}

func writeAttachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
