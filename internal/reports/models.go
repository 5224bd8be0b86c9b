package reports

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rossyflor/pos-admin/internal/apiclient"
)

// Output filenames.
const (
	PDFFilename = "Reporte_Ventas.pdf"
	CSVFilename = "Reporte_Ventas.csv"
)

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

var (
	ErrInvalidFormat    = fmt.Errorf("%w: format must be pdf or csv", apiclient.ErrValidation)
	ErrInvalidDateRange = fmt.Errorf("%w: fechaInicio must not be after fechaFin", apiclient.ErrValidation)
	ErrInvalidDate      = fmt.Errorf("%w: dates must start with YYYY-MM-DD", apiclient.ErrValidation)
)

// Document is a rendered report file.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
	Pages       int
	Rows        int
}

// Request selects what the report service renders. Empty dates mean full
// history; a nil Total is computed from the fetched sales.
type Request struct {
	StartDate string
	EndDate   string
	ModoPago  string
	Format    string
	Total     *decimal.Decimal
}

// Result is a rendered report plus, when archived, where it lives.
type Result struct {
	Document    *Document
	Total       decimal.Decimal
	ObjectKey   string
	DownloadURL string
}
