package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/rossyflor/pos-admin/internal/sales"
)

// Page geometry in millimetres (A4 portrait).
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	margin     = 14.0
	centerX    = pageWidth / 2

	tableStartY = 75.0
	rowHeight   = 10.0
	cellPadding = 3.0
	footerY     = 290.0
	footerRight = 200.0
)

const (
	fontFamily = "Helvetica"
	dateLayout = "02/01/2006"
	timeLayout = "15:04"
	nowLayout  = "02/01/2006, 15:04:05"

	pageCountAlias = "{nb}"
)

var tableColumns = []string{"Fecha", "Hora", "Modo Pago", "Total (S/.)"}

type rgb struct{ r, g, b int }

var (
	titleColor  = rgb{40, 40, 40}
	periodColor = rgb{100, 100, 100}
	boxColor    = rgb{245, 245, 245}
	totalColor  = rgb{0, 100, 0}
	headColor   = rgb{60, 60, 60}
	gridColor   = rgb{200, 200, 200}
	stripeColor = rgb{245, 245, 245}
	footerColor = rgb{150, 150, 150}
)

// Generator renders the sales report PDF.
type Generator struct {
	loc      *time.Location
	now      func() time.Time
	compress bool
}

type GeneratorOption func(*Generator)

// WithClock replaces time.Now for the "Generado el" footer.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// WithoutCompression writes plain content streams.
func WithoutCompression() GeneratorOption {
	return func(g *Generator) { g.compress = false }
}

// NewGenerator creates a generator that renders timestamps in loc.
func NewGenerator(loc *time.Location, opts ...GeneratorOption) *Generator {
	if loc == nil {
		loc = time.Local
	}
	g := &Generator{
		loc:      loc,
		now:      time.Now,
		compress: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Location returns the zone timestamps are rendered in.
func (g *Generator) Location() *time.Location {
	return g.loc
}

// GenerateSalesReport lays out the report: title block, period line, totals
// box and the paginated sales table, with the footer on every page.
// Empty dates mean the report covers the full history.
func (g *Generator) GenerateSalesReport(rows []sales.Sale, startDate, endDate string, totalSales decimal.Decimal) (*Document, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(g.compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Reporte de Ventas", true)
	pdf.SetCreator("ROSS & FLOR", true)
	pdf.AliasNbPages(pageCountAlias)
	pdf.SetFooterFunc(g.footer(pdf, "Generado el: "+g.now().In(g.loc).Format(nowLayout)))
	pdf.AddPage()

	g.drawHeader(pdf, startDate, endDate)
	g.drawTotals(pdf, totalSales)
	g.drawTable(pdf, rows)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return &Document{
		Filename:    PDFFilename,
		ContentType: "application/pdf",
		Data:        buf.Bytes(),
		Pages:       pdf.PageCount(),
		Rows:        len(rows),
	}, nil
}

func (g *Generator) drawHeader(pdf *gofpdf.Fpdf, startDate, endDate string) {
	pdf.SetFont(fontFamily, "", 22)
	setText(pdf, titleColor)
	g.centered(pdf, "ROSS & FLOR", centerX, 20)

	pdf.SetFontSize(14)
	g.centered(pdf, "Reporte de Ventas", centerX, 30)

	pdf.SetFontSize(10)
	setText(pdf, periodColor)
	g.centered(pdf, PeriodLine(startDate, endDate), centerX, 38)
}

func (g *Generator) drawTotals(pdf *gofpdf.Fpdf, total decimal.Decimal) {
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetFillColor(boxColor.r, boxColor.g, boxColor.b)
	pdf.Rect(140, 45, 60, 20, "F")

	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(0, 0, 0)
	g.centered(pdf, "Venta Total en el Periodo:", 170, 52)

	pdf.SetFont(fontFamily, "B", 14)
	setText(pdf, totalColor)
	g.centered(pdf, FormatCurrency(total), 170, 60)
}

// drawTable pages rows manually: a row that would cross the bottom margin
// starts a new page, and every page begins with the header row.
func (g *Generator) drawTable(pdf *gofpdf.Fpdf, rows []sales.Sale) {
	colWidth := (pageWidth - 2*margin) / float64(len(tableColumns))
	bottom := pageHeight - margin
	pdf.SetCellMargin(cellPadding)
	pdf.SetLineWidth(0.1)

	y := g.drawTableHead(pdf, tableStartY, colWidth)
	for i, sale := range rows {
		if y+rowHeight > bottom {
			pdf.AddPage()
			y = g.drawTableHead(pdf, margin, colWidth)
		}

		pdf.SetFont(fontFamily, "", 10)
		pdf.SetTextColor(80, 80, 80)
		setDraw(pdf, gridColor)
		fill := i%2 == 1
		if fill {
			pdf.SetFillColor(stripeColor.r, stripeColor.g, stripeColor.b)
		}

		pdf.SetXY(margin, y)
		for _, cell := range g.Row(sale) {
			pdf.CellFormat(colWidth, rowHeight, g.encode(cell), "1", 0, "L", fill, 0, "")
		}
		y += rowHeight
	}
}

func (g *Generator) drawTableHead(pdf *gofpdf.Fpdf, y, colWidth float64) float64 {
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFillColor(headColor.r, headColor.g, headColor.b)
	setDraw(pdf, gridColor)

	pdf.SetXY(margin, y)
	for _, col := range tableColumns {
		pdf.CellFormat(colWidth, rowHeight, g.encode(col), "1", 0, "L", true, 0, "")
	}
	return y + rowHeight
}

// footer stamps every page. The total page count is only known once the
// table has paginated, so it is written as an alias resolved at output.
func (g *Generator) footer(pdf *gofpdf.Fpdf, generated string) func() {
	return func() {
		pdf.SetFont(fontFamily, "", 8)
		setText(pdf, footerColor)

		page := pdf.PageNo()
		width := pdf.GetStringWidth(g.encode(fmt.Sprintf("Página %d de %d", page, page)))
		pdf.Text(centerX-width/2, footerY, g.encode(fmt.Sprintf("Página %d de %s", page, pageCountAlias)))
		g.rightAligned(pdf, generated, footerRight, footerY)
	}
}

// Row returns the four table cells of a sale.
func (g *Generator) Row(s sales.Sale) []string {
	date, clock := "N/A", "N/A"
	if t, err := sales.ParseTimestamp(s.FechaHora, g.loc); err == nil {
		date = t.Format(dateLayout)
		clock = t.Format(timeLayout)
	}

	mode := s.ModoPago
	if mode == "" {
		mode = "N/A"
	}

	total := "0.00"
	if s.TotalFinal.Valid && !s.TotalFinal.Decimal.IsZero() {
		total = s.TotalFinal.Decimal.StringFixed(2)
	}

	return []string{date, clock, mode, total}
}

// PeriodLine is the text under the subtitle.
func PeriodLine(startDate, endDate string) string {
	if startDate != "" && endDate != "" {
		return fmt.Sprintf("Período: %s al %s", startDate, endDate)
	}
	return "Período: Histórico Completo"
}

// FormatCurrency renders an amount as "S/. 1234.50".
func FormatCurrency(d decimal.Decimal) string {
	return "S/. " + d.StringFixed(2)
}

func (g *Generator) centered(pdf *gofpdf.Fpdf, s string, x, y float64) {
	s = g.encode(s)
	pdf.Text(x-pdf.GetStringWidth(s)/2, y, s)
}

func (g *Generator) rightAligned(pdf *gofpdf.Fpdf, s string, x, y float64) {
	s = g.encode(s)
	pdf.Text(x-pdf.GetStringWidth(s), y, s)
}

// encode converts UTF-8 to the Windows-1252 bytes the core fonts expect.
func (g *Generator) encode(s string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	out, _, err := transform.String(enc, s)
	if err != nil {
		return s
	}
	return out
}

func setText(pdf *gofpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setDraw(pdf *gofpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
