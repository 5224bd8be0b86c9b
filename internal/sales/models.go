package sales

import "github.com/shopspring/decimal"

// Sale is one row of GET /ventas. FechaHora is the backend timestamp as sent
// (no zone, e.g. "2024-03-05T14:30:00"); see ParseTimestamp.
type Sale struct {
	ID         int64               `json:"id"`
	FechaHora  string              `json:"fechaHora"`
	ModoPago   string              `json:"modoPago,omitempty"`
	TotalFinal decimal.NullDecimal `json:"totalFinal"`
}

// SaleDetail is one line of GET /ventas/{id}/detalles.
type SaleDetail struct {
	ID             int64           `json:"id"`
	ProductoID     int64           `json:"productoId"`
	NombreProducto string          `json:"nombreProducto,omitempty"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precioUnitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// SaleItem is one line of a manual sale or boleta request.
type SaleItem struct {
	ProductoID     int64           `json:"productoId"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precioUnitario"`
}

// SaleRequest is the body of POST /ventas/manual, PUT /ventas/{id} and
// POST /ventas/emitir-boleta.
type SaleRequest struct {
	ModoPago  string     `json:"modoPago"`
	Items     []SaleItem `json:"items"`
	FechaHora string     `json:"fechaHora,omitempty"`
}

// Receipt is the boleta returned by POST /ventas/emitir-boleta.
type Receipt struct {
	ID         int64               `json:"id"`
	FechaHora  string              `json:"fechaHora,omitempty"`
	ModoPago   string              `json:"modoPago,omitempty"`
	TotalFinal decimal.NullDecimal `json:"totalFinal"`
	Detalles   []SaleDetail        `json:"detalles,omitempty"`
}

// Filters narrow GET /ventas. Empty fields are not sent.
type Filters struct {
	FechaInicio string `json:"fechaInicio,omitempty"`
	FechaFin    string `json:"fechaFin,omitempty"`
	ModoPago    string `json:"modoPago,omitempty"`
}

// Download is a server-generated report file.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Snapshot is a copy of the container fields for a view.
type Snapshot struct {
	Sales         []Sale  `json:"sales"`
	Loading       bool    `json:"loading"`
	Error         string  `json:"error,omitempty"`
	TotalPages    int     `json:"totalPages"`
	TotalElements int64   `json:"totalElements"`
	CurrentPage   int     `json:"currentPage"`
	PageSize      int     `json:"pageSize"`
	Filters       Filters `json:"filters"`
}
