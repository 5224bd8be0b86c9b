package products

import "github.com/shopspring/decimal"

// Product is a catalogue entry as returned by GET /productos.
type Product struct {
	ID          int64           `json:"id"`
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion,omitempty"`
	Categoria   string          `json:"categoria,omitempty"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
}

// ProductInput is the body of POST /productos and PUT /productos/{id}.
type ProductInput struct {
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion,omitempty"`
	Categoria   string          `json:"categoria,omitempty"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
}

// SellRequest is the body of POST /productos/{id}/vender.
type SellRequest struct {
	Cantidad    int             `json:"cantidad"`
	PrecioVenta decimal.Decimal `json:"precioVenta"`
}

// Query selects one page of the product list. Empty filters are not sent.
type Query struct {
	Page     int
	Size     int
	Search   string
	Category string
}

// Snapshot is a copy of the container fields for a view.
type Snapshot struct {
	Products      []Product `json:"products"`
	Loading       bool      `json:"loading"`
	Error         string    `json:"error,omitempty"`
	TotalPages    int       `json:"totalPages"`
	TotalElements int64     `json:"totalElements"`
	CurrentPage   int       `json:"currentPage"`
	PageSize      int       `json:"pageSize"`
}
