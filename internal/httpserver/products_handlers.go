package httpserver

import (
	"net/http"
	"strings"

	"github.com/rossyflor/pos-admin/internal/apiclient"
	"github.com/rossyflor/pos-admin/internal/products"
)

// GET /products?page=&size=&search=&category=
func (s *Server) handleProductsView(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	page, err := queryInt(r, "page", 0)
	if err != nil || page < 0 {
		writeError(w, http.StatusBadRequest, "invalid_page", "page must be a non-negative integer")
		return
	}
	size, err := queryInt(r, "size", 0)
	if err != nil || size < 0 {
		writeError(w, http.StatusBadRequest, "invalid_size", "size must be a non-negative integer")
		return
	}

	q := products.Query{
		Page:     page,
		Size:     size,
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
	}
	if err := ws.Products.Fetch(r.Context(), q); err != nil && apiclient.Classify(err) == apiclient.KindUnauthorized {
		writeActionError(w, r, err)
		return
	}
	// Other fetch failures are reported through the snapshot's error field.
	writeJSON(w, http.StatusOK, ws.Products.Snapshot())
}

// POST /products
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	var in products.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := ws.Products.Create(r.Context(), in); err != nil {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws.Products.Snapshot())
}

// PUT /products/{id}
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in products.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := ws.Products.Update(r.Context(), id, in); err != nil {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Products.Snapshot())
}

// DELETE /products/{id}
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := ws.Products.Delete(r.Context(), id); err != nil {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Products.Snapshot())
}

// POST /products/{id}/sell
func (s *Server) handleSellProduct(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req products.SellRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := ws.Products.Sell(r.Context(), id, req.Cantidad, req.PrecioVenta); err != nil {
		writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Products.Snapshot())
}
