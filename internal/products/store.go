package products

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rossyflor/pos-admin/internal/apiclient"
)

// DefaultPageSize is used when neither the query nor the store sets a size.
const DefaultPageSize = 10

// FetchErrorMessage is stored in the error field when a list fetch fails.
const FetchErrorMessage = "Error al cargar productos"

var (
	ErrInvalidID       = fmt.Errorf("%w: product id must be positive", apiclient.ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: cantidad must be positive", apiclient.ErrValidation)
	ErrNameRequired    = fmt.Errorf("%w: nombre is required", apiclient.ErrValidation)
)

// API is the subset of apiclient.Client used by the store.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// Store is the products view state of one session: the current page of
// products plus pagination and loading fields. Safe for concurrent use; only
// the most recently started Fetch may update the list.
type Store struct {
	api    API
	logger Logger

	mu            sync.Mutex
	products      []Product
	loading       bool
	errMsg        string
	totalPages    int
	totalElements int64
	currentPage   int
	pageSize      int
	search        string
	category      string
	seq           uint64
}

// NewStore creates an empty store. pageSize <= 0 means DefaultPageSize.
func NewStore(api API, pageSize int, logger Logger) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{api: api, pageSize: pageSize, logger: logger}
}

// Fetch loads one page from GET /productos. Pages are 0-based on both sides.
// On failure the error field is set to FetchErrorMessage and the error is
// returned.
func (s *Store) Fetch(ctx context.Context, q Query) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.loading = true
	s.errMsg = ""
	size := q.Size
	if size <= 0 {
		size = s.pageSize
	}
	s.mu.Unlock()

	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("size", strconv.Itoa(size))
	if q.Search != "" {
		params.Set("busqueda", q.Search)
	}
	if q.Category != "" {
		params.Set("categoria", q.Category)
	}

	var page apiclient.Page[Product]
	err := s.api.Get(ctx, "/productos", params, &page)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.logf("DEBUG products: discarding stale response for page %d", q.Page)
		return err
	}
	s.loading = false

	if err != nil {
		s.errMsg = FetchErrorMessage
		s.logf("ERROR products: fetch page %d: %v", q.Page, err)
		return err
	}

	s.products = page.Content
	if s.products == nil {
		s.products = []Product{}
	}
	s.totalPages = page.TotalPages
	s.totalElements = page.TotalElements
	s.currentPage = q.Page
	s.search = q.Search
	s.category = q.Category
	return nil
}

// Refresh re-fetches the current page with the last used filters.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	q := Query{Page: s.currentPage, Search: s.search, Category: s.category}
	s.mu.Unlock()
	return s.Fetch(ctx, q)
}

// Create posts a new product and refreshes the current page.
func (s *Store) Create(ctx context.Context, in ProductInput) error {
	if in.Nombre == "" {
		return ErrNameRequired
	}
	if err := s.api.Post(ctx, "/productos", in, nil); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	s.refreshAfter(ctx, "create")
	return nil
}

// Update replaces product id and refreshes the current page.
func (s *Store) Update(ctx context.Context, id int64, in ProductInput) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if in.Nombre == "" {
		return ErrNameRequired
	}
	if err := s.api.Put(ctx, productPath(id), in, nil); err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	s.refreshAfter(ctx, "update")
	return nil
}

// Delete removes product id and refreshes the current page.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.api.Delete(ctx, productPath(id)); err != nil {
		s.logf("ERROR products: delete %d: %v", id, err)
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	s.refreshAfter(ctx, "delete")
	return nil
}

// Sell records a sale of quantity units at price and refreshes the current
// page so the new stock shows.
func (s *Store) Sell(ctx context.Context, id int64, quantity int, price decimal.Decimal) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	req := SellRequest{Cantidad: quantity, PrecioVenta: price}
	if err := s.api.Post(ctx, productPath(id)+"/vender", req, nil); err != nil {
		return fmt.Errorf("sell product %d: %w", id, err)
	}
	s.refreshAfter(ctx, "sell")
	return nil
}

// Snapshot returns a copy of the current fields.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Product, len(s.products))
	copy(list, s.products)
	return Snapshot{
		Products:      list,
		Loading:       s.loading,
		Error:         s.errMsg,
		TotalPages:    s.totalPages,
		TotalElements: s.totalElements,
		CurrentPage:   s.currentPage,
		PageSize:      s.pageSize,
	}
}

// refreshAfter re-fetches after a successful mutation. A failed refresh is
// reflected in the error field and does not fail the mutation.
func (s *Store) refreshAfter(ctx context.Context, action string) {
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logf("WARN products: refresh after %s failed: %v", action, err)
	}
}

func (s *Store) logf(format string, v ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, v...)
}

func productPath(id int64) string {
	return "/productos/" + strconv.FormatInt(id, 10)
}
