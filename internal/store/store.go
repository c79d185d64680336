// Package store holds the normalized in-memory mirror of the remote product
// service. All writes go through the remote service; mutations are applied
// optimistically and rolled back to the exact pre-operation snapshot when the
// remote call fails.
package store

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"product-admin/internal/models"
	"product-admin/internal/persistence"
)

// DefaultCacheTTL is the staleness window for fetch-by-id short-circuiting.
const DefaultCacheTTL = 5 * time.Minute

// DefaultLimit is the page size used before any filter is applied.
const DefaultLimit = 20

// RemoteService is the surface of the remote product API the store writes
// through. *client.ProductClient satisfies it.
type RemoteService interface {
	GetAll(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, *models.Pagination, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	Update(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	GetProductVariants(ctx context.Context, productID string) ([]*models.Variant, error)
	CreateProductVariant(ctx context.Context, productID string, req *models.CreateVariantRequest) (*models.Variant, error)
	UpdateProductVariant(ctx context.Context, productID, variantID string, req *models.UpdateVariantRequest) (*models.Variant, error)
	DeleteProductVariant(ctx context.Context, productID, variantID string) error
	UpdateProductStatus(ctx context.Context, id string, status models.ProductStatus) (*models.Product, error)
	UpdateProductStock(ctx context.Context, id string, req *models.UpdateStockRequest) (*models.Product, error)
	BulkUpdateProducts(ctx context.Context, ids []string, changes *models.UpdateProductRequest) ([]*models.Product, error)
	BulkDeleteProducts(ctx context.Context, ids []string) error
	SearchProducts(ctx context.Context, query string, filter *models.ProductFilter) ([]*models.Product, *models.Pagination, error)
}

// OpKind tags the logical operation a status slot belongs to.
type OpKind string

const (
	OpFetchProducts      OpKind = "fetch_products"
	OpFetchProduct       OpKind = "fetch_product"
	OpCreateProduct      OpKind = "create_product"
	OpUpdateProduct      OpKind = "update_product"
	OpDeleteProduct      OpKind = "delete_product"
	OpFetchVariants      OpKind = "fetch_variants"
	OpCreateVariant      OpKind = "create_variant"
	OpUpdateVariant      OpKind = "update_variant"
	OpDeleteVariant      OpKind = "delete_variant"
	OpUpdateStatus       OpKind = "update_status"
	OpUpdateStock        OpKind = "update_stock"
	OpBulkUpdateProducts OpKind = "bulk_update_products"
	OpBulkDeleteProducts OpKind = "bulk_delete_products"
	OpSearchProducts     OpKind = "search_products"
)

// Operation keys loading/error state per logical operation, so concurrent
// mutations on different entities never clobber each other's slots.
type Operation struct {
	Kind OpKind
	ID   string // entity id; empty for list-level and bulk operations
}

// ErrNotCached is returned when a mutation targets an id the store has never seen.
var ErrNotCached = errors.New("not in cache")

// Config wires a Store.
type Config struct {
	Remote   RemoteService
	State    persistence.Store // optional; view state is not persisted when nil
	Logger   *logrus.Logger    // optional
	CacheTTL time.Duration     // zero means DefaultCacheTTL
}

// Store is the injectable state container. All exported methods are safe for
// concurrent use.
type Store struct {
	mu sync.Mutex

	remote   RemoteService
	state    persistence.Store
	logger   *logrus.Entry
	validate *validator.Validate
	cacheTTL time.Duration

	products map[string]*models.Product
	order    []string // id order of the current listing
	variants map[string]*models.Variant

	selectedProductID string
	selectedVariantID string

	filter      models.ProductFilter
	pagination  models.Pagination
	lastUpdated time.Time

	fetchedAt map[string]time.Time

	loading map[Operation]bool
	errs    map[Operation]string

	subscribers map[int]func()
	nextSubID   int

	now func() time.Time // swapped in tests
}

// New builds a Store and restores any persisted view state.
func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	s := &Store{
		remote:      cfg.Remote,
		state:       cfg.State,
		logger:      logger.WithField("component", "product-store"),
		validate:    validator.New(),
		cacheTTL:    ttl,
		products:    make(map[string]*models.Product),
		variants:    make(map[string]*models.Variant),
		fetchedAt:   make(map[string]time.Time),
		loading:     make(map[Operation]bool),
		errs:        make(map[Operation]string),
		subscribers: make(map[int]func()),
		pagination:  models.Pagination{Page: 1, Limit: DefaultLimit},
		now:         time.Now,
	}

	if s.state != nil {
		if saved, err := s.state.Load(context.Background()); err == nil {
			s.filter = saved.Filter
			s.pagination = saved.Pagination
			s.lastUpdated = saved.LastUpdated
			if s.pagination.Page < 1 {
				s.pagination.Page = 1
			}
			if s.pagination.Limit < 1 {
				s.pagination.Limit = DefaultLimit
			}
		} else if !errors.Is(err, persistence.ErrNoState) {
			s.logger.WithError(err).Warn("Failed to restore persisted view state")
		}
	}

	return s
}

// Subscribe registers fn to run after every state transition. The returned
// function unsubscribes.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// notify invokes subscribers outside the lock; one call per state transition.
func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// begin marks an operation as in flight and clears its previous error.
// Callers must hold the lock.
func (s *Store) begin(op Operation) {
	s.loading[op] = true
	delete(s.errs, op)
}

// finish clears the loading flag and records the error, if any.
// Callers must hold the lock.
func (s *Store) finish(op Operation, err error) {
	delete(s.loading, op)
	if err != nil {
		s.errs[op] = err.Error()
	}
}

// Loading reports whether the operation is in flight.
func (s *Store) Loading(op Operation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[op]
}

// Err returns the last recorded error message for the operation, or "".
func (s *Store) Err(op Operation) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[op]
}

// Products returns the products of the current listing, in order.
func (s *Store) Products() []*models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Product, 0, len(s.order))
	for _, id := range s.order {
		if p, ok := s.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out
}

// Product returns the cached product, or nil.
func (s *Store) Product(id string) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		return cloneProduct(p)
	}
	return nil
}

// Variant returns the cached variant, or nil.
func (s *Store) Variant(id string) *models.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.variants[id]; ok {
		return cloneVariant(v)
	}
	return nil
}

// VariantsOf returns the cached variants of a product, in the product's order.
func (s *Store) VariantsOf(productID string) []*models.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return nil
	}
	out := make([]*models.Variant, 0, len(p.VariantIDs))
	for _, id := range p.VariantIDs {
		if v, ok := s.variants[id]; ok {
			out = append(out, cloneVariant(v))
		}
	}
	return out
}

// SelectedProduct returns the selected product, or nil.
func (s *Store) SelectedProduct() *models.Product {
	s.mu.Lock()
	id := s.selectedProductID
	s.mu.Unlock()
	if id == "" {
		return nil
	}
	return s.Product(id)
}

// SelectedVariant returns the selected variant, or nil.
func (s *Store) SelectedVariant() *models.Variant {
	s.mu.Lock()
	id := s.selectedVariantID
	s.mu.Unlock()
	if id == "" {
		return nil
	}
	return s.Variant(id)
}

// SelectProduct sets UI focus. Selecting the empty id clears both selections;
// changing products always clears the variant selection.
func (s *Store) SelectProduct(id string) {
	s.mu.Lock()
	if s.selectedProductID != id {
		s.selectedVariantID = ""
	}
	s.selectedProductID = id
	s.mu.Unlock()
	s.notify()
}

// SelectVariant sets variant UI focus.
func (s *Store) SelectVariant(id string) {
	s.mu.Lock()
	s.selectedVariantID = id
	s.mu.Unlock()
	s.notify()
}

// Filter returns the active listing filter.
func (s *Store) Filter() models.ProductFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// PaginationState returns the current page metadata.
func (s *Store) PaginationState() models.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// SetFilter replaces the filter. Pagination resets to page 1 unless the
// filter explicitly carries a page.
func (s *Store) SetFilter(filter models.ProductFilter) {
	s.mu.Lock()
	s.filter = filter
	if filter.Page > 0 {
		s.pagination.Page = filter.Page
	} else {
		s.pagination.Page = 1
	}
	if filter.Limit > 0 {
		s.pagination.Limit = filter.Limit
	}
	s.mu.Unlock()

	s.persistState()
	s.notify()
}

// ResetFilter clears the filter and returns to the first page.
func (s *Store) ResetFilter() {
	s.mu.Lock()
	s.filter = models.ProductFilter{}
	s.pagination.Page = 1
	s.mu.Unlock()

	s.persistState()
	s.notify()
}

// SetPage moves to a page without touching the filter.
func (s *Store) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.pagination.Page = page
	s.mu.Unlock()

	s.persistState()
	s.notify()
}

// SetLimit changes the page size and returns to the first page.
func (s *Store) SetLimit(limit int) {
	if limit < 1 {
		limit = DefaultLimit
	}
	s.mu.Lock()
	s.pagination.Limit = limit
	s.pagination.Page = 1
	s.mu.Unlock()

	s.persistState()
	s.notify()
}

// InvalidateCache marks every cached entry stale, so the next fetch of each
// one hits the remote service even inside the staleness window. A successful
// re-fetch makes that entry fresh again.
func (s *Store) InvalidateCache() {
	s.mu.Lock()
	s.fetchedAt = make(map[string]time.Time)
	s.mu.Unlock()
}

// persistState saves filter, pagination and lastUpdated. Entity data is never
// persisted. Failures are logged and otherwise ignored.
func (s *Store) persistState() {
	if s.state == nil {
		return
	}
	s.mu.Lock()
	snapshot := persistence.State{
		Filter:      s.filter,
		Pagination:  s.pagination,
		LastUpdated: s.lastUpdated,
	}
	s.mu.Unlock()

	if err := s.state.Save(context.Background(), &snapshot); err != nil {
		s.logger.WithError(err).Warn("Failed to persist view state")
	}
}
