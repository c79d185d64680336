package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"product-admin/internal/models"
)

// MockRemoteService is a mock implementation of RemoteService
type MockRemoteService struct {
	mock.Mock
}

func (m *MockRemoteService) GetAll(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, *models.Pagination, error) {
	args := m.Called(ctx, filter)
	var products []*models.Product
	if v := args.Get(0); v != nil {
		products = v.([]*models.Product)
	}
	var pagination *models.Pagination
	if v := args.Get(1); v != nil {
		pagination = v.(*models.Pagination)
	}
	return products, pagination, args.Error(2)
}

func (m *MockRemoteService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	var product *models.Product
	if v := args.Get(0); v != nil {
		product = v.(*models.Product)
	}
	return product, args.Error(1)
}

func (m *MockRemoteService) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, req)
	var product *models.Product
	if v := args.Get(0); v != nil {
		product = v.(*models.Product)
	}
	return product, args.Error(1)
}

func (m *MockRemoteService) Update(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, id, req)
	var product *models.Product
	if v := args.Get(0); v != nil {
		product = v.(*models.Product)
	}
	return product, args.Error(1)
}

func (m *MockRemoteService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRemoteService) GetProductVariants(ctx context.Context, productID string) ([]*models.Variant, error) {
	args := m.Called(ctx, productID)
	var variants []*models.Variant
	if v := args.Get(0); v != nil {
		variants = v.([]*models.Variant)
	}
	return variants, args.Error(1)
}

func (m *MockRemoteService) CreateProductVariant(ctx context.Context, productID string, req *models.CreateVariantRequest) (*models.Variant, error) {
	args := m.Called(ctx, productID, req)
	var variant *models.Variant
	if v := args.Get(0); v != nil {
		variant = v.(*models.Variant)
	}
	return variant, args.Error(1)
}

func (m *MockRemoteService) UpdateProductVariant(ctx context.Context, productID, variantID string, req *models.UpdateVariantRequest) (*models.Variant, error) {
	args := m.Called(ctx, productID, variantID, req)
	var variant *models.Variant
	if v := args.Get(0); v != nil {
		variant = v.(*models.Variant)
	}
	return variant, args.Error(1)
}

func (m *MockRemoteService) DeleteProductVariant(ctx context.Context, productID, variantID string) error {
	args := m.Called(ctx, productID, variantID)
	return args.Error(0)
}

func (m *MockRemoteService) UpdateProductStatus(ctx context.Context, id string, status models.ProductStatus) (*models.Product, error) {
	args := m.Called(ctx, id, status)
	var product *models.Product
	if v := args.Get(0); v != nil {
		product = v.(*models.Product)
	}
	return product, args.Error(1)
}

func (m *MockRemoteService) UpdateProductStock(ctx context.Context, id string, req *models.UpdateStockRequest) (*models.Product, error) {
	args := m.Called(ctx, id, req)
	var product *models.Product
	if v := args.Get(0); v != nil {
		product = v.(*models.Product)
	}
	return product, args.Error(1)
}

func (m *MockRemoteService) BulkUpdateProducts(ctx context.Context, ids []string, changes *models.UpdateProductRequest) ([]*models.Product, error) {
	args := m.Called(ctx, ids, changes)
	var products []*models.Product
	if v := args.Get(0); v != nil {
		products = v.([]*models.Product)
	}
	return products, args.Error(1)
}

func (m *MockRemoteService) BulkDeleteProducts(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockRemoteService) SearchProducts(ctx context.Context, query string, filter *models.ProductFilter) ([]*models.Product, *models.Pagination, error) {
	args := m.Called(ctx, query, filter)
	var products []*models.Product
	if v := args.Get(0); v != nil {
		products = v.([]*models.Product)
	}
	var pagination *models.Pagination
	if v := args.Get(1); v != nil {
		pagination = v.(*models.Pagination)
	}
	return products, pagination, args.Error(2)
}

func testProduct(id, name string) *models.Product {
	return &models.Product{
		ID:          id,
		Name:        name,
		SKU:         "SKU-" + id,
		Category:    "Apparel",
		RetailPrice: decimal.NewFromFloat(19.99),
		Stock:       10,
		Status:      models.ProductStatusActive,
	}
}

func newTestStore(remote RemoteService) *Store {
	return New(Config{Remote: remote})
}

func seedListing(t *testing.T, s *Store, remote *MockRemoteService, products ...*models.Product) {
	t.Helper()
	remote.On("GetAll", mock.Anything, mock.Anything).Return(products, (*models.Pagination)(nil), nil).Once()
	_, _, err := s.FetchProducts(context.Background(), nil)
	require.NoError(t, err)
}

func TestFetchProductsReplacesListing(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)

	p1 := testProduct("p1", "First")
	p2 := testProduct("p2", "Second")
	remote.On("GetAll", mock.Anything, mock.Anything).
		Return([]*models.Product{p1, p2}, &models.Pagination{Page: 1, Limit: 20, Total: 2, TotalPages: 1}, nil).Once()

	products, pagination, err := s.FetchProducts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "p2", products[1].ID)
	assert.Equal(t, int64(2), pagination.Total)

	// A second fetch replaces, not appends
	p3 := testProduct("p3", "Third")
	remote.On("GetAll", mock.Anything, mock.Anything).
		Return([]*models.Product{p3}, (*models.Pagination)(nil), nil).Once()

	products, _, err = s.FetchProducts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p3", products[0].ID)

	remote.AssertExpectations(t)
}

func TestFetchProductsErrorKeepsCache(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote, testProduct("p1", "First"))

	remote.On("GetAll", mock.Anything, mock.Anything).
		Return(nil, nil, errors.New("boom")).Once()

	_, _, err := s.FetchProducts(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch products")

	// The previous listing is still served
	products := s.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)
	assert.Contains(t, s.Err(Operation{Kind: OpFetchProducts}), "boom")

	remote.AssertExpectations(t)
}

func TestFetchProductsDedupesWhileInFlight(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote, testProduct("p1", "First"))

	release := make(chan struct{})
	remote.On("GetAll", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return([]*models.Product{testProduct("p2", "Second")}, (*models.Pagination)(nil), nil).Once()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = s.FetchProducts(context.Background(), nil)
	}()

	// Wait until the first fetch is in flight
	deadline := time.After(2 * time.Second)
	for !s.Loading(Operation{Kind: OpFetchProducts}) {
		select {
		case <-deadline:
			t.Fatal("fetch never started")
		case <-time.After(time.Millisecond):
		}
	}

	// The overlapping call is skipped: it returns the last known listing
	// without a second remote request.
	products, _, err := s.FetchProducts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)

	close(release)
	<-done
	remote.AssertExpectations(t)
}

func TestFetchProductByIDServesFreshCache(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote, testProduct("p1", "First"))

	// No GetByID expectation: a remote call would fail the test.
	product, err := s.FetchProductByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "First", product.Name)
	assert.Equal(t, "p1", s.SelectedProduct().ID)

	remote.AssertExpectations(t)
}

func TestFetchProductByIDRefetchesAfterWindow(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)

	base := time.Now()
	s.now = func() time.Time { return base }
	seedListing(t, s, remote, testProduct("p1", "First"))

	s.now = func() time.Time { return base.Add(DefaultCacheTTL + time.Second) }
	refreshed := testProduct("p1", "First, renamed")
	remote.On("GetByID", mock.Anything, "p1").Return(refreshed, nil).Once()

	product, err := s.FetchProductByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "First, renamed", product.Name)

	remote.AssertExpectations(t)
}

func TestFetchProductByIDRefetchesAfterInvalidate(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote, testProduct("p1", "First"))

	s.InvalidateCache()
	remote.On("GetByID", mock.Anything, "p1").Return(testProduct("p1", "First"), nil).Once()

	_, err := s.FetchProductByID(context.Background(), "p1")
	require.NoError(t, err)

	// The forced re-fetch made the entry fresh again: a second lookup inside
	// the staleness window is served from cache.
	_, err = s.FetchProductByID(context.Background(), "p1")
	require.NoError(t, err)

	remote.AssertExpectations(t)
}

func TestCreateProductPrependsAndSelects(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote, testProduct("p1", "First"))

	created := testProduct("p2", "Second")
	remote.On("Create", mock.Anything, mock.MatchedBy(func(req *models.CreateProductRequest) bool {
		return req.OfflineID != nil && *req.OfflineID != ""
	})).Return(created, nil).Once()

	product, err := s.CreateProduct(context.Background(), &models.CreateProductRequest{
		Name:        "Second",
		SKU:         "SKU-p2",
		Category:    "Apparel",
		RetailPrice: decimal.NewFromFloat(19.99),
	})
	require.NoError(t, err)
	assert.Equal(t, "p2", product.ID)

	products := s.Products()
	require.Len(t, products, 2)
	assert.Equal(t, "p2", products[0].ID)
	assert.Equal(t, "p2", s.SelectedProduct().ID)

	remote.AssertExpectations(t)
}

func TestCreateProductFailureLeavesCacheUntouched(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote, testProduct("p1", "First"))
	before := s.Products()

	remote.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

	_, err := s.CreateProduct(context.Background(), &models.CreateProductRequest{
		Name:        "Second",
		SKU:         "SKU-p2",
		Category:    "Apparel",
		RetailPrice: decimal.NewFromFloat(19.99),
	})
	require.Error(t, err)
	assert.Equal(t, before, s.Products())

	remote.AssertExpectations(t)
}

func TestCreateProductRejectsInvalidRequest(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)

	// Missing required fields; the remote must never be called.
	_, err := s.CreateProduct(context.Background(), &models.CreateProductRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid create product request")

	remote.AssertExpectations(t)
}

func TestUpdateProductRollsBackOnFailure(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote, testProduct("p1", "First"))
	before := s.Product("p1")

	name := "Renamed"
	remote.On("Update", mock.Anything, "p1", mock.Anything).Return(nil, errors.New("boom")).Once()

	_, err := s.UpdateProduct(context.Background(), "p1", &models.UpdateProductRequest{Name: &name})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update product with ID p1")

	// The cached record equals the pre-mutation snapshot exactly
	assert.Equal(t, before, s.Product("p1"))
	assert.Contains(t, s.Err(Operation{Kind: OpUpdateProduct, ID: "p1"}), "boom")

	remote.AssertExpectations(t)
}

func TestUpdateProductKeepsAuthoritativeResponse(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote, testProduct("p1", "First"))

	name := "Renamed"
	authoritative := testProduct("p1", "Renamed by server")
	remote.On("Update", mock.Anything, "p1", mock.Anything).Return(authoritative, nil).Once()

	product, err := s.UpdateProduct(context.Background(), "p1", &models.UpdateProductRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed by server", product.Name)
	assert.Equal(t, "Renamed by server", s.Product("p1").Name)

	remote.AssertExpectations(t)
}

func TestUpdateProductKeepsVariantReferences(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)

	p := testProduct("p1", "First")
	p.HasVariants = true
	p.Variants = []*models.Variant{
		{ID: "v1", ProductID: "p1", SKU: "SKU-v1", Name: "Small"},
	}
	seedListing(t, s, remote, p)

	// The authoritative response carries no variant information at all.
	name := "Renamed"
	authoritative := testProduct("p1", "Renamed")
	remote.On("Update", mock.Anything, "p1", mock.Anything).Return(authoritative, nil).Once()

	_, err := s.UpdateProduct(context.Background(), "p1", &models.UpdateProductRequest{Name: &name})
	require.NoError(t, err)

	// Both views survive: the flat map entry and the parent's reference list
	require.NotNil(t, s.Variant("v1"))
	assert.Equal(t, []string{"v1"}, s.Product("p1").VariantIDs)
	assert.True(t, s.Product("p1").HasVariants)

	remote.AssertExpectations(t)
}

func TestUpdateProductEmbeddedVariantsEvictStale(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)

	p := testProduct("p1", "First")
	p.Variants = []*models.Variant{
		{ID: "v1", ProductID: "p1", SKU: "SKU-v1", Name: "Small"},
	}
	seedListing(t, s, remote, p)

	name := "Renamed"
	authoritative := testProduct("p1", "Renamed")
	authoritative.Variants = []*models.Variant{
		{ID: "v2", ProductID: "p1", SKU: "SKU-v2", Name: "Medium"},
	}
	remote.On("Update", mock.Anything, "p1", mock.Anything).Return(authoritative, nil).Once()

	_, err := s.UpdateProduct(context.Background(), "p1", &models.UpdateProductRequest{Name: &name})
	require.NoError(t, err)

	// The replaced list evicts the now-unreferenced flat map entry
	assert.Nil(t, s.Variant("v1"))
	require.NotNil(t, s.Variant("v2"))
	assert.Equal(t, []string{"v2"}, s.Product("p1").VariantIDs)

	remote.AssertExpectations(t)
}

func TestUpdateProductUnknownID(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)

	name := "Renamed"
	_, err := s.UpdateProduct(context.Background(), "ghost", &models.UpdateProductRequest{Name: &name})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotCached)

	remote.AssertExpectations(t)
}

func TestDeleteProductRestoresExactPositionOnFailure(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote,
		testProduct("p1", "First"),
		testProduct("p2", "Second"),
		testProduct("p3", "Third"),
	)
	s.SelectProduct("p2")
	before := s.Products()

	remote.On("Delete", mock.Anything, "p2").Return(errors.New("boom")).Once()

	err := s.DeleteProduct(context.Background(), "p2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete product with ID p2")

	// Listing order, cache entry and selection are all back
	assert.Equal(t, before, s.Products())
	assert.Equal(t, "p2", s.SelectedProduct().ID)

	remote.AssertExpectations(t)
}

func TestDeleteProductRemovesOwnedVariants(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	p := testProduct("p1", "First")
	p.HasVariants = true
	p.Variants = []*models.Variant{
		{ID: "v1", ProductID: "p1", SKU: "SKU-v1", Name: "Small"},
	}
	seedListing(t, s, remote, p)
	require.NotNil(t, s.Variant("v1"))

	remote.On("Delete", mock.Anything, "p1").Return(nil).Once()
	require.NoError(t, s.DeleteProduct(context.Background(), "p1"))

	assert.Nil(t, s.Product("p1"))
	assert.Nil(t, s.Variant("v1"))

	remote.AssertExpectations(t)
}

func TestUpdateProductStatusRollsBackOnFailure(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote, testProduct("p1", "First"))

	remote.On("UpdateProductStatus", mock.Anything, "p1", models.ProductStatusInactive).
		Return(nil, errors.New("boom")).Once()

	_, err := s.UpdateProductStatus(context.Background(), "p1", models.ProductStatusInactive)
	require.Error(t, err)
	assert.Equal(t, models.ProductStatusActive, s.Product("p1").Status)

	remote.AssertExpectations(t)
}

func TestUpdateProductStatusRejectsUnknownStatus(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote, testProduct("p1", "First"))

	_, err := s.UpdateProductStatus(context.Background(), "p1", models.ProductStatus("retired"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid product status")

	remote.AssertExpectations(t)
}

func TestBulkUpdateRollsBackAllOnFailure(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote,
		testProduct("p1", "First"),
		testProduct("p2", "Second"),
	)
	before := s.Products()

	status := models.ProductStatusInactive
	remote.On("BulkUpdateProducts", mock.Anything, []string{"p1", "p2"}, mock.Anything).
		Return(nil, errors.New("boom")).Once()

	_, err := s.BulkUpdateProducts(context.Background(), []string{"p1", "p2"}, &models.UpdateProductRequest{Status: &status})
	require.Error(t, err)
	assert.Equal(t, before, s.Products())

	remote.AssertExpectations(t)
}

func TestBulkUpdateAppliesInOneTransition(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote,
		testProduct("p1", "First"),
		testProduct("p2", "Second"),
	)

	notifications := 0
	unsubscribe := s.Subscribe(func() { notifications++ })
	defer unsubscribe()

	status := models.ProductStatusInactive
	updated1 := testProduct("p1", "First")
	updated1.Status = status
	updated2 := testProduct("p2", "Second")
	updated2.Status = status
	remote.On("BulkUpdateProducts", mock.Anything, []string{"p1", "p2"}, mock.Anything).
		Return([]*models.Product{updated1, updated2}, nil).Once()

	_, err := s.BulkUpdateProducts(context.Background(), []string{"p1", "p2"}, &models.UpdateProductRequest{Status: &status})
	require.NoError(t, err)

	// One transition for the optimistic apply, one for the confirmation
	assert.Equal(t, 2, notifications)
	assert.Equal(t, status, s.Product("p1").Status)
	assert.Equal(t, status, s.Product("p2").Status)

	remote.AssertExpectations(t)
}

func TestBulkDeleteRestoresPositionsOnFailure(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote,
		testProduct("p1", "First"),
		testProduct("p2", "Second"),
		testProduct("p3", "Third"),
		testProduct("p4", "Fourth"),
	)
	before := s.Products()

	remote.On("BulkDeleteProducts", mock.Anything, []string{"p2", "p4"}).
		Return(errors.New("boom")).Once()

	err := s.BulkDeleteProducts(context.Background(), []string{"p2", "p4"})
	require.Error(t, err)
	assert.Equal(t, before, s.Products())

	remote.AssertExpectations(t)
}

func TestIngestNormalizesEmbeddedVariants(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)

	p := testProduct("p1", "First")
	p.HasVariants = true
	p.Variants = []*models.Variant{
		{ID: "v1", ProductID: "p1", SKU: "SKU-v1", Name: "Small"},
		{ID: "v2", ProductID: "p1", SKU: "SKU-v2", Name: "Medium"},
	}
	seedListing(t, s, remote, p)

	cached := s.Product("p1")
	assert.Nil(t, cached.Variants)
	assert.Equal(t, []string{"v1", "v2"}, cached.VariantIDs)

	variants := s.VariantsOf("p1")
	require.Len(t, variants, 2)
	assert.Equal(t, "Small", variants[0].Name)

	remote.AssertExpectations(t)
}

func TestSelectProductClearsVariantSelection(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)

	p := testProduct("p1", "First")
	p.Variants = []*models.Variant{{ID: "v1", ProductID: "p1", SKU: "SKU-v1", Name: "Small"}}
	seedListing(t, s, remote, p, testProduct("p2", "Second"))

	s.SelectProduct("p1")
	s.SelectVariant("v1")
	require.NotNil(t, s.SelectedVariant())

	s.SelectProduct("p2")
	assert.Nil(t, s.SelectedVariant())

	remote.AssertExpectations(t)
}

func TestSetFilterResetsPage(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)

	s.SetPage(4)
	require.Equal(t, 4, s.PaginationState().Page)

	s.SetFilter(models.ProductFilter{Category: "Apparel"})
	assert.Equal(t, 1, s.PaginationState().Page)
	assert.Equal(t, "Apparel", s.Filter().Category)
}

func TestSetFilterKeepsExplicitPage(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)

	s.SetFilter(models.ProductFilter{Category: "Apparel", Page: 3, Limit: 50})
	assert.Equal(t, 3, s.PaginationState().Page)
	assert.Equal(t, 50, s.PaginationState().Limit)
}

func TestGettersReturnClones(t *testing.T) {
	remote := new(MockRemoteService)
	s := newTestStore(remote)
	seedListing(t, s, remote, testProduct("p1", "First"))

	got := s.Product("p1")
	got.Name = "mutated by caller"

	assert.Equal(t, "First", s.Product("p1").Name)
	remote.AssertExpectations(t)
}
