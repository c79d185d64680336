package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-admin/internal/models"
)

func TestGetAllEncodesFilter(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products", r.URL.Path)
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(models.ProductListResponse{
			Success: true,
			Data: []*models.Product{
				{ID: "p1", Name: "First", SKU: "SKU-p1", RetailPrice: decimal.NewFromFloat(19.99)},
			},
			Pagination: &models.Pagination{Page: 2, Limit: 50, Total: 51, TotalPages: 2},
		})
	}))
	defer server.Close()

	c := NewProductClient(server.URL)
	minPrice := decimal.NewFromFloat(5)
	products, pagination, err := c.GetAll(context.Background(), &models.ProductFilter{
		Search:   "shirt",
		Category: "Apparel",
		MinPrice: &minPrice,
		SortBy:   "name",
		SortDir:  "asc",
		Page:     2,
		Limit:    50,
	})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)
	require.NotNil(t, pagination)
	assert.Equal(t, int64(51), pagination.Total)

	assert.Equal(t, []string{"shirt"}, gotQuery["search"])
	assert.Equal(t, []string{"Apparel"}, gotQuery["category"])
	assert.Equal(t, []string{"5"}, gotQuery["minPrice"])
	assert.Equal(t, []string{"name"}, gotQuery["sortBy"])
	assert.Equal(t, []string{"asc"}, gotQuery["sortDir"])
	assert.Equal(t, []string{"2"}, gotQuery["page"])
	assert.Equal(t, []string{"50"}, gotQuery["limit"])
}

func TestGetByIDNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewProductClient(server.URL)
	_, err := c.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByIDEmptyEnvelopeIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ProductResponse{Success: true, Data: nil})
	}))
	defer server.Close()

	c := NewProductClient(server.URL)
	_, err := c.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSendsIdempotencyKey(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Idempotency-Key")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.CreateProductRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(models.ProductResponse{
			Success: true,
			Data:    &models.Product{ID: "p1", Name: req.Name, SKU: req.SKU, RetailPrice: req.RetailPrice},
		})
	}))
	defer server.Close()

	c := NewProductClient(server.URL)
	product, err := c.Create(context.Background(), &models.CreateProductRequest{
		Name:        "Shirt",
		SKU:         "TSH-001",
		Category:    "Apparel",
		RetailPrice: decimal.NewFromFloat(19.99),
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	assert.NotEmpty(t, gotKey)
}

func TestErrorEnvelopeSurfacesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   map[string]string{"code": "DUPLICATE_SKU", "message": "SKU already exists"},
		})
	}))
	defer server.Close()

	c := NewProductClient(server.URL)
	_, err := c.Create(context.Background(), &models.CreateProductRequest{
		Name:        "Shirt",
		SKU:         "TSH-001",
		Category:    "Apparel",
		RetailPrice: decimal.NewFromFloat(19.99),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SKU already exists")
	assert.Contains(t, err.Error(), "422")
}

func TestSuccessFalseIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ProductResponse{
			Success: false,
			Error:   &models.Error{Code: "VALIDATION", Message: "name is required"},
		})
	}))
	defer server.Close()

	c := NewProductClient(server.URL)
	_, err := c.Update(context.Background(), "p1", &models.UpdateProductRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestBulkEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/products/bulk/update":
			var req models.BulkUpdateProductsRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, []string{"p1", "p2"}, req.IDs)
			json.NewEncoder(w).Encode(models.BulkUpdateResponse{Success: true})
		case "/api/v1/products/bulk/delete":
			var req models.BulkDeleteProductsRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, []string{"p1", "p2"}, req.IDs)
			json.NewEncoder(w).Encode(models.BulkDeleteResponse{Success: true})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewProductClient(server.URL)
	status := models.ProductStatusInactive
	_, err := c.BulkUpdateProducts(context.Background(), []string{"p1", "p2"}, &models.UpdateProductRequest{Status: &status})
	require.NoError(t, err)
	require.NoError(t, c.BulkDeleteProducts(context.Background(), []string{"p1", "p2"}))
}

func TestVariantEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/products/p1/variants" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(models.VariantListResponse{
				Success: true,
				Data:    []*models.Variant{{ID: "v1", ProductID: "p1", SKU: "SKU-v1", Name: "Small"}},
			})
		case r.URL.Path == "/api/v1/products/p1/variants/v1" && r.Method == http.MethodDelete:
			json.NewEncoder(w).Encode(models.DeleteResponse{Success: true})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewProductClient(server.URL)
	variants, err := c.GetProductVariants(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "v1", variants[0].ID)

	require.NoError(t, c.DeleteProductVariant(context.Background(), "p1", "v1"))
}
