// Package client talks to the remote product service. Every method is a
// single request/response; there is no retry or queueing at this layer.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"product-admin/internal/models"
)

// ErrNotFound is returned when a lookup resolves to no entity.
var ErrNotFound = errors.New("not found")

const defaultTimeout = 10 * time.Second

// ProductClient handles communication with the remote product service
type ProductClient struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises a ProductClient.
type Option func(*ProductClient)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *ProductClient) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient swaps the underlying http.Client (tests mostly).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *ProductClient) {
		c.httpClient = hc
	}
}

// NewProductClient creates a client for the product service at baseURL.
func NewProductClient(baseURL string, opts ...Option) *ProductClient {
	c := &ProductClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAll lists products matching the filter along with pagination metadata.
func (c *ProductClient) GetAll(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, *models.Pagination, error) {
	endpoint := c.baseURL + "/api/v1/products"
	if q := encodeFilter(filter); q != "" {
		endpoint += "?" + q
	}

	var resp models.ProductListResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		return nil, nil, err
	}
	if !resp.Success {
		return nil, nil, remoteError(resp.Error, "list products")
	}
	return resp.Data, resp.Pagination, nil
}

// GetByID fetches a single product. Returns ErrNotFound when the remote call
// resolves to no entity.
func (c *ProductClient) GetByID(ctx context.Context, id string) (*models.Product, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, url.PathEscape(id))

	var resp models.ProductResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return resp.Data, nil
}

// Create creates a product. An idempotency key is attached so a retried
// request cannot create the product twice.
func (c *ProductClient) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	endpoint := c.baseURL + "/api/v1/products"
	headers := map[string]string{"X-Idempotency-Key": uuid.New().String()}

	var resp models.ProductResponse
	if err := c.do(ctx, http.MethodPost, endpoint, req, headers, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, remoteError(resp.Error, "create product")
	}
	return resp.Data, nil
}

// Update applies a partial update and returns the authoritative record.
func (c *ProductClient) Update(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, url.PathEscape(id))

	var resp models.ProductResponse
	if err := c.do(ctx, http.MethodPut, endpoint, req, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, remoteError(resp.Error, "update product")
	}
	return resp.Data, nil
}

// Delete removes a product.
func (c *ProductClient) Delete(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, url.PathEscape(id))

	var resp models.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return remoteError(resp.Error, "delete product")
	}
	return nil
}

// GetProductVariants lists the variants owned by a product.
func (c *ProductClient) GetProductVariants(ctx context.Context, productID string) ([]*models.Variant, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s/variants", c.baseURL, url.PathEscape(productID))

	var resp models.VariantListResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, remoteError(resp.Error, "list variants")
	}
	return resp.Data, nil
}

// CreateProductVariant creates a variant under a product.
func (c *ProductClient) CreateProductVariant(ctx context.Context, productID string, req *models.CreateVariantRequest) (*models.Variant, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s/variants", c.baseURL, url.PathEscape(productID))
	headers := map[string]string{"X-Idempotency-Key": uuid.New().String()}

	var resp models.VariantResponse
	if err := c.do(ctx, http.MethodPost, endpoint, req, headers, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, remoteError(resp.Error, "create variant")
	}
	return resp.Data, nil
}

// UpdateProductVariant applies a partial update to a variant.
func (c *ProductClient) UpdateProductVariant(ctx context.Context, productID, variantID string, req *models.UpdateVariantRequest) (*models.Variant, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s/variants/%s", c.baseURL, url.PathEscape(productID), url.PathEscape(variantID))

	var resp models.VariantResponse
	if err := c.do(ctx, http.MethodPut, endpoint, req, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, remoteError(resp.Error, "update variant")
	}
	return resp.Data, nil
}

// DeleteProductVariant removes a variant.
func (c *ProductClient) DeleteProductVariant(ctx context.Context, productID, variantID string) error {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s/variants/%s", c.baseURL, url.PathEscape(productID), url.PathEscape(variantID))

	var resp models.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return remoteError(resp.Error, "delete variant")
	}
	return nil
}

// UpdateProductStatus changes only the status of a product.
func (c *ProductClient) UpdateProductStatus(ctx context.Context, id string, status models.ProductStatus) (*models.Product, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s/status", c.baseURL, url.PathEscape(id))
	body := map[string]models.ProductStatus{"status": status}

	var resp models.ProductResponse
	if err := c.do(ctx, http.MethodPut, endpoint, body, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, remoteError(resp.Error, "update product status")
	}
	return resp.Data, nil
}

// UpdateProductStock adjusts the stock level of a product.
func (c *ProductClient) UpdateProductStock(ctx context.Context, id string, req *models.UpdateStockRequest) (*models.Product, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s/stock", c.baseURL, url.PathEscape(id))

	var resp models.ProductResponse
	if err := c.do(ctx, http.MethodPut, endpoint, req, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, remoteError(resp.Error, "update product stock")
	}
	return resp.Data, nil
}

// BulkUpdateProducts applies the same changes to every listed product in one call.
func (c *ProductClient) BulkUpdateProducts(ctx context.Context, ids []string, changes *models.UpdateProductRequest) ([]*models.Product, error) {
	endpoint := c.baseURL + "/api/v1/products/bulk/update"
	body := models.BulkUpdateProductsRequest{IDs: ids, Changes: *changes}

	var resp models.BulkUpdateResponse
	if err := c.do(ctx, http.MethodPost, endpoint, body, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, remoteError(resp.Error, "bulk update products")
	}
	return resp.Data, nil
}

// BulkDeleteProducts removes every listed product in one call.
func (c *ProductClient) BulkDeleteProducts(ctx context.Context, ids []string) error {
	endpoint := c.baseURL + "/api/v1/products/bulk/delete"
	body := models.BulkDeleteProductsRequest{IDs: ids}

	var resp models.BulkDeleteResponse
	if err := c.do(ctx, http.MethodPost, endpoint, body, nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return remoteError(resp.Error, "bulk delete products")
	}
	return nil
}

// SearchProducts runs a full-text search with the filter's constraints applied.
func (c *ProductClient) SearchProducts(ctx context.Context, query string, filter *models.ProductFilter) ([]*models.Product, *models.Pagination, error) {
	endpoint := c.baseURL + "/api/v1/products/search"
	body := map[string]interface{}{"query": query, "filter": filter}

	var resp models.ProductListResponse
	if err := c.do(ctx, http.MethodPost, endpoint, body, nil, &resp); err != nil {
		return nil, nil, err
	}
	if !resp.Success {
		return nil, nil, remoteError(resp.Error, "search products")
	}
	return resp.Data, resp.Pagination, nil
}

// do performs one request/response round trip, encoding body as JSON when
// present and decoding the response envelope into out.
func (c *ProductClient) do(ctx context.Context, method, endpoint string, body interface{}, headers map[string]string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeErrorBody(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeErrorBody extracts the remote error message from a non-2xx response.
func decodeErrorBody(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope struct {
		Error   *models.Error `json:"error"`
		Message string        `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Error != nil && envelope.Error.Message != "" {
			return fmt.Errorf("remote service error (status %d): %s", resp.StatusCode, envelope.Error.Message)
		}
		if envelope.Message != "" {
			return fmt.Errorf("remote service error (status %d): %s", resp.StatusCode, envelope.Message)
		}
	}
	return fmt.Errorf("remote service error: status %d", resp.StatusCode)
}

// remoteError turns an envelope error into a Go error for a 2xx response
// whose success flag is false.
func remoteError(e *models.Error, op string) error {
	if e != nil && e.Message != "" {
		return fmt.Errorf("%s: %s", op, e.Message)
	}
	return fmt.Errorf("%s: remote service reported failure", op)
}

// encodeFilter serialises the listing filter as a query string.
func encodeFilter(filter *models.ProductFilter) string {
	if filter == nil {
		return ""
	}
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.MinPrice != nil {
		q.Set("minPrice", filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		q.Set("maxPrice", filter.MaxPrice.String())
	}
	if filter.SortBy != "" {
		q.Set("sortBy", filter.SortBy)
		if filter.SortDir != "" {
			q.Set("sortDir", filter.SortDir)
		}
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	return q.Encode()
}
