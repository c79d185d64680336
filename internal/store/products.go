package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"product-admin/internal/models"
)

// FetchProducts lists products matching the filter and replaces the current
// listing. A second call while one is in flight is skipped: it returns the
// last known listing instead of issuing another request. On failure the
// existing cache is left untouched.
func (s *Store) FetchProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, models.Pagination, error) {
	op := Operation{Kind: OpFetchProducts}

	s.mu.Lock()
	if s.loading[op] {
		// Dedupe latch: one fetch at a time, no queueing.
		products := make([]*models.Product, 0, len(s.order))
		for _, id := range s.order {
			if p, ok := s.products[id]; ok {
				products = append(products, cloneProduct(p))
			}
		}
		pagination := s.pagination
		s.mu.Unlock()
		return products, pagination, nil
	}

	if filter != nil {
		s.filter = *filter
	}
	effective := s.filter
	if effective.Page <= 0 {
		effective.Page = s.pagination.Page
	}
	if effective.Limit <= 0 {
		effective.Limit = s.pagination.Limit
	}
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	fetched, pagination, err := s.remote.GetAll(ctx, &effective)

	s.mu.Lock()
	if err != nil {
		err = fmt.Errorf("failed to fetch products: %w", err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return nil, models.Pagination{}, err
	}

	now := s.now()
	order := make([]string, 0, len(fetched))
	for _, p := range fetched {
		s.ingestProduct(p)
		s.fetchedAt[p.ID] = now
		order = append(order, p.ID)
	}
	s.order = order
	if pagination != nil {
		s.pagination = *pagination
	} else {
		s.pagination.Page = effective.Page
		s.pagination.Limit = effective.Limit
		s.pagination.Total = int64(len(fetched))
		s.pagination.TotalPages = 1
	}
	s.lastUpdated = now
	s.finish(op, nil)
	result := make([]*models.Product, 0, len(order))
	for _, id := range order {
		result = append(result, cloneProduct(s.products[id]))
	}
	resultPagination := s.pagination
	s.mu.Unlock()

	s.persistState()
	s.notify()
	return result, resultPagination, nil
}

// FetchProductByID returns the cached entry when it is fresher than the
// staleness window; otherwise it re-fetches. Either way the product becomes
// the active selection.
func (s *Store) FetchProductByID(ctx context.Context, id string) (*models.Product, error) {
	op := Operation{Kind: OpFetchProduct, ID: id}

	s.mu.Lock()
	if p, ok := s.products[id]; ok {
		if fetched, seen := s.fetchedAt[id]; seen && s.now().Sub(fetched) < s.cacheTTL {
			if s.selectedProductID != id {
				s.selectedVariantID = ""
			}
			s.selectedProductID = id
			result := cloneProduct(p)
			s.mu.Unlock()
			s.notify()
			return result, nil
		}
	}
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	fetched, err := s.remote.GetByID(ctx, id)

	s.mu.Lock()
	if err != nil {
		err = fmt.Errorf("failed to fetch product with ID %s: %w", id, err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return nil, err
	}

	s.ingestProduct(fetched)
	s.fetchedAt[id] = s.now()
	if s.selectedProductID != id {
		s.selectedVariantID = ""
	}
	s.selectedProductID = id
	s.finish(op, nil)
	result := cloneProduct(s.products[id])
	s.mu.Unlock()

	s.notify()
	return result, nil
}

// CreateProduct creates the product remotely; on success the returned record
// is inserted at the front of the listing and selected. Nothing is mutated
// locally before the remote call resolves.
func (s *Store) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	op := Operation{Kind: OpCreateProduct}

	if err := s.validate.Struct(req); err != nil {
		err = fmt.Errorf("invalid create product request: %w", err)
		s.mu.Lock()
		s.finish(op, err)
		s.mu.Unlock()
		return nil, err
	}
	if req.OfflineID == nil {
		offlineID := uuid.New().String()
		req.OfflineID = &offlineID
	}

	s.mu.Lock()
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	created, err := s.remote.Create(ctx, req)

	s.mu.Lock()
	if err != nil {
		err = fmt.Errorf("failed to create product: %w", err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return nil, err
	}

	s.ingestProduct(created)
	s.fetchedAt[created.ID] = s.now()
	s.order = append([]string{created.ID}, s.order...)
	s.selectedProductID = created.ID
	s.selectedVariantID = ""
	s.finish(op, nil)
	result := cloneProduct(s.products[created.ID])
	s.mu.Unlock()

	s.logger.WithField("productId", created.ID).Debug("Product created")
	s.notify()
	return result, nil
}

// UpdateProduct applies the patch to the cached record immediately, then
// confirms with the remote service. On success the cache entry is replaced by
// the authoritative response; on failure the pre-mutation snapshot is restored
// exactly and the error recorded.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch *models.UpdateProductRequest) (*models.Product, error) {
	op := Operation{Kind: OpUpdateProduct, ID: id}

	if err := s.validate.Struct(patch); err != nil {
		err = fmt.Errorf("invalid update product request: %w", err)
		s.mu.Lock()
		s.finish(op, err)
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	current, ok := s.products[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("product %s: %w", id, ErrNotCached)
	}
	snapshot := cloneProduct(current)

	optimistic := cloneProduct(current)
	applyProductPatch(optimistic, patch)
	s.products[id] = optimistic
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	updated, err := s.remote.Update(ctx, id, patch)

	s.mu.Lock()
	if err != nil {
		s.products[id] = snapshot
		err = fmt.Errorf("failed to update product with ID %s: %w", id, err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return nil, err
	}

	s.ingestProduct(updated)
	s.fetchedAt[id] = s.now()
	s.finish(op, nil)
	result := cloneProduct(s.products[id])
	s.mu.Unlock()

	s.notify()
	return result, nil
}

// DeleteProduct removes the product optimistically (cache entry, listing
// position, selection, owned variants), then confirms with the remote
// service. On failure every removed piece is restored in place.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	op := Operation{Kind: OpDeleteProduct, ID: id}

	s.mu.Lock()
	current, ok := s.products[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("product %s: %w", id, ErrNotCached)
	}

	snapshot := cloneProduct(current)
	orderIdx := indexOf(s.order, id)
	wasSelected := s.selectedProductID == id
	selectedVariant := s.selectedVariantID

	removedVariants := make([]*models.Variant, 0, len(current.VariantIDs))
	for _, vid := range current.VariantIDs {
		if v, exists := s.variants[vid]; exists {
			removedVariants = append(removedVariants, cloneVariant(v))
			delete(s.variants, vid)
		}
	}
	delete(s.products, id)
	delete(s.fetchedAt, id)
	if orderIdx >= 0 {
		s.order = append(s.order[:orderIdx], s.order[orderIdx+1:]...)
	}
	if wasSelected {
		s.selectedProductID = ""
		s.selectedVariantID = ""
	}
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	err := s.remote.Delete(ctx, id)

	s.mu.Lock()
	if err != nil {
		// Restore the exact pre-operation state, position included.
		s.products[id] = snapshot
		for _, v := range removedVariants {
			s.variants[v.ID] = v
		}
		if orderIdx >= 0 {
			s.order = insertAt(s.order, orderIdx, id)
		}
		if wasSelected {
			s.selectedProductID = id
			s.selectedVariantID = selectedVariant
		}
		err = fmt.Errorf("failed to delete product with ID %s: %w", id, err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.finish(op, nil)
	s.mu.Unlock()

	s.logger.WithField("productId", id).Debug("Product deleted")
	s.notify()
	return nil
}

// UpdateProductStatus is a focused optimistic update of the status field.
func (s *Store) UpdateProductStatus(ctx context.Context, id string, status models.ProductStatus) (*models.Product, error) {
	op := Operation{Kind: OpUpdateStatus, ID: id}

	if !status.IsValid() {
		err := fmt.Errorf("invalid product status %q", status)
		s.mu.Lock()
		s.finish(op, err)
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	current, ok := s.products[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("product %s: %w", id, ErrNotCached)
	}
	snapshot := cloneProduct(current)

	optimistic := cloneProduct(current)
	optimistic.Status = status
	s.products[id] = optimistic
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	updated, err := s.remote.UpdateProductStatus(ctx, id, status)

	s.mu.Lock()
	if err != nil {
		s.products[id] = snapshot
		err = fmt.Errorf("failed to update status of product with ID %s: %w", id, err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return nil, err
	}

	s.ingestProduct(updated)
	s.fetchedAt[id] = s.now()
	s.finish(op, nil)
	result := cloneProduct(s.products[id])
	s.mu.Unlock()

	s.notify()
	return result, nil
}

// UpdateProductStock is a focused optimistic update of the stock level.
func (s *Store) UpdateProductStock(ctx context.Context, id string, req *models.UpdateStockRequest) (*models.Product, error) {
	op := Operation{Kind: OpUpdateStock, ID: id}

	if err := s.validate.Struct(req); err != nil {
		err = fmt.Errorf("invalid stock update request: %w", err)
		s.mu.Lock()
		s.finish(op, err)
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	current, ok := s.products[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("product %s: %w", id, ErrNotCached)
	}
	snapshot := cloneProduct(current)

	optimistic := cloneProduct(current)
	optimistic.Stock = req.Stock
	s.products[id] = optimistic
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	updated, err := s.remote.UpdateProductStock(ctx, id, req)

	s.mu.Lock()
	if err != nil {
		s.products[id] = snapshot
		err = fmt.Errorf("failed to update stock of product with ID %s: %w", id, err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return nil, err
	}

	s.ingestProduct(updated)
	s.fetchedAt[id] = s.now()
	s.finish(op, nil)
	result := cloneProduct(s.products[id])
	s.mu.Unlock()

	s.notify()
	return result, nil
}

// BulkUpdateProducts applies the same changes to every cached id in one state
// transition, then issues one remote bulk call. On failure every affected
// entry is restored from its pre-mutation snapshot, again in one transition.
func (s *Store) BulkUpdateProducts(ctx context.Context, ids []string, changes *models.UpdateProductRequest) ([]*models.Product, error) {
	op := Operation{Kind: OpBulkUpdateProducts}

	if len(ids) == 0 {
		return nil, fmt.Errorf("bulk update requires at least one product id")
	}
	if err := s.validate.Struct(changes); err != nil {
		err = fmt.Errorf("invalid bulk update request: %w", err)
		s.mu.Lock()
		s.finish(op, err)
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	snapshots := make(map[string]*models.Product, len(ids))
	for _, id := range ids {
		if current, ok := s.products[id]; ok {
			snapshots[id] = cloneProduct(current)
			optimistic := cloneProduct(current)
			applyProductPatch(optimistic, changes)
			s.products[id] = optimistic
		}
	}
	s.begin(op)
	s.mu.Unlock()
	s.notify() // single transition for all affected ids

	updated, err := s.remote.BulkUpdateProducts(ctx, ids, changes)

	s.mu.Lock()
	if err != nil {
		for id, snapshot := range snapshots {
			s.products[id] = snapshot
		}
		err = fmt.Errorf("failed to bulk update products: %w", err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return nil, err
	}

	now := s.now()
	result := make([]*models.Product, 0, len(updated))
	for _, p := range updated {
		s.ingestProduct(p)
		s.fetchedAt[p.ID] = now
		result = append(result, cloneProduct(p))
	}
	s.finish(op, nil)
	s.mu.Unlock()

	s.logger.WithField("count", len(ids)).Debug("Bulk update applied")
	s.notify()
	return result, nil
}

// BulkDeleteProducts removes every cached id in one state transition, then
// issues one remote bulk call; a failure restores everything in place.
func (s *Store) BulkDeleteProducts(ctx context.Context, ids []string) error {
	op := Operation{Kind: OpBulkDeleteProducts}

	if len(ids) == 0 {
		return fmt.Errorf("bulk delete requires at least one product id")
	}

	type removed struct {
		product  *models.Product
		orderIdx int
		variants []*models.Variant
	}

	s.mu.Lock()
	snapshots := make(map[string]removed, len(ids))
	wasSelectedProduct := s.selectedProductID
	wasSelectedVariant := s.selectedVariantID
	for _, id := range ids {
		current, ok := s.products[id]
		if !ok {
			continue
		}
		entry := removed{
			product:  cloneProduct(current),
			orderIdx: indexOf(s.order, id),
		}
		for _, vid := range current.VariantIDs {
			if v, exists := s.variants[vid]; exists {
				entry.variants = append(entry.variants, cloneVariant(v))
				delete(s.variants, vid)
			}
		}
		snapshots[id] = entry
		delete(s.products, id)
		delete(s.fetchedAt, id)
		if entry.orderIdx >= 0 {
			s.order = append(s.order[:entry.orderIdx], s.order[entry.orderIdx+1:]...)
		}
		if s.selectedProductID == id {
			s.selectedProductID = ""
			s.selectedVariantID = ""
		}
	}
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	err := s.remote.BulkDeleteProducts(ctx, ids)

	s.mu.Lock()
	if err != nil {
		// Reinsert in ascending index order so every id lands back at its
		// original listing position.
		ordered := make([]string, 0, len(snapshots))
		for id := range snapshots {
			ordered = append(ordered, id)
		}
		sort.Slice(ordered, func(i, j int) bool {
			return snapshots[ordered[i]].orderIdx < snapshots[ordered[j]].orderIdx
		})
		for _, id := range ordered {
			entry := snapshots[id]
			s.products[id] = entry.product
			for _, v := range entry.variants {
				s.variants[v.ID] = v
			}
			if entry.orderIdx >= 0 {
				s.order = insertAt(s.order, entry.orderIdx, id)
			}
		}
		s.selectedProductID = wasSelectedProduct
		s.selectedVariantID = wasSelectedVariant
		err = fmt.Errorf("failed to bulk delete products: %w", err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.finish(op, nil)
	s.mu.Unlock()

	s.logger.WithField("count", len(ids)).Debug("Bulk delete applied")
	s.notify()
	return nil
}

// SearchProducts queries the remote search endpoint and replaces the current
// listing with the results.
func (s *Store) SearchProducts(ctx context.Context, query string) ([]*models.Product, models.Pagination, error) {
	op := Operation{Kind: OpSearchProducts}

	s.mu.Lock()
	effective := s.filter
	if effective.Page <= 0 {
		effective.Page = s.pagination.Page
	}
	if effective.Limit <= 0 {
		effective.Limit = s.pagination.Limit
	}
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	found, pagination, err := s.remote.SearchProducts(ctx, query, &effective)

	s.mu.Lock()
	if err != nil {
		err = fmt.Errorf("failed to search products: %w", err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return nil, models.Pagination{}, err
	}

	now := s.now()
	order := make([]string, 0, len(found))
	result := make([]*models.Product, 0, len(found))
	for _, p := range found {
		stored := s.ingestProduct(p)
		s.fetchedAt[p.ID] = now
		order = append(order, p.ID)
		result = append(result, cloneProduct(stored))
	}
	s.order = order
	if pagination != nil {
		s.pagination = *pagination
	}
	s.lastUpdated = now
	s.finish(op, nil)
	resultPagination := s.pagination
	s.mu.Unlock()

	s.persistState()
	s.notify()
	return result, resultPagination, nil
}

// RefreshProducts forces a re-fetch of the current listing regardless of the
// staleness window.
func (s *Store) RefreshProducts(ctx context.Context) ([]*models.Product, models.Pagination, error) {
	s.InvalidateCache()
	return s.FetchProducts(ctx, nil)
}

// ingestProduct normalizes a remote payload into the cache: embedded variant
// bodies move to the flat variant map and the product keeps id references
// only, so the two views of the same data cannot diverge. A payload carrying
// no variant information keeps the previously cached reference list; a
// payload that does carry one evicts flat-map entries it no longer
// references. Callers must hold the lock. Returns the stored copy.
func (s *Store) ingestProduct(p *models.Product) *models.Product {
	cp := cloneProduct(p)
	prev := s.products[cp.ID]

	switch {
	case len(cp.Variants) > 0:
		ids := make([]string, 0, len(cp.Variants))
		for _, v := range cp.Variants {
			s.variants[v.ID] = v
			ids = append(ids, v.ID)
		}
		if prev != nil {
			for _, old := range prev.VariantIDs {
				if indexOf(ids, old) < 0 {
					delete(s.variants, old)
				}
			}
		}
		cp.VariantIDs = ids
		cp.Variants = nil
	case len(cp.VariantIDs) > 0:
		if prev != nil {
			for _, old := range prev.VariantIDs {
				if indexOf(cp.VariantIDs, old) < 0 {
					delete(s.variants, old)
				}
			}
		}
	default:
		if prev != nil && len(prev.VariantIDs) > 0 {
			cp.VariantIDs = append([]string(nil), prev.VariantIDs...)
			cp.HasVariants = true
		}
	}

	s.products[cp.ID] = cp
	return cp
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func insertAt(ids []string, idx int, id string) []string {
	if idx < 0 || idx > len(ids) {
		return append(ids, id)
	}
	ids = append(ids, "")
	copy(ids[idx+1:], ids[idx:])
	ids[idx] = id
	return ids
}
