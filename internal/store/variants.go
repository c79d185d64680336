package store

import (
	"context"
	"fmt"

	"product-admin/internal/models"
)

// FetchVariants loads the variants of a product and syncs both views: the
// flat variant map and the parent's variant-id list.
func (s *Store) FetchVariants(ctx context.Context, productID string) ([]*models.Variant, error) {
	op := Operation{Kind: OpFetchVariants, ID: productID}

	s.mu.Lock()
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	fetched, err := s.remote.GetProductVariants(ctx, productID)

	s.mu.Lock()
	if err != nil {
		err = fmt.Errorf("failed to fetch variants of product with ID %s: %w", productID, err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return nil, err
	}

	ids := make([]string, 0, len(fetched))
	result := make([]*models.Variant, 0, len(fetched))
	for _, v := range fetched {
		stored := cloneVariant(v)
		s.variants[stored.ID] = stored
		ids = append(ids, stored.ID)
		result = append(result, cloneVariant(stored))
	}
	if p, ok := s.products[productID]; ok {
		// Drop map entries the remote no longer reports before replacing the
		// list, so neither view leaks stale variants.
		for _, old := range p.VariantIDs {
			if indexOf(ids, old) < 0 {
				delete(s.variants, old)
			}
		}
		p.VariantIDs = ids
		p.HasVariants = len(ids) > 0
	}
	s.finish(op, nil)
	s.mu.Unlock()

	s.notify()
	return result, nil
}

// CreateVariant creates the variant remotely; on success it is inserted into
// the flat map and appended to the parent's variant list in one transition.
func (s *Store) CreateVariant(ctx context.Context, productID string, req *models.CreateVariantRequest) (*models.Variant, error) {
	op := Operation{Kind: OpCreateVariant, ID: productID}

	if err := s.validate.Struct(req); err != nil {
		err = fmt.Errorf("invalid create variant request: %w", err)
		s.mu.Lock()
		s.finish(op, err)
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	if _, ok := s.products[productID]; !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("product %s: %w", productID, ErrNotCached)
	}
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	created, err := s.remote.CreateProductVariant(ctx, productID, req)

	s.mu.Lock()
	if err != nil {
		err = fmt.Errorf("failed to create variant for product with ID %s: %w", productID, err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return nil, err
	}

	stored := cloneVariant(created)
	s.variants[stored.ID] = stored
	if p, ok := s.products[productID]; ok {
		p.VariantIDs = append(p.VariantIDs, stored.ID)
		p.HasVariants = true
	}
	s.finish(op, nil)
	result := cloneVariant(stored)
	s.mu.Unlock()

	s.logger.WithField("variantId", stored.ID).Debug("Variant created")
	s.notify()
	return result, nil
}

// UpdateVariant applies the patch to the cached variant immediately and rolls
// back to the pre-mutation snapshot when the remote call fails.
func (s *Store) UpdateVariant(ctx context.Context, productID, variantID string, patch *models.UpdateVariantRequest) (*models.Variant, error) {
	op := Operation{Kind: OpUpdateVariant, ID: variantID}

	if err := s.validate.Struct(patch); err != nil {
		err = fmt.Errorf("invalid update variant request: %w", err)
		s.mu.Lock()
		s.finish(op, err)
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	current, ok := s.variants[variantID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("variant %s: %w", variantID, ErrNotCached)
	}
	snapshot := cloneVariant(current)

	optimistic := cloneVariant(current)
	applyVariantPatch(optimistic, patch)
	s.variants[variantID] = optimistic
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	updated, err := s.remote.UpdateProductVariant(ctx, productID, variantID, patch)

	s.mu.Lock()
	if err != nil {
		s.variants[variantID] = snapshot
		err = fmt.Errorf("failed to update variant with ID %s: %w", variantID, err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return nil, err
	}

	s.variants[variantID] = cloneVariant(updated)
	s.finish(op, nil)
	result := cloneVariant(s.variants[variantID])
	s.mu.Unlock()

	s.notify()
	return result, nil
}

// DeleteVariant removes the variant from the flat map and the parent's list
// optimistically; a remote failure restores both views exactly, list position
// included.
func (s *Store) DeleteVariant(ctx context.Context, productID, variantID string) error {
	op := Operation{Kind: OpDeleteVariant, ID: variantID}

	s.mu.Lock()
	current, ok := s.variants[variantID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("variant %s: %w", variantID, ErrNotCached)
	}
	snapshot := cloneVariant(current)

	listIdx := -1
	parent, hasParent := s.products[productID]
	if hasParent {
		listIdx = indexOf(parent.VariantIDs, variantID)
		if listIdx >= 0 {
			parent.VariantIDs = append(parent.VariantIDs[:listIdx], parent.VariantIDs[listIdx+1:]...)
		}
		parent.HasVariants = len(parent.VariantIDs) > 0
	}
	delete(s.variants, variantID)
	wasSelected := s.selectedVariantID == variantID
	if wasSelected {
		s.selectedVariantID = ""
	}
	s.begin(op)
	s.mu.Unlock()
	s.notify()

	err := s.remote.DeleteProductVariant(ctx, productID, variantID)

	s.mu.Lock()
	if err != nil {
		s.variants[variantID] = snapshot
		if hasParent {
			if p, ok := s.products[productID]; ok {
				if listIdx >= 0 {
					p.VariantIDs = insertAt(p.VariantIDs, listIdx, variantID)
				}
				p.HasVariants = len(p.VariantIDs) > 0
			}
		}
		if wasSelected {
			s.selectedVariantID = variantID
		}
		err = fmt.Errorf("failed to delete variant with ID %s: %w", variantID, err)
		s.finish(op, err)
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.finish(op, nil)
	s.mu.Unlock()

	s.logger.WithField("variantId", variantID).Debug("Variant deleted")
	s.notify()
	return nil
}
