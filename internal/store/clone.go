package store

import (
	"github.com/shopspring/decimal"

	"product-admin/internal/models"
)

// cloneProduct deep-copies a product so snapshots are immune to later cache
// mutations. Rollback correctness depends on this.
func cloneProduct(p *models.Product) *models.Product {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Barcode = cloneString(p.Barcode)
	cp.Brand = cloneString(p.Brand)
	cp.Description = cloneString(p.Description)
	cp.OfflineID = cloneString(p.OfflineID)
	cp.CostPrice = cloneDecimal(p.CostPrice)
	cp.SalePrice = cloneDecimal(p.SalePrice)
	cp.MaxStock = cloneInt(p.MaxStock)
	if p.VariantIDs != nil {
		cp.VariantIDs = make([]string, len(p.VariantIDs))
		copy(cp.VariantIDs, p.VariantIDs)
	}
	if p.Variants != nil {
		cp.Variants = make([]*models.Variant, len(p.Variants))
		for i, v := range p.Variants {
			cp.Variants[i] = cloneVariant(v)
		}
	}
	if p.Locations != nil {
		cp.Locations = make(map[string]int, len(p.Locations))
		for k, v := range p.Locations {
			cp.Locations[k] = v
		}
	}
	return &cp
}

func cloneVariant(v *models.Variant) *models.Variant {
	if v == nil {
		return nil
	}
	cv := *v
	cv.Barcode = cloneString(v.Barcode)
	cv.Price = cloneDecimal(v.Price)
	cv.Stock = cloneInt(v.Stock)
	return &cv
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// applyProductPatch copies non-nil patch fields onto the product. The id is
// never part of a patch.
func applyProductPatch(p *models.Product, patch *models.UpdateProductRequest) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Barcode != nil {
		p.Barcode = cloneString(patch.Barcode)
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Brand != nil {
		p.Brand = cloneString(patch.Brand)
	}
	if patch.Description != nil {
		p.Description = cloneString(patch.Description)
	}
	if patch.CostPrice != nil {
		p.CostPrice = cloneDecimal(patch.CostPrice)
	}
	if patch.RetailPrice != nil {
		p.RetailPrice = *patch.RetailPrice
	}
	if patch.SalePrice != nil {
		p.SalePrice = cloneDecimal(patch.SalePrice)
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.MinStock != nil {
		p.MinStock = *patch.MinStock
	}
	if patch.MaxStock != nil {
		p.MaxStock = cloneInt(patch.MaxStock)
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.HasVariants != nil {
		p.HasVariants = *patch.HasVariants
	}
}

// applyVariantPatch copies non-nil patch fields onto the variant.
func applyVariantPatch(v *models.Variant, patch *models.UpdateVariantRequest) {
	if patch.SKU != nil {
		v.SKU = *patch.SKU
	}
	if patch.Barcode != nil {
		v.Barcode = cloneString(patch.Barcode)
	}
	if patch.Name != nil {
		v.Name = *patch.Name
	}
	if patch.Price != nil {
		v.Price = cloneDecimal(patch.Price)
	}
	if patch.Stock != nil {
		v.Stock = cloneInt(patch.Stock)
	}
	if patch.IsActive != nil {
		v.IsActive = *patch.IsActive
	}
}
