package core

import "strings"

// Product is one row of the PRODUCTS sheet.
type Product struct {
	SKU              string
	Name             string
	PhysicalQuantity int // Physical units per catalog unit, always >= 1
}

// Catalog maps a sku to its product details.
//
// Duplicate skus keep the FIRST occurrence. AdditionRuleTable keeps the
// last one; the two policies are deliberately different.
type Catalog struct {
	products map[string]Product
	order    []string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{products: make(map[string]Product)}
}

// Load replaces the catalog with the rows of a PRODUCTS sheet.
// Returns a *SchemaError if a required column is missing; the previous
// contents are kept in that case.
func (c *Catalog) Load(rs RecordSet) error {
	idx, err := ValidateHeaders(SheetProducts, rs.Header, ProductFields)
	if err != nil {
		return err
	}

	products := make(map[string]Product, len(rs.Rows))
	order := make([]string, 0, len(rs.Rows))

	for _, row := range rs.Rows {
		sku := idx.Cell(row, FieldProductSKU)
		if IsEmptySKU(sku) {
			continue
		}
		if _, dup := products[sku]; dup {
			continue
		}
		products[sku] = Product{
			SKU:              sku,
			Name:             idx.Cell(row, FieldProductName),
			PhysicalQuantity: ParsePositiveCount(idx.Cell(row, FieldProductQuantity)),
		}
		order = append(order, sku)
	}

	c.products = products
	c.order = order
	return nil
}

// Lookup returns the product for sku.
func (c *Catalog) Lookup(sku string) (Product, bool) {
	p, ok := c.products[strings.TrimSpace(sku)]
	return p, ok
}

// NameOrFallback returns the product name, or fallback when sku is unknown.
func (c *Catalog) NameOrFallback(sku, fallback string) string {
	if p, ok := c.Lookup(sku); ok {
		return p.Name
	}
	return fallback
}

// QuantityOrFallback returns the physical quantity, or fallback when sku is unknown.
func (c *Catalog) QuantityOrFallback(sku string, fallback int) int {
	if p, ok := c.Lookup(sku); ok {
		return p.PhysicalQuantity
	}
	return fallback
}

// Contains reports whether sku is in the catalog.
func (c *Catalog) Contains(sku string) bool {
	_, ok := c.Lookup(sku)
	return ok
}

// SKUs returns all skus in sheet order.
func (c *Catalog) SKUs() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Clear removes all products.
func (c *Catalog) Clear() {
	c.products = make(map[string]Product)
	c.order = nil
}

// productView is an immutable view of the catalog taken by Expand.
// Load swaps in a new map instead of mutating the old one, so holding the
// map reference is a consistent snapshot.
type productView map[string]Product

func (c *Catalog) view() productView {
	if c == nil {
		return nil
	}
	return productView(c.products)
}

func (v productView) name(sku string) string {
	if p, ok := v[sku]; ok {
		return p.Name
	}
	return sku
}

func (v productView) quantity(sku string) int {
	if p, ok := v[sku]; ok {
		return p.PhysicalQuantity
	}
	return 1
}
