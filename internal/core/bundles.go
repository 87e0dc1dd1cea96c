package core

import "strings"

// BundleComponent is one component row of a bundle.
type BundleComponent struct {
	SKU      string
	Quantity int // Units of this component per bundle, always >= 1
}

// BundleCatalog maps a bundle sku to its ordered components.
// Component order is the sheet row order; the first component carries the
// bundle's price when an order line is expanded.
type BundleCatalog struct {
	bundles map[string][]BundleComponent
	names   map[string]string
	order   []string
	empty   []string
}

// NewBundleCatalog creates an empty bundle catalog.
func NewBundleCatalog() *BundleCatalog {
	return &BundleCatalog{
		bundles: make(map[string][]BundleComponent),
		names:   make(map[string]string),
	}
}

// Load replaces the catalog with the rows of a SETS sheet.
//
// Rows are grouped by bundle sku in first-appearance order. Rows with a
// blank component sku are skipped, and a bundle left with no components is
// not stored at all (it is only remembered for EmptyBundles). When the
// quantity column is absent every component counts once.
func (b *BundleCatalog) Load(rs RecordSet) error {
	idx, err := ValidateHeaders(SheetBundles, rs.Header, BundleFields)
	if err != nil {
		return err
	}
	hasQuantity := idx.Has(FieldComponentQuantity)

	grouped := make(map[string][]BundleComponent)
	names := make(map[string]string)
	var seen []string

	for _, row := range rs.Rows {
		bundleSKU := idx.Cell(row, FieldBundleSKU)
		if IsEmptySKU(bundleSKU) {
			continue
		}
		if _, ok := grouped[bundleSKU]; !ok {
			grouped[bundleSKU] = nil
			names[bundleSKU] = idx.Cell(row, FieldBundleName)
			seen = append(seen, bundleSKU)
		}

		componentSKU := idx.Cell(row, FieldComponentSKU)
		if IsEmptySKU(componentSKU) {
			continue
		}

		quantity := 1
		if hasQuantity {
			quantity = ParsePositiveCount(idx.Cell(row, FieldComponentQuantity))
		}

		grouped[bundleSKU] = append(grouped[bundleSKU], BundleComponent{
			SKU:      componentSKU,
			Quantity: quantity,
		})
	}

	bundles := make(map[string][]BundleComponent, len(grouped))
	var order, empty []string
	for _, sku := range seen {
		components := grouped[sku]
		if len(components) == 0 {
			empty = append(empty, sku)
			delete(names, sku)
			continue
		}
		bundles[sku] = components
		order = append(order, sku)
	}

	b.bundles = bundles
	b.names = names
	b.order = order
	b.empty = empty
	return nil
}

// IsBundle reports whether sku is a bundle with at least one component.
func (b *BundleCatalog) IsBundle(sku string) bool {
	_, ok := b.bundles[strings.TrimSpace(sku)]
	return ok
}

// Components returns a copy of the ordered components of a bundle.
func (b *BundleCatalog) Components(sku string) ([]BundleComponent, bool) {
	components, ok := b.bundles[strings.TrimSpace(sku)]
	if !ok {
		return nil, false
	}
	return append([]BundleComponent(nil), components...), true
}

// ComponentCount returns the number of components, or 0 for an unknown bundle.
func (b *BundleCatalog) ComponentCount(sku string) int {
	return len(b.bundles[strings.TrimSpace(sku)])
}

// BundleName returns the display name from the SETS sheet.
func (b *BundleCatalog) BundleName(sku string) string {
	return b.names[strings.TrimSpace(sku)]
}

// IsEmptyBundle reports whether sku appeared in the sheet without any usable component.
func (b *BundleCatalog) IsEmptyBundle(sku string) bool {
	sku = strings.TrimSpace(sku)
	for _, e := range b.empty {
		if e == sku {
			return true
		}
	}
	return false
}

// EmptyBundles returns the bundle skus dropped for having no components.
func (b *BundleCatalog) EmptyBundles() []string {
	return append([]string(nil), b.empty...)
}

// SKUs returns all bundle skus in sheet order.
func (b *BundleCatalog) SKUs() []string {
	return append([]string(nil), b.order...)
}

// Len returns the number of stored bundles.
func (b *BundleCatalog) Len() int {
	return len(b.bundles)
}

// Clear removes all bundles.
func (b *BundleCatalog) Clear() {
	b.bundles = make(map[string][]BundleComponent)
	b.names = make(map[string]string)
	b.order = nil
	b.empty = nil
}

// bundleView is the snapshot Expand works from.
type bundleView struct {
	bundles map[string][]BundleComponent
	empty   map[string]struct{}
}

func (b *BundleCatalog) view() bundleView {
	v := bundleView{empty: make(map[string]struct{})}
	if b == nil {
		return v
	}
	v.bundles = b.bundles
	for _, sku := range b.empty {
		v.empty[sku] = struct{}{}
	}
	return v
}

func (v bundleView) isEmpty(sku string) bool {
	_, ok := v.empty[sku]
	return ok
}
