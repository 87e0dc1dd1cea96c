package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// EmptyBundlePolicy decides what Expand does with a line whose sku was
// declared in the SETS sheet without any usable component.
type EmptyBundlePolicy int

const (
	// EmptyBundlePassThrough emits the line unchanged, like any non-bundle sku.
	EmptyBundlePassThrough EmptyBundlePolicy = iota
	// EmptyBundleDrop removes the line from the output.
	EmptyBundleDrop
)

// String returns the configuration spelling of the policy.
func (p EmptyBundlePolicy) String() string {
	if p == EmptyBundleDrop {
		return "drop"
	}
	return "passthrough"
}

// ParseEmptyBundlePolicy reads "passthrough" or "drop" (case-insensitive).
func ParseEmptyBundlePolicy(s string) (EmptyBundlePolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "passthrough", "pass-through", "keep":
		return EmptyBundlePassThrough, true
	case "drop":
		return EmptyBundleDrop, true
	}
	return EmptyBundlePassThrough, false
}

// Policy is the set of behavior switches of an Engine.
type Policy struct {
	EmptyBundles EmptyBundlePolicy
	// ExpandTargets expands an addition target that is itself a bundle one
	// level deep. Its components are priced 0 and never trigger rules.
	ExpandTargets bool
}

// Option configures an Engine.
type Option func(*Policy)

// WithEmptyBundlePolicy sets how lines referencing an empty bundle are handled.
func WithEmptyBundlePolicy(p EmptyBundlePolicy) Option {
	return func(pol *Policy) { pol.EmptyBundles = p }
}

// WithTargetExpansion enables one-level expansion of bundle addition targets.
func WithTargetExpansion(enabled bool) Option {
	return func(pol *Policy) { pol.ExpandTargets = enabled }
}

// IdentifierChange records one sku filled in by GenerateMissingIdentifiers.
type IdentifierChange struct {
	Name   string
	OldSKU string // EmptySKUMarker for a blank cell, else the placeholder text replaced
	NewSKU string
}

// ExpansionStats counts what one Expand call did.
type ExpansionStats struct {
	InputLines          int
	OutputLines         int
	BundlesExpanded     int
	ComponentsEmitted   int
	AdditionsApplied    int
	PassThroughLines    int
	EmptyBundlesDropped int
}

// Engine turns an order table into a warehouse-ready table: bundle lines are
// replaced by their components and addition rules append companion lines.
//
// The engine owns a working copy of the loaded orders, mutated only by
// GenerateMissingIdentifiers and AddLine. The catalogs are shared and never
// modified. An Engine is not safe for concurrent use.
type Engine struct {
	products *Catalog
	bundles  *BundleCatalog
	rules    *AdditionRuleTable
	policy   Policy

	working OrderTable
	loaded  bool
}

// NewEngine creates an engine over the given catalogs. Any of them may be nil,
// which behaves like an empty catalog.
func NewEngine(products *Catalog, bundles *BundleCatalog, rules *AdditionRuleTable, opts ...Option) *Engine {
	e := &Engine{
		products: products,
		bundles:  bundles,
		rules:    rules,
	}
	for _, opt := range opts {
		opt(&e.policy)
	}
	return e
}

// Policy returns the engine's behavior switches.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Load stores a working copy of table, replacing anything loaded before.
func (e *Engine) Load(table OrderTable) {
	e.working = table.Clone()
	e.loaded = true
}

// Loaded reports whether an order table has been loaded.
func (e *Engine) Loaded() bool {
	return e.loaded
}

// Table returns a copy of the working table.
func (e *Engine) Table() (OrderTable, error) {
	if !e.loaded {
		return OrderTable{}, ErrNotLoaded
	}
	return e.working.Clone(), nil
}

// LineCount returns the number of lines in the working table.
func (e *Engine) LineCount() int {
	return len(e.working.Lines)
}

// Clear drops the working table.
func (e *Engine) Clear() {
	e.working = OrderTable{}
	e.loaded = false
}

// GenerateMissingIdentifiers derives a sku from the line name for every line
// with an empty sku and a non-blank name. The working table is modified in
// place; callers wanting a preview should snapshot with Table first and
// restore with Load.
func (e *Engine) GenerateMissingIdentifiers() (int, []IdentifierChange, error) {
	if !e.loaded {
		return 0, nil, ErrNotLoaded
	}

	var changes []IdentifierChange
	for i := range e.working.Lines {
		line := &e.working.Lines[i]
		if !IsEmptySKU(line.SKU) {
			continue
		}
		name := strings.TrimSpace(line.Name)
		if name == "" {
			continue
		}

		old := strings.TrimSpace(line.SKU)
		if old == "" {
			old = EmptySKUMarker
		}

		line.SKU = GenerateSKU(name)
		changes = append(changes, IdentifierChange{
			Name:   name,
			OldSKU: old,
			NewSKU: line.SKU,
		})
	}

	return len(changes), changes, nil
}

// AddLine appends a manual line to an existing order. Pass-through attributes
// are copied from the first line of that order; price and discount are zero.
func (e *Engine) AddLine(orderID, sku string, quantity int) error {
	if !e.loaded {
		return ErrNotLoaded
	}

	orderID = strings.TrimSpace(orderID)
	sku = strings.TrimSpace(sku)

	for _, tmpl := range e.working.Lines {
		if strings.TrimSpace(tmpl.OrderID) != orderID {
			continue
		}

		line := tmpl.Clone()
		line.SKU = sku
		line.Quantity = quantity
		line.Name = e.products.view().name(sku)
		line.UnitPrice = decimal.Zero
		line.Discount = decimal.Zero
		e.working.Lines = append(e.working.Lines, line)
		return nil
	}

	return &OrderNotFoundError{OrderID: orderID}
}

// Expand returns the expanded table. The working table and the catalogs are
// left untouched, so repeated calls with unchanged inputs return equal tables.
func (e *Engine) Expand() (OrderTable, error) {
	out, _, err := e.ExpandWithStats()
	return out, err
}

// ExpandWithStats is Expand plus counters describing the run.
func (e *Engine) ExpandWithStats() (OrderTable, ExpansionStats, error) {
	if !e.loaded {
		return OrderTable{}, ExpansionStats{}, ErrNotLoaded
	}

	x := expansion{
		products: e.products.view(),
		bundles:  e.bundles.view(),
		rules:    e.rules.view(),
		policy:   e.policy,
	}

	out := OrderTable{
		Columns: append([]string(nil), e.working.Columns...),
		Lines:   make([]OrderLine, 0, len(e.working.Lines)),
	}
	for _, line := range e.working.Lines {
		out.Lines = x.expandLine(out.Lines, line)
	}

	x.stats.InputLines = len(e.working.Lines)
	x.stats.OutputLines = len(out.Lines)
	return out, x.stats, nil
}

// expansion holds the catalog snapshot of one Expand call.
type expansion struct {
	products productView
	bundles  bundleView
	rules    map[string]AdditionRule
	policy   Policy
	stats    ExpansionStats
}

func (x *expansion) expandLine(dst []OrderLine, line OrderLine) []OrderLine {
	sku := strings.TrimSpace(line.SKU)

	switch components, ok := x.bundles.bundles[sku]; {
	case ok:
		x.stats.BundlesExpanded++
		for i, c := range components {
			out := line.Clone()
			out.SKU = c.SKU
			out.Name = x.products.name(c.SKU)
			out.Quantity = line.Quantity * c.Quantity * x.products.quantity(c.SKU)
			if i > 0 {
				out.UnitPrice = decimal.Zero
			}
			dst = append(dst, out)
			x.stats.ComponentsEmitted++
		}
	case x.bundles.isEmpty(sku) && x.policy.EmptyBundles == EmptyBundleDrop:
		x.stats.EmptyBundlesDropped++
	default:
		dst = append(dst, line.Clone())
		x.stats.PassThroughLines++
	}

	rule, ok := x.rules[sku]
	if !ok {
		return dst
	}
	x.stats.AdditionsApplied++
	return x.appendTarget(dst, line, rule)
}

// appendTarget synthesizes the companion line of a triggered rule.
func (x *expansion) appendTarget(dst []OrderLine, trigger OrderLine, rule AdditionRule) []OrderLine {
	quantity := rule.QuantityFor(trigger.Quantity)

	components, isBundle := x.bundles.bundles[rule.TargetSKU]
	if !x.policy.ExpandTargets || !isBundle {
		dst = append(dst, x.zeroPriced(trigger, rule.TargetSKU, quantity))
		return dst
	}

	for _, c := range components {
		dst = append(dst, x.zeroPriced(trigger, c.SKU, quantity*c.Quantity*x.products.quantity(c.SKU)))
		x.stats.ComponentsEmitted++
	}
	return dst
}

func (x *expansion) zeroPriced(tmpl OrderLine, sku string, quantity int) OrderLine {
	out := tmpl.Clone()
	out.SKU = sku
	out.Name = x.products.name(sku)
	out.Quantity = quantity
	out.UnitPrice = decimal.Zero
	out.Discount = decimal.Zero
	return out
}
