// Package core provides the catalogs and the order-line expansion engine.
//
// This package is the heart of the decoder, containing all domain logic
// independent of any UI, file format or storage. It can be used by web
// handlers, CLI tools, or tests without modification. It never logs.
//
// # Architecture
//
// The package is organized around four collaborators:
//
//   - [Catalog]: sku to product name and physical quantity (PRODUCTS sheet).
//   - [BundleCatalog]: bundle sku to its ordered components (SETS sheet).
//   - [AdditionRuleTable]: trigger sku to a companion product (ADDITION sheet).
//   - [Engine]: owns a working copy of the orders and expands it.
//
// Inputs arrive as [RecordSet] values that a loader has already parsed;
// outputs go back out the same way through [OrderTable.Records].
//
// # Expansion
//
//	products := core.NewCatalog()
//	bundles := core.NewBundleCatalog()
//	rules := core.NewAdditionRuleTable()
//	// Load each from its sheet, then:
//	engine := core.NewEngine(products, bundles, rules)
//	engine.Load(orders)
//	expanded, err := engine.Expand()
//
// A bundle line becomes one line per component. Component quantity is the
// ordered quantity times the quantity in the bundle times the component's
// physical quantity. The first component carries the bundle price and the
// rest are priced 0, so the order total is unchanged. After the line (or its
// components) an addition rule on the ORIGINAL sku may append one companion
// line priced 0. Synthesized lines never trigger further rules.
//
// # Duplicate Handling
//
// The catalogs resolve duplicate keys differently and tests pin both:
//
//   - Catalog: first row wins.
//   - AdditionRuleTable: last row wins.
//
// # Degraded Input
//
// Lookups never fail. An unknown sku passes through unchanged, an unknown
// component is named after its sku with physical quantity 1, and malformed
// numeric cells fall back to defaults. Only a missing required column
// ([SchemaError]), an unknown order ([OrderNotFoundError]) and use before
// load ([ErrNotLoaded]) are errors. [Review] reports the rest.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - MST001-MST003: Master workbook errors
//   - ORD001-ORD006: Order, engine and identifier preview errors
//   - VAL002-VAL007: Validation errors (formats, missing columns)
//   - FILE001-FILE006: File errors (size, encoding, format)
//   - DB004-DB006: Run history database errors
//   - REQ001-REQ003: Request errors (timeouts, busy upload slots)
package core
