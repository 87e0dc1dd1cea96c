package core

// review.go is the opt-in data-quality pass.
//
// Expand never fails on dirty data: unknown skus pass through, malformed
// quantities and prices read as 0. Review is where those degradations become visible
// to the user before an export is trusted.

import (
	"fmt"
	"sort"
	"strings"
)

// Severity ranks a review finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Finding codes.
const (
	FindingEmptySKU      = "REV001"
	FindingUnknownSKU    = "REV002"
	FindingDuplicateLine = "REV003"
	FindingEmptyBundle   = "REV004"
	FindingBadQuantity   = "REV005"
	FindingUnknownTarget = "REV006"
	FindingNonCanonical  = "REV007"
	FindingBadMoney      = "REV008"
)

// maxSKUsInFindingLabel caps the skus listed in a finding message.
const maxSKUsInFindingLabel = 5

// Finding is one data-quality issue.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Count    int      `json:"count"`
	SKUs     []string `json:"skus,omitempty"`
}

// ReviewReport groups findings by severity.
type ReviewReport struct {
	Critical []Finding `json:"critical"`
	Warning  []Finding `json:"warning"`
	Info     []Finding `json:"info"`
}

// Clean reports whether nothing at all was found.
func (r ReviewReport) Clean() bool {
	return len(r.Critical)+len(r.Warning)+len(r.Info) == 0
}

// Findings returns every finding, most severe first.
func (r ReviewReport) Findings() []Finding {
	out := make([]Finding, 0, len(r.Critical)+len(r.Warning)+len(r.Info))
	out = append(out, r.Critical...)
	out = append(out, r.Warning...)
	return append(out, r.Info...)
}

func (r *ReviewReport) add(f Finding) {
	switch f.Severity {
	case SeverityCritical:
		r.Critical = append(r.Critical, f)
	case SeverityWarning:
		r.Warning = append(r.Warning, f)
	default:
		r.Info = append(r.Info, f)
	}
}

// Review inspects an order table against the catalogs. Nothing is modified.
// rules may be nil.
func Review(table OrderTable, products *Catalog, bundles *BundleCatalog, rules *AdditionRuleTable) ReviewReport {
	var report ReviewReport
	pv := products.view()
	bv := bundles.view()

	known := func(sku string) bool {
		if _, ok := pv[sku]; ok {
			return true
		}
		_, ok := bv.bundles[sku]
		return ok
	}

	var emptySKU, badQty, badMoney, duplicates int
	var unknown, nonCanonical []string
	seenUnknown := make(map[string]struct{})
	seenNonCanonical := make(map[string]struct{})
	pairs := make(map[[2]string]int)

	for _, line := range table.Lines {
		sku := strings.TrimSpace(line.SKU)
		pairs[[2]string{strings.TrimSpace(line.OrderID), sku}]++

		if line.Quantity <= 0 {
			badQty++
		}
		if line.badMoney {
			badMoney++
		}
		if IsEmptySKU(sku) {
			emptySKU++
			continue
		}
		if !known(sku) {
			if _, ok := seenUnknown[sku]; !ok {
				seenUnknown[sku] = struct{}{}
				unknown = append(unknown, sku)
			}
		}
		if ValidateSKU(sku) != nil {
			if _, ok := seenNonCanonical[sku]; !ok {
				seenNonCanonical[sku] = struct{}{}
				nonCanonical = append(nonCanonical, sku)
			}
		}
	}
	for _, n := range pairs {
		if n > 1 {
			duplicates += n
		}
	}

	if empty := bundles.emptyList(); len(empty) > 0 {
		report.add(Finding{
			Severity: SeverityCritical,
			Code:     FindingEmptyBundle,
			Message:  fmt.Sprintf("Found %d sets with no components: %s", len(empty), strings.Join(empty, ", ")),
			Count:    len(empty),
			SKUs:     empty,
		})
	}
	if emptySKU > 0 {
		report.add(Finding{
			Severity: SeverityWarning,
			Code:     FindingEmptySKU,
			Message:  fmt.Sprintf("Found %d rows with empty SKUs", emptySKU),
			Count:    emptySKU,
		})
	}
	if len(unknown) > 0 {
		report.add(Finding{
			Severity: SeverityWarning,
			Code:     FindingUnknownSKU,
			Message:  fmt.Sprintf("Found %d SKUs not in master file: %s", len(unknown), skuLabel(unknown)),
			Count:    len(unknown),
			SKUs:     unknown,
		})
	}
	if badQty > 0 {
		report.add(Finding{
			Severity: SeverityWarning,
			Code:     FindingBadQuantity,
			Message:  fmt.Sprintf("Found %d rows with missing or zero quantities", badQty),
			Count:    badQty,
		})
	}
	if badMoney > 0 {
		report.add(Finding{
			Severity: SeverityWarning,
			Code:     FindingBadMoney,
			Message:  fmt.Sprintf("Found %d rows with unreadable prices or discounts, exported as 0", badMoney),
			Count:    badMoney,
		})
	}
	if duplicates > 0 {
		report.add(Finding{
			Severity: SeverityInfo,
			Code:     FindingDuplicateLine,
			Message:  fmt.Sprintf("Found %d duplicate order-SKU combinations", duplicates),
			Count:    duplicates,
		})
	}

	var targets []string
	for _, rule := range rules.view() {
		if !known(rule.TargetSKU) {
			targets = append(targets, rule.TargetSKU)
		}
	}
	if len(targets) > 0 {
		sort.Strings(targets)
		report.add(Finding{
			Severity: SeverityInfo,
			Code:     FindingUnknownTarget,
			Message:  fmt.Sprintf("Found %d addition targets not in master file: %s", len(targets), skuLabel(targets)),
			Count:    len(targets),
			SKUs:     targets,
		})
	}
	if len(nonCanonical) > 0 {
		report.add(Finding{
			Severity: SeverityInfo,
			Code:     FindingNonCanonical,
			Message:  fmt.Sprintf("Found %d SKUs with non-standard characters: %s", len(nonCanonical), skuLabel(nonCanonical)),
			Count:    len(nonCanonical),
			SKUs:     nonCanonical,
		})
	}

	return report
}

func (b *BundleCatalog) emptyList() []string {
	if b == nil {
		return nil
	}
	return b.EmptyBundles()
}

func skuLabel(skus []string) string {
	if len(skus) <= maxSKUsInFindingLabel {
		return strings.Join(skus, ", ")
	}
	return fmt.Sprintf("%s... (+%d more)",
		strings.Join(skus[:maxSKUsInFindingLabel], ", "), len(skus)-maxSKUsInFindingLabel)
}

// Summary is the processing statistics shown after an expansion.
type Summary struct {
	OriginalRows  int `json:"original_rows"`
	ProcessedRows int `json:"processed_rows"`
	UniqueOrders  int `json:"unique_orders"`
	UniqueSKUs    int `json:"unique_skus"`
	AddedRows     int `json:"added_rows"`
}

// Summarize compares an order table with its expansion.
func Summarize(original, expanded OrderTable) Summary {
	skus := make(map[string]struct{})
	for _, line := range expanded.Lines {
		skus[strings.TrimSpace(line.SKU)] = struct{}{}
	}

	s := Summary{
		OriginalRows:  original.Len(),
		ProcessedRows: expanded.Len(),
		UniqueOrders:  len(expanded.OrderIDs()),
		UniqueSKUs:    len(skus),
	}
	if s.ProcessedRows > s.OriginalRows {
		s.AddedRows = s.ProcessedRows - s.OriginalRows
	}
	return s
}
