package core

import (
	"sort"
	"strings"
)

// RuleKind is the quantity policy of an addition rule.
type RuleKind int

const (
	// RuleFixed always adds the rule's fixed quantity.
	RuleFixed RuleKind = iota
	// RuleMatched adds as many units as the triggering line ordered.
	RuleMatched
)

// String returns the sheet spelling of the kind.
func (k RuleKind) String() string {
	if k == RuleMatched {
		return "MATCHED"
	}
	return "FIXED"
}

// ParseRuleKind reads the TYPE cell of an addition rule. Matching is
// case-insensitive; anything other than MATCHED, including blank, is FIXED.
func ParseRuleKind(s string) RuleKind {
	switch strings.ToUpper(CleanCell(s)) {
	case "MATCHED":
		return RuleMatched
	default:
		return RuleFixed
	}
}

// AdditionRule adds a companion product whenever TriggerSKU is ordered.
type AdditionRule struct {
	TriggerSKU    string
	TargetSKU     string
	Kind          RuleKind
	FixedQuantity int // Used only by RuleFixed, always >= 1
}

// QuantityFor returns the quantity to add for a triggering line of triggerQty units.
func (r AdditionRule) QuantityFor(triggerQty int) int {
	if r.Kind == RuleMatched {
		return triggerQty
	}
	return r.FixedQuantity
}

// AdditionRuleTable maps a trigger sku to its rule.
// Duplicate triggers keep the LAST row.
type AdditionRuleTable struct {
	rules map[string]AdditionRule
}

// NewAdditionRuleTable creates an empty rule table.
func NewAdditionRuleTable() *AdditionRuleTable {
	return &AdditionRuleTable{rules: make(map[string]AdditionRule)}
}

// Load replaces the table with the rows of an ADDITION sheet.
// Rows with a blank trigger or target are skipped. A missing or malformed
// quantity counts as 1.
func (t *AdditionRuleTable) Load(rs RecordSet) error {
	idx, err := ValidateHeaders(SheetAdditions, rs.Header, AdditionFields)
	if err != nil {
		return err
	}

	rules := make(map[string]AdditionRule, len(rs.Rows))
	for _, row := range rs.Rows {
		trigger := idx.Cell(row, FieldTriggerSKU)
		target := idx.Cell(row, FieldTargetSKU)
		if IsEmptySKU(trigger) || IsEmptySKU(target) {
			continue
		}

		rules[trigger] = AdditionRule{
			TriggerSKU:    trigger,
			TargetSKU:     target,
			Kind:          ParseRuleKind(idx.Cell(row, FieldRuleKind)),
			FixedQuantity: ParsePositiveCount(idx.Cell(row, FieldRuleQuantity)),
		}
	}

	t.rules = rules
	return nil
}

// RuleFor returns the rule triggered by sku.
func (t *AdditionRuleTable) RuleFor(sku string) (AdditionRule, bool) {
	if t == nil {
		return AdditionRule{}, false
	}
	r, ok := t.rules[strings.TrimSpace(sku)]
	return r, ok
}

// HasRule reports whether sku triggers an addition.
func (t *AdditionRuleTable) HasRule(sku string) bool {
	_, ok := t.RuleFor(sku)
	return ok
}

// Triggers returns all trigger skus, sorted.
func (t *AdditionRuleTable) Triggers() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.rules))
	for sku := range t.rules {
		out = append(out, sku)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of rules.
func (t *AdditionRuleTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Clear removes all rules.
func (t *AdditionRuleTable) Clear() {
	t.rules = make(map[string]AdditionRule)
}

func (t *AdditionRuleTable) view() map[string]AdditionRule {
	if t == nil {
		return nil
	}
	return t.rules
}
