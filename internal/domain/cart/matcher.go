// Package cart implements the cart side of the engine: the item matcher,
// the mutation manager with its observer notifications, and the
// cart/session identity provider.
package cart

import "github.com/xenking/commerce-core/internal/domain/order"

// Built-in comparison field names understood by the matcher.
const (
	FieldType        = "type"
	FieldPurchasedID = "purchased_id"
)

// ComparisonFieldsFunc lets subscribers extend the comparison field set for
// a candidate item before matching, the way checkout extensions register
// extra line-item options (sizes, engravings) that must keep lines apart.
type ComparisonFieldsFunc func(candidate *order.OrderItem) []string

// ItemMatcher finds existing order items equivalent to a candidate so their
// quantities can be merged instead of duplicating lines.
type ItemMatcher struct {
	fieldFuncs []ComparisonFieldsFunc
}

// NewItemMatcher creates a matcher with the default comparison field set
// (item type and purchased entity).
func NewItemMatcher() *ItemMatcher {
	return &ItemMatcher{}
}

// AddComparisonFields registers a callback contributing extra comparison
// fields for candidates. Callbacks run on every match in registration order.
func (m *ItemMatcher) AddComparisonFields(fn ComparisonFieldsFunc) {
	m.fieldFuncs = append(m.fieldFuncs, fn)
}

// Match returns the first existing item equivalent to the candidate, or nil.
func (m *ItemMatcher) Match(candidate *order.OrderItem, items []*order.OrderItem) *order.OrderItem {
	matches := m.MatchAll(candidate, items)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// MatchAll returns every existing item equivalent to the candidate, in the
// order the items were given. A candidate without a purchased entity never
// matches: free-form items are unmergeable by design.
func (m *ItemMatcher) MatchAll(candidate *order.OrderItem, items []*order.OrderItem) []*order.OrderItem {
	if candidate.PurchasedID == "" {
		return nil
	}

	fields := m.comparisonFields(candidate)

	var matches []*order.OrderItem
	for _, item := range items {
		if item.ID == candidate.ID {
			continue
		}
		if itemMatchesFields(candidate, item, fields) {
			matches = append(matches, item)
		}
	}
	return matches
}

func (m *ItemMatcher) comparisonFields(candidate *order.OrderItem) []string {
	fields := []string{FieldType, FieldPurchasedID}
	seen := map[string]bool{FieldType: true, FieldPurchasedID: true}
	for _, fn := range m.fieldFuncs {
		for _, f := range fn(candidate) {
			if !seen[f] {
				seen[f] = true
				fields = append(fields, f)
			}
		}
	}
	return fields
}

func itemMatchesFields(candidate, item *order.OrderItem, fields []string) bool {
	for _, field := range fields {
		candidateValue, ok := fieldValue(candidate, field)
		if !ok {
			// Field absent on the candidate: not part of this comparison.
			continue
		}
		itemValue, ok := fieldValue(item, field)
		if !ok || itemValue != candidateValue {
			return false
		}
	}
	return true
}

func fieldValue(item *order.OrderItem, field string) (string, bool) {
	switch field {
	case FieldType:
		return item.Type, true
	case FieldPurchasedID:
		return item.PurchasedID, item.PurchasedID != ""
	default:
		v, ok := item.Attributes[field]
		return v, ok
	}
}
