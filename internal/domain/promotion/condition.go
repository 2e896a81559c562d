package promotion

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
)

// Condition decides whether an order item is eligible for an offer.
type Condition interface {
	Matches(item *order.OrderItem) bool
}

// ConditionSpec names a registered condition plus its configuration.
type ConditionSpec struct {
	ID     string            `json:"id"`
	Config map[string]string `json:"config,omitempty"`
}

// anyOf OR-combines conditions: an item matches when any condition matches.
// An empty set matches every item.
type anyOf []Condition

func (c anyOf) Matches(item *order.OrderItem) bool {
	if len(c) == 0 {
		return true
	}
	for _, cond := range c {
		if cond.Matches(item) {
			return true
		}
	}
	return false
}

// ConditionFactory builds a condition from its configuration.
type ConditionFactory func(config map[string]string) (Condition, error)

var conditionFactories = map[string]ConditionFactory{
	"purchased_ids":  newPurchasedIDCondition,
	"item_types":     newItemTypeCondition,
	"min_unit_price": newMinUnitPriceCondition,
}

// BuildConditions instantiates the given condition specs and OR-combines
// them. Unknown condition ids are an error.
func BuildConditions(specs []ConditionSpec) (Condition, error) {
	conditions := make(anyOf, 0, len(specs))
	for _, spec := range specs {
		factory, ok := conditionFactories[spec.ID]
		if !ok {
			return nil, errors.Errorf("unknown condition %q", spec.ID)
		}
		cond, err := factory(spec.Config)
		if err != nil {
			return nil, errors.Wrapf(err, "build condition %q", spec.ID)
		}
		conditions = append(conditions, cond)
	}
	return conditions, nil
}

// PurchasedIDCondition matches items whose purchasable is in a fixed set.
type PurchasedIDCondition struct {
	IDs map[string]bool
}

func newPurchasedIDCondition(config map[string]string) (Condition, error) {
	raw := config["ids"]
	if raw == "" {
		return nil, errors.New("purchased_ids requires a comma-separated ids value")
	}
	ids := make(map[string]bool)
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids[id] = true
		}
	}
	return &PurchasedIDCondition{IDs: ids}, nil
}

// Matches reports whether the item's purchasable is in the configured set.
func (c *PurchasedIDCondition) Matches(item *order.OrderItem) bool {
	return item.PurchasedID != "" && c.IDs[item.PurchasedID]
}

// ItemTypeCondition matches items of one of the configured types.
type ItemTypeCondition struct {
	Types map[string]bool
}

func newItemTypeCondition(config map[string]string) (Condition, error) {
	raw := config["types"]
	if raw == "" {
		return nil, errors.New("item_types requires a comma-separated types value")
	}
	types := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types[t] = true
		}
	}
	return &ItemTypeCondition{Types: types}, nil
}

// Matches reports whether the item's type is in the configured set.
func (c *ItemTypeCondition) Matches(item *order.OrderItem) bool {
	return c.Types[item.Type]
}

// MinUnitPriceCondition matches items whose unit price is at least the
// configured amount. Items in a different currency never match.
type MinUnitPriceCondition struct {
	Min money.Money
}

func newMinUnitPriceCondition(config map[string]string) (Condition, error) {
	min, err := money.New(config["amount"], config["currency"])
	if err != nil {
		return nil, err
	}
	return &MinUnitPriceCondition{Min: min}, nil
}

// Matches reports whether the item's unit price reaches the minimum.
func (c *MinUnitPriceCondition) Matches(item *order.OrderItem) bool {
	ok, err := item.UnitPrice.GreaterThanOrEqual(c.Min)
	return err == nil && ok
}
