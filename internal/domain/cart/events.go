package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xenking/commerce-core/internal/domain/order"
)

// Event is a cart domain notification. Events fire after the cart has been
// mutated and before the order is persisted, so observers see final state
// and may still mutate the order ahead of the single save.
type Event interface {
	EventOrder() *order.Order
}

// ItemAddedEvent fires when an item is added to a cart, whether it was
// merged into an existing line or appended as a new one.
type ItemAddedEvent struct {
	Order *order.Order
	// PurchasedID is the purchasable added, empty for free-form items.
	PurchasedID string
	// Quantity is the quantity the caller asked to add, not the resulting
	// line quantity.
	Quantity decimal.Decimal
	// Item is the resulting (merged or new) order item.
	Item *order.OrderItem
}

// ItemUpdatedEvent fires when a cart item is updated.
type ItemUpdatedEvent struct {
	Order *order.Order
	Item  *order.OrderItem
	// Previous holds the item's last persisted state, nil when it was
	// never persisted.
	Previous *order.OrderItem
}

// ItemRemovedEvent fires when a cart item is removed.
type ItemRemovedEvent struct {
	Order *order.Order
	Item  *order.OrderItem
}

// CartEmptiedEvent fires when a cart is emptied, carrying every removed item.
type CartEmptiedEvent struct {
	Order *order.Order
	Items []*order.OrderItem
}

func (e ItemAddedEvent) EventOrder() *order.Order   { return e.Order }
func (e ItemUpdatedEvent) EventOrder() *order.Order { return e.Order }
func (e ItemRemovedEvent) EventOrder() *order.Order { return e.Order }
func (e CartEmptiedEvent) EventOrder() *order.Order { return e.Order }

// Observer reacts to cart events. Observers run sequentially in
// registration order; an observer error aborts the operation before the
// order save.
type Observer interface {
	Notify(ctx context.Context, event Event) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event Event) error

// Notify calls f.
func (f ObserverFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}
