package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
	"github.com/xenking/commerce-core/internal/domain/product"
)

// Manager mutates cart orders: add, update, remove, empty. Every operation
// resets checkout progress, notifies observers with the mutated state, and
// then persists the order (unless the caller batches with saveCart=false,
// in which case the caller owns the single save at the end; per-operation
// notifications still fire).
//
// The manager assumes single-threaded use per order. Callers integrating it
// into a concurrent server must serialize mutations per order id.
type Manager struct {
	orders    order.Repository
	matcher   *ItemMatcher
	observers []Observer
}

// NewManager creates a cart manager.
func NewManager(orders order.Repository, matcher *ItemMatcher, observers ...Observer) *Manager {
	return &Manager{orders: orders, matcher: matcher, observers: observers}
}

// AddObserver registers an additional cart event observer.
func (m *Manager) AddObserver(obs Observer) {
	m.observers = append(m.observers, obs)
}

func (m *Manager) notify(ctx context.Context, event Event) error {
	for _, obs := range m.observers {
		if err := obs.Notify(ctx, event); err != nil {
			return errors.Wrap(err, "notify cart observer")
		}
	}
	return nil
}

// AddPurchasable builds an order item for the purchasable at the given
// decimal quantity and adds it to the cart via AddItem.
func (m *Manager) AddPurchasable(ctx context.Context, o *order.Order, p *product.Purchasable, quantity string, combine, saveCart bool) (*order.OrderItem, error) {
	unitPrice, err := money.New(p.Price, p.CurrencyCode)
	if err != nil {
		return nil, errors.Wrapf(err, "purchasable %s price", p.ID)
	}
	item, err := order.NewItem(p.Type, p.ID, p.Title, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	return m.AddItem(ctx, o, item, combine, saveCart)
}

// AddItem adds the item to the order. With combine=true the matcher looks
// for an equivalent existing line; on a match the quantities are merged and
// the matched item is persisted instead of the new one. The resulting
// (merged or new) item is returned.
func (m *Manager) AddItem(ctx context.Context, o *order.Order, item *order.OrderItem, combine, saveCart bool) (*order.OrderItem, error) {
	quantity := item.Quantity
	resulting := item

	if combine {
		if matched := m.matcher.Match(item, o.Items); matched != nil {
			matched.SetQuantity(matched.Quantity.Add(quantity))
			resulting = matched
		}
	}
	if resulting == item {
		o.AppendItem(item)
	}
	if err := m.orders.SaveItem(ctx, resulting); err != nil {
		return nil, errors.Wrap(err, "save order item")
	}

	o.ResetCheckoutStep()
	err := m.notify(ctx, ItemAddedEvent{
		Order:       o,
		PurchasedID: item.PurchasedID,
		Quantity:    quantity,
		Item:        resulting,
	})
	if err != nil {
		return nil, err
	}
	if saveCart {
		if err := m.orders.SaveOrder(ctx, o); err != nil {
			return nil, errors.Wrap(err, "save order")
		}
	}
	return resulting, nil
}

// UpdateItem persists the item's new state and notifies observers, passing
// along the previously persisted state for comparison.
func (m *Manager) UpdateItem(ctx context.Context, o *order.Order, item *order.OrderItem, saveCart bool) error {
	previous, err := m.orders.LoadItem(ctx, item.ID)
	if err != nil && !errors.Is(err, order.ErrNotFound) {
		return errors.Wrap(err, "load previous item state")
	}
	if err := m.orders.SaveItem(ctx, item); err != nil {
		return errors.Wrap(err, "save order item")
	}

	if err := m.notify(ctx, ItemUpdatedEvent{Order: o, Item: item, Previous: previous}); err != nil {
		return err
	}
	o.ResetCheckoutStep()
	if saveCart {
		if err := m.orders.SaveOrder(ctx, o); err != nil {
			return errors.Wrap(err, "save order")
		}
	}
	return nil
}

// UpdateItemQuantity sets the quantity of a cart item and runs UpdateItem.
// A zero quantity removes the item instead.
func (m *Manager) UpdateItemQuantity(ctx context.Context, o *order.Order, item *order.OrderItem, quantity decimal.Decimal, saveCart bool) error {
	if quantity.IsZero() {
		return m.RemoveItem(ctx, o, item, saveCart)
	}
	item.SetQuantity(quantity)
	return m.UpdateItem(ctx, o, item, saveCart)
}

// RemoveItem deletes the item from storage and from the order's item list.
// Both must happen together or the cart would hold stale item references.
func (m *Manager) RemoveItem(ctx context.Context, o *order.Order, item *order.OrderItem, saveCart bool) error {
	if err := m.orders.DeleteItem(ctx, item); err != nil {
		return errors.Wrap(err, "delete order item")
	}
	o.RemoveItem(item.ID)

	if err := m.notify(ctx, ItemRemovedEvent{Order: o, Item: item}); err != nil {
		return err
	}
	o.ResetCheckoutStep()
	if saveCart {
		if err := m.orders.SaveOrder(ctx, o); err != nil {
			return errors.Wrap(err, "save order")
		}
	}
	return nil
}

// Empty deletes every item and clears the order's item and adjustment
// lists. Adjustments are item-contingent: an empty order carries none.
func (m *Manager) Empty(ctx context.Context, o *order.Order, saveCart bool) error {
	removed := make([]*order.OrderItem, len(o.Items))
	copy(removed, o.Items)

	for _, item := range removed {
		if err := m.orders.DeleteItem(ctx, item); err != nil {
			return errors.Wrapf(err, "delete order item %s", item.ID)
		}
	}
	o.Items = nil
	o.Adjustments = nil

	if err := m.notify(ctx, CartEmptiedEvent{Order: o, Items: removed}); err != nil {
		return err
	}
	o.ResetCheckoutStep()
	if saveCart {
		if err := m.orders.SaveOrder(ctx, o); err != nil {
			return errors.Wrap(err, "save order")
		}
	}
	return nil
}
