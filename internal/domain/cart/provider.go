package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/commerce-core/internal/domain/order"
)

// DuplicateCartError indicates a draft cart already exists for the
// (order type, store, customer) triple. Callers should redirect to the
// existing cart instead of creating another.
type DuplicateCartError struct {
	OrderType  string
	StoreID    string
	CustomerID string
}

func (e *DuplicateCartError) Error() string {
	who := e.CustomerID
	if who == "" {
		who = "anonymous"
	}
	return fmt.Sprintf("duplicate cart for type %q, store %q, customer %s", e.OrderType, e.StoreID, who)
}

// cartData is the per-cart metadata cached by the provider, enough to
// answer lookups without reloading orders.
type cartData struct {
	id        string
	orderType string
	storeID   string
}

// Provider maps a customer (or the anonymous session) to their draft cart
// orders: lookup, creation, and finalization. Cart data is cached per
// customer for the duration of a request and invalidated whenever a cart
// is created or finalized.
type Provider struct {
	orders  order.Repository
	session Session
	cache   map[string][]cartData
	now     func() time.Time
}

// NewProvider creates a cart provider. The session tracks anonymous cart
// ids; authenticated customers are resolved through repository queries.
func NewProvider(orders order.Repository, session Session) *Provider {
	return &Provider{
		orders:  orders,
		session: session,
		cache:   make(map[string][]cartData),
		now:     time.Now,
	}
}

// CreateCart creates a draft order for the given type, store and customer
// (empty customer id means the anonymous session). It fails with
// DuplicateCartError when such a cart already exists.
func (p *Provider) CreateCart(ctx context.Context, orderType, storeID, customerID string) (*order.Order, error) {
	existing, err := p.GetCartID(ctx, orderType, storeID, customerID)
	if err != nil {
		return nil, err
	}
	if existing != "" {
		return nil, &DuplicateCartError{OrderType: orderType, StoreID: storeID, CustomerID: customerID}
	}

	o := &order.Order{
		ID:         uuid.New().String(),
		Type:       orderType,
		StoreID:    storeID,
		CustomerID: customerID,
		State:      order.StateDraft,
		CreatedAt:  p.now(),
	}
	if err := p.orders.SaveOrder(ctx, o); err != nil {
		return nil, errors.Wrap(err, "save new cart")
	}
	if o.IsAnonymous() {
		p.session.AddCartID(o.ID)
	}
	p.invalidate(customerID)
	return o, nil
}

// GetCart returns the draft cart for the triple, or nil when none exists.
func (p *Provider) GetCart(ctx context.Context, orderType, storeID, customerID string) (*order.Order, error) {
	id, err := p.GetCartID(ctx, orderType, storeID, customerID)
	if err != nil || id == "" {
		return nil, err
	}
	return p.orders.LoadOrder(ctx, id)
}

// GetCartID returns the id of the draft cart for the triple, or empty.
func (p *Provider) GetCartID(ctx context.Context, orderType, storeID, customerID string) (string, error) {
	data, err := p.loadCartData(ctx, customerID)
	if err != nil {
		return "", err
	}
	for _, d := range data {
		if d.orderType == orderType && d.storeID == storeID {
			return d.id, nil
		}
	}
	return "", nil
}

// GetCarts returns every draft cart belonging to the customer.
func (p *Provider) GetCarts(ctx context.Context, customerID string) ([]*order.Order, error) {
	ids, err := p.GetCartIDs(ctx, customerID)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return p.orders.LoadOrders(ctx, ids)
}

// GetCartIDs returns the ids of every draft cart belonging to the customer.
func (p *Provider) GetCartIDs(ctx context.Context, customerID string) ([]string, error) {
	data, err := p.loadCartData(ctx, customerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(data))
	for i, d := range data {
		ids[i] = d.id
	}
	return ids, nil
}

// AssignCart hands an anonymous cart over to a customer, typically on
// login. An order that already has an owner is never reassigned.
func (p *Provider) AssignCart(ctx context.Context, o *order.Order, customerID string) error {
	if customerID == "" {
		return errors.New("customer id is required")
	}
	if !o.IsAnonymous() {
		return errors.Errorf("cart %s already belongs to customer %s", o.ID, o.CustomerID)
	}
	o.CustomerID = customerID
	if err := p.orders.SaveOrder(ctx, o); err != nil {
		return errors.Wrap(err, "save assigned cart")
	}
	p.session.DeleteCartID(o.ID)
	p.invalidate("")
	p.invalidate(customerID)
	return nil
}

// FinalizeCart flips the order out of the cart state. For anonymous orders
// the id moves from the active to the completed session namespace, so the
// order stays retrievable for a post-checkout page without being resumable.
func (p *Provider) FinalizeCart(ctx context.Context, o *order.Order) error {
	o.State = order.StateCompleted
	o.PlacedAt = p.now()
	if err := p.orders.SaveOrder(ctx, o); err != nil {
		return errors.Wrap(err, "save finalized order")
	}
	if o.IsAnonymous() {
		p.session.MoveToCompleted(o.ID)
	}
	p.invalidate(o.CustomerID)
	return nil
}

func (p *Provider) invalidate(customerID string) {
	delete(p.cache, customerID)
}

// loadCartData resolves the customer's draft carts, consulting the
// request-scoped cache first. Anonymous carts come from the session id
// list; authenticated ones from a repository query (descending id, so the
// newest cart wins a type/store lookup).
func (p *Provider) loadCartData(ctx context.Context, customerID string) ([]cartData, error) {
	if cached, ok := p.cache[customerID]; ok {
		return cached, nil
	}

	var (
		ids []string
		err error
	)
	if customerID == "" {
		ids = p.session.CartIDs()
	} else {
		ids, err = p.orders.QueryIDs(ctx, order.Query{
			CustomerID: customerID,
			State:      order.StateDraft,
		})
		if err != nil {
			return nil, errors.Wrap(err, "query cart ids")
		}
	}
	if len(ids) == 0 {
		p.cache[customerID] = nil
		return nil, nil
	}

	loaded, err := p.orders.LoadOrders(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load carts")
	}
	data := make([]cartData, 0, len(loaded))
	for _, o := range loaded {
		// A session may still reference carts that were finalized or
		// reassigned elsewhere; skip anything no longer a draft cart of
		// this customer.
		if !o.IsDraft() || o.CustomerID != customerID {
			continue
		}
		data = append(data, cartData{id: o.ID, orderType: o.Type, storeID: o.StoreID})
	}
	p.cache[customerID] = data
	return data, nil
}
