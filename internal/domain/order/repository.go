package order

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested order or order item does not
// exist.
var ErrNotFound = errors.New("order not found")

// Query filters order lookups. Zero-valued fields are ignored.
type Query struct {
	Type       string
	StoreID    string
	CustomerID string
	State      string
}

// Repository is the persistence collaborator for orders and their items.
// The engine treats its calls as synchronous and never retries them;
// storage errors propagate to the caller untouched.
type Repository interface {
	LoadOrder(ctx context.Context, id string) (*Order, error)
	LoadOrders(ctx context.Context, ids []string) ([]*Order, error)
	SaveOrder(ctx context.Context, o *Order) error
	DeleteOrder(ctx context.Context, o *Order) error
	LoadItem(ctx context.Context, id string) (*OrderItem, error)
	SaveItem(ctx context.Context, item *OrderItem) error
	DeleteItem(ctx context.Context, item *OrderItem) error
	// QueryIDs returns matching order ids sorted by descending id, so the
	// most recently created order comes first.
	QueryIDs(ctx context.Context, q Query) ([]string, error)
}
