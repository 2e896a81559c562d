// Package product defines the purchasable catalog consumed by the cart
// engine. The pricing core only reads purchasables; catalog management is
// an outer-layer concern.
package product

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested purchasable does not exist.
var ErrNotFound = errors.New("purchasable not found")

// Purchasable is a catalog entry that can be placed into a cart. Price is a
// plain decimal string in CurrencyCode, never a float.
type Purchasable struct {
	ID           string
	Type         string
	SKU          string
	Title        string
	Price        string
	CurrencyCode string
}

// Repository defines read operations for the purchasable catalog.
type Repository interface {
	List(ctx context.Context) ([]Purchasable, error)
	GetByID(ctx context.Context, id string) (*Purchasable, error)
	GetByIDs(ctx context.Context, ids []string) ([]Purchasable, error)
}
