package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
)

const (
	upsertOrderSQL = `INSERT INTO orders (id, type, store_id, customer_id, state, checkout_step,
			adjustments, coupon_codes, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			checkout_step = EXCLUDED.checkout_step,
			adjustments = EXCLUDED.adjustments,
			coupon_codes = EXCLUDED.coupon_codes,
			placed_at = EXCLUDED.placed_at`

	getOrdersSQL = `SELECT id, type, store_id, customer_id, state, checkout_step,
			adjustments, coupon_codes, placed_at, created_at
		FROM orders WHERE id = ANY($1)`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	upsertItemSQL = `INSERT INTO order_items (id, order_id, type, purchased_id, title,
			quantity, unit_price, currency_code, adjustments, attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			unit_price = EXCLUDED.unit_price,
			currency_code = EXCLUDED.currency_code,
			adjustments = EXCLUDED.adjustments,
			attributes = EXCLUDED.attributes`

	getItemSQL = `SELECT id, order_id, type, purchased_id, title,
			quantity, unit_price, currency_code, adjustments, attributes
		FROM order_items WHERE id = $1`

	getOrderItemsSQL = `SELECT id, order_id, type, purchased_id, title,
			quantity, unit_price, currency_code, adjustments, attributes
		FROM order_items WHERE order_id = ANY($1) ORDER BY position`

	deleteItemSQL = `DELETE FROM order_items WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Orders
// and items live in separate tables; adjustment lists are stored as JSONB.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// SaveOrder upserts the order row and all of its items in one transaction.
// Items are re-upserted because repricing rewrites adjustments across every
// line, not just the one a mutation touched.
func (r *OrderRepository) SaveOrder(ctx context.Context, o *order.Order) error {
	adjustments, err := json.Marshal(o.Adjustments)
	if err != nil {
		return fmt.Errorf("marshaling adjustments for order %q: %w", o.ID, err)
	}
	var placedAt *time.Time
	if !o.PlacedAt.IsZero() {
		placedAt = &o.PlacedAt
	}

	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, upsertOrderSQL,
			o.ID, o.Type, o.StoreID, o.CustomerID, o.State, o.CheckoutStep,
			adjustments, o.CouponCodes, placedAt,
		)
		if err != nil {
			return err
		}
		for _, item := range o.Items {
			if err := upsertItem(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving order %q: %w", o.ID, err)
	}
	return nil
}

// LoadOrder returns the order with its items, or order.ErrNotFound.
func (r *OrderRepository) LoadOrder(ctx context.Context, id string) (*order.Order, error) {
	orders, err := r.LoadOrders(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, order.ErrNotFound
	}
	return orders[0], nil
}

// LoadOrders returns the orders matching the given ids, in the ids' order,
// silently skipping ids that do not exist.
func (r *OrderRepository) LoadOrders(ctx context.Context, ids []string) ([]*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrdersSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("loading orders: %w", err)
	}
	loaded, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("loading orders: %w", err)
	}
	if len(loaded) == 0 {
		return nil, nil
	}

	byID := make(map[string]*order.Order, len(loaded))
	for _, o := range loaded {
		byID[o.ID] = o
	}
	if err := r.attachItems(ctx, byID, ids); err != nil {
		return nil, err
	}

	out := make([]*order.Order, 0, len(loaded))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders map[string]*order.Order, ids []string) error {
	rows, err := r.pool.Query(ctx, getOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("loading order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return fmt.Errorf("loading order items: %w", err)
	}
	for _, item := range items {
		if o, ok := orders[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return nil
}

// DeleteOrder removes the order; its items go with it via cascade.
func (r *OrderRepository) DeleteOrder(ctx context.Context, o *order.Order) error {
	_, err := r.pool.Exec(ctx, deleteOrderSQL, o.ID)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", o.ID, err)
	}
	return nil
}

// SaveItem upserts a single order item.
func (r *OrderRepository) SaveItem(ctx context.Context, item *order.OrderItem) error {
	if err := upsertItem(ctx, r.pool, item); err != nil {
		return fmt.Errorf("saving item %q: %w", item.ID, err)
	}
	return nil
}

// execer is satisfied by both pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsertItem(ctx context.Context, db execer, item *order.OrderItem) error {
	adjustments, err := json.Marshal(item.Adjustments)
	if err != nil {
		return fmt.Errorf("marshaling adjustments: %w", err)
	}
	attributes, err := json.Marshal(item.Attributes)
	if err != nil {
		return fmt.Errorf("marshaling attributes: %w", err)
	}

	_, err = db.Exec(ctx, upsertItemSQL,
		item.ID, item.OrderID, item.Type, item.PurchasedID, item.Title,
		item.Quantity, item.UnitPrice.Decimal(), item.UnitPrice.CurrencyCode(),
		adjustments, attributes,
	)
	return err
}

// LoadItem returns a single order item, or order.ErrNotFound.
func (r *OrderRepository) LoadItem(ctx context.Context, id string) (*order.OrderItem, error) {
	rows, err := r.pool.Query(ctx, getItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("loading item %q: %w", id, err)
	}
	item, err := pgx.CollectExactlyOneRow(rows, scanOrderItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("loading item %q: %w", id, err)
	}
	return item, nil
}

// DeleteItem removes a single order item.
func (r *OrderRepository) DeleteItem(ctx context.Context, item *order.OrderItem) error {
	_, err := r.pool.Exec(ctx, deleteItemSQL, item.ID)
	if err != nil {
		return fmt.Errorf("deleting item %q: %w", item.ID, err)
	}
	return nil
}

// QueryIDs returns order ids matching the filter, newest first.
func (r *OrderRepository) QueryIDs(ctx context.Context, q order.Query) ([]string, error) {
	var (
		conds []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("type", q.Type)
	add("store_id", q.StoreID)
	add("customer_id", q.CustomerID)
	add("state", q.State)

	query := "SELECT id FROM orders"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying order ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("querying order ids: %w", err)
	}
	return ids, nil
}

func scanOrder(row pgx.CollectableRow) (*order.Order, error) {
	var (
		o           order.Order
		adjustments []byte
		placedAt    *time.Time
	)
	err := row.Scan(
		&o.ID, &o.Type, &o.StoreID, &o.CustomerID, &o.State, &o.CheckoutStep,
		&adjustments, &o.CouponCodes, &placedAt, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(adjustments, &o.Adjustments); err != nil {
		return nil, fmt.Errorf("unmarshaling adjustments for order %q: %w", o.ID, err)
	}
	if placedAt != nil {
		o.PlacedAt = *placedAt
	}
	return &o, nil
}

func scanOrderItem(row pgx.CollectableRow) (*order.OrderItem, error) {
	var (
		item         order.OrderItem
		quantity     decimal.Decimal
		unitPrice    decimal.Decimal
		currencyCode string
		adjustments  []byte
		attributes   []byte
	)
	err := row.Scan(
		&item.ID, &item.OrderID, &item.Type, &item.PurchasedID, &item.Title,
		&quantity, &unitPrice, &currencyCode, &adjustments, &attributes,
	)
	if err != nil {
		return nil, err
	}
	item.Quantity = quantity
	item.UnitPrice, err = money.FromDecimal(unitPrice, currencyCode)
	if err != nil {
		return nil, fmt.Errorf("item %q unit price: %w", item.ID, err)
	}
	item.TotalPrice, err = item.UnitPrice.Mul(quantity.String())
	if err != nil {
		return nil, fmt.Errorf("item %q total price: %w", item.ID, err)
	}
	if err := json.Unmarshal(adjustments, &item.Adjustments); err != nil {
		return nil, fmt.Errorf("unmarshaling adjustments for item %q: %w", item.ID, err)
	}
	if err := json.Unmarshal(attributes, &item.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshaling attributes for item %q: %w", item.ID, err)
	}
	return &item, nil
}
