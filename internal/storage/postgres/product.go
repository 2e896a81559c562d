package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/commerce-core/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, type, sku, title, price, currency_code
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, type, sku, title, price, currency_code
		FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, type, sku, title, price, currency_code
		FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products (id, type, sku, title, price, currency_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			sku = EXCLUDED.sku,
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			currency_code = EXCLUDED.currency_code`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the whole purchasable catalog ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]product.Purchasable, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanPurchasable)
}

// GetByID returns a single purchasable by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Purchasable, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPurchasable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns purchasables matching any of the given ids.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Purchasable, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanPurchasable)
}

// Save upserts a purchasable catalog entry.
func (r *ProductRepository) Save(ctx context.Context, p product.Purchasable) error {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return fmt.Errorf("parsing price for product %q: %w", p.ID, err)
	}
	_, err = r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Type, p.SKU, p.Title, price, p.CurrencyCode,
	)
	if err != nil {
		return fmt.Errorf("saving product %q: %w", p.ID, err)
	}
	return nil
}

func scanPurchasable(row pgx.CollectableRow) (product.Purchasable, error) {
	var (
		p     product.Purchasable
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Type, &p.SKU, &p.Title, &price, &p.CurrencyCode)
	p.Price = price.String()
	return p, err
}
