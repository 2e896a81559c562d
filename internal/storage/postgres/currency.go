package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/commerce-core/internal/domain/currency"
)

const (
	getCurrencySQL = `SELECT code, numeric_code, symbol, fraction_digits
		FROM currencies WHERE code = $1`

	upsertCurrencySQL = `INSERT INTO currencies (code, numeric_code, symbol, fraction_digits)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET
			numeric_code = EXCLUDED.numeric_code,
			symbol = EXCLUDED.symbol,
			fraction_digits = EXCLUDED.fraction_digits`
)

var _ currency.Registry = (*CurrencyRepository)(nil)

// CurrencyRepository implements currency.Registry backed by PostgreSQL, so
// the rounder resolves fraction digits from the same store the rest of the
// engine uses.
type CurrencyRepository struct {
	pool *pgxpool.Pool
}

// NewCurrencyRepository returns a CurrencyRepository that uses the given pool.
func NewCurrencyRepository(pool *pgxpool.Pool) *CurrencyRepository {
	return &CurrencyRepository{pool: pool}
}

// Get returns the currency with the given code, or UnknownCurrencyError.
func (r *CurrencyRepository) Get(ctx context.Context, code string) (*currency.Currency, error) {
	rows, err := r.pool.Query(ctx, getCurrencySQL, code)
	if err != nil {
		return nil, fmt.Errorf("getting currency %q: %w", code, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[currency.Currency])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &currency.UnknownCurrencyError{Code: code}
		}
		return nil, fmt.Errorf("getting currency %q: %w", code, err)
	}
	return &c, nil
}

// Save upserts a currency definition.
func (r *CurrencyRepository) Save(ctx context.Context, c currency.Currency) error {
	_, err := r.pool.Exec(ctx, upsertCurrencySQL,
		c.Code, c.NumericCode, c.Symbol, c.FractionDigits,
	)
	if err != nil {
		return fmt.Errorf("saving currency %q: %w", c.Code, err)
	}
	return nil
}
