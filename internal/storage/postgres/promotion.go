package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/commerce-core/internal/domain/promotion"
)

const (
	promotionColumns = `id, name, display_name, offer_id, offer, conditions,
		coupon_codes, coupon_required, order_types, weight, enabled, starts_at, ends_at`

	upsertPromotionSQL = `INSERT INTO promotions (id, name, display_name, offer_id, offer,
			conditions, coupon_codes, coupon_required, order_types, weight, enabled,
			starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			display_name = EXCLUDED.display_name,
			offer_id = EXCLUDED.offer_id,
			offer = EXCLUDED.offer,
			conditions = EXCLUDED.conditions,
			coupon_codes = EXCLUDED.coupon_codes,
			coupon_required = EXCLUDED.coupon_required,
			order_types = EXCLUDED.order_types,
			weight = EXCLUDED.weight,
			enabled = EXCLUDED.enabled,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at`

	loadEnabledPromotionsSQL = `SELECT ` + promotionColumns + `
		FROM promotions
		WHERE enabled = TRUE AND $1 = ANY(order_types)
		ORDER BY weight, id`

	findPromotionByInlineCodeSQL = `SELECT ` + promotionColumns + `
		FROM promotions WHERE UPPER($1) = ANY(SELECT UPPER(unnest(coupon_codes)))`

	findPromotionByBulkCodeSQL = `SELECT ` + promotionColumns + `
		FROM promotions p
		JOIN promotion_coupons pc ON pc.promotion_id = p.id
		WHERE UPPER(pc.code) = UPPER($1)`

	insertPromotionCouponSQL = `INSERT INTO promotion_coupons (code, promotion_id)
		VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`
)

var _ promotion.Repository = (*PromotionRepository)(nil)

// PromotionRepository implements promotion.Repository backed by PostgreSQL.
// Offer configuration and condition specs are stored as JSONB; bulk coupon
// codes live in their own table keyed by code.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository that uses the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// LoadEnabled returns the enabled promotions for an order type, sorted by
// ascending weight then id.
func (r *PromotionRepository) LoadEnabled(ctx context.Context, orderType string) ([]*promotion.Promotion, error) {
	rows, err := r.pool.Query(ctx, loadEnabledPromotionsSQL, orderType)
	if err != nil {
		return nil, fmt.Errorf("loading promotions for %q: %w", orderType, err)
	}
	promos, err := pgx.CollectRows(rows, scanPromotion)
	if err != nil {
		return nil, fmt.Errorf("loading promotions for %q: %w", orderType, err)
	}
	return promos, nil
}

// FindByCouponCode resolves a coupon code (case-insensitive) to its
// promotion, checking inline codes first and then the bulk coupon table.
// Returns promotion.ErrNotFound when no promotion carries the code.
func (r *PromotionRepository) FindByCouponCode(ctx context.Context, code string) (*promotion.Promotion, error) {
	for _, query := range []string{findPromotionByInlineCodeSQL, findPromotionByBulkCodeSQL} {
		rows, err := r.pool.Query(ctx, query, code)
		if err != nil {
			return nil, fmt.Errorf("finding promotion by code %q: %w", code, err)
		}
		promo, err := pgx.CollectExactlyOneRow(rows, scanPromotion)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("finding promotion by code %q: %w", code, err)
		}
		return promo, nil
	}
	return nil, promotion.ErrNotFound
}

// SavePromotion upserts a promotion definition.
func (r *PromotionRepository) SavePromotion(ctx context.Context, p *promotion.Promotion) error {
	offer, err := json.Marshal(p.Offer)
	if err != nil {
		return fmt.Errorf("marshaling offer config for promotion %q: %w", p.ID, err)
	}
	conditions, err := json.Marshal(p.Conditions)
	if err != nil {
		return fmt.Errorf("marshaling conditions for promotion %q: %w", p.ID, err)
	}
	orderTypes := p.OrderTypes
	if len(orderTypes) == 0 {
		orderTypes = []string{"default"}
	}

	_, err = r.pool.Exec(ctx, upsertPromotionSQL,
		p.ID, p.Name, p.DisplayName, p.OfferID, offer, conditions,
		p.CouponCodes, p.CouponRequired, orderTypes, p.Weight, p.Enabled,
		p.StartsAt, p.EndsAt,
	)
	if err != nil {
		return fmt.Errorf("saving promotion %q: %w", p.ID, err)
	}
	return nil
}

// AddCouponCode attaches a bulk coupon code to a promotion. Duplicate codes
// are ignored so ingest runs are repeatable.
func (r *PromotionRepository) AddCouponCode(ctx context.Context, promotionID, code string) error {
	_, err := r.pool.Exec(ctx, insertPromotionCouponSQL, code, promotionID)
	if err != nil {
		return fmt.Errorf("adding coupon code to promotion %q: %w", promotionID, err)
	}
	return nil
}

func scanPromotion(row pgx.CollectableRow) (*promotion.Promotion, error) {
	var (
		p          promotion.Promotion
		offer      []byte
		conditions []byte
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.DisplayName, &p.OfferID, &offer, &conditions,
		&p.CouponCodes, &p.CouponRequired, &p.OrderTypes, &p.Weight, &p.Enabled,
		&p.StartsAt, &p.EndsAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(offer, &p.Offer); err != nil {
		return nil, fmt.Errorf("unmarshaling offer config for promotion %q: %w", p.ID, err)
	}
	if err := json.Unmarshal(conditions, &p.Conditions); err != nil {
		return nil, fmt.Errorf("unmarshaling conditions for promotion %q: %w", p.ID, err)
	}
	return &p, nil
}
