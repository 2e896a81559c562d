package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/commerce-core/internal/domain/currency"
	"github.com/xenking/commerce-core/internal/domain/product"
	"github.com/xenking/commerce-core/internal/domain/promotion"
	"github.com/xenking/commerce-core/internal/storage/postgres"
)

type productJSON struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	SKU          string `json:"sku"`
	Title        string `json:"title"`
	Price        string `json:"price"`
	CurrencyCode string `json:"currency_code"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCurrencies(ctx, postgres.NewCurrencyRepository(pool)); err != nil {
		return errors.Wrap(err, "seed currencies")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedPromotions(ctx, postgres.NewPromotionRepository(pool)); err != nil {
		return errors.Wrap(err, "seed promotions")
	}

	return nil
}

func seedCurrencies(ctx context.Context, repo *postgres.CurrencyRepository) error {
	currencies := []currency.Currency{
		{Code: "AUD", NumericCode: "036", Symbol: "$", FractionDigits: 2},
		{Code: "EUR", NumericCode: "978", Symbol: "€", FractionDigits: 2},
		{Code: "GBP", NumericCode: "826", Symbol: "£", FractionDigits: 2},
		{Code: "JPY", NumericCode: "392", Symbol: "¥", FractionDigits: 0},
		{Code: "KWD", NumericCode: "414", Symbol: "د.ك", FractionDigits: 3},
		{Code: "USD", NumericCode: "840", Symbol: "$", FractionDigits: 2},
	}

	slog.Info("upserting currencies", slog.Int("count", len(currencies)))

	for _, c := range currencies {
		if err := repo.Save(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert currency %s", c.Code)
		}
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if err := repo.Save(ctx, product.Purchasable{
			ID:           p.ID,
			Type:         p.Type,
			SKU:          p.SKU,
			Title:        p.Title,
			Price:        p.Price,
			CurrencyCode: p.CurrencyCode,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("title", p.Title))
	}

	return nil
}

func seedPromotions(ctx context.Context, repo *postgres.PromotionRepository) error {
	slog.Info("seeding sample promotions")

	promos := []*promotion.Promotion{
		{
			ID:          "happy-hours",
			Name:        "happy-hours",
			DisplayName: "Happy Hours: 18% off",
			OfferID:     promotion.OfferOrderPercentageOff,
			Offer:       promotion.OfferConfig{Percentage: "0.18"},
			CouponCodes: []string{"HAPPYHOURS"},
			Weight:      10,
			Enabled:     true,
		},
		{
			ID:          "buy-one-get-one",
			Name:        "buy-one-get-one",
			DisplayName: "Buy one get one free",
			OfferID:     promotion.OfferBuyXGetY,
			Offer: promotion.OfferConfig{
				BuyQuantity:  "1",
				GetQuantity:  "1",
				DiscountType: promotion.DiscountPercentage,
				Percentage:   "1",
			},
			CouponCodes: []string{"BUYGETONE"},
			Weight:      20,
			Enabled:     true,
		},
		{
			ID:          "coffee-bundle",
			Name:        "coffee-bundle",
			DisplayName: "10% off coffee beans",
			OfferID:     promotion.OfferOrderItemPercentageOff,
			Offer:       promotion.OfferConfig{Percentage: "0.1"},
			Conditions: []promotion.ConditionSpec{
				{ID: "purchased_ids", Config: map[string]string{"ids": "prod-coffee-beans"}},
			},
			Weight:  30,
			Enabled: true,
		},
	}

	for _, p := range promos {
		if err := repo.SavePromotion(ctx, p); err != nil {
			return errors.Wrapf(err, "save promotion %s", p.ID)
		}

		slog.Info("saved promotion", slog.String("id", p.ID), slog.String("display_name", p.DisplayName))
	}

	return nil
}
