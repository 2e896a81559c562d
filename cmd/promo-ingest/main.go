package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/promotion"
	"github.com/xenking/commerce-core/internal/storage/postgres"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	numFiles      = 3
	progressEvery = 10_000_000
	minCodeLen    = 8
	maxCodeLen    = 10
)

// fileResult holds candidate codes found in a single file during pass 2.
type fileResult struct {
	candidates map[string]uint
}

func main() {
	var (
		dataDir      string
		databaseURL  string
		currencyCode string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing couponbaseN.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&currencyCode, "currency", "USD", "currency for fixed-amount promotions")
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

	if err := run(ctx, dataDir, databaseURL, currencyCode); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL, currencyCode string) error {
	files := make([]string, numFiles)
	for i := range numFiles {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("couponbase%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: Build bloom filters concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", numFiles))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: Find candidate codes appearing in 2+ files.
	slog.Info("pass 2: finding candidate codes")

	validCodes, err := findValidCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find valid codes")
	}

	slog.Info("valid codes found", slog.Int("count", len(validCodes)))

	if len(validCodes) == 0 {
		slog.Info("no valid codes to insert")
		return nil
	}

	// Write valid codes to database.
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewPromotionRepository(pool)

	promos, defaultPromo, err := buildPromotions(currencyCode)
	if err != nil {
		return errors.Wrap(err, "build promotions")
	}

	if err := ensurePromotions(ctx, repo, promos, defaultPromo); err != nil {
		return errors.Wrap(err, "ensure promotions")
	}

	if err := writeCodes(ctx, repo, promos, defaultPromo, validCodes); err != nil {
		return errors.Wrap(err, "write codes to database")
	}

	return nil
}

// buildPromotions returns the promotions that named codes unlock, keyed by
// code, plus the catch-all promotion for every other valid code.
func buildPromotions(currencyCode string) (map[string]*promotion.Promotion, *promotion.Promotion, error) {
	nineOff, err := money.New("9", currencyCode)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse fixed amount")
	}

	promos := map[string]*promotion.Promotion{
		"FIFTYOFF": percentagePromo("fiftyoff", "50% off entire order", "0.5"),
		"SIXTYOFF": percentagePromo("sixtyoff", "60% off entire order", "0.6"),
		"FREEZAAA": percentagePromo("freezaaa", "Everything free!", "1"),
		"GNULINUX": percentagePromo("gnulinux", "Open source discount: 15% off", "0.15"),
		"HAPPYHRS": percentagePromo("happyhrs", "Happy Hours: 18% off", "0.18"),
		"OVER9000": {
			ID:             "code-over9000",
			Name:           "code-over9000",
			DisplayName:    "$9 off your order",
			OfferID:        promotion.OfferOrderFixedAmountOff,
			Offer:          promotion.OfferConfig{Amount: nineOff},
			CouponRequired: true,
			Enabled:        true,
		},
		"BUYGETON": buyGetPromo("buygeton", "Lowest item free (buy 2+)"),
		"BIRTHDAY": buyGetPromo("birthday", "Birthday: free lowest item"),
	}

	defaultPromo := percentagePromo("default", "Valid promo code: 10% off", "0.1")

	return promos, defaultPromo, nil
}

func percentagePromo(slug, displayName, percentage string) *promotion.Promotion {
	return &promotion.Promotion{
		ID:             "code-" + slug,
		Name:           "code-" + slug,
		DisplayName:    displayName,
		OfferID:        promotion.OfferOrderPercentageOff,
		Offer:          promotion.OfferConfig{Percentage: percentage},
		CouponRequired: true,
		Enabled:        true,
	}
}

func buyGetPromo(slug, displayName string) *promotion.Promotion {
	return &promotion.Promotion{
		ID:          "code-" + slug,
		Name:        "code-" + slug,
		DisplayName: displayName,
		OfferID:     promotion.OfferBuyXGetY,
		Offer: promotion.OfferConfig{
			BuyQuantity:  "1",
			GetQuantity:  "1",
			DiscountType: promotion.DiscountPercentage,
			Percentage:   "1",
		},
		CouponRequired: true,
		Enabled:        true,
	}
}

func ensurePromotions(
	ctx context.Context,
	repo *postgres.PromotionRepository,
	promos map[string]*promotion.Promotion,
	defaultPromo *promotion.Promotion,
) error {
	for code, p := range promos {
		if err := repo.SavePromotion(ctx, p); err != nil {
			return errors.Wrapf(err, "save promotion for code %s", code)
		}
	}
	if err := repo.SavePromotion(ctx, defaultPromo); err != nil {
		return errors.Wrap(err, "save default promotion")
	}
	return nil
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) >= minCodeLen && len(code) <= maxCodeLen {
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress",
						slog.Int("file", idx+1),
						slog.Uint64("codes", count),
					)
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for file %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findValidCodes re-streams each file and checks codes against OTHER files'
// bloom filters. A code is valid if it appears in 2 or more files.
func findValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge bitmasks from all files.
	merged := make(map[string]uint)
	for _, r := range results {
		for code, mask := range r.candidates {
			merged[code] |= mask
		}
	}

	// Keep codes appearing in 2+ files.
	var valid []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			valid = append(valid, code)
		}
	}

	return valid, nil
}

func findCandidatesInFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("file", idx+1),
					slog.Uint64("codes", count),
				)
			}

			// Check if this code appears in any OTHER file's bloom filter.
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(code) {
					candidates[code] |= fileBit
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = fileResult{candidates: candidates}
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeCodes attaches every valid code to its promotion. Named codes unlock
// their dedicated promotion; everything else unlocks the catch-all one.
func writeCodes(
	ctx context.Context,
	repo *postgres.PromotionRepository,
	promos map[string]*promotion.Promotion,
	defaultPromo *promotion.Promotion,
	codes []string,
) error {
	slog.Info("writing codes to database", slog.Int("count", len(codes)))

	for i, code := range codes {
		target, ok := promos[strings.ToUpper(code)]
		if !ok {
			target = defaultPromo
		}

		if err := repo.AddCouponCode(ctx, target.ID, code); err != nil {
			return errors.Wrapf(err, "attach code %s", code)
		}

		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}

	return nil
}
