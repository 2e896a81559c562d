// Package app wires the pricing engine together: storage, domain services,
// the HTTP surface, and graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/commerce-core/internal/domain/cart"
	"github.com/xenking/commerce-core/internal/domain/currency"
	"github.com/xenking/commerce-core/internal/domain/pricing"
	"github.com/xenking/commerce-core/internal/domain/promotion"
	"github.com/xenking/commerce-core/internal/handler"
	"github.com/xenking/commerce-core/internal/storage/postgres"
	"github.com/xenking/commerce-core/pkg/health"
	"github.com/xenking/commerce-core/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health probes.
	healthSvc := health.NewService()
	healthSvc.AddReadiness(health.Probe{
		Name:    "postgres",
		Timeout: 5 * time.Second,
		Check:   pool.Ping,
	})
	healthSvc.AddLiveness(health.Probe{
		Name:    "goroutines",
		Timeout: time.Second,
		Check:   health.MaxGoroutines(10000),
	})
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	orderRepo := postgres.NewOrderRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	promotionRepo := postgres.NewPromotionRepository(pool)
	currencyRepo := postgres.NewCurrencyRepository(pool)

	// Pricing services. The applicator observes the cart manager so every
	// mutation reprices the order before it is persisted.
	rounder := currency.NewRounder(currencyRepo)
	splitter := pricing.NewSplitter(rounder)
	offers := promotion.NewRegistry(promotion.Deps{Rounder: rounder, Splitter: splitter})
	applicator := promotion.NewApplicator(promotionRepo, offers)
	manager := cart.NewManager(orderRepo, cart.NewItemMatcher(), applicator)

	// HTTP surface.
	h := handler.NewHandler(
		handler.Config{OrderType: cfg.OrderType, StoreID: cfg.StoreID},
		orderRepo,
		productRepo,
		promotionRepo,
		manager,
		applicator,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", handler.SessionHeader, handler.CustomerHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("commerce-core",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
