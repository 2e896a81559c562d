// Package handler exposes the cart engine over HTTP. The surface is
// deliberately thin: handlers adapt JSON to engine calls and never contain
// pricing logic themselves.
package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/commerce-core/internal/domain/cart"
	"github.com/xenking/commerce-core/internal/domain/currency"
	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
	"github.com/xenking/commerce-core/internal/domain/product"
	"github.com/xenking/commerce-core/internal/domain/promotion"
)

// SessionHeader carries the anonymous cart session id. Authenticated
// requests carry CustomerHeader instead, set by upstream auth.
const (
	SessionHeader  = "X-Cart-Session"
	CustomerHeader = "X-Customer-ID"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// OrderType is the order type new carts are created with.
	OrderType string
	// StoreID scopes carts to one store.
	StoreID string
}

// Handler adapts HTTP requests to the cart engine.
type Handler struct {
	cfg        Config
	orders     order.Repository
	products   product.Repository
	promotions promotion.Repository
	manager    *cart.Manager
	applicator *promotion.Applicator
	sessions   *SessionStore
}

// NewHandler constructs a Handler with the required engine dependencies.
func NewHandler(
	cfg Config,
	orders order.Repository,
	products product.Repository,
	promotions promotion.Repository,
	manager *cart.Manager,
	applicator *promotion.Applicator,
) *Handler {
	if cfg.OrderType == "" {
		cfg.OrderType = "default"
	}
	return &Handler{
		cfg:        cfg,
		orders:     orders,
		products:   products,
		promotions: promotions,
		manager:    manager,
		applicator: applicator,
		sessions:   NewSessionStore(),
	}
}

// Routes returns the engine's HTTP routes.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/carts", h.CreateCart)
	mux.HandleFunc("GET /api/carts/current", h.GetCart)
	mux.HandleFunc("POST /api/carts/current/items", h.AddItem)
	mux.HandleFunc("PATCH /api/carts/current/items/{id}", h.UpdateItemQuantity)
	mux.HandleFunc("DELETE /api/carts/current/items/{id}", h.RemoveItem)
	mux.HandleFunc("DELETE /api/carts/current/items", h.EmptyCart)
	mux.HandleFunc("POST /api/carts/current/coupons", h.ApplyCoupon)
	mux.HandleFunc("POST /api/carts/current/checkout", h.Checkout)
	return mux
}

// provider builds a request-scoped cart provider tied to the caller's
// identity: authenticated requests resolve carts by customer id, anonymous
// ones through the session id in SessionHeader. A missing session id is
// minted here and echoed on the response so the client can resume the cart.
func (h *Handler) provider(w http.ResponseWriter, r *http.Request) (*cart.Provider, string) {
	if customerID := r.Header.Get(CustomerHeader); customerID != "" {
		return cart.NewProvider(h.orders, cart.NewMemorySession()), customerID
	}

	id := r.Header.Get(SessionHeader)
	if id == "" {
		id = uuid.New().String()
	}
	w.Header().Set(SessionHeader, id)
	return cart.NewProvider(h.orders, h.sessions.Get(id)), ""
}

func respondJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		err = errors.New("internal error")
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(err.Error()) })
	})
	respondJSON(w, status, &e)
}

// errorStatus maps engine errors to HTTP statuses.
func errorStatus(err error) int {
	var (
		duplicateCart    *cart.DuplicateCartError
		currencyMismatch *money.CurrencyMismatchError
		unknownCurrency  *currency.UnknownCurrencyError
	)
	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &duplicateCart):
		return http.StatusConflict
	case errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, promotion.ErrNotFound),
		errors.As(err, &currencyMismatch),
		errors.As(err, &unknownCurrency):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errBadRequest marks malformed request payloads.
var errBadRequest = errors.New("bad request")

func badRequest(msg string) error {
	return errors.Wrap(errBadRequest, msg)
}
