package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/commerce-core/internal/domain/cart"
	"github.com/xenking/commerce-core/internal/domain/currency"
	"github.com/xenking/commerce-core/internal/domain/order"
	"github.com/xenking/commerce-core/internal/domain/pricing"
	"github.com/xenking/commerce-core/internal/domain/product"
	"github.com/xenking/commerce-core/internal/domain/promotion"
)

// --- In-memory collaborators ---

type stubOrders struct {
	orders map[string]*order.Order
	items  map[string]*order.OrderItem
}

func newStubOrders() *stubOrders {
	return &stubOrders{
		orders: make(map[string]*order.Order),
		items:  make(map[string]*order.OrderItem),
	}
}

func (r *stubOrders) LoadOrder(_ context.Context, id string) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (r *stubOrders) LoadOrders(_ context.Context, ids []string) ([]*order.Order, error) {
	var result []*order.Order
	for _, id := range ids {
		if o, ok := r.orders[id]; ok {
			result = append(result, o)
		}
	}
	return result, nil
}

func (r *stubOrders) SaveOrder(_ context.Context, o *order.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrders) DeleteOrder(_ context.Context, o *order.Order) error {
	delete(r.orders, o.ID)
	return nil
}

func (r *stubOrders) LoadItem(_ context.Context, id string) (*order.OrderItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return item, nil
}

func (r *stubOrders) SaveItem(_ context.Context, item *order.OrderItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubOrders) DeleteItem(_ context.Context, item *order.OrderItem) error {
	delete(r.items, item.ID)
	return nil
}

func (r *stubOrders) QueryIDs(_ context.Context, q order.Query) ([]string, error) {
	var ids []string
	for id, o := range r.orders {
		if q.Type != "" && o.Type != q.Type {
			continue
		}
		if q.StoreID != "" && o.StoreID != q.StoreID {
			continue
		}
		if q.CustomerID != "" && o.CustomerID != q.CustomerID {
			continue
		}
		if q.State != "" && o.State != q.State {
			continue
		}
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

type stubProducts struct {
	catalog []product.Purchasable
}

func (r *stubProducts) List(_ context.Context) ([]product.Purchasable, error) {
	return r.catalog, nil
}

func (r *stubProducts) GetByID(_ context.Context, id string) (*product.Purchasable, error) {
	for _, p := range r.catalog {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (r *stubProducts) GetByIDs(_ context.Context, ids []string) ([]product.Purchasable, error) {
	var result []product.Purchasable
	for _, p := range r.catalog {
		for _, id := range ids {
			if p.ID == id {
				result = append(result, p)
			}
		}
	}
	return result, nil
}

type stubPromotions struct {
	promos []*promotion.Promotion
}

func (r *stubPromotions) LoadEnabled(_ context.Context, orderType string) ([]*promotion.Promotion, error) {
	var result []*promotion.Promotion
	for _, p := range r.promos {
		if !p.Enabled {
			continue
		}
		for _, t := range p.OrderTypes {
			if t == orderType {
				result = append(result, p)
				break
			}
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Weight < result[j].Weight })
	return result, nil
}

func (r *stubPromotions) FindByCouponCode(_ context.Context, code string) (*promotion.Promotion, error) {
	for _, p := range r.promos {
		for _, c := range p.CouponCodes {
			if strings.EqualFold(c, code) {
				return p, nil
			}
		}
	}
	return nil, promotion.ErrNotFound
}

// --- Harness ---

func newTestServer(t *testing.T, promos ...*promotion.Promotion) http.Handler {
	t.Helper()

	orders := newStubOrders()
	products := &stubProducts{catalog: []product.Purchasable{
		{ID: "p1", Type: "default", Title: "Widget", Price: "10.00", CurrencyCode: "USD"},
		{ID: "p2", Type: "default", Title: "Gadget", Price: "4.50", CurrencyCode: "USD"},
	}}
	promotions := &stubPromotions{promos: promos}

	rounder := currency.NewRounder(currency.NewStaticRegistry())
	registry := promotion.NewRegistry(promotion.Deps{
		Rounder:  rounder,
		Splitter: pricing.NewSplitter(rounder),
	})
	applicator := promotion.NewApplicator(promotions, registry)
	manager := cart.NewManager(orders, cart.NewItemMatcher(), applicator)

	h := NewHandler(Config{StoreID: "store-1"}, orders, products, promotions, manager, applicator)
	return h.Routes()
}

func do(t *testing.T, srv http.Handler, method, path, session, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func tenPercentOff(codes ...string) *promotion.Promotion {
	return &promotion.Promotion{
		ID:          "ten-off",
		Name:        "ten-off",
		DisplayName: "10% off",
		OfferID:     promotion.OfferOrderPercentageOff,
		Offer:       promotion.OfferConfig{Percentage: "0.1"},
		CouponCodes: codes,
		OrderTypes:  []string{"default"},
		Enabled:     true,
	}
}

// --- Tests ---

func TestCreateCartMintsSession(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/carts", "", "")
	require.Equal(t, http.StatusCreated, w.Code)

	session := w.Header().Get(SessionHeader)
	require.NotEmpty(t, session, "anonymous creates must return a session id")
	created := decode(t, w)

	// The minted session resumes the cart; a fresh one does not see it.
	w = do(t, srv, http.MethodGet, "/api/carts/current", session, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created["id"], decode(t, w)["id"])

	w = do(t, srv, http.MethodGet, "/api/carts/current", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCartDuplicate(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/carts", "s1", "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, srv, http.MethodPost, "/api/carts", "s1", "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, float64(http.StatusConflict), decode(t, w)["code"])
}

func TestAddItemCreatesCart(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/carts/current/items", "s1",
		`{"product_id": "p1", "quantity": "2"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "p1", item["purchased_id"])
	assert.Equal(t, "2", item["quantity"])
	total := body["total"].(map[string]any)
	assert.Equal(t, "20", total["number"])
	assert.Equal(t, "USD", total["currency_code"])
}

func TestAddItemCombinesLines(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/carts/current/items", "s1", `{"product_id": "p1"}`)
	w := do(t, srv, http.MethodPost, "/api/carts/current/items", "s1", `{"product_id": "p1", "quantity": "2"}`)
	require.Equal(t, http.StatusOK, w.Code)

	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "3", items[0].(map[string]any)["quantity"])
}

func TestAddItemUnknownProduct(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodPost, "/api/carts/current/items", "s1", `{"product_id": "nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddItemMissingProductID(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodPost, "/api/carts/current/items", "s1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAutomaticPromotionApplies(t *testing.T) {
	srv := newTestServer(t, tenPercentOff())

	w := do(t, srv, http.MethodPost, "/api/carts/current/items", "s1",
		`{"product_id": "p1", "quantity": "2"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// Order-scoped percentage discounts are split into one adjustment per
	// item; the order-level list stays empty.
	body := decode(t, w)
	assert.Empty(t, body["adjustments"])
	item := body["items"].([]any)[0].(map[string]any)
	adjustments := item["adjustments"].([]any)
	require.Len(t, adjustments, 1)
	adj := adjustments[0].(map[string]any)
	assert.Equal(t, "10% off", adj["label"])
	assert.Equal(t, "ten-off", adj["source_id"])
	assert.Equal(t, "-2", adj["amount"].(map[string]any)["number"])
	assert.Equal(t, "18", body["total"].(map[string]any)["number"])
}

func TestApplyCoupon(t *testing.T) {
	srv := newTestServer(t, tenPercentOff("SAVE10"))

	// Coupon-gated promotions stay dormant until the code is applied.
	w := do(t, srv, http.MethodPost, "/api/carts/current/items", "s1",
		`{"product_id": "p1", "quantity": "2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "20", decode(t, w)["total"].(map[string]any)["number"])

	w = do(t, srv, http.MethodPost, "/api/carts/current/coupons", "s1", `{"code": "save10"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "18", body["total"].(map[string]any)["number"])
	assert.Equal(t, []any{"save10"}, body["coupon_codes"])
}

func TestApplyUnknownCoupon(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/carts/current/items", "s1", `{"product_id": "p1"}`)
	w := do(t, srv, http.MethodPost, "/api/carts/current/coupons", "s1", `{"code": "NOPE"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/carts/current/items", "s1", `{"product_id": "p1"}`)
	itemID := decode(t, w)["items"].([]any)[0].(map[string]any)["id"].(string)

	w = do(t, srv, http.MethodPatch, "/api/carts/current/items/"+itemID, "s1", `{"quantity": "5"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "50", decode(t, w)["total"].(map[string]any)["number"])

	w = do(t, srv, http.MethodDelete, "/api/carts/current/items/"+itemID, "s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])

	w = do(t, srv, http.MethodDelete, "/api/carts/current/items/"+itemID, "s1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateItemQuantityZeroRemovesLine(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/carts/current/items", "s1", `{"product_id": "p2"}`)
	itemID := decode(t, w)["items"].([]any)[0].(map[string]any)["id"].(string)

	w = do(t, srv, http.MethodPatch, "/api/carts/current/items/"+itemID, "s1", `{"quantity": "0"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])
}

func TestEmptyCart(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/carts/current/items", "s1", `{"product_id": "p1"}`)
	do(t, srv, http.MethodPost, "/api/carts/current/items", "s1", `{"product_id": "p2"}`)

	w := do(t, srv, http.MethodDelete, "/api/carts/current/items", "s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])
}

func TestCheckout(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/carts/current/items", "s1", `{"product_id": "p1"}`)
	w := do(t, srv, http.MethodPost, "/api/carts/current/checkout", "s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StateCompleted, decode(t, w)["state"])

	// A completed order is no longer the current cart.
	w = do(t, srv, http.MethodGet, "/api/carts/current", "s1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomerHeaderSkipsSessionMinting(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/carts", strings.NewReader("{}"))
	req.Header.Set(CustomerHeader, "user-x")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(SessionHeader))
}

func TestListProducts(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var products []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 2)
	assert.Equal(t, "Widget", products[0]["title"])
	assert.Equal(t, "10.00", products[0]["price"])
}
