package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/commerce-core/internal/domain/cart"
	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
	"github.com/xenking/commerce-core/internal/domain/promotion"
)

// CreateCart creates the caller's draft cart. A second create for the same
// identity answers 409.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	p, customerID := h.provider(w, r)
	o, err := p.CreateCart(r.Context(), h.cfg.OrderType, h.cfg.StoreID, customerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeOrder(w, r, http.StatusCreated, o)
}

// GetCart returns the caller's current draft cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	o, _, err := h.currentCart(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeOrder(w, r, http.StatusOK, o)
}

// AddItem adds a purchasable to the cart, creating the cart when the caller
// has none yet. Matching lines are combined by default.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var (
		productID string
		quantity  = "1"
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			productID, err = d.Str()
		case "quantity":
			quantity, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		respondError(w, r, badRequest("invalid request body"))
		return
	}
	if productID == "" {
		respondError(w, r, badRequest("product_id is required"))
		return
	}

	p, customerID := h.provider(w, r)
	o, err := p.GetCart(r.Context(), h.cfg.OrderType, h.cfg.StoreID, customerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if o == nil {
		if o, err = p.CreateCart(r.Context(), h.cfg.OrderType, h.cfg.StoreID, customerID); err != nil {
			respondError(w, r, err)
			return
		}
	}

	purchasable, err := h.products.GetByID(r.Context(), productID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if _, err := h.manager.AddPurchasable(r.Context(), o, purchasable, quantity, true, true); err != nil {
		respondError(w, r, err)
		return
	}
	writeOrder(w, r, http.StatusOK, o)
}

// UpdateItemQuantity sets an item's quantity. Zero removes the line.
func (h *Handler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var quantity string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		if key == "quantity" {
			quantity, err = d.Str()
		} else {
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		respondError(w, r, badRequest("invalid request body"))
		return
	}
	if err := money.AssertNumeric(quantity); err != nil {
		respondError(w, r, err)
		return
	}
	qty, _ := decimal.NewFromString(quantity)

	o, item, err := h.cartItem(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.manager.UpdateItemQuantity(r.Context(), o, item, qty, true); err != nil {
		respondError(w, r, err)
		return
	}
	writeOrder(w, r, http.StatusOK, o)
}

// RemoveItem deletes one line from the cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	o, item, err := h.cartItem(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.manager.RemoveItem(r.Context(), o, item, true); err != nil {
		respondError(w, r, err)
		return
	}
	writeOrder(w, r, http.StatusOK, o)
}

// EmptyCart removes every line and order-level adjustment.
func (h *Handler) EmptyCart(w http.ResponseWriter, r *http.Request) {
	o, _, err := h.currentCart(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.manager.Empty(r.Context(), o, true); err != nil {
		respondError(w, r, err)
		return
	}
	writeOrder(w, r, http.StatusOK, o)
}

// ApplyCoupon attaches a coupon code to the cart and reprices it.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var code string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		if key == "code" {
			code, err = d.Str()
		} else {
			err = d.Skip()
		}
		return err
	})
	if err != nil || code == "" {
		respondError(w, r, badRequest("code is required"))
		return
	}

	promo, err := h.promotions.FindByCouponCode(r.Context(), code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !promo.Available(time.Now()) {
		respondError(w, r, promotion.ErrNotFound)
		return
	}

	o, _, err := h.currentCart(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !o.HasCouponCode(code) {
		o.CouponCodes = append(o.CouponCodes, code)
	}
	if err := h.applicator.Apply(r.Context(), o); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.orders.SaveOrder(r.Context(), o); err != nil {
		respondError(w, r, err)
		return
	}
	writeOrder(w, r, http.StatusOK, o)
}

// Checkout finalizes the draft cart into a placed order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	o, p, err := h.currentCart(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := p.FinalizeCart(r.Context(), o); err != nil {
		respondError(w, r, err)
		return
	}
	writeOrder(w, r, http.StatusOK, o)
}

// currentCart resolves the caller's draft cart, or order.ErrNotFound.
func (h *Handler) currentCart(w http.ResponseWriter, r *http.Request) (*order.Order, *cart.Provider, error) {
	p, customerID := h.provider(w, r)
	o, err := p.GetCart(r.Context(), h.cfg.OrderType, h.cfg.StoreID, customerID)
	if err != nil {
		return nil, nil, err
	}
	if o == nil {
		return nil, nil, order.ErrNotFound
	}
	return o, p, nil
}

// cartItem resolves the cart and the item addressed by the path id.
func (h *Handler) cartItem(w http.ResponseWriter, r *http.Request) (*order.Order, *order.OrderItem, error) {
	o, _, err := h.currentCart(w, r)
	if err != nil {
		return nil, nil, err
	}
	item := o.FindItem(r.PathValue("id"))
	if item == nil {
		return nil, nil, order.ErrNotFound
	}
	return o, item, nil
}

func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	d := jx.Decode(r.Body, 4096)
	return d.Obj(fn)
}
