package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
	"github.com/xenking/commerce-core/internal/domain/product"
)

func encodeMoney(e *jx.Encoder, m money.Money) {
	if m.IsEmpty() {
		e.Null()
		return
	}
	e.Obj(func(e *jx.Encoder) {
		e.Field("number", func(e *jx.Encoder) { e.Str(m.Number()) })
		e.Field("currency_code", func(e *jx.Encoder) { e.Str(m.CurrencyCode()) })
	})
}

func encodeAdjustment(e *jx.Encoder, a order.Adjustment) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("type", func(e *jx.Encoder) { e.Str(string(a.Type)) })
		e.Field("label", func(e *jx.Encoder) { e.Str(a.Label) })
		e.Field("amount", func(e *jx.Encoder) { encodeMoney(e, a.Amount) })
		if a.SourceID != "" {
			e.Field("source_id", func(e *jx.Encoder) { e.Str(a.SourceID) })
		}
		if a.Percentage != "" {
			e.Field("percentage", func(e *jx.Encoder) { e.Str(a.Percentage) })
		}
		e.Field("included", func(e *jx.Encoder) { e.Bool(a.Included) })
	})
}

func encodeItem(e *jx.Encoder, item *order.OrderItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(item.ID) })
		e.Field("type", func(e *jx.Encoder) { e.Str(item.Type) })
		if item.PurchasedID != "" {
			e.Field("purchased_id", func(e *jx.Encoder) { e.Str(item.PurchasedID) })
		}
		e.Field("title", func(e *jx.Encoder) { e.Str(item.Title) })
		e.Field("quantity", func(e *jx.Encoder) { e.Str(item.Quantity.String()) })
		e.Field("unit_price", func(e *jx.Encoder) { encodeMoney(e, item.UnitPrice) })
		e.Field("total_price", func(e *jx.Encoder) { encodeMoney(e, item.TotalPrice) })
		e.Field("adjustments", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, a := range item.Adjustments {
					encodeAdjustment(e, a)
				}
			})
		})
	})
}

func encodePurchasable(e *jx.Encoder, p product.Purchasable) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("type", func(e *jx.Encoder) { e.Str(p.Type) })
		if p.SKU != "" {
			e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
		}
		e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
		e.Field("price", func(e *jx.Encoder) { e.Str(p.Price) })
		e.Field("currency_code", func(e *jx.Encoder) { e.Str(p.CurrencyCode) })
	})
}

// writeOrder responds with the full order, derived totals included.
func writeOrder(w http.ResponseWriter, r *http.Request, status int, o *order.Order) {
	subtotal, err := o.Subtotal()
	if err != nil {
		respondError(w, r, err)
		return
	}
	total, err := o.TotalPrice()
	if err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("type", func(e *jx.Encoder) { e.Str(o.Type) })
		if o.StoreID != "" {
			e.Field("store_id", func(e *jx.Encoder) { e.Str(o.StoreID) })
		}
		e.Field("state", func(e *jx.Encoder) { e.Str(o.State) })
		if code := o.CurrencyCode(); code != "" {
			e.Field("currency_code", func(e *jx.Encoder) { e.Str(code) })
		}
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, item := range o.Items {
					encodeItem(e, item)
				}
			})
		})
		e.Field("adjustments", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, a := range o.Adjustments {
					encodeAdjustment(e, a)
				}
			})
		})
		if len(o.CouponCodes) > 0 {
			e.Field("coupon_codes", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, code := range o.CouponCodes {
						e.Str(code)
					}
				})
			})
		}
		e.Field("subtotal", func(e *jx.Encoder) { encodeMoney(e, subtotal) })
		e.Field("total", func(e *jx.Encoder) { encodeMoney(e, total) })
	})
	respondJSON(w, status, &e)
}
