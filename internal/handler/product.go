package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// ListProducts returns the purchasable catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			encodePurchasable(e, p)
		}
	})
	respondJSON(w, http.StatusOK, &e)
}
