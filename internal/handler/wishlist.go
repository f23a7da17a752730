package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/glowcart/internal/domain/query"
)

// ListWishlist returns the wishlisted products in catalog order together with
// the raw member ids, which may include ids absent from the catalog.
func (h *Handler) ListWishlist(w http.ResponseWriter, _ *http.Request) {
	ids := h.wishlist.List()
	products := query.Wishlisted(h.catalog.Products(), h.wishlist)

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("ids", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, id := range ids {
					e.Int64(id)
				}
			})
		})
		e.Field("products", func(e *jx.Encoder) {
			h.encodeProducts(e, products)
		})
	})
	writeJSON(w, http.StatusOK, &e)
}

// GetWishlist reports whether a product id is wishlisted.
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeMembership(w, id, h.wishlist.Contains(id))
}

// ToggleWishlist flips the membership of a product id. Ids are not checked
// against the catalog.
func (h *Handler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeMembership(w, id, h.wishlist.Toggle(id))
}

func writeMembership(w http.ResponseWriter, id int64, member bool) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(id) })
		e.Field("wishlisted", func(e *jx.Encoder) { e.Bool(member) })
	})
	writeJSON(w, http.StatusOK, &e)
}
