package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/glowcart/internal/domain/catalog"
	"github.com/xenking/glowcart/internal/domain/product"
	"github.com/xenking/glowcart/internal/domain/query"
)

// ListProducts returns the catalog, filtered by title when q is given.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := query.Filter(h.catalog.Products(), r.URL.Query().Get("q"))
	h.writeProducts(w, products)
}

// SearchProducts returns products whose title or description matches q.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products := query.Search(h.catalog.Products(), r.URL.Query().Get("q"))
	h.writeProducts(w, products)
}

// GetProduct returns a single product by id.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := h.catalog.Product(id)
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var e jx.Encoder
	h.encodeProduct(&e, p, h.wishlist.Contains(p.ID))
	writeJSON(w, http.StatusOK, &e)
}

// GetStatus reports the catalog load state.
func (h *Handler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	h.writeStatus(w, http.StatusOK, h.catalog.Status())
}

// Refresh reloads the catalog from the remote source. A failed refresh
// answers 502 with the status document; previously loaded products stay
// available.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	st := h.catalog.Refresh(r.Context())

	code := http.StatusOK
	if st.Phase == catalog.Failed {
		code = http.StatusBadGateway
	}
	h.writeStatus(w, code, st)
}

func (h *Handler) writeStatus(w http.ResponseWriter, code int, st catalog.Status) {
	count := h.catalog.Len()

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(st.Phase.String()) })
		if reason := st.Reason(); reason != "" {
			e.Field("error", func(e *jx.Encoder) { e.Str(reason) })
		}
		e.Field("count", func(e *jx.Encoder) { e.Int(count) })
	})
	writeJSON(w, code, &e)
}

func (h *Handler) writeProducts(w http.ResponseWriter, products []product.Product) {
	var e jx.Encoder
	h.encodeProducts(&e, products)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) encodeProducts(e *jx.Encoder, products []product.Product) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			h.encodeProduct(e, p, h.wishlist.Contains(p.ID))
		}
	})
}

// encodeProduct writes p as a JSON object. Image paths are resolved against
// the configured image base URL.
func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product, wishlisted bool) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(p.ID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
		e.Field("price", func(e *jx.Encoder) { e.Float64(p.Price.InexactFloat64()) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image)) })
		e.Field("rating", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("rate", func(e *jx.Encoder) { e.Float64(p.Rating.Rate) })
				e.Field("count", func(e *jx.Encoder) { e.Int(p.Rating.Count) })
			})
		})
		e.Field("brand", func(e *jx.Encoder) { e.Str(p.Brand) })
		if p.DiscountPercentage != nil {
			e.Field("discountPercentage", func(e *jx.Encoder) { e.Float64(*p.DiscountPercentage) })
		}
		if p.Stock != nil {
			e.Field("stock", func(e *jx.Encoder) { e.Int64(*p.Stock) })
		}
		if p.Thumbnail != "" {
			e.Field("thumbnail", func(e *jx.Encoder) { e.Str(h.imageURL(p.Thumbnail)) })
		}
		e.Field("images", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, img := range p.Images {
					e.Str(h.imageURL(img))
				}
			})
		})
		e.Field("wishlisted", func(e *jx.Encoder) { e.Bool(wishlisted) })
	})
}
