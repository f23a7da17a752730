package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/glowcart/internal/domain/catalog"
	"github.com/xenking/glowcart/internal/domain/product"
	"github.com/xenking/glowcart/internal/domain/wishlist"
)

// Compile-time checks ensuring the domain types satisfy the handler ports.
var (
	_ Catalog  = (*catalog.Store)(nil)
	_ Wishlist = (*wishlist.Set)(nil)
)

// Catalog is the read and refresh surface of the catalog store.
type Catalog interface {
	Refresh(ctx context.Context) catalog.Status
	Products() []product.Product
	Product(id int64) (product.Product, bool)
	Len() int
	Status() catalog.Status
}

// Wishlist is the favorites set joined against the catalog.
type Wishlist interface {
	Toggle(id int64) bool
	Contains(id int64) bool
	List() []int64
}

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// Absolute URLs from the upstream catalog are returned unchanged.
	ImageBaseURL string
}

// Handler serves the catalog and wishlist over HTTP, delegating to the
// injected catalog store and wishlist set.
type Handler struct {
	catalog      Catalog
	wishlist     Wishlist
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg HandlerConfig, catalog Catalog, wishlist Wishlist) *Handler {
	return &Handler{
		catalog:      catalog,
		wishlist:     wishlist,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Router returns the API routes mounted under /api. The refresh middlewares
// wrap only POST /api/refresh, the one route that reaches the upstream.
func (h *Handler) Router(refresh ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/search", h.SearchProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/status", h.GetStatus)
		r.With(refresh...).Post("/refresh", h.Refresh)

		r.Get("/wishlist", h.ListWishlist)
		r.Get("/wishlist/{id}", h.GetWishlist)
		r.Post("/wishlist/{id}", h.ToggleWishlist)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

var errInvalidID = errors.New("invalid product id")

func productID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errInvalidID
	}
	return id, nil
}

// imageURL prefixes relative image paths with the configured base URL.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
	writeJSON(w, status, &e)
}
