// Package query derives filtered views of the catalog.
//
// All functions are stable: results keep the relative order of the input and
// are never re-ranked.
package query

import (
	"strings"

	"github.com/xenking/glowcart/internal/domain/product"
)

// Membership reports whether a product id belongs to a set, such as a
// wishlist.
type Membership interface {
	Contains(id int64) bool
}

// Filter returns the products whose title contains q, ignoring case. A
// non-blank q is matched as is, whitespace included. An empty or
// whitespace-only q returns products unchanged.
func Filter(products []product.Product, q string) []product.Product {
	return match(products, q, func(p product.Product, needle string) bool {
		return strings.Contains(strings.ToLower(p.Title), needle)
	})
}

// Search is like Filter but also matches the description.
func Search(products []product.Product, q string) []product.Product {
	return match(products, q, func(p product.Product, needle string) bool {
		return strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle)
	})
}

// Wishlisted returns the products whose id is in m, in catalog order.
func Wishlisted(products []product.Product, m Membership) []product.Product {
	out := make([]product.Product, 0)
	for _, p := range products {
		if m.Contains(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

func match(products []product.Product, q string, fn func(product.Product, string) bool) []product.Product {
	if strings.TrimSpace(q) == "" {
		return products
	}
	needle := strings.ToLower(q)

	out := make([]product.Product, 0)
	for _, p := range products {
		if fn(p, needle) {
			out = append(out, p)
		}
	}
	return out
}
