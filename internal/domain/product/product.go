package product

import (
	"context"

	"github.com/shopspring/decimal"
)

// Category is the constant category assigned to every catalog product.
const Category = "cosmetics"

// Product represents a normalized catalog item shown to shoppers.
//
// Products are values: once built by a Transformer they are never mutated, so
// they can be shared between readers without copying.
type Product struct {
	ID          int64
	Title       string
	Price       decimal.Decimal
	Description string
	Category    string
	Image       string
	Rating      Rating
	Brand       string

	// Optional pass-through fields from the upstream record.
	DiscountPercentage *float64
	Stock              *int64
	Thumbnail          string
	Images             []string
}

// Rating holds the review score and number of reviews of a product.
type Rating struct {
	Rate  float64
	Count int
}

// RawRecord is a product as returned by the remote catalog source, before
// normalization. Pointer fields are nil when the upstream omitted them.
type RawRecord struct {
	ID                 *int64
	Title              string
	Description        string
	Price              float64
	Rating             *float64
	DiscountPercentage *float64
	Stock              *int64
	Brand              string
	Thumbnail          string
	Images             []string
}

// Source retrieves the full raw product list from the remote catalog.
type Source interface {
	Fetch(ctx context.Context) ([]RawRecord, error)
}
