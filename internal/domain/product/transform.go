package product

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NameTable holds the themed titles assigned by product id.
var NameTable = []string{
	"Essence Mascara Lash Princess",
	"Eyeshadow Palette Pro",
	"Powder Canister",
	"Lipstick Collection",
	"Foundation Perfect Match",
	"Concealer Pro Coverage",
	"Blush Natural Glow",
	"Highlighter Shimmer",
	"Eyeliner Precision",
	"Lip Gloss Shine",
	"Bronzer Sun-Kissed",
	"Setting Spray All-Day",
	"Primer Smooth Base",
	"Brow Pencil Define",
	"Lip Balm Hydrating",
}

// BrandTable holds the brands assigned by product id.
var BrandTable = []string{"Essence", "Viorra", "GlowCart", "BeautyPro", "Luxe"}

// DescriptionTable holds the themed descriptions a Transformer picks from.
var DescriptionTable = []string{
	"The Essence Mascara Lash Princess is a popular mascara known for its volumizing and lengthening effects. Achieve dramatic lashes with this long lasting and cruelty free formula",
	"Professional eyeshadow palette with highly pigmented colors. Perfect for creating stunning eye looks from natural to dramatic.",
	"Lightweight powder compact for setting makeup and reducing shine. Provides a smooth, matte finish that lasts all day.",
	"Rich, creamy lipstick collection with intense color payoff. Long-wearing formula keeps lips moisturized and vibrant.",
	"Full coverage foundation that matches your skin tone perfectly. Buildable formula provides a natural, flawless finish.",
	"High-coverage concealer that hides imperfections and brightens under-eyes. Blends seamlessly for a natural look.",
}

const (
	minFallbackRate  = 3.0
	fallbackRateSpan = 2.0
	maxRate          = 5.0
	minRatingCount   = 50
	ratingCountSpan  = 200
)

var markdown = decimal.RequireFromString("0.8")

// Rand is the randomness used for the themed fields of a product.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Transformer maps raw upstream records into Products.
//
// Apart from the injected Rand it is a pure function of its input: price,
// title and brand depend only on the record.
type Transformer struct {
	rnd Rand
}

// NewTransformer returns a Transformer drawing its random fields from rnd.
func NewTransformer(rnd Rand) *Transformer {
	return &Transformer{rnd: rnd}
}

// Transform normalizes a single raw record. It never fails: missing optional
// fields fall back to defaults instead of dropping the record.
func (t *Transformer) Transform(r RawRecord) Product {
	var id int64
	if r.ID != nil {
		id = *r.ID
	}

	p := Product{
		ID:                 id,
		Title:              titleFor(id, r.ID != nil),
		Price:              DiscountPrice(r.Price),
		Description:        DescriptionTable[t.rnd.IntN(len(DescriptionTable))],
		Category:           Category,
		Image:              firstImage(r),
		Brand:              BrandFor(id),
		DiscountPercentage: r.DiscountPercentage,
		Stock:              r.Stock,
		Thumbnail:          r.Thumbnail,
		Images:             images(r),
	}

	p.Rating.Rate = t.rate(r.Rating)
	p.Rating.Count = minRatingCount + t.rnd.IntN(ratingCountSpan)

	return p
}

// TransformAll normalizes records preserving their order.
func (t *Transformer) TransformAll(records []RawRecord) []Product {
	out := make([]Product, len(records))
	for i, r := range records {
		out[i] = t.Transform(r)
	}
	return out
}

func (t *Transformer) rate(upstream *float64) float64 {
	if upstream == nil || *upstream <= 0 {
		return minFallbackRate + fallbackRateSpan*t.rnd.Float64()
	}
	return min(*upstream, maxRate)
}

// DiscountPrice applies the fixed 20% markdown and rounds to a whole amount.
// Negative inputs yield zero.
func DiscountPrice(price float64) decimal.Decimal {
	out := decimal.NewFromFloat(price).Mul(markdown).Round(0)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// BrandFor returns the brand assigned to id.
func BrandFor(id int64) string {
	return BrandTable[index(id, len(BrandTable))]
}

// TitleFor returns the title assigned to id.
func TitleFor(id int64) string {
	return titleFor(id, true)
}

// titleFor falls back to a placeholder only when the record carried no id;
// the modulo lookup itself cannot miss.
func titleFor(id int64, known bool) string {
	if !known {
		return fmt.Sprintf("Beauty Essential %d", id)
	}
	return NameTable[index(id, len(NameTable))]
}

// index is a modulo that stays non-negative for negative ids.
func index(id int64, n int) int {
	m := id % int64(n)
	if m < 0 {
		m += int64(n)
	}
	return int(m)
}

func firstImage(r RawRecord) string {
	if r.Thumbnail != "" {
		return r.Thumbnail
	}
	for _, img := range r.Images {
		if img != "" {
			return img
		}
	}
	return ""
}

// images falls back to the thumbnail only when the upstream sent no images
// field at all; an explicit empty list is kept.
func images(r RawRecord) []string {
	if r.Images != nil {
		out := make([]string, len(r.Images))
		copy(out, r.Images)
		return out
	}
	if r.Thumbnail != "" {
		return []string{r.Thumbnail}
	}
	return nil
}
