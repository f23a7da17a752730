// Package source implements product.Source over the remote catalog API and
// over local gzip snapshots of the same payload.
package source

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/glowcart/internal/domain/product"
)

// ErrMalformedPayload is returned when the payload has no products array.
var ErrMalformedPayload = errors.New("malformed catalog payload")

// DecodePayload parses a catalog payload of the form {"products":[...]}.
// Unknown fields are skipped and null fields are treated as absent, as are
// optional fields of the wrong type. A mistyped id or price fails the payload.
func DecodePayload(data []byte) ([]product.RawRecord, error) {
	var (
		records []product.RawRecord
		found   bool
	)

	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "products" {
			return d.Skip()
		}
		if tt := d.Next(); tt != jx.Array {
			return errors.Wrapf(ErrMalformedPayload, "products is %s", tt)
		}
		found = true
		records = make([]product.RawRecord, 0)
		return d.Arr(func(d *jx.Decoder) error {
			r, err := decodeRecord(d)
			if err != nil {
				return errors.Wrapf(err, "record %d", len(records))
			}
			records = append(records, r)
			return nil
		})
	}); err != nil {
		return nil, errors.Wrap(err, "decode payload")
	}

	if !found {
		return nil, errors.Wrap(ErrMalformedPayload, "missing products")
	}
	return records, nil
}

func decodeRecord(d *jx.Decoder) (product.RawRecord, error) {
	var r product.RawRecord

	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}

		var err error
		switch key {
		case "id":
			var v int64
			if v, err = d.Int64(); err == nil {
				r.ID = &v
			}
		case "price":
			r.Price, err = d.Float64()
		case "title":
			err = optional(d, func(d *jx.Decoder) (err error) {
				r.Title, err = d.Str()
				return err
			})
		case "description":
			err = optional(d, func(d *jx.Decoder) (err error) {
				r.Description, err = d.Str()
				return err
			})
		case "rating":
			err = optional(d, func(d *jx.Decoder) (err error) {
				r.Rating, err = decodeRating(d)
				return err
			})
		case "discountPercentage":
			err = optional(d, func(d *jx.Decoder) error {
				v, err := d.Float64()
				if err == nil {
					r.DiscountPercentage = &v
				}
				return err
			})
		case "stock":
			err = optional(d, func(d *jx.Decoder) error {
				v, err := d.Int64()
				if err == nil {
					r.Stock = &v
				}
				return err
			})
		case "brand":
			err = optional(d, func(d *jx.Decoder) (err error) {
				r.Brand, err = d.Str()
				return err
			})
		case "thumbnail":
			err = optional(d, func(d *jx.Decoder) (err error) {
				r.Thumbnail, err = d.Str()
				return err
			})
		case "images":
			err = optional(d, func(d *jx.Decoder) error {
				v, err := decodeStrings(d)
				if err == nil {
					r.Images = v
				}
				return err
			})
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return r, err
}

// optional decodes a non-required field from its raw value. A value of the
// wrong type leaves the field absent; broken JSON still fails.
func optional(d *jx.Decoder, decode func(d *jx.Decoder) error) error {
	raw, err := d.Raw()
	if err != nil {
		return err
	}
	_ = decode(jx.DecodeBytes(raw))
	return nil
}

// decodeRating accepts both a bare number and a {"rate":N,"count":N} object.
func decodeRating(d *jx.Decoder) (*float64, error) {
	if d.Next() != jx.Object {
		v, err := d.Float64()
		if err != nil {
			return nil, err
		}
		return &v, nil
	}

	var rate *float64
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "rate" || d.Next() == jx.Null {
			return d.Skip()
		}
		v, err := d.Float64()
		if err != nil {
			return err
		}
		rate = &v
		return nil
	})
	return rate, err
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	out := make([]string, 0)
	err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// EncodePayload is the inverse of DecodePayload. Absent optional fields are
// omitted.
func EncodePayload(records []product.RawRecord) []byte {
	var e jx.Encoder

	e.ObjStart()
	e.FieldStart("products")
	e.ArrStart()
	for _, r := range records {
		encodeRecord(&e, r)
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Int(len(records))
	e.ObjEnd()

	return e.Bytes()
}

func encodeRecord(e *jx.Encoder, r product.RawRecord) {
	e.ObjStart()
	if r.ID != nil {
		e.FieldStart("id")
		e.Int64(*r.ID)
	}
	if r.Title != "" {
		e.FieldStart("title")
		e.Str(r.Title)
	}
	if r.Description != "" {
		e.FieldStart("description")
		e.Str(r.Description)
	}
	e.FieldStart("price")
	e.Float64(r.Price)
	if r.Rating != nil {
		e.FieldStart("rating")
		e.Float64(*r.Rating)
	}
	if r.DiscountPercentage != nil {
		e.FieldStart("discountPercentage")
		e.Float64(*r.DiscountPercentage)
	}
	if r.Stock != nil {
		e.FieldStart("stock")
		e.Int64(*r.Stock)
	}
	if r.Brand != "" {
		e.FieldStart("brand")
		e.Str(r.Brand)
	}
	if r.Thumbnail != "" {
		e.FieldStart("thumbnail")
		e.Str(r.Thumbnail)
	}
	if r.Images != nil {
		e.FieldStart("images")
		e.ArrStart()
		for _, img := range r.Images {
			e.Str(img)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
}
