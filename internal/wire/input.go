// Package wire converts between the checkout host's JSON documents and the
// discount engine's types.
package wire

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/volume-discount/internal/domain/discount"
)

// ErrInvalidInput matches every error returned by DecodeInput.
var ErrInvalidInput = errors.New("invalid function input")

// Merchandise type names used by the host.
const (
	TypeProductVariant = "ProductVariant"
	TypeCustomProduct  = "CustomProduct"
)

// DecodeInput parses a host input document:
//
//	{
//	  "cart": {"lines": [{"quantity": 3, "merchandise": {
//	    "__typename": "ProductVariant", "id": "...", "product": {"id": "..."}}}]},
//	  "shop": {"metafield": {"value": "[...]"}}
//	}
//
// A missing or null shop, metafield or value leaves Input.Config nil.
// Unknown fields are skipped. Merchandise of an unknown __typename decodes to
// discount.UnknownMerchandise so the rest of the cart is still evaluated.
func DecodeInput(data []byte) (discount.Input, error) {
	in, err := decodeInput(data)
	if err != nil {
		return discount.Input{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return in, nil
}

func decodeInput(data []byte) (discount.Input, error) {
	if !jx.Valid(data) {
		return discount.Input{}, errors.New("malformed json")
	}

	var (
		in      discount.Input
		hasCart bool
	)
	d := jx.DecodeBytes(data)
	if err := expect(d, jx.Object); err != nil {
		return discount.Input{}, err
	}
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "cart":
			hasCart = true
			lines, err := decodeCart(d)
			if err != nil {
				return errors.Wrap(err, "cart")
			}
			in.Lines = lines
		case "shop":
			cfg, err := decodeShop(d)
			if err != nil {
				return errors.Wrap(err, "shop")
			}
			in.Config = cfg
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return discount.Input{}, err
	}
	if !hasCart {
		return discount.Input{}, errors.New("missing cart")
	}

	return in, nil
}

func decodeCart(d *jx.Decoder) ([]discount.CartLine, error) {
	if err := expect(d, jx.Object); err != nil {
		return nil, err
	}

	lines := []discount.CartLine{}
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "lines" {
			return d.Skip()
		}
		if err := expect(d, jx.Array); err != nil {
			return errors.Wrap(err, "lines")
		}
		return d.Arr(func(d *jx.Decoder) error {
			line, err := decodeLine(d)
			if err != nil {
				return errors.Wrapf(err, "line %d", len(lines))
			}
			lines = append(lines, line)
			return nil
		})
	}); err != nil {
		return nil, err
	}

	return lines, nil
}

func decodeLine(d *jx.Decoder) (discount.CartLine, error) {
	if err := expect(d, jx.Object); err != nil {
		return discount.CartLine{}, err
	}

	var (
		line   discount.CartLine
		hasQty bool
	)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "quantity":
			v, err := d.Int64()
			if err != nil {
				return errors.Wrap(err, "quantity")
			}
			line.Quantity = v
			hasQty = true
		case "merchandise":
			m, err := decodeMerchandise(d)
			if err != nil {
				return errors.Wrap(err, "merchandise")
			}
			line.Merchandise = m
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return discount.CartLine{}, err
	}

	switch {
	case !hasQty:
		return discount.CartLine{}, errors.New("missing quantity")
	case line.Merchandise == nil:
		return discount.CartLine{}, errors.New("missing merchandise")
	}
	return line, nil
}

func decodeMerchandise(d *jx.Decoder) (discount.Merchandise, error) {
	if err := expect(d, jx.Object); err != nil {
		return nil, err
	}

	// __typename may come after the fields it qualifies, so collect first.
	var typename, id, productID, title string
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "__typename":
			typename, err = d.Str()
		case "id":
			id, err = d.Str()
		case "title":
			title, err = optStr(d)
		case "product":
			productID, err = decodeProductID(d)
		default:
			return d.Skip()
		}
		return errors.Wrap(err, string(key))
	}); err != nil {
		return nil, err
	}

	switch typename {
	case TypeProductVariant:
		if id == "" || productID == "" {
			return nil, errors.New("product variant requires id and product.id")
		}
		return discount.ProductVariant{ID: id, ProductID: productID}, nil
	case TypeCustomProduct:
		return discount.CustomProduct{Title: title}, nil
	case "":
		return nil, errors.New("missing __typename")
	default:
		return discount.UnknownMerchandise{Typename: typename}, nil
	}
}

func decodeProductID(d *jx.Decoder) (string, error) {
	if err := expect(d, jx.Object); err != nil {
		return "", err
	}

	var id string
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "id" {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return errors.Wrap(err, "id")
		}
		id = v
		return nil
	}); err != nil {
		return "", err
	}
	return id, nil
}

func decodeShop(d *jx.Decoder) (*string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	if err := expect(d, jx.Object); err != nil {
		return nil, err
	}

	var value *string
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "metafield" {
			return d.Skip()
		}
		v, err := decodeMetafieldValue(d)
		if err != nil {
			return errors.Wrap(err, "metafield")
		}
		value = v
		return nil
	}); err != nil {
		return nil, err
	}
	return value, nil
}

func decodeMetafieldValue(d *jx.Decoder) (*string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	if err := expect(d, jx.Object); err != nil {
		return nil, err
	}

	var value *string
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "value" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			value = nil
			return d.Null()
		}
		v, err := d.Str()
		if err != nil {
			return errors.Wrap(err, "value")
		}
		value = &v
		return nil
	}); err != nil {
		return nil, err
	}
	return value, nil
}

func optStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func expect(d *jx.Decoder, want jx.Type) error {
	if got := d.Next(); got != want {
		return errors.Errorf("expected %s, got %s", want, got)
	}
	return nil
}
