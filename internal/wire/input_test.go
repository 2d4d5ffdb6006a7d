package wire

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/volume-discount/internal/domain/discount"
)

func TestDecodeInput(t *testing.T) {
	rules := `[{"productId":"P1","discountPercentage":10,"minQuantity":3}]`

	tests := []struct {
		name  string
		input string
		want  discount.Input
	}{
		{
			name: "variant and custom lines with config",
			input: `{
				"cart": {"lines": [
					{"quantity": 3, "merchandise": {"__typename": "ProductVariant", "id": "V1", "product": {"id": "P1"}}},
					{"quantity": 1, "merchandise": {"__typename": "CustomProduct", "title": "Engraving"}}
				]},
				"shop": {"metafield": {"value": "[{\"productId\":\"P1\",\"discountPercentage\":10,\"minQuantity\":3}]"}}
			}`,
			want: discount.Input{
				Lines: []discount.CartLine{
					{Merchandise: discount.ProductVariant{ID: "V1", ProductID: "P1"}, Quantity: 3},
					{Merchandise: discount.CustomProduct{Title: "Engraving"}, Quantity: 1},
				},
				Config: &rules,
			},
		},
		{
			name:  "typename after fields",
			input: `{"cart":{"lines":[{"merchandise":{"id":"V1","product":{"id":"P1"},"__typename":"ProductVariant"},"quantity":2}]}}`,
			want: discount.Input{
				Lines: []discount.CartLine{
					{Merchandise: discount.ProductVariant{ID: "V1", ProductID: "P1"}, Quantity: 2},
				},
			},
		},
		{
			name:  "shop absent",
			input: `{"cart":{"lines":[]}}`,
			want:  discount.Input{Lines: []discount.CartLine{}},
		},
		{
			name:  "shop null",
			input: `{"cart":{"lines":[]},"shop":null}`,
			want:  discount.Input{Lines: []discount.CartLine{}},
		},
		{
			name:  "metafield null",
			input: `{"cart":{"lines":[]},"shop":{"metafield":null}}`,
			want:  discount.Input{Lines: []discount.CartLine{}},
		},
		{
			name:  "value null",
			input: `{"cart":{"lines":[]},"shop":{"metafield":{"value":null}}}`,
			want:  discount.Input{Lines: []discount.CartLine{}},
		},
		{
			name: "unknown fields skipped",
			input: `{
				"cart": {"cost": {"total": "9.99"}, "lines": [
					{"id": "gid://line/1", "quantity": 1, "merchandise": {"__typename": "CustomProduct", "sku": null}}
				]},
				"localization": {"country": "CA"}
			}`,
			want: discount.Input{
				Lines: []discount.CartLine{
					{Merchandise: discount.CustomProduct{}, Quantity: 1},
				},
			},
		},
		{
			name:  "unknown merchandise kind",
			input: `{"cart":{"lines":[{"quantity":1,"merchandise":{"__typename":"GiftCard","id":"G1"}}]}}`,
			want: discount.Input{
				Lines: []discount.CartLine{
					{Merchandise: discount.UnknownMerchandise{Typename: "GiftCard"}, Quantity: 1},
				},
			},
		},
		{
			name:  "cart without lines",
			input: `{"cart":{}}`,
			want:  discount.Input{Lines: []discount.CartLine{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInput([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInput_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "not json", input: `{cart`, wantErr: "malformed json"},
		{name: "trailing data", input: `{"cart":{"lines":[]}} {}`, wantErr: "malformed json"},
		{name: "array root", input: `[]`, wantErr: "expected object"},
		{name: "missing cart", input: `{"shop":null}`, wantErr: "missing cart"},
		{name: "lines not array", input: `{"cart":{"lines":{}}}`, wantErr: "lines"},
		{
			name:    "missing typename",
			input:   `{"cart":{"lines":[{"quantity":1,"merchandise":{"id":"V1","product":{"id":"P1"}}}]}}`,
			wantErr: "missing __typename",
		},
		{
			name:    "variant without product",
			input:   `{"cart":{"lines":[{"quantity":1,"merchandise":{"__typename":"ProductVariant","id":"V1"}}]}}`,
			wantErr: "requires id and product.id",
		},
		{
			name:    "missing quantity",
			input:   `{"cart":{"lines":[{"merchandise":{"__typename":"CustomProduct"}}]}}`,
			wantErr: "missing quantity",
		},
		{
			name:    "missing merchandise",
			input:   `{"cart":{"lines":[{"quantity":1}]}}`,
			wantErr: "missing merchandise",
		},
		{
			name:    "fractional quantity",
			input:   `{"cart":{"lines":[{"quantity":1.5,"merchandise":{"__typename":"CustomProduct"}}]}}`,
			wantErr: "quantity",
		},
		{
			name:    "value not string",
			input:   `{"cart":{"lines":[]},"shop":{"metafield":{"value":[]}}}`,
			wantErr: "value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInput([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeInput_LinePosition(t *testing.T) {
	input := `{"cart":{"lines":[
		{"quantity":1,"merchandise":{"__typename":"CustomProduct"}},
		{"merchandise":{"__typename":"CustomProduct"}}
	]}}`

	_, err := DecodeInput([]byte(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestDecodeInput_UnknownMerchandiseKeepsOtherDiscounts(t *testing.T) {
	input := `{
		"cart": {"lines": [
			{"quantity": 3, "merchandise": {"__typename": "ProductVariant", "id": "V1", "product": {"id": "P1"}}},
			{"quantity": 1, "merchandise": {"__typename": "GiftCard", "id": "G1"}}
		]},
		"shop": {"metafield": {"value": "[{\"productId\":\"P1\",\"discountPercentage\":10,\"minQuantity\":3}]"}}
	}`

	in, err := DecodeInput([]byte(input))
	require.NoError(t, err)
	require.Len(t, in.Lines, 2)

	res := discount.Run(context.Background(), in)
	require.Len(t, res.Discounts, 1)
	assert.Equal(t, "V1", res.Discounts[0].Targets[0].ProductVariant.ID)
	assert.Equal(t, "10% off", *res.Discounts[0].Message)
}
