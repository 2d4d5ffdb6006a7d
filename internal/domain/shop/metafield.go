// Package shop describes the shop-level key/value attributes (metafields)
// the checkout host keeps for a merchant.
package shop

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrMetafieldNotFound is returned when the shop has no metafield under the
// requested namespace and key.
var ErrMetafieldNotFound = errors.New("metafield not found")

// Discount rules live under this namespace and key unless configured
// otherwise.
const (
	DefaultNamespace = "volume_discount"
	DefaultKey       = "rules"
)

// MetafieldKey addresses one metafield of one shop.
type MetafieldKey struct {
	ShopID    string
	Namespace string
	Key       string
}

// Metafield is a stored attribute. Value is nil when the attribute exists
// but carries no value.
type Metafield struct {
	MetafieldKey
	Value *string
}

// Repository looks up metafields. It is read-only: rule configuration is
// written by the merchant admin, outside this service.
type Repository interface {
	FindMetafield(ctx context.Context, key MetafieldKey) (*Metafield, error)
}

// ConfigText fetches the raw configuration text for key. A missing
// metafield is reported as a nil text, the same as a metafield without a
// value.
func ConfigText(ctx context.Context, repo Repository, key MetafieldKey) (*string, error) {
	mf, err := repo.FindMetafield(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMetafieldNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find metafield")
	}
	return mf.Value, nil
}
