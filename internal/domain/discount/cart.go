package discount

import (
	"iter"
	"slices"
)

// Merchandise is what a cart line refers to.
//
// The set of kinds is closed to this package: ProductVariant, CustomProduct
// and UnknownMerchandise. Adding a kind means adding a type here and
// revisiting the switch in RuleSet.Match.
type Merchandise interface {
	merchandise()
}

// ProductVariant is a catalog variant of a product. Rules are keyed by
// ProductID; discounts target ID.
type ProductVariant struct {
	ID        string
	ProductID string
}

// CustomProduct is a line item that is not backed by the catalog, e.g. a
// gift wrap fee. It never receives a discount.
type CustomProduct struct {
	Title string
}

// UnknownMerchandise is a line of a kind the host added after this engine was
// written, e.g. a gift card. It is kept in the cart but never discounted.
type UnknownMerchandise struct {
	Typename string
}

func (ProductVariant) merchandise()     {}
func (CustomProduct) merchandise()      {}
func (UnknownMerchandise) merchandise() {}

// CartLine is one entry of the host's cart.
type CartLine struct {
	Merchandise Merchandise
	Quantity    int64
}

// Scan yields lines once, in host order, without filtering.
func Scan(lines []CartLine) iter.Seq[CartLine] {
	return slices.Values(lines)
}
