package discount

// Match is a cart line that qualified for a rule.
type Match struct {
	Variant  ProductVariant
	Quantity int64
	Rule     Rule
}

// Match selects the rule that applies to line, if any.
//
// Only product variants can match. The first rule configured for the
// variant's product is used, and the line must carry at least MinQuantity
// units. A rule that exists but fails the quantity gate is an ordinary
// no-match.
func (s RuleSet) Match(line CartLine) (Match, bool) {
	var variant ProductVariant
	switch m := line.Merchandise.(type) {
	case ProductVariant:
		variant = m
	case CustomProduct, UnknownMerchandise:
		return Match{}, false
	default:
		return Match{}, false
	}

	rule, ok := s.Lookup(variant.ProductID)
	if !ok {
		return Match{}, false
	}
	if line.Quantity < rule.MinQuantity {
		return Match{}, false
	}

	return Match{
		Variant:  variant,
		Quantity: line.Quantity,
		Rule:     rule,
	}, true
}
