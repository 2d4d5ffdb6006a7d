package discount

import (
	"slices"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoConfig is returned by LoadRules when the shop carries no
	// configuration text at all.
	ErrNoConfig = errors.New("no discount configuration")
	// ErrMalformedConfig matches every ConfigError.
	ErrMalformedConfig = errors.New("malformed discount configuration")
)

// ConfigError describes why a configuration text was rejected.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "malformed discount configuration: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is reports ErrMalformedConfig as a match so callers can branch on the
// sentinel without inspecting the cause.
func (e *ConfigError) Is(target error) bool { return target == ErrMalformedConfig }

// Percentage is a discount rate in percent, e.g. 12.5 for 12.5% off.
//
// The range is not checked. Negative values and values above 100 are carried
// through exactly as the merchant configured them; the checkout host is the
// one that decides what to do with them.
type Percentage struct {
	d decimal.Decimal
}

// NewPercentage wraps d without any range check.
func NewPercentage(d decimal.Decimal) Percentage {
	return Percentage{d: d}
}

// ParsePercentage parses a decimal literal such as "10", "12.5" or "1e1".
// Literals beyond the float64 range, such as "1e400", are rejected.
func ParsePercentage(s string) (Percentage, error) {
	if _, err := strconv.ParseFloat(s, 64); errors.Is(err, strconv.ErrRange) {
		return Percentage{}, errors.Errorf("percentage %q out of range", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Percentage{}, errors.Wrapf(err, "parse percentage %q", s)
	}
	return Percentage{d: d}, nil
}

// Decimal returns the underlying value.
func (p Percentage) Decimal() decimal.Decimal { return p.d }

// Equal reports whether both percentages denote the same number.
func (p Percentage) Equal(o Percentage) bool { return p.d.Equal(o.d) }

// String renders the value in its natural decimal form without exponent or
// trailing zeros: 10 -> "10", 12.50 -> "12.5".
func (p Percentage) String() string { return p.d.String() }

// Rule is one merchant-configured volume offer for a product.
type Rule struct {
	ProductID  string
	Percentage Percentage

	// MinQuantity is the smallest line quantity that qualifies. The sign is
	// not checked: zero or a negative value lets every line of the product
	// qualify.
	MinQuantity int64
}

// RuleSet is the ordered, immutable list of rules for one invocation.
//
// Product IDs are not required to be unique. Only the first rule for a
// product is ever considered; later duplicates are kept in Rules for
// inspection but never match.
type RuleSet struct {
	rules []Rule
	first map[string]int
}

// NewRuleSet copies rules into a RuleSet, preserving their order.
func NewRuleSet(rules ...Rule) RuleSet {
	s := RuleSet{
		rules: slices.Clone(rules),
		first: make(map[string]int, len(rules)),
	}
	for i, r := range s.rules {
		if _, ok := s.first[r.ProductID]; !ok {
			s.first[r.ProductID] = i
		}
	}
	return s
}

// Len returns the number of configured rules, duplicates included.
func (s RuleSet) Len() int { return len(s.rules) }

// Rules returns a copy of the rules in configuration order.
func (s RuleSet) Rules() []Rule { return slices.Clone(s.rules) }

// Lookup returns the first rule configured for productID.
func (s RuleSet) Lookup(productID string) (Rule, bool) {
	i, ok := s.first[productID]
	if !ok {
		return Rule{}, false
	}
	return s.rules[i], true
}

// LoadRules turns the raw configuration text into a RuleSet.
//
// A nil raw means the shop has no configuration and yields ErrNoConfig. Any
// text that is not an array of rule records yields a *ConfigError.
func LoadRules(raw *string) (RuleSet, error) {
	if raw == nil {
		return RuleSet{}, ErrNoConfig
	}
	rules, err := ParseRules([]byte(*raw))
	if err != nil {
		return RuleSet{}, err
	}
	return NewRuleSet(rules...), nil
}

// ParseRules decodes a JSON array of rule records:
//
//	[{"productId": "gid://shopify/Product/1", "discountPercentage": 10, "minQuantity": 2}]
//
// All three fields are required and must not be null or repeated. Unknown
// fields are ignored.
func ParseRules(data []byte) ([]Rule, error) {
	if !jx.Valid(data) {
		return nil, &ConfigError{Err: errors.New("invalid json")}
	}

	d := jx.DecodeBytes(data)
	if t := d.Next(); t != jx.Array {
		return nil, &ConfigError{Err: errors.Errorf("expected array, got %s", t)}
	}

	rules := []Rule{}
	if err := d.Arr(func(d *jx.Decoder) error {
		r, err := decodeRule(d)
		if err != nil {
			return errors.Wrapf(err, "rule %d", len(rules))
		}
		rules = append(rules, r)
		return nil
	}); err != nil {
		return nil, &ConfigError{Err: err}
	}

	return rules, nil
}

func decodeRule(d *jx.Decoder) (Rule, error) {
	if t := d.Next(); t != jx.Object {
		return Rule{}, errors.Errorf("expected object, got %s", t)
	}

	var (
		r                              Rule
		hasProduct, hasPercent, hasMin bool
	)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "productId":
			if hasProduct {
				return errors.New("duplicate field productId")
			}
			hasProduct = true

			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "productId")
			}
			r.ProductID = v
		case "discountPercentage":
			if hasPercent {
				return errors.New("duplicate field discountPercentage")
			}
			hasPercent = true

			if t := d.Next(); t != jx.Number {
				return errors.Errorf("discountPercentage: expected number, got %s", t)
			}
			n, err := d.Num()
			if err != nil {
				return errors.Wrap(err, "discountPercentage")
			}
			p, err := ParsePercentage(n.String())
			if err != nil {
				return err
			}
			r.Percentage = p
		case "minQuantity":
			if hasMin {
				return errors.New("duplicate field minQuantity")
			}
			hasMin = true

			if t := d.Next(); t != jx.Number {
				return errors.Errorf("minQuantity: expected integer, got %s", t)
			}
			v, err := d.Int64()
			if err != nil {
				return errors.Wrap(err, "minQuantity")
			}
			r.MinQuantity = v
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return Rule{}, err
	}

	switch {
	case !hasProduct:
		return Rule{}, errors.New("missing field productId")
	case !hasPercent:
		return Rule{}, errors.New("missing field discountPercentage")
	case !hasMin:
		return Rule{}, errors.New("missing field minQuantity")
	}
	return r, nil
}
