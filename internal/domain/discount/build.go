package discount

// Build turns a match into the discount for its line. The target carries no
// quantity, so the whole line is discounted.
func Build(m Match) Discount {
	pct := m.Rule.Percentage.String()
	msg := pct + "% off"

	return Discount{
		Message: &msg,
		Targets: []Target{
			{ProductVariant: &ProductVariantTarget{ID: m.Variant.ID}},
		},
		Value: Value{
			Percentage: &PercentageValue{Value: pct},
		},
	}
}
