package discount

// ApplicationStrategy tells the host how to apply the returned discounts.
type ApplicationStrategy string

// StrategyFirst applies discounts in the order given, without combining or
// reordering them. It is the only strategy this engine emits.
const StrategyFirst ApplicationStrategy = "First"

// Discount is a percentage discount for one cart line.
type Discount struct {
	Message *string
	Targets []Target
	Value   Value
}

// Target selects what a discount applies to. Exactly one field is set.
type Target struct {
	ProductVariant *ProductVariantTarget
}

// ProductVariantTarget points at a variant. A nil Quantity means the entire
// quantity of the line.
type ProductVariantTarget struct {
	ID       string
	Quantity *int64
}

// Value is the amount of a discount. Exactly one field is set.
type Value struct {
	Percentage *PercentageValue
}

// PercentageValue holds a percentage rendered as decimal text.
type PercentageValue struct {
	Value string
}

// Result is what the engine hands back to the host.
type Result struct {
	Discounts []Discount
	Strategy  ApplicationStrategy
}

// Empty returns the canonical "no discount" result. Every fail-safe path and
// the case where nothing matched produce exactly this value. Discounts is
// empty but non-nil.
func Empty() Result {
	return Result{
		Discounts: []Discount{},
		Strategy:  StrategyFirst,
	}
}
