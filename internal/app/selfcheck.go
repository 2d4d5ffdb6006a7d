package app

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/volume-discount/internal/domain/discount"
)

var (
	selfCheckRules = `[{"productId":"self-check","discountPercentage":10,"minQuantity":2}]`
	selfCheckInput = discount.Input{
		Lines: []discount.CartLine{
			{Merchandise: discount.ProductVariant{ID: "self-check-variant", ProductID: "self-check"}, Quantity: 2},
		},
		Config: &selfCheckRules,
	}
)

// engineCheck runs a fixed cart through the engine and verifies the single
// expected discount comes back.
func engineCheck(ctx context.Context) error {
	res, outcome := discount.Evaluate(ctx, selfCheckInput)
	if outcome != discount.OutcomeEvaluated {
		return errors.Errorf("unexpected outcome %s", outcome)
	}
	if len(res.Discounts) != 1 {
		return errors.Errorf("expected 1 discount, got %d", len(res.Discounts))
	}
	if msg := res.Discounts[0].Message; msg == nil || *msg != "10% off" {
		return errors.New("unexpected discount message")
	}
	return nil
}
