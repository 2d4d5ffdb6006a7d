// Package discount decides which cart lines receive a volume discount.
//
// An invocation is a pure function of the cart and the shop's raw rule
// configuration: the rules are parsed, every line is matched against them
// in cart order, and each qualifying line yields one percentage discount.
// Configuration problems never fail an invocation; they collapse into the
// empty result.
package discount

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Input is everything an invocation needs.
type Input struct {
	Lines []CartLine
	// Config is the raw rule configuration. It is nil when the shop has no
	// configuration attribute, or the attribute has no value.
	Config *string
}

// Outcome classifies how an invocation ended. It is informational only: the
// Result is the same for every outcome that produced no discounts.
type Outcome int

const (
	// OutcomeEvaluated means the configuration parsed and every line was
	// matched against it. Zero discounts is a valid evaluated outcome.
	OutcomeEvaluated Outcome = iota
	// OutcomeNoConfig means there was no configuration text.
	OutcomeNoConfig
	// OutcomeMalformedConfig means the configuration text did not parse.
	OutcomeMalformedConfig
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEvaluated:
		return "evaluated"
	case OutcomeNoConfig:
		return "no_config"
	case OutcomeMalformedConfig:
		return "malformed_config"
	default:
		return "unknown"
	}
}

// Run evaluates in and returns the discounts for the host.
func Run(ctx context.Context, in Input) Result {
	res, _ := Evaluate(ctx, in)
	return res
}

// Evaluate is Run that also reports the outcome. The logger is taken from
// ctx; nothing in an invocation blocks, so ctx is never checked for
// cancellation.
func Evaluate(ctx context.Context, in Input) (Result, Outcome) {
	lg := zctx.From(ctx)

	rules, err := LoadRules(in.Config)
	switch {
	case errors.Is(err, ErrNoConfig):
		lg.Debug("No discount configuration found")
		return Empty(), OutcomeNoConfig
	case err != nil:
		lg.Warn("Failed to parse discount configuration", zap.Error(err))
		return Empty(), OutcomeMalformedConfig
	}

	var discounts []Discount
	for line := range Scan(in.Lines) {
		m, ok := rules.Match(line)
		if !ok {
			continue
		}
		discounts = append(discounts, Build(m))
	}

	lg.Debug("Applied discounts",
		zap.Int("count", len(discounts)),
		zap.Int("lines", len(in.Lines)),
		zap.Int("rules", rules.Len()),
	)
	return aggregate(discounts), OutcomeEvaluated
}

// aggregate wraps discounts, already in cart line order, into a Result.
func aggregate(discounts []Discount) Result {
	if len(discounts) == 0 {
		return Empty()
	}
	return Result{
		Discounts: discounts,
		Strategy:  StrategyFirst,
	}
}
