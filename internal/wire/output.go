package wire

import (
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/volume-discount/internal/domain/discount"
)

// EncodeResult renders res as a host output document. The application
// strategy is written as the host's enum literal, e.g. "FIRST".
func EncodeResult(res discount.Result) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	WriteResult(e, res)
	return append([]byte(nil), e.Bytes()...)
}

// WriteResult writes res to e.
func WriteResult(e *jx.Encoder, res discount.Result) {
	e.ObjStart()
	e.FieldStart("discounts")
	e.ArrStart()
	for _, d := range res.Discounts {
		writeDiscount(e, d)
	}
	e.ArrEnd()
	e.FieldStart("discountApplicationStrategy")
	e.Str(StrategyLiteral(res.Strategy))
	e.ObjEnd()
}

// StrategyLiteral maps an application strategy to its enum literal.
func StrategyLiteral(s discount.ApplicationStrategy) string {
	return strings.ToUpper(string(s))
}

func writeDiscount(e *jx.Encoder, d discount.Discount) {
	e.ObjStart()
	if d.Message != nil {
		e.FieldStart("message")
		e.Str(*d.Message)
	}
	e.FieldStart("targets")
	e.ArrStart()
	for _, t := range d.Targets {
		writeTarget(e, t)
	}
	e.ArrEnd()
	e.FieldStart("value")
	writeValue(e, d.Value)
	e.ObjEnd()
}

func writeTarget(e *jx.Encoder, t discount.Target) {
	e.ObjStart()
	if pv := t.ProductVariant; pv != nil {
		e.FieldStart("productVariant")
		e.ObjStart()
		e.FieldStart("id")
		e.Str(pv.ID)
		if pv.Quantity != nil {
			e.FieldStart("quantity")
			e.Int64(*pv.Quantity)
		}
		e.ObjEnd()
	}
	e.ObjEnd()
}

func writeValue(e *jx.Encoder, v discount.Value) {
	e.ObjStart()
	if p := v.Percentage; p != nil {
		e.FieldStart("percentage")
		e.ObjStart()
		e.FieldStart("value")
		e.Str(p.Value)
		e.ObjEnd()
	}
	e.ObjEnd()
}
