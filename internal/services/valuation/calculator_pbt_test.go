package valuation

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/bobmcallan/fundval/internal/models"
)

func TestCalculatorProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("profit matches shares times NAV delta within rounding", prop.ForAll(
		func(amount, prev, delta float64) bool {
			est := prev + delta
			got := RealtimeProfit(amount, prev, est)
			want := amount / prev * (est - prev)
			return math.Abs(got-want) <= 0.005+1e-9
		},
		gen.Float64Range(1, 1e6),
		gen.Float64Range(0.1, 10),
		gen.Float64Range(-0.5, 0.5),
	))

	properties.Property("profit sign follows estimate direction", prop.ForAll(
		func(amount, prev, delta float64) bool {
			got := RealtimeProfit(amount, prev, prev+delta)
			return (delta >= 0 && got >= 0) || (delta <= 0 && got <= 0)
		},
		gen.Float64Range(1, 1e6),
		gen.Float64Range(0.1, 10),
		gen.Float64Range(-0.5, 0.5),
	))

	properties.Property("missing quote never reports profit", prop.ForAll(
		func(amount, holdProfit float64) bool {
			e := Calculate(models.FundHolding{Code: "000001", Amount: amount, HoldProfit: holdProfit}, nil)
			return e.Status == models.StatusPartial &&
				e.RealtimeProfit == 0 &&
				e.Amount == amount &&
				e.HoldProfit == holdProfit
		},
		gen.Float64Range(0, 1e6),
		gen.Float64Range(-1e4, 1e4),
	))

	properties.TestingRun(t)
}
