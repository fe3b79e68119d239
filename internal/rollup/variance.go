package rollup

import (
	"slices"

	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Variance compares actual spend with the plan.
type Variance struct {
	Planned decimal.Decimal
	Actual  decimal.Decimal
	Amount  decimal.Decimal
	// Pct is Amount as a percentage of Planned, and zero when nothing was planned.
	Pct decimal.Decimal
}

func ComputeVariance(planned, actual decimal.Decimal) Variance {
	v := Variance{Planned: planned, Actual: actual, Amount: actual.Sub(planned), Pct: decimal.Zero}
	if !planned.IsZero() {
		v.Pct = v.Amount.Div(planned).Mul(hundred)
	}
	return v
}

func VarianceOf(v domain.BucketValues) Variance {
	return ComputeVariance(v.Planned, v.Actual)
}

// Variance returns the variance of code for one bucket.
func (r *Rollup) Variance(code string, b domain.BucketKey) Variance {
	return VarianceOf(r.Bucket(code, b))
}

// Status places actual spend relative to a band around the plan.
type Status string

const (
	StatusAboveBudget Status = "Above-Budget"
	StatusUnderBudget Status = "Under-Budget"
	StatusInBudget    Status = "In-Budget"
)

// DefaultStatusBandPct is the half-width of the in-budget band, in percent
// of planned.
var DefaultStatusBandPct = decimal.NewFromInt(3)

// Classify is Above-Budget when actual exceeds planned by more than bandPct
// percent, Under-Budget when it falls short by more than that, and In-Budget
// otherwise. The band edges themselves count as in budget.
func Classify(v Variance, bandPct decimal.Decimal) Status {
	band := v.Planned.Abs().Mul(bandPct).Div(hundred)
	switch {
	case v.Actual.GreaterThan(v.Planned.Add(band)):
		return StatusAboveBudget
	case v.Actual.LessThan(v.Planned.Sub(band)):
		return StatusUnderBudget
	default:
		return StatusInBudget
	}
}

// ItemVariance is the variance of one budget line over all buckets.
type ItemVariance struct {
	Code  string
	Label string
	Variance
}

// OutOfBudget lists the leaf lines whose actual exceeds planned, largest
// overrun first. Equal overruns keep code order.
func (r *Rollup) OutOfBudget() []ItemVariance {
	var out []ItemVariance
	for _, code := range r.tree.Leaves() {
		v := VarianceOf(r.NodeTotal(code))
		if !v.Actual.GreaterThan(v.Planned) {
			continue
		}
		n, _ := r.tree.Node(code)
		out = append(out, ItemVariance{Code: code, Label: n.Label, Variance: v})
	}
	slices.SortStableFunc(out, func(a, b ItemVariance) int {
		return b.Amount.Cmp(a.Amount)
	})
	return out
}
