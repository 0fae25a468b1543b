// Package risk derives descriptive underwriting risk tiers from aggregated
// cash flow and MCA exposure. The output informs a human decision; it never
// approves or declines on its own.
package risk

import "fmt"

// DebtTier grades total MCA funding against monthly true revenue.
type DebtTier string

// Debt-to-revenue tiers, half-open percentage intervals.
const (
	DebtLow      DebtTier = "low"       // [0, 25)
	DebtModerate DebtTier = "moderate"  // [25, 50)
	DebtHigh     DebtTier = "high"      // [50, 75)
	DebtVeryHigh DebtTier = "very_high" // [75, inf)
)

// BurdenTier grades monthly MCA payments against monthly true revenue.
type BurdenTier string

// Payment-burden tiers, half-open percentage intervals.
const (
	BurdenManageable BurdenTier = "manageable" // [0, 10)
	BurdenModerate   BurdenTier = "moderate"   // [10, 20)
	BurdenHeavy      BurdenTier = "heavy"      // [20, 30)
	BurdenSevere     BurdenTier = "severe"     // [30, inf)
)

// StackingTier grades how many distinct lenders are being paid at once.
type StackingTier string

// Stacking tiers by distinct-lender count.
const (
	StackingLow      StackingTier = "low"      // fewer than 2
	StackingModerate StackingTier = "moderate" // exactly 2
	StackingHigh     StackingTier = "high"     // 3 or more
)

// Inputs are the combined figures the scorer consumes.
type Inputs struct {
	TrueRevenueMonthly float64
	TotalFunding       float64
	TotalPayments      float64
	LenderCount        int
}

// Assessment is the descriptive risk payload.
type Assessment struct {
	DebtTier         DebtTier
	BurdenTier       BurdenTier
	StackingTier     StackingTier
	Recommendation   string
	Detail           string
	DebtToRevenue    float64
	PaymentToRevenue float64
	LenderCount      int
}

// Score computes the ratio and stacking tiers. Ratios are percentages and
// zero when revenue is non-positive.
func Score(in Inputs) Assessment {
	a := Assessment{LenderCount: in.LenderCount}

	if in.TrueRevenueMonthly > 0 {
		a.DebtToRevenue = in.TotalFunding / in.TrueRevenueMonthly * 100
		a.PaymentToRevenue = in.TotalPayments / in.TrueRevenueMonthly * 100
	}

	switch {
	case a.DebtToRevenue < 25:
		a.DebtTier = DebtLow
	case a.DebtToRevenue < 50:
		a.DebtTier = DebtModerate
	case a.DebtToRevenue < 75:
		a.DebtTier = DebtHigh
	default:
		a.DebtTier = DebtVeryHigh
	}

	switch {
	case a.PaymentToRevenue < 10:
		a.BurdenTier = BurdenManageable
	case a.PaymentToRevenue < 20:
		a.BurdenTier = BurdenModerate
	case a.PaymentToRevenue < 30:
		a.BurdenTier = BurdenHeavy
	default:
		a.BurdenTier = BurdenSevere
	}

	switch {
	case in.LenderCount >= 3:
		a.StackingTier = StackingHigh
	case in.LenderCount == 2:
		a.StackingTier = StackingModerate
	default:
		a.StackingTier = StackingLow
	}

	a.Recommendation, a.Detail = recommendation(a.DebtTier)
	return a
}

func recommendation(tier DebtTier) (headline, detail string) {
	switch tier {
	case DebtLow:
		return "Recommended for New MCA",
			"Low existing debt load. Merchant has capacity for additional funding."
	case DebtModerate:
		return "Proceed with Caution",
			"Moderate debt level. Consider smaller funding amount or verify existing MCA payoff dates."
	case DebtHigh:
		return "High Risk - Additional Review Required",
			"Significant existing MCA debt. Requires manager approval and careful underwriting."
	default:
		return "Not Recommended",
			"Merchant is heavily stacked with MCA debt. High risk of default. Consider decline or consolidation offer only."
	}
}

// Summary renders a one-line description of the assessment.
func (a *Assessment) Summary() string {
	return fmt.Sprintf("debt-to-revenue %.1f%% (%s), payment burden %.1f%% (%s), %d lenders (%s stacking)",
		a.DebtToRevenue, a.DebtTier, a.PaymentToRevenue, a.BurdenTier, a.LenderCount, a.StackingTier)
}
