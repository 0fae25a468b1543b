// Package offer computes funding proposals from revenue, withhold, factor
// rate and term inputs. Calculation is pure; persistence of saved offers
// lives in storage.
package offer

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
)

// Month conversion constants. The same constants are used in both
// directions (payment count to months and months to per-period payment) so
// round-trips stay consistent.
const (
	BusinessDaysPerMonth = 21.67
	WeeksPerMonth        = 4.33
	BiweeklyPerMonth     = 2.17
)

// Inputs drive one offer calculation. The three override pointers are
// independent: revenue replaces the aggregated figure, withhold replaces
// the slider value, funded replaces the capacity-derived amount. When both
// withhold and funded are overridden, the funded amount wins for the
// payback and payment figures while the manual withhold still defines the
// cap and utilization.
type Inputs struct {
	RevenueOverride  *float64
	WithholdOverride *float64
	FundedOverride   *float64
	TrueRevenue      float64
	ExistingPayment  float64
	WithholdPercent  float64
	FactorRate       float64
	TermType         model.TermType
	TermValue        int
}

// Quote is the full derived offer payload.
type Quote struct {
	Warnings            []string
	TrueRevenue         float64
	TermMonths          float64
	WithholdPercent     float64
	CapAmount           float64
	NewPaymentAvailable float64
	FundedAmount        float64
	TotalPayback        float64
	MonthlyPayment      float64
	WeeklyPayment       float64
	BiweeklyPayment     float64
	DailyPayment        float64
	Utilization         float64
}

// TermMonths converts a payment count at the given frequency into months.
func TermMonths(termType model.TermType, termValue int) float64 {
	switch termType {
	case model.TermDaily:
		return float64(termValue) / BusinessDaysPerMonth
	case model.TermWeekly:
		return float64(termValue) / WeeksPerMonth
	case model.TermBiweekly:
		return float64(termValue) / BiweeklyPerMonth
	default:
		return float64(termValue)
	}
}

// Validate checks the inputs, reporting the offending field.
func (in *Inputs) Validate() error {
	withhold := in.WithholdPercent
	if in.WithholdOverride != nil {
		withhold = *in.WithholdOverride
	}
	if withhold < 0 || withhold > 100 {
		return common.NewValidationError("withhold_percent", "must be between 0 and 100")
	}
	if in.FactorRate < 1 || in.FactorRate > 2 {
		return common.NewValidationError("factor_rate", "must be between 1.0 and 2.0")
	}
	if in.TermValue <= 0 {
		return common.NewValidationError("term_value", "must be a positive payment count")
	}
	switch in.TermType {
	case model.TermDaily, model.TermWeekly, model.TermBiweekly, model.TermMonthly:
	default:
		return common.NewValidationError("term_type", fmt.Sprintf("unknown term type %q", in.TermType))
	}
	if in.ExistingPayment < 0 {
		return common.NewValidationError("existing_payment", "cannot be negative")
	}
	return nil
}

// Calculate derives the offer. Inputs should be validated first; Calculate
// itself never fails.
func Calculate(in Inputs) Quote {
	q := Quote{
		TrueRevenue: in.TrueRevenue,
		TermMonths:  TermMonths(in.TermType, in.TermValue),
	}
	if in.RevenueOverride != nil {
		q.TrueRevenue = *in.RevenueOverride
	}

	switch {
	case in.FundedOverride != nil:
		// Manual funded amount drives the payment figures; withhold is
		// back-solved from the required payment unless it is also manual.
		q.FundedAmount = *in.FundedOverride
		q.TotalPayback = q.FundedAmount * in.FactorRate
		if q.TermMonths > 0 {
			q.MonthlyPayment = q.TotalPayback / q.TermMonths
		}

		if in.WithholdOverride != nil {
			q.WithholdPercent = *in.WithholdOverride
		} else if q.TrueRevenue > 0 {
			q.WithholdPercent = (in.ExistingPayment + q.MonthlyPayment) / q.TrueRevenue * 100
		}
		q.CapAmount = q.TrueRevenue * q.WithholdPercent / 100
		q.NewPaymentAvailable = math.Max(0, q.CapAmount-in.ExistingPayment)

	default:
		q.WithholdPercent = in.WithholdPercent
		if in.WithholdOverride != nil {
			q.WithholdPercent = *in.WithholdOverride
		}
		q.CapAmount = q.TrueRevenue * q.WithholdPercent / 100
		q.NewPaymentAvailable = math.Max(0, q.CapAmount-in.ExistingPayment)
		q.FundedAmount = q.NewPaymentAvailable * q.TermMonths / in.FactorRate
		q.TotalPayback = q.FundedAmount * in.FactorRate
		if q.TermMonths > 0 {
			q.MonthlyPayment = q.TotalPayback / q.TermMonths
		}
	}

	q.WeeklyPayment = q.MonthlyPayment / WeeksPerMonth
	q.BiweeklyPayment = q.MonthlyPayment / BiweeklyPerMonth
	q.DailyPayment = q.MonthlyPayment / BusinessDaysPerMonth

	if q.CapAmount > 0 {
		q.Utilization = (in.ExistingPayment + q.MonthlyPayment) / q.CapAmount * 100
	}

	q.Warnings = warnings(&in, &q)
	return q
}

func warnings(in *Inputs, q *Quote) []string {
	var out []string
	if q.Utilization > 100 {
		out = append(out, fmt.Sprintf(
			"Total withhold utilization (%.1f%%) exceeds 100%%. This offer may not be viable.", q.Utilization))
	}
	if q.FundedAmount <= 0 && q.TrueRevenue > 0 {
		out = append(out,
			"No funding capacity available. Existing MCA payments consume the full withhold capacity.")
	}
	if in.WithholdOverride != nil && *in.WithholdOverride > 30 {
		out = append(out, fmt.Sprintf(
			"Withhold percentage of %.1f%% is unusually high. Standard range is 5-25%%.", *in.WithholdOverride))
	}
	return out
}

// Snapshot freezes a calculation into a persistable offer record.
func Snapshot(sessionID string, in Inputs, q Quote) *model.Offer {
	o := &model.Offer{
		ID:                  uuid.NewString(),
		SessionID:           sessionID,
		TermType:            in.TermType,
		TermValue:           in.TermValue,
		WithholdPercent:     q.WithholdPercent,
		FactorRate:          in.FactorRate,
		ExistingMCAPayment:  in.ExistingPayment,
		TrueRevenueMonthly:  in.TrueRevenue,
		AdvanceAmount:       q.FundedAmount,
		CapAmount:           q.CapAmount,
		NewPaymentAvailable: q.NewPaymentAvailable,
		TotalPayback:        q.TotalPayback,
		MonthlyPayment:      q.MonthlyPayment,
	}
	if in.RevenueOverride != nil {
		o.RevenueOverride = true
		o.OverrideRevenue = *in.RevenueOverride
	}
	return o
}
