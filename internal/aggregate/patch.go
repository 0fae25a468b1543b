package aggregate

import (
	"fmt"
	"log/slog"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
)

// Delta is the documented effect of toggling one credit's adjustment flag:
// marking moves the amount from true revenue into adjustments, unmarking
// moves it back.
type Delta struct {
	MonthKey       string
	Amount         float64
	MarkAdjustment bool
}

// DeltaFor builds the patch for a transaction whose adjustment flag was
// just toggled to marked.
func DeltaFor(txn *model.Transaction, marked bool) Delta {
	return Delta{
		MonthKey:       txn.MonthKey(),
		Amount:         txn.Amount,
		MarkAdjustment: marked,
	}
}

// ApplyDelta patches a previous aggregation in place of a full recompute.
// The input is not mutated.
func ApplyDelta(prev Result, d Delta) Result {
	patched := Result{Months: make([]MonthBucket, len(prev.Months))}
	copy(patched.Months, prev.Months)

	amount := d.Amount
	if !d.MarkAdjustment {
		amount = -amount
	}

	for i := range patched.Months {
		if patched.Months[i].MonthKey != d.MonthKey {
			continue
		}
		patched.Months[i].Adjustments += amount
		patched.Months[i].recomputeDerived()
		break
	}

	patched.recomputeSummary()
	return patched
}

// VerifyPatch checks that a patched aggregation agrees with a full
// recompute on the fields the delta touches. Divergence means a defect in
// one of the two paths.
func VerifyPatch(patched, recomputed *Result) error {
	if len(patched.Months) != len(recomputed.Months) {
		return fmt.Errorf("month count %d vs %d: %w",
			len(patched.Months), len(recomputed.Months), common.ErrAggregationInconsistent)
	}

	for i := range patched.Months {
		p, r := &patched.Months[i], &recomputed.Months[i]
		if p.MonthKey != r.MonthKey {
			return fmt.Errorf("month %s vs %s: %w", p.MonthKey, r.MonthKey, common.ErrAggregationInconsistent)
		}
		if !floatsEqual(p.Adjustments, r.Adjustments) ||
			!floatsEqual(p.TrueRevenue, r.TrueRevenue) ||
			!floatsEqual(p.AverageDaily, r.AverageDaily) {
			return fmt.Errorf("month %s: patched %v, recomputed %v: %w",
				p.MonthKey, p, r, common.ErrAggregationInconsistent)
		}
	}
	return nil
}

// PatchOrRecompute applies the delta to the previous aggregation and cross
// checks it against a full recompute of the current transactions. On
// divergence the full recompute wins and the defect is logged.
func PatchOrRecompute(prev Result, d Delta, txns []model.Transaction, isNSF func(string) bool) Result {
	patched := ApplyDelta(prev, d)
	recomputed := Aggregate(txns, isNSF)

	if err := VerifyPatch(&patched, &recomputed); err != nil {
		slog.Error("Incremental aggregation diverged from full recompute, using recompute",
			"month", d.MonthKey,
			"error", err)
		return recomputed
	}
	return patched
}
