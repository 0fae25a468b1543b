// Package aggregate folds classified transactions into per-month cash-flow
// buckets and combined underwriting totals. Full recomputation and
// incremental patching are both supported and must always converge.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hollisfi/ledgerlens/internal/model"
)

// MonthBucket is one calendar month of classified cash flow.
type MonthBucket struct {
	MonthKey     string
	Deposits     float64
	Adjustments  float64
	TrueRevenue  float64
	Debits       float64
	AverageDaily float64
	DepositCount int
	DebitCount   int
	NSFCount     int
	DaysInMonth  int
}

// Totals are column-wise sums across months.
type Totals struct {
	Deposits     float64
	Adjustments  float64
	TrueRevenue  float64
	Debits       float64
	DepositCount int
	DebitCount   int
	NSFCount     int
}

// Averages are totals divided by the number of months present.
type Averages struct {
	Deposits    float64
	Adjustments float64
	TrueRevenue float64
	Debits      float64
}

// Result is a full aggregation over a transaction set.
type Result struct {
	Months   []MonthBucket
	Totals   Totals
	Averages Averages
}

// MonthCount returns the number of months with activity.
func (r *Result) MonthCount() int {
	return len(r.Months)
}

// Aggregate folds transactions into month buckets keyed by YYYY-MM, in
// chronological order. isNSF decides which debit lines count as NSF or
// overdraft fees; a nil func counts none.
func Aggregate(txns []model.Transaction, isNSF func(string) bool) Result {
	buckets := make(map[string]*MonthBucket)

	for i := range txns {
		txn := &txns[i]
		key := txn.MonthKey()

		bucket, ok := buckets[key]
		if !ok {
			bucket = &MonthBucket{
				MonthKey:    key,
				DaysInMonth: daysInMonth(key),
			}
			buckets[key] = bucket
		}

		switch txn.Type {
		case model.TypeCredit:
			bucket.Deposits += txn.Amount
			bucket.DepositCount++
			if txn.IsAdjustment {
				bucket.Adjustments += txn.Amount
			}
		case model.TypeDebit:
			bucket.Debits += txn.Amount
			bucket.DebitCount++
			if isNSF != nil && isNSF(txn.Description) {
				bucket.NSFCount++
			}
		}
	}

	months := make([]MonthBucket, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.recomputeDerived()
		months = append(months, *bucket)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].MonthKey < months[j].MonthKey })

	result := Result{Months: months}
	result.recomputeSummary()
	return result
}

// recomputeDerived rebuilds a bucket's dependent fields from its sums.
func (b *MonthBucket) recomputeDerived() {
	b.TrueRevenue = b.Deposits - b.Adjustments
	if b.DaysInMonth > 0 {
		b.AverageDaily = b.TrueRevenue / float64(b.DaysInMonth)
	} else {
		b.AverageDaily = 0
	}
}

// recomputeSummary rebuilds totals and averages from the month buckets.
func (r *Result) recomputeSummary() {
	r.Totals = Totals{}
	for i := range r.Months {
		m := &r.Months[i]
		r.Totals.Deposits += m.Deposits
		r.Totals.Adjustments += m.Adjustments
		r.Totals.TrueRevenue += m.TrueRevenue
		r.Totals.Debits += m.Debits
		r.Totals.DepositCount += m.DepositCount
		r.Totals.DebitCount += m.DebitCount
		r.Totals.NSFCount += m.NSFCount
	}

	r.Averages = Averages{}
	if n := float64(len(r.Months)); n > 0 {
		r.Averages.Deposits = r.Totals.Deposits / n
		r.Averages.Adjustments = r.Totals.Adjustments / n
		r.Averages.TrueRevenue = r.Totals.TrueRevenue / n
		r.Averages.Debits = r.Totals.Debits / n
	}
}

// daysInMonth returns the day count for a YYYY-MM key, 0 when unparseable.
func daysInMonth(monthKey string) int {
	t, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return 0
	}
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// floatTolerance bounds acceptable drift between the incremental-patch and
// full-recompute paths.
const floatTolerance = 1e-6

func floatsEqual(a, b float64) bool {
	return math.Abs(a-b) <= floatTolerance
}

func (b *MonthBucket) String() string {
	return fmt.Sprintf("%s: revenue %.2f (deposits %.2f - adjustments %.2f), debits %.2f",
		b.MonthKey, b.TrueRevenue, b.Deposits, b.Adjustments, b.Debits)
}
