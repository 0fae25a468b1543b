package aggregate

import "sort"

// Combine merges aggregations from several statement sessions into one
// underwriting view. Same-keyed months are summed field by field and the
// per-day average is recomputed from the summed revenue, never averaged
// from the inputs. Combination is commutative and associative.
func Combine(results ...Result) Result {
	buckets := make(map[string]*MonthBucket)

	for _, result := range results {
		for i := range result.Months {
			m := &result.Months[i]
			bucket, ok := buckets[m.MonthKey]
			if !ok {
				bucket = &MonthBucket{
					MonthKey:    m.MonthKey,
					DaysInMonth: m.DaysInMonth,
				}
				buckets[m.MonthKey] = bucket
			}
			bucket.Deposits += m.Deposits
			bucket.Adjustments += m.Adjustments
			bucket.Debits += m.Debits
			bucket.DepositCount += m.DepositCount
			bucket.DebitCount += m.DebitCount
			bucket.NSFCount += m.NSFCount
		}
	}

	months := make([]MonthBucket, 0, len(buckets))
	for _, bucket := range buckets {
		bucket.recomputeDerived()
		months = append(months, *bucket)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].MonthKey < months[j].MonthKey })

	combined := Result{Months: months}
	combined.recomputeSummary()
	return combined
}
