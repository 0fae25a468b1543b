package risk

import (
	"sort"
	"time"

	"github.com/hollisfi/ledgerlens/internal/model"
)

// Frequency is a lender's inferred payment cadence.
type Frequency string

// Payment frequencies by average gap between consecutive payments.
const (
	FreqDaily         Frequency = "daily"           // <= 1.5 days
	FreqEveryOtherDay Frequency = "every_other_day" // <= 3
	FreqTwiceWeekly   Frequency = "twice_weekly"    // <= 5
	FreqWeekly        Frequency = "weekly"          // <= 9
	FreqBiWeekly      Frequency = "bi_weekly"       // <= 18
	FreqMonthly       Frequency = "monthly"         // <= 35
	FreqIrregular     Frequency = "irregular"       // anything slower
	FreqSingle        Frequency = "single_payment"  // only one observed
	FreqUnknown       Frequency = "unknown"
)

// Label returns the human-readable form of a frequency.
func (f Frequency) Label() string {
	switch f {
	case FreqDaily:
		return "Daily"
	case FreqEveryOtherDay:
		return "Every Other Day"
	case FreqTwiceWeekly:
		return "Twice Weekly"
	case FreqWeekly:
		return "Weekly"
	case FreqBiWeekly:
		return "Bi-Weekly"
	case FreqMonthly:
		return "Monthly"
	case FreqIrregular:
		return "Irregular"
	case FreqSingle:
		return "Single Payment"
	}
	return "Unknown"
}

// LenderExposure summarizes one lender's observed activity: payments made
// to it, funding received from it, and the inferred payment cadence.
type LenderExposure struct {
	FirstPayment    time.Time
	LastPayment     time.Time
	LenderID        string
	LenderName      string
	Frequency       Frequency
	TotalPaid       float64
	AveragePayment  float64
	FundingReceived float64
	PaymentCount    int
}

// ExposureSummary is the combined MCA picture across all lenders.
type ExposureSummary struct {
	Lenders      []LenderExposure
	TotalPaid    float64
	TotalFunding float64
	PaymentCount int
	LenderCount  int
}

// BuildExposure folds classified transactions into per-lender exposure
// rows. lenderName resolves display names; a nil func falls back to the id.
func BuildExposure(txns []model.Transaction, lenderName func(id string) string) ExposureSummary {
	type entry struct {
		exposure LenderExposure
		dates    []time.Time
	}
	byLender := make(map[string]*entry)

	get := func(id string) *entry {
		e, ok := byLender[id]
		if !ok {
			name := id
			if lenderName != nil {
				name = lenderName(id)
			}
			e = &entry{exposure: LenderExposure{LenderID: id, LenderName: name, Frequency: FreqUnknown}}
			byLender[id] = e
		}
		return e
	}

	for i := range txns {
		txn := &txns[i]
		switch {
		case txn.Type == model.TypeDebit && txn.IsMCAPayment && txn.MCALenderID != "":
			e := get(txn.MCALenderID)
			e.exposure.PaymentCount++
			e.exposure.TotalPaid += txn.Amount
			e.dates = append(e.dates, txn.Date)
		case txn.Type == model.TypeCredit && txn.IsMCAFunding && txn.FundingLenderID != "":
			e := get(txn.FundingLenderID)
			e.exposure.FundingReceived += txn.Amount
		}
	}

	summary := ExposureSummary{}
	for _, e := range byLender {
		if e.exposure.PaymentCount > 0 {
			e.exposure.AveragePayment = e.exposure.TotalPaid / float64(e.exposure.PaymentCount)

			sort.Slice(e.dates, func(i, j int) bool { return e.dates[i].Before(e.dates[j]) })
			e.exposure.FirstPayment = e.dates[0]
			e.exposure.LastPayment = e.dates[len(e.dates)-1]
			e.exposure.Frequency = InferFrequency(e.dates)
		}

		summary.Lenders = append(summary.Lenders, e.exposure)
		summary.TotalPaid += e.exposure.TotalPaid
		summary.TotalFunding += e.exposure.FundingReceived
		summary.PaymentCount += e.exposure.PaymentCount
	}
	summary.LenderCount = len(summary.Lenders)

	sort.Slice(summary.Lenders, func(i, j int) bool {
		return summary.Lenders[i].TotalPaid > summary.Lenders[j].TotalPaid
	})
	return summary
}

// InferFrequency classifies a payment cadence from the average day gap
// between the first and last of the sorted payment dates.
func InferFrequency(dates []time.Time) Frequency {
	if len(dates) < 2 {
		return FreqSingle
	}

	span := dates[len(dates)-1].Sub(dates[0]).Hours() / 24
	avgGap := span / float64(len(dates)-1)

	switch {
	case avgGap <= 1.5:
		return FreqDaily
	case avgGap <= 3:
		return FreqEveryOtherDay
	case avgGap <= 5:
		return FreqTwiceWeekly
	case avgGap <= 9:
		return FreqWeekly
	case avgGap <= 18:
		return FreqBiWeekly
	case avgGap <= 35:
		return FreqMonthly
	}
	return FreqIrregular
}
