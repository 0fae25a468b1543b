package model

import (
	"fmt"
	"time"
)

// TermType is the payment frequency an offer's term is expressed in.
type TermType string

// Term types.
const (
	TermDaily    TermType = "daily"
	TermWeekly   TermType = "weekly"
	TermBiweekly TermType = "biweekly"
	TermMonthly  TermType = "monthly"
)

// Offer is a saved what-if funding calculation for a session. Offers are
// append-only snapshots: reclassifying transactions later does not touch
// previously saved offers.
type Offer struct {
	CreatedAt           time.Time
	ID                  string
	SessionID           string
	Name                string
	Notes               string
	TermType            TermType
	TrueRevenueMonthly  float64
	OverrideRevenue     float64
	ExistingMCAPayment  float64
	WithholdPercent     float64
	FactorRate          float64
	TermValue           int
	AdvanceAmount       float64
	CapAmount           float64
	NewPaymentAvailable float64
	TotalPayback        float64
	MonthlyPayment      float64
	RevenueOverride     bool
	IsFavorite          bool
}

// Validate ensures the offer record is well formed.
func (o *Offer) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("offer id is required")
	}
	if o.SessionID == "" {
		return fmt.Errorf("offer session id is required")
	}
	if o.WithholdPercent < 0 || o.WithholdPercent > 100 {
		return fmt.Errorf("withhold percent must be between 0 and 100")
	}
	if o.FactorRate < 1 || o.FactorRate > 2 {
		return fmt.Errorf("factor rate must be between 1.0 and 2.0")
	}
	if o.TermValue <= 0 {
		return fmt.Errorf("term value must be positive")
	}
	switch o.TermType {
	case TermDaily, TermWeekly, TermBiweekly, TermMonthly:
	default:
		return fmt.Errorf("unknown term type %q", o.TermType)
	}
	return nil
}
