// Package model defines the core domain types shared across the application.
package model

import (
	"fmt"
	"time"
)

// TransactionType is the direction of a bank transaction.
type TransactionType string

// Transaction types.
const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

// AdjustmentReason records why a credit was excluded from true revenue.
type AdjustmentReason string

// Adjustment reasons.
const (
	AdjustmentNone       AdjustmentReason = ""
	AdjustmentUserMarked AdjustmentReason = "user_marked"
	AdjustmentMCAFunding AdjustmentReason = "mca_funding"
)

// Transaction is a single extracted bank-statement transaction.
//
// The extraction fields (Date, Description, Amount, Type) are immutable once
// imported; the classification fields are mutated only through classifier
// operations so the session's cached totals stay consistent.
type Transaction struct {
	Date             time.Time
	CreatedAt        time.Time
	SessionID        string
	Description      string
	Category         string
	AdjustmentReason AdjustmentReason
	MCALenderID      string
	FundingLenderID  string
	Type             TransactionType
	ID               int64
	Amount           float64
	IsAdjustment     bool
	IsMCAPayment     bool
	IsMCAFunding     bool
	WasCorrected     bool
}

// CreditState is the classification state of a credit transaction.
type CreditState int

// Credit-side states.
const (
	CreditTrueRevenue CreditState = iota
	CreditAdjustment
	CreditMCAFunding
)

func (s CreditState) String() string {
	switch s {
	case CreditTrueRevenue:
		return "true_revenue"
	case CreditAdjustment:
		return "adjustment"
	case CreditMCAFunding:
		return "mca_funding"
	}
	return fmt.Sprintf("credit_state(%d)", int(s))
}

// DebitState is the classification state of a debit transaction.
type DebitState int

// Debit-side states.
const (
	DebitRegular DebitState = iota
	DebitMCAPayment
)

func (s DebitState) String() string {
	switch s {
	case DebitRegular:
		return "regular"
	case DebitMCAPayment:
		return "mca_payment"
	}
	return fmt.Sprintf("debit_state(%d)", int(s))
}

// CreditState derives the credit-side classification state.
func (t *Transaction) CreditState() CreditState {
	if t.Type != TypeCredit || !t.IsAdjustment {
		return CreditTrueRevenue
	}
	if t.IsMCAFunding {
		return CreditMCAFunding
	}
	return CreditAdjustment
}

// DebitState derives the debit-side classification state.
func (t *Transaction) DebitState() DebitState {
	if t.Type == TypeDebit && t.IsMCAPayment {
		return DebitMCAPayment
	}
	return DebitRegular
}

// MonthKey returns the calendar month bucket key (YYYY-MM) for the transaction.
func (t *Transaction) MonthKey() string {
	return t.Date.Format("2006-01")
}

// Validate ensures the extraction fields are usable.
func (t *Transaction) Validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date is required")
	}
	if t.Description == "" {
		return fmt.Errorf("transaction description is required")
	}
	if t.Amount < 0 {
		return fmt.Errorf("transaction amount must be non-negative")
	}
	if t.Type != TypeCredit && t.Type != TypeDebit {
		return fmt.Errorf("transaction type must be credit or debit, got %q", t.Type)
	}
	return nil
}
