package model

import (
	"fmt"
	"time"
)

// StatementSession groups the transactions extracted from one uploaded
// statement. Multi-file uploads submitted together share a BatchID.
//
// The totals are cached on the session row and must always equal the sum
// over the current transaction state; storage recomputes them whenever a
// contained transaction's type changes.
type StatementSession struct {
	CreatedAt        time.Time
	ID               string
	BatchID          string
	SourceFile       string
	BankName         string
	TotalCredits     float64
	TotalDebits      float64
	NetFlow          float64
	TransactionCount int
}

// RecomputeTotals rebuilds the cached totals from the given transactions.
func (s *StatementSession) RecomputeTotals(txns []Transaction) {
	s.TotalCredits = 0
	s.TotalDebits = 0
	s.TransactionCount = len(txns)

	for i := range txns {
		switch txns[i].Type {
		case TypeCredit:
			s.TotalCredits += txns[i].Amount
		case TypeDebit:
			s.TotalDebits += txns[i].Amount
		}
	}
	s.NetFlow = s.TotalCredits - s.TotalDebits
}

// Validate ensures the session record is well formed.
func (s *StatementSession) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}
	return nil
}
