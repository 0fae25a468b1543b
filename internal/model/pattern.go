package model

import (
	"fmt"
	"time"
)

// Pattern is a learned, normalized transaction-description fingerprint
// attributed to a lender. Rows are append-only: usage_count moves up on
// learn and down on unlearn (floor zero), but rows are never deleted by the
// learning path so the audit history survives reverted classifications.
type Pattern struct {
	CreatedAt      time.Time
	LastUsedAt     time.Time
	LenderID       string
	NormalizedText string
	ID             int64
	UsageCount     int
	Excluded       bool
}

// Validate ensures the pattern row is well formed.
func (p *Pattern) Validate() error {
	if p.LenderID == "" {
		return fmt.Errorf("pattern lender id is required")
	}
	if p.NormalizedText == "" {
		return fmt.Errorf("pattern text is required")
	}
	if p.UsageCount < 0 {
		return fmt.Errorf("pattern usage count must be non-negative")
	}
	return nil
}
