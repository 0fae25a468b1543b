package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// LenderKind distinguishes MCA lenders from debt collectors. Both share the
// same pattern-matching machinery but live in separate listings.
type LenderKind string

// Lender kinds.
const (
	KindMCALender     LenderKind = "mca_lender"
	KindDebtCollector LenderKind = "debt_collector"
)

// Lender statuses.
const (
	LenderActive   = "active"
	LenderInactive = "inactive"
)

// Lender is a registry entry shared by many patterns and transactions.
type Lender struct {
	CreatedAt time.Time
	ID        string
	Name      string
	Status    string
	Kind      LenderKind
}

// Validate ensures the lender record is well formed.
func (l *Lender) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("lender id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("lender name is required")
	}
	if l.Kind != KindMCALender && l.Kind != KindDebtCollector {
		return fmt.Errorf("lender kind must be mca_lender or debt_collector, got %q", l.Kind)
	}
	return nil
}

// CustomLenderID synthesizes a registry id for an operator-entered lender
// name, e.g. "Acme Funding LLC" -> "custom_acme_funding_llc".
func CustomLenderID(name string) string {
	var b strings.Builder
	b.WriteString("custom_")

	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}

	return strings.TrimSuffix(b.String(), "_")
}

// IsCustomLenderID reports whether an id was synthesized from a user-entered
// name rather than taken from the seeded registry.
func IsCustomLenderID(id string) bool {
	return strings.HasPrefix(id, "custom_")
}
