// Package normalize turns raw bank-transaction descriptions into canonical
// patterns and decides whether two patterns refer to the same counterparty.
package normalize

import (
	"regexp"
	"strings"
)

// IDPlaceholder replaces long digit runs (account and reference numbers) so
// that otherwise-identical descriptions normalize to the same pattern.
const IDPlaceholder = "#ID#"

// The strip order matters: dates must go before generic digit runs so a
// token like 01/15/2024 is removed whole instead of leaving fragments.
var (
	dateRe       = regexp.MustCompile(`\d{1,2}/\d{1,2}(/\d{2,4})?`)
	idRunRe      = regexp.MustCompile(`\d{6,}`)
	amountRe     = regexp.MustCompile(`\$[\d,]+\.?\d*`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Pattern converts a raw description into a canonical pattern string. It is
// case-preserving (callers lower-case for comparison), idempotent, and never
// fails; an all-noise description normalizes to the empty string.
func Pattern(description string) string {
	s := dateRe.ReplaceAllString(description, "")
	s = idRunRe.ReplaceAllString(s, IDPlaceholder)
	s = amountRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Key returns the lower-cased canonical pattern, the form used for matching
// and registry lookups.
func Key(description string) string {
	return strings.ToLower(Pattern(description))
}
