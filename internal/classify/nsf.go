package classify

import "strings"

// nsfFeeKeywords identify bank fee lines charged for bounced items.
// Typically small flat amounts around $35.
var nsfFeeKeywords = []string{
	"nsf fee", "nsf charge", "nsf service charge",
	"non-sufficient funds fee", "insufficient funds fee",
	"overdraft fee", "overdraft charge", "od fee",
	"returned item fee", "returned check fee", "returned payment fee",
	"return item fee", "item returned fee",
}

// IsNSFFee reports whether a debit description is an NSF or overdraft fee
// line. The aggregator uses this for its per-month nsf_count.
func IsNSFFee(description string) bool {
	lower := strings.ToLower(description)
	for _, keyword := range nsfFeeKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
