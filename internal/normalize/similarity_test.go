package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSimilar(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		want      bool
	}{
		{
			name:      "exact match",
			query:     "ach debit ondeck capital",
			candidate: "ach debit ondeck capital",
			want:      true,
		},
		{
			name:      "containment query in candidate",
			query:     "ondeck capital",
			candidate: "ach debit ondeck capital daily",
			want:      true,
		},
		{
			name:      "containment candidate in query",
			query:     "ach debit ondeck capital",
			candidate: "ach debit ondeck cap",
			want:      true,
		},
		{
			name:      "word overlap above threshold",
			query:     "forward financing weekly payment",
			candidate: "ach forward financing llc payment #ID#",
			want:      true,
		},
		{
			name:      "unrelated descriptions",
			query:     "payroll deposit",
			candidate: "ach debit ondeck",
			want:      false,
		},
		{
			name:      "single signal word is not enough for overlap",
			query:     "kapitus pmt",
			candidate: "ach kapitus llc withdrawal",
			want:      false,
		},
		{
			name:      "two of three signal words matches",
			query:     "bitty advance daily",
			candidate: "ach bitty capital advance llc",
			want:      true,
		},
		{
			name:      "one of three signal words misses",
			query:     "bitty advance daily",
			candidate: "ach bitty withdrawal",
			want:      false,
		},
		{
			name:      "empty strings are equal",
			query:     "",
			candidate: "",
			want:      true,
		},
		{
			name:      "empty query does not contain-match",
			query:     "",
			candidate: "ach debit",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsSimilar(tt.query, tt.candidate)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignalWords(t *testing.T) {
	words := signalWords("ach debit ondeck capital llc")
	// "ach" and "llc" are too short to carry signal.
	assert.Equal(t, []string{"debit", "ondeck", "capital"}, words)
}
