package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollisfi/ledgerlens/internal/classify"
	"github.com/hollisfi/ledgerlens/internal/model"
)

func sampleCandidates() classify.Candidates {
	day := func(n int) time.Time { return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC) }
	return classify.Candidates{
		Credits: []model.Transaction{
			{ID: 1, Date: day(2), Description: "ONDECK CAPITAL FUNDING", Amount: 25000, Type: model.TypeCredit},
		},
		Debits: []model.Transaction{
			{ID: 2, Date: day(5), Description: "ACH DEBIT ONDECK CAPITAL 111", Amount: 450, Type: model.TypeDebit},
			{ID: 3, Date: day(6), Description: "ACH DEBIT ONDECK CAPITAL 222", Amount: 450, Type: model.TypeDebit},
		},
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"uppercase yes", "Y\n", true},
		{"no", "n\n", false},
		{"empty defaults to no", "\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm(context.Background(), "Proceed?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfirmBatch_ApplyAll(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("a\n"), &out)

	approved, err := p.ConfirmBatch(context.Background(), "OnDeck Capital", sampleCandidates())
	require.NoError(t, err)
	assert.Len(t, approved.Credits, 1)
	assert.Len(t, approved.Debits, 2)
	assert.Contains(t, out.String(), "OnDeck Capital")
	assert.Contains(t, out.String(), "Attribute all 3")
}

func TestConfirmBatch_SkipAll(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("s\n"), &out)

	approved, err := p.ConfirmBatch(context.Background(), "OnDeck Capital", sampleCandidates())
	require.NoError(t, err)
	assert.Empty(t, approved.Credits)
	assert.Empty(t, approved.Debits)
}

func TestConfirmBatch_ReviewEach(t *testing.T) {
	// Review order is credits first, then debits: approve the funding
	// credit, reject the first payment, approve the second.
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("r\ny\nn\ny\n"), &out)

	approved, err := p.ConfirmBatch(context.Background(), "OnDeck Capital", sampleCandidates())
	require.NoError(t, err)
	require.Len(t, approved.Credits, 1)
	require.Len(t, approved.Debits, 1)
	assert.Equal(t, int64(3), approved.Debits[0].ID)
}

func TestConfirmBatch_Empty(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader(""), &out)

	approved, err := p.ConfirmBatch(context.Background(), "OnDeck Capital", classify.Candidates{})
	require.NoError(t, err)
	assert.Empty(t, approved.Credits)
	assert.Empty(t, out.String(), "nothing to confirm, nothing printed")
}

func TestPromptChoice_RetriesInvalidInput(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("x\na\n"), &out)

	approved, err := p.ConfirmBatch(context.Background(), "Kapitus", sampleCandidates())
	require.NoError(t, err)
	assert.Len(t, approved.Debits, 2)
	assert.Contains(t, out.String(), "invalid choice")
}

func TestConfirm_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	// A reader that never delivers a line.
	blocked, release := newBlockedReader()
	defer release()
	p := NewPrompter(blocked, &out)

	_, err := p.Confirm(ctx, "Proceed?")
	assert.ErrorIs(t, err, ErrInputCancelled)
}
