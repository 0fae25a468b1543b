package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollisfi/ledgerlens/internal/model"
)

func TestFindSimilar_AcrossSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addLender(t, "ondeck", "OnDeck Capital")

	sess1 := f.addSession(t, "sess-1", []model.Transaction{
		{Date: day(3), Description: "ONDECK CAPITAL DAILY PMT 111111111", Amount: 450, Type: model.TypeDebit},
		{Date: day(4), Description: "ONDECK CAPITAL DAILY PMT 222222222", Amount: 450, Type: model.TypeDebit},
		{Date: day(5), Description: "PAYROLL RUN 333333333", Amount: 2200, Type: model.TypeDebit},
	})
	sess2 := f.addSession(t, "sess-2", []model.Transaction{
		{Date: day(10), Description: "ONDECK CAPITAL DAILY PMT 444444444", Amount: 450, Type: model.TypeDebit},
		{Date: day(11), Description: "ONDECK CAPITAL FUNDING 555555555", Amount: 25000, Type: model.TypeCredit},
	})

	candidates, err := f.classifier.FindSimilar(ctx, sess1[0].ID, "ondeck")
	require.NoError(t, err)

	// The source and the payroll line are excluded; the other session's
	// payment and the funding credit match.
	debitIDs := make([]int64, 0, len(candidates.Debits))
	for _, txn := range candidates.Debits {
		debitIDs = append(debitIDs, txn.ID)
	}
	assert.ElementsMatch(t, []int64{sess1[1].ID, sess2[0].ID}, debitIDs)
	require.Len(t, candidates.Credits, 1)
	assert.Equal(t, sess2[1].ID, candidates.Credits[0].ID)
}

func TestFindSimilar_SkipsAlreadyAttributed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addLender(t, "ondeck", "OnDeck Capital")
	txns := f.addSession(t, "sess-1", []model.Transaction{
		{Date: day(3), Description: "ONDECK CAPITAL DAILY PMT 111111111", Amount: 450, Type: model.TypeDebit},
		{Date: day(4), Description: "ONDECK CAPITAL DAILY PMT 222222222", Amount: 450, Type: model.TypeDebit},
	})

	_, err := f.classifier.MarkMCAPayment(ctx, txns[1].ID, "ondeck", "")
	require.NoError(t, err)

	candidates, err := f.classifier.FindSimilar(ctx, txns[0].ID, "ondeck")
	require.NoError(t, err)
	assert.Empty(t, candidates.Debits)
	assert.Empty(t, candidates.Credits)
}

func TestApplyBatch_PartialSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addLender(t, "ondeck", "OnDeck Capital")
	txns := f.addSession(t, "sess-1", []model.Transaction{
		{Date: day(3), Description: "ONDECK CAPITAL DAILY PMT 111111111", Amount: 450, Type: model.TypeDebit},
		{Date: day(4), Description: "ONDECK CAPITAL FUNDING 222222222", Amount: 25000, Type: model.TypeCredit},
	})

	// The middle id does not exist; its failure must not block the rest.
	ids := []int64{txns[0].ID, 99999, txns[1].ID}
	results := f.classifier.ApplyBatch(ctx, "ondeck", ids)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	payment, err := f.storage.GetTransaction(ctx, txns[0].ID)
	require.NoError(t, err)
	assert.True(t, payment.IsMCAPayment)

	funding, err := f.storage.GetTransaction(ctx, txns[1].ID)
	require.NoError(t, err)
	assert.True(t, funding.IsMCAFunding)
	assert.True(t, funding.IsAdjustment)

	// One learn per applied item.
	assert.Equal(t, 2, f.patternUsage(t, "ondeck"))
}
