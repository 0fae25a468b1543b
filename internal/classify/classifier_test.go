package classify

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
	"github.com/hollisfi/ledgerlens/internal/registry"
	"github.com/hollisfi/ledgerlens/internal/storage"
)

type fixture struct {
	classifier *Classifier
	registry   *registry.Registry
	storage    *storage.SQLiteStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	reg := registry.New(store)
	return &fixture{
		classifier: New(store, reg),
		registry:   reg,
		storage:    store,
	}
}

func (f *fixture) addSession(t *testing.T, id string, txns []model.Transaction) []model.Transaction {
	t.Helper()
	ctx := context.Background()
	session := &model.StatementSession{ID: id, BatchID: "batch-1", SourceFile: id + ".pdf"}
	require.NoError(t, f.storage.SaveSession(ctx, session))
	require.NoError(t, f.storage.SaveTransactions(ctx, id, txns))
	return txns
}

func (f *fixture) addLender(t *testing.T, id, name string) {
	t.Helper()
	lender := &model.Lender{ID: id, Name: name, Kind: model.KindMCALender, Status: model.LenderActive}
	require.NoError(t, f.storage.CreateLender(context.Background(), lender))
}

func (f *fixture) patternUsage(t *testing.T, lenderID string) int {
	t.Helper()
	patterns, err := f.storage.GetPatternsByLender(context.Background(), lenderID)
	require.NoError(t, err)
	total := 0
	for _, p := range patterns {
		total += p.UsageCount
	}
	return total
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func TestClassifier_MarkUnmarkAdjustment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txns := f.addSession(t, "sess-1", []model.Transaction{
		{Date: day(5), Description: "ZELLE FROM OWNER", Amount: 500, Type: model.TypeCredit},
	})

	txn, err := f.classifier.MarkAdjustment(ctx, txns[0].ID)
	require.NoError(t, err)
	assert.True(t, txn.IsAdjustment)
	assert.Equal(t, model.AdjustmentUserMarked, txn.AdjustmentReason)

	// Marking twice is a state machine violation.
	_, err = f.classifier.MarkAdjustment(ctx, txns[0].ID)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	txn, err = f.classifier.UnmarkAdjustment(ctx, txns[0].ID)
	require.NoError(t, err)
	assert.False(t, txn.IsAdjustment)
	assert.Equal(t, model.AdjustmentNone, txn.AdjustmentReason)

	_, err = f.classifier.UnmarkAdjustment(ctx, txns[0].ID)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestClassifier_MarkAdjustment_RejectsDebits(t *testing.T) {
	f := newFixture(t)

	txns := f.addSession(t, "sess-1", []model.Transaction{
		{Date: day(5), Description: "ACH DEBIT SOMETHING", Amount: 100, Type: model.TypeDebit},
	})

	_, err := f.classifier.MarkAdjustment(context.Background(), txns[0].ID)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestClassifier_MCAFunding_LearnUnlearnSymmetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addLender(t, "ondeck", "OnDeck Capital")
	txns := f.addSession(t, "sess-1", []model.Transaction{
		{Date: day(3), Description: "ONDECK CAPITAL FUNDING 123456789", Amount: 25000, Type: model.TypeCredit},
	})

	txn, err := f.classifier.MarkMCAFunding(ctx, txns[0].ID, "ondeck", "")
	require.NoError(t, err)
	assert.True(t, txn.IsAdjustment)
	assert.True(t, txn.IsMCAFunding)
	assert.Equal(t, model.AdjustmentMCAFunding, txn.AdjustmentReason)
	assert.Equal(t, "ondeck", txn.FundingLenderID)
	assert.Equal(t, 1, f.patternUsage(t, "ondeck"))

	// Unmarking goes back to true revenue and reverses the learn.
	txn, err = f.classifier.UnmarkAdjustment(ctx, txn.ID)
	require.NoError(t, err)
	assert.False(t, txn.IsAdjustment)
	assert.False(t, txn.IsMCAFunding)
	assert.Empty(t, txn.FundingLenderID)
	assert.Equal(t, 0, f.patternUsage(t, "ondeck"))
}

func TestClassifier_MCAPayment_CustomLenderSynthesis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txns := f.addSession(t, "sess-1", []model.Transaction{
		{Date: day(8), Description: "ACH WITHDRAWAL NEW FUNDER LLC 555123456", Amount: 450, Type: model.TypeDebit},
	})

	txn, err := f.classifier.MarkMCAPayment(ctx, txns[0].ID, "", "New Funder LLC")
	require.NoError(t, err)
	assert.True(t, txn.IsMCAPayment)
	assert.Equal(t, "custom_new_funder_llc", txn.MCALenderID)

	lender, err := f.storage.GetLender(ctx, "custom_new_funder_llc")
	require.NoError(t, err)
	assert.Equal(t, "New Funder LLC", lender.Name)
}

func TestClassifier_UnmarkMCAPayment_UsesStoredLender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addLender(t, "ondeck", "OnDeck Capital")
	f.addLender(t, "kapitus", "Kapitus")
	txns := f.addSession(t, "sess-1", []model.Transaction{
		{Date: day(8), Description: "ONDECK CAPITAL DAILY PMT 123456789", Amount: 450, Type: model.TypeDebit},
	})

	_, err := f.classifier.MarkMCAPayment(ctx, txns[0].ID, "ondeck", "")
	require.NoError(t, err)

	// Give kapitus independent usage so a mis-attributed decrement would
	// be visible.
	require.NoError(t, f.registry.Learn(ctx, "kapitus", "KAPITUS WEEKLY 987654321"))

	_, err = f.classifier.UnmarkMCAPayment(ctx, txns[0].ID)
	require.NoError(t, err)

	assert.Equal(t, 0, f.patternUsage(t, "ondeck"))
	assert.Equal(t, 1, f.patternUsage(t, "kapitus"))
}

func TestClassifier_MCAPayment_RejectsCredits(t *testing.T) {
	f := newFixture(t)

	f.addLender(t, "ondeck", "OnDeck Capital")
	txns := f.addSession(t, "sess-1", []model.Transaction{
		{Date: day(5), Description: "DEPOSIT", Amount: 100, Type: model.TypeCredit},
	})

	_, err := f.classifier.MarkMCAPayment(context.Background(), txns[0].ID, "ondeck", "")
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestClassifier_FlipType_UnlearnsAttribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addLender(t, "ondeck", "OnDeck Capital")
	txns := f.addSession(t, "sess-1", []model.Transaction{
		{Date: day(8), Description: "ONDECK CAPITAL DAILY 123456789", Amount: 450, Type: model.TypeDebit},
		{Date: day(9), Description: "DEPOSIT", Amount: 100, Type: model.TypeCredit},
	})

	_, err := f.classifier.MarkMCAPayment(ctx, txns[0].ID, "ondeck", "")
	require.NoError(t, err)
	require.Equal(t, 1, f.patternUsage(t, "ondeck"))

	flipped, err := f.classifier.FlipType(ctx, txns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.TypeCredit, flipped.Type)
	assert.False(t, flipped.IsMCAPayment)
	assert.True(t, flipped.WasCorrected)
	assert.Equal(t, 0, f.patternUsage(t, "ondeck"))

	// Session totals follow the flip.
	session, err := f.storage.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 550.0, session.TotalCredits)
	assert.Equal(t, 0.0, session.TotalDebits)
}

func TestClassifier_Suggest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addLender(t, "ondeck", "OnDeck Capital")
	require.NoError(t, f.registry.Learn(ctx, "ondeck", "ONDECK CAPITAL DAILY PMT 111222333"))

	txns := f.addSession(t, "sess-1", []model.Transaction{
		{Date: day(8), Description: "ONDECK CAPITAL DAILY PMT 999888777", Amount: 450, Type: model.TypeDebit},
		{Date: day(9), Description: "PAYROLL RUN 444555666", Amount: 2200, Type: model.TypeDebit},
	})

	suggestions, err := f.classifier.Suggest(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, txns[0].ID, suggestions[0].Transaction.ID)
	assert.Equal(t, "ondeck", suggestions[0].Match.LenderID)

	// Already-marked transactions are not re-suggested.
	_, err = f.classifier.MarkMCAPayment(ctx, txns[0].ID, "ondeck", "")
	require.NoError(t, err)

	suggestions, err = f.classifier.Suggest(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestIsNSFFee(t *testing.T) {
	tests := []struct {
		description string
		want        bool
	}{
		{"NSF FEE", true},
		{"Overdraft Fee 01/15", true},
		{"RETURNED ITEM FEE", true},
		{"OD FEE CHARGED", true},
		{"ACH DEBIT ONDECK", false},
		{"MONTHLY SERVICE FEE", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNSFFee(tt.description))
		})
	}
}
