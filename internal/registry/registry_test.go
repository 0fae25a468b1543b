package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
	"github.com/hollisfi/ledgerlens/internal/storage"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return New(store)
}

func addLender(t *testing.T, r *Registry, id, name string, kind model.LenderKind) {
	t.Helper()
	lender := &model.Lender{ID: id, Name: name, Kind: kind, Status: model.LenderActive}
	require.NoError(t, r.storage.CreateLender(context.Background(), lender))
}

func TestRegistry_Lookup_ExactBeatsSimilar(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	addLender(t, r, "ondeck", "OnDeck Capital", model.KindMCALender)
	addLender(t, r, "kapitus", "Kapitus", model.KindMCALender)

	// Kapitus has a heavily-used pattern similar to the query; OnDeck has
	// the exact one.
	require.NoError(t, r.Learn(ctx, "ondeck", "ACH DEBIT ONDECK CAPITAL 123456789"))
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Learn(ctx, "kapitus", "ACH DEBIT KAPITUS 987654321"))
	}

	match, err := r.Lookup(ctx, "ACH DEBIT ONDECK CAPITAL 555666777")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "ondeck", match.LenderID)
	assert.Equal(t, "OnDeck Capital", match.LenderName)
	assert.True(t, match.Exact)
}

func TestRegistry_Lookup_SimilarityFallback(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	addLender(t, r, "forward_financing", "Forward Financing", model.KindMCALender)
	require.NoError(t, r.Learn(ctx, "forward_financing", "FORWARD FINANCING WEEKLY PAYMENT 111222333"))

	match, err := r.Lookup(ctx, "ACH FORWARD FINANCING LLC PAYMENT 444555666")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "forward_financing", match.LenderID)
	assert.False(t, match.Exact)
}

func TestRegistry_Lookup_UsageBreaksTies(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	addLender(t, r, "lender_a", "Lender Alpha", model.KindMCALender)
	addLender(t, r, "lender_b", "Lender Beta", model.KindMCALender)

	// Both lenders learned similar patterns; lender_b used more often.
	require.NoError(t, r.Learn(ctx, "lender_a", "MERCHANT FUNDING DAILY DRAW"))
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Learn(ctx, "lender_b", "MERCHANT FUNDING WEEKLY DRAW"))
	}

	match, err := r.Lookup(ctx, "MERCHANT FUNDING DRAW 123456789")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "lender_b", match.LenderID)
}

func TestRegistry_Lookup_NoMatch(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	addLender(t, r, "ondeck", "OnDeck Capital", model.KindMCALender)
	require.NoError(t, r.Learn(ctx, "ondeck", "ONDECK CAPITAL DAILY"))

	match, err := r.Lookup(ctx, "PAYROLL DIRECT DEPOSIT")
	require.NoError(t, err)
	assert.Nil(t, match)

	// All-noise descriptions never match anything.
	match, err = r.Lookup(ctx, "01/15/2024 $45.00")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestRegistry_Lookup_ExcludedPatternBlocksMatch(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	addLender(t, r, "ondeck", "OnDeck Capital", model.KindMCALender)
	require.NoError(t, r.Learn(ctx, "ondeck", "ONDECK CAPITAL DAILY"))
	require.NoError(t, r.SetExcluded(ctx, "ondeck", "ONDECK CAPITAL DAILY", true))

	match, err := r.Lookup(ctx, "ONDECK CAPITAL DAILY")
	require.NoError(t, err)
	assert.Nil(t, match)

	excluded, err := r.IsExcluded(ctx, "ONDECK CAPITAL DAILY")
	require.NoError(t, err)
	assert.True(t, excluded)

	// Un-excluding restores the match.
	require.NoError(t, r.SetExcluded(ctx, "ondeck", "ONDECK CAPITAL DAILY", false))
	match, err = r.Lookup(ctx, "ONDECK CAPITAL DAILY")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "ondeck", match.LenderID)
}

func TestRegistry_LearnUnlearnSymmetry(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	addLender(t, r, "ondeck", "OnDeck Capital", model.KindMCALender)

	require.NoError(t, r.Learn(ctx, "ondeck", "ONDECK CAPITAL DAILY 123456789"))
	require.NoError(t, r.Learn(ctx, "ondeck", "ONDECK CAPITAL DAILY 987654321"))

	patterns, err := r.Patterns(ctx, "ondeck")
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, 2, patterns[0].UsageCount)

	require.NoError(t, r.Unlearn(ctx, "ondeck", "ONDECK CAPITAL DAILY 123456789"))
	require.NoError(t, r.Unlearn(ctx, "ondeck", "ONDECK CAPITAL DAILY 555555555"))
	require.NoError(t, r.Unlearn(ctx, "ondeck", "ONDECK CAPITAL DAILY 666666666"))

	patterns, err = r.Patterns(ctx, "ondeck")
	require.NoError(t, err)
	require.Len(t, patterns, 1, "pattern row must survive unlearns")
	assert.Equal(t, 0, patterns[0].UsageCount)
}

func TestRegistry_Learn_UnknownLender(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Learn(context.Background(), "nobody", "SOME DESCRIPTION")
	assert.ErrorIs(t, err, common.ErrLenderNotFound)
}

func TestRegistry_CreateLender(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	lender, err := r.CreateLender(ctx, "Acme Funding LLC", model.KindMCALender)
	require.NoError(t, err)
	assert.Equal(t, "custom_acme_funding_llc", lender.ID)

	// The name is seeded as a starter pattern.
	patterns, err := r.Patterns(ctx, lender.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "acme funding llc", patterns[0].NormalizedText)
	assert.Equal(t, 0, patterns[0].UsageCount)

	_, err = r.CreateLender(ctx, "Acme Funding LLC", model.KindMCALender)
	assert.ErrorIs(t, err, common.ErrDuplicateLender)
}

func TestRegistry_ResolveLender(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	addLender(t, r, "ondeck", "OnDeck Capital", model.KindMCALender)

	lender, err := r.ResolveLender(ctx, "ondeck", "", model.KindMCALender)
	require.NoError(t, err)
	assert.Equal(t, "OnDeck Capital", lender.Name)

	// Unknown id with a name creates a custom lender.
	lender, err = r.ResolveLender(ctx, "", "Brand New Fund", model.KindMCALender)
	require.NoError(t, err)
	assert.Equal(t, "custom_brand_new_fund", lender.ID)

	// Unknown id without a name fails.
	_, err = r.ResolveLender(ctx, "nobody", "", model.KindMCALender)
	assert.ErrorIs(t, err, common.ErrLenderNotFound)
}

func TestRegistry_RemovePattern_LastPatternGuard(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	lender, err := r.CreateLender(ctx, "Acme Funding", model.KindMCALender)
	require.NoError(t, err)

	patterns, err := r.Patterns(ctx, lender.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 1)

	err = r.RemovePattern(ctx, patterns[0].ID)
	assert.ErrorIs(t, err, ErrLastPattern)

	require.NoError(t, r.AddPattern(ctx, lender.ID, "ACME FUNDING DAILY"))
	patterns, err = r.Patterns(ctx, lender.ID)
	require.NoError(t, err)
	require.Len(t, patterns, 2)

	assert.NoError(t, r.RemovePattern(ctx, patterns[0].ID))
}

func TestRegistry_Seed(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Seed(ctx))

	mca, err := r.Lenders(ctx, model.KindMCALender)
	require.NoError(t, err)
	assert.Len(t, mca, len(knownLenders))

	collectors, err := r.Lenders(ctx, model.KindDebtCollector)
	require.NoError(t, err)
	assert.Len(t, collectors, len(knownDebtCollectors))

	// Seeded names match out of the box.
	match, err := r.Lookup(ctx, "ACH DEBIT ONDECK CAPITAL 123456789")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "ondeck", match.LenderID)

	// Re-seeding neither duplicates nor inflates usage.
	require.NoError(t, r.Seed(ctx))
	mca, err = r.Lenders(ctx, model.KindMCALender)
	require.NoError(t, err)
	assert.Len(t, mca, len(knownLenders))

	patterns, err := r.Patterns(ctx, "ondeck")
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, 0, patterns[0].UsageCount)
}
