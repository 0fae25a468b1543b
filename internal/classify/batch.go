package classify

import (
	"context"
	"log/slog"

	"github.com/hollisfi/ledgerlens/internal/model"
	"github.com/hollisfi/ledgerlens/internal/normalize"
)

// Candidates are transactions similar to a just-classified source, split by
// direction so the operator reviews payments and funding separately.
type Candidates struct {
	Credits []model.Transaction
	Debits  []model.Transaction
}

// FindSimilar searches every session for transactions whose descriptions
// resemble the source transaction's pattern. The source itself and anything
// already attributed to the lender are skipped.
func (c *Classifier) FindSimilar(ctx context.Context, sourceTxnID int64, lenderID string) (*Candidates, error) {
	source, err := c.storage.GetTransaction(ctx, sourceTxnID)
	if err != nil {
		return nil, err
	}

	sourceKey := normalize.Key(source.Description)
	if sourceKey == "" {
		return &Candidates{}, nil
	}

	credits, err := c.storage.GetTransactionsByType(ctx, model.TypeCredit, nil)
	if err != nil {
		return nil, err
	}
	debits, err := c.storage.GetTransactionsByType(ctx, model.TypeDebit, nil)
	if err != nil {
		return nil, err
	}

	candidates := &Candidates{}
	for i := range credits {
		txn := &credits[i]
		if txn.ID == sourceTxnID || (txn.IsMCAFunding && txn.FundingLenderID == lenderID) {
			continue
		}
		if normalize.IsSimilar(sourceKey, normalize.Key(txn.Description)) {
			candidates.Credits = append(candidates.Credits, *txn)
		}
	}
	for i := range debits {
		txn := &debits[i]
		if txn.ID == sourceTxnID || (txn.IsMCAPayment && txn.MCALenderID == lenderID) {
			continue
		}
		if normalize.IsSimilar(sourceKey, normalize.Key(txn.Description)) {
			candidates.Debits = append(candidates.Debits, *txn)
		}
	}
	return candidates, nil
}

// BatchResult is the outcome of one item in a batch classification.
type BatchResult struct {
	Err           error
	TransactionID int64
}

// ApplyBatch classifies each confirmed transaction for the lender: credits
// become MCA funding, debits become MCA payments. Items are independent;
// one failure neither rolls back earlier items nor stops later ones.
func (c *Classifier) ApplyBatch(ctx context.Context, lenderID string, txnIDs []int64) []BatchResult {
	results := make([]BatchResult, 0, len(txnIDs))

	for _, id := range txnIDs {
		result := BatchResult{TransactionID: id}

		txn, err := c.storage.GetTransaction(ctx, id)
		if err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}

		switch txn.Type {
		case model.TypeCredit:
			_, result.Err = c.MarkMCAFunding(ctx, id, lenderID, "")
		case model.TypeDebit:
			_, result.Err = c.MarkMCAPayment(ctx, id, lenderID, "")
		}

		if result.Err != nil {
			slog.Warn("Batch classification item failed",
				"transaction", id,
				"lender", lenderID,
				"error", result.Err)
		}
		results = append(results, result)
	}
	return results
}
