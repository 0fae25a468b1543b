// Package classify implements the per-transaction classification state
// machine: credits move between true revenue and adjustment (regular or MCA
// funding), debits between regular and MCA payment. Every lender-bearing
// transition keeps the pattern registry in sync via learn/unlearn.
package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
	"github.com/hollisfi/ledgerlens/internal/registry"
	"github.com/hollisfi/ledgerlens/internal/service"
)

// Classifier mutates transaction classification state.
type Classifier struct {
	storage  service.Storage
	registry *registry.Registry
}

// New creates a classifier over the given storage and registry.
func New(storage service.Storage, reg *registry.Registry) *Classifier {
	return &Classifier{storage: storage, registry: reg}
}

// MarkAdjustment moves a credit from true revenue to a regular adjustment.
func (c *Classifier) MarkAdjustment(ctx context.Context, txnID int64) (*model.Transaction, error) {
	txn, err := c.storage.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.Type != model.TypeCredit {
		return nil, fmt.Errorf("transaction %d is a %s, only credits can be adjustments: %w",
			txnID, txn.Type, common.ErrInvalidTransition)
	}
	if txn.IsAdjustment {
		return nil, fmt.Errorf("transaction %d is already an adjustment: %w", txnID, common.ErrInvalidTransition)
	}

	txn.IsAdjustment = true
	txn.AdjustmentReason = model.AdjustmentUserMarked
	if err := c.storage.UpdateClassification(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// UnmarkAdjustment returns an adjusted credit to true revenue. If the
// adjustment was MCA funding, the funding lender's pattern is unlearned
// using the lender stored on the transaction.
func (c *Classifier) UnmarkAdjustment(ctx context.Context, txnID int64) (*model.Transaction, error) {
	txn, err := c.storage.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.Type != model.TypeCredit {
		return nil, fmt.Errorf("transaction %d is a %s: %w", txnID, txn.Type, common.ErrInvalidTransition)
	}
	if !txn.IsAdjustment {
		return nil, fmt.Errorf("transaction %d is not an adjustment: %w", txnID, common.ErrInvalidTransition)
	}

	if txn.IsMCAFunding {
		if err := c.registry.Unlearn(ctx, txn.FundingLenderID, txn.Description); err != nil {
			return nil, err
		}
	}

	txn.IsAdjustment = false
	txn.AdjustmentReason = model.AdjustmentNone
	txn.IsMCAFunding = false
	txn.FundingLenderID = ""
	if err := c.storage.UpdateClassification(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// MarkMCAFunding classifies a credit as an MCA funding inflow from the
// given lender. The lender may be a known id or a new name, in which case a
// custom lender is created. Funding is always modeled as an adjustment so
// it never counts toward true revenue.
func (c *Classifier) MarkMCAFunding(ctx context.Context, txnID int64, lenderID, lenderName string) (*model.Transaction, error) {
	txn, err := c.storage.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.Type != model.TypeCredit {
		return nil, fmt.Errorf("transaction %d is a %s, funding arrives as a credit: %w",
			txnID, txn.Type, common.ErrInvalidTransition)
	}
	if txn.IsMCAFunding {
		return nil, fmt.Errorf("transaction %d is already marked as MCA funding: %w", txnID, common.ErrInvalidTransition)
	}

	lender, err := c.registry.ResolveLender(ctx, lenderID, lenderName, model.KindMCALender)
	if err != nil {
		return nil, err
	}
	if err := c.registry.Learn(ctx, lender.ID, txn.Description); err != nil {
		return nil, err
	}

	txn.IsAdjustment = true
	txn.AdjustmentReason = model.AdjustmentMCAFunding
	txn.IsMCAFunding = true
	txn.FundingLenderID = lender.ID
	if err := c.storage.UpdateClassification(ctx, txn); err != nil {
		return nil, err
	}

	slog.Info("Marked MCA funding",
		"transaction", txnID,
		"lender", lender.ID,
		"amount", txn.Amount)
	return txn, nil
}

// MarkMCAPayment classifies a debit as a payment to the given MCA lender.
func (c *Classifier) MarkMCAPayment(ctx context.Context, txnID int64, lenderID, lenderName string) (*model.Transaction, error) {
	txn, err := c.storage.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.Type != model.TypeDebit {
		return nil, fmt.Errorf("transaction %d is a %s, MCA payments are debits: %w",
			txnID, txn.Type, common.ErrInvalidTransition)
	}
	if txn.IsMCAPayment {
		return nil, fmt.Errorf("transaction %d is already marked as an MCA payment: %w", txnID, common.ErrInvalidTransition)
	}

	lender, err := c.registry.ResolveLender(ctx, lenderID, lenderName, model.KindMCALender)
	if err != nil {
		return nil, err
	}
	if err := c.registry.Learn(ctx, lender.ID, txn.Description); err != nil {
		return nil, err
	}

	txn.IsMCAPayment = true
	txn.MCALenderID = lender.ID
	if err := c.storage.UpdateClassification(ctx, txn); err != nil {
		return nil, err
	}

	slog.Info("Marked MCA payment",
		"transaction", txnID,
		"lender", lender.ID,
		"amount", txn.Amount)
	return txn, nil
}

// UnmarkMCAPayment returns a debit to regular. The lender to unlearn is
// taken from the transaction itself, never from the caller, so the wrong
// lender's usage count can't be decremented.
func (c *Classifier) UnmarkMCAPayment(ctx context.Context, txnID int64) (*model.Transaction, error) {
	txn, err := c.storage.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.Type != model.TypeDebit {
		return nil, fmt.Errorf("transaction %d is a %s: %w", txnID, txn.Type, common.ErrInvalidTransition)
	}
	if !txn.IsMCAPayment {
		return nil, fmt.Errorf("transaction %d is not marked as an MCA payment: %w", txnID, common.ErrInvalidTransition)
	}
	if txn.MCALenderID == "" {
		return nil, fmt.Errorf("transaction %d has no attributed lender: %w", txnID, common.ErrInvalidTransition)
	}

	if err := c.registry.Unlearn(ctx, txn.MCALenderID, txn.Description); err != nil {
		return nil, err
	}

	txn.IsMCAPayment = false
	txn.MCALenderID = ""
	if err := c.storage.UpdateClassification(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// FlipType corrects an extraction error by flipping a transaction between
// credit and debit. Any lender attribution is unlearned first, then the
// flip clears the old direction's classification and patches the session
// totals.
func (c *Classifier) FlipType(ctx context.Context, txnID int64) (*model.Transaction, error) {
	txn, err := c.storage.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}

	if txn.IsMCAPayment && txn.MCALenderID != "" {
		if err := c.registry.Unlearn(ctx, txn.MCALenderID, txn.Description); err != nil {
			return nil, err
		}
	}
	if txn.IsMCAFunding && txn.FundingLenderID != "" {
		if err := c.registry.Unlearn(ctx, txn.FundingLenderID, txn.Description); err != nil {
			return nil, err
		}
	}

	return c.storage.FlipTransactionType(ctx, txnID)
}

// Suggestion is an automatic lender match for an unclassified transaction.
type Suggestion struct {
	Transaction model.Transaction
	Match       registry.Match
}

// Suggest scans a session's unclassified transactions for registry matches:
// debits that look like MCA payments and credits that look like funding
// inflows. Nothing is mutated; the operator confirms suggestions through
// the mark operations.
func (c *Classifier) Suggest(ctx context.Context, sessionID string) ([]Suggestion, error) {
	txns, err := c.storage.GetTransactionsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	for i := range txns {
		txn := &txns[i]
		switch txn.Type {
		case model.TypeDebit:
			if txn.IsMCAPayment {
				continue
			}
		case model.TypeCredit:
			if txn.IsAdjustment {
				continue
			}
		}

		match, lookupErr := c.registry.Lookup(ctx, txn.Description)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if match == nil {
			continue
		}
		suggestions = append(suggestions, Suggestion{Transaction: *txn, Match: *match})
	}
	return suggestions, nil
}
