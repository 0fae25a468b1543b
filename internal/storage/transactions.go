package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
)

const transactionColumns = `id, session_id, date, description, amount, type, category,
	is_adjustment, adjustment_reason, is_mca_payment, mca_lender_id,
	is_mca_funding, funding_lender_id, was_corrected, created_at`

// SaveTransactions inserts a session's extracted transactions and refreshes
// the session's cached totals in the same database transaction.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, sessionID string, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (session_id, date, description, amount, type, category,
				is_adjustment, adjustment_reason, is_mca_payment, mca_lender_id,
				is_mca_funding, funding_lender_id, was_corrected, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		now := time.Now()
		for i := range transactions {
			txn := &transactions[i]
			txn.SessionID = sessionID
			if txn.CreatedAt.IsZero() {
				txn.CreatedAt = now
			}

			result, execErr := stmt.ExecContext(ctx,
				txn.SessionID, txn.Date, txn.Description, txn.Amount, string(txn.Type),
				nullString(txn.Category), txn.IsAdjustment, nullString(string(txn.AdjustmentReason)),
				txn.IsMCAPayment, nullString(txn.MCALenderID),
				txn.IsMCAFunding, nullString(txn.FundingLenderID),
				txn.WasCorrected, txn.CreatedAt)
			if execErr != nil {
				return fmt.Errorf("failed to insert transaction: %w", execErr)
			}

			id, idErr := result.LastInsertId()
			if idErr != nil {
				return fmt.Errorf("failed to read transaction id: %w", idErr)
			}
			txn.ID = id
		}

		return s.refreshSessionTotalsTx(ctx, tx, sessionID)
	})
}

// GetTransaction retrieves a single transaction by id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactionsBySession retrieves a session's transactions in date order.
func (s *SQLiteStorage) GetTransactionsBySession(ctx context.Context, sessionID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}
	return s.queryTransactions(ctx, s.db,
		`SELECT `+transactionColumns+` FROM transactions WHERE session_id = ? ORDER BY date, id`, sessionID)
}

// GetTransactionsByType retrieves transactions of one direction, optionally
// restricted to a set of sessions. An empty sessionIDs slice means all.
func (s *SQLiteStorage) GetTransactionsByType(ctx context.Context, txnType model.TransactionType, sessionIDs []string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE type = ?`
	args := []any{string(txnType)}

	if len(sessionIDs) > 0 {
		placeholders := strings.Repeat("?, ", len(sessionIDs)-1) + "?"
		query += ` AND session_id IN (` + placeholders + `)`
		for _, id := range sessionIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY date, id`

	return s.queryTransactions(ctx, s.db, query, args...)
}

// UpdateClassification persists a transaction's classification fields. The
// extraction fields are never touched.
func (s *SQLiteStorage) UpdateClassification(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			category = ?,
			is_adjustment = ?,
			adjustment_reason = ?,
			is_mca_payment = ?,
			mca_lender_id = ?,
			is_mca_funding = ?,
			funding_lender_id = ?,
			was_corrected = ?
		WHERE id = ?
	`, nullString(txn.Category), txn.IsAdjustment, nullString(string(txn.AdjustmentReason)),
		txn.IsMCAPayment, nullString(txn.MCALenderID),
		txn.IsMCAFunding, nullString(txn.FundingLenderID),
		txn.WasCorrected, txn.ID)
	if err != nil {
		return fmt.Errorf("failed to update classification: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d: %w", txn.ID, common.ErrNotFound)
	}
	return nil
}

// FlipTransactionType corrects an extraction error by flipping a
// transaction between credit and debit. Classification state from the old
// direction is cleared and the session's cached totals are patched, all in
// one database transaction.
func (s *SQLiteStorage) FlipTransactionType(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var flipped *model.Transaction
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
		txn, scanErr := scanTransaction(row)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
		}
		if scanErr != nil {
			return fmt.Errorf("failed to get transaction: %w", scanErr)
		}

		if txn.Type == model.TypeCredit {
			txn.Type = model.TypeDebit
		} else {
			txn.Type = model.TypeCredit
		}

		// The old direction's classification no longer applies.
		txn.IsAdjustment = false
		txn.AdjustmentReason = model.AdjustmentNone
		txn.IsMCAPayment = false
		txn.MCALenderID = ""
		txn.IsMCAFunding = false
		txn.FundingLenderID = ""
		txn.WasCorrected = true

		_, execErr := tx.ExecContext(ctx, `
			UPDATE transactions SET
				type = ?,
				is_adjustment = 0,
				adjustment_reason = NULL,
				is_mca_payment = 0,
				mca_lender_id = NULL,
				is_mca_funding = 0,
				funding_lender_id = NULL,
				was_corrected = 1
			WHERE id = ?
		`, string(txn.Type), txn.ID)
		if execErr != nil {
			return fmt.Errorf("failed to flip transaction type: %w", execErr)
		}

		flipped = txn
		return s.refreshSessionTotalsTx(ctx, tx, txn.SessionID)
	})
	if err != nil {
		return nil, err
	}
	return flipped, nil
}

// refreshSessionTotalsTx recomputes a session's cached totals from its
// current transaction rows.
func (s *SQLiteStorage) refreshSessionTotalsTx(ctx context.Context, tx *sql.Tx, sessionID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sessions SET
			total_credits = (SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE session_id = ? AND type = 'credit'),
			total_debits = (SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE session_id = ? AND type = 'debit'),
			transaction_count = (SELECT COUNT(*) FROM transactions WHERE session_id = ?)
		WHERE id = ?
	`, sessionID, sessionID, sessionID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to refresh session totals: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sessions SET net_flow = total_credits - total_debits WHERE id = ?
	`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to refresh session net flow: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, q queryable, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", scanErr)
		}
		transactions = append(transactions, *txn)
	}
	return transactions, rows.Err()
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn              model.Transaction
		txnType          string
		category         sql.NullString
		adjustmentReason sql.NullString
		mcaLenderID      sql.NullString
		fundingLenderID  sql.NullString
	)
	err := row.Scan(
		&txn.ID,
		&txn.SessionID,
		&txn.Date,
		&txn.Description,
		&txn.Amount,
		&txnType,
		&category,
		&txn.IsAdjustment,
		&adjustmentReason,
		&txn.IsMCAPayment,
		&mcaLenderID,
		&txn.IsMCAFunding,
		&fundingLenderID,
		&txn.WasCorrected,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Type = model.TransactionType(txnType)
	txn.Category = category.String
	txn.AdjustmentReason = model.AdjustmentReason(adjustmentReason.String)
	txn.MCALenderID = mcaLenderID.String
	txn.FundingLenderID = fundingLenderID.String
	return &txn, nil
}
