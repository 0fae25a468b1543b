package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
)

const offerColumns = `id, session_id, name, notes, term_type, term_value, withhold_percent,
	factor_rate, existing_mca_payment, true_revenue_monthly, override_revenue, revenue_override,
	advance_amount, cap_amount, new_payment_available, total_payback, monthly_payment,
	is_favorite, created_at`

// SaveOffer inserts a saved offer snapshot.
func (s *SQLiteStorage) SaveOffer(ctx context.Context, offer *model.Offer) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOffer(offer); err != nil {
		return err
	}

	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offers (id, session_id, name, notes, term_type, term_value, withhold_percent,
			factor_rate, existing_mca_payment, true_revenue_monthly, override_revenue, revenue_override,
			advance_amount, cap_amount, new_payment_available, total_payback, monthly_payment,
			is_favorite, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, offer.ID, offer.SessionID, nullString(offer.Name), nullString(offer.Notes),
		string(offer.TermType), offer.TermValue, offer.WithholdPercent,
		offer.FactorRate, offer.ExistingMCAPayment, offer.TrueRevenueMonthly,
		offer.OverrideRevenue, offer.RevenueOverride,
		offer.AdvanceAmount, offer.CapAmount, offer.NewPaymentAvailable,
		offer.TotalPayback, offer.MonthlyPayment, offer.IsFavorite, offer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save offer: %w", err)
	}
	return nil
}

// GetOffersBySession retrieves a session's saved offers, favorites first.
func (s *SQLiteStorage) GetOffersBySession(ctx context.Context, sessionID string) ([]model.Offer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+offerColumns+` FROM offers
		WHERE session_id = ?
		ORDER BY is_favorite DESC, created_at DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var offers []model.Offer
	for rows.Next() {
		offer, scanErr := scanOffer(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", scanErr)
		}
		offers = append(offers, *offer)
	}
	return offers, rows.Err()
}

// DeleteOffer removes a saved offer.
func (s *SQLiteStorage) DeleteOffer(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM offers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check offer delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("offer %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// ToggleOfferFavorite flips an offer's favorite flag and returns the new
// value.
func (s *SQLiteStorage) ToggleOfferFavorite(ctx context.Context, id string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(id, "id"); err != nil {
		return false, err
	}

	var favorite bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, execErr := tx.ExecContext(ctx, `UPDATE offers SET is_favorite = NOT is_favorite WHERE id = ?`, id)
		if execErr != nil {
			return fmt.Errorf("failed to toggle offer favorite: %w", execErr)
		}

		affected, affErr := result.RowsAffected()
		if affErr != nil {
			return fmt.Errorf("failed to check favorite toggle: %w", affErr)
		}
		if affected == 0 {
			return fmt.Errorf("offer %s: %w", id, common.ErrNotFound)
		}

		return tx.QueryRowContext(ctx, `SELECT is_favorite FROM offers WHERE id = ?`, id).Scan(&favorite)
	})
	if err != nil {
		return false, err
	}
	return favorite, nil
}

func scanOffer(row rowScanner) (*model.Offer, error) {
	var (
		offer    model.Offer
		name     sql.NullString
		notes    sql.NullString
		termType string
	)
	err := row.Scan(
		&offer.ID,
		&offer.SessionID,
		&name,
		&notes,
		&termType,
		&offer.TermValue,
		&offer.WithholdPercent,
		&offer.FactorRate,
		&offer.ExistingMCAPayment,
		&offer.TrueRevenueMonthly,
		&offer.OverrideRevenue,
		&offer.RevenueOverride,
		&offer.AdvanceAmount,
		&offer.CapAmount,
		&offer.NewPaymentAvailable,
		&offer.TotalPayback,
		&offer.MonthlyPayment,
		&offer.IsFavorite,
		&offer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	offer.Name = name.String
	offer.Notes = notes.String
	offer.TermType = model.TermType(termType)
	return &offer, nil
}
