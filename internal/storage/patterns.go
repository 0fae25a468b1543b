package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
)

const patternColumns = `id, lender_id, normalized_text, usage_count, excluded, created_at, last_used_at`

// GetPatternsByLender retrieves a lender's learned patterns, most used first.
func (s *SQLiteStorage) GetPatternsByLender(ctx context.Context, lenderID string) ([]model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(lenderID, "lenderID"); err != nil {
		return nil, err
	}
	return s.queryPatterns(ctx,
		`SELECT `+patternColumns+` FROM patterns WHERE lender_id = ? ORDER BY usage_count DESC, normalized_text`, lenderID)
}

// GetAllPatterns retrieves every learned pattern. Results are cached briefly
// because the matcher scans the full set on every classification.
func (s *SQLiteStorage) GetAllPatterns(ctx context.Context) ([]model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	if patterns := s.cachedPatterns(); patterns != nil {
		return patterns, nil
	}

	patterns, err := s.queryPatterns(ctx,
		`SELECT `+patternColumns+` FROM patterns ORDER BY usage_count DESC, lender_id, normalized_text`)
	if err != nil {
		return nil, err
	}

	s.cachePatterns(patterns)
	return patterns, nil
}

// UpsertPattern records one more sighting of a normalized pattern for a
// lender: a new row starts at usage_count 1, an existing row is bumped by
// one. The update is a single statement so concurrent learns never lose
// counts.
func (s *SQLiteStorage) UpsertPattern(ctx context.Context, lenderID, normalizedText string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(lenderID, "lenderID"); err != nil {
		return err
	}
	if err := validateString(normalizedText, "normalizedText"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patterns (lender_id, normalized_text, usage_count, created_at, last_used_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(lender_id, normalized_text) DO UPDATE SET
			usage_count = usage_count + 1,
			last_used_at = excluded.last_used_at
	`, lenderID, normalizedText, time.Now(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert pattern: %w", err)
	}

	s.invalidatePatternCache()
	return nil
}

// EnsurePattern inserts a pattern row at zero usage if it does not already
// exist. Seeding uses this so re-runs never inflate usage counts.
func (s *SQLiteStorage) EnsurePattern(ctx context.Context, lenderID, normalizedText string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(lenderID, "lenderID"); err != nil {
		return err
	}
	if err := validateString(normalizedText, "normalizedText"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patterns (lender_id, normalized_text, usage_count, created_at)
		VALUES (?, ?, 0, ?)
		ON CONFLICT(lender_id, normalized_text) DO NOTHING
	`, lenderID, normalizedText, time.Now())
	if err != nil {
		return fmt.Errorf("failed to ensure pattern: %w", err)
	}

	s.invalidatePatternCache()
	return nil
}

// DecrementPatternUsage reverses one learned sighting, flooring at zero. The
// row itself is kept so the pattern's history survives reverted
// classifications.
func (s *SQLiteStorage) DecrementPatternUsage(ctx context.Context, lenderID, normalizedText string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(lenderID, "lenderID"); err != nil {
		return err
	}
	if err := validateString(normalizedText, "normalizedText"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE patterns SET usage_count = MAX(usage_count - 1, 0)
		WHERE lender_id = ? AND normalized_text = ?
	`, lenderID, normalizedText)
	if err != nil {
		return fmt.Errorf("failed to decrement pattern usage: %w", err)
	}

	s.invalidatePatternCache()
	return nil
}

// SetPatternExcluded marks or unmarks a pattern as excluded from matching.
func (s *SQLiteStorage) SetPatternExcluded(ctx context.Context, lenderID, normalizedText string, excluded bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(lenderID, "lenderID"); err != nil {
		return err
	}
	if err := validateString(normalizedText, "normalizedText"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE patterns SET excluded = ? WHERE lender_id = ? AND normalized_text = ?
	`, excluded, lenderID, normalizedText)
	if err != nil {
		return fmt.Errorf("failed to set pattern exclusion: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check exclusion update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pattern %q for lender %s: %w", normalizedText, lenderID, common.ErrNotFound)
	}

	s.invalidatePatternCache()
	return nil
}

// UpdatePatternText rewrites a pattern's normalized text in place, keeping
// its usage history.
func (s *SQLiteStorage) UpdatePatternText(ctx context.Context, patternID int64, normalizedText string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(normalizedText, "normalizedText"); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var lenderID string
		err := tx.QueryRowContext(ctx, `SELECT lender_id FROM patterns WHERE id = ?`, patternID).Scan(&lenderID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("pattern %d: %w", patternID, common.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get pattern: %w", err)
		}

		var clash bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM patterns WHERE lender_id = ? AND normalized_text = ? AND id != ?)
		`, lenderID, normalizedText, patternID).Scan(&clash)
		if err != nil {
			return fmt.Errorf("failed to check pattern clash: %w", err)
		}
		if clash {
			return fmt.Errorf("pattern %q for lender %s: %w", normalizedText, lenderID, common.ErrDuplicateEntry)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE patterns SET normalized_text = ? WHERE id = ?
		`, normalizedText, patternID); err != nil {
			return fmt.Errorf("failed to update pattern text: %w", err)
		}

		s.invalidatePatternCache()
		return nil
	})
}

// DeletePattern removes a pattern row entirely.
func (s *SQLiteStorage) DeletePattern(ctx context.Context, patternID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, patternID)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check pattern delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pattern %d: %w", patternID, common.ErrNotFound)
	}

	s.invalidatePatternCache()
	return nil
}

func (s *SQLiteStorage) queryPatterns(ctx context.Context, query string, args ...any) ([]model.Pattern, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []model.Pattern
	for rows.Next() {
		var (
			pattern  model.Pattern
			lastUsed sql.NullTime
		)
		if scanErr := rows.Scan(
			&pattern.ID, &pattern.LenderID, &pattern.NormalizedText,
			&pattern.UsageCount, &pattern.Excluded, &pattern.CreatedAt, &lastUsed,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", scanErr)
		}
		if lastUsed.Valid {
			pattern.LastUsedAt = lastUsed.Time
		}
		patterns = append(patterns, pattern)
	}
	return patterns, rows.Err()
}
