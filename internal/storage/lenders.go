package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
	"github.com/hollisfi/ledgerlens/internal/service"
)

// CreateLender inserts a new lender into the registry.
func (s *SQLiteStorage) CreateLender(ctx context.Context, lender *model.Lender) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLender(lender); err != nil {
		return err
	}

	if lender.Status == "" {
		lender.Status = model.LenderActive
	}
	if lender.CreatedAt.IsZero() {
		lender.CreatedAt = time.Now()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM lenders WHERE id = ?)`, lender.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check lender existence: %w", err)
		}
		if exists {
			return fmt.Errorf("lender %s: %w", lender.ID, common.ErrDuplicateLender)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO lenders (id, name, kind, status, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, lender.ID, lender.Name, string(lender.Kind), lender.Status, lender.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create lender: %w", err)
		}
		return nil
	})
}

// GetLender retrieves a lender by id.
func (s *SQLiteStorage) GetLender(ctx context.Context, id string) (*model.Lender, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var (
		lender model.Lender
		kind   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, status, created_at FROM lenders WHERE id = ?
	`, id).Scan(&lender.ID, &lender.Name, &kind, &lender.Status, &lender.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lender %s: %w", id, common.ErrLenderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lender: %w", err)
	}

	lender.Kind = model.LenderKind(kind)
	return &lender, nil
}

// GetLenders retrieves lenders of one kind, or every lender when kind is
// empty, ordered by name.
func (s *SQLiteStorage) GetLenders(ctx context.Context, kind model.LenderKind) ([]model.Lender, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, name, kind, status, created_at FROM lenders`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lenders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lenders []model.Lender
	for rows.Next() {
		var (
			lender     model.Lender
			lenderKind string
		)
		if scanErr := rows.Scan(&lender.ID, &lender.Name, &lenderKind, &lender.Status, &lender.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan lender: %w", scanErr)
		}
		lender.Kind = model.LenderKind(lenderKind)
		lenders = append(lenders, lender)
	}
	return lenders, rows.Err()
}

// GetLenderUsage retrieves lenders of one kind joined with their learned
// pattern statistics, most used first.
func (s *SQLiteStorage) GetLenderUsage(ctx context.Context, kind model.LenderKind) ([]service.LenderUsage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.name, l.kind, l.status, l.created_at,
			COUNT(p.id), COALESCE(SUM(p.usage_count), 0), MAX(p.last_used_at)
		FROM lenders l
		LEFT JOIN patterns p ON p.lender_id = l.id
		WHERE l.kind = ?
		GROUP BY l.id
		ORDER BY COALESCE(SUM(p.usage_count), 0) DESC, l.name
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query lender usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var usages []service.LenderUsage
	for rows.Next() {
		var (
			usage      service.LenderUsage
			lenderKind string
			lastUsed   sql.NullString
		)
		if scanErr := rows.Scan(
			&usage.Lender.ID, &usage.Lender.Name, &lenderKind, &usage.Lender.Status, &usage.Lender.CreatedAt,
			&usage.PatternCount, &usage.TotalUsage, &lastUsed,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan lender usage: %w", scanErr)
		}

		usage.Lender.Kind = model.LenderKind(lenderKind)
		// MAX() strips the column's declared type, so the driver hands the
		// timestamp back as text.
		if lastUsed.Valid {
			if t, ok := parseStoredTime(lastUsed.String); ok {
				usage.LastUsedAt = &t
			}
		}
		usages = append(usages, usage)
	}
	return usages, rows.Err()
}

var storedTimeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

func parseStoredTime(s string) (time.Time, bool) {
	for _, format := range storedTimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
