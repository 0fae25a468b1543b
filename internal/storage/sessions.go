package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
)

const sessionColumns = `id, batch_id, source_file, bank_name, total_credits, total_debits, net_flow, transaction_count, created_at`

// SaveSession inserts or replaces a statement session row.
func (s *SQLiteStorage) SaveSession(ctx context.Context, session *model.StatementSession) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSession(session); err != nil {
		return err
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, batch_id, source_file, bank_name, total_credits, total_debits, net_flow, transaction_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			total_credits = excluded.total_credits,
			total_debits = excluded.total_debits,
			net_flow = excluded.net_flow,
			transaction_count = excluded.transaction_count
	`, session.ID, session.BatchID, session.SourceFile, nullString(session.BankName),
		session.TotalCredits, session.TotalDebits, session.NetFlow, session.TransactionCount, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by id.
func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*model.StatementSession, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getSessionTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getSessionTx(ctx context.Context, q queryable, id string) (*model.StatementSession, error) {
	row := q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// GetSessions retrieves every session, newest first.
func (s *SQLiteStorage) GetSessions(ctx context.Context) ([]model.StatementSession, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.querySessions(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC, id`)
}

// GetSessionsByBatch retrieves the sessions imported together as one batch.
func (s *SQLiteStorage) GetSessionsByBatch(ctx context.Context, batchID string) ([]model.StatementSession, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(batchID, "batchID"); err != nil {
		return nil, err
	}
	return s.querySessions(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE batch_id = ? ORDER BY source_file`, batchID)
}

func (s *SQLiteStorage) querySessions(ctx context.Context, query string, args ...any) ([]model.StatementSession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.StatementSession
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan session: %w", scanErr)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.StatementSession, error) {
	var (
		session  model.StatementSession
		bankName sql.NullString
	)
	err := row.Scan(
		&session.ID,
		&session.BatchID,
		&session.SourceFile,
		&bankName,
		&session.TotalCredits,
		&session.TotalDebits,
		&session.NetFlow,
		&session.TransactionCount,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.BankName = bankName.String
	return &session, nil
}

// nullString maps the empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
