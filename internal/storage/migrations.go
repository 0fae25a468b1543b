package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS sessions (
					id TEXT PRIMARY KEY,
					batch_id TEXT NOT NULL,
					source_file TEXT NOT NULL,
					bank_name TEXT,
					total_credits REAL NOT NULL DEFAULT 0,
					total_debits REAL NOT NULL DEFAULT 0,
					net_flow REAL NOT NULL DEFAULT 0,
					transaction_count INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_sessions_batch ON sessions(batch_id)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					session_id TEXT NOT NULL REFERENCES sessions(id),
					date DATETIME NOT NULL,
					description TEXT NOT NULL,
					amount REAL NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('credit', 'debit')),
					category TEXT,
					is_adjustment INTEGER NOT NULL DEFAULT 0,
					adjustment_reason TEXT,
					is_mca_payment INTEGER NOT NULL DEFAULT 0,
					mca_lender_id TEXT,
					is_mca_funding INTEGER NOT NULL DEFAULT 0,
					funding_lender_id TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_session ON transactions(session_id)`,
				`CREATE INDEX idx_transactions_type ON transactions(type)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,

				`CREATE TABLE IF NOT EXISTS lenders (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					kind TEXT NOT NULL CHECK (kind IN ('mca_lender', 'debt_collector')),
					status TEXT NOT NULL DEFAULT 'active',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS patterns (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					lender_id TEXT NOT NULL REFERENCES lenders(id),
					normalized_text TEXT NOT NULL,
					usage_count INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					last_used_at DATETIME,
					UNIQUE(lender_id, normalized_text)
				)`,
				`CREATE INDEX idx_patterns_lender ON patterns(lender_id)`,

				`CREATE TABLE IF NOT EXISTS offers (
					id TEXT PRIMARY KEY,
					session_id TEXT NOT NULL REFERENCES sessions(id),
					name TEXT,
					notes TEXT,
					term_type TEXT NOT NULL,
					term_value INTEGER NOT NULL,
					withhold_percent REAL NOT NULL,
					factor_rate REAL NOT NULL,
					existing_mca_payment REAL NOT NULL DEFAULT 0,
					true_revenue_monthly REAL NOT NULL DEFAULT 0,
					override_revenue REAL NOT NULL DEFAULT 0,
					revenue_override INTEGER NOT NULL DEFAULT 0,
					advance_amount REAL NOT NULL DEFAULT 0,
					cap_amount REAL NOT NULL DEFAULT 0,
					new_payment_available REAL NOT NULL DEFAULT 0,
					total_payback REAL NOT NULL DEFAULT 0,
					monthly_payment REAL NOT NULL DEFAULT 0,
					is_favorite INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_offers_session ON offers(session_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Track operator corrections on transactions",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE transactions ADD COLUMN was_corrected INTEGER NOT NULL DEFAULT 0`); err != nil {
				return fmt.Errorf("failed to add was_corrected column: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Pattern exclusions",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE patterns ADD COLUMN excluded INTEGER NOT NULL DEFAULT 0`); err != nil {
				return fmt.Errorf("failed to add excluded column: %w", err)
			}
			if _, err := tx.Exec(`CREATE INDEX idx_patterns_excluded ON patterns(excluded)`); err != nil {
				return fmt.Errorf("failed to index excluded column: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
