package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/hollisfi/ledgerlens/internal/classify"
	"github.com/hollisfi/ledgerlens/internal/config"
	"github.com/hollisfi/ledgerlens/internal/model"
	"github.com/hollisfi/ledgerlens/internal/registry"
	"github.com/hollisfi/ledgerlens/internal/service"
	"github.com/hollisfi/ledgerlens/internal/storage"
)

// app bundles the services every command needs.
type app struct {
	store      service.Storage
	registry   *registry.Registry
	classifier *classify.Classifier
}

// initApp opens storage, runs migrations, and wires the service graph.
func initApp(ctx context.Context) (*app, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}

	reg := registry.New(store)
	return &app{
		store:      store,
		registry:   reg,
		classifier: classify.New(store, reg),
	}, nil
}

// Close releases the underlying storage.
func (a *app) Close() {
	_ = a.store.Close()
}

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/lens/lens.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// resolveSessions turns a --batch flag or explicit session id arguments
// into session records. Exactly one form must be supplied.
func resolveSessions(ctx context.Context, store service.Storage, batchID string, sessionIDs []string) ([]model.StatementSession, error) {
	switch {
	case batchID != "" && len(sessionIDs) > 0:
		return nil, fmt.Errorf("pass either --batch or session ids, not both")
	case batchID != "":
		sessions, err := store.GetSessionsByBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}
		if len(sessions) == 0 {
			return nil, fmt.Errorf("batch %s has no sessions", batchID)
		}
		return sessions, nil
	case len(sessionIDs) > 0:
		sessions := make([]model.StatementSession, 0, len(sessionIDs))
		for _, id := range sessionIDs {
			session, err := store.GetSession(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("session %s: %w", id, err)
			}
			sessions = append(sessions, *session)
		}
		return sessions, nil
	default:
		return nil, fmt.Errorf("pass --batch or at least one session id")
	}
}

// collectTransactions loads the transactions of the given sessions in
// session order.
func collectTransactions(ctx context.Context, store service.Storage, sessions []model.StatementSession) ([]model.Transaction, error) {
	var txns []model.Transaction
	for i := range sessions {
		sessionTxns, err := store.GetTransactionsBySession(ctx, sessions[i].ID)
		if err != nil {
			return nil, fmt.Errorf("loading transactions of session %s: %w", sessions[i].ID, err)
		}
		txns = append(txns, sessionTxns...)
	}
	return txns, nil
}

// lenderNameResolver returns a display-name lookup backed by the registry,
// falling back to the raw id for unknown lenders.
func lenderNameResolver(ctx context.Context, store service.Storage) func(id string) string {
	return func(id string) string {
		lender, err := store.GetLender(ctx, id)
		if err != nil {
			return id
		}
		return lender.Name
	}
}

// money formats an amount for terminal display.
func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// short truncates long identifiers for table display.
func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
