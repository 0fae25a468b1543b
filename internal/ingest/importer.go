package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hollisfi/ledgerlens/internal/model"
	"github.com/hollisfi/ledgerlens/internal/service"
)

// Importer persists extracted statements as sessions.
type Importer struct {
	storage service.Storage
}

// NewImporter creates an importer backed by the given storage.
func NewImporter(storage service.Storage) *Importer {
	return &Importer{storage: storage}
}

// NewBatchID mints an identifier shared by files imported together.
func NewBatchID() string {
	return uuid.NewString()
}

// ReadFile dispatches on the file extension and returns the extracted
// transactions plus any bank name the input carried.
func ReadFile(path string) ([]model.Transaction, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(f)
	case ".csv":
		txns, err := ReadCSV(f)
		return txns, "", err
	case ".ofx", ".qfx":
		txns, err := ReadOFX(f)
		return txns, "", err
	default:
		return nil, "", fmt.Errorf("unsupported statement format %q", filepath.Ext(path))
	}
}

// Import creates a session for one statement's transactions and saves
// both. The session totals are computed before the save so the stored row
// is consistent from the start.
func (im *Importer) Import(ctx context.Context, batchID, sourceFile, bankName string, txns []model.Transaction) (*model.StatementSession, error) {
	if len(txns) == 0 {
		return nil, fmt.Errorf("statement %s contains no transactions", sourceFile)
	}

	session := &model.StatementSession{
		ID:         uuid.NewString(),
		BatchID:    batchID,
		SourceFile: sourceFile,
		BankName:   bankName,
	}
	session.RecomputeTotals(txns)

	if err := im.storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session for %s: %w", sourceFile, err)
	}
	if err := im.storage.SaveTransactions(ctx, session.ID, txns); err != nil {
		return nil, fmt.Errorf("saving transactions for %s: %w", sourceFile, err)
	}

	slog.Info("imported statement",
		"session_id", session.ID,
		"batch_id", batchID,
		"source_file", sourceFile,
		"transactions", session.TransactionCount,
		"net_flow", session.NetFlow)
	return session, nil
}

// ImportFile reads one statement file and persists it under the batch.
func (im *Importer) ImportFile(ctx context.Context, batchID, path string) (*model.StatementSession, error) {
	txns, bankName, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, batchID, filepath.Base(path), bankName, txns)
}
