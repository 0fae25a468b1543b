// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/hollisfi/ledgerlens/internal/model"
)

// LenderUsage is a lender listing row: the registry record merged with its
// learned-pattern statistics.
type LenderUsage struct {
	LastUsedAt   *time.Time
	Lender       model.Lender
	PatternCount int
	TotalUsage   int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Session operations
	SaveSession(ctx context.Context, session *model.StatementSession) error
	GetSession(ctx context.Context, id string) (*model.StatementSession, error)
	GetSessions(ctx context.Context) ([]model.StatementSession, error)
	GetSessionsByBatch(ctx context.Context, batchID string) ([]model.StatementSession, error)

	// Transaction operations
	SaveTransactions(ctx context.Context, sessionID string, transactions []model.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	GetTransactionsBySession(ctx context.Context, sessionID string) ([]model.Transaction, error)
	GetTransactionsByType(ctx context.Context, txnType model.TransactionType, sessionIDs []string) ([]model.Transaction, error)
	UpdateClassification(ctx context.Context, txn *model.Transaction) error
	FlipTransactionType(ctx context.Context, id int64) (*model.Transaction, error)

	// Lender operations
	CreateLender(ctx context.Context, lender *model.Lender) error
	GetLender(ctx context.Context, id string) (*model.Lender, error)
	GetLenders(ctx context.Context, kind model.LenderKind) ([]model.Lender, error)
	GetLenderUsage(ctx context.Context, kind model.LenderKind) ([]LenderUsage, error)

	// Pattern operations
	GetPatternsByLender(ctx context.Context, lenderID string) ([]model.Pattern, error)
	GetAllPatterns(ctx context.Context) ([]model.Pattern, error)
	UpsertPattern(ctx context.Context, lenderID, normalizedText string) error
	EnsurePattern(ctx context.Context, lenderID, normalizedText string) error
	DecrementPatternUsage(ctx context.Context, lenderID, normalizedText string) error
	SetPatternExcluded(ctx context.Context, lenderID, normalizedText string, excluded bool) error
	UpdatePatternText(ctx context.Context, patternID int64, normalizedText string) error
	DeletePattern(ctx context.Context, patternID int64) error

	// Offer operations
	SaveOffer(ctx context.Context, offer *model.Offer) error
	GetOffersBySession(ctx context.Context, sessionID string) ([]model.Offer, error)
	DeleteOffer(ctx context.Context, id string) error
	ToggleOfferFavorite(ctx context.Context, id string) (bool, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
