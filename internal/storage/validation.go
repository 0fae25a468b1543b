// Package storage provides the data persistence layer for the lens application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hollisfi/ledgerlens/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidLender      = errors.New("invalid lender")
	ErrInvalidOffer       = errors.New("invalid offer")
	ErrInvalidSession     = errors.New("invalid session")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := transactions[i].Validate(); err != nil {
			return fmt.Errorf("%w: index %d: %v", ErrInvalidTransaction, i, err)
		}
	}
	return nil
}

// validateSession validates a statement session.
func validateSession(session *model.StatementSession) error {
	if session == nil {
		return fmt.Errorf("%w: session", ErrNilParameter)
	}
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return nil
}

// validateLender validates a lender record.
func validateLender(lender *model.Lender) error {
	if lender == nil {
		return fmt.Errorf("%w: lender", ErrNilParameter)
	}
	if err := lender.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLender, err)
	}
	return nil
}

// validateOffer validates an offer record.
func validateOffer(offer *model.Offer) error {
	if offer == nil {
		return fmt.Errorf("%w: offer", ErrNilParameter)
	}
	if err := offer.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOffer, err)
	}
	return nil
}
