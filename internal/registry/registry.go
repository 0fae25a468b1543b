// Package registry maintains the lender registry and its learned
// description patterns, and answers pattern lookups for the classifier.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hollisfi/ledgerlens/internal/common"
	"github.com/hollisfi/ledgerlens/internal/model"
	"github.com/hollisfi/ledgerlens/internal/normalize"
	"github.com/hollisfi/ledgerlens/internal/service"
)

// ErrLastPattern is returned when removing a pattern would leave its lender
// with no patterns at all.
var ErrLastPattern = errors.New("cannot remove a lender's last pattern")

// Registry wraps storage with the lender and pattern operations the
// classifier and CLI need.
type Registry struct {
	storage service.Storage
}

// New creates a registry backed by the given storage.
func New(storage service.Storage) *Registry {
	return &Registry{storage: storage}
}

// Match is a successful pattern lookup.
type Match struct {
	LenderID   string
	LenderName string
	Pattern    string
	UsageCount int
	Exact      bool
}

// Lookup finds the lender whose learned patterns best match a raw
// transaction description. Exact matches win over similarity matches, and
// within each class the most-used pattern wins. A nil match with a nil
// error means no lender matched, including when the description's exact
// pattern has been excluded by the operator.
func (r *Registry) Lookup(ctx context.Context, description string) (*Match, error) {
	key := normalize.Key(description)
	if key == "" {
		return nil, nil
	}

	patterns, err := r.storage.GetAllPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}

	// Patterns arrive ordered by usage, so the first hit in each pass is
	// also the most-used one.
	for i := range patterns {
		if patterns[i].NormalizedText != key {
			continue
		}
		if patterns[i].Excluded {
			slog.Debug("Exact pattern excluded from matching",
				"lender", patterns[i].LenderID,
				"pattern", patterns[i].NormalizedText)
			return nil, nil
		}
		return r.matchFor(ctx, &patterns[i], true)
	}

	for i := range patterns {
		if patterns[i].Excluded {
			continue
		}
		if normalize.IsSimilar(patterns[i].NormalizedText, key) {
			return r.matchFor(ctx, &patterns[i], false)
		}
	}

	return nil, nil
}

func (r *Registry) matchFor(ctx context.Context, pattern *model.Pattern, exact bool) (*Match, error) {
	lender, err := r.storage.GetLender(ctx, pattern.LenderID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve matched lender: %w", err)
	}
	return &Match{
		LenderID:   lender.ID,
		LenderName: lender.Name,
		Pattern:    pattern.NormalizedText,
		UsageCount: pattern.UsageCount,
		Exact:      exact,
	}, nil
}

// Learn records that a description belongs to a lender, bumping the
// pattern's usage count or creating it at one.
func (r *Registry) Learn(ctx context.Context, lenderID, description string) error {
	key := normalize.Key(description)
	if key == "" {
		return common.NewValidationError("description", "normalizes to nothing learnable")
	}

	if _, err := r.storage.GetLender(ctx, lenderID); err != nil {
		return err
	}
	return r.storage.UpsertPattern(ctx, lenderID, key)
}

// Unlearn reverses one Learn for the same lender and description. Usage
// floors at zero and the pattern row survives.
func (r *Registry) Unlearn(ctx context.Context, lenderID, description string) error {
	key := normalize.Key(description)
	if key == "" {
		return common.NewValidationError("description", "normalizes to nothing learnable")
	}
	return r.storage.DecrementPatternUsage(ctx, lenderID, key)
}

// CreateLender registers an operator-entered lender under a synthesized
// custom id, seeding its name as the first pattern.
func (r *Registry) CreateLender(ctx context.Context, name string, kind model.LenderKind) (*model.Lender, error) {
	lender := &model.Lender{
		ID:     model.CustomLenderID(name),
		Name:   name,
		Kind:   kind,
		Status: model.LenderActive,
	}
	if err := lender.Validate(); err != nil {
		return nil, common.NewValidationError("name", err.Error())
	}

	if err := r.storage.CreateLender(ctx, lender); err != nil {
		return nil, err
	}
	if err := r.storage.EnsurePattern(ctx, lender.ID, normalize.Key(name)); err != nil {
		return nil, err
	}
	return lender, nil
}

// ResolveLender returns the lender for an id, creating a custom entry when
// the id is unknown and a display name was supplied.
func (r *Registry) ResolveLender(ctx context.Context, lenderID, name string, kind model.LenderKind) (*model.Lender, error) {
	if lenderID == "" && name == "" {
		return nil, common.NewValidationError("lender", "either a lender id or a name is required")
	}
	if lenderID == "" {
		lenderID = model.CustomLenderID(name)
	}

	lender, err := r.storage.GetLender(ctx, lenderID)
	if err == nil {
		return lender, nil
	}
	if !errors.Is(err, common.ErrLenderNotFound) {
		return nil, err
	}
	if name == "" {
		return nil, err
	}

	return r.CreateLender(ctx, name, kind)
}

// Lenders lists lenders of one kind with their pattern usage statistics.
func (r *Registry) Lenders(ctx context.Context, kind model.LenderKind) ([]service.LenderUsage, error) {
	return r.storage.GetLenderUsage(ctx, kind)
}

// Patterns lists a lender's learned patterns.
func (r *Registry) Patterns(ctx context.Context, lenderID string) ([]model.Pattern, error) {
	if _, err := r.storage.GetLender(ctx, lenderID); err != nil {
		return nil, err
	}
	return r.storage.GetPatternsByLender(ctx, lenderID)
}

// AddPattern manually attaches a pattern to a lender without counting a
// sighting.
func (r *Registry) AddPattern(ctx context.Context, lenderID, text string) error {
	key := normalize.Key(text)
	if key == "" {
		return common.NewValidationError("pattern", "normalizes to nothing learnable")
	}
	if _, err := r.storage.GetLender(ctx, lenderID); err != nil {
		return err
	}
	return r.storage.EnsurePattern(ctx, lenderID, key)
}

// RenamePattern rewrites a pattern's text in place, keeping its history.
func (r *Registry) RenamePattern(ctx context.Context, patternID int64, text string) error {
	key := normalize.Key(text)
	if key == "" {
		return common.NewValidationError("pattern", "normalizes to nothing learnable")
	}
	return r.storage.UpdatePatternText(ctx, patternID, key)
}

// RemovePattern deletes a pattern unless it is its lender's last one.
func (r *Registry) RemovePattern(ctx context.Context, patternID int64) error {
	patterns, err := r.storage.GetAllPatterns(ctx)
	if err != nil {
		return fmt.Errorf("failed to load patterns: %w", err)
	}

	var target *model.Pattern
	siblings := 0
	for i := range patterns {
		if patterns[i].ID == patternID {
			target = &patterns[i]
		}
	}
	if target == nil {
		return fmt.Errorf("pattern %d: %w", patternID, common.ErrNotFound)
	}
	for i := range patterns {
		if patterns[i].LenderID == target.LenderID {
			siblings++
		}
	}
	if siblings <= 1 {
		return fmt.Errorf("lender %s: %w", target.LenderID, ErrLastPattern)
	}

	return r.storage.DeletePattern(ctx, patternID)
}

// SetExcluded marks or unmarks a lender's pattern as excluded from
// matching.
func (r *Registry) SetExcluded(ctx context.Context, lenderID, description string, excluded bool) error {
	key := normalize.Key(description)
	if key == "" {
		return common.NewValidationError("description", "normalizes to nothing excludable")
	}
	return r.storage.SetPatternExcluded(ctx, lenderID, key, excluded)
}

// IsExcluded reports whether a description's exact pattern has been
// excluded from matching for any lender.
func (r *Registry) IsExcluded(ctx context.Context, description string) (bool, error) {
	key := normalize.Key(description)
	if key == "" {
		return false, nil
	}

	patterns, err := r.storage.GetAllPatterns(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load patterns: %w", err)
	}
	for i := range patterns {
		if patterns[i].Excluded && patterns[i].NormalizedText == key {
			return true, nil
		}
	}
	return false, nil
}
