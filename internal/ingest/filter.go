package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"hauler/internal/config"
	"hauler/internal/database"
	"hauler/internal/model"
)

// Filter decides whether a normalized row is eligible for ingestion. Category
// and kind rules apply independently; a row must satisfy both. All lookup
// failures pass (fail-open): availability over strictness.
type Filter struct {
	logger             *slog.Logger
	repo               database.Repository
	allowedCategories  map[int64]struct{}
	excludedCategories map[int64]struct{}
	allowedKinds       map[string]struct{}
}

// NewFilter creates a Filter from the configured allow/deny lists.
func NewFilter(logger *slog.Logger, repo database.Repository, cfg config.IngestConfig) *Filter {
	f := &Filter{
		logger:             logger,
		repo:               repo,
		allowedCategories:  make(map[int64]struct{}),
		excludedCategories: make(map[int64]struct{}),
		allowedKinds:       make(map[string]struct{}),
	}
	for _, id := range cfg.AllowedCategoryIDs {
		f.allowedCategories[id] = struct{}{}
	}
	for _, id := range cfg.ExcludedCategoryIDs {
		f.excludedCategories[id] = struct{}{}
	}
	for _, kind := range cfg.AllowedKinds {
		f.allowedKinds[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
	}
	return f
}

// Eligible reports whether the row passes both the category and kind rules.
func (f *Filter) Eligible(ctx context.Context, row *model.NormalizedRow) bool {
	return f.categoryAllowed(row.CategoryID) && f.kindAllowed(ctx, row.CommodityID)
}

// categoryAllowed applies the allow-list when it is non-empty, otherwise the
// deny-list. Rows without a category id always pass.
func (f *Filter) categoryAllowed(categoryID *int64) bool {
	if categoryID == nil {
		return true
	}
	if len(f.allowedCategories) > 0 {
		_, ok := f.allowedCategories[*categoryID]
		return ok
	}
	_, denied := f.excludedCategories[*categoryID]
	return !denied
}

// kindAllowed checks the commodity's catalog kind against the allow-list.
// Unknown ids, missing kinds and lookup errors all pass.
func (f *Filter) kindAllowed(ctx context.Context, commodityID *int64) bool {
	if commodityID == nil {
		return true
	}
	entry, err := f.repo.CatalogEntry(ctx, *commodityID)
	if errors.Is(err, database.ErrNotFound) {
		return true
	}
	if err != nil {
		f.logger.Debug("catalog kind lookup failed, allowing row", "commodityID", *commodityID, "error", err)
		return true
	}
	if entry.Kind == nil || strings.TrimSpace(*entry.Kind) == "" {
		return true
	}
	_, ok := f.allowedKinds[strings.ToLower(strings.TrimSpace(*entry.Kind))]
	return ok
}
