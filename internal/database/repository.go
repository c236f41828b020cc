package database

import (
	"context"
	"errors"

	"hauler/internal/model"
)

// ErrNotFound is returned by lookups that resolve no row.
var ErrNotFound = errors.New("database: not found")

// ErrDuplicateQuote is returned when a write violates the unique
// (commodity, location) constraint, meaning a concurrent writer won the race.
var ErrDuplicateQuote = errors.New("database: duplicate quote")

// Repository defines the standard interface for database operations.
type Repository interface {
	Migrate(ctx context.Context) error

	QuoteByExternalIDs(ctx context.Context, commodityID, locationID int64) (*model.Quote, error)
	QuoteByNames(ctx context.Context, commodity, location string) (*model.Quote, error)
	QuotesByCommodity(ctx context.Context, commodity string) ([]model.Quote, error)
	QuotesByExternalCommodityID(ctx context.Context, commodityID int64) ([]model.Quote, error)
	ListCommodityNames(ctx context.Context) ([]string, error)
	SystemsByLocation(ctx context.Context) (map[string]string, error)
	InsertQuote(ctx context.Context, q *model.Quote) error
	UpdateQuote(ctx context.Context, q *model.Quote) error

	CatalogEntry(ctx context.Context, externalID int64) (*model.CatalogEntry, error)
	UpsertCatalogEntry(ctx context.Context, e *model.CatalogEntry) error
	ListCatalogEntries(ctx context.Context, query string) ([]model.CatalogEntry, error)
}
