package ingest

import (
	"context"

	"github.com/stretchr/testify/mock"
	"hauler/internal/feed"
	"hauler/internal/model"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepository) QuoteByExternalIDs(ctx context.Context, commodityID, locationID int64) (*model.Quote, error) {
	args := m.Called(ctx, commodityID, locationID)
	q, _ := args.Get(0).(*model.Quote)
	return q, args.Error(1)
}

func (m *MockRepository) QuoteByNames(ctx context.Context, commodity, location string) (*model.Quote, error) {
	args := m.Called(ctx, commodity, location)
	q, _ := args.Get(0).(*model.Quote)
	return q, args.Error(1)
}

func (m *MockRepository) QuotesByCommodity(ctx context.Context, commodity string) ([]model.Quote, error) {
	args := m.Called(ctx, commodity)
	q, _ := args.Get(0).([]model.Quote)
	return q, args.Error(1)
}

func (m *MockRepository) QuotesByExternalCommodityID(ctx context.Context, commodityID int64) ([]model.Quote, error) {
	args := m.Called(ctx, commodityID)
	q, _ := args.Get(0).([]model.Quote)
	return q, args.Error(1)
}

func (m *MockRepository) ListCommodityNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *MockRepository) SystemsByLocation(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	systems, _ := args.Get(0).(map[string]string)
	return systems, args.Error(1)
}

func (m *MockRepository) InsertQuote(ctx context.Context, q *model.Quote) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockRepository) UpdateQuote(ctx context.Context, q *model.Quote) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockRepository) CatalogEntry(ctx context.Context, externalID int64) (*model.CatalogEntry, error) {
	args := m.Called(ctx, externalID)
	e, _ := args.Get(0).(*model.CatalogEntry)
	return e, args.Error(1)
}

func (m *MockRepository) UpsertCatalogEntry(ctx context.Context, e *model.CatalogEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) ListCatalogEntries(ctx context.Context, query string) ([]model.CatalogEntry, error) {
	args := m.Called(ctx, query)
	entries, _ := args.Get(0).([]model.CatalogEntry)
	return entries, args.Error(1)
}

type MockFeed struct {
	mock.Mock
}

func (m *MockFeed) FetchPriceFeed(ctx context.Context) ([]feed.Record, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]feed.Record)
	return records, args.Error(1)
}

func (m *MockFeed) FetchCatalogPage(ctx context.Context, page int) ([]feed.CatalogRecord, error) {
	args := m.Called(ctx, page)
	entries, _ := args.Get(0).([]feed.CatalogRecord)
	return entries, args.Error(1)
}

func (m *MockFeed) FetchCommodityPrices(ctx context.Context, commodityID int64) ([]feed.Record, error) {
	args := m.Called(ctx, commodityID)
	records, _ := args.Get(0).([]feed.Record)
	return records, args.Error(1)
}

func (m *MockFeed) Probe(ctx context.Context) (*feed.ProbeResult, error) {
	args := m.Called(ctx)
	probe, _ := args.Get(0).(*feed.ProbeResult)
	return probe, args.Error(1)
}
