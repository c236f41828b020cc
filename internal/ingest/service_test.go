package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"hauler/internal/database"
	"hauler/internal/feed"
	"hauler/internal/model"
)

func TestRefresh_RateLimitedSkipsRun(t *testing.T) {
	f := new(MockFeed)
	f.On("FetchPriceFeed", mock.Anything).Return(nil, feed.ErrRateLimited)

	s := newTestService(new(MockRepository), f)
	upserts, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Zero(t, upserts)
}

func TestRefresh_TransportErrorIsFatal(t *testing.T) {
	f := new(MockFeed)
	f.On("FetchPriceFeed", mock.Anything).Return(nil, errors.New("connection refused"))

	s := newTestService(new(MockRepository), f)
	_, err := s.Refresh(context.Background())
	assert.Error(t, err)
}

func TestRefresh_SkipsUnusableRows(t *testing.T) {
	f := new(MockFeed)
	f.On("FetchPriceFeed", mock.Anything).Return([]feed.Record{
		{"commodity": "Gold", "location": "Area18", "buy": 5.0},
		{"commodity": "NoLocation"},
		{"commodity": "WiDoW", "location": "GrimHEX", "id_category": float64(32)},
		{"commodity": "Titanium", "location": "Lorville", "sell": 9.0},
	}, nil)

	repo := new(MockRepository)
	repo.On("QuoteByNames", mock.Anything, mock.Anything, mock.Anything).Return(nil, database.ErrNotFound)
	repo.On("InsertQuote", mock.Anything, mock.Anything).Return(nil)

	s := newTestService(repo, f)
	upserts, err := s.Refresh(context.Background())
	require.NoError(t, err)
	// Only the two complete rows outside the excluded category count.
	assert.Equal(t, 2, upserts)
	repo.AssertNumberOfCalls(t, "InsertQuote", 2)
}

func TestRefresh_WriteFailureAbortsCycle(t *testing.T) {
	f := new(MockFeed)
	f.On("FetchPriceFeed", mock.Anything).Return([]feed.Record{
		{"commodity": "Gold", "location": "Area18"},
		{"commodity": "Titanium", "location": "Lorville"},
	}, nil)

	repo := new(MockRepository)
	repo.On("QuoteByNames", mock.Anything, "Gold", "Area18").Return(nil, database.ErrNotFound)
	repo.On("InsertQuote", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("QuoteByNames", mock.Anything, "Titanium", "Lorville").Return(nil, errors.New("pool closed"))

	s := newTestService(repo, f)
	upserts, err := s.Refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, upserts)
}

// blockingFeed parks FetchPriceFeed until release is closed so a second
// Refresh can be issued while the first holds the lock.
type blockingFeed struct {
	MockFeed
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingFeed) FetchPriceFeed(ctx context.Context) ([]feed.Record, error) {
	b.calls.Add(1)
	close(b.started)
	<-b.release
	return nil, nil
}

func TestRefresh_SingleFlight(t *testing.T) {
	f := &blockingFeed{started: make(chan struct{}), release: make(chan struct{})}
	s := newTestService(new(MockRepository), f)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		upserts, err := s.Refresh(context.Background())
		assert.NoError(t, err)
		assert.Zero(t, upserts)
	}()

	<-f.started
	upserts, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Zero(t, upserts)
	assert.Equal(t, int32(1), f.calls.Load())

	close(f.release)
	wg.Wait()
}

func catalogPage(n int, firstID int64) []feed.CatalogRecord {
	out := make([]feed.CatalogRecord, n)
	for i := range out {
		out[i] = feed.CatalogRecord{ID: firstID + int64(i), Name: "Entry"}
	}
	return out
}

func TestRefreshCatalog_StopsAtShortPage(t *testing.T) {
	f := new(MockFeed)
	f.On("FetchCatalogPage", mock.Anything, 1).Return(catalogPage(100, 1), nil)
	f.On("FetchCatalogPage", mock.Anything, 2).Return(catalogPage(40, 101), nil)

	repo := new(MockRepository)
	repo.On("UpsertCatalogEntry", mock.Anything, mock.Anything).Return(nil)

	s := newTestService(repo, f)
	upserts, err := s.RefreshCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 140, upserts)
	f.AssertNotCalled(t, "FetchCatalogPage", mock.Anything, 3)
}

func TestRefreshCatalog_RateLimitKeepsProgress(t *testing.T) {
	f := new(MockFeed)
	f.On("FetchCatalogPage", mock.Anything, 1).Return(catalogPage(100, 1), nil)
	f.On("FetchCatalogPage", mock.Anything, 2).Return(nil, feed.ErrRateLimited)

	repo := new(MockRepository)
	repo.On("UpsertCatalogEntry", mock.Anything, mock.Anything).Return(nil)

	s := newTestService(repo, f)
	upserts, err := s.RefreshCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, upserts)
}

func TestRefreshCatalog_SkipsNamelessEntries(t *testing.T) {
	f := new(MockFeed)
	f.On("FetchCatalogPage", mock.Anything, 1).Return([]feed.CatalogRecord{
		{ID: 1, Name: "Agricium"},
		{ID: 2, Name: "  "},
	}, nil)

	repo := new(MockRepository)
	repo.On("UpsertCatalogEntry", mock.Anything, mock.MatchedBy(func(e *model.CatalogEntry) bool {
		return e.ExternalID == 1
	})).Return(nil).Once()

	s := newTestService(repo, f)
	upserts, err := s.RefreshCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, upserts)
	repo.AssertExpectations(t)
}

func TestRefreshByCommodity(t *testing.T) {
	one := 1
	f := new(MockFeed)
	f.On("FetchCatalogPage", mock.Anything, 1).Return([]feed.CatalogRecord{
		{ID: 4, Name: "Beryl", IsBuyable: &one},
		{ID: 5, Name: "Untradable"},
	}, nil)
	f.On("FetchCommodityPrices", mock.Anything, int64(4)).Return([]feed.Record{
		{"id_commodity": float64(4), "id_terminal": float64(17), "terminal_name": "TDD Orison", "price_buy": 2.1},
	}, nil)

	repo := new(MockRepository)
	repo.On("QuoteByExternalIDs", mock.Anything, int64(4), int64(17)).Return(nil, database.ErrNotFound)
	repo.On("QuoteByNames", mock.Anything, "Beryl", "TDD Orison").Return(nil, database.ErrNotFound)
	repo.On("InsertQuote", mock.Anything, mock.MatchedBy(func(q *model.Quote) bool {
		return q.Commodity == "Beryl" && q.Location == "TDD Orison"
	})).Return(nil).Once()

	s := newTestService(repo, f)
	upserts, err := s.RefreshByCommodity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, upserts)
	f.AssertNotCalled(t, "FetchCommodityPrices", mock.Anything, int64(5))
	repo.AssertExpectations(t)
}

func TestPause_RespectsContext(t *testing.T) {
	s := newTestService(new(MockRepository), new(MockFeed))
	s.pageDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		s.pause(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pause did not return on context cancellation")
	}
}
