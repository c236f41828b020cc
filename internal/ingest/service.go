package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"hauler/internal/config"
	"hauler/internal/database"
	"hauler/internal/feed"
)

// Feed is the outbound surface the ingestion pipeline consumes.
type Feed interface {
	FetchPriceFeed(ctx context.Context) ([]feed.Record, error)
	FetchCatalogPage(ctx context.Context, page int) ([]feed.CatalogRecord, error)
	FetchCommodityPrices(ctx context.Context, commodityID int64) ([]feed.Record, error)
	Probe(ctx context.Context) (*feed.ProbeResult, error)
}

// Service owns the ingestion pipeline: fetch, normalize, classify, upsert.
// A non-blocking single-flight lock drops refreshes that overlap a run
// already in progress.
type Service struct {
	logger    *slog.Logger
	repo      database.Repository
	feed      Feed
	filter    *Filter
	maxPages  int
	pageDelay time.Duration

	refreshMu sync.Mutex
}

// NewService creates a new ingestion Service.
func NewService(logger *slog.Logger, repo database.Repository, f Feed, feedCfg config.FeedConfig, ingestCfg config.IngestConfig) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		feed:      f,
		filter:    NewFilter(logger, repo, ingestCfg),
		maxPages:  feedCfg.CatalogMaxPages,
		pageDelay: feedCfg.PageDelay,
	}
}

// Refresh runs one full ingestion cycle and returns the number of upserted
// quotes. A concurrent call while a cycle is in flight returns 0 immediately.
// Rate limiting ends the cycle early with zero upserts; any other fetch or
// write failure aborts the cycle and is surfaced to the caller.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if !s.refreshMu.TryLock() {
		s.logger.Warn("refresh already in progress, skipping concurrent request")
		return 0, nil
	}
	defer s.refreshMu.Unlock()

	records, err := s.feed.FetchPriceFeed(ctx)
	if errors.Is(err, feed.ErrRateLimited) {
		s.logger.Warn("feed rate limited, skipping this run")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	s.logger.Info("feed parsed", "items", len(records))

	upserts := 0
	for _, rec := range records {
		row := feed.Normalize(rec)
		if row == nil {
			continue
		}
		if !s.filter.Eligible(ctx, row) {
			continue
		}
		if err := s.upsertRow(ctx, row); err != nil {
			return upserts, err
		}
		upserts++
	}
	return upserts, nil
}

// RefreshCatalog refreshes the commodity catalog wholesale from the paginated
// upstream endpoint. Pagination stops at a short page, at the configured page
// cap, or cleanly on rate limiting; stale entries are never deleted.
func (s *Service) RefreshCatalog(ctx context.Context) (int, error) {
	upserts := 0
	for page := 1; page <= s.maxPages; page++ {
		entries, err := s.feed.FetchCatalogPage(ctx, page)
		if errors.Is(err, feed.ErrRateLimited) {
			s.logger.Warn("catalog rate limited, stopping pagination", "page", page)
			break
		}
		if err != nil {
			return upserts, err
		}
		if len(entries) == 0 {
			break
		}
		for _, rec := range entries {
			entry := rec.Entry()
			if entry == nil {
				continue
			}
			if err := s.repo.UpsertCatalogEntry(ctx, entry); err != nil {
				return upserts, err
			}
			upserts++
		}
		if feed.LastCatalogPage(entries) {
			break
		}
		s.pause(ctx)
	}
	return upserts, nil
}

// RefreshByCommodity is the secondary ingestion path: it walks the buyable or
// sellable subset of the catalog and ingests the per-commodity price pages
// one commodity at a time. Slower but finer-grained than Refresh; shares the
// same single-flight guard and upsert engine.
func (s *Service) RefreshByCommodity(ctx context.Context) (int, error) {
	if !s.refreshMu.TryLock() {
		s.logger.Warn("refresh already in progress, skipping concurrent request")
		return 0, nil
	}
	defer s.refreshMu.Unlock()

	metas, err := s.tradableCommodities(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("commodity metas fetched", "count", len(metas))

	upserts := 0
	for _, meta := range metas {
		records, err := s.feed.FetchCommodityPrices(ctx, meta.id)
		if err != nil {
			return upserts, err
		}
		for _, rec := range records {
			row := feed.NormalizeCommodityPrice(rec, meta.name)
			if row == nil {
				continue
			}
			if err := s.upsertRow(ctx, row); err != nil {
				return upserts, err
			}
			upserts++
		}
		s.pause(ctx)
	}
	return upserts, nil
}

type commodityMeta struct {
	id   int64
	name string
}

// tradableCommodities pages through the upstream catalog and keeps entries
// that are buyable or sellable.
func (s *Service) tradableCommodities(ctx context.Context) ([]commodityMeta, error) {
	var out []commodityMeta
	for page := 1; page <= s.maxPages; page++ {
		entries, err := s.feed.FetchCatalogPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			break
		}
		for _, rec := range entries {
			buyable := rec.IsBuyable != nil && *rec.IsBuyable == 1
			sellable := rec.IsSellable != nil && *rec.IsSellable == 1
			if !buyable && !sellable {
				continue
			}
			out = append(out, commodityMeta{id: rec.ID, name: rec.Name})
		}
		if feed.LastCatalogPage(entries) {
			break
		}
		s.pause(ctx)
	}
	return out, nil
}

// pause inserts the politeness delay between successive upstream fetches.
// Not correctness-relevant; it only spreads load on the upstream.
func (s *Service) pause(ctx context.Context) {
	if s.pageDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.pageDelay):
	}
}
