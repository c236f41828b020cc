package ingest

import (
	"context"
	"errors"
	"time"

	"hauler/internal/database"
	"hauler/internal/model"
)

// upsertRow merges one normalized row into the store. The target record is
// resolved by the external id pair first, then by the case-insensitive
// name pair; when neither resolves a new record is created. A uniqueness
// violation on write means a concurrent writer won the race: the row is
// retried once against the winner, never more.
func (s *Service) upsertRow(ctx context.Context, row *model.NormalizedRow) error {
	now := time.Now().UTC()
	target, err := s.resolveTarget(ctx, row)
	if err != nil {
		return err
	}

	if target == nil {
		q := &model.Quote{}
		applyRow(q, row, now)
		err := s.repo.InsertQuote(ctx, q)
		if errors.Is(err, database.ErrDuplicateQuote) {
			return s.retryAgainstWinner(ctx, row, now, err)
		}
		return err
	}

	snapshotHistory(target)
	applyRow(target, row, now)
	err = s.repo.UpdateQuote(ctx, target)
	if errors.Is(err, database.ErrDuplicateQuote) {
		return s.retryAgainstWinner(ctx, row, now, err)
	}
	return err
}

func (s *Service) resolveTarget(ctx context.Context, row *model.NormalizedRow) (*model.Quote, error) {
	if row.CommodityID != nil && row.LocationID != nil {
		q, err := s.repo.QuoteByExternalIDs(ctx, *row.CommodityID, *row.LocationID)
		if err == nil {
			return q, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
	}
	q, err := s.repo.QuoteByNames(ctx, row.Commodity, row.Location)
	if err == nil {
		return q, nil
	}
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return nil, err
}

// retryAgainstWinner re-reads the record that won the write race by its name
// pair and retries the update against it. A second miss re-raises the
// original error as fatal for this row.
func (s *Service) retryAgainstWinner(ctx context.Context, row *model.NormalizedRow, now time.Time, orig error) error {
	existing, err := s.repo.QuoteByNames(ctx, row.Commodity, row.Location)
	if errors.Is(err, database.ErrNotFound) {
		return orig
	}
	if err != nil {
		return err
	}
	snapshotHistory(existing)
	existing.System = row.System
	existing.Buy = row.Buy
	existing.Sell = row.Sell
	existing.Currency = model.Currency
	existing.ExternalCommodityID = row.CommodityID
	existing.ExternalLocationID = row.LocationID
	existing.UpdatedAt = now
	return s.repo.UpdateQuote(ctx, existing)
}

// snapshotHistory preserves the current prices as the previous observation,
// keeping history exactly one step deep.
func snapshotHistory(q *model.Quote) {
	prevUpdated := q.UpdatedAt
	q.PrevBuy = q.Buy
	q.PrevSell = q.Sell
	q.PrevUpdatedAt = &prevUpdated
}

func applyRow(q *model.Quote, row *model.NormalizedRow, now time.Time) {
	q.Commodity = row.Commodity
	q.Location = row.Location
	q.System = row.System
	q.Buy = row.Buy
	q.Sell = row.Sell
	q.Currency = model.Currency
	q.ExternalCommodityID = row.CommodityID
	q.ExternalLocationID = row.LocationID
	q.ExternalCategoryID = row.CategoryID
	q.UpdatedAt = now
}
