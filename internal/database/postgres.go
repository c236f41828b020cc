package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"hauler/internal/model"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository on top of a pgx connection pool.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

const quoteColumns = `id, commodity, location, star_system, buy, sell, currency,
	external_commodity_id, external_location_id, external_category_id,
	prev_buy, prev_sell, prev_updated_at, updated_at`

// Migrate creates the schema if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			id BIGSERIAL PRIMARY KEY,
			commodity VARCHAR(120) NOT NULL,
			location VARCHAR(160) NOT NULL,
			star_system VARCHAR(80),
			buy DOUBLE PRECISION,
			sell DOUBLE PRECISION,
			currency VARCHAR(8),
			external_commodity_id BIGINT,
			external_location_id BIGINT,
			external_category_id BIGINT,
			prev_buy DOUBLE PRECISION,
			prev_sell DOUBLE PRECISION,
			prev_updated_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_quotes_commodity_location
			ON quotes (lower(commodity), lower(location))`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_external_ids
			ON quotes (external_commodity_id, external_location_id)`,
		`CREATE TABLE IF NOT EXISTS catalog_entries (
			external_id BIGINT PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			code VARCHAR(16),
			kind VARCHAR(64),
			weight_scu DOUBLE PRECISION,
			buyable BOOLEAN,
			sellable BOOLEAN,
			extractable BOOLEAN,
			mineral BOOLEAN,
			raw BOOLEAN,
			refined BOOLEAN,
			wiki_url VARCHAR(512),
			date_added TIMESTAMPTZ,
			date_modified TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_entries_name ON catalog_entries (name)`,
	}
	for _, stmt := range stmts {
		if _, err := r.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func scanQuote(row pgx.Row) (*model.Quote, error) {
	var q model.Quote
	err := row.Scan(&q.ID, &q.Commodity, &q.Location, &q.System, &q.Buy, &q.Sell, &q.Currency,
		&q.ExternalCommodityID, &q.ExternalLocationID, &q.ExternalCategoryID,
		&q.PrevBuy, &q.PrevSell, &q.PrevUpdatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *PostgresRepository) QuoteByExternalIDs(ctx context.Context, commodityID, locationID int64) (*model.Quote, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE external_commodity_id = $1 AND external_location_id = $2`,
		commodityID, locationID)
	return scanQuote(row)
}

func (r *PostgresRepository) QuoteByNames(ctx context.Context, commodity, location string) (*model.Quote, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE lower(commodity) = lower($1) AND lower(location) = lower($2)`,
		commodity, location)
	return scanQuote(row)
}

func (r *PostgresRepository) QuotesByCommodity(ctx context.Context, commodity string) ([]model.Quote, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE lower(commodity) = lower($1)`, commodity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuotes(rows)
}

func (r *PostgresRepository) QuotesByExternalCommodityID(ctx context.Context, commodityID int64) ([]model.Quote, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE external_commodity_id = $1`, commodityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuotes(rows)
}

func collectQuotes(rows pgx.Rows) ([]model.Quote, error) {
	var out []model.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListCommodityNames(ctx context.Context) ([]string, error) {
	rows, err := r.Pool.Query(ctx, `SELECT DISTINCT commodity FROM quotes ORDER BY commodity ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// SystemsByLocation returns a lowercase location -> system index built from
// all quotes that carry a system name.
func (r *PostgresRepository) SystemsByLocation(ctx context.Context) (map[string]string, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT DISTINCT lower(location), star_system FROM quotes WHERE star_system IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var loc, system string
		if err := rows.Scan(&loc, &system); err != nil {
			return nil, err
		}
		out[loc] = system
	}
	return out, rows.Err()
}

func (r *PostgresRepository) InsertQuote(ctx context.Context, q *model.Quote) error {
	err := r.Pool.QueryRow(ctx,
		`INSERT INTO quotes (commodity, location, star_system, buy, sell, currency,
			external_commodity_id, external_location_id, external_category_id,
			prev_buy, prev_sell, prev_updated_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		q.Commodity, q.Location, q.System, q.Buy, q.Sell, q.Currency,
		q.ExternalCommodityID, q.ExternalLocationID, q.ExternalCategoryID,
		q.PrevBuy, q.PrevSell, q.PrevUpdatedAt, q.UpdatedAt).Scan(&q.ID)
	return mapWriteErr(err)
}

func (r *PostgresRepository) UpdateQuote(ctx context.Context, q *model.Quote) error {
	_, err := r.Pool.Exec(ctx,
		`UPDATE quotes SET commodity = $1, location = $2, star_system = $3, buy = $4, sell = $5,
			currency = $6, external_commodity_id = $7, external_location_id = $8,
			external_category_id = $9, prev_buy = $10, prev_sell = $11, prev_updated_at = $12,
			updated_at = $13
		WHERE id = $14`,
		q.Commodity, q.Location, q.System, q.Buy, q.Sell, q.Currency,
		q.ExternalCommodityID, q.ExternalLocationID, q.ExternalCategoryID,
		q.PrevBuy, q.PrevSell, q.PrevUpdatedAt, q.UpdatedAt, q.ID)
	return mapWriteErr(err)
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateQuote, pgErr.ConstraintName)
	}
	return err
}

func (r *PostgresRepository) CatalogEntry(ctx context.Context, externalID int64) (*model.CatalogEntry, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT external_id, name, code, kind, weight_scu, buyable, sellable, extractable,
			mineral, raw, refined, wiki_url, date_added, date_modified
		FROM catalog_entries WHERE external_id = $1`, externalID)
	var e model.CatalogEntry
	err := row.Scan(&e.ExternalID, &e.Name, &e.Code, &e.Kind, &e.WeightSCU, &e.Buyable,
		&e.Sellable, &e.Extractable, &e.Mineral, &e.Raw, &e.Refined, &e.WikiURL,
		&e.DateAdded, &e.DateModified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresRepository) UpsertCatalogEntry(ctx context.Context, e *model.CatalogEntry) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO catalog_entries (external_id, name, code, kind, weight_scu, buyable,
			sellable, extractable, mineral, raw, refined, wiki_url, date_added, date_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name, code = EXCLUDED.code, kind = EXCLUDED.kind,
			weight_scu = EXCLUDED.weight_scu, buyable = EXCLUDED.buyable,
			sellable = EXCLUDED.sellable, extractable = EXCLUDED.extractable,
			mineral = EXCLUDED.mineral, raw = EXCLUDED.raw, refined = EXCLUDED.refined,
			wiki_url = EXCLUDED.wiki_url, date_added = EXCLUDED.date_added,
			date_modified = EXCLUDED.date_modified`,
		e.ExternalID, e.Name, e.Code, e.Kind, e.WeightSCU, e.Buyable, e.Sellable,
		e.Extractable, e.Mineral, e.Raw, e.Refined, e.WikiURL, e.DateAdded, e.DateModified)
	return err
}

func (r *PostgresRepository) ListCatalogEntries(ctx context.Context, query string) ([]model.CatalogEntry, error) {
	sql := `SELECT external_id, name, code, kind, weight_scu, buyable, sellable, extractable,
			mineral, raw, refined, wiki_url, date_added, date_modified
		FROM catalog_entries`
	args := []any{}
	if strings.TrimSpace(query) != "" {
		sql += ` WHERE name ILIKE '%' || $1 || '%'`
		args = append(args, strings.TrimSpace(query))
	}
	sql += ` ORDER BY name ASC`
	rows, err := r.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CatalogEntry
	for rows.Next() {
		var e model.CatalogEntry
		if err := rows.Scan(&e.ExternalID, &e.Name, &e.Code, &e.Kind, &e.WeightSCU, &e.Buyable,
			&e.Sellable, &e.Extractable, &e.Mineral, &e.Raw, &e.Refined, &e.WikiURL,
			&e.DateAdded, &e.DateModified); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
