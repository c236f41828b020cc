package model

import "time"

// Currency is the label written on every persisted quote.
const Currency = "aUEC"

// Quote is a stored commodity price observation for one location.
// At most one row exists per (commodity, location) pair, compared
// case-insensitively; the external id pair is a secondary unique key.
type Quote struct {
	ID                  int64      `db:"id"`
	Commodity           string     `db:"commodity"`
	Location            string     `db:"location"`
	System              *string    `db:"star_system"`
	Buy                 *float64   `db:"buy"`
	Sell                *float64   `db:"sell"`
	Currency            string     `db:"currency"`
	ExternalCommodityID *int64     `db:"external_commodity_id"`
	ExternalLocationID  *int64     `db:"external_location_id"`
	ExternalCategoryID  *int64     `db:"external_category_id"`
	PrevBuy             *float64   `db:"prev_buy"`
	PrevSell            *float64   `db:"prev_sell"`
	PrevUpdatedAt       *time.Time `db:"prev_updated_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// CatalogEntry is reference metadata about one commodity, keyed by the
// feed's external id. Used for classification only, never for pricing.
type CatalogEntry struct {
	ExternalID   int64      `db:"external_id"`
	Name         string     `db:"name"`
	Code         *string    `db:"code"`
	Kind         *string    `db:"kind"`
	WeightSCU    *float64   `db:"weight_scu"`
	Buyable      *bool      `db:"buyable"`
	Sellable     *bool      `db:"sellable"`
	Extractable  *bool      `db:"extractable"`
	Mineral      *bool      `db:"mineral"`
	Raw          *bool      `db:"raw"`
	Refined      *bool      `db:"refined"`
	WikiURL      *string    `db:"wiki_url"`
	DateAdded    *time.Time `db:"date_added"`
	DateModified *time.Time `db:"date_modified"`
}

// NormalizedRow is the canonical shape of one feed record after alias
// resolution. It is transient: produced per ingestion cycle and discarded
// after upsert.
type NormalizedRow struct {
	Commodity   string
	Location    string
	System      *string
	Buy         *float64
	Sell        *float64
	CommodityID *int64
	LocationID  *int64
	CategoryID  *int64
}

// CommoditySummary is the best buy/sell endpoints for one commodity across
// all stored quotes. Computed on demand, never persisted.
type CommoditySummary struct {
	Commodity    string   `json:"commodity"`
	BuyLocation  string   `json:"buyLocation"`
	BuyPrice     float64  `json:"buyPrice"`
	BuyChange    *float64 `json:"buyChange"`
	SellLocation string   `json:"sellLocation"`
	SellPrice    float64  `json:"sellPrice"`
	SellChange   *float64 `json:"sellChange"`
	Spread       float64  `json:"spread"`
}

// RouteProposal is a quantity-scaled profit proposal derived from a summary.
type RouteProposal struct {
	Commodity    string  `json:"commodity"`
	BuyLocation  string  `json:"buyLocation"`
	BuyPrice     float64 `json:"buyPrice"`
	SellLocation string  `json:"sellLocation"`
	SellPrice    float64 `json:"sellPrice"`
	Spread       float64 `json:"spread"`
	Quantity     float64 `json:"quantity"`
	Profit       float64 `json:"profit"`
}

// QuoteEndpoint is one side of a best-quote lookup.
type QuoteEndpoint struct {
	Location string  `json:"location"`
	System   *string `json:"system"`
	Price    float64 `json:"price"`
}

// BestQuote is the best buy/sell pair for a single commodity, looked up by
// external id or by name.
type BestQuote struct {
	Commodity string         `json:"commodity"`
	BestBuy   *QuoteEndpoint `json:"bestBuy"`
	BestSell  *QuoteEndpoint `json:"bestSell"`
	Spread    *float64       `json:"spread"`
}
