package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"hauler/internal/config"
	"hauler/internal/model"
)

// ErrRateLimited signals an HTTP 429 from the upstream feed. Callers treat
// it as "no data this cycle", not as a hard failure.
var ErrRateLimited = errors.New("feed: rate limited")

// catalogPageSize is the upstream page size; a short page ends pagination.
const catalogPageSize = 100

// Record is one loosely-typed element of the feed's data array.
type Record map[string]any

// CatalogRecord is one element of the paginated commodity catalog.
// Boolean fields are encoded as 0/1, dates as epoch seconds.
type CatalogRecord struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Code          *string  `json:"code"`
	Kind          *string  `json:"kind"`
	WeightSCU     *float64 `json:"weight_scu"`
	IsBuyable     *int     `json:"is_buyable"`
	IsSellable    *int     `json:"is_sellable"`
	IsExtractable *int     `json:"is_extractable"`
	IsMineral     *int     `json:"is_mineral"`
	IsRaw         *int     `json:"is_raw"`
	IsRefined     *int     `json:"is_refined"`
	Wiki          *string  `json:"wiki"`
	DateAdded     *int64   `json:"date_added"`
	DateModified  *int64   `json:"date_modified"`
}

// ProbeResult is the raw outcome of a feed fetch, for diagnostics only.
type ProbeResult struct {
	URL    string
	Status int
	Body   []byte
}

// Client fetches the upstream price feed and commodity catalog.
type Client struct {
	logger   *slog.Logger
	http     *resty.Client
	endpoint string
	apiKey   string
}

// NewClient creates a new feed Client.
func NewClient(logger *slog.Logger, cfg config.FeedConfig) *Client {
	http := resty.New()
	http.SetBaseURL(cfg.BaseURL)
	http.SetTimeout(cfg.RequestTimeout)
	return &Client{
		logger:   logger,
		http:     http,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
	}
}

func (c *Client) get(ctx context.Context, path string) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx).SetHeader("Accept", "application/json")
	if c.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+c.apiKey)
		req.SetHeader("X-API-Key", c.apiKey)
	}
	return req.Get(path)
}

// FetchPriceFeed performs one GET of the full price feed. A 429 maps to
// ErrRateLimited; other non-2xx statuses and transport failures are fatal.
// An empty body yields an empty batch, not an error.
func (c *Client) FetchPriceFeed(ctx context.Context) ([]Record, error) {
	resp, err := c.get(ctx, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("feed fetch: %w", err)
	}
	c.logger.Info("feed fetch", "status", resp.StatusCode(), "length", len(resp.Body()))
	if resp.StatusCode() == 429 {
		return nil, ErrRateLimited
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("feed fetch: unexpected status %d", resp.StatusCode())
	}
	if len(bytes.TrimSpace(resp.Body())) == 0 {
		return nil, nil
	}
	return DecodeRecords(resp.Body())
}

// DecodeRecords accepts either an envelope with a data array or a bare array.
// An object without a data array decodes to an empty batch.
func DecodeRecords(body []byte) ([]Record, error) {
	var envelope struct {
		Data []Record `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}
	var records []Record
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		return nil, nil
	}
	return nil, errors.New("feed: malformed response body")
}

// FetchCatalogPage fetches one page of the commodity catalog. A short page
// (fewer than 100 entries) means pagination is done.
func (c *Client) FetchCatalogPage(ctx context.Context, page int) ([]CatalogRecord, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/2.0/commodities/%d", page))
	if err != nil {
		return nil, fmt.Errorf("catalog fetch page %d: %w", page, err)
	}
	if resp.StatusCode() == 429 {
		return nil, ErrRateLimited
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("catalog fetch page %d: unexpected status %d", page, resp.StatusCode())
	}
	var envelope struct {
		Data []CatalogRecord `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("catalog fetch page %d: %w", page, err)
	}
	return envelope.Data, nil
}

// LastCatalogPage reports whether a page ends pagination.
func LastCatalogPage(entries []CatalogRecord) bool {
	return len(entries) < catalogPageSize
}

// FetchCommodityPrices fetches all price rows for a single commodity id.
func (c *Client) FetchCommodityPrices(ctx context.Context, commodityID int64) ([]Record, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/2.0/commodities_prices?id_commodity=%d", commodityID))
	if err != nil {
		return nil, fmt.Errorf("commodity prices fetch: %w", err)
	}
	if resp.StatusCode() == 429 {
		return nil, ErrRateLimited
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("commodity prices fetch: unexpected status %d", resp.StatusCode())
	}
	if len(bytes.TrimSpace(resp.Body())) == 0 {
		return nil, nil
	}
	return DecodeRecords(resp.Body())
}

// Probe performs a raw feed fetch without status interpretation, for the
// diagnostics endpoint.
func (c *Client) Probe(ctx context.Context) (*ProbeResult, error) {
	resp, err := c.get(ctx, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("feed probe: %w", err)
	}
	return &ProbeResult{
		URL:    c.http.BaseURL + c.endpoint,
		Status: resp.StatusCode(),
		Body:   resp.Body(),
	}, nil
}

// Entry converts a catalog record into a persistable catalog entry.
// Records without a usable name are skipped (nil).
func (r CatalogRecord) Entry() *model.CatalogEntry {
	if strings.TrimSpace(r.Name) == "" {
		return nil
	}
	return &model.CatalogEntry{
		ExternalID:   r.ID,
		Name:         r.Name,
		Code:         r.Code,
		Kind:         r.Kind,
		WeightSCU:    r.WeightSCU,
		Buyable:      flag(r.IsBuyable),
		Sellable:     flag(r.IsSellable),
		Extractable:  flag(r.IsExtractable),
		Mineral:      flag(r.IsMineral),
		Raw:          flag(r.IsRaw),
		Refined:      flag(r.IsRefined),
		WikiURL:      r.Wiki,
		DateAdded:    epoch(r.DateAdded),
		DateModified: epoch(r.DateModified),
	}
}

func flag(v *int) *bool {
	if v == nil {
		return nil
	}
	b := *v == 1
	return &b
}

func epoch(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}
