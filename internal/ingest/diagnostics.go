package ingest

import (
	"context"

	"hauler/internal/feed"
)

// Diagnostics is a raw view of one feed fetch, for operational inspection.
type Diagnostics struct {
	URL       string      `json:"url"`
	Status    int         `json:"status"`
	Length    int         `json:"length"`
	ItemCount int         `json:"itemsSize"`
	Sample    []SampleRow `json:"sample"`
}

// SampleRow is one normalized row included in a diagnostics response.
type SampleRow struct {
	Commodity string   `json:"commodity"`
	Location  string   `json:"location"`
	System    *string  `json:"system"`
	Buy       *float64 `json:"buy"`
	Sell      *float64 `json:"sell"`
}

// Diagnostics fetches the feed once and reports the raw status, body length,
// parsed item count and up to 3 sample normalized rows. Parse failures leave
// the item count at -1 rather than failing the query.
func (s *Service) Diagnostics(ctx context.Context) (*Diagnostics, error) {
	probe, err := s.feed.Probe(ctx)
	if err != nil {
		return nil, err
	}
	d := &Diagnostics{
		URL:       probe.URL,
		Status:    probe.Status,
		Length:    len(probe.Body),
		ItemCount: -1,
		Sample:    []SampleRow{},
	}
	if d.Length == 0 {
		return d, nil
	}
	records, err := feed.DecodeRecords(probe.Body)
	if err != nil {
		s.logger.Warn("diagnostics: feed body did not parse", "error", err)
		return d, nil
	}
	d.ItemCount = len(records)
	for _, rec := range records {
		row := feed.Normalize(rec)
		if row == nil {
			continue
		}
		d.Sample = append(d.Sample, SampleRow{
			Commodity: row.Commodity,
			Location:  row.Location,
			System:    row.System,
			Buy:       row.Buy,
			Sell:      row.Sell,
		})
		if len(d.Sample) >= 3 {
			break
		}
	}
	return d, nil
}

// CommodityProbe is a diagnostic view of the per-commodity price endpoint
// for a single external commodity id.
type CommodityProbe struct {
	ID        int64          `json:"id"`
	Entries   int            `json:"entries"`
	Commodity *string        `json:"commodity"`
	BestBuy   *ProbeEndpoint `json:"bestBuy,omitempty"`
	BestSell  *ProbeEndpoint `json:"bestSell,omitempty"`
	Sample    []ProbeRow     `json:"sample"`
}

// ProbeEndpoint is the winning side of a commodity probe.
type ProbeEndpoint struct {
	Location *string  `json:"location"`
	Price    *float64 `json:"price"`
	System   *string  `json:"system"`
}

// ProbeRow is one raw price row included in a commodity probe.
type ProbeRow struct {
	Location *string  `json:"location"`
	Buy      *float64 `json:"buy"`
	Sell     *float64 `json:"sell"`
	System   *string  `json:"system"`
}

// ProbeCommodity fetches all price rows for one commodity id and reports the
// best positive buy/sell endpoints plus up to 5 sample rows. Nothing is
// persisted.
func (s *Service) ProbeCommodity(ctx context.Context, commodityID int64) (*CommodityProbe, error) {
	records, err := s.feed.FetchCommodityPrices(ctx, commodityID)
	if err != nil {
		return nil, err
	}
	out := &CommodityProbe{ID: commodityID, Entries: len(records), Sample: []ProbeRow{}}
	if len(records) > 0 {
		out.Commodity = records[0].String("commodity_name")
	}

	var bestBuy, bestSell feed.Record
	for _, rec := range records {
		if buy := rec.Float("price_buy"); buy != nil && *buy > 0 {
			if bestBuy == nil || *buy < *bestBuy.Float("price_buy") {
				bestBuy = rec
			}
		}
		if sell := rec.Float("price_sell"); sell != nil && *sell > 0 {
			if bestSell == nil || *sell > *bestSell.Float("price_sell") {
				bestSell = rec
			}
		}
	}
	if bestBuy != nil {
		out.BestBuy = &ProbeEndpoint{
			Location: probeLocation(bestBuy),
			Price:    bestBuy.Float("price_buy"),
			System:   bestBuy.String("star_system_name"),
		}
	}
	if bestSell != nil {
		out.BestSell = &ProbeEndpoint{
			Location: probeLocation(bestSell),
			Price:    bestSell.Float("price_sell"),
			System:   bestSell.String("star_system_name"),
		}
	}
	for i := 0; i < len(records) && i < 5; i++ {
		rec := records[i]
		out.Sample = append(out.Sample, ProbeRow{
			Location: probeLocation(rec),
			Buy:      rec.Float("price_buy"),
			Sell:     rec.Float("price_sell"),
			System:   rec.String("star_system_name"),
		})
	}
	return out, nil
}

// probeLocation picks the most specific non-blank location name on a raw
// price row.
func probeLocation(rec feed.Record) *string {
	for _, key := range []string{"terminal_name", "space_station_name", "city_name", "planet_name"} {
		if v := rec.String(key); v != nil && *v != "" {
			return v
		}
	}
	return nil
}
