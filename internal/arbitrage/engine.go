package arbitrage

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"hauler/internal/database"
	"hauler/internal/model"
)

// defaults applied when a caller omits or zeroes the route parameters.
const (
	defaultTopN     = 10
	defaultQuantity = 1.0
)

// Engine holds the logic for identifying arbitrage opportunities across the
// stored quotes.
type Engine struct {
	logger *slog.Logger
	repo   database.Repository
}

// NewEngine creates a new instance of the Engine.
func NewEngine(logger *slog.Logger, repo database.Repository) *Engine {
	return &Engine{logger: logger, repo: repo}
}

// Summarize scans all quotes per commodity and selects the cheapest non-null
// buy and the dearest non-null sell, independently, so the two sides may be
// different locations. Commodities missing either side or without a positive
// spread are excluded. Output is ordered by descending spread.
func (e *Engine) Summarize(ctx context.Context, query string) ([]model.CommoditySummary, error) {
	names, err := e.repo.ListCommodityNames(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))

	out := []model.CommoditySummary{}
	for _, name := range names {
		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		rows, err := e.repo.QuotesByCommodity(ctx, name)
		if err != nil {
			return nil, err
		}
		if summary := summarizeRows(name, rows); summary != nil {
			out = append(out, *summary)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Spread > out[j].Spread })
	return out, nil
}

func summarizeRows(name string, rows []model.Quote) *model.CommoditySummary {
	var bestBuy, bestSell *model.Quote
	for i := range rows {
		r := &rows[i]
		if r.Buy != nil && (bestBuy == nil || *r.Buy < *bestBuy.Buy) {
			bestBuy = r
		}
		if r.Sell != nil && (bestSell == nil || *r.Sell > *bestSell.Sell) {
			bestSell = r
		}
	}
	if bestBuy == nil || bestSell == nil {
		return nil
	}
	spread := *bestSell.Sell - *bestBuy.Buy
	if spread <= 0 {
		return nil
	}
	// Deltas are computed on the winning rows only.
	var buyChange, sellChange *float64
	if bestBuy.PrevBuy != nil {
		d := *bestBuy.Buy - *bestBuy.PrevBuy
		buyChange = &d
	}
	if bestSell.PrevSell != nil {
		d := *bestSell.Sell - *bestSell.PrevSell
		sellChange = &d
	}
	return &model.CommoditySummary{
		Commodity:    name,
		BuyLocation:  bestBuy.Location,
		BuyPrice:     *bestBuy.Buy,
		BuyChange:    buyChange,
		SellLocation: bestSell.Location,
		SellPrice:    *bestSell.Sell,
		SellChange:   sellChange,
		Spread:       spread,
	}
}

// BestRoutes turns summaries into ranked, quantity-scaled profit proposals.
// When a system is given and cross-system hauling is not allowed, both route
// endpoints must resolve to that system via the stored location index.
func (e *Engine) BestRoutes(ctx context.Context, topN int, quantity float64, system string, allowCrossSystem bool) ([]model.RouteProposal, error) {
	summaries, err := e.Summarize(ctx, "")
	if err != nil {
		return nil, err
	}

	constrained := strings.TrimSpace(system) != "" && !allowCrossSystem
	var systems map[string]string
	if constrained {
		systems, err = e.repo.SystemsByLocation(ctx)
		if err != nil {
			return nil, err
		}
	}
	if quantity <= 0 {
		quantity = defaultQuantity
	}

	routes := []model.RouteProposal{}
	for _, s := range summaries {
		if constrained {
			if systems[strings.ToLower(s.BuyLocation)] != system ||
				systems[strings.ToLower(s.SellLocation)] != system {
				continue
			}
		}
		routes = append(routes, model.RouteProposal{
			Commodity:    s.Commodity,
			BuyLocation:  s.BuyLocation,
			BuyPrice:     s.BuyPrice,
			SellLocation: s.SellLocation,
			SellPrice:    s.SellPrice,
			Spread:       s.Spread,
			Quantity:     quantity,
			Profit:       s.Spread * quantity,
		})
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Profit > routes[j].Profit })

	if topN <= 0 {
		topN = defaultTopN
	}
	if topN > len(routes) {
		topN = len(routes)
	}
	return routes[:topN], nil
}

// BestQuote looks up the best buy/sell pair for one commodity, by external id
// when given, otherwise by name. Only positive prices qualify. A nil result
// means the commodity is unknown, which is a normal outcome.
func (e *Engine) BestQuote(ctx context.Context, commodityID *int64, name string) (*model.BestQuote, error) {
	var rows []model.Quote
	var err error
	switch {
	case commodityID != nil:
		rows, err = e.repo.QuotesByExternalCommodityID(ctx, *commodityID)
	case strings.TrimSpace(name) != "":
		rows, err = e.repo.QuotesByCommodity(ctx, name)
	}
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var bestBuy, bestSell *model.Quote
	for i := range rows {
		r := &rows[i]
		if r.Buy != nil && *r.Buy > 0 && (bestBuy == nil || *r.Buy < *bestBuy.Buy) {
			bestBuy = r
		}
		if r.Sell != nil && *r.Sell > 0 && (bestSell == nil || *r.Sell > *bestSell.Sell) {
			bestSell = r
		}
	}
	out := &model.BestQuote{Commodity: rows[0].Commodity}
	if bestBuy != nil {
		out.BestBuy = &model.QuoteEndpoint{Location: bestBuy.Location, System: bestBuy.System, Price: *bestBuy.Buy}
	}
	if bestSell != nil {
		out.BestSell = &model.QuoteEndpoint{Location: bestSell.Location, System: bestSell.System, Price: *bestSell.Sell}
	}
	if bestBuy != nil && bestSell != nil {
		spread := *bestSell.Sell - *bestBuy.Buy
		out.Spread = &spread
	}
	return out, nil
}
