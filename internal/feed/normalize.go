package feed

import (
	"strings"

	"hauler/internal/model"
)

// Alias tables for the loosely-structured feed schema. Each logical field is
// resolved by trying its candidate keys in order; the first present, non-null
// value wins.
var (
	commodityKeys   = []string{"commodity", "name", "item", "good", "item_name"}
	locationKeys    = []string{"location", "station", "place", "market", "city", "terminal_name"}
	systemKeys      = []string{"system", "star_system"}
	buyKeys         = []string{"buy", "buy_price", "buyPrice", "b", "price_buy"}
	sellKeys        = []string{"sell", "sell_price", "sellPrice", "s", "price_sell"}
	commodityIDKeys = []string{"commodity_id", "item_id", "good_id", "cid", "id_item"}
	locationIDKeys  = []string{"location_id", "lid", "id_terminal"}
	categoryIDKeys  = []string{"id_category", "category_id"}

	// The per-commodity price endpoint names its location by specificity.
	terminalKeys = []string{"terminal_name", "space_station_name", "city_name", "planet_name"}
)

// Normalize converts one raw feed record into a canonical row. Records
// lacking a resolvable commodity or location name are rejected (nil).
func Normalize(rec Record) *model.NormalizedRow {
	commodity := firstString(rec, commodityKeys)
	location := firstString(rec, locationKeys)
	if location == nil {
		// The location may arrive as a nested object with a name field.
		if nested, ok := rec["location"].(map[string]any); ok {
			if name, ok := nested["name"].(string); ok {
				location = &name
			}
		}
	}
	if commodity == nil || location == nil {
		return nil
	}

	row := &model.NormalizedRow{
		Commodity:   strings.TrimSpace(*commodity),
		Location:    strings.TrimSpace(*location),
		System:      firstString(rec, systemKeys),
		Buy:         firstFloat(rec, buyKeys),
		Sell:        firstFloat(rec, sellKeys),
		CommodityID: firstInt(rec, commodityIDKeys),
		LocationID:  firstInt(rec, locationIDKeys),
		CategoryID:  firstInt(rec, categoryIDKeys),
	}
	return row
}

// NormalizeCommodityPrice converts one record from the per-commodity price
// endpoint, whose schema is stricter than the full feed's. The commodity name
// comes from the catalog, not the record. Rows without both external ids or
// without a location are rejected (nil).
func NormalizeCommodityPrice(rec Record, commodity string) *model.NormalizedRow {
	commodityID := firstInt(rec, []string{"id_commodity"})
	locationID := firstInt(rec, []string{"id_terminal"})
	if commodityID == nil || locationID == nil {
		return nil
	}
	location := firstString(rec, terminalKeys)
	if commodity == "" || location == nil {
		return nil
	}
	return &model.NormalizedRow{
		Commodity:   commodity,
		Location:    strings.TrimSpace(*location),
		System:      firstString(rec, []string{"star_system_name"}),
		Buy:         firstFloat(rec, []string{"price_buy"}),
		Sell:        firstFloat(rec, []string{"price_sell"}),
		CommodityID: commodityID,
		LocationID:  locationID,
	}
}

func firstString(rec Record, keys []string) *string {
	for _, k := range keys {
		if v := rec.String(k); v != nil {
			return v
		}
	}
	return nil
}

func firstFloat(rec Record, keys []string) *float64 {
	for _, k := range keys {
		if v := rec.Float(k); v != nil {
			return v
		}
	}
	return nil
}

func firstInt(rec Record, keys []string) *int64 {
	for _, k := range keys {
		if v := rec.Int(k); v != nil {
			return v
		}
	}
	return nil
}
