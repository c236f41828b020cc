package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"hauler/internal/feed"
)

func TestDiagnostics(t *testing.T) {
	ctx := context.Background()

	t.Run("parsed body", func(t *testing.T) {
		body := []byte(`{"data":[
			{"commodity":"Gold","location":"Area18","buy":5},
			{"commodity":"NoLocation"},
			{"commodity":"Laranite","location":"Lorville","sell":28}
		]}`)
		f := new(MockFeed)
		f.On("Probe", ctx).Return(&feed.ProbeResult{URL: "https://feed.test/prices", Status: 200, Body: body}, nil)

		d, err := newTestService(new(MockRepository), f).Diagnostics(ctx)
		require.NoError(t, err)
		assert.Equal(t, "https://feed.test/prices", d.URL)
		assert.Equal(t, 200, d.Status)
		assert.Equal(t, len(body), d.Length)
		assert.Equal(t, 3, d.ItemCount)
		// The unusable row is dropped from the sample, not counted out of it.
		require.Len(t, d.Sample, 2)
		assert.Equal(t, "Gold", d.Sample[0].Commodity)
		assert.Equal(t, "Laranite", d.Sample[1].Commodity)
	})

	t.Run("unparseable body keeps the raw view", func(t *testing.T) {
		f := new(MockFeed)
		f.On("Probe", ctx).Return(&feed.ProbeResult{Status: 403, Body: []byte(`<html>denied</html>`)}, nil)

		d, err := newTestService(new(MockRepository), f).Diagnostics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 403, d.Status)
		assert.Equal(t, -1, d.ItemCount)
		assert.Empty(t, d.Sample)
	})

	t.Run("empty body", func(t *testing.T) {
		f := new(MockFeed)
		f.On("Probe", ctx).Return(&feed.ProbeResult{Status: 204}, nil)

		d, err := newTestService(new(MockRepository), f).Diagnostics(ctx)
		require.NoError(t, err)
		assert.Zero(t, d.Length)
		assert.Equal(t, -1, d.ItemCount)
	})
}

func TestProbeCommodity(t *testing.T) {
	ctx := context.Background()
	f := new(MockFeed)
	f.On("FetchCommodityPrices", mock.Anything, int64(4)).Return([]feed.Record{
		{"commodity_name": "Beryl", "terminal_name": "TDD Orison", "star_system_name": "Stanton", "price_buy": 2.4, "price_sell": 2.6},
		{"commodity_name": "Beryl", "city_name": "Lorville", "price_buy": 2.1},
		{"commodity_name": "Beryl", "terminal_name": "GrimHEX", "price_buy": 0.0, "price_sell": 3.0},
	}, nil)

	probe, err := newTestService(new(MockRepository), f).ProbeCommodity(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), probe.ID)
	assert.Equal(t, 3, probe.Entries)
	require.NotNil(t, probe.Commodity)
	assert.Equal(t, "Beryl", *probe.Commodity)

	// Zero prices never win a side.
	require.NotNil(t, probe.BestBuy)
	assert.Equal(t, "Lorville", *probe.BestBuy.Location)
	assert.Equal(t, 2.1, *probe.BestBuy.Price)
	require.NotNil(t, probe.BestSell)
	assert.Equal(t, "GrimHEX", *probe.BestSell.Location)
	assert.Equal(t, 3.0, *probe.BestSell.Price)

	assert.Len(t, probe.Sample, 3)
}

func TestProbeCommodity_NoEntries(t *testing.T) {
	f := new(MockFeed)
	f.On("FetchCommodityPrices", mock.Anything, int64(99)).Return(nil, nil)

	probe, err := newTestService(new(MockRepository), f).ProbeCommodity(context.Background(), 99)
	require.NoError(t, err)
	assert.Zero(t, probe.Entries)
	assert.Nil(t, probe.Commodity)
	assert.Nil(t, probe.BestBuy)
	assert.Nil(t, probe.BestSell)
}
