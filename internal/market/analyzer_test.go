package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAnalyzer pins the clock for reproducible windows
func testAnalyzer(t *testing.T, now time.Time) (*Analyzer, *Store) {
	t.Helper()
	store := openTestStore(t)
	return NewAnalyzer(store, WithClock(func() time.Time { return now })), store
}

func TestPredictTrendInsufficientData(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	analyzer, store := testAnalyzer(t, now)

	// No observations at all
	trend, err := analyzer.PredictTrend("maize", "central", DefaultHorizonDays)
	require.NoError(t, err)
	assert.True(t, trend.InsufficientData)
	assert.Equal(t, "maize", trend.Crop)
	assert.Equal(t, "central", trend.Region)
	assert.Empty(t, trend.PredictedPrices)

	// A single observation is still insufficient
	require.NoError(t, store.Append(obsAt("maize", "central", 100, now.AddDate(0, 0, -5))))
	trend, err = analyzer.PredictTrend("maize", "central", DefaultHorizonDays)
	require.NoError(t, err)
	assert.True(t, trend.InsufficientData)
}

func TestPredictTrendRisingPrices(t *testing.T) {
	// Price history (maize, central): 100 on Jan 1, 120 on Jan 8.
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	analyzer, store := testAnalyzer(t, now)

	require.NoError(t, store.Append(obsAt("maize", "central", 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, store.Append(obsAt("maize", "central", 120, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))))

	trend, err := analyzer.PredictTrend("maize", "central", 7)
	require.NoError(t, err)

	require.False(t, trend.InsufficientData)
	require.Len(t, trend.PredictedPrices, 7)
	assert.Equal(t, 120.0, trend.CurrentPrice)
	assert.Equal(t, TrendIncreasing, trend.Direction)
	assert.Equal(t, "Consider holding onto your produce as prices are expected to rise", Recommendation(trend.Direction))

	// Line through (0,100) and (7,120): slope 20/7, projected day 8..14
	slope := 20.0 / 7.0
	assert.InDelta(t, 100+slope*8, trend.PredictedPrices[0], 1e-9)
	assert.InDelta(t, 100+slope*14, trend.PredictedPrices[6], 1e-9)
}

func TestPredictTrendFallingPrices(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	analyzer, store := testAnalyzer(t, now)

	require.NoError(t, store.Append(obsAt("beans", "eastern", 300, now.AddDate(0, 0, -14))))
	require.NoError(t, store.Append(obsAt("beans", "eastern", 250, now.AddDate(0, 0, -7))))

	trend, err := analyzer.PredictTrend("beans", "eastern", 10)
	require.NoError(t, err)
	assert.Equal(t, TrendDecreasing, trend.Direction)
	assert.Equal(t, "Consider selling now as prices are expected to decrease", Recommendation(trend.Direction))
}

func TestPredictTrendFlatIsDecreasing(t *testing.T) {
	// Equal first and last projected prices classify as decreasing:
	// the comparison is strictly greater-than.
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	analyzer, store := testAnalyzer(t, now)

	require.NoError(t, store.Append(obsAt("coffee", "western", 500, now.AddDate(0, 0, -10))))
	require.NoError(t, store.Append(obsAt("coffee", "western", 500, now.AddDate(0, 0, -5))))

	trend, err := analyzer.PredictTrend("coffee", "western", 5)
	require.NoError(t, err)
	assert.Equal(t, TrendDecreasing, trend.Direction)
}

func TestPredictTrendIgnoresFutureHistory(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	analyzer, store := testAnalyzer(t, now)

	require.NoError(t, store.Append(obsAt("maize", "central", 100, now.AddDate(0, 0, -10))))
	require.NoError(t, store.Append(obsAt("maize", "central", 110, now.AddDate(0, 0, -5))))
	// Future-dated row must not leak into the fit
	require.NoError(t, store.Append(obsAt("maize", "central", 5000, now.AddDate(0, 0, 2))))

	trend, err := analyzer.PredictTrend("maize", "central", 5)
	require.NoError(t, err)
	assert.Equal(t, 110.0, trend.CurrentPrice)
}

func TestCurrentPricesWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	analyzer, store := testAnalyzer(t, now)

	require.NoError(t, store.Append(obsAt("maize", "central", 100, now.AddDate(0, 0, -2))))
	require.NoError(t, store.Append(obsAt("maize", "central", 90, now.AddDate(0, 0, -20))))

	prices, err := analyzer.CurrentPrices("maize", "central")
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, 100.0, prices[0].Price)
}

func TestAddPriceDataVisibleImmediately(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	analyzer, _ := testAnalyzer(t, now)

	require.NoError(t, analyzer.AddPriceData("cassava", "northern", 80, "UGX/kg", "market-survey"))

	prices, err := analyzer.CurrentPrices("cassava", "northern")
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, "market-survey", prices[0].Source)
}

func TestMarketInsights(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	analyzer, store := testAnalyzer(t, now)

	require.NoError(t, store.Append(obsAt("maize", "central", 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, store.Append(obsAt("maize", "central", 120, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))))

	insights, err := analyzer.MarketInsights("maize", "central")
	require.NoError(t, err)

	assert.Equal(t, "maize", insights.Crop)
	assert.Equal(t, TrendIncreasing, insights.PriceTrend.Direction)
	assert.NotEmpty(t, insights.Recommendation)
	assert.NotEmpty(t, insights.LastUpdated)
}

func TestMarketInsightsInsufficientData(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	analyzer, _ := testAnalyzer(t, now)

	insights, err := analyzer.MarketInsights("bananas", "western")
	require.NoError(t, err)
	assert.True(t, insights.PriceTrend.InsufficientData)
	assert.Empty(t, insights.Recommendation)
}

func TestCrops(t *testing.T) {
	assert.Equal(t, "Maize", Crops()["maize"])
	assert.Equal(t, []string{"bananas", "beans", "cassava", "coffee", "maize"}, CropCodes())
}
