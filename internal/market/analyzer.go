package market

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Trend direction classifications.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

// DefaultHorizonDays is the default forward projection length
const DefaultHorizonDays = 30

// RecentWindowDays bounds the current-prices query
const RecentWindowDays = 7

// Placeholder until a residual-based confidence estimate exists.
const trendConfidence = 0.8

// Advice strings mapped from the trend direction.
const (
	holdAdvice = "Consider holding onto your produce as prices are expected to rise"
	sellAdvice = "Consider selling now as prices are expected to decrease"
)

// Supported crops and their display names.
var crops = map[string]string{
	"maize":   "Maize",
	"beans":   "Beans",
	"coffee":  "Coffee",
	"bananas": "Bananas",
	"cassava": "Cassava",
}

// Crops returns the supported crop codes mapped to display names
func Crops() map[string]string {
	out := make(map[string]string, len(crops))
	for k, v := range crops {
		out[k] = v
	}
	return out
}

// CropCodes returns the supported crop codes sorted
func CropCodes() []string {
	out := make([]string, 0, len(crops))
	for k := range crops {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Trend is the projected price trend for a crop/region pair. When
// fewer than two observations exist the trend degrades to an explicit
// insufficient-data result carrying the requested crop and region.
type Trend struct {
	Crop             string    `json:"crop"`
	Region           string    `json:"region"`
	CurrentPrice     float64   `json:"current_price,omitempty"`
	PredictedPrices  []float64 `json:"predicted_prices,omitempty"`
	Direction        string    `json:"trend,omitempty"`
	Confidence       float64   `json:"confidence,omitempty"`
	InsufficientData bool      `json:"insufficient_data,omitempty"`
}

// Insights bundles current prices, the trend, and a recommendation
type Insights struct {
	Crop           string             `json:"crop"`
	Region         string             `json:"region"`
	CurrentPrices  []PriceObservation `json:"current_prices"`
	PriceTrend     Trend              `json:"price_trend"`
	Recommendation string             `json:"recommendation"`
	LastUpdated    string             `json:"last_updated"`
}

// Analyzer fits price trends over the historical store
type Analyzer struct {
	store *Store
	now   func() time.Time
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithClock replaces the wall clock, used in tests
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an analyzer over a price store
func NewAnalyzer(store *Store, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{store: store, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddPriceData appends a new observation, dated now, to the store.
// The write is persisted before it returns.
func (a *Analyzer) AddPriceData(crop, region string, price float64, unit, source string) error {
	return a.store.Append(PriceObservation{
		Crop:   crop,
		Region: region,
		Price:  price,
		Unit:   unit,
		Date:   a.now(),
		Source: source,
	})
}

// CurrentPrices returns observations from the last 7 days, optionally
// filtered by crop and region.
func (a *Analyzer) CurrentPrices(crop, region string) ([]PriceObservation, error) {
	since := a.now().AddDate(0, 0, -RecentWindowDays)
	return a.store.Recent(since, crop, region)
}

// PredictTrend fits a least-squares line through the crop/region price
// history and projects it horizonDays beyond the last observation.
// Only history strictly preceding now enters the fit.
//
// Direction is increasing iff the final projected price strictly
// exceeds the first; equal endpoints classify as decreasing.
func (a *Analyzer) PredictTrend(crop, region string, horizonDays int) (Trend, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	history, err := a.store.History(crop, region, a.now())
	if err != nil {
		return Trend{}, err
	}

	if len(history) < 2 {
		return Trend{Crop: crop, Region: region, InsufficientData: true}, nil
	}

	// Elapsed whole days since the earliest observation.
	earliest := history[0].Date
	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	for i, obs := range history {
		xs[i] = float64(int(obs.Date.Sub(earliest).Hours() / 24))
		ys[i] = obs.Price
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	lastDay := xs[len(xs)-1]
	predicted := make([]float64, horizonDays)
	for i := range predicted {
		predicted[i] = alpha + beta*(lastDay+float64(i+1))
	}

	direction := TrendDecreasing
	if predicted[len(predicted)-1] > predicted[0] {
		direction = TrendIncreasing
	}

	return Trend{
		Crop:            crop,
		Region:          region,
		CurrentPrice:    history[len(history)-1].Price,
		PredictedPrices: predicted,
		Direction:       direction,
		Confidence:      trendConfidence,
	}, nil
}

// Recommendation maps a trend direction to advice
func Recommendation(direction string) string {
	if direction == TrendIncreasing {
		return holdAdvice
	}
	return sellAdvice
}

// MarketInsights combines current prices, the fitted trend, and the
// recommendation into one report.
func (a *Analyzer) MarketInsights(crop, region string) (Insights, error) {
	current, err := a.CurrentPrices(crop, region)
	if err != nil {
		return Insights{}, err
	}

	trend, err := a.PredictTrend(crop, region, DefaultHorizonDays)
	if err != nil {
		return Insights{}, err
	}

	// No recommendation without a fitted trend.
	recommendation := ""
	if !trend.InsufficientData {
		recommendation = Recommendation(trend.Direction)
	}

	return Insights{
		Crop:           crop,
		Region:         region,
		CurrentPrices:  current,
		PriceTrend:     trend,
		Recommendation: recommendation,
		LastUpdated:    a.now().UTC().Format(time.RFC3339),
	}, nil
}
