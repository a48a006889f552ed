package weather

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/agrogpt/advisor/internal/ml"
)

// FeatureDim is the regression feature vector length:
// [latitude, longitude, month, day, year].
const FeatureDim = 5

// ForecastDays is the length of a weekly forecast
const ForecastDays = 7

// RegionProfile identifies a supported region and its coordinates
type RegionProfile struct {
	Code      string  `json:"region"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Fixed enumeration of supported regions.
var regions = map[string]RegionProfile{
	"central":  {Code: "central", Latitude: 0.3476, Longitude: 32.5825},
	"eastern":  {Code: "eastern", Latitude: 0.5333, Longitude: 33.4833},
	"northern": {Code: "northern", Latitude: 2.7746, Longitude: 32.2980},
	"western":  {Code: "western", Latitude: 0.6111, Longitude: 30.6549},
}

// Regions returns the supported region profiles sorted by code
func Regions() []RegionProfile {
	out := make([]RegionProfile, 0, len(regions))
	for _, rp := range regions {
		out = append(out, rp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ValidRegion reports whether a region code is in the supported set
func ValidRegion(code string) bool {
	_, ok := regions[code]
	return ok
}

// UnknownRegionError reports a region outside the supported set
type UnknownRegionError struct {
	Region string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("unknown region: %s", e.Region)
}

// ForecastDay is the forecast for one region on one date
type ForecastDay struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
	Rainfall    float64 `json:"rainfall"`
	Humidity    float64 `json:"humidity"`
	Region      string  `json:"region"`
	Description string  `json:"description"`
}

// describe summarizes a forecast in a short localizable phrase
func describe(temperature, rainfall float64) string {
	switch {
	case rainfall >= 30:
		return "Heavy rain expected"
	case rainfall >= 10:
		return "Light rain expected"
	case temperature >= 30:
		return "Hot and dry"
	default:
		return "Mild and dry"
	}
}

// VariabilitySource supplies rainfall and humidity draws. The default
// uniform source stands in for an unbuilt model: values are plausible
// in distribution only. A richer model can replace it without touching
// the regression path.
type VariabilitySource interface {
	Rainfall() float64 // mm
	Humidity() float64 // percent
}

// uniformVariability draws rainfall from [0,50) mm and humidity from
// [30,90) percent.
type uniformVariability struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newUniformVariability() *uniformVariability {
	return &uniformVariability{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (u *uniformVariability) Rainfall() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rng.Float64() * 50
}

func (u *uniformVariability) Humidity() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return 30 + u.rng.Float64()*60
}

// Engine produces per-day and weekly forecasts from the regression
// model plus the variability source.
type Engine struct {
	model *ml.Regressor
	vars  VariabilitySource
	now   func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithVariability replaces the default uniform variability source
func WithVariability(v VariabilitySource) Option {
	return func(e *Engine) { e.vars = v }
}

// WithClock replaces the wall clock, used in tests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a forecast engine around a loaded regressor
func NewEngine(model *ml.Regressor, opts ...Option) *Engine {
	e := &Engine{
		model: model,
		vars:  newUniformVariability(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ForecastDay predicts the weather for a region on a specific date
func (e *Engine) ForecastDay(region string, date time.Time) (ForecastDay, error) {
	rp, ok := regions[region]
	if !ok {
		return ForecastDay{}, &UnknownRegionError{Region: region}
	}

	temperature := round2(e.model.Predict(featureVector(rp, date)))
	rainfall := round2(e.vars.Rainfall())

	return ForecastDay{
		Date:        date.Format("2006-01-02"),
		Temperature: temperature,
		Rainfall:    rainfall,
		Humidity:    round2(e.vars.Humidity()),
		Region:      region,
		Description: describe(temperature, rainfall),
	}, nil
}

// ForecastWeek predicts the next 7 consecutive calendar days starting
// today. Forecasts are never cached: each call draws variability anew.
func (e *Engine) ForecastWeek(region string) ([]ForecastDay, error) {
	if _, ok := regions[region]; !ok {
		return nil, &UnknownRegionError{Region: region}
	}

	today := e.now()
	forecasts := make([]ForecastDay, 0, ForecastDays)
	for i := 0; i < ForecastDays; i++ {
		day, err := e.ForecastDay(region, today.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		forecasts = append(forecasts, day)
	}
	return forecasts, nil
}

// featureVector builds the regression input for a region and date
func featureVector(rp RegionProfile, date time.Time) []float64 {
	return []float64{
		rp.Latitude,
		rp.Longitude,
		float64(date.Month()),
		float64(date.Day()),
		float64(date.Year()),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
