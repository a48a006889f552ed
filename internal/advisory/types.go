package advisory

import (
	"fmt"

	"github.com/agrogpt/advisor/internal/disease"
	"github.com/agrogpt/advisor/internal/market"
	"github.com/agrogpt/advisor/internal/weather"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MsgTextDiagnosisUnsupported tags an acknowledged but unimplemented
// text-only diagnosis request.
const MsgTextDiagnosisUnsupported = "text_diagnosis_unsupported"

// DiseaseQuery asks for a diagnosis of a crop photo. ImageData holds
// the raw encoded image; when absent the request falls through to the
// (unimplemented) text diagnosis path.
type DiseaseQuery struct {
	ImageData   []byte
	Description string
	CropType    string
	Language    string
}

// WeatherQuery asks for a weekly forecast for a region
type WeatherQuery struct {
	Region   string
	Language string
}

// MarketQuery asks for market insights for a crop in a region
type MarketQuery struct {
	Crop     string
	Region   string
	Language string
}

// PriceSubmission reports a newly observed market price
type PriceSubmission struct {
	Crop   string  `json:"crop"`
	Region string  `json:"region"`
	Price  float64 `json:"price"`
	Unit   string  `json:"unit"`
	Source string  `json:"source"`
}

// Envelope is the part of every response visible to the routing layer
type Envelope struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message,omitempty"`

	// HTTPStatus hints the boundary status code; not serialized.
	HTTPStatus int `json:"-"`
}

// DiagnosisResponse is the disease query envelope
type DiagnosisResponse struct {
	Envelope
	Disease     string          `json:"disease,omitempty"`
	Confidence  float64         `json:"confidence,omitempty"`
	Information *disease.Record `json:"information,omitempty"`
}

// ForecastResponse is the weather query envelope
type ForecastResponse struct {
	Envelope
	Forecast []weather.ForecastDay `json:"forecast,omitempty"`
}

// MarketResponse is the market query envelope
type MarketResponse struct {
	Envelope
	Insights *market.Insights `json:"insights,omitempty"`
}

// InputError reports a missing or malformed request field
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// UpstreamError reports a failure from an external collaborator such
// as the SMS gateway. It is caught at the aggregator boundary and
// reported in the uniform envelope.
type UpstreamError struct {
	Collaborator string
	Err          error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Collaborator, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
