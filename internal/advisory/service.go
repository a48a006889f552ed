package advisory

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/agrogpt/advisor/internal/disease"
	"github.com/agrogpt/advisor/internal/i18n"
	"github.com/agrogpt/advisor/internal/market"
	"github.com/agrogpt/advisor/internal/weather"
)

// Request lifecycle stages.
type stage string

const (
	stageReceived  stage = "received"
	stageEnriched  stage = "enriched"
	stageLocalized stage = "localized"
	stageDelivered stage = "delivered"
	stageFailed    stage = "failed"
)

// request tracks one advisory query through its lifecycle
type request struct {
	id    string
	kind  string
	stage stage
}

func newRequest(kind string) *request {
	return &request{id: uuid.New().String(), kind: kind, stage: stageReceived}
}

func (r *request) advance(s stage) { r.stage = s }

func (r *request) fail(err error) {
	r.stage = stageFailed
	log.Printf("Request %s (%s) failed: %v", r.id, r.kind, err)
}

// Service orchestrates the inference engines and applies localization
// last. Engines are constructed once at process start and injected;
// the service holds no per-request state.
type Service struct {
	disease     *disease.Engine
	weather     *weather.Engine
	market      *market.Analyzer
	translator  *i18n.Translator
	defaultLang string
}

// NewService wires the engines into an aggregator
func NewService(d *disease.Engine, w *weather.Engine, m *market.Analyzer, t *i18n.Translator, defaultLang string) *Service {
	if defaultLang == "" {
		defaultLang = i18n.DefaultLanguage
	}
	return &Service{disease: d, weather: w, market: m, translator: t, defaultLang: defaultLang}
}

// language resolves the requested language, empty meaning the default
func (s *Service) language(lang string) string {
	if lang == "" {
		return s.defaultLang
	}
	return i18n.Normalize(lang)
}

// needsLocalization reports whether a localization pass applies
func (s *Service) needsLocalization(lang string) bool {
	return lang != s.defaultLang
}

// errorEnvelope converts any engine error into the uniform failure
// envelope. Engine-internal error shapes never reach the caller.
func errorEnvelope(req *request, err error) Envelope {
	req.fail(err)
	return Envelope{
		Status:     StatusError,
		RequestID:  req.id,
		Message:    err.Error(),
		HTTPStatus: httpStatusFor(err),
	}
}

// httpStatusFor distinguishes client-facing parameter failures from
// internal ones.
func httpStatusFor(err error) int {
	var imageErr *disease.InputError
	var fieldErr *InputError
	var regionErr *weather.UnknownRegionError
	var langErr *i18n.UnsupportedLanguageError
	switch {
	case errors.As(err, &imageErr), errors.As(err, &fieldErr),
		errors.As(err, &regionErr), errors.As(err, &langErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DiagnoseDisease routes an image to the disease engine. A query with
// no image is acknowledged and explicitly tagged as unimplemented
// text diagnosis.
func (s *Service) DiagnoseDisease(q DiseaseQuery) DiagnosisResponse {
	req := newRequest("diagnosis")
	lang := s.language(q.Language)

	if s.needsLocalization(lang) && !i18n.Supported(lang) {
		return DiagnosisResponse{Envelope: errorEnvelope(req, &i18n.UnsupportedLanguageError{Language: q.Language})}
	}

	if len(q.ImageData) == 0 {
		req.advance(stageDelivered)
		return DiagnosisResponse{Envelope: Envelope{
			Status:     StatusSuccess,
			RequestID:  req.id,
			Message:    MsgTextDiagnosisUnsupported,
			HTTPStatus: http.StatusOK,
		}}
	}

	diagnosis, err := s.disease.Diagnose(q.ImageData)
	if err != nil {
		return DiagnosisResponse{Envelope: errorEnvelope(req, err)}
	}
	info := s.disease.Info(diagnosis.Label)
	req.advance(stageEnriched)

	if s.needsLocalization(lang) {
		info, err = s.translator.TranslateDiseaseRecord(info, lang)
		if err != nil {
			return DiagnosisResponse{Envelope: errorEnvelope(req, err)}
		}
		req.advance(stageLocalized)
	}

	req.advance(stageDelivered)
	return DiagnosisResponse{
		Envelope:    Envelope{Status: StatusSuccess, RequestID: req.id, HTTPStatus: http.StatusOK},
		Disease:     diagnosis.Label,
		Confidence:  diagnosis.Confidence,
		Information: &info,
	}
}

// WeatherForecast returns the weekly forecast for a region
func (s *Service) WeatherForecast(q WeatherQuery) ForecastResponse {
	req := newRequest("weather")
	lang := s.language(q.Language)

	if s.needsLocalization(lang) && !i18n.Supported(lang) {
		return ForecastResponse{Envelope: errorEnvelope(req, &i18n.UnsupportedLanguageError{Language: q.Language})}
	}

	forecast, err := s.weather.ForecastWeek(q.Region)
	if err != nil {
		return ForecastResponse{Envelope: errorEnvelope(req, err)}
	}
	req.advance(stageEnriched)

	if s.needsLocalization(lang) {
		for i, day := range forecast {
			translated, err := s.translator.TranslateForecast(day, lang)
			if err != nil {
				return ForecastResponse{Envelope: errorEnvelope(req, err)}
			}
			forecast[i] = translated
		}
		req.advance(stageLocalized)
	}

	req.advance(stageDelivered)
	return ForecastResponse{
		Envelope: Envelope{Status: StatusSuccess, RequestID: req.id, HTTPStatus: http.StatusOK},
		Forecast: forecast,
	}
}

// MarketPrices returns market insights for a crop in a region
func (s *Service) MarketPrices(q MarketQuery) MarketResponse {
	req := newRequest("market")
	lang := s.language(q.Language)

	if s.needsLocalization(lang) && !i18n.Supported(lang) {
		return MarketResponse{Envelope: errorEnvelope(req, &i18n.UnsupportedLanguageError{Language: q.Language})}
	}

	insights, err := s.market.MarketInsights(q.Crop, q.Region)
	if err != nil {
		return MarketResponse{Envelope: errorEnvelope(req, err)}
	}
	req.advance(stageEnriched)

	if s.needsLocalization(lang) {
		insights, err = s.translator.TranslateInsights(insights, lang)
		if err != nil {
			return MarketResponse{Envelope: errorEnvelope(req, err)}
		}
		req.advance(stageLocalized)
	}

	req.advance(stageDelivered)
	return MarketResponse{
		Envelope: Envelope{Status: StatusSuccess, RequestID: req.id, HTTPStatus: http.StatusOK},
		Insights: &insights,
	}
}

// RecordPrice validates and appends a new price observation. The
// write is persisted before the response is produced, so subsequent
// queries observe it.
func (s *Service) RecordPrice(sub PriceSubmission) Envelope {
	req := newRequest("price-submission")

	if sub.Crop == "" || sub.Region == "" || sub.Price <= 0 {
		return errorEnvelope(req, &InputError{Reason: "crop, region, and a positive price are required"})
	}
	if !weather.ValidRegion(sub.Region) {
		return errorEnvelope(req, &weather.UnknownRegionError{Region: sub.Region})
	}

	if err := s.market.AddPriceData(sub.Crop, sub.Region, sub.Price, sub.Unit, sub.Source); err != nil {
		return errorEnvelope(req, fmt.Errorf("record price: %w", err))
	}

	req.advance(stageDelivered)
	return Envelope{Status: StatusSuccess, RequestID: req.id, HTTPStatus: http.StatusCreated}
}
