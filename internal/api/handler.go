package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/agrogpt/advisor/internal/advisory"
	"github.com/agrogpt/advisor/internal/config"
	"github.com/agrogpt/advisor/internal/httputil"
	"github.com/agrogpt/advisor/internal/i18n"
	"github.com/agrogpt/advisor/internal/market"
	"github.com/agrogpt/advisor/internal/weather"
)

// Handler provides HTTP API endpoints
type Handler struct {
	svc *advisory.Service
	cfg config.Config
}

// NewHandler creates a new API handler
func NewHandler(svc *advisory.Service, cfg config.Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	// Advisory queries
	r.HandleFunc("/diagnose-disease", h.handleDiagnoseDisease).Methods("POST")
	r.HandleFunc("/weather-forecast", h.handleWeatherForecast).Methods("GET")
	r.HandleFunc("/market-prices", h.handleMarketPrices).Methods("GET")
	r.HandleFunc("/market-prices", h.handleAddPrice).Methods("POST")

	// Supported enumerations
	r.HandleFunc("/supported-languages", h.handleSupportedLanguages).Methods("GET")
	r.HandleFunc("/supported-crops", h.handleSupportedCrops).Methods("GET")
	r.HandleFunc("/supported-regions", h.handleSupportedRegions).Methods("GET")
}

// statusOf falls back to 200 when the envelope carries no hint
func statusOf(env advisory.Envelope) int {
	if env.HTTPStatus == 0 {
		return http.StatusOK
	}
	return env.HTTPStatus
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"version":          h.cfg.Version,
		"default_language": h.cfg.DefaultLanguage,
	}
	httputil.RespondJSON(w, http.StatusOK, info)
}

// diagnoseRequest is the wire form of a disease query. The image
// arrives as a base64 data URL or bare base64 string.
type diagnoseRequest struct {
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	CropType    string `json:"crop_type,omitempty"`
	Language    string `json:"language,omitempty"`
}

// handleDiagnoseDisease runs image-based disease diagnosis
func (h *Handler) handleDiagnoseDisease(w http.ResponseWriter, r *http.Request) {
	var req diagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	imageData, err := decodeImagePayload(req.Image)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.svc.DiagnoseDisease(advisory.DiseaseQuery{
		ImageData:   imageData,
		Description: req.Description,
		CropType:    req.CropType,
		Language:    req.Language,
	})
	httputil.RespondJSON(w, statusOf(resp.Envelope), resp)
}

// handleWeatherForecast returns the weekly forecast for a region
func (h *Handler) handleWeatherForecast(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		httputil.RespondError(w, http.StatusBadRequest, "region query parameter is required")
		return
	}

	resp := h.svc.WeatherForecast(advisory.WeatherQuery{
		Region:   region,
		Language: r.URL.Query().Get("language"),
	})
	httputil.RespondJSON(w, statusOf(resp.Envelope), resp)
}

// handleMarketPrices returns market insights for a crop and region
func (h *Handler) handleMarketPrices(w http.ResponseWriter, r *http.Request) {
	crop := r.URL.Query().Get("crop")
	region := r.URL.Query().Get("region")
	if crop == "" || region == "" {
		httputil.RespondError(w, http.StatusBadRequest, "crop and region query parameters are required")
		return
	}

	resp := h.svc.MarketPrices(advisory.MarketQuery{
		Crop:     crop,
		Region:   region,
		Language: r.URL.Query().Get("language"),
	})
	httputil.RespondJSON(w, statusOf(resp.Envelope), resp)
}

// handleAddPrice appends a new price observation
func (h *Handler) handleAddPrice(w http.ResponseWriter, r *http.Request) {
	var sub advisory.PriceSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	env := h.svc.RecordPrice(sub)
	httputil.RespondJSON(w, statusOf(env), env)
}

// handleSupportedLanguages returns the supported language set
func (h *Handler) handleSupportedLanguages(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    advisory.StatusSuccess,
		"languages": i18n.Languages(),
	})
}

// handleSupportedCrops returns the supported crop set
func (h *Handler) handleSupportedCrops(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": advisory.StatusSuccess,
		"crops":  market.Crops(),
	})
}

// handleSupportedRegions returns the supported region profiles
func (h *Handler) handleSupportedRegions(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  advisory.StatusSuccess,
		"regions": weather.Regions(),
	})
}

// decodeImagePayload decodes a base64 image, accepting both data URLs
// (data:image/jpeg;base64,...) and bare base64. Empty input is valid:
// it routes the query to the text diagnosis path.
func decodeImagePayload(payload string) ([]byte, error) {
	if payload == "" {
		return nil, nil
	}

	encoded := payload
	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return nil, &advisory.InputError{Reason: "malformed image data URL"}
		}
		encoded = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &advisory.InputError{Reason: "image is not valid base64"}
	}
	return data, nil
}
