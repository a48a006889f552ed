package i18n

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/language"

	"github.com/agrogpt/advisor/internal/disease"
	"github.com/agrogpt/advisor/internal/market"
	"github.com/agrogpt/advisor/internal/weather"
)

// DefaultLanguage is the source language of all advisory content
const DefaultLanguage = "en"

// Supported languages, code to display name.
var supported = map[string]string{
	"en":  "English",
	"lg":  "Luganda",
	"nyn": "Runyankole",
	"ach": "Acholi",
}

// Languages returns the supported language codes mapped to names
func Languages() map[string]string {
	out := make(map[string]string, len(supported))
	for k, v := range supported {
		out[k] = v
	}
	return out
}

// LanguageCodes returns the supported codes sorted
func LanguageCodes() []string {
	out := make([]string, 0, len(supported))
	for k := range supported {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// UnsupportedLanguageError reports a language outside the supported set
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language: %s", e.Language)
}

// Translator performs dictionary-based string substitution. A missing
// entry falls back to the source string; translation never fails once
// the target language is validated.
type Translator struct {
	tables map[string]map[string]string
}

// NewTranslator loads one <code>.json table per supported language
// from dir. A missing table file yields an empty table (everything
// falls back to English), not an error.
func NewTranslator(dir string) (*Translator, error) {
	tables := make(map[string]map[string]string, len(supported))

	for code := range supported {
		path := filepath.Join(dir, code+".json")
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			tables[code] = map[string]string{}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read translation table %s: %w", path, err)
		}

		var table map[string]string
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse translation table %s: %w", path, err)
		}
		tables[code] = table
		log.Printf("Loaded %d translations for %s", len(table), code)
	}

	return &Translator{tables: tables}, nil
}

// Normalize canonicalizes a language code ("en-US" becomes "en").
// Unparseable codes pass through unchanged and fail the support check
// downstream.
func Normalize(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	base, _ := tag.Base()
	return base.String()
}

// Supported reports whether a language code is in the supported set
func Supported(code string) bool {
	_, ok := supported[Normalize(code)]
	return ok
}

// Translate translates English text to the target language
func (t *Translator) Translate(text, targetLang string) (string, error) {
	return t.TranslateFrom(text, targetLang, DefaultLanguage)
}

// TranslateFrom translates text from the source to the target
// language. Identical source and target is an identity no-op; a
// missing table entry returns the original string unchanged.
func (t *Translator) TranslateFrom(text, targetLang, sourceLang string) (string, error) {
	target := Normalize(targetLang)
	table, ok := t.tables[target]
	if !ok {
		return "", &UnsupportedLanguageError{Language: targetLang}
	}

	if target == Normalize(sourceLang) {
		return text, nil
	}

	if translated, ok := table[text]; ok {
		return translated, nil
	}
	return text, nil
}

// lookup is Translate for callers that already validated the language
func (t *Translator) lookup(text, target string) string {
	translated, err := t.Translate(text, target)
	if err != nil {
		return text
	}
	return translated
}

// TranslateDiseaseRecord returns a copy of the record with its string
// fields translated. Misses fall back to English silently.
func (t *Translator) TranslateDiseaseRecord(rec disease.Record, targetLang string) (disease.Record, error) {
	if !Supported(targetLang) {
		return disease.Record{}, &UnsupportedLanguageError{Language: targetLang}
	}

	out := rec
	out.Name = t.lookup(rec.Name, targetLang)
	out.Symptoms = t.lookup(rec.Symptoms, targetLang)
	out.Treatment = t.lookup(rec.Treatment, targetLang)
	out.Prevention = t.lookup(rec.Prevention, targetLang)
	return out, nil
}

// TranslateForecast returns a copy of the forecast day with its
// description translated. Numeric fields, dates, and the region
// identifier are untouched.
func (t *Translator) TranslateForecast(day weather.ForecastDay, targetLang string) (weather.ForecastDay, error) {
	if !Supported(targetLang) {
		return weather.ForecastDay{}, &UnsupportedLanguageError{Language: targetLang}
	}

	out := day
	out.Description = t.lookup(day.Description, targetLang)
	return out, nil
}

// TranslateInsights returns a copy of the market insights with the
// recommendation, trend direction, and observation units translated.
func (t *Translator) TranslateInsights(ins market.Insights, targetLang string) (market.Insights, error) {
	if !Supported(targetLang) {
		return market.Insights{}, &UnsupportedLanguageError{Language: targetLang}
	}

	out := ins
	out.Recommendation = t.lookup(ins.Recommendation, targetLang)

	out.PriceTrend = ins.PriceTrend
	out.PriceTrend.Direction = t.lookup(ins.PriceTrend.Direction, targetLang)
	out.PriceTrend.PredictedPrices = append([]float64(nil), ins.PriceTrend.PredictedPrices...)

	out.CurrentPrices = make([]market.PriceObservation, len(ins.CurrentPrices))
	for i, obs := range ins.CurrentPrices {
		obs.Unit = t.lookup(obs.Unit, targetLang)
		out.CurrentPrices[i] = obs
	}
	return out, nil
}
