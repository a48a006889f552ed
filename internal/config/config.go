package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cast"
)

// Config holds the application configuration
type Config struct {
	Port            int
	DataDir         string
	ModelsDir       string
	Version         string
	DefaultLanguage string

	// BroadcastSpec is a cron expression for the scheduled advisory
	// broadcast. Empty disables broadcasts.
	BroadcastSpec string
}

// FromEnv returns a copy of the config with unset fields filled from
// ADVISOR_* environment variables.
func (c Config) FromEnv() Config {
	if c.Port == 0 {
		c.Port = cast.ToInt(os.Getenv("ADVISOR_PORT"))
	}
	if c.DataDir == "" {
		c.DataDir = os.Getenv("ADVISOR_DATA_DIR")
	}
	if c.ModelsDir == "" {
		c.ModelsDir = os.Getenv("ADVISOR_MODELS_DIR")
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = os.Getenv("ADVISOR_DEFAULT_LANGUAGE")
	}
	if c.BroadcastSpec == "" {
		c.BroadcastSpec = os.Getenv("ADVISOR_BROADCAST_SPEC")
	}
	return c
}

// WithDefaults fills any remaining unset fields.
func (c Config) WithDefaults() Config {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.ModelsDir == "" {
		c.ModelsDir = "./models"
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
	return c
}

// ClassifierPath is the disease classifier artifact location.
func (c Config) ClassifierPath() string {
	return filepath.Join(c.ModelsDir, "disease_classifier.gob")
}

// RegressorPath is the weather regressor artifact location.
func (c Config) RegressorPath() string {
	return filepath.Join(c.ModelsDir, "weather_regressor.gob")
}

// DiseaseConfigPath is the disease label/info document location.
func (c Config) DiseaseConfigPath() string {
	return filepath.Join(c.DataDir, "disease_config.json")
}

// PriceDBPath is the market price history database location.
func (c Config) PriceDBPath() string {
	return filepath.Join(c.DataDir, "market_prices.db")
}

// TranslationsDir holds one <lang>.json table per supported language.
func (c Config) TranslationsDir() string {
	return filepath.Join(c.DataDir, "translations")
}
