package config

import (
	"path/filepath"
	"testing"
)

func TestWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("Expected default data dir './data', got '%s'", cfg.DataDir)
	}
	if cfg.DefaultLanguage != "en" {
		t.Errorf("Expected default language 'en', got '%s'", cfg.DefaultLanguage)
	}
	if cfg.BroadcastSpec != "" {
		t.Errorf("Expected broadcasts disabled by default, got '%s'", cfg.BroadcastSpec)
	}
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{Port: 9000, DataDir: "/srv/advisor", DefaultLanguage: "lg"}.WithDefaults()

	if cfg.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Port)
	}
	if cfg.DataDir != "/srv/advisor" {
		t.Errorf("Expected data dir '/srv/advisor', got '%s'", cfg.DataDir)
	}
	if cfg.DefaultLanguage != "lg" {
		t.Errorf("Expected language 'lg', got '%s'", cfg.DefaultLanguage)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("ADVISOR_PORT", "9090")
	t.Setenv("ADVISOR_DATA_DIR", "/var/advisor")
	t.Setenv("ADVISOR_DEFAULT_LANGUAGE", "nyn")
	t.Setenv("ADVISOR_BROADCAST_SPEC", "0 7 * * *")

	cfg := Config{}.FromEnv()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.DataDir != "/var/advisor" {
		t.Errorf("Expected data dir '/var/advisor', got '%s'", cfg.DataDir)
	}
	if cfg.DefaultLanguage != "nyn" {
		t.Errorf("Expected language 'nyn', got '%s'", cfg.DefaultLanguage)
	}
	if cfg.BroadcastSpec != "0 7 * * *" {
		t.Errorf("Expected broadcast spec, got '%s'", cfg.BroadcastSpec)
	}
}

func TestFromEnvDoesNotOverrideFlags(t *testing.T) {
	t.Setenv("ADVISOR_PORT", "9090")

	cfg := Config{Port: 7070}.FromEnv()
	if cfg.Port != 7070 {
		t.Errorf("Expected flag value 7070 to win, got %d", cfg.Port)
	}
}

func TestArtifactPaths(t *testing.T) {
	cfg := Config{DataDir: "/srv/data", ModelsDir: "/srv/models"}

	if got := cfg.ClassifierPath(); got != filepath.Join("/srv/models", "disease_classifier.gob") {
		t.Errorf("Unexpected classifier path: %s", got)
	}
	if got := cfg.RegressorPath(); got != filepath.Join("/srv/models", "weather_regressor.gob") {
		t.Errorf("Unexpected regressor path: %s", got)
	}
	if got := cfg.DiseaseConfigPath(); got != filepath.Join("/srv/data", "disease_config.json") {
		t.Errorf("Unexpected disease config path: %s", got)
	}
	if got := cfg.PriceDBPath(); got != filepath.Join("/srv/data", "market_prices.db") {
		t.Errorf("Unexpected price db path: %s", got)
	}
	if got := cfg.TranslationsDir(); got != filepath.Join("/srv/data", "translations") {
		t.Errorf("Unexpected translations dir: %s", got)
	}
}
