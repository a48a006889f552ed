package ml

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegressorColdStart(t *testing.T) {
	r, err := LoadRegressor(filepath.Join(t.TempDir(), "absent.gob"), 5)
	if err != nil {
		t.Fatalf("Cold start should not fail: %v", err)
	}
	if r.IsTrained() {
		t.Error("Cold-start regressor should be untrained")
	}
	if r.InputDim() != 5 {
		t.Errorf("Expected input dim 5, got %d", r.InputDim())
	}

	// Cold-start model still predicts
	_ = r.Predict([]float64{0.3476, 32.5825, 6, 15, 2024})
}

func TestRegressorSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regressor.gob")

	r := NewRegressor(5)
	if err := r.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadRegressor(path, 5)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	features := []float64{1, 2, 3, 4, 5}
	if r.Predict(features) != loaded.Predict(features) {
		t.Error("Loaded regressor diverges from saved one")
	}
}

func TestRegressorDeterministic(t *testing.T) {
	r := NewRegressor(5)
	features := []float64{1, 2, 3, 4, 5}
	if r.Predict(features) != r.Predict(features) {
		t.Error("Prediction not deterministic")
	}
}

func TestLoadRegressorCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gob")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadRegressor(path, 5)
	if err == nil {
		t.Fatal("Expected error for corrupt artifact")
	}
	if _, ok := err.(*LoadError); !ok {
		t.Errorf("Expected *LoadError, got %T", err)
	}
}
