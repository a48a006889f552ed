package disease

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/agrogpt/advisor/internal/ml"
)

// UnknownDisease is the label reported when the classifier's top class
// has no entry in the disease configuration. An unresolved label is a
// normal outcome, not an error.
const UnknownDisease = "Unknown Disease"

// Record holds the advisory information for a known disease
type Record struct {
	Name       string `json:"name,omitempty"`
	Symptoms   string `json:"symptoms,omitempty"`
	Treatment  string `json:"treatment,omitempty"`
	Prevention string `json:"prevention,omitempty"`
}

// Empty reports whether the record carries no information
func (r Record) Empty() bool {
	return r.Symptoms == "" && r.Treatment == "" && r.Prevention == ""
}

// Diagnosis is the result of classifying a crop image
type Diagnosis struct {
	Label      string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// Engine classifies crop images and looks up disease information.
// The model and configuration are loaded once and never mutated, so an
// Engine is safe for concurrent use.
type Engine struct {
	model  *ml.Classifier
	labels map[int]string
	info   map[string]Record
}

// NewEngine loads the classifier artifact and disease configuration.
// A missing or corrupt classifier artifact is fatal: the engine
// refuses to initialize.
func NewEngine(modelPath, configPath string) (*Engine, error) {
	model, err := ml.LoadClassifier(modelPath)
	if err != nil {
		return nil, err
	}

	labels, info, err := loadDiseaseConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load disease config: %w", err)
	}

	return &Engine{model: model, labels: labels, info: info}, nil
}

// Diagnose classifies an encoded crop image and returns the disease
// label with the softmax probability of the arg-max class.
func (e *Engine) Diagnose(imageData []byte) (Diagnosis, error) {
	features, err := PreprocessImage(imageData)
	if err != nil {
		return Diagnosis{}, err
	}

	probs, err := e.model.Predict(features)
	if err != nil {
		return Diagnosis{}, fmt.Errorf("classifier inference: %w", err)
	}

	id, confidence := ml.ArgMax(probs)
	label, ok := e.labels[id]
	if !ok {
		label = UnknownDisease
	}

	return Diagnosis{Label: label, Confidence: confidence}, nil
}

// Info returns the record for a disease name. Unknown names return an
// empty record rather than an error.
func (e *Engine) Info(name string) Record {
	rec, ok := e.info[name]
	if !ok {
		return Record{}
	}
	rec.Name = name
	return rec
}

// loadDiseaseConfig parses the static disease document: numeric label
// ids mapped to names, plus a nested disease_info sub-document mapping
// names to records.
func loadDiseaseConfig(path string) (map[int]string, map[string]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	labels := make(map[int]string)
	info := make(map[string]Record)

	for key, value := range raw {
		if key == "disease_info" {
			if err := json.Unmarshal(value, &info); err != nil {
				return nil, nil, fmt.Errorf("parse disease_info: %w", err)
			}
			continue
		}

		id, err := strconv.Atoi(key)
		if err != nil {
			continue // not a label id entry
		}
		var name string
		if err := json.Unmarshal(value, &name); err != nil {
			return nil, nil, fmt.Errorf("parse label %s: %w", key, err)
		}
		labels[id] = name
	}

	return labels, info, nil
}
