package ml

import (
	"encoding/gob"
	"log"
	"math"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/floats"
)

// Regressor is a linear model producing a scalar point estimate from a
// feature vector. It backs the weather temperature forecast.
//
// Like the classifier, a Regressor is immutable after construction, so
// concurrent Predict calls need no locking.
type Regressor struct {
	inputDim int
	weights  []float64
	bias     float64
	trained  bool
}

// NewRegressor creates a cold-start regressor: freshly initialized,
// untrained weights. Used when no artifact exists yet.
func NewRegressor(inputDim int) *Regressor {
	rng := rand.New(rand.NewSource(42))
	scale := math.Sqrt(2.0 / float64(inputDim+1))
	weights := make([]float64, inputDim)
	for i := range weights {
		weights[i] = (rng.Float64()*2 - 1) * scale
	}
	return &Regressor{inputDim: inputDim, weights: weights}
}

// InputDim returns the expected feature vector length
func (r *Regressor) InputDim() int { return r.inputDim }

// IsTrained reports whether the model was fitted before being saved
func (r *Regressor) IsTrained() bool { return r.trained }

// Predict returns the model's point estimate for the feature vector
func (r *Regressor) Predict(features []float64) float64 {
	return floats.Dot(r.weights, padOrTruncate(features, r.inputDim)) + r.bias
}

// regressorArtifact is the gob wire form of a regressor
type regressorArtifact struct {
	InputDim int
	Weights  []float64
	Bias     float64
	Trained  bool
}

// Save writes the regressor to disk
func (r *Regressor) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gob.NewEncoder(f).Encode(regressorArtifact{
		InputDim: r.inputDim,
		Weights:  r.weights,
		Bias:     r.bias,
		Trained:  r.trained,
	})
}

// LoadRegressor loads a regressor artifact, falling back to a
// cold-start model when the artifact is absent. Only a corrupt
// artifact is an error.
func LoadRegressor(path string, inputDim int) (*Regressor, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		log.Printf("No regressor artifact at %s, cold-starting untrained model", path)
		return NewRegressor(inputDim), nil
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	var art regressorArtifact
	if err := gob.NewDecoder(f).Decode(&art); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	return &Regressor{
		inputDim: art.InputDim,
		weights:  art.Weights,
		bias:     art.Bias,
		trained:  art.Trained,
	}, nil
}
