package ml

import (
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Input geometry for image classification. Images are resized so the
// short side is ResizeSize, center-cropped to InputSize, and normalized
// channel-wise before being flattened into the feature vector.
const (
	ResizeSize = 256
	InputSize  = 224
	Channels   = 3
)

// Channel-wise normalization applied during preprocessing.
var (
	NormMean = [Channels]float64{0.485, 0.456, 0.406}
	NormStd  = [Channels]float64{0.229, 0.224, 0.225}
)

// LoadError reports a missing or corrupt model artifact.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model artifact %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Classifier is a feed-forward network mapping a preprocessed image
// vector to a probability distribution over disease labels.
//
// A Classifier is immutable once constructed or loaded, so concurrent
// Predict calls need no locking.
type Classifier struct {
	inputDim  int
	hiddenDim int
	outputDim int
	numLayers int

	weights []*mat.Dense
	biases  [][]float64
}

// ClassifierConfig holds classifier architecture parameters
type ClassifierConfig struct {
	InputDim  int
	HiddenDim int
	OutputDim int
	NumLayers int
}

// DefaultClassifierConfig returns sensible defaults
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		InputDim:  InputSize * InputSize * Channels,
		HiddenDim: 128,
		OutputDim: 16,
		NumLayers: 3,
	}
}

// NewClassifier creates a classifier with Xavier-initialized weights
func NewClassifier(cfg ClassifierConfig) *Classifier {
	c := &Classifier{
		inputDim:  cfg.InputDim,
		hiddenDim: cfg.HiddenDim,
		outputDim: cfg.OutputDim,
		numLayers: cfg.NumLayers,
	}
	c.initWeights(rand.New(rand.NewSource(42)))
	return c
}

// initWeights initializes all layer weights with Xavier initialization
func (c *Classifier) initWeights(rng *rand.Rand) {
	c.weights = make([]*mat.Dense, c.numLayers)
	c.biases = make([][]float64, c.numLayers)

	for i := 0; i < c.numLayers; i++ {
		rows, cols := c.layerDims(i)
		scale := math.Sqrt(2.0 / float64(rows+cols))
		backing := make([]float64, rows*cols)
		for j := range backing {
			backing[j] = (rng.Float64()*2 - 1) * scale
		}
		c.weights[i] = mat.NewDense(rows, cols, backing)
		c.biases[i] = make([]float64, cols)
	}
}

// layerDims returns the weight matrix shape for layer i
func (c *Classifier) layerDims(i int) (rows, cols int) {
	rows, cols = c.hiddenDim, c.hiddenDim
	if i == 0 {
		rows = c.inputDim
	}
	if i == c.numLayers-1 {
		cols = c.outputDim
	}
	return rows, cols
}

// NumClasses returns the size of the output distribution
func (c *Classifier) NumClasses() int { return c.outputDim }

// InputDim returns the expected feature vector length
func (c *Classifier) InputDim() int { return c.inputDim }

// Predict runs a forward pass and returns the softmax-normalized
// probability distribution over the label set. Inference is
// deterministic for a given input and set of weights.
func (c *Classifier) Predict(features []float64) ([]float64, error) {
	if len(c.weights) == 0 {
		return nil, fmt.Errorf("classifier has no weights")
	}

	h := mat.NewDense(1, c.inputDim, padOrTruncate(features, c.inputDim))
	for i := 0; i < c.numLayers; i++ {
		var out mat.Dense
		out.Mul(h, c.weights[i])

		row := out.RawRowView(0)
		floats.Add(row, c.biases[i])

		// ReLU on hidden layers, softmax after the output layer
		if i < c.numLayers-1 {
			for j, v := range row {
				if v < 0 {
					row[j] = 0
				}
			}
		}
		h = &out
	}

	probs := make([]float64, c.outputDim)
	copy(probs, h.RawRowView(0))
	softmax(probs)
	return probs, nil
}

// ArgMax returns the index and probability of the most likely class
func ArgMax(probs []float64) (int, float64) {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best, probs[best]
}

// softmax normalizes logits into a probability distribution in place
func softmax(v []float64) {
	max := floats.Max(v)
	sum := 0.0
	for i, x := range v {
		v[i] = math.Exp(x - max)
		sum += v[i]
	}
	floats.Scale(1/sum, v)
}

// classifierArtifact is the gob wire form of a classifier
type classifierArtifact struct {
	InputDim  int
	HiddenDim int
	OutputDim int
	NumLayers int
	Weights   [][]float64
	Biases    [][]float64
}

// Save writes the classifier to disk
func (c *Classifier) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	art := classifierArtifact{
		InputDim:  c.inputDim,
		HiddenDim: c.hiddenDim,
		OutputDim: c.outputDim,
		NumLayers: c.numLayers,
		Biases:    c.biases,
	}
	for _, w := range c.weights {
		art.Weights = append(art.Weights, w.RawMatrix().Data)
	}

	return gob.NewEncoder(f).Encode(art)
}

// LoadClassifier loads a classifier artifact from disk. A missing or
// malformed artifact is a fatal condition for the caller: the disease
// engine refuses to start without one.
func LoadClassifier(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	var art classifierArtifact
	if err := gob.NewDecoder(f).Decode(&art); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if art.NumLayers < 1 || len(art.Weights) != art.NumLayers || len(art.Biases) != art.NumLayers {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("inconsistent layer count")}
	}

	c := &Classifier{
		inputDim:  art.InputDim,
		hiddenDim: art.HiddenDim,
		outputDim: art.OutputDim,
		numLayers: art.NumLayers,
		biases:    art.Biases,
	}
	for i, data := range art.Weights {
		rows, cols := c.layerDims(i)
		if len(data) != rows*cols || len(art.Biases[i]) != cols {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("layer %d shape mismatch", i)}
		}
		c.weights = append(c.weights, mat.NewDense(rows, cols, data))
	}

	return c, nil
}

// padOrTruncate ensures a slice is exactly the right length
func padOrTruncate(data []float64, length int) []float64 {
	if len(data) == length {
		return data
	}
	result := make([]float64, length)
	copy(result, data)
	return result
}
