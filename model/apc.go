package model

import (
	"fmt"
	"math/rand/v2"

	"github.com/SPEECHCOG/metaeval-experiments/tensor"
)

// APC is an autoregressive predictive coding model. For every frame it sees
// the frame and the Context-1 frames before it and predicts a future frame.
type APC struct {
	Net        *Network
	Context    int
	FeatureDim int
}

// NewAPC creates an APC model with hiddenLayers ReLU layers of hiddenDim units.
func NewAPC(rng *rand.Rand, featureDim, hiddenDim, context, hiddenLayers int) *APC {
	dims := []int{context * featureDim}
	for range hiddenLayers {
		dims = append(dims, hiddenDim)
	}
	dims = append(dims, featureDim)
	return &APC{
		Net:        NewNetwork(rng, dims, ReLU),
		Context:    context,
		FeatureDim: featureDim,
	}
}

func (m *APC) Kind() Kind { return KindAPC }

func (m *APC) input(windows [][][]float64) ([]float64, int, int, error) {
	x, w, s, f, err := flatten(windows)
	if err != nil {
		return nil, 0, 0, err
	}
	if f != m.FeatureDim {
		return nil, 0, 0, fmt.Errorf("apc: feature dim %d, model expects %d", f, m.FeatureDim)
	}
	return causalContext(x, w, s, f, m.Context), w, s, nil
}

// Predict returns predicted frames [W, S, F].
func (m *APC) Predict(windows [][][]float64) (Output, error) {
	in, w, s, err := m.input(windows)
	if err != nil {
		return Output{}, err
	}
	out := m.Net.Forward(in, w*s)
	return SingleOutput(tensor.T3{Data: out, Shape: [3]int{w, s, m.FeatureDim}}), nil
}

// Latents returns the last hidden layer activations [W, S, hidden].
func (m *APC) Latents(windows [][][]float64) (tensor.T3, error) {
	in, w, s, err := m.input(windows)
	if err != nil {
		return tensor.T3{}, err
	}
	h := m.Net.Hidden(in, w*s)
	return tensor.T3{Data: h, Shape: [3]int{w, s, len(h) / (w * s)}}, nil
}
