// Package model defines the predictive-coding model contract used by the
// scorer and provides native APC/CPC predictors plus an ONNX Runtime backend.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SPEECHCOG/metaeval-experiments/tensor"
)

// Kind selects the model family and with it the shape of Predict's output.
type Kind string

const (
	// KindAPC predicts future input frames; Predict returns a single tensor.
	KindAPC Kind = "apc"
	// KindCPC predicts future latents; Predict returns a latent pair.
	KindCPC Kind = "cpc"
)

// ParseKind converts a command-line model type into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAPC, KindCPC:
		return k, nil
	}
	return "", fmt.Errorf("unknown model type %q (want apc or cpc)", s)
}

// ErrWrongOutput is returned when an Output is read as the other variant.
var ErrWrongOutput = errors.New("model output variant mismatch")

// Output is the result of Model.Predict: either a single [W, S, F] tensor
// (APC) or a pair of true latents [W, S, Z] and step predictions
// [W, S, Z, K] (CPC).
type Output struct {
	kind      Kind
	single    tensor.T3
	latents   tensor.T3
	predicted tensor.T4
}

// SingleOutput wraps an APC prediction.
func SingleOutput(pred tensor.T3) Output {
	return Output{kind: KindAPC, single: pred}
}

// PairOutput wraps a CPC latent pair.
func PairOutput(latents tensor.T3, predicted tensor.T4) Output {
	return Output{kind: KindCPC, latents: latents, predicted: predicted}
}

// Kind reports which variant o holds.
func (o Output) Kind() Kind { return o.kind }

// Single returns the APC prediction tensor.
func (o Output) Single() (tensor.T3, error) {
	if o.kind != KindAPC {
		return tensor.T3{}, fmt.Errorf("%w: want single tensor, have %q", ErrWrongOutput, o.kind)
	}
	return o.single, nil
}

// Pair returns the CPC true latents and step predictions.
func (o Output) Pair() (tensor.T3, tensor.T4, error) {
	if o.kind != KindCPC {
		return tensor.T3{}, tensor.T4{}, fmt.Errorf("%w: want latent pair, have %q", ErrWrongOutput, o.kind)
	}
	return o.latents, o.predicted, nil
}

// Model maps a batch of windows [W][S][F] to predictions.
type Model interface {
	Kind() Kind
	Predict(windows [][][]float64) (Output, error)
}

// LatentModel is a Model that also exposes its internal representation,
// one vector per input frame.
type LatentModel interface {
	Model
	Latents(windows [][][]float64) (tensor.T3, error)
}

// flatten copies windows into a row-major [W*S, F] buffer.
func flatten(windows [][][]float64) (data []float64, w, s, f int, err error) {
	w = len(windows)
	if w == 0 {
		return nil, 0, 0, 0, errors.New("empty window batch")
	}
	s = len(windows[0])
	if s == 0 {
		return nil, 0, 0, 0, errors.New("zero-length window")
	}
	f = len(windows[0][0])
	data = make([]float64, 0, w*s*f)
	for i, win := range windows {
		if len(win) != s {
			return nil, 0, 0, 0, fmt.Errorf("window %d has %d frames, want %d", i, len(win), s)
		}
		for j, frame := range win {
			if len(frame) != f {
				return nil, 0, 0, 0, fmt.Errorf("window %d frame %d: dim %d, want %d", i, j, len(frame), f)
			}
			data = append(data, frame...)
		}
	}
	return data, w, s, f, nil
}

// causalContext stacks, for every frame of every window, the frame and the
// context-1 frames before it inside the same window. Positions before the
// window start are zero. x is [w*s, dim]; the result is [w*s, context*dim].
func causalContext(x []float64, w, s, dim, context int) []float64 {
	out := make([]float64, w*s*context*dim)
	for i := range w {
		for t := range s {
			row := out[((i*s)+t)*context*dim:]
			for c := range context {
				src := t - context + 1 + c
				if src < 0 {
					continue
				}
				off := (i*s + src) * dim
				copy(row[c*dim:(c+1)*dim], x[off:off+dim])
			}
		}
	}
	return out
}
