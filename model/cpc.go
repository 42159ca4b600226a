package model

import (
	"fmt"
	"math/rand/v2"

	"github.com/SPEECHCOG/metaeval-experiments/tensor"
)

// CPC is a contrastive predictive coding model. Encoder maps each frame to a
// latent z; Context summarizes the last Window latents into c; Steps[k]
// projects c to the predicted latent k steps ahead.
type CPC struct {
	Encoder *Network
	Context *Network
	Steps   []*Network
	Window  int
}

// NewCPC creates a CPC model with the given latent and context sizes and
// one projection per prediction step.
func NewCPC(rng *rand.Rand, featureDim, latentDim, contextDim, window, steps int) *CPC {
	m := &CPC{
		Encoder: NewNetwork(rng, []int{featureDim, latentDim, latentDim}, ReLU),
		Context: NewNetwork(rng, []int{window * latentDim, contextDim, contextDim}, Tanh),
		Window:  window,
	}
	for range steps {
		m.Steps = append(m.Steps, NewNetwork(rng, []int{contextDim, latentDim}, Linear))
	}
	return m
}

func (m *CPC) Kind() Kind { return KindCPC }

// LatentDim returns the size of z.
func (m *CPC) LatentDim() int { return m.Encoder.OutputDim() }

func (m *CPC) encode(windows [][][]float64) (z, c []float64, w, s int, err error) {
	x, w, s, f, err := flatten(windows)
	if err != nil {
		return nil, nil, 0, 0, err
	}
	if f != m.Encoder.InputDim() {
		return nil, nil, 0, 0, fmt.Errorf("cpc: feature dim %d, model expects %d", f, m.Encoder.InputDim())
	}
	z = m.Encoder.Forward(x, w*s)
	c = m.Context.Forward(causalContext(z, w, s, m.LatentDim(), m.Window), w*s)
	return z, c, w, s, nil
}

// Predict returns true latents [W, S, Z] and step predictions [W, S, Z, K].
func (m *CPC) Predict(windows [][][]float64) (Output, error) {
	z, c, w, s, err := m.encode(windows)
	if err != nil {
		return Output{}, err
	}
	zd, k := m.LatentDim(), len(m.Steps)
	pred := tensor.NewT4(w, s, zd, k)
	for step, proj := range m.Steps {
		p := proj.Forward(c, w*s)
		for i := range w {
			for t := range s {
				row := p[(i*s+t)*zd:]
				for f := range zd {
					pred.Set(i, t, f, step, row[f])
				}
			}
		}
	}
	latents := tensor.T3{Data: z, Shape: [3]int{w, s, zd}}
	return PairOutput(latents, pred), nil
}

// Latents returns the context representation [W, S, C].
func (m *CPC) Latents(windows [][][]float64) (tensor.T3, error) {
	_, c, w, s, err := m.encode(windows)
	if err != nil {
		return tensor.T3{}, err
	}
	return tensor.T3{Data: c, Shape: [3]int{w, s, m.Context.OutputDim()}}, nil
}
