package model

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Activation is the nonlinearity applied after a layer's affine transform.
type Activation int

const (
	Linear Activation = iota
	ReLU
	Tanh
)

// Layer is one fully-connected layer.
// W is [OutDim × InDim] row-major, B is [OutDim].
type Layer struct {
	W      []float64
	B      []float64
	InDim  int
	OutDim int
	Act    Activation
}

// Network is a feedforward stack of fully-connected layers.
type Network struct {
	Layers []Layer
}

// NewNetwork builds a network through dims (dims[0] is the input size) with
// Xavier-initialized weights. Hidden layers use hidden; the last layer is linear.
func NewNetwork(rng *rand.Rand, dims []int, hidden Activation) *Network {
	n := &Network{Layers: make([]Layer, len(dims)-1)}
	for i := range n.Layers {
		in, out := dims[i], dims[i+1]
		act := hidden
		if i == len(n.Layers)-1 {
			act = Linear
		}
		l := Layer{
			W:      make([]float64, out*in),
			B:      make([]float64, out),
			InDim:  in,
			OutDim: out,
			Act:    act,
		}
		xavierInit(rng, l.W, in, out)
		n.Layers[i] = l
	}
	return n
}

func xavierInit(rng *rand.Rand, w []float64, fanIn, fanOut int) {
	scale := math.Sqrt(2.0 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = rng.NormFloat64() * scale
	}
}

// InputDim returns the width of the first layer.
func (n *Network) InputDim() int { return n.Layers[0].InDim }

// OutputDim returns the width of the last layer.
func (n *Network) OutputDim() int { return n.Layers[len(n.Layers)-1].OutDim }

// Validate checks that consecutive layers agree in size.
func (n *Network) Validate() error {
	if len(n.Layers) == 0 {
		return fmt.Errorf("network has no layers")
	}
	for i, l := range n.Layers {
		if len(l.W) != l.InDim*l.OutDim || len(l.B) != l.OutDim {
			return fmt.Errorf("layer %d: weights %d / bias %d do not match %d×%d", i, len(l.W), len(l.B), l.OutDim, l.InDim)
		}
		if i > 0 && n.Layers[i-1].OutDim != l.InDim {
			return fmt.Errorf("layer %d input %d does not match previous output %d", i, l.InDim, n.Layers[i-1].OutDim)
		}
	}
	return nil
}

// Forward runs a batch through every layer.
// input is flat [batch × InputDim]; the result is flat [batch × OutputDim].
func (n *Network) Forward(input []float64, batch int) []float64 {
	return n.forward(input, batch, len(n.Layers))
}

// Hidden runs a batch through every layer but the last and returns the
// final hidden activations, flat [batch × Layers[len-2].OutDim]. A
// single-layer network returns the input.
func (n *Network) Hidden(input []float64, batch int) []float64 {
	return n.forward(input, batch, len(n.Layers)-1)
}

func (n *Network) forward(input []float64, batch, upto int) []float64 {
	act := input
	dim := n.InputDim()
	if batch == 0 {
		if upto > 0 {
			dim = n.Layers[upto-1].OutDim
		}
		return make([]float64, 0, dim)
	}
	for i := range upto {
		l := &n.Layers[i]
		x := mat.NewDense(batch, dim, act)
		w := mat.NewDense(l.OutDim, l.InDim, l.W)
		var z mat.Dense
		z.Mul(x, w.T())
		out := z.RawMatrix().Data
		addBiasActivate(out, l.B, batch, l.OutDim, l.Act)
		act = out
		dim = l.OutDim
	}
	return act
}

// addBiasActivate adds bias and applies the activation in place.
func addBiasActivate(z, bias []float64, rows, cols int, act Activation) {
	for i := 0; i < rows; i++ {
		off := i * cols
		for j := 0; j < cols; j++ {
			v := z[off+j] + bias[j]
			switch act {
			case ReLU:
				if v < 0 {
					v = 0
				}
			case Tanh:
				v = math.Tanh(v)
			}
			z[off+j] = v
		}
	}
}
