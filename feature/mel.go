package feature

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MelFilterbank is a bank of triangular filters spaced evenly on the Mel
// scale, stored as a numFilters × (fftSize/2+1) weight matrix.
type MelFilterbank struct {
	weights *mat.Dense
}

// NewMelFilterbank builds numFilters filters between lowFreq and highFreq Hz.
func NewMelFilterbank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) *MelFilterbank {
	nBins := fftSize/2 + 1
	lo, hi := hzToMel(lowFreq), hzToMel(highFreq)
	step := (hi - lo) / float64(numFilters+1)

	// Filter i rises from edge i to edge i+1 and falls to edge i+2.
	edges := make([]int, numFilters+2)
	for i := range edges {
		hz := melToHz(lo + float64(i)*step)
		edges[i] = int(math.Floor(hz * float64(fftSize+1) / float64(sampleRate)))
	}

	w := mat.NewDense(numFilters, nBins, nil)
	for i := range numFilters {
		left, center, right := edges[i], edges[i+1], edges[i+2]
		for j := left; j < min(center, nBins); j++ {
			w.Set(i, j, float64(j-left)/float64(center-left))
		}
		if right == center {
			continue
		}
		for j := center; j <= right && j < nBins; j++ {
			w.Set(i, j, float64(right-j)/float64(right-center))
		}
	}
	return &MelFilterbank{weights: w}
}

// NumFilters returns the number of filters.
func (fb *MelFilterbank) NumFilters() int {
	r, _ := fb.weights.Dims()
	return r
}

// Filter returns a copy of the weights of filter i.
func (fb *MelFilterbank) Filter(i int) []float64 {
	return mat.Row(nil, i, fb.weights)
}

// Energies returns the linear filter energies of one power spectrum.
func (fb *MelFilterbank) Energies(powerSpec []float64) []float64 {
	var e mat.VecDense
	e.MulVec(fb.weights, mat.NewVecDense(len(powerSpec), powerSpec))
	return e.RawVector().Data
}

// Apply returns the natural-log filter energies of one power spectrum.
func (fb *MelFilterbank) Apply(powerSpec []float64) []float64 {
	e := fb.Energies(powerSpec)
	for i, v := range e {
		e[i] = math.Log(math.Max(v, 1e-30))
	}
	return e
}

// energiesOf filters every row of spectra at once and returns the
// len(spectra) × numFilters energy matrix.
func (fb *MelFilterbank) energiesOf(spectra [][]float64) *mat.Dense {
	_, nBins := fb.weights.Dims()
	s := mat.NewDense(len(spectra), nBins, nil)
	for t, ps := range spectra {
		s.SetRow(t, ps)
	}
	var e mat.Dense
	e.Mul(s, fb.weights.T())
	return &e
}

// dctMatrix returns the numCepstra × numFilters type-II DCT basis.
func dctMatrix(numCepstra, numFilters int) *mat.Dense {
	d := mat.NewDense(numCepstra, numFilters, nil)
	for k := range numCepstra {
		for j := range numFilters {
			d.Set(k, j, math.Cos(math.Pi*float64(k)*(float64(j)+0.5)/float64(numFilters)))
		}
	}
	return d
}

// DCT applies a type-II DCT and keeps the first numCepstra coefficients.
func DCT(logMelEnergies []float64, numCepstra int) []float64 {
	var c mat.VecDense
	c.MulVec(dctMatrix(numCepstra, len(logMelEnergies)), mat.NewVecDense(len(logMelEnergies), logMelEnergies))
	return c.RawVector().Data
}

// lifter returns the sinusoidal cepstral lifter weights 1 + L/2·sin(πi/L).
func lifter(numCepstra, L int) []float64 {
	w := make([]float64, numCepstra)
	for i := range w {
		w[i] = 1 + float64(L)/2*math.Sin(math.Pi*float64(i)/float64(L))
	}
	return w
}

// denseRows exposes the rows of m as slices sharing its storage.
func denseRows(m *mat.Dense) [][]float64 {
	raw := m.RawMatrix()
	out := make([][]float64, raw.Rows)
	for i := range out {
		out[i] = raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols : i*raw.Stride+raw.Cols]
	}
	return out
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10, mel/2595.0) - 1.0)
}
