package audio

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// resampleZeros is the number of sinc zero crossings kept on each side
	// of the filter centre.
	resampleZeros = 24
	// resampleRolloff places the cutoff just below the Nyquist frequency
	// of the lower of the two rates.
	resampleRolloff = 0.945
)

// Resample converts samples recorded at from Hz to to Hz with a
// Blackman-windowed sinc filter. The cutoff sits below the Nyquist
// frequency of min(from, to), so content the target rate cannot represent
// is removed instead of folding back into the passband. The result has
// len(samples)*to/from samples, rounded down. Equal rates return the input
// unchanged.
func Resample(samples []float64, from, to int) []float64 {
	if len(samples) == 0 || from <= 0 || to <= 0 {
		return nil
	}
	if from == to {
		return samples
	}
	newLen := len(samples) * to / from
	if newLen == 0 {
		return nil
	}

	// Output i sits at input position i*up/down; its fractional part only
	// takes up distinct values, one filter phase each.
	g := gcd(from, to)
	up, down := to/g, from/g
	f := newSincFilter(from, to)
	phases := make([][]float64, up)

	result := make([]float64, newLen)
	for i := range result {
		pos := i * down
		center, phase := pos/up, pos%up
		if phases[phase] == nil {
			phases[phase] = f.taps(float64(phase) / float64(up))
		}
		h := phases[phase]

		// h[j] weighs input sample center-f.half+j.
		lo := center - f.half
		hi := lo + len(h)
		hlo, hhi := 0, len(h)
		if lo < 0 {
			hlo = -lo
			lo = 0
		}
		if hi > len(samples) {
			hhi -= hi - len(samples)
			hi = len(samples)
		}
		if lo < hi {
			result[i] = floats.Dot(h[hlo:hhi], samples[lo:hi])
		}
	}
	return result
}

// sincFilter is a low-pass interpolation kernel expressed in input samples.
type sincFilter struct {
	cutoff float64 // cycles per input sample
	width  float64 // half width of the window in input samples
	half   int     // taps on each side of the centre
}

func newSincFilter(from, to int) sincFilter {
	cutoff := 0.5 * resampleRolloff
	if to < from {
		cutoff *= float64(to) / float64(from)
	}
	width := resampleZeros / (2 * cutoff)
	return sincFilter{cutoff: cutoff, width: width, half: int(math.Ceil(width))}
}

// taps returns the kernel for an output that lies frac input samples past
// its centre sample.
func (f sincFilter) taps(frac float64) []float64 {
	h := make([]float64, 2*f.half+1)
	for j := range h {
		h[j] = f.at(frac - float64(j-f.half))
	}
	return h
}

func (f sincFilter) at(t float64) float64 {
	if math.Abs(t) >= f.width {
		return 0
	}
	x := 2 * f.cutoff * t
	sinc := 1.0
	if x != 0 {
		sinc = math.Sin(math.Pi*x) / (math.Pi * x)
	}
	r := math.Pi * t / f.width
	blackman := 0.42 + 0.5*math.Cos(r) + 0.08*math.Cos(2*r)
	return 2 * f.cutoff * sinc * blackman
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
