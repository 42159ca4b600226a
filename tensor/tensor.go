// Package tensor provides small dense float64 tensors used to move model
// inputs and outputs between the windowing, inference and scoring stages.
// Storage is a single row-major slice, the layout gonum matrices wrap
// without copying.
package tensor

import "fmt"

// T3 is a rank-3 tensor, typically [samples, timesteps, features].
type T3 struct {
	Data  []float64
	Shape [3]int
}

// NewT3 allocates a zero-filled d0 × d1 × d2 tensor.
func NewT3(d0, d1, d2 int) T3 {
	return T3{Data: make([]float64, d0*d1*d2), Shape: [3]int{d0, d1, d2}}
}

// FromNested3 copies x into a new T3. All rows must have the same length.
func FromNested3(x [][][]float64) (T3, error) {
	d0 := len(x)
	if d0 == 0 {
		return T3{}, nil
	}
	d1 := len(x[0])
	d2 := 0
	if d1 > 0 {
		d2 = len(x[0][0])
	}
	t := NewT3(d0, d1, d2)
	for i := range x {
		if len(x[i]) != d1 {
			return T3{}, fmt.Errorf("ragged tensor: x[%d] has %d rows, want %d", i, len(x[i]), d1)
		}
		for j := range x[i] {
			if len(x[i][j]) != d2 {
				return T3{}, fmt.Errorf("ragged tensor: x[%d][%d] has %d values, want %d", i, j, len(x[i][j]), d2)
			}
			copy(t.Vec(i, j), x[i][j])
		}
	}
	return t, nil
}

func (t T3) offset(i, j, k int) int {
	return (i*t.Shape[1]+j)*t.Shape[2] + k
}

// At returns t[i, j, k].
func (t T3) At(i, j, k int) float64 { return t.Data[t.offset(i, j, k)] }

// Set stores v at t[i, j, k].
func (t T3) Set(i, j, k int, v float64) { t.Data[t.offset(i, j, k)] = v }

// Vec returns the innermost vector t[i, j, :] as a view into Data.
func (t T3) Vec(i, j int) []float64 {
	off := t.offset(i, j, 0)
	return t.Data[off : off+t.Shape[2]]
}

// Nested returns t as [d0][d1][d2] slices that share storage with Data.
func (t T3) Nested() [][][]float64 {
	out := make([][][]float64, t.Shape[0])
	for i := range out {
		out[i] = make([][]float64, t.Shape[1])
		for j := range out[i] {
			out[i][j] = t.Vec(i, j)
		}
	}
	return out
}

// T4 is a rank-4 tensor, typically [samples, timesteps, features, steps].
type T4 struct {
	Data  []float64
	Shape [4]int
}

// NewT4 allocates a zero-filled d0 × d1 × d2 × d3 tensor.
func NewT4(d0, d1, d2, d3 int) T4 {
	return T4{Data: make([]float64, d0*d1*d2*d3), Shape: [4]int{d0, d1, d2, d3}}
}

func (t T4) offset(i, j, k, l int) int {
	return ((i*t.Shape[1]+j)*t.Shape[2]+k)*t.Shape[3] + l
}

// At returns t[i, j, k, l].
func (t T4) At(i, j, k, l int) float64 { return t.Data[t.offset(i, j, k, l)] }

// Set stores v at t[i, j, k, l].
func (t T4) Set(i, j, k, l int, v float64) { t.Data[t.offset(i, j, k, l)] = v }

// Gather copies the strided vector t[i, j, :, l] into dst and returns it.
// dst is allocated when it is shorter than Shape[2].
func (t T4) Gather(i, j, l int, dst []float64) []float64 {
	n := t.Shape[2]
	if len(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	off := t.offset(i, j, 0, l)
	for k := range dst {
		dst[k] = t.Data[off+k*t.Shape[3]]
	}
	return dst
}
