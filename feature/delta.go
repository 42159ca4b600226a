package feature

import "gonum.org/v1/gonum/floats"

// Delta returns regression coefficients over a ±N frame window:
//
//	d[t] = Σ_{n=1..N} n·(c[t+n] − c[t−n]) / (2·Σ n²)
//
// Frames beyond either edge repeat the edge frame.
func Delta(features [][]float64, N int) [][]float64 {
	T := len(features)
	if T == 0 {
		return nil
	}
	dim := len(features[0])
	denom := 0.0
	for n := 1; n <= N; n++ {
		denom += float64(2 * n * n)
	}

	out := make([][]float64, T)
	buf := make([]float64, T*dim)
	diff := make([]float64, dim)
	for t := range T {
		d := buf[t*dim : (t+1)*dim : (t+1)*dim]
		for n := 1; n <= N; n++ {
			floats.SubTo(diff, features[min(t+n, T-1)], features[max(t-n, 0)])
			floats.AddScaled(d, float64(n), diff)
		}
		floats.Scale(1/denom, d)
		out[t] = d
	}
	return out
}

// AppendDeltas returns [c, Δc, ΔΔc] per frame, both derivatives computed
// with window N: [T][D] becomes [T][3D].
func AppendDeltas(features [][]float64, N int) [][]float64 {
	d1 := Delta(features, N)
	d2 := Delta(d1, N)
	out := make([][]float64, len(features))
	for t, c := range features {
		row := make([]float64, 0, 3*len(c))
		row = append(row, c...)
		row = append(row, d1[t]...)
		out[t] = append(row, d2[t]...)
	}
	return out
}
