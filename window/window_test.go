package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqFrames(n, dim int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, dim)
		for d := range m[i] {
			m[i][d] = float64(i+1) + float64(d)/100
		}
	}
	return m
}

func TestGeometry(t *testing.T) {
	cases := []struct {
		size       int
		overlap    float64
		overlapped int
		stride     int
	}{
		{8, 0, 0, 8},
		{8, 0.5, 4, 4},
		{8, 0.25, 2, 6},
		{4, 0.25, 1, 3},
		{200, 0.5, 100, 100},
		{5, 0.5, 2, 3},
	}
	for _, tc := range cases {
		o, s, err := Geometry(tc.size, tc.overlap)
		require.NoError(t, err)
		assert.Equal(t, tc.overlapped, o, "size=%d overlap=%v", tc.size, tc.overlap)
		assert.Equal(t, tc.stride, s, "size=%d overlap=%v", tc.size, tc.overlap)
	}
}

func TestGeometryInvalid(t *testing.T) {
	for _, ov := range []float64{-0.1, 1, 1.5} {
		_, _, err := Geometry(8, ov)
		assert.ErrorIs(t, err, ErrInvalidOverlap, "overlap %v", ov)
	}
	_, _, err := Geometry(0, 0.5)
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestOverlapWindows(t *testing.T) {
	frames := seqFrames(10, 1)
	windows, err := Overlap(frames, 4, 0.5)
	require.NoError(t, err)
	// stride 2 -> 5 windows
	require.Len(t, windows, 5)
	assert.Equal(t, [][]float64{{3}, {4}, {5}, {6}}, windows[1])
	// window 4 starts at frame 8 and runs out after two frames.
	assert.Equal(t, [][]float64{{9}, {10}, {0}, {0}}, windows[4])
}

func TestOverlapDoesNotAliasInput(t *testing.T) {
	frames := seqFrames(4, 2)
	windows, err := Overlap(frames, 4, 0)
	require.NoError(t, err)
	windows[0][0][0] = -1
	assert.Equal(t, 1.0, frames[0][0])
}

func TestOverlapDeoverlapIdentity(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap float64
		samples int
	}{
		{"no overlap", 4, 0, 3},
		{"half overlap", 8, 0.5, 3},
		{"half overlap single sample", 8, 0.5, 1},
		{"quarter overlap single sample", 8, 0.25, 1},
		{"quarter overlap", 8, 0.25, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frames := seqFrames(tc.size*tc.samples, 3)
			windows, err := Overlap(frames, tc.size, tc.overlap)
			require.NoError(t, err)
			got, err := Deoverlap(windows, tc.overlap, tc.samples)
			require.NoError(t, err)
			assert.Equal(t, frames, got)
		})
	}
}

func TestDeoverlapLeavesUnreachedTailZero(t *testing.T) {
	// stride 3 over 8 frames yields two windows covering frames [0, 7).
	frames := seqFrames(8, 1)
	windows, err := Overlap(frames, 4, 0.25)
	require.NoError(t, err)
	require.Len(t, windows, 2)

	got, err := Deoverlap(windows, 0.25, 2)
	require.NoError(t, err)
	require.Len(t, got, 8)
	assert.Equal(t, frames[:7], got[:7])
	assert.Equal(t, []float64{0}, got[7])
}

func TestDeoverlapTruncatesOverrun(t *testing.T) {
	windows := [][][]float64{
		{{1}, {2}, {3}, {4}},
		{{3}, {4}, {5}, {6}},
		{{5}, {6}, {7}, {8}},
		{{7}, {8}, {9}, {10}},
	}
	// One original sample: only window 0 fits, window 1 is cut to nothing.
	got, err := Deoverlap(windows, 0.5, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {2}, {3}, {4}}, got)

	got, err = Deoverlap(windows, 0.5, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}}, got)
}

func TestDeoverlapEdgeCases(t *testing.T) {
	got, err := Deoverlap(nil, 0.5, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Deoverlap([][][]float64{{{1}}}, 0.5, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Deoverlap([][][]float64{{{1}, {2}}}, 1.2, 1)
	assert.ErrorIs(t, err, ErrInvalidOverlap)

	_, err = Deoverlap([][][]float64{{{1}, {2}}, {{3}}}, 0, 2)
	assert.Error(t, err)
}

func TestReshapeFlatten(t *testing.T) {
	frames := seqFrames(6, 2)
	samples, err := Reshape(frames, 3)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, frames[3], samples[1][0])
	assert.Equal(t, frames, Flatten(samples))

	_, err = Reshape(frames, 4)
	assert.Error(t, err)
}
