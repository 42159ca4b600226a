package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestT3Layout(t *testing.T) {
	x := NewT3(2, 3, 4)
	x.Set(1, 2, 3, 7)
	assert.Equal(t, 7.0, x.Data[len(x.Data)-1])
	assert.Equal(t, 7.0, x.At(1, 2, 3))

	v := x.Vec(1, 2)
	v[0] = -1
	assert.Equal(t, -1.0, x.At(1, 2, 0), "Vec shares storage")
}

func TestFromNested3RoundTrip(t *testing.T) {
	in := [][][]float64{{{1, 2}, {3, 4}}, {{5, 6}, {7, 8}}}
	x, err := FromNested3(in)
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 2, 2}, x.Shape)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, x.Data)
	assert.Equal(t, in, x.Nested())

	in[0][0][0] = 100
	assert.Equal(t, 1.0, x.At(0, 0, 0), "FromNested3 copies")

	_, err = FromNested3([][][]float64{{{1}}, {{1}, {2}}})
	assert.Error(t, err)
	_, err = FromNested3([][][]float64{{{1, 2}, {3}}})
	assert.Error(t, err)

	empty, err := FromNested3(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
}

func TestT4Gather(t *testing.T) {
	x := NewT4(1, 2, 3, 2)
	for f := range 3 {
		x.Set(0, 1, f, 0, float64(f))
		x.Set(0, 1, f, 1, float64(10+f))
	}
	assert.Equal(t, []float64{10, 11, 12}, x.Gather(0, 1, 1, nil))

	buf := make([]float64, 8)
	got := x.Gather(0, 1, 0, buf)
	assert.Equal(t, []float64{0, 1, 2}, got)
	assert.Equal(t, 2.0, x.At(0, 1, 2, 0))
}
