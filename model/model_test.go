package model

import (
	"bytes"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SPEECHCOG/metaeval-experiments/tensor"
)

func newRand() *rand.Rand { return rand.New(rand.NewPCG(42, 7)) }

func testWindows(w, s, f int) [][][]float64 {
	rng := rand.New(rand.NewPCG(1, 2))
	out := make([][][]float64, w)
	for i := range out {
		out[i] = make([][]float64, s)
		for j := range out[i] {
			out[i][j] = make([]float64, f)
			for k := range out[i][j] {
				out[i][j][k] = rng.NormFloat64()
			}
		}
	}
	return out
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("APC")
	require.NoError(t, err)
	assert.Equal(t, KindAPC, k)
	k, err = ParseKind(" cpc ")
	require.NoError(t, err)
	assert.Equal(t, KindCPC, k)
	_, err = ParseKind("wav2vec")
	assert.Error(t, err)
}

func TestOutputVariants(t *testing.T) {
	single := SingleOutput(tensor.NewT3(1, 2, 3))
	_, err := single.Single()
	require.NoError(t, err)
	_, _, err = single.Pair()
	assert.ErrorIs(t, err, ErrWrongOutput)

	pair := PairOutput(tensor.NewT3(1, 2, 3), tensor.NewT4(1, 2, 3, 4))
	_, p, err := pair.Pair()
	require.NoError(t, err)
	assert.Equal(t, [4]int{1, 2, 3, 4}, p.Shape)
	_, err = pair.Single()
	assert.ErrorIs(t, err, ErrWrongOutput)
}

func TestNetworkForwardMatchesManual(t *testing.T) {
	n := &Network{Layers: []Layer{
		{W: []float64{1, 2, -1, 0}, B: []float64{0, 1}, InDim: 2, OutDim: 2, Act: ReLU},
		{W: []float64{1, 1}, B: []float64{0.5}, InDim: 2, OutDim: 1, Act: Linear},
	}}
	require.NoError(t, n.Validate())
	// x = [1, 1]: hidden = relu([3, 0]) = [3, 0]; out = 3.5
	// x = [-1, 2]: hidden = relu([3, 2]) = [3, 2]; out = 5.5
	out := n.Forward([]float64{1, 1, -1, 2}, 2)
	assert.InDeltaSlice(t, []float64{3.5, 5.5}, out, 1e-12)
	assert.InDeltaSlice(t, []float64{3, 0, 3, 2}, n.Hidden([]float64{1, 1, -1, 2}, 2), 1e-12)
}

func TestNetworkValidate(t *testing.T) {
	n := &Network{Layers: []Layer{
		{W: make([]float64, 6), B: make([]float64, 3), InDim: 2, OutDim: 3},
		{W: make([]float64, 4), B: make([]float64, 1), InDim: 4, OutDim: 1},
	}}
	assert.Error(t, n.Validate())
	assert.Error(t, (&Network{}).Validate())
}

func TestCausalContext(t *testing.T) {
	// one window of three 1-dim frames, context 2
	got := causalContext([]float64{1, 2, 3}, 1, 3, 1, 2)
	assert.Equal(t, []float64{0, 1, 1, 2, 2, 3}, got)
}

func TestAPCPredictShape(t *testing.T) {
	m := NewAPC(newRand(), 4, 8, 3, 2)
	out, err := m.Predict(testWindows(2, 5, 4))
	require.NoError(t, err)
	assert.Equal(t, KindAPC, out.Kind())
	p, err := out.Single()
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 5, 4}, p.Shape)
	assert.Len(t, p.Data, 40)

	lat, err := m.Latents(testWindows(2, 5, 4))
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 5, 8}, lat.Shape)

	_, err = m.Predict(testWindows(1, 5, 3))
	assert.Error(t, err)
}

func TestAPCIsCausal(t *testing.T) {
	m := NewAPC(newRand(), 2, 6, 2, 1)
	a := testWindows(1, 4, 2)
	b := testWindows(1, 4, 2)
	b[0][3] = []float64{100, -100}

	oa, err := m.Predict(a)
	require.NoError(t, err)
	ob, err := m.Predict(b)
	require.NoError(t, err)
	pa, _ := oa.Single()
	pb, _ := ob.Single()
	for t0 := range 3 {
		assert.Equal(t, pa.Vec(0, t0), pb.Vec(0, t0), "frame %d sees the future", t0)
	}
}

func TestCPCPredictShape(t *testing.T) {
	m := NewCPC(newRand(), 4, 6, 5, 3, 2)
	out, err := m.Predict(testWindows(3, 7, 4))
	require.NoError(t, err)
	z, p, err := out.Pair()
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, 7, 6}, z.Shape)
	assert.Equal(t, [4]int{3, 7, 6, 2}, p.Shape)

	lat, err := m.Latents(testWindows(3, 7, 4))
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, 7, 5}, lat.Shape)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	windows := testWindows(2, 6, 3)
	for _, m := range []Model{
		NewAPC(newRand(), 3, 5, 2, 2),
		NewCPC(newRand(), 3, 4, 4, 2, 3),
	} {
		var buf bytes.Buffer
		require.NoError(t, Save(&buf, m))
		loaded, err := Load(&buf)
		require.NoError(t, err)
		assert.Equal(t, m.Kind(), loaded.Kind())

		want, err := m.Predict(windows)
		require.NoError(t, err)
		got, err := loaded.Predict(windows)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "apc.gob")
	m := NewAPC(newRand(), 2, 3, 2, 1)
	require.NoError(t, SaveFile(path, m))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("nope")))
	assert.Error(t, err)
}

func TestONNXOptionsDefaults(t *testing.T) {
	o := ONNXOptions{}.withDefaults(KindCPC)
	assert.Equal(t, "features", o.InputName)
	assert.Equal(t, []string{"latents", "predictions"}, o.OutputNames)
	require.NoError(t, o.validate(KindCPC))

	o = ONNXOptions{OutputNames: []string{"a", "b"}}.withDefaults(KindAPC)
	assert.Error(t, o.validate(KindAPC))
}

func TestOpenONNXRejectsBadOptions(t *testing.T) {
	_, err := OpenONNX("model.onnx", Kind("rnn"), ONNXOptions{})
	assert.Error(t, err)
	_, err = OpenONNX("model.onnx", KindAPC, ONNXOptions{OutputNames: []string{"a", "b"}})
	assert.Error(t, err)
}
