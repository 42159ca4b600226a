package main

import (
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/SPEECHCOG/metaeval-experiments/corpus"
	"github.com/SPEECHCOG/metaeval-experiments/model"
	"github.com/SPEECHCOG/metaeval-experiments/tensor"
)

func testSet(t *testing.T) *corpus.FeatureSet {
	t.Helper()
	feats := make([][][]float64, 2)
	for i := range feats {
		feats[i] = make([][]float64, 5)
		for j := range feats[i] {
			feats[i][j] = []float64{float64(i), float64(j), 1}
		}
	}
	set, err := corpus.Build([]string{"/t/IDS/a.wav", "/t/ADS/b.wav"}, feats, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestPredictShapes(t *testing.T) {
	set := testSet(t)
	rng := rand.New(rand.NewPCG(1, 1))
	cases := []struct {
		name string
		m    model.LatentModel
		dim  int
	}{
		{"apc", model.NewAPC(rng, 3, 6, 2, 1), 6},
		{"cpc", model.NewCPC(rng, 3, 4, 5, 2, 3), 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			preds, err := predict(set, tc.m)
			if err != nil {
				t.Fatal(err)
			}
			if len(preds.Latents) != len(set.Data) {
				t.Fatalf("got %d samples, want %d", len(preds.Latents), len(set.Data))
			}
			if got := len(preds.Latents[0]); got != set.SampleLength() {
				t.Errorf("sample length %d, want %d", got, set.SampleLength())
			}
			if got := len(preds.Latents[0][0]); got != tc.dim {
				t.Errorf("latent dim %d, want %d", got, tc.dim)
			}

			path := filepath.Join(t.TempDir(), "preds.gob")
			if err := preds.SaveFile(path); err != nil {
				t.Fatal(err)
			}
			back, err := corpus.LoadPredictionsFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if len(back.Frames()) != len(set.FrameIndex()) {
				t.Errorf("frames %d, want %d", len(back.Frames()), len(set.FrameIndex()))
			}
		})
	}
}

func TestPredictRejectsDimMismatch(t *testing.T) {
	m := model.NewAPC(rand.New(rand.NewPCG(1, 1)), 2, 4, 2, 1)
	if _, err := predict(testSet(t), m); err == nil {
		t.Error("expected feature dim error")
	}
}

// shortModel returns latents for one sample fewer than it was given.
type shortModel struct{}

func (shortModel) Kind() model.Kind { return model.KindAPC }

func (shortModel) Predict(windows [][][]float64) (model.Output, error) {
	return model.Output{}, nil
}

func (shortModel) Latents(windows [][][]float64) (tensor.T3, error) {
	return tensor.NewT3(len(windows)-1, len(windows[0]), 2), nil
}

func TestPredictRejectsShortLatents(t *testing.T) {
	if _, err := predict(testSet(t), shortModel{}); err == nil {
		t.Error("expected frame count error")
	}
}
