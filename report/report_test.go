package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SPEECHCOG/metaeval-experiments/export"
)

func sampleTrials() []export.Trial {
	return []export.Trial{
		{FileName: "i1", TrialType: "IDS", Scores: []float64{2, 4}},
		{FileName: "a1", TrialType: "ADS", Scores: []float64{1, 1, 1}},
		{FileName: "i2", TrialType: "IDS", Scores: []float64{4}},
		{FileName: "a2", TrialType: "ADS", Scores: []float64{2, 2}},
		{FileName: "e", TrialType: "ADS"},
	}
}

func TestSummarizeTrials(t *testing.T) {
	s := SummarizeTrials(sampleTrials())
	require.Len(t, s, 5)
	assert.Equal(t, TrialSummary{FileName: "i1", TrialType: "IDS", Frames: 2, Mean: 3}, s[0])
	assert.True(t, math.IsNaN(s[4].Mean))
}

func TestSummarizeTypes(t *testing.T) {
	s := SummarizeTypes(sampleTrials())
	require.Len(t, s, 2)
	assert.Equal(t, "ADS", s[0].TrialType)
	assert.Equal(t, 2, s[0].Trials)
	assert.InDelta(t, 1.5, s[0].Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.5), s[0].Std, 1e-12)
	assert.Equal(t, "IDS", s[1].TrialType)
	assert.InDelta(t, 3.5, s[1].Mean, 1e-12)
}

func TestCohensD(t *testing.T) {
	d, err := CohensD([]float64{3, 4}, []float64{1, 2})
	require.NoError(t, err)
	// pooled sd = sqrt(0.5)
	assert.InDelta(t, 2/math.Sqrt(0.5), d, 1e-12)

	_, err = CohensD([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrTooFewTrials)
	_, err = CohensD([]float64{1, 1}, []float64{2, 2})
	assert.Error(t, err)
}

func TestPreferenceEffect(t *testing.T) {
	e, err := PreferenceEffect(sampleTrials(), "IDS", "ADS")
	require.NoError(t, err)
	assert.Equal(t, 2, e.N1)
	assert.Equal(t, 2, e.N2)
	assert.InDelta(t, 2/math.Sqrt(0.5), e.Size, 1e-12)

	_, err = PreferenceEffect(sampleTrials(), "IDS", "Noise")
	assert.ErrorIs(t, err, ErrTooFewTrials)
}

func TestStandardErrorAndWeight(t *testing.T) {
	se := StandardError(0.5, 10, 10)
	assert.InDelta(t, math.Sqrt(0.2+0.25/40), se, 1e-12)
	assert.InDelta(t, 1/(se*se), Weight(se), 1e-12)
}

func TestMetaSingleEffect(t *testing.T) {
	r, err := Meta([]Effect{{Size: 0.5, N1: 10, N2: 10}}, 0.05)
	require.NoError(t, err)
	se := StandardError(0.5, 10, 10)
	assert.InDelta(t, 0.5, r.Mean, 1e-12)
	assert.InDelta(t, se, r.SE, 1e-12)
	assert.InDelta(t, 0.5-1.959963984540054*se, r.CILow, 1e-9)
	assert.InDelta(t, 0.5+1.959963984540054*se, r.CIHigh, 1e-9)
	assert.InDelta(t, 0.5/se, r.Z, 1e-12)
}

func TestMetaWeightsLargerStudiesMore(t *testing.T) {
	r, err := Meta([]Effect{{Size: 1, N1: 100, N2: 100}, {Size: 0, N1: 5, N2: 5}}, 0.05)
	require.NoError(t, err)
	assert.Greater(t, r.Mean, 0.5)
	assert.Less(t, r.Mean, 1.0)

	_, err = Meta(nil, 0.05)
	assert.Error(t, err)
	_, err = Meta([]Effect{{Size: 1, N1: 0, N2: 5}}, 0.05)
	assert.Error(t, err)
}

func TestZTest(t *testing.T) {
	z, p := ZTest(1.96, 1)
	assert.InDelta(t, 1.96, z, 1e-12)
	assert.InDelta(t, 0.025, p, 1e-3)
	_, p2 := ZTest(-1.96, 1)
	assert.InDelta(t, p, p2, 1e-15)
}

func TestSignificanceCode(t *testing.T) {
	cases := map[float64]string{0.0005: "***", 0.005: "**", 0.03: "*", 0.07: ".", 0.5: ""}
	for p, want := range cases {
		assert.Equal(t, want, SignificanceCode(p), "p=%v", p)
	}
}

func TestMeanCurves(t *testing.T) {
	c := MeanCurves(sampleTrials())
	assert.Equal(t, []float64{1.5, 1.5, 1}, c["ADS"])
	assert.Equal(t, []float64{3, 4}, c["IDS"])
}

func TestPlotCurves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "curves.png")
	require.NoError(t, PlotCurves(sampleTrials(), 10, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, PlotCurves(nil, 10, path))
}
