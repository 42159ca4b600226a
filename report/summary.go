// Package report summarizes exported attentional preference scores: per-trial
// and per-type statistics, the IDS/ADS preference effect size, inverse-variance
// meta-analysis helpers and score curve plots.
package report

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/SPEECHCOG/metaeval-experiments/export"
)

// TrialSummary is the mean score of one trial.
type TrialSummary struct {
	FileName  string
	TrialType string
	Frames    int
	Mean      float64
}

// SummarizeTrials returns one summary per trial, in input order.
// Trials without frames get a NaN mean.
func SummarizeTrials(trials []export.Trial) []TrialSummary {
	out := make([]TrialSummary, len(trials))
	for i, tr := range trials {
		m := math.NaN()
		if len(tr.Scores) > 0 {
			m = stat.Mean(tr.Scores, nil)
		}
		out[i] = TrialSummary{FileName: tr.FileName, TrialType: tr.TrialType, Frames: len(tr.Scores), Mean: m}
	}
	return out
}

// TypeSummary aggregates the trial means of one trial type.
type TypeSummary struct {
	TrialType string
	Trials    int
	Mean      float64
	Std       float64
}

// SummarizeTypes groups trial means by type, sorted by type name.
// Std is the sample standard deviation and NaN for a single trial.
func SummarizeTypes(trials []export.Trial) []TypeSummary {
	byType := trialMeansByType(trials)
	types := make([]string, 0, len(byType))
	for k := range byType {
		types = append(types, k)
	}
	sort.Strings(types)

	out := make([]TypeSummary, 0, len(types))
	for _, typ := range types {
		means := byType[typ]
		s := TypeSummary{TrialType: typ, Trials: len(means), Std: math.NaN()}
		if len(means) > 1 {
			s.Mean, s.Std = stat.MeanStdDev(means, nil)
		} else {
			s.Mean = means[0]
		}
		out = append(out, s)
	}
	return out
}

func trialMeansByType(trials []export.Trial) map[string][]float64 {
	byType := make(map[string][]float64)
	for _, s := range SummarizeTrials(trials) {
		if s.Frames == 0 {
			continue
		}
		byType[s.TrialType] = append(byType[s.TrialType], s.Mean)
	}
	return byType
}

// ErrTooFewTrials is returned when a group has fewer than two trials.
var ErrTooFewTrials = errors.New("need at least two trials per group")

// CohensD returns the standardized mean difference (mean(a) - mean(b)) / pooled sd.
func CohensD(a, b []float64) (float64, error) {
	if len(a) < 2 || len(b) < 2 {
		return 0, ErrTooFewTrials
	}
	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))
	pooled := math.Sqrt(((na-1)*va + (nb-1)*vb) / (na + nb - 2))
	if pooled == 0 {
		return 0, errors.New("pooled standard deviation is zero")
	}
	return (ma - mb) / pooled, nil
}

// Effect is one effect size with its group sizes.
type Effect struct {
	Size float64
	N1   int
	N2   int
}

// PreferenceEffect compares trial means of typeA (e.g. IDS) with typeB
// (e.g. ADS). A positive size means typeA trials score higher.
func PreferenceEffect(trials []export.Trial, typeA, typeB string) (Effect, error) {
	byType := trialMeansByType(trials)
	a, b := byType[typeA], byType[typeB]
	d, err := CohensD(a, b)
	if err != nil {
		return Effect{}, fmt.Errorf("%s vs %s (%d and %d trials): %w", typeA, typeB, len(a), len(b), err)
	}
	return Effect{Size: d, N1: len(a), N2: len(b)}, nil
}
