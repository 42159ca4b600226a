package feature

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ApplyCMVN normalizes each feature dimension to zero mean and unit
// (population) variance over the utterance, in place. Dimensions with zero
// variance are only mean-centered.
func ApplyCMVN(features [][]float64) {
	T := len(features)
	if T == 0 {
		return
	}
	col := make([]float64, T)
	for d := range features[0] {
		for t, row := range features {
			col[t] = row[d]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		for _, row := range features {
			row[d] -= mean
			if std > 0 {
				row[d] /= std
			}
		}
	}
}

// ReplaceZeros replaces exact zeros with the smallest non-zero magnitude in
// values so that a following logarithm stays finite. All-zero input is left
// unchanged.
func ReplaceZeros(values [][]float64) {
	minAbs := math.Inf(1)
	for _, row := range values {
		for _, v := range row {
			if a := math.Abs(v); a != 0 && a < minAbs {
				minAbs = a
			}
		}
	}
	if math.IsInf(minAbs, 1) {
		return
	}
	for _, row := range values {
		for i, v := range row {
			if v == 0 {
				row[i] = minAbs
			}
		}
	}
}
