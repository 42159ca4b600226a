package report

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// StandardError returns the standard error of a standardized mean difference
// es between groups of n1 and n2 participants.
func StandardError(es float64, n1, n2 int) float64 {
	a, b := float64(n1), float64(n2)
	return math.Sqrt((a+b)/(a*b) + es*es/(2*(a+b)))
}

// Weight is the inverse-variance weight of an effect with standard error se.
func Weight(se float64) float64 { return 1 / (se * se) }

// MetaResult is a fixed-effect inverse-variance pooled estimate.
type MetaResult struct {
	Effects int
	Mean    float64
	SE      float64
	CILow   float64
	CIHigh  float64
	Z       float64
	P       float64
	Code    string
}

// Meta pools effects with inverse-variance weights. alpha sets the
// confidence level of the interval (0.05 gives a 95% interval).
func Meta(effects []Effect, alpha float64) (MetaResult, error) {
	if len(effects) == 0 {
		return MetaResult{}, errors.New("no effects to pool")
	}
	if alpha <= 0 || alpha >= 1 {
		return MetaResult{}, errors.New("alpha must be in (0, 1)")
	}
	var sumW, sumWES float64
	for _, e := range effects {
		if e.N1 <= 0 || e.N2 <= 0 {
			return MetaResult{}, errors.New("effect group sizes must be positive")
		}
		w := Weight(StandardError(e.Size, e.N1, e.N2))
		sumW += w
		sumWES += w * e.Size
	}
	r := MetaResult{Effects: len(effects), Mean: sumWES / sumW, SE: math.Sqrt(1 / sumW)}
	r.CILow, r.CIHigh = ConfidenceInterval(r.Mean, r.SE, alpha)
	r.Z, r.P = ZTest(r.Mean, r.SE)
	r.Code = SignificanceCode(r.P)
	return r, nil
}

// ConfidenceInterval returns mean ± z(1-alpha/2)·se.
func ConfidenceInterval(mean, se, alpha float64) (lo, hi float64) {
	z := distuv.UnitNormal.Quantile(1 - alpha/2)
	return mean - z*se, mean + z*se
}

// ZTest returns z = mean/se and the upper-tail probability of |z|.
func ZTest(mean, se float64) (z, p float64) {
	z = mean / se
	return z, distuv.UnitNormal.Survival(math.Abs(z))
}

// SignificanceCode maps p to the usual R-style markers.
func SignificanceCode(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	case p < 0.1:
		return "."
	}
	return ""
}
