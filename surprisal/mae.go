package surprisal

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MAEPerFrame compares predictions with the input they forecast shift frames
// ahead. out[i] is the mean absolute difference between trueSeq[i+shift] and
// predSeq[i], so the result has len(trueSeq)-shift entries.
func MAEPerFrame(trueSeq, predSeq [][]float64, shift int) ([]float64, error) {
	n := len(trueSeq)
	if len(predSeq) != n {
		return nil, fmt.Errorf("%w: %d true frames, %d predicted", ErrInvalidArgument, n, len(predSeq))
	}
	if shift <= 0 || shift >= n {
		return nil, fmt.Errorf("%w %d for %d frames", ErrInvalidShift, shift, n)
	}
	out := make([]float64, n-shift)
	for i := range out {
		a, b := trueSeq[i+shift], predSeq[i]
		if len(a) == 0 || len(a) != len(b) {
			return nil, fmt.Errorf("%w: frame %d has dims %d and %d", ErrInvalidArgument, i, len(a), len(b))
		}
		out[i] = floats.Distance(a, b, 1) / float64(len(a))
	}
	return out, nil
}
