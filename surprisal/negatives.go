package surprisal

import (
	"fmt"
	"math/rand/v2"

	"github.com/SPEECHCOG/metaeval-experiments/tensor"
)

// NegativeIndices draws, for every (sample, timestep) of a samples × timesteps
// batch, neg timestep indices uniformly from the other timesteps of the same
// sample. The result is [neg][samples][timesteps]. Draws are independent, so
// an index may repeat across copies.
func NegativeIndices(rng *rand.Rand, samples, timesteps, neg int) ([][][]int, error) {
	if neg < 0 || samples < 0 || timesteps < 0 {
		return nil, fmt.Errorf("%w: negative dimension (samples=%d timesteps=%d neg=%d)", ErrInvalidArgument, samples, timesteps, neg)
	}
	if neg > 0 && samples > 0 && timesteps < 2 {
		return nil, ErrTooFewTimesteps
	}
	idx := make([][][]int, neg)
	for n := range idx {
		idx[n] = make([][]int, samples)
		for s := range idx[n] {
			row := make([]int, timesteps)
			for t := range row {
				u := rng.IntN(timesteps - 1)
				if u >= t {
					u++
				}
				row[t] = u
			}
			idx[n][s] = row
		}
	}
	return idx, nil
}

// SampleNegatives returns neg tensors shaped like latents. Copy n holds, at
// [s, t, :], the latent vector of sample s at a random timestep other than t.
func SampleNegatives(rng *rand.Rand, latents tensor.T3, neg int) ([]tensor.T3, error) {
	S, T, F := latents.Shape[0], latents.Shape[1], latents.Shape[2]
	idx, err := NegativeIndices(rng, S, T, neg)
	if err != nil {
		return nil, err
	}
	out := make([]tensor.T3, neg)
	for n := range out {
		c := tensor.NewT3(S, T, F)
		for s := range S {
			for t := range T {
				copy(c.Vec(s, t), latents.Vec(s, idx[n][s][t]))
			}
		}
		out[n] = c
	}
	return out, nil
}
