package surprisal

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/SPEECHCOG/metaeval-experiments/tensor"
)

// InfoNCEPerStep computes the contrastive cross entropy of every prediction
// step for every frame.
//
// trueLatents is [S, T, F] and pred is [S, T, F, K]. For step k < steps the
// prediction at timestep t is scored against the true latent at t+k and neg
// negatives drawn from the same sample; the true latent is always candidate 0.
// The result is a zero-filled [steps, T, S] grid where cell (k, t, s) holds
// the loss of predicting t+k from t. Cells with t >= T-k have no target and
// stay zero.
func InfoNCEPerStep(rng *rand.Rand, trueLatents tensor.T3, pred tensor.T4, neg, steps int) (tensor.T3, error) {
	S, T, F := trueLatents.Shape[0], trueLatents.Shape[1], trueLatents.Shape[2]
	if pred.Shape[0] != S || pred.Shape[1] != T || pred.Shape[2] != F {
		return tensor.T3{}, fmt.Errorf("%w: predictions %v do not match latents %v", ErrInvalidArgument, pred.Shape, trueLatents.Shape)
	}
	if steps < 0 || steps > pred.Shape[3] {
		return tensor.T3{}, fmt.Errorf("%w: %d steps requested, model predicts %d", ErrInvalidArgument, steps, pred.Shape[3])
	}
	negatives, err := SampleNegatives(rng, trueLatents, neg)
	if err != nil {
		return tensor.T3{}, err
	}
	targets := append([]tensor.T3{trueLatents}, negatives...)

	grid := tensor.NewT3(steps, T, S)
	logits := make([]float64, len(targets))
	var p []float64
	for k := range steps {
		for t := 0; t < T-k; t++ {
			for s := range S {
				p = pred.Gather(s, t, k, p)
				for c, target := range targets {
					logits[c] = floats.Dot(p, target.Vec(s, t+k))
				}
				grid.Set(k, t, s, floats.LogSumExp(logits)-logits[0])
			}
		}
	}
	return grid, nil
}

// InfoNCEPerFrame returns the per-frame contrastive loss [S][T]: the sum over
// prediction steps of InfoNCEPerStep. Frames near the end of a window have
// fewer valid steps and so a smaller maximum loss.
func InfoNCEPerFrame(rng *rand.Rand, trueLatents tensor.T3, pred tensor.T4, neg, steps int) ([][]float64, error) {
	grid, err := InfoNCEPerStep(rng, trueLatents, pred, neg, steps)
	if err != nil {
		return nil, err
	}
	return SumSteps(grid), nil
}

// SumSteps collapses a [steps, T, S] grid into per-frame totals [S][T].
func SumSteps(grid tensor.T3) [][]float64 {
	steps, T, S := grid.Shape[0], grid.Shape[1], grid.Shape[2]
	out := make([][]float64, S)
	for s := range out {
		out[s] = make([]float64, T)
		for t := range T {
			for k := range steps {
				out[s][t] += grid.At(k, t, s)
			}
		}
	}
	return out
}

// InfoNCELoss returns the mean cross entropy over the scored cells of a
// [steps, T, S] grid from InfoNCEPerStep. It is zero when nothing was scored.
func InfoNCELoss(grid tensor.T3) float64 {
	steps, T, S := grid.Shape[0], grid.Shape[1], grid.Shape[2]
	n := 0
	for k := range steps {
		n += max(T-k, 0) * S
	}
	if n == 0 {
		return 0
	}
	return floats.Sum(grid.Data) / float64(n)
}
