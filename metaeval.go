// Package metaeval scores preference-trial audio with predictive-coding
// models. A Scorer runs a model over a feature container, turns its output
// into per-frame surprisal and splits the result back into trials.
package metaeval

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"

	"github.com/SPEECHCOG/metaeval-experiments/corpus"
	"github.com/SPEECHCOG/metaeval-experiments/export"
	"github.com/SPEECHCOG/metaeval-experiments/internal/config"
	"github.com/SPEECHCOG/metaeval-experiments/model"
	"github.com/SPEECHCOG/metaeval-experiments/surprisal"
	"github.com/SPEECHCOG/metaeval-experiments/window"
)

// Scorer computes attentional preference scores.
type Scorer struct {
	Model model.Model
	Cfg   config.Config
	// Loss is the mean InfoNCE loss of the last CPC Score call.
	Loss   float64
	rng    *rand.Rand
	logger *log.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithConfig sets the scoring parameters.
func WithConfig(cfg config.Config) Option {
	return func(s *Scorer) {
		s.Cfg = cfg
	}
}

// WithRand sets the random source used for negative sampling. Without it
// the scorer seeds its own source from Cfg.Seed.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scorer) {
		s.rng = rng
	}
}

// WithLogger sets the logger that reports trials left without scores.
// The default is the standard logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Scorer) {
		s.logger = l
	}
}

// NewScorer wraps m with the default configuration and applies opts.
func NewScorer(m model.Model, opts ...Option) (*Scorer, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	s := &Scorer{Model: m, Cfg: config.Default()}
	for _, o := range opts {
		o(s)
	}
	if err := s.Cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scorer config: %w", err)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(s.Cfg.Seed, s.Cfg.Seed))
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s, nil
}

// Open loads a model from path and wraps it in a Scorer. With useONNX the
// file is run through ONNX Runtime as a graph of the given kind; otherwise
// it must be a native model file of that kind.
func Open(path string, kind model.Kind, useONNX bool, opts ...Option) (*Scorer, error) {
	var m model.Model
	if useONNX {
		om, err := model.OpenONNX(path, kind, model.ONNXOptions{})
		if err != nil {
			return nil, fmt.Errorf("open onnx model: %w", err)
		}
		m = om
	} else {
		lm, err := model.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		if lm.Kind() != kind {
			return nil, fmt.Errorf("model %s is %s, want %s", path, lm.Kind(), kind)
		}
		m = lm
	}
	s, err := NewScorer(m, opts...)
	if err != nil {
		if c, ok := m.(io.Closer); ok {
			c.Close()
		}
		return nil, err
	}
	return s, nil
}

// Close releases the model if it holds external resources.
func (s *Scorer) Close() error {
	if c, ok := s.Model.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Score returns one score sequence per trial of set, in file order.
//
// APC models are scored with the mean absolute error between each frame
// and the prediction made APCShift frames earlier, so a trial of n frames
// yields n-APCShift scores (none when the trial is not longer than the
// shift; such trials are logged). APCShift must be shorter than the
// container's sample length. CPC models are scored with the per-frame InfoNCE loss over
// CPCSteps prediction steps and CPCNeg negatives, one score per frame.
func (s *Scorer) Score(set *corpus.FeatureSet) ([][]float64, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	frames := set.Frames()
	windows, err := window.Overlap(frames, set.SampleLength(), s.Cfg.Overlap)
	if err != nil {
		return nil, err
	}
	out, err := s.Model.Predict(windows)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	switch out.Kind() {
	case model.KindAPC:
		return s.scoreAPC(set, frames, out)
	case model.KindCPC:
		return s.scoreCPC(set, out)
	}
	return nil, fmt.Errorf("%w: unknown output kind %q", model.ErrWrongOutput, out.Kind())
}

func (s *Scorer) scoreAPC(set *corpus.FeatureSet, frames [][]float64, out model.Output) ([][]float64, error) {
	if n := set.SampleLength(); s.Cfg.APCShift >= n {
		return nil, fmt.Errorf("%w %d for sample length %d", surprisal.ErrInvalidShift, s.Cfg.APCShift, n)
	}
	pred, err := out.Single()
	if err != nil {
		return nil, err
	}
	predFrames, err := window.Deoverlap(pred.Nested(), s.Cfg.Overlap, len(set.Data))
	if err != nil {
		return nil, err
	}
	idx := set.FrameIndex()
	trueTrials, err := corpus.Trials(frames, idx)
	if err != nil {
		return nil, err
	}
	predTrials, err := corpus.Trials(predFrames, idx)
	if err != nil {
		return nil, err
	}

	ranges := corpus.Ranges(idx)
	scores := make([][]float64, len(trueTrials))
	for i := range trueTrials {
		if len(trueTrials[i]) <= s.Cfg.APCShift {
			file := set.FileList[idx[ranges[i].Start].FileID]
			s.logger.Printf("trial %d (%s): %d frames, not longer than apc shift %d; no scores",
				i, file, len(trueTrials[i]), s.Cfg.APCShift)
			scores[i] = []float64{}
			continue
		}
		scores[i], err = surprisal.MAEPerFrame(trueTrials[i], predTrials[i], s.Cfg.APCShift)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}
	}
	return scores, nil
}

func (s *Scorer) scoreCPC(set *corpus.FeatureSet, out model.Output) ([][]float64, error) {
	latents, predicted, err := out.Pair()
	if err != nil {
		return nil, err
	}
	grid, err := surprisal.InfoNCEPerStep(s.rng, latents, predicted, s.Cfg.CPCNeg, s.Cfg.CPCSteps)
	if err != nil {
		return nil, err
	}
	s.Loss = surprisal.InfoNCELoss(grid)
	loss := surprisal.SumSteps(grid)

	// Lift every window to one-dimensional frames so it can be stitched.
	lifted := make([][][]float64, len(loss))
	for w, row := range loss {
		lifted[w] = make([][]float64, len(row))
		for t, v := range row {
			lifted[w][t] = []float64{v}
		}
	}
	stitched, err := window.Deoverlap(lifted, s.Cfg.Overlap, len(set.Data))
	if err != nil {
		return nil, err
	}
	trials, err := corpus.Trials(stitched, set.FrameIndex())
	if err != nil {
		return nil, err
	}

	scores := make([][]float64, len(trials))
	for i, trial := range trials {
		scores[i] = make([]float64, len(trial))
		for f, v := range trial {
			scores[i][f] = v[0]
		}
	}
	return scores, nil
}

// ScoreFile scores the feature container at path and returns export
// records, one per scored frame.
func (s *Scorer) ScoreFile(path string) ([]export.TrialRecord, error) {
	set, err := corpus.LoadFeatureSetFile(path)
	if err != nil {
		return nil, fmt.Errorf("load features: %w", err)
	}
	scores, err := s.Score(set)
	if err != nil {
		return nil, err
	}
	return export.Export(scores, set.FileList)
}
