package corpus

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SPEECHCOG/metaeval-experiments/window"
)

// Predictions holds model latents computed for every sample of a FeatureSet.
// Latents is [samples][sampleLength][latentDim].
type Predictions struct {
	Latents [][][]float64
}

// Frames returns the latents flattened to one row per frame, in the same
// order as FeatureSet.Frames.
func (p *Predictions) Frames() [][]float64 {
	return window.Flatten(p.Latents)
}

const predictionsVersion = 1

type serializedPredictions struct {
	Version int
	Shape   [3]int
	Latents []float64
}

// Save serializes the predictions with gob encoding.
func (p *Predictions) Save(w io.Writer) error {
	sd := serializedPredictions{Version: predictionsVersion}
	if len(p.Latents) > 0 && len(p.Latents[0]) > 0 {
		sd.Shape = [3]int{len(p.Latents), len(p.Latents[0]), len(p.Latents[0][0])}
	}
	sd.Latents = make([]float64, 0, sd.Shape[0]*sd.Shape[1]*sd.Shape[2])
	for i, sample := range p.Latents {
		if len(sample) != sd.Shape[1] {
			return fmt.Errorf("sample %d has %d frames, want %d", i, len(sample), sd.Shape[1])
		}
		for _, frame := range sample {
			if len(frame) != sd.Shape[2] {
				return fmt.Errorf("sample %d: latent dim %d, want %d", i, len(frame), sd.Shape[2])
			}
			sd.Latents = append(sd.Latents, frame...)
		}
	}
	return gob.NewEncoder(w).Encode(sd)
}

// LoadPredictions deserializes predictions written by Save.
func LoadPredictions(r io.Reader) (*Predictions, error) {
	var sd serializedPredictions
	if err := gob.NewDecoder(r).Decode(&sd); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	if sd.Version != predictionsVersion {
		return nil, fmt.Errorf("unsupported predictions version %d", sd.Version)
	}
	s, t, d := sd.Shape[0], sd.Shape[1], sd.Shape[2]
	if len(sd.Latents) != s*t*d {
		return nil, errors.New("predictions shape does not match data length")
	}
	p := &Predictions{Latents: make([][][]float64, s)}
	for i := range s {
		p.Latents[i] = make([][]float64, t)
		for j := range t {
			k := i*t + j
			p.Latents[i][j] = sd.Latents[k*d : (k+1)*d : (k+1)*d]
		}
	}
	return p, nil
}

// SaveFile writes the predictions to path, creating parent directories.
func (p *Predictions) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := p.Save(&buf); err != nil {
		return fmt.Errorf("encode predictions: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

// LoadPredictionsFile reads predictions from path.
func LoadPredictionsFile(path string) (*Predictions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadPredictions(f)
}
