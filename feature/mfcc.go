package feature

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Kind selects the acoustic representation produced by Extract.
type Kind string

const (
	// MFCC gives NumCepstra cepstral coefficients plus optional deltas.
	MFCC Kind = "mfcc"
	// LogMel gives NumMelFilters Mel energies in decibels.
	LogMel Kind = "logmel"
)

// ParseKind converts a command-line feature type into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case MFCC, LogMel:
		return k, nil
	}
	return "", fmt.Errorf("unknown feature type %q (want mfcc or logmel)", s)
}

// Config holds all feature extraction parameters.
type Config struct {
	Kind          Kind
	SampleRate    int
	FrameLenMs    float64 // frame length in milliseconds
	FrameShiftMs  float64 // frame shift in milliseconds
	PreEmphCoeff  float64
	NumMelFilters int
	NumCepstra    int
	LowFreq       float64
	HighFreq      float64
	FFTSize       int
	UseDelta      bool
	UseDeltaDelta bool
	DeltaWindow   int
	CepLifter     int
	UseCMVN       bool // per-utterance mean and variance normalization
}

// DefaultConfig returns the MFCC configuration: 13 cepstra with deltas and
// delta-deltas over 25 ms frames every 10 ms at 16 kHz.
func DefaultConfig() Config {
	return Config{
		Kind:          MFCC,
		SampleRate:    16000,
		FrameLenMs:    25.0,
		FrameShiftMs:  10.0,
		PreEmphCoeff:  0.97,
		NumMelFilters: 26,
		NumCepstra:    13,
		LowFreq:       0,
		HighFreq:      8000,
		FFTSize:       512,
		UseDelta:      true,
		UseDeltaDelta: true,
		DeltaWindow:   2,
		CepLifter:     22,
	}
}

// LogMelConfig returns 13 log-Mel energies over the same framing as DefaultConfig.
func LogMelConfig() Config {
	c := DefaultConfig()
	c.Kind = LogMel
	c.NumMelFilters = 13
	c.UseDelta = false
	c.UseDeltaDelta = false
	return c
}

// FeatureDim returns the total feature vector dimension.
func (c Config) FeatureDim() int {
	if c.Kind == LogMel {
		return c.NumMelFilters
	}
	d := c.NumCepstra
	if c.UseDelta {
		d += c.NumCepstra
	}
	if c.UseDeltaDelta {
		d += c.NumCepstra
	}
	return d
}

// Validate checks the parameters Extract depends on.
func (c Config) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	if c.SampleRate <= 0 || c.FrameLenMs <= 0 || c.FrameShiftMs <= 0 {
		return fmt.Errorf("invalid framing: rate %d, length %v ms, shift %v ms", c.SampleRate, c.FrameLenMs, c.FrameShiftMs)
	}
	if c.FFTSize <= 0 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("FFT size %d is not a power of two", c.FFTSize)
	}
	if frameLen := int(c.FrameLenMs * float64(c.SampleRate) / 1000.0); frameLen > c.FFTSize {
		return fmt.Errorf("frame length %d exceeds FFT size %d", frameLen, c.FFTSize)
	}
	if c.NumMelFilters <= 0 || (c.Kind == MFCC && (c.NumCepstra <= 0 || c.NumCepstra > c.NumMelFilters)) {
		return fmt.Errorf("invalid filterbank: %d filters, %d cepstra", c.NumMelFilters, c.NumCepstra)
	}
	if c.UseDelta && c.DeltaWindow <= 0 {
		return fmt.Errorf("delta window must be positive, got %d", c.DeltaWindow)
	}
	return nil
}

// Extract computes features from raw audio samples.
// Returns a matrix of shape [numFrames][FeatureDim].
func Extract(samples []float64, cfg Config) ([][]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	spectra, err := ExtractPowerSpectra(samples, cfg)
	if err != nil {
		return nil, err
	}
	return FeaturesFromSpectra(spectra, cfg), nil
}

// ExtractPowerSpectra computes per-frame power spectra of pre-emphasized,
// Hamming-windowed frames.
func ExtractPowerSpectra(samples []float64, cfg Config) ([][]float64, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty samples")
	}

	frameLen := int(cfg.FrameLenMs * float64(cfg.SampleRate) / 1000.0)
	frameShift := int(cfg.FrameShiftMs * float64(cfg.SampleRate) / 1000.0)
	frames := Frame(PreEmphasize(samples, cfg.PreEmphCoeff), frameLen, frameShift)
	if len(frames) == 0 {
		return nil, fmt.Errorf("audio too short for a single frame")
	}

	sa := newSpectrumAnalyzer(cfg.FFTSize, hammingWindow(frameLen))
	nBins := cfg.FFTSize/2 + 1
	buf := make([]float64, len(frames)*nBins)
	spectra := make([][]float64, len(frames))
	for i, frame := range frames {
		spectra[i] = buf[i*nBins : (i+1)*nBins : (i+1)*nBins]
		sa.powerInto(frame, spectra[i])
	}
	return spectra, nil
}

// FeaturesFromSpectra computes features of cfg.Kind from pre-computed power spectra.
func FeaturesFromSpectra(spectra [][]float64, cfg Config) [][]float64 {
	if len(spectra) == 0 {
		return nil
	}
	var feats [][]float64
	if cfg.Kind == LogMel {
		feats = logMel(spectra, cfg)
	} else {
		feats = mfcc(spectra, cfg)
	}
	if cfg.UseCMVN {
		ApplyCMVN(feats)
	}
	return feats
}

// mfcc returns liftered cepstra with the configured deltas appended. Exact
// zeros are replaced by the smallest non-zero magnitude of the utterance.
func mfcc(spectra [][]float64, cfg Config) [][]float64 {
	fb := NewMelFilterbank(cfg.NumMelFilters, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq)
	energies := fb.energiesOf(spectra)
	energies.Apply(func(_, _ int, v float64) float64 {
		return math.Log(math.Max(v, 1e-30))
	}, energies)

	var cep mat.Dense
	cep.Mul(energies, dctMatrix(cfg.NumCepstra, cfg.NumMelFilters).T())
	if cfg.CepLifter > 0 {
		w := lifter(cfg.NumCepstra, cfg.CepLifter)
		cep.Apply(func(_, j int, v float64) float64 { return v * w[j] }, &cep)
	}
	out := denseRows(&cep)

	switch {
	case cfg.UseDelta && cfg.UseDeltaDelta:
		out = AppendDeltas(out, cfg.DeltaWindow)
	case cfg.UseDelta:
		d1 := Delta(out, cfg.DeltaWindow)
		for t, c := range out {
			out[t] = append(append(make([]float64, 0, 2*len(c)), c...), d1[t]...)
		}
	}
	ReplaceZeros(out)
	return out
}

// logMel returns Mel energies in dB. Exact zeros are replaced by the
// smallest non-zero energy of the utterance before taking the log.
func logMel(spectra [][]float64, cfg Config) [][]float64 {
	fb := NewMelFilterbank(cfg.NumMelFilters, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq)
	out := denseRows(fb.energiesOf(spectra))
	ReplaceZeros(out)
	for _, row := range out {
		for j, v := range row {
			row[j] = 10 * math.Log10(math.Max(v, 1e-30))
		}
	}
	return out
}
