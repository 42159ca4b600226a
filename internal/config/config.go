// Package config holds the scoring run parameters, their defaults and the
// optional JSON file that overrides them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SPEECHCOG/metaeval-experiments/feature"
	"github.com/SPEECHCOG/metaeval-experiments/surprisal"
	"github.com/SPEECHCOG/metaeval-experiments/window"
)

// Config is a fully resolved set of run parameters.
type Config struct {
	Overlap      float64
	APCShift     int
	CPCNeg       int
	CPCSteps     int
	Seed         uint64
	SampleLength int
	ResetFrames  int
	FeatureKind  string
	CMVN         bool
}

// Default returns the parameters used when neither a file nor a flag sets them.
func Default() Config {
	return Config{
		Overlap:      0.5,
		APCShift:     5,
		CPCNeg:       10,
		CPCSteps:     12,
		Seed:         0,
		SampleLength: 200,
		ResetFrames:  50,
		FeatureKind:  string(feature.MFCC),
		CMVN:         false,
	}
}

// Validate checks every parameter. Overlap and shift errors wrap
// window.ErrInvalidOverlap and surprisal.ErrInvalidShift. The upper bound
// of APCShift depends on the feature container and is checked when scoring.
func (c Config) Validate() error {
	if c.SampleLength <= 0 {
		return fmt.Errorf("sample_length must be positive, got %d", c.SampleLength)
	}
	if _, _, err := window.Geometry(c.SampleLength, c.Overlap); err != nil {
		return fmt.Errorf("overlap: %w", err)
	}
	if c.APCShift <= 0 {
		return fmt.Errorf("apc_shift: %w %d, must be positive", surprisal.ErrInvalidShift, c.APCShift)
	}
	if c.CPCNeg < 0 {
		return fmt.Errorf("cpc_neg must be non-negative, got %d", c.CPCNeg)
	}
	if c.CPCSteps <= 0 {
		return fmt.Errorf("cpc_steps must be positive, got %d", c.CPCSteps)
	}
	if c.ResetFrames < 0 {
		return fmt.Errorf("reset_frames must be non-negative, got %d", c.ResetFrames)
	}
	if _, err := feature.ParseKind(c.FeatureKind); err != nil {
		return err
	}
	return nil
}

// File is the JSON form of Config. Absent fields keep their current value.
type File struct {
	Overlap      *float64 `json:"overlap,omitempty"`
	APCShift     *int     `json:"apc_shift,omitempty"`
	CPCNeg       *int     `json:"cpc_neg,omitempty"`
	CPCSteps     *int     `json:"cpc_steps,omitempty"`
	Seed         *uint64  `json:"seed,omitempty"`
	SampleLength *int     `json:"sample_length,omitempty"`
	ResetFrames  *int     `json:"reset_frames,omitempty"`
	FeatureKind  *string  `json:"feature_kind,omitempty"`
	CMVN         *bool    `json:"cmvn,omitempty"`
}

// Apply overlays the fields set in f onto c.
func (f *File) Apply(c *Config) {
	if f.Overlap != nil {
		c.Overlap = *f.Overlap
	}
	if f.APCShift != nil {
		c.APCShift = *f.APCShift
	}
	if f.CPCNeg != nil {
		c.CPCNeg = *f.CPCNeg
	}
	if f.CPCSteps != nil {
		c.CPCSteps = *f.CPCSteps
	}
	if f.Seed != nil {
		c.Seed = *f.Seed
	}
	if f.SampleLength != nil {
		c.SampleLength = *f.SampleLength
	}
	if f.ResetFrames != nil {
		c.ResetFrames = *f.ResetFrames
	}
	if f.FeatureKind != nil {
		c.FeatureKind = *f.FeatureKind
	}
	if f.CMVN != nil {
		c.CMVN = *f.CMVN
	}
}

const maxFileSize = 1 * 1024 * 1024 // 1MB

// LoadFile reads a JSON parameter file.
func LoadFile(path string) (*File, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	f := &File{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return f, nil
}

// Load returns Default overlaid with the file at path and validated.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		f, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		f.Apply(&c)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}
