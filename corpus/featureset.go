// Package corpus holds the feature containers exchanged between the
// feature extraction, prediction and scoring tools, and the frame index
// logic that maps a concatenated frame matrix back to its trials.
package corpus

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/SPEECHCOG/metaeval-experiments/window"
)

// FeatureSet is the model input container: trials concatenated with reset
// frames between them and cut into fixed-length samples.
//
// Data is [samples][sampleLength][dim]. Indices mirrors Data and tells, for
// every frame, which entry of FileList it belongs to (or ResetID).
type FeatureSet struct {
	Data     [][][]float64
	FileList []string
	Indices  [][]FrameRef
}

// SampleLength returns the number of frames per sample.
func (fs *FeatureSet) SampleLength() int {
	if len(fs.Data) == 0 {
		return 0
	}
	return len(fs.Data[0])
}

// Dim returns the feature dimension.
func (fs *FeatureSet) Dim() int {
	if fs.SampleLength() == 0 {
		return 0
	}
	return len(fs.Data[0][0])
}

// Frames returns all samples flattened into one frame matrix.
// Rows are shared with Data.
func (fs *FeatureSet) Frames() [][]float64 {
	return window.Flatten(fs.Data)
}

// FrameIndex returns Indices flattened to match Frames.
func (fs *FeatureSet) FrameIndex() FrameIndex {
	out := make(FrameIndex, 0, len(fs.Indices)*fs.SampleLength())
	for _, sample := range fs.Indices {
		out = append(out, sample...)
	}
	return out
}

// Validate checks that Data and Indices agree in shape.
func (fs *FeatureSet) Validate() error {
	if len(fs.Data) != len(fs.Indices) {
		return fmt.Errorf("data has %d samples, indices has %d", len(fs.Data), len(fs.Indices))
	}
	n, dim := fs.SampleLength(), fs.Dim()
	for i, sample := range fs.Data {
		if len(sample) != n || len(fs.Indices[i]) != n {
			return fmt.Errorf("sample %d: %d frames and %d indices, want %d", i, len(sample), len(fs.Indices[i]), n)
		}
		for j, frame := range sample {
			if len(frame) != dim {
				return fmt.Errorf("sample %d frame %d: dim %d, want %d", i, j, len(frame), dim)
			}
		}
		for _, ref := range fs.Indices[i] {
			if ref.FileID != ResetID && (ref.FileID < 0 || ref.FileID >= len(fs.FileList)) {
				return fmt.Errorf("sample %d: file id %d out of range [0, %d)", i, ref.FileID, len(fs.FileList))
			}
		}
	}
	return nil
}

// Build concatenates per-file feature matrices into a FeatureSet.
// resetFrames zero frames (indexed ResetID) follow every file, and the
// stream is padded with reset frames to a multiple of sampleLength. The
// padding is always sampleLength - total%sampleLength frames, so a stream
// that is already aligned gains one extra all-reset sample.
func Build(files []string, features [][][]float64, sampleLength, resetFrames int) (*FeatureSet, error) {
	if len(files) != len(features) {
		return nil, fmt.Errorf("%d files but %d feature matrices", len(files), len(features))
	}
	if len(features) == 0 {
		return nil, errors.New("no feature matrices")
	}
	if sampleLength <= 0 {
		return nil, fmt.Errorf("sample length must be positive, got %d", sampleLength)
	}
	if resetFrames < 0 {
		return nil, fmt.Errorf("reset frames must be non-negative, got %d", resetFrames)
	}
	dim := -1
	for i, m := range features {
		for _, frame := range m {
			if dim < 0 {
				dim = len(frame)
			}
			if len(frame) != dim {
				return nil, fmt.Errorf("file %s: frame dim %d, want %d", files[i], len(frame), dim)
			}
		}
	}
	if dim <= 0 {
		return nil, errors.New("feature matrices contain no frames")
	}

	var frames [][]float64
	var index FrameIndex
	for id, m := range features {
		for off, frame := range m {
			frames = append(frames, frame)
			index = append(index, FrameRef{FileID: id, Offset: off})
		}
		for range resetFrames {
			frames = append(frames, make([]float64, dim))
			index = append(index, FrameRef{FileID: ResetID})
		}
	}
	extra := sampleLength - len(frames)%sampleLength
	for range extra {
		frames = append(frames, make([]float64, dim))
		index = append(index, FrameRef{FileID: ResetID})
	}

	rows := make([][]float64, len(frames))
	buf := make([]float64, len(frames)*dim)
	for k, frame := range frames {
		rows[k] = buf[k*dim : (k+1)*dim : (k+1)*dim]
		copy(rows[k], frame)
	}
	data, err := window.Reshape(rows, sampleLength)
	if err != nil {
		return nil, err
	}
	fs := &FeatureSet{
		Data:     data,
		FileList: append([]string(nil), files...),
		Indices:  make([][]FrameRef, len(data)),
	}
	for i := range fs.Indices {
		fs.Indices[i] = index[i*sampleLength : (i+1)*sampleLength : (i+1)*sampleLength]
	}
	return fs, nil
}

// --- Serialization ---

const featureSetVersion = 1

type serializedFeatureSet struct {
	Version      int
	SampleLength int
	Dim          int
	Data         []float64 // flat [samples × sampleLength × dim]
	FileList     []string
	FileIDs      []int // flat [samples × sampleLength]
	Offsets      []int
}

// Save serializes the FeatureSet with gob encoding.
func (fs *FeatureSet) Save(w io.Writer) error {
	n, dim := fs.SampleLength(), fs.Dim()
	sd := serializedFeatureSet{
		Version:      featureSetVersion,
		SampleLength: n,
		Dim:          dim,
		Data:         make([]float64, 0, len(fs.Data)*n*dim),
		FileList:     fs.FileList,
		FileIDs:      make([]int, 0, len(fs.Data)*n),
		Offsets:      make([]int, 0, len(fs.Data)*n),
	}
	for i, sample := range fs.Data {
		for j, frame := range sample {
			sd.Data = append(sd.Data, frame...)
			sd.FileIDs = append(sd.FileIDs, fs.Indices[i][j].FileID)
			sd.Offsets = append(sd.Offsets, fs.Indices[i][j].Offset)
		}
	}
	return gob.NewEncoder(w).Encode(sd)
}

// LoadFeatureSet deserializes a FeatureSet written by Save.
func LoadFeatureSet(r io.Reader) (*FeatureSet, error) {
	var sd serializedFeatureSet
	if err := gob.NewDecoder(r).Decode(&sd); err != nil {
		return nil, fmt.Errorf("decode feature set: %w", err)
	}
	if sd.Version != featureSetVersion {
		return nil, fmt.Errorf("unsupported feature set version %d", sd.Version)
	}
	if sd.SampleLength <= 0 || sd.Dim <= 0 {
		return nil, fmt.Errorf("invalid feature set geometry %d×%d", sd.SampleLength, sd.Dim)
	}
	nFrames := len(sd.FileIDs)
	if nFrames%sd.SampleLength != 0 || len(sd.Offsets) != nFrames || len(sd.Data) != nFrames*sd.Dim {
		return nil, errors.New("feature set arrays have inconsistent lengths")
	}
	nSamples := nFrames / sd.SampleLength
	fs := &FeatureSet{
		Data:     make([][][]float64, nSamples),
		FileList: sd.FileList,
		Indices:  make([][]FrameRef, nSamples),
	}
	for i := range nSamples {
		fs.Data[i] = make([][]float64, sd.SampleLength)
		fs.Indices[i] = make([]FrameRef, sd.SampleLength)
		for j := range sd.SampleLength {
			k := i*sd.SampleLength + j
			fs.Data[i][j] = sd.Data[k*sd.Dim : (k+1)*sd.Dim : (k+1)*sd.Dim]
			fs.Indices[i][j] = FrameRef{FileID: sd.FileIDs[k], Offset: sd.Offsets[k]}
		}
	}
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	return fs, nil
}

// SaveFile writes the FeatureSet to path, creating parent directories.
func (fs *FeatureSet) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := fs.Save(&buf); err != nil {
		return fmt.Errorf("encode feature set: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

// LoadFeatureSetFile reads a FeatureSet from path.
func LoadFeatureSetFile(path string) (*FeatureSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFeatureSet(f)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
