// Package window cuts a long frame sequence into fixed-length overlapping
// windows for batched inference and stitches window-level outputs back into
// one continuous sequence.
package window

import (
	"errors"
	"fmt"

	"github.com/SPEECHCOG/metaeval-experiments/internal/mathutil"
)

// ErrInvalidOverlap is returned for overlap fractions outside [0, 1) and for
// window geometries that leave no stride.
var ErrInvalidOverlap = errors.New("invalid overlap")

// Geometry returns the number of frames two consecutive windows share and
// the stride between window starts.
func Geometry(sampleSize int, overlap float64) (overlapped, stride int, err error) {
	if sampleSize <= 0 {
		return 0, 0, fmt.Errorf("%w: sample size %d", ErrInvalidOverlap, sampleSize)
	}
	if overlap < 0 || overlap > 1 {
		return 0, 0, fmt.Errorf("%w: %v is outside [0, 1]", ErrInvalidOverlap, overlap)
	}
	overlapped = int(float64(sampleSize) * overlap)
	stride = sampleSize - overlapped
	if stride <= 0 {
		return 0, 0, fmt.Errorf("%w: overlap %v leaves no stride for sample size %d", ErrInvalidOverlap, overlap, sampleSize)
	}
	return overlapped, stride, nil
}

// Overlap slices frames into floor(len(frames)/stride) windows of sampleSize
// frames, window i starting at frame i*stride. Windows running past the end
// of frames are zero padded on the right.
func Overlap(frames [][]float64, sampleSize int, overlap float64) ([][][]float64, error) {
	_, stride, err := Geometry(sampleSize, overlap)
	if err != nil {
		return nil, err
	}
	dim := 0
	if len(frames) > 0 {
		dim = len(frames[0])
	}
	n := len(frames) / stride
	windows := make([][][]float64, n)
	for i := range windows {
		w := mathutil.NewMat(sampleSize, dim)
		start := i * stride
		end := min(start+sampleSize, len(frames))
		mathutil.CopyRows(w, frames[start:end])
		windows[i] = w
	}
	return windows, nil
}

// Deoverlap rebuilds originalCount*sampleSize frames from windows produced
// by Overlap (or from per-window outputs aligned with them).
//
// Window 0 contributes all of its frames. Window i > 0 contributes only its
// non-overlapping tail, written at sampleSize + stride*(i-1). When a window
// would run past the output, its contribution is truncated to fit and the
// remaining windows are ignored. Output frames no window reaches stay zero:
// this happens when the window count floor(total/stride) falls short of the
// output length, e.g. sampleSize 4, overlap 0.25 and two original samples.
func Deoverlap(windows [][][]float64, overlap float64, originalCount int) ([][]float64, error) {
	if len(windows) == 0 || originalCount <= 0 {
		return [][]float64{}, nil
	}
	sampleSize := len(windows[0])
	overlapped, stride, err := Geometry(sampleSize, overlap)
	if err != nil {
		return nil, err
	}
	dim := 0
	if sampleSize > 0 {
		dim = len(windows[0][0])
	}
	total := originalCount * sampleSize
	out := mathutil.NewMat(total, dim)

	for i, w := range windows {
		if len(w) != sampleSize {
			return nil, fmt.Errorf("window %d has %d frames, want %d", i, len(w), sampleSize)
		}
		if i == 0 {
			mathutil.CopyRows(out, w)
			continue
		}
		start := sampleSize + stride*(i-1)
		if start+stride > total {
			last := total - start
			mathutil.CopyRows(out[start:], w[overlapped:overlapped+last])
		} else {
			mathutil.CopyRows(out[start:start+stride], w[overlapped:])
		}
		if start+stride >= total {
			break
		}
	}
	return out, nil
}

// Reshape groups frames into samples of sampleSize frames. len(frames) must
// be a multiple of sampleSize. Rows are shared with frames.
func Reshape(frames [][]float64, sampleSize int) ([][][]float64, error) {
	if sampleSize <= 0 || len(frames)%sampleSize != 0 {
		return nil, fmt.Errorf("cannot reshape %d frames into samples of %d", len(frames), sampleSize)
	}
	out := make([][][]float64, len(frames)/sampleSize)
	for i := range out {
		out[i] = frames[i*sampleSize : (i+1)*sampleSize : (i+1)*sampleSize]
	}
	return out, nil
}

// Flatten concatenates samples into one frame sequence. Rows are shared.
func Flatten(samples [][][]float64) [][]float64 {
	var out [][]float64
	for _, s := range samples {
		out = append(out, s...)
	}
	return out
}
