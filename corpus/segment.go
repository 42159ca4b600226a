package corpus

import (
	"fmt"
	"iter"
)

// ResetID is the file id carried by padding and reset frames.
const ResetID = -1

// FrameRef locates one frame of a concatenated feature matrix:
// the file it came from and its offset inside that file.
type FrameRef struct {
	FileID int
	Offset int
}

// IsReset reports whether the frame is padding between or after trials.
func (r FrameRef) IsReset() bool { return r.FileID == ResetID }

// FrameIndex is parallel to a flat frame matrix, one FrameRef per frame.
type FrameIndex []FrameRef

// Range is a half-open frame range [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of frames in the range.
func (r Range) Len() int { return r.End - r.Start }

// Segment partitions idx into one range per trial, in first-seen order.
// Reset frames never appear inside a range, and a change of file id always
// starts a new range. The sequence is produced lazily in a single scan;
// call Segment again to iterate a second time.
func Segment(idx FrameIndex) iter.Seq[Range] {
	return func(yield func(Range) bool) {
		if len(idx) == 0 {
			return
		}
		prev := idx[0].FileID
		start := 0
		last := len(idx) - 1
		for i, ref := range idx {
			if ref.FileID != prev {
				if prev != ResetID {
					if !yield(Range{Start: start, End: i}) {
						return
					}
				}
				prev = ref.FileID
				start = i
			}
			if ref.IsReset() {
				start = i
				continue
			}
			if i == last {
				yield(Range{Start: start, End: len(idx)})
			}
		}
	}
}

// Ranges collects Segment(idx) into a slice.
func Ranges(idx FrameIndex) []Range {
	var out []Range
	for r := range Segment(idx) {
		out = append(out, r)
	}
	return out
}

// Trials slices frames into per-trial matrices following the ranges of idx.
// The returned matrices share rows with frames.
func Trials(frames [][]float64, idx FrameIndex) ([][][]float64, error) {
	if len(frames) != len(idx) {
		return nil, fmt.Errorf("frame count %d does not match index length %d", len(frames), len(idx))
	}
	var trials [][][]float64
	for r := range Segment(idx) {
		trials = append(trials, frames[r.Start:r.End])
	}
	return trials, nil
}

// Timestamps returns frame-centre times in milliseconds for n frames
// taken every shiftMs milliseconds.
func Timestamps(n int, shiftMs float64) []float64 {
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = shiftMs/2 + float64(i)*shiftMs
	}
	return ts
}
