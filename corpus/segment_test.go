package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildIndex concatenates trials of the given lengths, each followed by
// `reset` reset frames, after `lead` leading reset frames.
func buildIndex(lengths []int, lead, reset int) (FrameIndex, []Range) {
	var idx FrameIndex
	var want []Range
	for range lead {
		idx = append(idx, FrameRef{FileID: ResetID})
	}
	for id, n := range lengths {
		start := len(idx)
		for off := range n {
			idx = append(idx, FrameRef{FileID: id, Offset: off})
		}
		want = append(want, Range{Start: start, End: len(idx)})
		for range reset {
			idx = append(idx, FrameRef{FileID: ResetID})
		}
	}
	return idx, want
}

func TestSegmentRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		lengths []int
		lead    int
		reset   int
	}{
		{"no resets", []int{3, 5, 2}, 0, 0},
		{"resets between trials", []int{4, 1, 6}, 0, 3},
		{"leading resets", []int{2, 2}, 5, 1},
		{"single frame trials", []int{1, 1, 1}, 1, 1},
		{"single trial", []int{7}, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx, want := buildIndex(tc.lengths, tc.lead, tc.reset)
			assert.Equal(t, want, Ranges(idx))
		})
	}
}

func TestSegmentNeverIncludesResets(t *testing.T) {
	idx, _ := buildIndex([]int{3, 4, 5}, 2, 2)
	for r := range Segment(idx) {
		require.Positive(t, r.Len())
		for i := r.Start; i < r.End; i++ {
			assert.False(t, idx[i].IsReset(), "range %v includes reset frame %d", r, i)
		}
	}
}

func TestSegmentAllResets(t *testing.T) {
	idx := FrameIndex{{FileID: ResetID}, {FileID: ResetID}, {FileID: ResetID}}
	assert.Empty(t, Ranges(idx))
	assert.Empty(t, Ranges(nil))
}

func TestSegmentTrailingTrialAfterChange(t *testing.T) {
	idx := FrameIndex{{FileID: 0}, {FileID: 0, Offset: 1}, {FileID: 1}}
	assert.Equal(t, []Range{{0, 2}, {2, 3}}, Ranges(idx))
}

func TestSegmentStopsEarly(t *testing.T) {
	idx, want := buildIndex([]int{2, 3, 4}, 0, 1)
	var got []Range
	for r := range Segment(idx) {
		got = append(got, r)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, want[:2], got)
}

func TestTrials(t *testing.T) {
	idx, _ := buildIndex([]int{2, 3}, 0, 1)
	frames := make([][]float64, len(idx))
	for i := range frames {
		frames[i] = []float64{float64(i)}
	}
	trials, err := Trials(frames, idx)
	require.NoError(t, err)
	require.Len(t, trials, 2)
	assert.Equal(t, [][]float64{{0}, {1}}, trials[0])
	assert.Equal(t, [][]float64{{3}, {4}, {5}}, trials[1])

	_, err = Trials(frames[:2], idx)
	assert.Error(t, err)
}

func TestTimestamps(t *testing.T) {
	assert.Equal(t, []float64{5, 15, 25}, Timestamps(3, 10))
}
