// Package export flattens per-trial frame scores into table rows and
// persists them as semicolon-separated CSV or in a SQLite run store.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// TrialRecord is one exported row: the score of one frame of one trial.
type TrialRecord struct {
	FileName  string
	TrialType string
	Frame     int
	Score     float64
}

// ErrMissingFile is returned when there are more score arrays than files.
var ErrMissingFile = errors.New("no file for trial")

// Stem returns the file name of path without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TrialType returns the name of path's parent directory, which by
// convention is the trial category (e.g. IDS or ADS).
func TrialType(path string) string {
	return filepath.Base(filepath.Dir(path))
}

// Export emits one record per frame of every trial, in trial then frame
// order. scores[i] belongs to files[i]; extra files are ignored.
func Export(scores [][]float64, files []string) ([]TrialRecord, error) {
	if len(scores) > len(files) {
		return nil, fmt.Errorf("%w: %d score arrays, %d files", ErrMissingFile, len(scores), len(files))
	}
	n := 0
	for _, s := range scores {
		n += len(s)
	}
	records := make([]TrialRecord, 0, n)
	for i, trial := range scores {
		name, typ := Stem(files[i]), TrialType(files[i])
		for f, v := range trial {
			records = append(records, TrialRecord{FileName: name, TrialType: typ, Frame: f, Score: v})
		}
	}
	return records, nil
}

// Trial is the score sequence of one file read back from an export.
type Trial struct {
	FileName  string
	TrialType string
	Scores    []float64
}

// Group collects records into trials by file name, in first-seen order.
// Frames are placed by their frame index; gaps stay zero.
func Group(records []TrialRecord) []Trial {
	var trials []Trial
	pos := make(map[string]int)
	for _, r := range records {
		i, ok := pos[r.FileName]
		if !ok {
			i = len(trials)
			pos[r.FileName] = i
			trials = append(trials, Trial{FileName: r.FileName, TrialType: r.TrialType})
		}
		tr := &trials[i]
		for len(tr.Scores) <= r.Frame {
			tr.Scores = append(tr.Scores, 0)
		}
		tr.Scores[r.Frame] = r.Score
	}
	return trials
}
