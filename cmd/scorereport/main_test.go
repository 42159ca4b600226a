package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SPEECHCOG/metaeval-experiments/export"
)

func records(ids, ads [][]float64) []export.TrialRecord {
	var out []export.TrialRecord
	add := func(prefix, typ string, trials [][]float64) {
		for i, scores := range trials {
			for f, v := range scores {
				out = append(out, export.TrialRecord{
					FileName: prefix + string(rune('a'+i)), TrialType: typ, Frame: f, Score: v,
				})
			}
		}
	}
	add("ids_", "IDS", ids)
	add("ads_", "ADS", ads)
	return out
}

func TestWriteSummary(t *testing.T) {
	recs := records([][]float64{{3, 3}, {4, 5}}, [][]float64{{1, 2}, {2, 2}})
	var buf bytes.Buffer
	writeSummary(&buf, export.Group(recs), "IDS", "ADS")
	out := buf.String()
	for _, want := range []string{"4 trials", "ADS", "IDS", "preference effect IDS vs ADS: d="} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSummaryTooFewTrials(t *testing.T) {
	recs := records([][]float64{{3, 3}}, [][]float64{{1, 2}})
	var buf bytes.Buffer
	writeSummary(&buf, export.Group(recs), "IDS", "ADS")
	if !strings.Contains(buf.String(), "at least two trials") {
		t.Errorf("expected too-few-trials message, got:\n%s", buf.String())
	}
}

func TestPoolRuns(t *testing.T) {
	ctx := context.Background()
	store, err := export.Open(ctx, filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	runs := [][]export.TrialRecord{
		records([][]float64{{3, 3}, {4, 5}, {4, 4}}, [][]float64{{1, 2}, {2, 2}, {1, 1}}),
		records([][]float64{{2, 3}, {3, 3}, {4, 4}}, [][]float64{{1, 1}, {2, 3}, {2, 1}}),
		records([][]float64{{2}}, [][]float64{{1}}),
	}
	for i, recs := range runs {
		if _, err := store.SaveRun(ctx, export.Run{ModelPath: "m.gob", ModelKind: "apc", Overlap: 0.5, Seed: uint64(i)}, recs); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if err := listRuns(ctx, &buf, store); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Errorf("listed %d runs, want 3:\n%s", n, buf.String())
	}

	buf.Reset()
	if err := poolRuns(ctx, &buf, store, "IDS", "ADS", 0.05); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(2 runs)") {
		t.Errorf("expected two pooled runs:\n%s", buf.String())
	}
}
