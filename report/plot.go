package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/SPEECHCOG/metaeval-experiments/corpus"
	"github.com/SPEECHCOG/metaeval-experiments/export"
)

// MeanCurves averages scores frame by frame across the trials of each type.
// Frame i of a type's curve averages the trials that are longer than i.
func MeanCurves(trials []export.Trial) map[string][]float64 {
	sums := make(map[string][]float64)
	counts := make(map[string][]int)
	for _, tr := range trials {
		s, c := sums[tr.TrialType], counts[tr.TrialType]
		for len(s) < len(tr.Scores) {
			s = append(s, 0)
			c = append(c, 0)
		}
		for i, v := range tr.Scores {
			s[i] += v
			c[i]++
		}
		sums[tr.TrialType], counts[tr.TrialType] = s, c
	}
	for typ, s := range sums {
		for i := range s {
			s[i] /= float64(counts[typ][i])
		}
	}
	return sums
}

// PlotCurves writes a PNG (or any format plot supports, by extension) with
// one mean score curve per trial type. shiftMs converts frames to time.
func PlotCurves(trials []export.Trial, shiftMs float64, path string) error {
	curves := MeanCurves(trials)
	if len(curves) == 0 {
		return fmt.Errorf("no trials to plot")
	}
	types := make([]string, 0, len(curves))
	for k := range curves {
		types = append(types, k)
	}
	sort.Strings(types)

	p := plot.New()
	p.Title.Text = "Attentional preference score"
	p.X.Label.Text = "time (ms)"
	p.Y.Label.Text = "score"
	p.Legend.Top = true

	for i, typ := range types {
		c := curves[typ]
		if len(c) == 0 {
			continue
		}
		ts := corpus.Timestamps(len(c), shiftMs)
		pts := make(plotter.XYs, len(c))
		for j, v := range c {
			pts[j] = plotter.XY{X: ts[j], Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("line for %s: %w", typ, err)
		}
		line.Width = vg.Points(1)
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(typ, line)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}
