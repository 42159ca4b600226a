package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/SPEECHCOG/metaeval-experiments/export"
	"github.com/SPEECHCOG/metaeval-experiments/report"
)

func main() {
	csvPath := flag.String("csv", "", "score CSV written by pcscore")
	dbPath := flag.String("db", "", "SQLite score store written by pcscore")
	runID := flag.String("run", "", "run id to report (with -db); empty lists runs")
	meta := flag.Bool("meta", false, "pool the preference effect of every stored run (with -db)")
	types := flag.String("types", "IDS,ADS", "trial types compared by the preference effect")
	plotPath := flag.String("plot", "", "optional score curve image (png, svg, pdf)")
	shiftMs := flag.Float64("shift-ms", 10, "frame shift in milliseconds")
	alpha := flag.Float64("alpha", 0.05, "significance level of the pooled confidence interval")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scorereport (-csv FILE | -db FILE [-run ID | -meta]) [flags]")
		fmt.Fprintln(os.Stderr, "  Summarises attentional preference scores per trial type.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	typeA, typeB, ok := strings.Cut(*types, ",")
	if !ok {
		log.Fatalf("-types must name two trial types, got %q", *types)
	}

	var trials []export.Trial
	switch {
	case *csvPath != "":
		var err error
		trials, err = export.ReadCSVFile(*csvPath)
		if err != nil {
			log.Fatal(err)
		}
	case *dbPath != "":
		ctx := context.Background()
		store, err := export.Open(ctx, *dbPath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer store.Close()

		if *meta {
			if err := poolRuns(ctx, os.Stdout, store, typeA, typeB, *alpha); err != nil {
				log.Fatal(err)
			}
			return
		}
		if *runID == "" {
			if err := listRuns(ctx, os.Stdout, store); err != nil {
				log.Fatal(err)
			}
			return
		}
		records, err := store.Records(ctx, *runID)
		if err != nil {
			log.Fatal(err)
		}
		trials = export.Group(records)
	default:
		flag.Usage()
		os.Exit(2)
	}

	writeSummary(os.Stdout, trials, typeA, typeB)

	if *plotPath != "" {
		if err := report.PlotCurves(trials, *shiftMs, *plotPath); err != nil {
			log.Fatalf("plot: %v", err)
		}
		log.Printf("Wrote %s", *plotPath)
	}
}

func writeSummary(w io.Writer, trials []export.Trial, typeA, typeB string) {
	fmt.Fprintf(w, "%d trials\n", len(trials))
	for _, s := range report.SummarizeTypes(trials) {
		fmt.Fprintf(w, "%-8s trials=%-4d mean=%.4f std=%.4f\n", s.TrialType, s.Trials, s.Mean, s.Std)
	}
	e, err := report.PreferenceEffect(trials, typeA, typeB)
	if err != nil {
		fmt.Fprintf(w, "preference effect: %v\n", err)
		return
	}
	fmt.Fprintf(w, "preference effect %s vs %s: d=%.4f (n=%d, %d) se=%.4f\n",
		typeA, typeB, e.Size, e.N1, e.N2, report.StandardError(e.Size, e.N1, e.N2))
}

func listRuns(ctx context.Context, w io.Writer, store *export.Store) error {
	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %-3s %s  overlap=%.2f records=%d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.ModelKind, r.ModelPath, r.Overlap, r.Records)
	}
	return nil
}

// poolRuns computes the preference effect of every stored run and pools
// them with inverse-variance weights. Runs without enough trials are skipped.
func poolRuns(ctx context.Context, w io.Writer, store *export.Store, typeA, typeB string, alpha float64) error {
	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	var effects []report.Effect
	for _, r := range runs {
		records, err := store.Records(ctx, r.ID)
		if err != nil {
			return err
		}
		e, err := report.PreferenceEffect(export.Group(records), typeA, typeB)
		if err != nil {
			log.Printf("skip run %s: %v", r.ID, err)
			continue
		}
		fmt.Fprintf(w, "%s  %s  d=%.4f\n", r.ID, r.ModelPath, e.Size)
		effects = append(effects, e)
	}
	res, err := report.Meta(effects, alpha)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "pooled d=%.4f se=%.4f CI=[%.4f, %.4f] z=%.3f p=%.4g %s (%d runs)\n",
		res.Mean, res.SE, res.CILow, res.CIHigh, res.Z, res.P, res.Code, res.Effects)
	return nil
}
