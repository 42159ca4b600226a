package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	metaeval "github.com/SPEECHCOG/metaeval-experiments"
	"github.com/SPEECHCOG/metaeval-experiments/export"
	"github.com/SPEECHCOG/metaeval-experiments/internal/config"
	"github.com/SPEECHCOG/metaeval-experiments/model"
	"github.com/SPEECHCOG/metaeval-experiments/report"
)

var errUsage = errors.New("missing required flag")

type options struct {
	modelPath string
	kind      model.Kind
	useONNX   bool
	input     string
	output    string
	dbPath    string
	verbose   bool
	cfg       config.Config
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) || errors.Is(err, errUsage) {
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := run(opts, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// parseArgs reads the flags and the optional config file. Flags given on
// the command line win over the file.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("pcscore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	modelPath := fs.String("model", "", "path to the APC/CPC model (native gob or ONNX)")
	modelType := fs.String("model-type", "apc", "model type (apc/cpc)")
	useONNX := fs.Bool("onnx", false, "run the model through ONNX Runtime")
	input := fs.String("input", "", "feature container produced by featgen")
	output := fs.String("output", "", "output CSV path")
	dbPath := fs.String("db", "", "optional SQLite database to store the run in")
	configPath := fs.String("config", "", "optional JSON run configuration")
	overlap := fs.Float64("overlap", 0.5, "window overlap fraction in [0, 1)")
	apcShift := fs.Int("apc-shift", 5, "APC prediction shift in frames")
	cpcNeg := fs.Int("cpc-neg", 10, "CPC negatives per frame")
	cpcSteps := fs.Int("cpc-steps", 12, "CPC prediction steps")
	seed := fs.Uint64("seed", 0, "negative sampling seed")
	verbose := fs.Bool("v", false, "print per-type score summaries")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: pcscore -model FILE -model-type apc|cpc -input FILE -output FILE [flags]")
		fmt.Fprintln(stderr, "  Computes frame-level attentional preference scores for every trial.")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if *modelPath == "" || *input == "" || *output == "" {
		fs.Usage()
		return options{}, errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return options{}, fmt.Errorf("load config: %w", err)
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "overlap":
			cfg.Overlap = *overlap
		case "apc-shift":
			cfg.APCShift = *apcShift
		case "cpc-neg":
			cfg.CPCNeg = *cpcNeg
		case "cpc-steps":
			cfg.CPCSteps = *cpcSteps
		case "seed":
			cfg.Seed = *seed
		}
	})
	if err := cfg.Validate(); err != nil {
		return options{}, fmt.Errorf("invalid configuration: %w", err)
	}

	kind, err := model.ParseKind(*modelType)
	if err != nil {
		return options{}, err
	}
	return options{
		modelPath: *modelPath,
		kind:      kind,
		useONNX:   *useONNX,
		input:     *input,
		output:    *output,
		dbPath:    *dbPath,
		verbose:   *verbose,
		cfg:       cfg,
	}, nil
}

func run(opts options, stdout io.Writer) error {
	scorer, err := metaeval.Open(opts.modelPath, opts.kind, opts.useONNX, metaeval.WithConfig(opts.cfg))
	if err != nil {
		return fmt.Errorf("open model: %w", err)
	}
	defer scorer.Close()

	log.Printf("Scoring %s with %s model %s (overlap=%.2f)", opts.input, opts.kind, opts.modelPath, opts.cfg.Overlap)
	records, err := scorer.ScoreFile(opts.input)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}
	if opts.kind == model.KindCPC {
		log.Printf("Mean InfoNCE loss: %.4f", scorer.Loss)
	}

	if err := export.WriteCSVFile(opts.output, records); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	log.Printf("Wrote %d records to %s", len(records), opts.output)

	if opts.dbPath != "" {
		ctx := context.Background()
		store, err := export.Open(ctx, opts.dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()
		id, err := store.SaveRun(ctx, export.Run{
			ModelPath: opts.modelPath,
			ModelKind: string(opts.kind),
			Overlap:   opts.cfg.Overlap,
			APCShift:  opts.cfg.APCShift,
			CPCNeg:    opts.cfg.CPCNeg,
			CPCSteps:  opts.cfg.CPCSteps,
			Seed:      opts.cfg.Seed,
		}, records)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		log.Printf("Stored run %s in %s", id, opts.dbPath)
	}

	if opts.verbose {
		for _, s := range report.SummarizeTypes(export.Group(records)) {
			fmt.Fprintf(stdout, "%-8s trials=%-4d mean=%.4f std=%.4f\n", s.TrialType, s.Trials, s.Mean, s.Std)
		}
	}
	return nil
}
