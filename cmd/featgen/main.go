package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/SPEECHCOG/metaeval-experiments/audio"
	"github.com/SPEECHCOG/metaeval-experiments/corpus"
	"github.com/SPEECHCOG/metaeval-experiments/feature"
	"github.com/SPEECHCOG/metaeval-experiments/internal/config"
)

func main() {
	trialsDir := flag.String("trials", "", "directory of trial WAV files, one subdirectory per trial type")
	output := flag.String("output", "", "output feature container path")
	configPath := flag.String("config", "", "optional JSON run configuration")
	kind := flag.String("kind", "mfcc", "feature type (mfcc/logmel)")
	cmvn := flag.Bool("cmvn", false, "apply per-file mean and variance normalization")
	sampleLength := flag.Int("sample-length", 200, "frames per model sample")
	reset := flag.Int("reset", 50, "reset frames after every trial")
	workers := flag.Int("workers", runtime.NumCPU(), "number of parallel workers")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: featgen -trials DIR -output FILE [flags]")
		fmt.Fprintln(os.Stderr, "  Extracts acoustic features of every trial into one model input container.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *trialsDir == "" || *output == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "kind":
			cfg.FeatureKind = *kind
		case "cmvn":
			cfg.CMVN = *cmvn
		case "sample-length":
			cfg.SampleLength = *sampleLength
		case "reset":
			cfg.ResetFrames = *reset
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	featCfg, err := featureConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}

	files, err := listWAVs(*trialsDir)
	if err != nil {
		log.Fatalf("list trials: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no WAV files under %s", *trialsDir)
	}
	log.Printf("Extracting %s features from %d files (workers=%d)", featCfg.Kind, len(files), *workers)

	features, err := extractAll(files, featCfg, *workers)
	if err != nil {
		log.Fatal(err)
	}

	set, err := corpus.Build(files, features, cfg.SampleLength, cfg.ResetFrames)
	if err != nil {
		log.Fatalf("build container: %v", err)
	}
	if err := set.SaveFile(*output); err != nil {
		log.Fatalf("save container: %v", err)
	}
	log.Printf("Wrote %d samples of %d×%d to %s", len(set.Data), set.SampleLength(), set.Dim(), *output)
}

// featureConfig maps the run configuration onto the front end settings.
func featureConfig(cfg config.Config) (feature.Config, error) {
	kind, err := feature.ParseKind(cfg.FeatureKind)
	if err != nil {
		return feature.Config{}, err
	}
	fc := feature.DefaultConfig()
	if kind == feature.LogMel {
		fc = feature.LogMelConfig()
	}
	fc.UseCMVN = cfg.CMVN
	return fc, nil
}

// listWAVs returns every .wav file below root, sorted by path.
func listWAVs(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".wav") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// extractAll computes features for files in parallel. Result i belongs to
// files[i]; the first failure is returned.
func extractAll(files []string, cfg feature.Config, workers int) ([][][]float64, error) {
	if workers < 1 {
		workers = 1
	}
	features := make([][][]float64, len(files))
	errs := make([]error, len(files))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, path := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			samples, err := audio.Load(path, cfg.SampleRate)
			if err != nil {
				errs[i] = err
				return
			}
			feats, err := feature.Extract(samples, cfg)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", path, err)
				return
			}
			if len(feats) == 0 {
				errs[i] = fmt.Errorf("%s: too short for a single frame", path)
				return
			}
			features[i] = feats
		}(i, path)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return features, nil
}
