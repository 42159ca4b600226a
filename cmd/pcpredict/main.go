package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/SPEECHCOG/metaeval-experiments/corpus"
	"github.com/SPEECHCOG/metaeval-experiments/model"
)

func main() {
	input := flag.String("input", "", "feature container produced by featgen")
	modelPath := flag.String("model", "", "native APC/CPC model file")
	output := flag.String("output", "", "output predictions path")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pcpredict -input FILE -model FILE -output FILE")
		fmt.Fprintln(os.Stderr, "  Stores the model's latent representation of every input sample.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *input == "" || *modelPath == "" || *output == "" {
		flag.Usage()
		os.Exit(2)
	}

	set, err := corpus.LoadFeatureSetFile(*input)
	if err != nil {
		log.Fatalf("load features: %v", err)
	}
	m, err := model.LoadFile(*modelPath)
	if err != nil {
		log.Fatalf("load model: %v", err)
	}
	lm, ok := m.(model.LatentModel)
	if !ok {
		log.Fatalf("%s model does not expose latents", m.Kind())
	}

	preds, err := predict(set, lm)
	if err != nil {
		log.Fatal(err)
	}
	if err := preds.SaveFile(*output); err != nil {
		log.Fatalf("save predictions: %v", err)
	}
	log.Printf("Wrote latents of %d samples to %s", len(preds.Latents), *output)
}

// predict runs every sample of set through m as one non-overlapping batch.
func predict(set *corpus.FeatureSet, m model.LatentModel) (*corpus.Predictions, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	latents, err := m.Latents(set.Data)
	if err != nil {
		return nil, fmt.Errorf("%s latents: %w", m.Kind(), err)
	}
	preds := &corpus.Predictions{Latents: latents.Nested()}
	if got, want := len(preds.Frames()), len(set.FrameIndex()); got != want {
		return nil, fmt.Errorf("%s latents cover %d frames, want %d", m.Kind(), got, want)
	}
	return preds, nil
}
