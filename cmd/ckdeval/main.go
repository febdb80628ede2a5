package main

import (
	"flag"
	"os"
	"path/filepath"

	"ckd-predictor/internal/eval"
	"ckd-predictor/internal/ml"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dataPath  = flag.String("data", "", "labeled CSV dataset to evaluate against")
		modelPath = flag.String("model", "models/model_knn.json", "model artifact path")
		outPath   = flag.String("out", "eval-results", "output directory for reports")
		threshold = flag.Float64("threshold", 0.5, "probability cutoff for the High Risk label")
		register  = flag.Bool("register", false, "record these results in the model version ledger")
	)
	flag.Parse()

	if *dataPath == "" {
		log.Error().Msg("-data is required")
		flag.Usage()
		os.Exit(2)
	}

	samples, err := eval.LoadDataset(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("dataset load failed")
	}
	log.Info().Int("samples", len(samples)).Str("dataset", *dataPath).Msg("dataset loaded")

	// Evaluation is meaningless against the heuristic fallback, so a missing
	// or corrupt artifact is fatal here.
	predictor, err := ml.New(*modelPath, *threshold, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("model load failed")
	}

	results, err := eval.NewEngine(predictor).Run(samples)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	if err := eval.NewReporter(results, *outPath).GenerateReport(); err != nil {
		log.Fatal().Err(err).Msg("report generation failed")
	}

	if *register {
		mm, err := ml.NewModelManager(filepath.Dir(*modelPath))
		if err != nil {
			log.Fatal().Err(err).Msg("model version manager unavailable")
		}
		err = mm.AddVersion(*modelPath, ml.ModelMetrics{
			Accuracy:        results.Accuracy(),
			Precision:       results.Precision(),
			Recall:          results.Recall(),
			F1Score:         results.F1(),
			TrainingSamples: results.Scored(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to record model version")
		}
		log.Info().Str("model", *modelPath).Msg("model version recorded")
	}

	log.Info().
		Int("scored", results.Scored()).
		Int("skipped", results.Skipped).
		Float64("accuracy", results.Accuracy()).
		Float64("precision", results.Precision()).
		Float64("recall", results.Recall()).
		Float64("f1", results.F1()).
		Str("output", *outPath).
		Msg("evaluation complete")
}
