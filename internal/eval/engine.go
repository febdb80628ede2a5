// Package eval runs a trained model against a labeled dataset and reports
// classification quality: confusion matrix, accuracy, precision, recall, F1.
package eval

import (
	"time"

	"ckd-predictor/internal/attrs"
	"ckd-predictor/internal/ml"

	"github.com/rs/zerolog/log"
)

// Results accumulates the confusion matrix for one evaluation run.
type Results struct {
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	ModelVersion string    `json:"model_version"`
	Threshold    float64   `json:"threshold"`

	Total   int `json:"total"`
	Skipped int `json:"skipped"` // rows rejected by input validation

	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalseNegatives int `json:"false_negatives"`
}

// Engine evaluates a predictor over labeled samples.
type Engine struct {
	predictor *ml.Predictor
}

// NewEngine creates an evaluation engine for the given predictor.
func NewEngine(predictor *ml.Predictor) *Engine {
	return &Engine{predictor: predictor}
}

// Run scores every sample and tallies the confusion matrix. Samples that
// fail input validation are counted as skipped, not as errors: dataset rows
// go through the same validation path as live submissions.
func (e *Engine) Run(samples []Sample) (*Results, error) {
	results := &Results{
		StartTime:    time.Now(),
		ModelVersion: e.predictor.ModelVersion(),
		Threshold:    e.predictor.Threshold(),
		Total:        len(samples),
	}

	for i, sample := range samples {
		record, err := attrs.Collect(sample.Values)
		if err != nil {
			log.Debug().Err(err).Int("sample", i).Msg("sample rejected by validation")
			results.Skipped++
			continue
		}

		score, err := e.predictor.Predict(record)
		if err != nil {
			return nil, err
		}

		predicted := 0
		if score.Label == ml.LabelHighRisk {
			predicted = 1
		}

		switch {
		case predicted == 1 && sample.Label == 1:
			results.TruePositives++
		case predicted == 1 && sample.Label == 0:
			results.FalsePositives++
		case predicted == 0 && sample.Label == 0:
			results.TrueNegatives++
		default:
			results.FalseNegatives++
		}
	}

	results.EndTime = time.Now()
	return results, nil
}

// Scored returns the number of samples that produced a prediction.
func (r *Results) Scored() int {
	return r.Total - r.Skipped
}

// Accuracy returns the fraction of scored samples classified correctly.
func (r *Results) Accuracy() float64 {
	scored := r.Scored()
	if scored == 0 {
		return 0
	}
	return float64(r.TruePositives+r.TrueNegatives) / float64(scored)
}

// Precision returns TP / (TP + FP), or 0 when nothing was predicted positive.
func (r *Results) Precision() float64 {
	denom := r.TruePositives + r.FalsePositives
	if denom == 0 {
		return 0
	}
	return float64(r.TruePositives) / float64(denom)
}

// Recall returns TP / (TP + FN), or 0 when the dataset has no positives.
func (r *Results) Recall() float64 {
	denom := r.TruePositives + r.FalseNegatives
	if denom == 0 {
		return 0
	}
	return float64(r.TruePositives) / float64(denom)
}

// F1 returns the harmonic mean of precision and recall.
func (r *Results) F1() float64 {
	p, rec := r.Precision(), r.Recall()
	if p+rec == 0 {
		return 0
	}
	return 2 * p * rec / (p + rec)
}
