// Package ml loads the trained CKD classification artifact and runs risk
// predictions over validated patient records. When the artifact is missing
// and the fallback is enabled, a heuristic clinical scorer stands in so the
// tool stays usable; every fallback use is counted in metrics.
package ml

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"ckd-predictor/internal/attrs"

	"github.com/rs/zerolog/log"
)

// ErrModelUnavailable signals that no trained artifact is loaded and the
// heuristic fallback is disabled.
var ErrModelUnavailable = errors.New("model unavailable")

// InvalidInputError signals a malformed feature vector reaching the model.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// MetricsInterface defines the metrics methods needed by the predictor.
type MetricsInterface interface {
	PredictionsInc()
	PredictionFailuresInc()
	FallbackUseInc()
	LatencyObserve(float64)
	RiskScoreObserve(float64)
	ModelAgeSet(float64)
}

// RiskScore is the outcome of one prediction: a probability in [0, 1] and
// the label derived from it.
type RiskScore struct {
	Probability float64 `json:"probability"`
	Label       string  `json:"label"`
	Fallback    bool    `json:"fallback"`
}

const (
	LabelHighRisk = "High Risk"
	LabelLowRisk  = "Low Risk"
)

// Predictor applies the loaded model to patient records. The model itself is
// immutable shared state; the mutex only guards bookkeeping fields.
type Predictor struct {
	model     *Model
	fallback  *FallbackScorer
	threshold float64
	metrics   MetricsInterface

	mu           sync.RWMutex
	lastUsed     time.Time
	modelCreated time.Time
}

// New loads the model artifact at path and returns a ready predictor.
// A missing or corrupt artifact is tolerated when enableFallback is true:
// the predictor stays up on the heuristic scorer. Otherwise the returned
// error wraps ErrModelUnavailable and the caller should treat it as fatal.
func New(path string, threshold float64, enableFallback bool, metrics MetricsInterface) (*Predictor, error) {
	p := &Predictor{
		threshold: threshold,
		metrics:   metrics,
	}
	if enableFallback {
		p.fallback = NewFallbackScorer()
	}

	if info, err := os.Stat(path); err == nil {
		p.modelCreated = info.ModTime()
	}

	model, err := LoadModel(path)
	if err != nil {
		if !enableFallback {
			return p, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		log.Warn().Err(err).Str("model_path", path).Msg("model artifact unavailable, using heuristic fallback")
		return p, nil
	}

	p.model = model
	log.Info().
		Str("model_path", path).
		Str("version", model.Version).
		Int("k", model.K).
		Int("training_samples", len(model.Points)).
		Msg("model loaded")

	if p.metrics != nil && !p.modelCreated.IsZero() {
		p.metrics.ModelAgeSet(time.Since(p.modelCreated).Seconds())
	}
	return p, nil
}

// Available reports whether a trained artifact is loaded (as opposed to the
// heuristic fallback).
func (p *Predictor) Available() bool {
	return p != nil && p.model != nil
}

// ModelVersion returns the loaded artifact's version, or "fallback".
func (p *Predictor) ModelVersion() string {
	if p == nil || p.model == nil {
		return "fallback"
	}
	return p.model.Version
}

// Threshold returns the probability cutoff for the High Risk label.
func (p *Predictor) Threshold() float64 {
	return p.threshold
}

// Predict runs one deterministic forward pass for the record and returns the
// risk score. Identical records always yield identical scores.
func (p *Predictor) Predict(record attrs.PatientRecord) (RiskScore, error) {
	if p == nil {
		return RiskScore{}, ErrModelUnavailable
	}

	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.LatencyObserve(time.Since(start).Seconds())
		}
	}()

	vec := record.Vector()

	var (
		prob     float64
		fallback bool
		err      error
	)
	switch {
	case p.model != nil:
		prob, err = p.model.Score(vec)
	case p.fallback != nil:
		prob, err = p.fallback.Score(record)
		fallback = true
	default:
		err = ErrModelUnavailable
	}

	if err != nil {
		if p.metrics != nil {
			p.metrics.PredictionFailuresInc()
		}
		return RiskScore{}, err
	}

	if p.metrics != nil {
		p.metrics.PredictionsInc()
		p.metrics.RiskScoreObserve(prob)
		if fallback {
			p.metrics.FallbackUseInc()
		}
	}

	p.mu.Lock()
	p.lastUsed = time.Now()
	p.mu.Unlock()

	score := RiskScore{Probability: prob, Fallback: fallback}
	if prob >= p.threshold {
		score.Label = LabelHighRisk
	} else {
		score.Label = LabelLowRisk
	}

	log.Debug().
		Float64("probability", prob).
		Str("label", score.Label).
		Bool("fallback", fallback).
		Msg("prediction complete")

	return score, nil
}

// Info describes the loaded model for the /api/model/info endpoint.
type Info struct {
	Version         string    `json:"version"`
	Available       bool      `json:"available"`
	Fallback        bool      `json:"fallback"`
	K               int       `json:"k,omitempty"`
	Features        []string  `json:"features"`
	TrainingSamples int       `json:"training_samples,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	Threshold       float64   `json:"threshold"`
}

// ModelInfo returns metadata about the active model or fallback.
func (p *Predictor) ModelInfo() Info {
	info := Info{
		Version:   p.ModelVersion(),
		Available: p.Available(),
		Fallback:  !p.Available(),
		Features:  attrs.Names(),
		Threshold: p.threshold,
	}
	if p.model != nil {
		info.K = p.model.K
		info.TrainingSamples = len(p.model.Points)
		info.CreatedAt = p.modelCreated
	}
	return info
}
