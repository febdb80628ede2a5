package ml

import (
	"fmt"
	"math"

	"ckd-predictor/internal/attrs"
)

// fallbackWeight is one weighted clinical indicator. Inverted indicators raise
// risk as the value drops.
type fallbackWeight struct {
	name     string
	weight   float64
	inverted bool
}

// FallbackScorer implements a heuristic clinical score used when no trained
// artifact is available. It weighs the indicators most associated with CKD:
// elevated serum creatinine and blood urea, low hemoglobin, proteinuria,
// dilute urine, and comorbidity flags.
type FallbackScorer struct {
	weights []fallbackWeight
}

// NewFallbackScorer creates the heuristic scorer with fixed weights. The
// weights are an ordered slice, not a map: the summation order is part of the
// score's determinism guarantee.
func NewFallbackScorer() *FallbackScorer {
	return &FallbackScorer{
		weights: []fallbackWeight{
			{name: "serum_creatinine", weight: 0.30},
			{name: "blood_urea", weight: 0.15},
			{name: "hemoglobin", weight: 0.15, inverted: true},
			{name: "albumin", weight: 0.10},
			{name: "specific_gravity", weight: 0.05, inverted: true},
			{name: "hypertension", weight: 0.08},
			{name: "diabetes_mellitus", weight: 0.07},
			{name: "pedal_edema", weight: 0.05},
			{name: "anemia", weight: 0.05},
		},
	}
}

// Score maps the record to a probability via a weighted indicator sum pushed
// through a sigmoid. Deterministic for a given record.
func (s *FallbackScorer) Score(record attrs.PatientRecord) (float64, error) {
	var risk float64
	for _, w := range s.weights {
		val, ok := record.Get(w.name)
		if !ok {
			return 0, &InvalidInputError{Reason: fmt.Sprintf("missing field %s", w.name)}
		}

		f := attrs.Lookup(w.name)
		var indicator float64
		if f.Kind == attrs.Categorical {
			indicator = val // yes -> 1 already encodes risk
		} else {
			indicator = (val - f.Min) / (f.Max - f.Min)
			if w.inverted {
				indicator = 1 - indicator
			}
		}
		risk += w.weight * indicator
	}

	// Center so a mid-range record lands near 0.5, then sharpen.
	return sigmoid((risk - 0.35) * 6), nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
