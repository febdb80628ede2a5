package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"ckd-predictor/internal/attrs"
)

// Model is the trained KNN artifact. It is loaded once at startup and
// read-only for the lifetime of the process.
type Model struct {
	Version  string      `json:"version"`
	Features []string    `json:"features"`
	K        int         `json:"k"`
	Means    []float64   `json:"means"`
	Stds     []float64   `json:"stds"`
	Points   [][]float64 `json:"points"`
	Labels   []int       `json:"labels"` // 1 = CKD, 0 = not CKD

	scaled [][]float64 // Points standardized once at load
}

// LoadModel reads and validates a model artifact from disk. The artifact must
// agree with the attribute schema: same feature names, same order.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact %s: %w", path, err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}

	m.scaled = make([][]float64, len(m.Points))
	for i, p := range m.Points {
		row := make([]float64, len(p))
		for j, v := range p {
			row[j] = (v - m.Means[j]) / m.Stds[j]
		}
		m.scaled[i] = row
	}
	return &m, nil
}

func (m *Model) validate() error {
	names := attrs.Names()
	if len(m.Features) != len(names) {
		return fmt.Errorf("expected %d features, got %d", len(names), len(m.Features))
	}
	for i, name := range names {
		if m.Features[i] != name {
			return fmt.Errorf("feature %d: expected %q, got %q", i, name, m.Features[i])
		}
	}

	if m.K < 1 {
		return fmt.Errorf("k must be at least 1, got %d", m.K)
	}
	if len(m.Means) != len(m.Features) || len(m.Stds) != len(m.Features) {
		return fmt.Errorf("scaler dimensions do not match feature count")
	}
	for i, std := range m.Stds {
		if std <= 0 {
			return fmt.Errorf("feature %s: standard deviation must be positive, got %f", m.Features[i], std)
		}
	}

	if len(m.Points) == 0 {
		return fmt.Errorf("training set is empty")
	}
	if len(m.Labels) != len(m.Points) {
		return fmt.Errorf("label count %d does not match point count %d", len(m.Labels), len(m.Points))
	}
	for i, p := range m.Points {
		if len(p) != len(m.Features) {
			return fmt.Errorf("training point %d has %d values, expected %d", i, len(p), len(m.Features))
		}
	}
	for i, l := range m.Labels {
		if l != 0 && l != 1 {
			return fmt.Errorf("label %d: expected 0 or 1, got %d", i, l)
		}
	}
	return nil
}

// Score runs one deterministic KNN pass over the standardized input and
// returns the CKD probability: the fraction of the k nearest training
// neighbors labeled CKD.
func (m *Model) Score(vec []float64) (float64, error) {
	if len(vec) != len(m.Features) {
		return 0, &InvalidInputError{Reason: fmt.Sprintf("expected %d features, got %d", len(m.Features), len(vec))}
	}
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &InvalidInputError{Reason: fmt.Sprintf("feature %s is not finite", m.Features[i])}
		}
	}

	std := make([]float64, len(vec))
	for i, v := range vec {
		std[i] = (v - m.Means[i]) / m.Stds[i]
	}

	dists := make([]float64, len(m.Points))
	if m.scaled != nil {
		for i, p := range m.scaled {
			var d float64
			for j, v := range std {
				diff := v - p[j]
				d += diff * diff
			}
			dists[i] = d
		}
	} else {
		// Artifact built in memory without LoadModel; scale on the fly.
		for i, p := range m.Points {
			var d float64
			for j, v := range std {
				diff := v - (p[j]-m.Means[j])/m.Stds[j]
				d += diff * diff
			}
			dists[i] = d
		}
	}

	idx := make([]int, len(dists))
	for i := range idx {
		idx[i] = i
	}
	// Stable sort so equal distances resolve by training order, keeping
	// identical submissions on identical scores.
	sort.SliceStable(idx, func(a, b int) bool { return dists[idx[a]] < dists[idx[b]] })

	k := m.K
	if k > len(idx) {
		k = len(idx)
	}

	positives := 0
	for _, i := range idx[:k] {
		if m.Labels[i] == 1 {
			positives++
		}
	}
	return float64(positives) / float64(k), nil
}
