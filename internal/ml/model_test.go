package ml

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"ckd-predictor/internal/attrs"
)

func writeArtifact(t *testing.T, m Model) string {
	t.Helper()
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func baseArtifact() Model {
	n := len(attrs.Names())
	means := make([]float64, n)
	stds := make([]float64, n)
	point := make([]float64, n)
	for i := range stds {
		stds[i] = 1
	}
	return Model{
		Version:  "v1",
		Features: attrs.Names(),
		K:        1,
		Means:    means,
		Stds:     stds,
		Points:   [][]float64{point},
		Labels:   []int{1},
	}
}

func TestLoadModel_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Model)
	}{
		{"wrong feature count", func(m *Model) { m.Features = m.Features[:5] }},
		{"wrong feature order", func(m *Model) {
			m.Features[0], m.Features[1] = m.Features[1], m.Features[0]
		}},
		{"zero k", func(m *Model) { m.K = 0 }},
		{"scaler mismatch", func(m *Model) { m.Means = m.Means[:3] }},
		{"non-positive std", func(m *Model) { m.Stds[0] = 0 }},
		{"empty training set", func(m *Model) { m.Points = nil; m.Labels = nil }},
		{"label count mismatch", func(m *Model) { m.Labels = append(m.Labels, 0) }},
		{"ragged point", func(m *Model) { m.Points[0] = m.Points[0][:7] }},
		{"invalid label", func(m *Model) { m.Labels[0] = 2 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := baseArtifact()
			tc.mutate(&m)
			if _, err := LoadModel(writeArtifact(t, m)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadModel_Valid(t *testing.T) {
	m, err := LoadModel(writeArtifact(t, baseArtifact()))
	if err != nil {
		t.Fatalf("expected valid artifact to load, got: %v", err)
	}
	if m.Version != "v1" || m.K != 1 {
		t.Errorf("unexpected model: %+v", m)
	}
}

func TestScore_InvalidInput(t *testing.T) {
	m, err := LoadModel(writeArtifact(t, baseArtifact()))
	if err != nil {
		t.Fatal(err)
	}

	var ierr *InvalidInputError

	if _, err := m.Score([]float64{1, 2, 3}); !errors.As(err, &ierr) {
		t.Errorf("expected InvalidInputError for short vector, got: %v", err)
	}

	vec := make([]float64, len(attrs.Names()))
	vec[3] = math.NaN()
	if _, err := m.Score(vec); !errors.As(err, &ierr) {
		t.Errorf("expected InvalidInputError for NaN, got: %v", err)
	}

	vec[3] = math.Inf(1)
	if _, err := m.Score(vec); !errors.As(err, &ierr) {
		t.Errorf("expected InvalidInputError for Inf, got: %v", err)
	}
}

func TestScore_NeighborVote(t *testing.T) {
	m := baseArtifact()
	n := len(m.Features)

	point := func(fill float64, label int) ([]float64, int) {
		p := make([]float64, n)
		for i := range p {
			p[i] = fill
		}
		return p, label
	}

	p0, l0 := point(0, 1)
	p1, l1 := point(0.1, 1)
	p2, l2 := point(10, 0)
	p3, l3 := point(11, 0)
	m.Points = [][]float64{p0, p1, p2, p3}
	m.Labels = []int{l0, l1, l2, l3}
	m.K = 2

	loaded, err := LoadModel(writeArtifact(t, m))
	if err != nil {
		t.Fatal(err)
	}

	// Query at origin: both nearest neighbors are CKD.
	prob, err := loaded.Score(make([]float64, n))
	if err != nil {
		t.Fatal(err)
	}
	if prob != 1.0 {
		t.Errorf("expected probability 1.0 near CKD cluster, got %f", prob)
	}

	// Query near the far cluster: both nearest neighbors are not CKD.
	far := make([]float64, n)
	for i := range far {
		far[i] = 10.5
	}
	prob, err = loaded.Score(far)
	if err != nil {
		t.Fatal(err)
	}
	if prob != 0.0 {
		t.Errorf("expected probability 0.0 near healthy cluster, got %f", prob)
	}
}

func TestScore_KLargerThanTrainingSet(t *testing.T) {
	m := baseArtifact()
	m.K = 100

	loaded, err := LoadModel(writeArtifact(t, m))
	if err != nil {
		t.Fatal(err)
	}

	prob, err := loaded.Score(make([]float64, len(m.Features)))
	if err != nil {
		t.Fatalf("expected k to be clamped to training size, got: %v", err)
	}
	if prob != 1.0 {
		t.Errorf("expected probability 1.0 with single CKD point, got %f", prob)
	}
}

func TestScore_Standardization(t *testing.T) {
	// With a large std on one feature, distance along it shrinks and the
	// nearer neighbor on the remaining features wins.
	m := baseArtifact()
	n := len(m.Features)

	ckd := make([]float64, n)
	ckd[0] = 1000 // far in raw units, near after scaling
	healthy := make([]float64, n)
	healthy[1] = 3

	m.Points = [][]float64{ckd, healthy}
	m.Labels = []int{1, 0}
	m.K = 1
	m.Stds[0] = 10000

	loaded, err := LoadModel(writeArtifact(t, m))
	if err != nil {
		t.Fatal(err)
	}

	prob, err := loaded.Score(make([]float64, n))
	if err != nil {
		t.Fatal(err)
	}
	if prob != 1.0 {
		t.Errorf("expected standardized distance to favor CKD point, got %f", prob)
	}
}
