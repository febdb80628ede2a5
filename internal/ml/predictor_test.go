package ml

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestPredictor_KNNScore(t *testing.T) {
	record := mustCollect(t, testValues())
	path := writeTestArtifact(t, record.Vector())

	metrics := &MockMetrics{}
	predictor, err := New(path, 0.5, false, metrics)
	if err != nil {
		t.Fatalf("expected model to load, got: %v", err)
	}
	if !predictor.Available() {
		t.Fatal("expected trained model to be available")
	}

	score, err := predictor.Predict(record)
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}

	// 3 nearest neighbors: two exact matches labeled CKD, one far point not.
	want := 2.0 / 3.0
	if math.Abs(score.Probability-want) > 1e-9 {
		t.Errorf("expected probability %f, got %f", want, score.Probability)
	}
	if score.Label != LabelHighRisk {
		t.Errorf("expected %q at probability %f, got %q", LabelHighRisk, score.Probability, score.Label)
	}
	if score.Fallback {
		t.Error("expected trained model prediction, not fallback")
	}
	if metrics.Predictions() != 1 {
		t.Errorf("expected 1 prediction counted, got %d", metrics.Predictions())
	}
	if metrics.FallbackUse() != 0 {
		t.Errorf("expected no fallback use, got %d", metrics.FallbackUse())
	}
}

func TestPredictor_Deterministic(t *testing.T) {
	record := mustCollect(t, testValues())
	path := writeTestArtifact(t, record.Vector())

	predictor, err := New(path, 0.5, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	first, err := predictor.Predict(record)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		again, err := predictor.Predict(mustCollect(t, testValues()))
		if err != nil {
			t.Fatal(err)
		}
		if again.Probability != first.Probability || again.Label != first.Label {
			t.Fatalf("run %d: expected identical score %+v, got %+v", i, first, again)
		}
	}
}

func TestPredictor_ProbabilityInRange(t *testing.T) {
	record := mustCollect(t, testValues())
	path := writeTestArtifact(t, record.Vector())

	predictor, err := New(path, 0.5, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	variants := []map[string]string{testValues()}

	low := testValues()
	low["serum_creatinine"] = "0.5"
	low["hemoglobin"] = "17"
	low["hypertension"] = "no"
	low["diabetes_mellitus"] = "no"
	variants = append(variants, low)

	high := testValues()
	high["serum_creatinine"] = "14"
	high["hemoglobin"] = "4"
	high["pedal_edema"] = "yes"
	high["anemia"] = "yes"
	variants = append(variants, high)

	for i, values := range variants {
		score, err := predictor.Predict(mustCollect(t, values))
		if err != nil {
			t.Fatalf("variant %d: %v", i, err)
		}
		if score.Probability < 0 || score.Probability > 1 {
			t.Errorf("variant %d: probability %f out of [0,1]", i, score.Probability)
		}
	}
}

func TestPredictor_FallbackWhenModelMissing(t *testing.T) {
	metrics := &MockMetrics{}
	predictor, err := New("nonexistent_model.json", 0.5, true, metrics)
	if err != nil {
		t.Fatalf("expected no error with fallback enabled, got: %v", err)
	}
	if predictor.Available() {
		t.Error("expected predictor to report no trained model")
	}
	if predictor.ModelVersion() != "fallback" {
		t.Errorf("expected fallback version, got %s", predictor.ModelVersion())
	}

	score, err := predictor.Predict(mustCollect(t, testValues()))
	if err != nil {
		t.Fatalf("fallback predict failed: %v", err)
	}
	if score.Probability < 0 || score.Probability > 1 {
		t.Errorf("fallback probability %f out of [0,1]", score.Probability)
	}
	if !score.Fallback {
		t.Error("expected fallback flag set")
	}
	if metrics.FallbackUse() != 1 {
		t.Errorf("expected fallback use counted, got %d", metrics.FallbackUse())
	}
}

func TestPredictor_FatalWithoutFallback(t *testing.T) {
	_, err := New("nonexistent_model.json", 0.5, false, nil)
	if err == nil {
		t.Fatal("expected error when model is missing and fallback disabled")
	}
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got: %v", err)
	}
}

func TestPredictor_CorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_knn.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := New(path, 0.5, false, nil); err == nil {
		t.Fatal("expected error for corrupt artifact without fallback")
	}

	predictor, err := New(path, 0.5, true, nil)
	if err != nil {
		t.Fatalf("expected corrupt artifact to be tolerated with fallback, got: %v", err)
	}
	if predictor.Available() {
		t.Error("expected no trained model after corrupt load")
	}
}

func TestPredictor_ThresholdLabeling(t *testing.T) {
	record := mustCollect(t, testValues())
	path := writeTestArtifact(t, record.Vector())

	// Score is 2/3; a threshold above it flips the label.
	predictor, err := New(path, 0.9, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	score, err := predictor.Predict(record)
	if err != nil {
		t.Fatal(err)
	}
	if score.Label != LabelLowRisk {
		t.Errorf("expected %q under threshold 0.9, got %q", LabelLowRisk, score.Label)
	}
}

func TestPredictor_NilSafety(t *testing.T) {
	var predictor *Predictor

	if _, err := predictor.Predict(mustCollect(t, testValues())); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable from nil predictor, got: %v", err)
	}
	if predictor.Available() {
		t.Error("expected nil predictor to be unavailable")
	}
	if predictor.ModelVersion() != "fallback" {
		t.Errorf("expected fallback version from nil predictor, got %s", predictor.ModelVersion())
	}
}

func TestPredictor_ModelInfo(t *testing.T) {
	record := mustCollect(t, testValues())
	path := writeTestArtifact(t, record.Vector())

	predictor, err := New(path, 0.5, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	info := predictor.ModelInfo()
	if info.Version != "test-1" {
		t.Errorf("expected version test-1, got %s", info.Version)
	}
	if !info.Available || info.Fallback {
		t.Errorf("unexpected availability flags: %+v", info)
	}
	if info.K != 3 || info.TrainingSamples != 4 {
		t.Errorf("unexpected model shape: k=%d samples=%d", info.K, info.TrainingSamples)
	}
	if len(info.Features) != 24 {
		t.Errorf("expected 24 features, got %d", len(info.Features))
	}
}
