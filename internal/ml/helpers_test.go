package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"ckd-predictor/internal/attrs"
)

// writeTestArtifact builds a small valid KNN artifact around the given base
// vector: two training points on the vector labeled CKD and two shifted away
// labeled not-CKD. With k=3 a query equal to base scores 2/3.
func writeTestArtifact(t *testing.T, base []float64) string {
	t.Helper()

	n := len(attrs.Names())
	means := make([]float64, n)
	stds := make([]float64, n)
	for i := range stds {
		stds[i] = 1
	}

	near := make([]float64, n)
	copy(near, base)

	far := make([]float64, n)
	copy(far, base)
	for i := range far {
		far[i] += 50
	}
	far2 := make([]float64, n)
	copy(far2, far)
	far2[0]++

	m := Model{
		Version:  "test-1",
		Features: attrs.Names(),
		K:        3,
		Means:    means,
		Stds:     stds,
		Points:   [][]float64{near, near, far, far2},
		Labels:   []int{1, 1, 0, 0},
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "model_knn.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// testValues returns a complete, valid form submission.
func testValues() map[string]string {
	return map[string]string{
		"age":                     "48",
		"blood_pressure":          "80",
		"specific_gravity":        "1.020",
		"albumin":                 "1",
		"sugar":                   "0",
		"red_blood_cells":         "normal",
		"pus_cell":                "normal",
		"pus_cell_clumps":         "notpresent",
		"bacteria":                "notpresent",
		"blood_glucose_random":    "121",
		"blood_urea":              "36",
		"serum_creatinine":        "1.2",
		"sodium":                  "137",
		"potassium":               "4.6",
		"hemoglobin":              "15.4",
		"packed_cell_volume":      "44",
		"white_blood_cell_count":  "7800",
		"red_blood_cell_count":    "5.2",
		"hypertension":            "yes",
		"diabetes_mellitus":       "yes",
		"coronary_artery_disease": "no",
		"appetite":                "good",
		"pedal_edema":             "no",
		"anemia":                  "no",
	}
}

func mustCollect(t *testing.T, values map[string]string) attrs.PatientRecord {
	t.Helper()
	record, err := attrs.Collect(values)
	if err != nil {
		t.Fatalf("test submission failed validation: %v", err)
	}
	return record
}
