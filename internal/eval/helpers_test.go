package eval

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"ckd-predictor/internal/attrs"
)

// healthyValues is a complete submission with unremarkable indicators.
func healthyValues() map[string]string {
	return map[string]string{
		"age":                     "35",
		"blood_pressure":          "70",
		"specific_gravity":        "1.025",
		"albumin":                 "0",
		"sugar":                   "0",
		"red_blood_cells":         "normal",
		"pus_cell":                "normal",
		"pus_cell_clumps":         "notpresent",
		"bacteria":                "notpresent",
		"blood_glucose_random":    "100",
		"blood_urea":              "25",
		"serum_creatinine":        "0.9",
		"sodium":                  "140",
		"potassium":               "4.5",
		"hemoglobin":              "16",
		"packed_cell_volume":      "48",
		"white_blood_cell_count":  "7000",
		"red_blood_cell_count":    "5.5",
		"hypertension":            "no",
		"diabetes_mellitus":       "no",
		"coronary_artery_disease": "no",
		"appetite":                "good",
		"pedal_edema":             "no",
		"anemia":                  "no",
	}
}

// sickValues is a complete submission with strongly abnormal indicators.
func sickValues() map[string]string {
	values := healthyValues()
	values["age"] = "65"
	values["blood_pressure"] = "100"
	values["specific_gravity"] = "1.010"
	values["albumin"] = "4"
	values["sugar"] = "3"
	values["red_blood_cells"] = "abnormal"
	values["blood_glucose_random"] = "280"
	values["blood_urea"] = "150"
	values["serum_creatinine"] = "9"
	values["hemoglobin"] = "7"
	values["packed_cell_volume"] = "25"
	values["hypertension"] = "yes"
	values["diabetes_mellitus"] = "yes"
	values["pedal_edema"] = "yes"
	values["anemia"] = "yes"
	return values
}

func mustVector(t *testing.T, values map[string]string) []float64 {
	t.Helper()
	record, err := attrs.Collect(values)
	if err != nil {
		t.Fatalf("test values failed validation: %v", err)
	}
	return record.Vector()
}

// writeDatasetCSV writes rows in attribute order with a trailing class column.
func writeDatasetCSV(t *testing.T, rows []map[string]string, classes []string) string {
	t.Helper()

	names := attrs.Names()
	header := append(append([]string{}, names...), "class")

	path := filepath.Join(t.TempDir(), "dataset.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatal(err)
	}
	for i, row := range rows {
		record := make([]string, 0, len(header))
		for _, name := range names {
			record = append(record, row[name])
		}
		record = append(record, classes[i])
		if err := w.Write(record); err != nil {
			t.Fatal(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatal(err)
	}
	return path
}
