package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Reporter writes evaluation results in human- and machine-readable formats.
type Reporter struct {
	results    *Results
	outputPath string
}

// NewReporter creates a reporter for the given results.
func NewReporter(results *Results, outputPath string) *Reporter {
	return &Reporter{results: results, outputPath: outputPath}
}

// GenerateReport writes all report formats to the output directory.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}
	return r.generateJSONReport()
}

func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, "eval_summary.txt")
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	res := r.results

	fmt.Fprintf(file, "MODEL EVALUATION SUMMARY\n")
	fmt.Fprintf(file, "========================\n\n")

	fmt.Fprintf(file, "Model Version: %s\n", res.ModelVersion)
	fmt.Fprintf(file, "Risk Threshold: %.2f\n", res.Threshold)
	fmt.Fprintf(file, "Run Time: %s to %s\n\n",
		res.StartTime.Format("2006-01-02 15:04:05"),
		res.EndTime.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(file, "Samples: %d total, %d scored, %d skipped by validation\n\n",
		res.Total, res.Scored(), res.Skipped)

	fmt.Fprintf(file, "Confusion Matrix\n")
	fmt.Fprintf(file, "                 Predicted CKD   Predicted Not CKD\n")
	fmt.Fprintf(file, "Actual CKD       %13d   %17d\n", res.TruePositives, res.FalseNegatives)
	fmt.Fprintf(file, "Actual Not CKD   %13d   %17d\n\n", res.FalsePositives, res.TrueNegatives)

	fmt.Fprintf(file, "Accuracy:  %.4f\n", res.Accuracy())
	fmt.Fprintf(file, "Precision: %.4f\n", res.Precision())
	fmt.Fprintf(file, "Recall:    %.4f\n", res.Recall())
	fmt.Fprintf(file, "F1 Score:  %.4f\n", res.F1())

	return nil
}

func (r *Reporter) generateJSONReport() error {
	report := struct {
		*Results
		Accuracy  float64 `json:"accuracy"`
		Precision float64 `json:"precision"`
		Recall    float64 `json:"recall"`
		F1        float64 `json:"f1"`
	}{
		Results:   r.results,
		Accuracy:  r.results.Accuracy(),
		Precision: r.results.Precision(),
		Recall:    r.results.Recall(),
		F1:        r.results.F1(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	reportPath := filepath.Join(r.outputPath, "eval_report.json")
	if err := os.WriteFile(reportPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}
