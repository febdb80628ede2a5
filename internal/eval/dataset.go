package eval

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ckd-predictor/internal/attrs"

	"github.com/rs/zerolog/log"
)

// Sample is one labeled dataset row. Values are kept as raw strings so rows
// pass through the same validation path as live form submissions.
type Sample struct {
	Values map[string]string
	Label  int // 1 = CKD
}

// LoadDataset reads a labeled CSV file. The header must contain every
// attribute name plus a final "class" column; class values "ckd"/"1" count
// as positive and "notckd"/"0" as negative. Column order is free, rows with
// an unknown class value are rejected.
func LoadDataset(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	classIdx := -1
	colNames := make([]string, len(header))
	for i, col := range header {
		name := strings.TrimSpace(strings.ToLower(col))
		colNames[i] = name
		if name == "class" {
			classIdx = i
		}
	}
	if classIdx == -1 {
		return nil, fmt.Errorf("dataset has no class column")
	}

	seen := make(map[string]bool)
	for _, name := range colNames {
		seen[name] = true
	}
	for _, want := range attrs.Names() {
		if !seen[want] {
			return nil, fmt.Errorf("dataset is missing column %s", want)
		}
	}

	var samples []Sample
	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if errors.Is(err, csv.ErrFieldCount) {
			log.Warn().Int("line", line).Int("fields", len(row)).Msg("skipping dataset row with wrong field count")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: read dataset row: %w", line, err)
		}

		label, err := parseClass(row[classIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		values := make(map[string]string, len(header)-1)
		for i, v := range row {
			if i == classIdx {
				continue
			}
			if attrs.Lookup(colNames[i]) == nil {
				continue // ignore extra columns
			}
			values[colNames[i]] = strings.TrimSpace(v)
		}

		samples = append(samples, Sample{Values: values, Label: label})
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("dataset %s contains no rows", path)
	}
	return samples, nil
}

func parseClass(raw string) (int, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "ckd", "1":
		return 1, nil
	case "notckd", "0":
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown class value %q", raw)
	}
}
