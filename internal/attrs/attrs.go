// Package attrs defines the medical attribute schema for CKD risk prediction.
// It declares the full set of input fields with their clinically plausible
// bounds and categorical encodings, validates raw form values against them,
// and encodes accepted submissions into the feature vector the model expects.
//
// Field declaration order is significant: the trained model consumes features
// in exactly this order.
package attrs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind distinguishes numeric lab values from categorical flags.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

// Field describes one input attribute: its identifier, display label,
// grouping for the form, and validation rule.
type Field struct {
	Name    string
	Label   string
	Group   string
	Kind    Kind
	Min     float64            // numeric bounds, inclusive
	Max     float64
	Options []string           // categorical options, display order
	Encode  map[string]float64 // categorical option -> model encoding
}

const (
	GroupDemographic = "Demographic Data"
	GroupLaboratory  = "Laboratory Results"
	GroupHistory     = "Medical History"
)

var (
	yesNoOpts = []string{"yes", "no"}
	yesNoEnc  = map[string]float64{"yes": 1, "no": 0}
)

// Fields lists every attribute the model expects, in model input order.
var Fields = []Field{
	{Name: "age", Label: "Age", Group: GroupDemographic, Kind: Numeric, Min: 0, Max: 120},
	{Name: "blood_pressure", Label: "Blood Pressure (mm Hg)", Group: GroupDemographic, Kind: Numeric, Min: 50, Max: 200},

	{Name: "specific_gravity", Label: "Specific Gravity", Group: GroupLaboratory, Kind: Numeric, Min: 1.005, Max: 1.025},
	{Name: "albumin", Label: "Albumin (g/dL)", Group: GroupLaboratory, Kind: Numeric, Min: 0, Max: 5},
	{Name: "sugar", Label: "Sugar Level", Group: GroupLaboratory, Kind: Numeric, Min: 0, Max: 5},
	{Name: "red_blood_cells", Label: "Red Blood Cells", Group: GroupLaboratory, Kind: Categorical,
		Options: []string{"normal", "abnormal"}, Encode: map[string]float64{"normal": 1, "abnormal": 0}},
	{Name: "pus_cell", Label: "Pus Cell", Group: GroupLaboratory, Kind: Categorical,
		Options: []string{"normal", "abnormal"}, Encode: map[string]float64{"normal": 1, "abnormal": 0}},
	{Name: "pus_cell_clumps", Label: "Pus Cell Clumps", Group: GroupLaboratory, Kind: Categorical,
		Options: []string{"present", "notpresent"}, Encode: map[string]float64{"present": 1, "notpresent": 0}},
	{Name: "bacteria", Label: "Bacteria", Group: GroupLaboratory, Kind: Categorical,
		Options: []string{"present", "notpresent"}, Encode: map[string]float64{"present": 1, "notpresent": 0}},
	{Name: "blood_glucose_random", Label: "Blood Glucose Random (mg/dL)", Group: GroupLaboratory, Kind: Numeric, Min: 70, Max: 400},
	{Name: "blood_urea", Label: "Blood Urea (mg/dL)", Group: GroupLaboratory, Kind: Numeric, Min: 10, Max: 200},
	{Name: "serum_creatinine", Label: "Serum Creatinine (mg/dL)", Group: GroupLaboratory, Kind: Numeric, Min: 0.4, Max: 15},
	{Name: "sodium", Label: "Sodium (mEq/L)", Group: GroupLaboratory, Kind: Numeric, Min: 100, Max: 150},
	{Name: "potassium", Label: "Potassium (mEq/L)", Group: GroupLaboratory, Kind: Numeric, Min: 2.5, Max: 7},
	{Name: "hemoglobin", Label: "Hemoglobin (g/dL)", Group: GroupLaboratory, Kind: Numeric, Min: 3.5, Max: 17.5},
	{Name: "packed_cell_volume", Label: "Packed Cell Volume (%)", Group: GroupLaboratory, Kind: Numeric, Min: 15, Max: 55},
	{Name: "white_blood_cell_count", Label: "White Blood Cell Count (/mm3)", Group: GroupLaboratory, Kind: Numeric, Min: 2000, Max: 30000},
	{Name: "red_blood_cell_count", Label: "Red Blood Cell Count (millions/mm3)", Group: GroupLaboratory, Kind: Numeric, Min: 2, Max: 8},

	{Name: "hypertension", Label: "Hypertension", Group: GroupHistory, Kind: Categorical, Options: yesNoOpts, Encode: yesNoEnc},
	{Name: "diabetes_mellitus", Label: "Diabetes Mellitus", Group: GroupHistory, Kind: Categorical, Options: yesNoOpts, Encode: yesNoEnc},
	{Name: "coronary_artery_disease", Label: "Coronary Artery Disease", Group: GroupHistory, Kind: Categorical, Options: yesNoOpts, Encode: yesNoEnc},
	{Name: "appetite", Label: "Appetite", Group: GroupHistory, Kind: Categorical,
		Options: []string{"good", "poor"}, Encode: map[string]float64{"good": 1, "poor": 0}},
	{Name: "pedal_edema", Label: "Pedal Edema", Group: GroupHistory, Kind: Categorical, Options: yesNoOpts, Encode: yesNoEnc},
	{Name: "anemia", Label: "Anemia", Group: GroupHistory, Kind: Categorical, Options: yesNoOpts, Encode: yesNoEnc},
}

var byName = func() map[string]*Field {
	m := make(map[string]*Field, len(Fields))
	for i := range Fields {
		m[Fields[i].Name] = &Fields[i]
	}
	return m
}()

// Lookup returns the field definition for name, or nil if unknown.
func Lookup(name string) *Field {
	return byName[name]
}

// Names returns all field names in model input order.
func Names() []string {
	names := make([]string, len(Fields))
	for i, f := range Fields {
		names[i] = f.Name
	}
	return names
}

// Groups returns the field groups in form display order.
func Groups() []string {
	return []string{GroupDemographic, GroupLaboratory, GroupHistory}
}

// ValidationError reports every field that failed validation in one pass,
// so the form can surface all problems at once.
type ValidationError struct {
	Fields map[string]string // field name -> user-facing message
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// PatientRecord holds one validated, encoded submission. It is created per
// submission and discarded after the prediction is rendered.
type PatientRecord struct {
	values map[string]float64
}

// Collect validates raw form values against the schema and returns the
// encoded record. Missing, non-numeric, out-of-range and unknown-option
// values are all rejected; the returned error is a *ValidationError carrying
// a message per failed field. Unknown field names are rejected as well so a
// malformed client cannot smuggle extra inputs past the form.
func Collect(values map[string]string) (PatientRecord, error) {
	problems := make(map[string]string)
	encoded := make(map[string]float64, len(Fields))

	for name := range values {
		if Lookup(name) == nil {
			problems[name] = "unknown field"
		}
	}

	for _, f := range Fields {
		raw, ok := values[f.Name]
		if !ok || strings.TrimSpace(raw) == "" {
			problems[f.Name] = fmt.Sprintf("please fill in %s", f.Label)
			continue
		}

		val, msg := f.validate(strings.TrimSpace(raw))
		if msg != "" {
			problems[f.Name] = msg
			continue
		}
		encoded[f.Name] = val
	}

	if len(problems) > 0 {
		return PatientRecord{}, &ValidationError{Fields: problems}
	}
	return PatientRecord{values: encoded}, nil
}

func (f *Field) validate(raw string) (float64, string) {
	if f.Kind == Categorical {
		v, ok := f.Encode[strings.ToLower(raw)]
		if !ok {
			return 0, fmt.Sprintf("%s should be one of: %s", f.Label, strings.Join(f.Options, ", "))
		}
		return v, ""
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Sprintf("%s should be a numeric value", f.Label)
	}
	if val < f.Min || val > f.Max {
		return 0, fmt.Sprintf("%s should be between %g and %g", f.Label, f.Min, f.Max)
	}
	return val, ""
}

// Vector encodes the record into the model's input order.
func (r PatientRecord) Vector() []float64 {
	vec := make([]float64, len(Fields))
	for i, f := range Fields {
		vec[i] = r.values[f.Name]
	}
	return vec
}

// Get returns the encoded value for a field name. The second return is false
// for names not present in the record.
func (r PatientRecord) Get(name string) (float64, bool) {
	v, ok := r.values[name]
	return v, ok
}
