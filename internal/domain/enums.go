package domain

// ColumnType is the semantic type detected for a column.
type ColumnType string

const (
	ColumnTemperature ColumnType = "temperature"
	ColumnMassPercent ColumnType = "mass_percent"
	ColumnMolePercent ColumnType = "mole_percent"
	ColumnMolality    ColumnType = "molality"
	ColumnPH          ColumnType = "ph"
	ColumnDensity     ColumnType = "density"
	ColumnPhase       ColumnType = "phase"
	ColumnPressure    ColumnType = "pressure"
	ColumnComposition ColumnType = "composition"
	ColumnNumeric     ColumnType = "numeric"
	ColumnText        ColumnType = "text"
)

// IsMeasurement reports whether the type carries physical quantities.
func (t ColumnType) IsMeasurement() bool {
	switch t {
	case ColumnPhase, ColumnText, ColumnComposition, "":
		return false
	}
	return true
}

// Unit returns the canonical unit of the column type, if any.
func (t ColumnType) Unit() string {
	switch t {
	case ColumnTemperature:
		return "°C"
	case ColumnMassPercent, ColumnMolePercent:
		return "%"
	case ColumnMolality:
		return "mol/kg"
	case ColumnDensity:
		return "g/cm³"
	case ColumnPressure:
		return "kPa"
	}
	return ""
}

// Severity ranks validation flags.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Priority is the review priority derived from a table's flags.
type Priority string

const (
	PriorityMustReview   Priority = "must_review"
	PriorityShouldReview Priority = "should_review"
	PriorityRecommended  Priority = "recommended"
	PriorityOptional     Priority = "optional"
	PriorityPassed       Priority = "passed"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityMustReview, PriorityShouldReview, PriorityRecommended, PriorityOptional, PriorityPassed:
		return true
	}
	return false
}

// HeaderMethod names the strategy that produced a table's column names.
type HeaderMethod string

const (
	HeaderMethodHeaderRow       HeaderMethod = "header_row"
	HeaderMethodTypePropagation HeaderMethod = "type_propagation"
	HeaderMethodDataPattern     HeaderMethod = "data_pattern"
	HeaderMethodFallback        HeaderMethod = "fallback"
)

// DiscrepancyType distinguishes shape from cell disagreements between methods.
type DiscrepancyType string

const (
	DiscrepancyShape DiscrepancyType = "shape_mismatch"
	DiscrepancyValue DiscrepancyType = "value_mismatch"
)

// SystemConfidence qualifies a chemical-system assignment.
type SystemConfidence string

const (
	SystemConfidenceHigh SystemConfidence = "high"
	SystemConfidenceLow  SystemConfidence = "low"
	SystemConfidenceNone SystemConfidence = "none"
)
