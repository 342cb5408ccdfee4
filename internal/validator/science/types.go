package science

import (
	"soltab/internal/domain"
)

// Subject is everything a check may inspect about one table.
type Subject struct {
	Table            *domain.Table
	Assignments      []domain.ColumnTypeAssignment
	HeaderConfidence float64
	System           string
	Consensus        *domain.ConsensusResult
}

// Thresholds holds the tunable limits of the checks.
type Thresholds struct {
	MinHeaderConfidence   float64
	MinTypeConfidence     float64
	MassBalanceLow        float64
	MassBalanceHigh       float64
	MassBalanceMaxOutside float64
	MaxColumns            int
}

// DefaultThresholds returns the limits used for the data booklets.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinHeaderConfidence:   0.7,
		MinTypeConfidence:     0.5,
		MassBalanceLow:        95,
		MassBalanceHigh:       105,
		MassBalanceMaxOutside: 0.3,
		MaxColumns:            20,
	}
}

// sampleSize bounds the values inspected per column by the sampling checks.
const sampleSize = 20

// columnType returns the detected type and its confidence for column c.
func (s *Subject) columnType(c int) (domain.ColumnType, float64) {
	if c < len(s.Assignments) && s.Assignments[c].Index == c {
		return s.Assignments[c].DetectedType, s.Assignments[c].Confidence
	}
	for _, a := range s.Assignments {
		if a.Index == c {
			return a.DetectedType, a.Confidence
		}
	}
	return s.Table.Columns[c].Type, 1
}

// dataColumns returns the indices of the non-derived columns.
func (s *Subject) dataColumns() []int {
	var out []int
	for c, col := range s.Table.Columns {
		if !col.Derived {
			out = append(out, c)
		}
	}
	return out
}

// sample returns the first n non-null values of column c.
func (s *Subject) sample(c, n int) []domain.Value {
	var out []domain.Value
	for _, row := range s.Table.Rows {
		if row[c].IsNull() {
			continue
		}
		out = append(out, row[c])
		if len(out) == n {
			break
		}
	}
	return out
}

func flag(sev domain.Severity, kind, msg, rec string) domain.ValidationFlag {
	return domain.ValidationFlag{Severity: sev, Kind: kind, Message: msg, Recommendation: rec}
}

func columnFlag(sev domain.Severity, kind, column, msg, rec string) domain.ValidationFlag {
	f := flag(sev, kind, msg, rec)
	f.Column = column
	return f
}
