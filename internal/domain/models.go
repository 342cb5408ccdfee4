package domain

import (
	"time"

	"github.com/google/uuid"
)

// ColumnTypeAssignment records the inferred type and name of one column.
type ColumnTypeAssignment struct {
	Index            int        `json:"index"`
	OriginalName     string     `json:"original_name"`
	DetectedType     ColumnType `json:"detected_type"`
	Confidence       float64    `json:"confidence"`
	StandardizedName string     `json:"standardized_name"`
	Unit             string     `json:"unit,omitempty"`
	Derived          bool       `json:"derived,omitempty"`
}

// ValidationFlag is one finding of the scientific validator.
type ValidationFlag struct {
	Severity       Severity `json:"severity"`
	Kind           string   `json:"kind"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation,omitempty"`
	Column         string   `json:"column,omitempty"`
	Row            *int     `json:"row,omitempty"`
}

// Discrepancy is a disagreement between two extraction methods.
type Discrepancy struct {
	Type       DiscrepancyType `json:"type"`
	MethodA    string          `json:"method_a"`
	MethodB    string          `json:"method_b"`
	Row        int             `json:"row,omitempty"`
	Col        int             `json:"col,omitempty"`
	ValueA     string          `json:"value_a,omitempty"`
	ValueB     string          `json:"value_b,omitempty"`
	Similarity float64         `json:"similarity,omitempty"`
	ShapeA     [2]int          `json:"shape_a,omitempty"`
	ShapeB     [2]int          `json:"shape_b,omitempty"`
}

// PairAgreement is the agreement score of one pair of methods.
type PairAgreement struct {
	MethodA   string  `json:"method_a"`
	MethodB   string  `json:"method_b"`
	Agreement float64 `json:"agreement"`
}

// ConsensusResult is the outcome of reconciling several extractions of one table.
type ConsensusResult struct {
	Merged        *Grid             `json:"-"`
	Methods       []string          `json:"methods"`
	Pairs         []PairAgreement   `json:"pairs,omitempty"`
	Agreement     float64           `json:"agreement"`
	Discrepancies []Discrepancy     `json:"discrepancies,omitempty"`
	NeedsReview   bool              `json:"needs_review"`
	NoExtraction  bool              `json:"no_extraction,omitempty"`
	Failures      map[string]string `json:"failures,omitempty"`
}

// ChemicalSystem names the chemical system a table belongs to, e.g. "NaCl-KCl-H2O".
type ChemicalSystem struct {
	Name       string           `json:"name"`
	Confidence SystemConfidence `json:"confidence"`
	Page       int              `json:"page,omitempty"`
}

// TableRecord is everything known about one processed table.
type TableRecord struct {
	ID               uuid.UUID              `json:"id"`
	Provenance       Provenance             `json:"provenance"`
	System           ChemicalSystem         `json:"chemical_system"`
	HeaderMethod     HeaderMethod           `json:"header_method"`
	HeaderConfidence float64                `json:"header_confidence"`
	Assignments      []ColumnTypeAssignment `json:"assignments"`
	Table            *Table                 `json:"table"`
	Flags            []ValidationFlag       `json:"flags"`
	Score            int                    `json:"score"`
	Priority         Priority               `json:"priority"`
	NeedsReview      bool                   `json:"needs_review"`
	Consensus        *ConsensusResult       `json:"consensus,omitempty"`
	TableTypes       []ColumnType           `json:"table_types"`
	PhasesFound      []PhaseLabel           `json:"phases_found,omitempty"`
	ProcessedAt      time.Time              `json:"processed_at"`
}

// FlagCounts tallies flags by severity.
func (r *TableRecord) FlagCounts() (critical, warning, info int) {
	for _, f := range r.Flags {
		switch f.Severity {
		case SeverityCritical:
			critical++
		case SeverityWarning:
			warning++
		case SeverityInfo:
			info++
		}
	}
	return critical, warning, info
}

// MergedTable is a run of adjacent tables concatenated into one.
type MergedTable struct {
	ID         uuid.UUID    `json:"id"`
	Name       string       `json:"name"`
	System     string       `json:"chemical_system,omitempty"`
	TableRange string       `json:"table_range"`
	Sources    []Provenance `json:"sources"`
	TableTypes []ColumnType `json:"table_types"`
	Table      *Table       `json:"table"`
}

// IndexEntry summarizes one table in the master index.
type IndexEntry struct {
	RecordID    uuid.UUID    `json:"record_id"`
	Source      Provenance   `json:"source"`
	System      string       `json:"chemical_system,omitempty"`
	Rows        int          `json:"rows"`
	Columns     int          `json:"columns"`
	DataTypes   []ColumnType `json:"data_types"`
	Score       int          `json:"score"`
	Priority    Priority     `json:"priority"`
	NeedsReview bool         `json:"needs_review"`
}

// DocumentSummary aggregates the tables of one source document.
type DocumentSummary struct {
	Document string `json:"document"`
	Series   string `json:"series,omitempty"`
	Part     int    `json:"part,omitempty"`
	Tables   int    `json:"tables"`
	Rows     int    `json:"rows"`
}

// MasterIndex is the catalogue of a consolidated dataset.
type MasterIndex struct {
	GeneratedAt  time.Time         `json:"generated_at"`
	TotalTables  int               `json:"total_tables"`
	TotalRows    int               `json:"total_rows"`
	NeedsReview  int               `json:"needs_review"`
	Documents    []DocumentSummary `json:"documents"`
	Systems      []string          `json:"chemical_systems"`
	Entries      []IndexEntry      `json:"entries"`
	MergedTables int               `json:"merged_tables"`
}

// Dataset is the consolidated output of a pipeline run.
type Dataset struct {
	Tables []MergedTable `json:"tables"`
	Index  MasterIndex   `json:"index"`
}

// SearchFilters narrows a dataset search.
type SearchFilters struct {
	Query       string
	Document    string
	System      string
	DataType    ColumnType
	NeedsReview *bool
	Offset      int
	Limit       int
}

// SearchHit is one matching row of a merged or single table.
type SearchHit struct {
	RecordID   uuid.UUID      `json:"record_id" db:"record_id"`
	Provenance Provenance     `json:"provenance"`
	System     string         `json:"chemical_system,omitempty" db:"chemical_system"`
	RowIndex   int            `json:"row_index" db:"row_index"`
	Row        map[string]any `json:"row"`
}

// RecordFilters narrows a listing of table records.
type RecordFilters struct {
	Document    string
	System      string
	Priority    Priority
	NeedsReview *bool
	Offset      int
	Limit       int
}
