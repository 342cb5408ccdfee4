package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"soltab/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// reportColumns defines the quality report header row.
var reportColumns = []string{
	"Table",
	"Source Document",
	"Page",
	"Table Index",
	"Chemical System",
	"System Confidence",
	"Rows",
	"Columns",
	"Data Types",
	"Header Method",
	"Header Confidence",
	"Methods",
	"Agreement",
	"Quality Score",
	"Priority",
	"Needs Review",
	"Critical",
	"Warnings",
	"Info",
	"Issues",
	"Processed At",
}

// Writer wraps csv.Writer for exporting tables and quality reports as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteBOM writes the UTF-8 byte order mark. Call it before anything else.
func WriteBOM(w io.Writer) error {
	_, err := w.Write(BOM)
	return err
}

// WriteTable writes a typed table: the column names, then one line per row.
// Phase labels are written inline after the value, e.g. "26.4 (A)".
func (w *Writer) WriteTable(t *domain.Table) error {
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := w.csv.Write(header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		line := make([]string, len(t.Columns))
		for i := range line {
			if i < len(row) {
				line[i] = FormatValue(row[i])
			}
		}
		if err := w.csv.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// WriteReportHeader writes the quality report header row.
func (w *Writer) WriteReportHeader() error {
	return w.csv.Write(reportColumns)
}

// WriteRecords writes one quality report line per table record.
func (w *Writer) WriteRecords(records []*domain.TableRecord) error {
	for _, r := range records {
		if r == nil {
			continue
		}
		if err := w.csv.Write(recordToRow(r)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// FormatValue renders a value for export. A phase is appended in
// parentheses and a reference marker in brackets, e.g. "26.4 (A) [Ref3]".
func FormatValue(v domain.Value) string {
	s := v.String()
	if v.HasPhase() && v.Kind != domain.KindText {
		if s == "" {
			s = string(v.Phase)
		} else {
			s = fmt.Sprintf("%s (%s)", s, v.Phase)
		}
	}
	if v.Reference != "" {
		if s == "" {
			return "[" + v.Reference + "]"
		}
		s = fmt.Sprintf("%s [%s]", s, v.Reference)
	}
	return s
}

func recordToRow(r *domain.TableRecord) []string {
	row := make([]string, len(reportColumns))
	row[0] = r.Provenance.TableName()
	row[1] = r.Provenance.SourceDocument
	row[2] = formatPage(r.Provenance.Page)
	row[3] = strconv.Itoa(r.Provenance.TableIndex)
	row[4] = r.System.Name
	row[5] = string(r.System.Confidence)
	if r.Table != nil {
		row[6] = strconv.Itoa(r.Table.NumRows())
		row[7] = strconv.Itoa(r.Table.NumCols())
	} else {
		row[6], row[7] = "0", "0"
	}
	types := make([]string, len(r.TableTypes))
	for i, t := range r.TableTypes {
		types[i] = string(t)
	}
	row[8] = strings.Join(types, ";")
	row[9] = string(r.HeaderMethod)
	row[10] = formatRatio(r.HeaderConfidence)
	if r.Consensus != nil {
		row[11] = strings.Join(r.Consensus.Methods, ";")
		row[12] = formatRatio(r.Consensus.Agreement)
	}
	row[13] = strconv.Itoa(r.Score)
	row[14] = string(r.Priority)
	row[15] = formatBool(r.NeedsReview)
	c, wn, i := r.FlagCounts()
	row[16] = strconv.Itoa(c)
	row[17] = strconv.Itoa(wn)
	row[18] = strconv.Itoa(i)
	row[19] = issueList(r.Flags)
	row[20] = formatTime(r.ProcessedAt)
	return row
}

// issueList joins distinct flag kinds in first-seen order.
func issueList(flags []domain.ValidationFlag) string {
	seen := map[string]bool{}
	var kinds []string
	for _, f := range flags {
		if !seen[f.Kind] {
			seen[f.Kind] = true
			kinds = append(kinds, f.Kind)
		}
	}
	return strings.Join(kinds, ";")
}

func formatPage(p int) string {
	if p <= 0 {
		return ""
	}
	return strconv.Itoa(p)
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in file names and Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized, dated download name.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), now.Format("2006-01-02"), ext)
}
