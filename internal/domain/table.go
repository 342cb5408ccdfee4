package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindNumber
	KindText
)

// PhaseLabel is a solid-phase annotation such as "A", "II" or "A+B".
// The empty label means no phase.
type PhaseLabel string

// Value is a typed cell: null, a number or text. It may carry a phase label
// and a reference marker recovered from the raw cell.
type Value struct {
	Kind      ValueKind  `json:"-"`
	Number    float64    `json:"-"`
	Text      string     `json:"-"`
	Raw       string     `json:"-"`
	Phase     PhaseLabel `json:"-"`
	Reference string     `json:"-"`
}

func Null() Value { return Value{Kind: KindNull} }

func Number(f float64, raw string) Value { return Value{Kind: KindNumber, Number: f, Raw: raw} }

func Text(s string) Value { return Value{Kind: KindText, Text: s, Raw: s} }

func (v Value) IsNull() bool   { return v.Kind == KindNull }
func (v Value) IsNumber() bool { return v.Kind == KindNumber }
func (v Value) HasPhase() bool { return v.Phase != "" }

// String renders the value the way exports print it.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

// annotatedValue is the JSON form of a value carrying a phase or reference.
type annotatedValue struct {
	Value     json.RawMessage `json:"value"`
	Phase     PhaseLabel      `json:"phase,omitempty"`
	Reference string          `json:"ref,omitempty"`
}

// MarshalJSON emits null, a JSON number or a JSON string. A value with a
// phase or reference is wrapped as {"value":...,"phase":...,"ref":...}.
func (v Value) MarshalJSON() ([]byte, error) {
	plain, err := v.marshalPlain()
	if err != nil || (v.Phase == "" && v.Reference == "") {
		return plain, err
	}
	return json.Marshal(annotatedValue{Value: plain, Phase: v.Phase, Reference: v.Reference})
}

func (v Value) marshalPlain() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return []byte(strconv.FormatFloat(v.Number, 'g', -1, 64)), nil
	case KindText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a number, a string or the annotated object form.
func (v *Value) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var a annotatedValue
		if err := json.Unmarshal(trimmed, &a); err != nil {
			return err
		}
		inner := Null()
		if len(a.Value) > 0 {
			if err := inner.unmarshalPlain(a.Value); err != nil {
				return err
			}
		}
		inner.Phase = a.Phase
		inner.Reference = a.Reference
		*v = inner
		return nil
	}
	return v.unmarshalPlain(trimmed)
}

func (v *Value) unmarshalPlain(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Null()
	case float64:
		*v = Number(t, strconv.FormatFloat(t, 'f', -1, 64))
	case string:
		*v = Text(t)
	default:
		*v = Text(string(b))
	}
	return nil
}

// Column describes one column of a typed Table.
type Column struct {
	Name    string     `json:"name"`
	Type    ColumnType `json:"type"`
	Unit    string     `json:"unit,omitempty"`
	Derived bool       `json:"derived,omitempty"`
}

// Table is the typed form of a grid after header inference.
type Table struct {
	Provenance Provenance `json:"provenance"`
	Columns    []Column   `json:"columns"`
	Rows       [][]Value  `json:"rows"`
}

func (t *Table) NumRows() int { return len(t.Rows) }
func (t *Table) NumCols() int { return len(t.Columns) }

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnValues returns the values of column c in row order.
func (t *Table) ColumnValues(c int) []Value {
	out := make([]Value, len(t.Rows))
	for r := range t.Rows {
		out[r] = t.Rows[r][c]
	}
	return out
}

// Numbers returns the numeric values of column c, skipping everything else.
func (t *Table) Numbers(c int) []float64 {
	var out []float64
	for r := range t.Rows {
		if v := t.Rows[r][c]; v.IsNumber() {
			out = append(out, v.Number)
		}
	}
	return out
}
