// Package table defines the in-memory, column-oriented table the pipeline
// operates on. A Table is an ordered collection of named columns sharing one
// row count; numeric columns store float64 cells with NaN marking a missing
// value, string columns carry identifiers and group keys.
//
// Tables are cheap, ephemeral values: transforms clone and return new tables
// rather than mutating their input.
package table

import (
	"fmt"
	"math"

	"winsor/internal/bitmap"
)

// Kind discriminates the cell storage of a Column.
type Kind int

const (
	// Numeric columns store float64 cells; NaN marks a missing value.
	Numeric Kind = iota
	// String columns store raw string cells; "" marks a missing value.
	String
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case String:
		return "string"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Missing is the canonical missing marker for numeric cells.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether a numeric cell holds the missing marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Column is a single named column. Exactly one of Floats/Strings is
// populated, according to Kind.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
}

// Len returns the column's row count.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// CellString renders the cell at row i as a string, with "" for missing
// numeric cells. Used for group keys and sink output.
func (c *Column) CellString(i int) string {
	if c.Kind == String {
		return c.Strings[i]
	}
	v := c.Floats[i]
	if IsMissing(v) {
		return ""
	}
	return fmt.Sprintf("%g", v)
}

// Table is an ordered set of equal-length columns plus optional per-column
// labels (human-readable descriptions attached by transforms).
type Table struct {
	cols   []Column
	index  map[string]int
	labels map[string]string
}

// New returns an empty table with no columns and no rows.
func New() *Table {
	return &Table{index: map[string]int{}}
}

// NumRows returns the shared row count (0 for a table with no columns).
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in insertion order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i := range t.cols {
		out[i] = t.cols[i].Name
	}
	return out
}

// Has reports whether a column with the given name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column, or nil when absent. The returned pointer
// aliases the table's storage; callers that received the table from elsewhere
// must treat it as read-only.
func (t *Table) Column(name string) *Column {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return &t.cols[i]
}

// AddNumeric appends a numeric column. The slice is adopted, not copied.
// Fails when the name is taken or the length disagrees with the table.
func (t *Table) AddNumeric(name string, vals []float64) error {
	if err := t.check(name, len(vals)); err != nil {
		return err
	}
	t.cols = append(t.cols, Column{Name: name, Kind: Numeric, Floats: vals})
	t.index[name] = len(t.cols) - 1
	return nil
}

// AddString appends a string column. The slice is adopted, not copied.
func (t *Table) AddString(name string, vals []string) error {
	if err := t.check(name, len(vals)); err != nil {
		return err
	}
	t.cols = append(t.cols, Column{Name: name, Kind: String, Strings: vals})
	t.index[name] = len(t.cols) - 1
	return nil
}

func (t *Table) check(name string, n int) error {
	if name == "" {
		return fmt.Errorf("table: column name must not be empty")
	}
	if _, ok := t.index[name]; ok {
		return fmt.Errorf("table: column %q already exists", name)
	}
	if len(t.cols) > 0 && n != t.NumRows() {
		return fmt.Errorf("table: column %q has %d rows, table has %d", name, n, t.NumRows())
	}
	return nil
}

// ReplaceNumeric swaps the cell storage of an existing numeric column.
func (t *Table) ReplaceNumeric(name string, vals []float64) error {
	i, ok := t.index[name]
	if !ok {
		return fmt.Errorf("table: column %q not found", name)
	}
	c := &t.cols[i]
	if c.Kind != Numeric {
		return fmt.Errorf("table: column %q is %s, not numeric", name, c.Kind)
	}
	if len(vals) != t.NumRows() {
		return fmt.Errorf("table: column %q has %d rows, table has %d", name, len(vals), t.NumRows())
	}
	c.Floats = vals
	return nil
}

// ConvertNumeric replaces an existing column with numeric storage, changing
// its kind if it was a string column. Used by the coerce step.
func (t *Table) ConvertNumeric(name string, vals []float64) error {
	i, ok := t.index[name]
	if !ok {
		return fmt.Errorf("table: column %q not found", name)
	}
	if len(vals) != t.NumRows() {
		return fmt.Errorf("table: column %q has %d rows, table has %d", name, len(vals), t.NumRows())
	}
	c := &t.cols[i]
	c.Kind = Numeric
	c.Floats = vals
	c.Strings = nil
	return nil
}

// SetLabel attaches a human-readable label to a column name.
func (t *Table) SetLabel(name, label string) {
	if t.labels == nil {
		t.labels = map[string]string{}
	}
	t.labels[name] = label
}

// Label returns the label for a column name, or "".
func (t *Table) Label(name string) string { return t.labels[name] }

// Clone returns a deep copy: cell storage and labels are duplicated, so
// mutations of the clone never leak into the source.
func (t *Table) Clone() *Table {
	out := New()
	for i := range t.cols {
		c := t.cols[i]
		switch c.Kind {
		case Numeric:
			vals := make([]float64, len(c.Floats))
			copy(vals, c.Floats)
			out.cols = append(out.cols, Column{Name: c.Name, Kind: Numeric, Floats: vals})
		case String:
			vals := make([]string, len(c.Strings))
			copy(vals, c.Strings)
			out.cols = append(out.cols, Column{Name: c.Name, Kind: String, Strings: vals})
		}
		out.index[c.Name] = i
	}
	for k, v := range t.labels {
		out.SetLabel(k, v)
	}
	return out
}

// Drop removes rows whose index is set in mask, preserving the relative
// order of the survivors. Rows outside the mask's capacity are kept.
func (t *Table) Drop(mask *bitmap.Bitmap) *Table {
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		if !mask.Has(i) {
			keep = append(keep, i)
		}
	}
	out := New()
	for ci := range t.cols {
		c := t.cols[ci]
		switch c.Kind {
		case Numeric:
			vals := make([]float64, len(keep))
			for j, i := range keep {
				vals[j] = c.Floats[i]
			}
			out.cols = append(out.cols, Column{Name: c.Name, Kind: Numeric, Floats: vals})
		case String:
			vals := make([]string, len(keep))
			for j, i := range keep {
				vals[j] = c.Strings[i]
			}
			out.cols = append(out.cols, Column{Name: c.Name, Kind: String, Strings: vals})
		}
		out.index[c.Name] = ci
	}
	for k, v := range t.labels {
		out.SetLabel(k, v)
	}
	return out
}

// Row materializes row i across the named columns, in order, as sink-ready
// values: string cells as string, numeric cells as float64, missing as nil.
func (t *Table) Row(i int, names []string) ([]any, error) {
	out := make([]any, len(names))
	for j, name := range names {
		c := t.Column(name)
		if c == nil {
			return nil, fmt.Errorf("table: column %q not found", name)
		}
		if c.Kind == String {
			out[j] = c.Strings[i]
			continue
		}
		v := c.Floats[i]
		if IsMissing(v) {
			out[j] = nil
		} else {
			out[j] = v
		}
	}
	return out, nil
}
