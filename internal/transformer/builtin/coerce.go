// Package builtin contains the reusable cleaning steps shipped with the
// pipeline: type coercion, row filtering, de-duplication, string
// normalization, and the winsorize step itself.
package builtin

import (
	"fmt"
	"strconv"

	"winsor/internal/config"
	"winsor/pkg/table"
)

// Coerce converts string columns to numeric ones. The parser infers a
// numeric column only when every non-missing cell parses; Coerce is the
// explicit override for columns that carry stray junk ("N/A ", "1 200",
// a unit suffix) but are known to be numeric.
type Coerce struct {
	// Columns to convert. A column that is already numeric passes through.
	Columns []string

	// Strict makes an unparseable cell a hard error. When false the cell
	// becomes missing.
	Strict bool
}

// CoerceFromConfig decodes a "coerce" options bag.
func CoerceFromConfig(o config.Options) (*Coerce, error) {
	cols := o.StringSlice("columns")
	if len(cols) == 0 {
		return nil, fmt.Errorf("coerce: columns is required")
	}
	return &Coerce{Columns: cols, Strict: o.Bool("strict", false)}, nil
}

func (c *Coerce) Apply(t *table.Table) (*table.Table, error) {
	out := t.Clone()
	for _, name := range c.Columns {
		col := out.Column(name)
		if col == nil {
			return nil, fmt.Errorf("coerce: column %q not found", name)
		}
		if col.Kind == table.Numeric {
			continue
		}
		vals := make([]float64, len(col.Strings))
		for i, s := range col.Strings {
			if s == "" {
				vals[i] = table.Missing()
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				if c.Strict {
					return nil, fmt.Errorf("coerce: column %q row %d: %q is not numeric", name, i, s)
				}
				vals[i] = table.Missing()
				continue
			}
			vals[i] = f
		}
		if err := out.ConvertNumeric(name, vals); err != nil {
			return nil, fmt.Errorf("coerce: %w", err)
		}
	}
	return out, nil
}
