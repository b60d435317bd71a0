package builtin

import (
	"fmt"

	"winsor/internal/bitmap"
	"winsor/internal/config"
	"winsor/pkg/table"
)

// Require drops every row that is missing a value in any of the listed
// columns. Run it before winsorize when group keys must be present.
type Require struct {
	Columns []string
}

// RequireFromConfig decodes a "require" options bag.
func RequireFromConfig(o config.Options) (*Require, error) {
	cols := o.StringSlice("columns")
	if len(cols) == 0 {
		return nil, fmt.Errorf("require: columns is required")
	}
	return &Require{Columns: cols}, nil
}

func (r *Require) Apply(t *table.Table) (*table.Table, error) {
	drop := bitmap.New(t.NumRows())
	for _, name := range r.Columns {
		col := t.Column(name)
		if col == nil {
			return nil, fmt.Errorf("require: column %q not found", name)
		}
		switch col.Kind {
		case table.Numeric:
			for i, v := range col.Floats {
				if table.IsMissing(v) {
					drop.Add(i)
				}
			}
		case table.String:
			for i, s := range col.Strings {
				if s == "" {
					drop.Add(i)
				}
			}
		}
	}
	if drop.Count() == 0 {
		return t, nil
	}
	return t.Clone().Drop(drop), nil
}
