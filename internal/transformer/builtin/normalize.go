package builtin

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"winsor/internal/config"
	"winsor/pkg/table"
)

// Normalize canonicalizes string columns: Unicode NFC composition, no-break
// spaces to plain spaces, and whitespace trim. Run it before dedup or
// grouping so that byte-different spellings of the same key collapse.
type Normalize struct {
	// Columns restricts the step to the named string columns. Empty means
	// every string column.
	Columns []string
}

// NormalizeFromConfig decodes a "normalize" options bag.
func NormalizeFromConfig(o config.Options) (*Normalize, error) {
	return &Normalize{Columns: o.StringSlice("columns")}, nil
}

func (n *Normalize) Apply(t *table.Table) (*table.Table, error) {
	names := n.Columns
	if len(names) == 0 {
		for _, name := range t.Names() {
			if t.Column(name).Kind == table.String {
				names = append(names, name)
			}
		}
	}

	out := t.Clone()
	for _, name := range names {
		col := out.Column(name)
		if col == nil || col.Kind != table.String {
			continue
		}
		for i, s := range col.Strings {
			col.Strings[i] = normalizeCell(s)
		}
	}
	return out, nil
}

func normalizeCell(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = norm.NFC.String(s)
	return strings.TrimSpace(s)
}
