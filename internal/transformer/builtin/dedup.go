package builtin

import (
	"fmt"
	"strings"

	"winsor/internal/bitmap"
	"winsor/internal/config"
	"winsor/pkg/table"
)

// DeDup collapses duplicate rows by a configured key and chooses a winner
// according to a policy:
//
//   - "keep-first"   : keep the earliest occurrence (default)
//   - "keep-last"    : keep the latest occurrence
//   - "most-complete": keep the row with the most non-missing cells;
//     ties break by keep-last
//
// Rows whose key columns are all missing pass through untouched. Survey
// extracts often carry repeated observations; running DeDup before
// winsorize keeps duplicated outliers from dragging the cutoffs.
type DeDup struct {
	// Keys are the columns that form the business key.
	Keys []string

	// Policy selects the winner among duplicates.
	Policy string
}

// DeDupFromConfig decodes a "dedup" options bag.
func DeDupFromConfig(o config.Options) (*DeDup, error) {
	keys := o.StringSlice("keys")
	if len(keys) == 0 {
		return nil, fmt.Errorf("dedup: keys is required")
	}
	policy := strings.ToLower(strings.TrimSpace(o.String("policy", "keep-first")))
	switch policy {
	case "keep-first", "keep-last", "most-complete":
	default:
		return nil, fmt.Errorf("dedup: unknown policy %q", policy)
	}
	return &DeDup{Keys: keys, Policy: policy}, nil
}

func (d *DeDup) Apply(t *table.Table) (*table.Table, error) {
	for _, k := range d.Keys {
		if t.Column(k) == nil {
			return nil, fmt.Errorf("dedup: column %q not found", k)
		}
	}

	type slot struct {
		index int
		score int
	}
	winners := map[string]slot{}
	losers := bitmap.New(t.NumRows())

	for i := 0; i < t.NumRows(); i++ {
		key, ok := d.keyOf(t, i)
		if !ok {
			continue
		}
		cur := slot{index: i}
		if d.Policy == "most-complete" {
			cur.score = completeness(t, i)
		}
		prev, exists := winners[key]
		if !exists {
			winners[key] = cur
			continue
		}
		switch d.Policy {
		case "keep-first":
			losers.Add(i)
		case "keep-last":
			losers.Add(prev.index)
			winners[key] = cur
		case "most-complete":
			if cur.score >= prev.score {
				losers.Add(prev.index)
				winners[key] = cur
			} else {
				losers.Add(i)
			}
		}
	}

	if losers.Count() == 0 {
		return t, nil
	}
	return t.Clone().Drop(losers), nil
}

// keyOf builds the composite key for row i. ok is false when every key cell
// is missing; such rows stay out of the de-dup domain.
func (d *DeDup) keyOf(t *table.Table, i int) (string, bool) {
	var b strings.Builder
	anyPresent := false
	for _, k := range d.Keys {
		if b.Len() > 0 {
			b.WriteByte('\x1f')
		}
		cell := t.Column(k).CellString(i)
		if cell != "" {
			anyPresent = true
		}
		b.WriteString(cell)
	}
	return b.String(), anyPresent
}

// completeness counts non-missing cells across the whole row.
func completeness(t *table.Table, i int) int {
	n := 0
	for _, name := range t.Names() {
		if t.Column(name).CellString(i) != "" {
			n++
		}
	}
	return n
}
