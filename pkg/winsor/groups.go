package winsor

import (
	"strings"

	"github.com/zeebo/xxh3"

	"winsor/pkg/table"
)

// group is one partition of row indexes sharing identical values of the
// group-key columns. key is the human-readable form used in summaries and
// warnings; rows preserve input order.
type group struct {
	key  string
	raw  string
	rows []int
}

// partition splits the table's rows by the composite value of the by
// columns. With no by columns it returns a single global partition.
//
// Composite keys are joined with 0x1f (a separator that cannot appear in
// cell values) and hashed with xxh3; buckets chain on the rare hash
// collision. Groups come back in first-seen row order, so output is
// deterministic for a given input.
func partition(t *table.Table, by []string) []*group {
	n := t.NumRows()
	if len(by) == 0 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return []*group{{key: "(all)", rows: rows}}
	}

	cols := make([]*table.Column, len(by))
	for i, name := range by {
		cols[i] = t.Column(name)
	}

	var (
		order   []*group
		buckets = make(map[uint64][]*group)
		b       strings.Builder
	)
	for i := 0; i < n; i++ {
		b.Reset()
		for j, c := range cols {
			if j > 0 {
				b.WriteByte('\x1f')
			}
			b.WriteString(c.CellString(i))
		}
		raw := b.String()
		h := xxh3.HashString(raw)

		var g *group
		for _, cand := range buckets[h] {
			if cand.raw == raw {
				g = cand
				break
			}
		}
		if g == nil {
			// Summaries show components joined with "|".
			g = &group{raw: raw, key: strings.ReplaceAll(raw, "\x1f", "|")}
			buckets[h] = append(buckets[h], g)
			order = append(order, g)
		}
		g.rows = append(g.rows, i)
	}
	return order
}
