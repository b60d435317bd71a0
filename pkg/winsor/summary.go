package winsor

import (
	"gonum.org/v1/gonum/stat"

	"winsor/pkg/table"
)

// Warning is a non-fatal signal delivered through Params.Warn. It is emitted
// once per (column, group) when a group has fewer than two non-missing
// values, in which case that group's rows pass through unchanged.
type Warning struct {
	Column     string
	Group      string
	NonMissing int
}

// GroupCutoffs records the cutoffs computed for one column within one group.
type GroupCutoffs struct {
	Group   string
	Lower   float64 // NaN when no lower cut was applied
	Upper   float64 // NaN when no upper cut was applied
	N       int     // non-missing values the cutoffs were computed from
	Changed int     // cells clamped / rows trimmed in this group
}

// Moments holds the mean and sample standard deviation of a column's
// non-missing values.
type Moments struct {
	Mean   float64
	StdDev float64
	N      int
}

// Summary is the verbose processing report: which columns were processed,
// how many observations each one changed, the per-group cutoffs, and the
// column moments before and after, for a quick read on the winsorizing
// impact.
type Summary struct {
	VariablesProcessed  []string
	ObservationsChanged map[string]int
	Cutoffs             map[string][]GroupCutoffs
	Before              map[string]Moments
	After               map[string]Moments
	RowsDropped         int // trim mode only
	Warnings            int
}

func newSummary() *Summary {
	return &Summary{
		ObservationsChanged: map[string]int{},
		Cutoffs:             map[string][]GroupCutoffs{},
		Before:              map[string]Moments{},
		After:               map[string]Moments{},
	}
}

// moments computes Moments over the non-missing entries of vals.
func moments(vals []float64) Moments {
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !table.IsMissing(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return Moments{Mean: table.Missing(), StdDev: table.Missing()}
	}
	m := Moments{Mean: stat.Mean(clean, nil), N: len(clean)}
	if len(clean) > 1 {
		m.StdDev = stat.StdDev(clean, nil)
	}
	return m
}
