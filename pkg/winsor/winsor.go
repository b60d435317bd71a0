// Package winsor implements percentile-based outlier handling for tabular
// data: winsorizing (clamping values into the cutoff range) and trimming
// (removing the offending rows), with cutoffs computed globally or
// independently per group.
//
// The entry point is Winsorize. The input table is never mutated; results
// are returned as a modified deep copy together with a processing Summary.
package winsor

import (
	"fmt"
	"sort"

	"winsor/internal/bitmap"
	"winsor/pkg/table"
)

// Default percentile cutoffs, matching the Stata winsor2 convention.
const (
	DefaultLow  = 1.0
	DefaultHigh = 99.0
)

// Suffixes applied to result columns when Params.Suffix is empty.
const (
	ClampSuffix = "_w"
	TrimSuffix  = "_tr"
)

// Cuts is a pair of percentile cutoffs, 0 <= Low < High <= 100.
type Cuts struct {
	Low  float64
	High float64
}

// ExtremeSuffixes names the pair of columns that receive the original value
// of cells that fell below (Low) or above (High) their cutoff.
type ExtremeSuffixes struct {
	Low  string
	High string
}

// Params configures a single Winsorize call.
type Params struct {
	// Columns are the numeric target columns. Required.
	Columns []string

	// Cuts applies one (low, high) percentile pair to every target column.
	// Nil means the default (1, 99) unless CutLow/CutHigh or VarCuts apply.
	Cuts *Cuts

	// CutLow/CutHigh handle one tail only: setting just CutLow clamps or
	// trims the lower tail and leaves the upper tail alone, and vice versa.
	// Mutually exclusive with Cuts.
	CutLow  *float64
	CutHigh *float64

	// VarCuts overrides the cuts per column. Keys must be a subset of
	// Columns.
	VarCuts map[string]Cuts

	// By lists group-key columns; cutoffs are computed independently within
	// each group. Empty means one global partition.
	By []string

	// Trim removes rows outside the cutoffs instead of clamping values.
	Trim bool

	// Suffix names the result column <col><Suffix>. Empty selects "_w"
	// (clamp) or "_tr" (trim).
	Suffix string

	// Replace writes results over the source column instead of adding a
	// suffixed copy.
	Replace bool

	// Label attaches a descriptive label to each result column.
	Label bool

	// GenFlag, with Trim, keeps all rows: trimmed cells become missing in
	// the suffixed column and <col><GenFlag> carries a 0/1 indicator.
	GenFlag string

	// GenExtreme stores original out-of-range values in suffixed side
	// columns. Clamp mode only.
	GenExtreme *ExtremeSuffixes

	// Warn receives non-fatal warnings (groups too small for cutoffs).
	Warn func(Warning)
}

// bounds is the per-column resolution of Params' cut settings.
type bounds struct {
	low, high       float64
	hasLow, hasHigh bool
}

// Winsorize computes per-group percentile cutoffs for each target column and
// clamps (or trims) accordingly. It returns the transformed copy of t and a
// Summary of what changed. Fatal errors are returned before any work; groups
// with fewer than two non-missing values pass through with a Warning.
//
// Clamping is not idempotent in general: the interpolated cutoffs shift when
// clamped tail values re-enter the sample, so a second pass with the same
// cuts can still change observations. Only cutoffs that land exactly on
// sample ranks are stable across repeated runs.
func Winsorize(t *table.Table, p Params) (*table.Table, *Summary, error) {
	if t == nil || t.NumRows() == 0 {
		return nil, nil, &EmptyInputError{}
	}
	if len(p.Columns) == 0 {
		return nil, nil, fmt.Errorf("winsor: at least one target column is required")
	}
	if p.Cuts != nil && (p.CutLow != nil || p.CutHigh != nil) {
		return nil, nil, fmt.Errorf("winsor: Cuts and CutLow/CutHigh are mutually exclusive")
	}
	if p.GenFlag != "" && !p.Trim {
		return nil, nil, fmt.Errorf("winsor: GenFlag requires Trim")
	}
	if p.GenExtreme != nil {
		if p.Trim {
			return nil, nil, fmt.Errorf("winsor: GenExtreme is only available in clamp mode")
		}
		if p.GenExtreme.Low == "" || p.GenExtreme.High == "" {
			return nil, nil, fmt.Errorf("winsor: GenExtreme needs both a low and a high suffix")
		}
	}

	targets := map[string]bool{}
	for _, col := range p.Columns {
		targets[col] = true
	}
	for col := range p.VarCuts {
		if !targets[col] {
			return nil, nil, fmt.Errorf("winsor: VarCuts column %q is not a target column", col)
		}
	}

	resolved := make(map[string]bounds, len(p.Columns))
	for _, col := range p.Columns {
		c := t.Column(col)
		if c == nil {
			return nil, nil, &ColumnNotFoundError{Column: col}
		}
		if c.Kind != table.Numeric {
			return nil, nil, fmt.Errorf("winsor: column %q is %s, not numeric", col, c.Kind)
		}
		b, err := resolveBounds(p, col)
		if err != nil {
			return nil, nil, err
		}
		resolved[col] = b
	}
	for _, col := range p.By {
		if t.Column(col) == nil {
			return nil, nil, &ColumnNotFoundError{Column: col}
		}
	}

	var (
		n       = t.NumRows()
		out     = t.Clone()
		groups  = partition(t, p.By)
		sum     = newSummary()
		suffix  = p.Suffix
		dropRow *bitmap.Bitmap
	)
	if suffix == "" {
		if p.Trim {
			suffix = TrimSuffix
		} else {
			suffix = ClampSuffix
		}
	}
	trimDrops := p.Trim && p.GenFlag == ""
	if trimDrops {
		dropRow = bitmap.New(n)
	}
	warn := func(w Warning) {
		sum.Warnings++
		if p.Warn != nil {
			p.Warn(w)
		}
	}

	for _, col := range p.Columns {
		src := t.Column(col).Floats
		bnd := resolved[col]

		res := make([]float64, n)
		copy(res, src)

		var flags, lowVals, highVals []float64
		if p.Trim && p.GenFlag != "" {
			flags = make([]float64, n)
		}
		if p.GenExtreme != nil {
			lowVals = nanSlice(n)
			highVals = nanSlice(n)
		}

		changed := 0
		for _, g := range groups {
			vals := make([]float64, 0, len(g.rows))
			for _, i := range g.rows {
				if !table.IsMissing(src[i]) {
					vals = append(vals, src[i])
				}
			}
			if len(vals) < 2 {
				warn(Warning{Column: col, Group: g.key, NonMissing: len(vals)})
				continue
			}
			sort.Float64s(vals)

			lower, upper := table.Missing(), table.Missing()
			if bnd.hasLow {
				lower = quantile(vals, bnd.low)
			}
			if bnd.hasHigh {
				upper = quantile(vals, bnd.high)
			}

			gchanged := 0
			for _, i := range g.rows {
				v := src[i]
				if table.IsMissing(v) {
					continue
				}
				below := bnd.hasLow && v < lower
				above := bnd.hasHigh && v > upper
				if !below && !above {
					continue
				}
				gchanged++
				switch {
				case trimDrops:
					dropRow.Add(i)
				case p.Trim:
					res[i] = table.Missing()
					flags[i] = 1
				case below:
					res[i] = lower
					if lowVals != nil {
						lowVals[i] = v
					}
				default:
					res[i] = upper
					if highVals != nil {
						highVals[i] = v
					}
				}
			}
			changed += gchanged
			sum.Cutoffs[col] = append(sum.Cutoffs[col], GroupCutoffs{
				Group:   g.key,
				Lower:   lower,
				Upper:   upper,
				N:       len(vals),
				Changed: gchanged,
			})
		}

		sum.VariablesProcessed = append(sum.VariablesProcessed, col)
		sum.ObservationsChanged[col] = changed
		sum.Before[col] = moments(src)

		if trimDrops {
			continue
		}

		name := col + suffix
		if p.Replace {
			name = col
			if err := out.ReplaceNumeric(col, res); err != nil {
				return nil, nil, err
			}
		} else if err := out.AddNumeric(name, res); err != nil {
			return nil, nil, fmt.Errorf("winsor: %w", err)
		}
		sum.After[col] = moments(res)

		if flags != nil {
			if err := out.AddNumeric(col+p.GenFlag, flags); err != nil {
				return nil, nil, fmt.Errorf("winsor: %w", err)
			}
		}
		if lowVals != nil {
			if err := out.AddNumeric(col+p.GenExtreme.Low, lowVals); err != nil {
				return nil, nil, fmt.Errorf("winsor: %w", err)
			}
			if err := out.AddNumeric(col+p.GenExtreme.High, highVals); err != nil {
				return nil, nil, fmt.Errorf("winsor: %w", err)
			}
		}
		if p.Label {
			out.SetLabel(name, labelText(col, bnd, p.Trim))
		}
	}

	if trimDrops {
		sum.RowsDropped = dropRow.Count()
		out = out.Drop(dropRow)
		for _, col := range p.Columns {
			sum.After[col] = moments(out.Column(col).Floats)
			if p.Label {
				out.SetLabel(col, labelText(col, resolved[col], true))
			}
		}
	}
	return out, sum, nil
}

// resolveBounds applies the precedence VarCuts > CutLow/CutHigh > Cuts >
// default and validates the outcome.
func resolveBounds(p Params, col string) (bounds, error) {
	if c, ok := p.VarCuts[col]; ok {
		return validatePair(c.Low, c.High)
	}
	if p.CutLow != nil || p.CutHigh != nil {
		var b bounds
		if p.CutLow != nil {
			if *p.CutLow < 0 || *p.CutLow > 100 {
				return b, &InvalidCutoffError{Low: *p.CutLow, High: 100, Reason: "lower cut outside [0,100]"}
			}
			b.low, b.hasLow = *p.CutLow, true
		}
		if p.CutHigh != nil {
			if *p.CutHigh < 0 || *p.CutHigh > 100 {
				return b, &InvalidCutoffError{Low: 0, High: *p.CutHigh, Reason: "upper cut outside [0,100]"}
			}
			b.high, b.hasHigh = *p.CutHigh, true
		}
		if b.hasLow && b.hasHigh && b.low >= b.high {
			return b, &InvalidCutoffError{Low: b.low, High: b.high, Reason: "lower cut must fall below upper cut"}
		}
		return b, nil
	}
	if p.Cuts != nil {
		return validatePair(p.Cuts.Low, p.Cuts.High)
	}
	return validatePair(DefaultLow, DefaultHigh)
}

func validatePair(low, high float64) (bounds, error) {
	if low < 0 || high > 100 {
		return bounds{}, &InvalidCutoffError{Low: low, High: high, Reason: "cuts outside [0,100]"}
	}
	if low >= high {
		return bounds{}, &InvalidCutoffError{Low: low, High: high, Reason: "lower cut must fall below upper cut"}
	}
	return bounds{low: low, high: high, hasLow: true, hasHigh: true}, nil
}

func labelText(col string, b bounds, trim bool) string {
	verb := "Winsorized"
	if trim {
		verb = "Trimmed"
	}
	switch {
	case b.hasLow && b.hasHigh:
		return fmt.Sprintf("%s %s at %g%%-%g%% percentiles", verb, col, b.low, b.high)
	case b.hasLow:
		return fmt.Sprintf("%s %s at the lower %g%% percentile", verb, col, b.low)
	default:
		return fmt.Sprintf("%s %s at the upper %g%% percentile", verb, col, b.high)
	}
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = table.Missing()
	}
	return s
}
