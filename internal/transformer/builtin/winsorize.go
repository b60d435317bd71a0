package builtin

import (
	"fmt"
	"log"

	"winsor/internal/config"
	"winsor/pkg/table"
	"winsor/pkg/winsor"
)

// Winsorize runs the percentile clamp/trim step. It is a thin adapter from
// pipeline configuration to winsor.Winsorize; warnings go to the configured
// sink and the Summary of the latest run is retained for reporting.
type Winsorize struct {
	Params winsor.Params

	// Verbose logs the per-group cutoff summary after each run.
	Verbose bool

	// OnSummary, when set, receives the Summary of each run.
	OnSummary func(*winsor.Summary)

	// Summary of the most recent Apply.
	Summary *winsor.Summary
}

// WinsorizeFromConfig decodes a "winsorize" options bag.
func WinsorizeFromConfig(o config.Options) (*Winsorize, error) {
	p := winsor.Params{
		Columns: o.StringSlice("columns"),
		By:      o.StringSlice("by"),
		Trim:    o.Bool("trim", false),
		Suffix:  o.String("suffix", ""),
		Replace: o.Bool("replace", false),
		Label:   o.Bool("label", false),
		GenFlag: o.String("gen_flag", ""),
	}
	if len(p.Columns) == 0 {
		return nil, fmt.Errorf("winsorize: columns is required")
	}

	if cuts := o.FloatSlice("cuts"); cuts != nil {
		if len(cuts) != 2 {
			return nil, fmt.Errorf("winsorize: cuts must hold exactly two percentiles, got %d", len(cuts))
		}
		p.Cuts = &winsor.Cuts{Low: cuts[0], High: cuts[1]}
	}
	if v, ok := o.Any("cut_low").(float64); ok {
		p.CutLow = &v
	}
	if v, ok := o.Any("cut_high").(float64); ok {
		p.CutHigh = &v
	}
	if raw, ok := o.Any("var_cuts").(map[string]any); ok {
		p.VarCuts = map[string]winsor.Cuts{}
		for col, v := range raw {
			pair, ok := v.([]any)
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("winsorize: var_cuts[%q] must be a two-element array", col)
			}
			lo, okLo := toFloat(pair[0])
			hi, okHi := toFloat(pair[1])
			if !okLo || !okHi {
				return nil, fmt.Errorf("winsorize: var_cuts[%q] must hold numbers", col)
			}
			p.VarCuts[col] = winsor.Cuts{Low: lo, High: hi}
		}
	}
	if raw, ok := o.Any("gen_extreme").(map[string]any); ok {
		lo, _ := raw["low"].(string)
		hi, _ := raw["high"].(string)
		p.GenExtreme = &winsor.ExtremeSuffixes{Low: lo, High: hi}
	}

	return &Winsorize{Params: p, Verbose: o.Bool("verbose", false)}, nil
}

func (w *Winsorize) Apply(t *table.Table) (*table.Table, error) {
	params := w.Params
	if params.Warn == nil {
		params.Warn = func(warn winsor.Warning) {
			log.Printf("winsorize: column %s group %s has %d non-missing values; passed through",
				warn.Column, warn.Group, warn.NonMissing)
		}
	}

	out, sum, err := winsor.Winsorize(t, params)
	if err != nil {
		return nil, err
	}
	w.Summary = sum
	if w.OnSummary != nil {
		w.OnSummary(sum)
	}
	if w.Verbose {
		logSummary(sum)
	}
	return out, nil
}

func logSummary(s *winsor.Summary) {
	for _, col := range s.VariablesProcessed {
		log.Printf("winsorize: %s: %d observations changed (mean %.4g -> %.4g)",
			col, s.ObservationsChanged[col], s.Before[col].Mean, s.After[col].Mean)
		for _, g := range s.Cutoffs[col] {
			log.Printf("winsorize:   group %s: n=%d cutoffs [%g, %g] changed=%d",
				g.Group, g.N, g.Lower, g.Upper, g.Changed)
		}
	}
	if s.RowsDropped > 0 {
		log.Printf("winsorize: %d rows dropped", s.RowsDropped)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
