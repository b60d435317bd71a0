// Package transformer defines the cleaning steps applied between parsing
// and storage. A Transformer consumes a table and produces a (possibly
// smaller or wider) table; a Chain runs them in configuration order.
package transformer

import (
	"fmt"

	"winsor/internal/config"
	"winsor/internal/transformer/builtin"
	"winsor/pkg/table"
)

// Transformer is one table-to-table cleaning step.
type Transformer interface {
	Apply(t *table.Table) (*table.Table, error)
}

// Chain is an ordered list of transformers. Apply feeds each step's output
// into the next and stops at the first error.
type Chain []Transformer

func (c Chain) Apply(t *table.Table) (*table.Table, error) {
	out := t
	var err error
	for i, step := range c {
		out, err = step.Apply(out)
		if err != nil {
			return nil, fmt.Errorf("transform step %d: %w", i, err)
		}
	}
	return out, nil
}

// New builds the Transformer selected by cfg.Kind.
func New(cfg config.Transform) (Transformer, error) {
	switch cfg.Kind {
	case "coerce":
		return builtin.CoerceFromConfig(cfg.Options)
	case "require":
		return builtin.RequireFromConfig(cfg.Options)
	case "dedup":
		return builtin.DeDupFromConfig(cfg.Options)
	case "normalize":
		return builtin.NormalizeFromConfig(cfg.Options)
	case "winsorize":
		return builtin.WinsorizeFromConfig(cfg.Options)
	default:
		return nil, fmt.Errorf("transformer: unknown transform kind %q", cfg.Kind)
	}
}

// NewChain builds the whole configured chain.
func NewChain(cfgs []config.Transform) (Chain, error) {
	chain := make(Chain, 0, len(cfgs))
	for i, cfg := range cfgs {
		t, err := New(cfg)
		if err != nil {
			return nil, fmt.Errorf("transform step %d: %w", i, err)
		}
		chain = append(chain, t)
	}
	return chain, nil
}
