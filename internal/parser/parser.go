// Package parser turns raw input bytes into a table. Implementations are
// selected by pipeline configuration; CSV is the only format currently
// shipped.
package parser

import (
	"fmt"
	"io"

	"winsor/internal/config"
	"winsor/internal/parser/csv"
	"winsor/pkg/table"
)

// Parser reads one input stream into a table. The int result counts rows
// that were skipped as unparseable (soft failures).
type Parser interface {
	Parse(r io.Reader) (*table.Table, int, error)
}

// New builds the Parser selected by cfg.Kind.
func New(cfg config.Parser) (Parser, error) {
	switch cfg.Kind {
	case "csv":
		opt, err := csv.OptionsFromConfig(cfg.Options)
		if err != nil {
			return nil, err
		}
		return csv.NewParser(opt), nil
	default:
		return nil, fmt.Errorf("parser: unknown parser kind %q", cfg.Kind)
	}
}
