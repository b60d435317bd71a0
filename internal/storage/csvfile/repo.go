// Package csvfile implements a CSV file sink. It is the default storage for
// pipelines that clean a file and hand the result to downstream tooling
// rather than a database.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"winsor/internal/storage"
)

// Config holds the CSV sink configuration.
type Config struct {
	// Path of the output file. An existing file is truncated.
	Path string

	// Comma is the output delimiter; zero means ','.
	Comma rune
}

// Repository writes batches as CSV rows. The header row is emitted on the
// first CopyFrom, from that call's columns.
type Repository struct {
	f           *os.File
	w           *csv.Writer
	wroteHeader bool
}

// NewRepository creates (or truncates) the output file.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("csvfile: path must not be empty")
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("csvfile: create %s: %w", cfg.Path, err)
	}
	w := csv.NewWriter(f)
	if cfg.Comma != 0 {
		w.Comma = cfg.Comma
	}
	return &Repository{f: f, w: w}, nil
}

// CopyFrom appends rows to the file. Missing cells (nil) are written as
// empty fields; numeric cells use the shortest round-trippable form.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !r.wroteHeader {
		if err := r.w.Write(columns); err != nil {
			return 0, fmt.Errorf("csvfile: header: %w", err)
		}
		r.wroteHeader = true
	}

	record := make([]string, len(columns))
	var written int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return written, fmt.Errorf("csvfile: row length %d != columns length %d", len(row), len(columns))
		}
		for i, v := range row {
			record[i] = cellString(v)
		}
		if err := r.w.Write(record); err != nil {
			return written, fmt.Errorf("csvfile: write: %w", err)
		}
		written++
	}
	r.w.Flush()
	return written, r.w.Error()
}

// Exec is a no-op; there is no DDL for a file sink.
func (r *Repository) Exec(ctx context.Context, sql string) error { return nil }

// Close flushes and closes the output file.
func (r *Repository) Close() {
	r.w.Flush()
	_ = r.f.Close()
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func init() {
	storage.Register("csv", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(Config{Path: cfg.Path, Comma: cfg.Comma})
	})
}
