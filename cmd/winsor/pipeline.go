// Pipeline execution for the winsor binary. This file keeps the CLI layer
// thin: it depends only on the storage-agnostic interfaces and never imports
// database drivers or backend-specific packages directly.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"winsor/internal/config"
	"winsor/internal/datasource"
	"winsor/internal/metrics"
	"winsor/internal/parser"
	"winsor/internal/storage"
	"winsor/internal/transformer"
	"winsor/internal/transformer/builtin"
	"winsor/pkg/table"
	"winsor/pkg/winsor"
)

const (
	defaultBatchSize     = 1000
	defaultChannelBuffer = 100
)

// Function variables used to introduce test seams. In production these point
// to real implementations; tests override them to avoid real I/O.
var (
	newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return storage.New(ctx, cfg)
	}

	openSourceFn = func(ctx context.Context, cfg config.Source) (io.ReadCloser, error) {
		src, err := datasource.New(cfg)
		if err != nil {
			return nil, err
		}
		return src.Open(ctx)
	}
)

// runStats summarizes a completed run for logging and tests.
type runStats struct {
	parsed      int
	parseSkips  int
	rowsOut     int
	rowsTrimmed int
	inserted    int64
}

// run executes a full source → parse → transform → load pipeline for the
// given configuration. Each stage is timed and reported to the metrics
// backend; the first stage error aborts the run.
func run(ctx context.Context, p config.Pipeline) (runStats, error) {
	var stats runStats
	job := p.Job

	// Build everything up front so a bad config fails before any I/O.
	psr, err := parser.New(p.Parser)
	if err != nil {
		return stats, fmt.Errorf("parser: %w", err)
	}
	chain, err := transformer.NewChain(p.Transform)
	if err != nil {
		return stats, fmt.Errorf("transform: %w", err)
	}
	hookWinsorizeMetrics(chain, job)

	start := time.Now()
	rc, err := openSourceFn(ctx, p.Source)
	metrics.RecordStep(job, "source", err, time.Since(start))
	if err != nil {
		return stats, fmt.Errorf("source: %w", err)
	}
	defer rc.Close()

	start = time.Now()
	t, skipped, err := psr.Parse(rc)
	metrics.RecordStep(job, "parse", err, time.Since(start))
	if err != nil {
		return stats, fmt.Errorf("parse: %w", err)
	}
	stats.parsed = t.NumRows()
	stats.parseSkips = skipped
	metrics.RecordRows(job, "parsed", int64(t.NumRows()))
	metrics.RecordRows(job, "parse_skipped", int64(skipped))

	start = time.Now()
	clean, err := chain.Apply(t)
	metrics.RecordStep(job, "transform", err, time.Since(start))
	if err != nil {
		return stats, fmt.Errorf("transform: %w", err)
	}
	stats.rowsOut = clean.NumRows()
	stats.rowsTrimmed = trimmedRows(chain)

	start = time.Now()
	inserted, err := load(ctx, p, clean)
	metrics.RecordStep(job, "load", err, time.Since(start))
	stats.inserted = inserted
	metrics.RecordRows(job, "loaded", inserted)
	if err != nil {
		return stats, fmt.Errorf("load: %w", err)
	}

	log.Printf("run complete: parsed=%d skipped=%d trimmed=%d out=%d inserted=%d",
		stats.parsed, stats.parseSkips, stats.rowsTrimmed, stats.rowsOut, stats.inserted)
	return stats, nil
}

// load writes the cleaned table through the configured sink, overlapping row
// conversion with batched writes.
func load(ctx context.Context, p config.Pipeline, t *table.Table) (int64, error) {
	job := p.Job

	repo, err := newRepositoryFn(ctx, storageConfig(p.Storage))
	if err != nil {
		return 0, err
	}
	defer repo.Close()

	columns := p.Storage.DB.Columns
	if len(columns) == 0 {
		columns = t.Names()
	}

	// Resolve the schema up front even when no table is created: it rejects
	// a configured column the cleaned table does not have before any rows
	// are written.
	schema, err := storage.SchemaOf(t, columns)
	if err != nil {
		return 0, err
	}

	if p.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTable(ctx, p.Storage.Kind, repo, p.Storage.DB.Table, schema); err != nil {
			return 0, fmt.Errorf("ensure table: %w", err)
		}
	}

	batchSize := p.Runtime.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	buffer := p.Runtime.ChannelBuffer
	if buffer <= 0 {
		buffer = defaultChannelBuffer
	}

	copyFn := func(ctx context.Context, cols []string, rows [][]any) (int64, error) {
		n, err := repo.CopyFrom(ctx, cols, rows)
		if err == nil {
			metrics.RecordBatches(job, 1)
		}
		return n, err
	}

	var total int64
	g, gctx := errgroup.WithContext(ctx)
	rowCh, streamErrs := storage.StreamRows(gctx, t, columns, buffer)
	g.Go(func() error {
		n, err := storage.LoadBatches(gctx, columns, rowCh, batchSize, copyFn)
		total = n
		if err != nil {
			return err
		}
		return <-streamErrs
	})
	if err := g.Wait(); err != nil {
		return total, err
	}
	return total, nil
}

// storageConfig flattens the decoded storage block into the factory config.
func storageConfig(s config.Storage) storage.Config {
	cfg := storage.Config{
		Kind:    s.Kind,
		DSN:     s.DB.DSN,
		Table:   s.DB.Table,
		Columns: s.DB.Columns,
		Path:    s.CSV.Path,
	}
	if s.CSV.Comma != "" {
		cfg.Comma = []rune(s.CSV.Comma)[0]
	}
	return cfg
}

// hookWinsorizeMetrics attaches summary reporting to every winsorize step in
// the chain: clamped cells per column, trimmed row counts and insufficient
// data warnings all flow into the metrics backend.
func hookWinsorizeMetrics(chain transformer.Chain, job string) {
	for _, step := range chain {
		w, ok := step.(*builtin.Winsorize)
		if !ok {
			continue
		}
		prev := w.OnSummary
		w.OnSummary = func(s *winsor.Summary) {
			if prev != nil {
				prev(s)
			}
			if s.RowsDropped > 0 {
				metrics.RecordRows(job, "trimmed", int64(s.RowsDropped))
			} else {
				for col, n := range s.ObservationsChanged {
					metrics.RecordCellsClamped(job, col, int64(n))
				}
			}
		}
	}
}

// trimmedRows sums the rows dropped by winsorize steps after a run.
func trimmedRows(chain transformer.Chain) int {
	total := 0
	for _, step := range chain {
		if w, ok := step.(*builtin.Winsorize); ok && w.Summary != nil {
			total += w.Summary.RowsDropped
		}
	}
	return total
}
