// This file implements a generic, batched loader that drains rows from a
// channel and invokes a provided bulk-insert function (CopyFn) per batch.
//
// Backends implement CopyFn using their most efficient primitive (Postgres
// COPY, sqlite transactional INSERT, csv writes).
//
// Logging: on every successful flush, a concise progress line is emitted
// with running totals and instantaneous rows/sec since the previous flush.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"winsor/pkg/table"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations
// insert the provided rows (aligned to the columns order), return the number
// of rows inserted, and cancel promptly when ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize,
// and calls copyFn for each non-empty batch. It returns the total number of
// rows reported by copyFn and the first error encountered.
//
// Cancellation: returns (total, ctx.Err()) when canceled. Progress is logged
// on each successful flush.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n

		// Reuse the allocated slice; keep capacity to avoid churn.
		batch = batch[:0]

		if err != nil {
			log.Printf("loader: copy failed after=%d total=%d err=%v", n, total, err)
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		log.Printf(
			"batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
			batches, rps, n, total, now.Sub(start).Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}

// StreamRows feeds the table's rows (restricted to columns) into the
// returned channel, closing it when the table is exhausted or ctx is
// canceled. It is the producer half of LoadBatches.
//
// The error channel carries at most one value: the row conversion error
// that stopped the stream. Callers must check it after draining the row
// channel, or rows cut short by a misconfigured column list would be
// indistinguishable from a complete run.
func StreamRows(ctx context.Context, t *table.Table, columns []string, buffer int) (<-chan []any, <-chan error) {
	if buffer < 0 {
		buffer = 0
	}
	if len(columns) == 0 {
		columns = t.Names()
	}
	out := make(chan []any, buffer)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for i := 0; i < t.NumRows(); i++ {
			row, err := t.Row(i, columns)
			if err != nil {
				errs <- fmt.Errorf("stream row %d: %w", i, err)
				return
			}
			select {
			case <-ctx.Done():
				return
			case out <- row:
			}
		}
	}()
	return out, errs
}
