// Package sink implements the batched persistence boundary for result records.
//
// A BulkSink buffers the fixed-width rows of the records handed to it and
// writes them with an implementation-specific bulk primitive once the buffer
// reaches the batch size, and on Flush. Batch size only affects throughput.
//
// Implementations are chosen by name through the registry (see Resolve).
// They are owned by a single runner and are not safe for concurrent use.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/riskflow/internal/result"
)

// DefaultBatchSize is used when Env.BatchSize is not positive.
const DefaultBatchSize = 1000

// BulkSink accumulates result rows and writes them in batches.
type BulkSink interface {
	// Name is the registry name of the implementation.
	Name() string
	// AddResults buffers one row per record, writing full batches as they
	// form. On error no row of records is reported as written.
	AddResults(ctx context.Context, records []result.Record) error
	// Flush writes everything buffered.
	Flush(ctx context.Context) error
	// Rows is the cumulative number of rows durably written.
	Rows() int64
	// Close releases resources. It does not flush.
	Close() error
}

// FlushError reports a batch that could not be persisted. The rows stay
// buffered; they are never retried silently.
type FlushError struct {
	Sink  string
	RunID int64
	Batch int
	Rows  int
	Err   error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("flush failed: sink=%s run=%d batch=%d rows=%d: %v", e.Sink, e.RunID, e.Batch, e.Rows, e.Err)
}

func (e *FlushError) Unwrap() error {
	return e.Err
}

// writeFunc persists one batch. It must write all rows or none.
type writeFunc func(ctx context.Context, rows []result.Row) error

// batcher is the buffering shared by all implementations.
type batcher struct {
	name      string
	batchSize int
	write     writeFunc
	logger    *slog.Logger

	buf     []result.Row
	batches int
	written int64
}

func newBatcher(name string, batchSize int, logger *slog.Logger, write writeFunc) batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return batcher{
		name:      name,
		batchSize: batchSize,
		write:     write,
		logger:    logger,
		buf:       make([]result.Row, 0, batchSize),
	}
}

func (b *batcher) Name() string { return b.name }

func (b *batcher) Rows() int64 { return b.written }

func (b *batcher) AddResults(ctx context.Context, records []result.Record) error {
	for i, r := range records {
		if r.RunID <= 0 {
			return fmt.Errorf("add results: record %d has no run id", i)
		}
	}
	for _, r := range records {
		b.buf = append(b.buf, result.RowOf(0, r))
	}
	if len(b.buf) >= b.batchSize {
		return b.Flush(ctx)
	}
	return nil
}

func (b *batcher) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	b.batches++
	if err := b.write(ctx, b.buf); err != nil {
		return &FlushError{
			Sink:  b.name,
			RunID: b.buf[0].RunID,
			Batch: b.batches,
			Rows:  len(b.buf),
			Err:   err,
		}
	}
	b.written += int64(len(b.buf))
	b.logger.LogAttrs(ctx, slog.LevelDebug, "flushed results",
		slog.String("sink", b.name),
		slog.Int("batch", b.batches),
		slog.Int("rows", len(b.buf)),
		slog.Int64("total", b.written),
	)
	clear(b.buf)
	b.buf = b.buf[:0]
	return nil
}

// Pending returns the number of buffered rows not yet written.
func (b *batcher) Pending() int { return len(b.buf) }
