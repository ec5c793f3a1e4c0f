package sink

import (
	"context"
	"log/slog"

	"github.com/roach88/riskflow/internal/result"
	"github.com/roach88/riskflow/internal/store"
)

// Generic is the fallback sink. With a store it inserts one row per
// statement inside a transaction per flush; without one it keeps rows in
// process memory.
type Generic struct {
	batcher
	store  *store.Store
	memory []result.Row
}

// NewGeneric creates a generic sink. st may be nil.
func NewGeneric(st *store.Store, batchSize int, logger *slog.Logger) *Generic {
	g := &Generic{store: st}
	g.batcher = newBatcher(NameGeneric, batchSize, logger, g.writeRows)
	return g
}

func (g *Generic) writeRows(ctx context.Context, rows []result.Row) error {
	if g.store == nil {
		g.memory = append(g.memory, rows...)
		return nil
	}
	// One statement per row, committed together.
	_, err := g.store.BulkInsertResults(ctx, rows, 1)
	return err
}

// Memory returns a copy of the rows written to process memory.
func (g *Generic) Memory() []result.Row {
	return append([]result.Row(nil), g.memory...)
}

// Close is a no-op; the store is owned by the caller.
func (g *Generic) Close() error { return nil }
