package sink

import (
	"context"
	"log/slog"

	"github.com/roach88/riskflow/internal/result"
	"github.com/roach88/riskflow/internal/store"
)

// SQLite writes each batch as chunked multi-row INSERTs in one transaction.
type SQLite struct {
	batcher
	store *store.Store
	chunk int
}

// NewSQLite creates a SQLite sink. chunk bounds the rows per INSERT
// statement; zero lets the store choose.
func NewSQLite(st *store.Store, batchSize, chunk int, logger *slog.Logger) *SQLite {
	s := &SQLite{store: st, chunk: chunk}
	s.batcher = newBatcher(NameSQLite, batchSize, logger, s.writeRows)
	return s
}

func (s *SQLite) writeRows(ctx context.Context, rows []result.Row) error {
	_, err := s.store.BulkInsertResults(ctx, rows, s.chunk)
	return err
}

// Close is a no-op; the store is owned by the caller.
func (s *SQLite) Close() error { return nil }
