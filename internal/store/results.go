package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/riskflow/internal/result"
)

// maxChunk keeps multi-row inserts below SQLite's bound-parameter limit.
const maxChunk = 32766 / result.RowColumns

const insertPrefix = `INSERT INTO single_value_results
	(simulation_run_id, period, iteration, path_id, field_id, collector_id, value) VALUES `

const rowPlaceholder = "(?, ?, ?, ?, ?, ?, ?)"

// InsertResult writes one result row.
func (s *Store) InsertResult(ctx context.Context, row result.Row) error {
	_, err := s.db.ExecContext(ctx, insertPrefix+rowPlaceholder, row.AppendArgs(nil)...)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// BulkInsertResults writes rows with multi-row INSERT statements of at most
// chunk rows each, all inside one transaction. Either every row is written or
// none is. chunk <= 0 selects the largest chunk SQLite accepts.
func (s *Store) BulkInsertResults(ctx context.Context, rows []result.Row, chunk int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if chunk <= 0 || chunk > maxChunk {
		chunk = maxChunk
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("bulk insert: begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		written int64
		full    *sql.Stmt
		args    = make([]any, 0, chunk*result.RowColumns)
	)
	defer func() {
		if full != nil {
			full.Close()
		}
	}()

	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		batch := rows[start:end]

		args = args[:0]
		for _, r := range batch {
			args = r.AppendArgs(args)
		}

		// Full chunks share one prepared statement; only the tail needs its own.
		if len(batch) == chunk {
			if full == nil {
				full, err = tx.PrepareContext(ctx, insertStatement(chunk))
				if err != nil {
					return 0, fmt.Errorf("bulk insert: prepare: %w", err)
				}
			}
			_, err = full.ExecContext(ctx, args...)
		} else {
			_, err = tx.ExecContext(ctx, insertStatement(len(batch)), args...)
		}
		if err != nil {
			return 0, fmt.Errorf("bulk insert: rows %d-%d: %w", start, end-1, err)
		}
		written += int64(len(batch))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("bulk insert: commit: %w", err)
	}
	return written, nil
}

func insertStatement(n int) string {
	var b strings.Builder
	b.Grow(len(insertPrefix) + n*(len(rowPlaceholder)+2))
	b.WriteString(insertPrefix)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(rowPlaceholder)
	}
	return b.String()
}

// CountResults returns the number of result rows of a run.
func (s *Store) CountResults(ctx context.Context, runID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM single_value_results WHERE simulation_run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return n, nil
}

// ReadResults returns all rows of a run in production order.
func (s *Store) ReadResults(ctx context.Context, runID int64) ([]result.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT simulation_run_id, period, iteration, path_id, field_id, collector_id, value
		FROM single_value_results
		WHERE simulation_run_id = ?
		ORDER BY iteration ASC, period ASC, rowid ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	defer rows.Close()

	var out []result.Row
	for rows.Next() {
		var (
			r     result.Row
			value sql.NullFloat64
		)
		if err := rows.Scan(&r.RunID, &r.Period, &r.Iteration, &r.PathID, &r.FieldID, &r.CollectorID, &value); err != nil {
			return nil, fmt.Errorf("read results: scan: %w", err)
		}
		if value.Valid {
			r.Value = result.Float(value.Float64)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	return out, nil
}

// FieldSummary aggregates the non-null values of one (path, field, collector).
type FieldSummary struct {
	Path      string
	Field     string
	Collector string
	Count     int64
	Sum       float64
	Mean      float64
	Min       float64
	Max       float64
}

// SummarizeResults aggregates a run's rows per (path, field, collector),
// ordered by names. Null values are ignored.
func (s *Store) SummarizeResults(ctx context.Context, runID int64) ([]FieldSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, f.name, c.name,
		       COUNT(r.value), COALESCE(SUM(r.value), 0), COALESCE(AVG(r.value), 0),
		       COALESCE(MIN(r.value), 0), COALESCE(MAX(r.value), 0)
		FROM single_value_results r
		JOIN path_mappings p      ON p.simulation_run_id = r.simulation_run_id AND p.id = r.path_id
		JOIN field_mappings f     ON f.simulation_run_id = r.simulation_run_id AND f.id = r.field_id
		JOIN collector_mappings c ON c.simulation_run_id = r.simulation_run_id AND c.id = r.collector_id
		WHERE r.simulation_run_id = ?
		GROUP BY r.path_id, r.field_id, r.collector_id
		ORDER BY p.name ASC, f.name ASC, c.name ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("summarize results: %w", err)
	}
	defer rows.Close()

	var out []FieldSummary
	for rows.Next() {
		var fs FieldSummary
		if err := rows.Scan(&fs.Path, &fs.Field, &fs.Collector, &fs.Count, &fs.Sum, &fs.Mean, &fs.Min, &fs.Max); err != nil {
			return nil, fmt.Errorf("summarize results: scan: %w", err)
		}
		out = append(out, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summarize results: %w", err)
	}
	return out, nil
}
