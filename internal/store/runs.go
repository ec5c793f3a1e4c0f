package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/riskflow/internal/result"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("simulation run not found")

// Run is a persisted simulation run.
type Run struct {
	ID         int64
	Token      string
	Name       string
	Iterations int
	Periods    int
	Seed       uint64
	Status     string
	Error      string
	Rows       int64
}

// CreateRun inserts a run in status "running" and returns its id.
// The token must be unique.
func (s *Store) CreateRun(ctx context.Context, run Run) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO simulation_runs (token, name, iterations, periods, seed, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.Token,
		run.Name,
		run.Iterations,
		run.Periods,
		int64(run.Seed),
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create run: last insert id: %w", err)
	}
	return id, nil
}

// FinishRun records the final status of a run. errText is stored as NULL when empty.
func (s *Store) FinishRun(ctx context.Context, id int64, status string, rows int64, errText string) error {
	var errValue any
	if errText != "" {
		errValue = errText
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE simulation_runs SET status = ?, rows = ?, error = ? WHERE id = ?
	`, status, rows, errValue, id)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %d: %w", id, ErrRunNotFound)
	}
	return nil
}

// ReadRun loads a run by id.
func (s *Store) ReadRun(ctx context.Context, id int64) (Run, error) {
	var (
		run     Run
		seed    int64
		errText sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, token, name, iterations, periods, seed, status, error, rows
		FROM simulation_runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Token, &run.Name, &run.Iterations, &run.Periods, &seed, &run.Status, &errText, &run.Rows)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %d: %w", id, err)
	}
	run.Seed = uint64(seed)
	run.Error = errText.String
	return run, nil
}

var mappingTables = [...]struct {
	kind  result.MappingKind
	table string
}{
	{result.PathMapping, "path_mappings"},
	{result.FieldMapping, "field_mappings"},
	{result.CollectorMapping, "collector_mappings"},
}

// WriteMappings persists the name→id tables of a run in one transaction.
// Entries already present are left unchanged, so the call can be repeated as
// the mapping grows.
func (s *Store) WriteMappings(ctx context.Context, runID int64, m *result.Mapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write mappings: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, mt := range mappingTables {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+mt.table+` (simulation_run_id, id, name)
			VALUES (?, ?, ?) ON CONFLICT DO NOTHING`)
		if err != nil {
			return fmt.Errorf("write mappings: prepare %s: %w", mt.table, err)
		}
		for _, e := range m.Entries(mt.kind) {
			if _, err := stmt.ExecContext(ctx, runID, e.ID, e.Name); err != nil {
				stmt.Close()
				return fmt.Errorf("write mappings: %s %q: %w", mt.kind, e.Name, err)
			}
		}
		stmt.Close()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write mappings: commit: %w", err)
	}
	return nil
}

// ReadMappings loads the name→id table of one kind, ordered by id.
func (s *Store) ReadMappings(ctx context.Context, runID int64, kind result.MappingKind) ([]result.MappingEntry, error) {
	table := ""
	for _, mt := range mappingTables {
		if mt.kind == kind {
			table = mt.table
		}
	}
	if table == "" {
		return nil, fmt.Errorf("read mappings: unknown kind %v", kind)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM `+table+`
		WHERE simulation_run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("read mappings: %w", err)
	}
	defer rows.Close()

	var out []result.MappingEntry
	for rows.Next() {
		var e result.MappingEntry
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, fmt.Errorf("read mappings: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read mappings: %w", err)
	}
	return out, nil
}
