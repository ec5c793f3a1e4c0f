// Package store provides SQLite-backed storage for simulation runs and the
// scalar results they produce.
//
// Tables:
//   - simulation_runs: one row per run, created before execution
//   - path_mappings, field_mappings, collector_mappings: per-run name→id tables
//   - single_value_results: the 7-column result rows
//
// # Ordering
//
// Result reads are ordered by iteration, period and insertion order
// (rowid), so a run reads back in the order it was produced.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
