// Package result defines the scalar observations produced by component
// collectors and the fixed-width rows they are persisted as.
package result

import (
	"strconv"
	"strings"
	"time"
)

// Collector strategy names.
const (
	CollectorAggregated = "AGGREGATED"
	CollectorSingle     = "SINGLE"
)

// Observation is what a component collects during a step. The engine turns it
// into a Record by adding run, iteration and period and resolving names to ids.
type Observation struct {
	Path       string
	Field      string
	Collector  string
	Value      *float64
	ValueIndex int
	Date       *time.Time
}

// Record is a single scalar observation of one simulation step.
// A nil Value means "no observation for this cell".
type Record struct {
	RunID       int64
	Period      int
	Iteration   int
	PathID      int64
	FieldID     int64
	CollectorID int64
	Value       *float64
	ValueIndex  int
	Date        *time.Time
}

// Float returns a pointer to v, for building observations.
func Float(v float64) *float64 {
	return &v
}

// Row is the persisted shape of a Record:
// (simulationRunId, period, iteration, pathId, fieldId, collectorId, value).
type Row struct {
	RunID       int64
	Period      int
	Iteration   int
	PathID      int64
	FieldID     int64
	CollectorID int64
	Value       *float64
}

// RowColumns is the number of columns in a Row.
const RowColumns = 7

// RowOf converts a record into its persisted row. runID overrides the record's
// own RunID when non-zero.
func RowOf(runID int64, r Record) Row {
	if runID == 0 {
		runID = r.RunID
	}
	return Row{
		RunID:       runID,
		Period:      r.Period,
		Iteration:   r.Iteration,
		PathID:      r.PathID,
		FieldID:     r.FieldID,
		CollectorID: r.CollectorID,
		Value:       r.Value,
	}
}

// AppendArgs appends the row's SQL arguments to dst in column order.
func (r Row) AppendArgs(dst []any) []any {
	var value any
	if r.Value != nil {
		value = *r.Value
	}
	return append(dst, r.RunID, r.Period, r.Iteration, r.PathID, r.FieldID, r.CollectorID, value)
}

// Encode renders the row as a comma-separated line. A nil value is an empty field.
func (r Row) Encode() string {
	var b strings.Builder
	b.Grow(48)
	b.WriteString(strconv.FormatInt(r.RunID, 10))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(r.Period))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(r.Iteration))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(r.PathID, 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(r.FieldID, 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(r.CollectorID, 10))
	b.WriteByte(',')
	if r.Value != nil {
		b.WriteString(strconv.FormatFloat(*r.Value, 'g', -1, 64))
	}
	return b.String()
}

// DecodeRow parses a line produced by Encode.
func DecodeRow(line string) (Row, error) {
	parts := strings.Split(line, ",")
	if len(parts) != RowColumns {
		return Row{}, &DecodeError{Line: line, Reason: "expected 7 columns"}
	}
	var (
		row  Row
		ints [6]int64
	)
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil {
			return Row{}, &DecodeError{Line: line, Reason: err.Error()}
		}
		ints[i] = v
	}
	row.RunID = ints[0]
	row.Period = int(ints[1])
	row.Iteration = int(ints[2])
	row.PathID = ints[3]
	row.FieldID = ints[4]
	row.CollectorID = ints[5]
	if parts[6] != "" {
		v, err := strconv.ParseFloat(parts[6], 64)
		if err != nil {
			return Row{}, &DecodeError{Line: line, Reason: err.Error()}
		}
		row.Value = &v
	}
	return row, nil
}

// DecodeError reports a malformed encoded row.
type DecodeError struct {
	Line   string
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode row " + strconv.Quote(e.Line) + ": " + e.Reason
}
