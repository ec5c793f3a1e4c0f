// Package parameter provides the multi-dimensional parameter tables used as
// component inputs, e.g. empirical severity distributions.
//
// Grids are an input representation only and never touched on the
// simulation hot path.
package parameter

import (
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ChangeKind identifies which dimension of a grid changed.
type ChangeKind int

const (
	// WidthChanged is fired when columns are inserted or removed.
	WidthChanged ChangeKind = iota + 1
	// HeightChanged is fired when rows are inserted or removed.
	HeightChanged
)

// Change describes a dimension change.
type Change struct {
	Kind     ChangeKind
	Index    int // first affected row or column
	Previous int
	Current  int
}

var (
	// ErrRowCountFixed is returned when rows are added to or removed from a fixed-height grid.
	ErrRowCountFixed = errors.New("row count is not changeable")
	// ErrColumnCountFixed is returned when columns are added to or removed from a fixed-width grid.
	ErrColumnCountFixed = errors.New("column count is not changeable")
	// ErrNotEditable is returned when writing a read-only cell.
	ErrNotEditable = errors.New("cell is not editable")
	// ErrRagged is returned when parsed rows differ in length.
	ErrRagged = errors.New("rows have different lengths")
)

// Grid is a resizable two-dimensional table of cell values.
//
// The simple grid has no title rows or columns, every cell is editable and
// both dimensions can grow and shrink.
type Grid struct {
	cells        [][]any
	columns      int
	rowsFixed    bool
	columnsFixed bool
	listeners    []func(Change)
}

// New creates a grid from cells. All rows must have the same length.
func New(cells [][]any) (*Grid, error) {
	g := &Grid{}
	for i, row := range cells {
		if i == 0 {
			g.columns = len(row)
		} else if len(row) != g.columns {
			return nil, fmt.Errorf("row %d has %d cells, expected %d: %w", i, len(row), g.columns, ErrRagged)
		}
		g.cells = append(g.cells, append([]any(nil), row...))
	}
	return g, nil
}

// Parse builds a grid from a list literal such as "[[1, 2], [3, 4]]".
// The literal is decoded as YAML flow sequences, so numbers, booleans and
// quoted or bare strings are accepted.
func Parse(literal string) (*Grid, error) {
	var cells [][]any
	if err := yaml.Unmarshal([]byte(literal), &cells); err != nil {
		return nil, fmt.Errorf("parse grid: %w", err)
	}
	return New(cells)
}

// FixRows makes the row count unchangeable.
func (g *Grid) FixRows() { g.rowsFixed = true }

// FixColumns makes the column count unchangeable.
func (g *Grid) FixColumns() { g.columnsFixed = true }

// RowCountChangeable reports whether rows may be inserted or removed.
func (g *Grid) RowCountChangeable() bool { return !g.rowsFixed }

// ColumnCountChangeable reports whether columns may be inserted or removed.
func (g *Grid) ColumnCountChangeable() bool { return !g.columnsFixed }

// TitleRowCount is always zero for the simple grid.
func (g *Grid) TitleRowCount() int { return 0 }

// TitleColumnCount is always zero for the simple grid.
func (g *Grid) TitleColumnCount() int { return 0 }

// IsCellEditable reports whether the cell may be written.
func (g *Grid) IsCellEditable(row, column int) bool {
	return g.inBounds(row, column)
}

// OnChange registers a listener for width and height changes.
func (g *Grid) OnChange(fn func(Change)) {
	g.listeners = append(g.listeners, fn)
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return len(g.cells) }

// Columns returns the number of columns.
func (g *Grid) Columns() int { return g.columns }

// ValueAt returns the value of a cell.
func (g *Grid) ValueAt(row, column int) (any, error) {
	if !g.inBounds(row, column) {
		return nil, g.boundsError(row, column)
	}
	return g.cells[row][column], nil
}

// SetValueAt writes a cell.
func (g *Grid) SetValueAt(row, column int, value any) error {
	if !g.inBounds(row, column) {
		return g.boundsError(row, column)
	}
	if !g.IsCellEditable(row, column) {
		return ErrNotEditable
	}
	g.cells[row][column] = value
	return nil
}

// Float returns a cell as float64. Integer cells and numeric strings convert.
func (g *Grid) Float(row, column int) (float64, error) {
	v, err := g.ValueAt(row, column)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("cell (%d,%d): %w", row, column, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cell (%d,%d): %T is not numeric", row, column, v)
	}
}

// InsertRow inserts an empty row before index. index == Rows() appends.
func (g *Grid) InsertRow(index int) error {
	if g.rowsFixed {
		return ErrRowCountFixed
	}
	if index < 0 || index > len(g.cells) {
		return fmt.Errorf("row index %d out of range [0,%d]", index, len(g.cells))
	}
	prev := len(g.cells)
	g.cells = append(g.cells, nil)
	copy(g.cells[index+1:], g.cells[index:])
	g.cells[index] = make([]any, g.columns)
	g.notify(Change{Kind: HeightChanged, Index: index, Previous: prev, Current: len(g.cells)})
	return nil
}

// RemoveRow removes the row at index.
func (g *Grid) RemoveRow(index int) error {
	if g.rowsFixed {
		return ErrRowCountFixed
	}
	if index < 0 || index >= len(g.cells) {
		return fmt.Errorf("row index %d out of range [0,%d)", index, len(g.cells))
	}
	prev := len(g.cells)
	g.cells = append(g.cells[:index], g.cells[index+1:]...)
	g.notify(Change{Kind: HeightChanged, Index: index, Previous: prev, Current: len(g.cells)})
	return nil
}

// InsertColumn inserts an empty column before index. index == Columns() appends.
func (g *Grid) InsertColumn(index int) error {
	if g.columnsFixed {
		return ErrColumnCountFixed
	}
	if index < 0 || index > g.columns {
		return fmt.Errorf("column index %d out of range [0,%d]", index, g.columns)
	}
	prev := g.columns
	for i, row := range g.cells {
		row = append(row, nil)
		copy(row[index+1:], row[index:])
		row[index] = nil
		g.cells[i] = row
	}
	g.columns++
	g.notify(Change{Kind: WidthChanged, Index: index, Previous: prev, Current: g.columns})
	return nil
}

// RemoveColumn removes the column at index.
func (g *Grid) RemoveColumn(index int) error {
	if g.columnsFixed {
		return ErrColumnCountFixed
	}
	if index < 0 || index >= g.columns {
		return fmt.Errorf("column index %d out of range [0,%d)", index, g.columns)
	}
	prev := g.columns
	for i, row := range g.cells {
		g.cells[i] = append(row[:index], row[index+1:]...)
	}
	g.columns--
	g.notify(Change{Kind: WidthChanged, Index: index, Previous: prev, Current: g.columns})
	return nil
}

// Values returns a copy of the cells.
func (g *Grid) Values() [][]any {
	out := make([][]any, len(g.cells))
	for i, row := range g.cells {
		out[i] = append([]any(nil), row...)
	}
	return out
}

// String renders the grid as a list literal accepted by Parse.
func (g *Grid) String() string {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, row := range g.cells {
		rowNode := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, cell := range row {
			var cellNode yaml.Node
			if err := cellNode.Encode(cell); err != nil {
				cellNode = yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(cell)}
			}
			rowNode.Content = append(rowNode.Content, &cellNode)
		}
		node.Content = append(node.Content, rowNode)
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Sprint(g.cells)
	}
	return string(trimNewline(out))
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
	}
	return b
}

func (g *Grid) inBounds(row, column int) bool {
	return row >= 0 && row < len(g.cells) && column >= 0 && column < g.columns
}

func (g *Grid) boundsError(row, column int) error {
	return fmt.Errorf("cell (%d,%d) out of range %dx%d", row, column, len(g.cells), g.columns)
}

func (g *Grid) notify(c Change) {
	for _, fn := range g.listeners {
		fn(c)
	}
}
