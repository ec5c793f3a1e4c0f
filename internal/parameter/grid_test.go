package parameter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ListLiteral(t *testing.T) {
	g, err := Parse("[[100, 0.5], [1000, 0.4], [10000, 0.1]]")
	require.NoError(t, err)

	assert.Equal(t, 3, g.Rows())
	assert.Equal(t, 2, g.Columns())
	assert.Zero(t, g.TitleRowCount())
	assert.Zero(t, g.TitleColumnCount())

	v, err := g.Float(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, v)

	p, err := g.Float(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.1, p)
}

func TestParse_Ragged(t *testing.T) {
	_, err := Parse("[[1, 2], [3]]")
	assert.ErrorIs(t, err, ErrRagged)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("[[1, 2]")
	assert.Error(t, err)
}

func TestGrid_InsertRemoveRowsFireHeightChanged(t *testing.T) {
	g, err := New([][]any{{1, 2}, {3, 4}})
	require.NoError(t, err)
	var changes []Change
	g.OnChange(func(c Change) { changes = append(changes, c) })

	require.NoError(t, g.InsertRow(1))
	assert.Equal(t, 3, g.Rows())
	v, _ := g.ValueAt(1, 0)
	assert.Nil(t, v, "inserted row is empty")
	v, _ = g.ValueAt(2, 1)
	assert.Equal(t, 4, v)

	require.NoError(t, g.RemoveRow(0))
	assert.Equal(t, 2, g.Rows())

	assert.Equal(t, []Change{
		{Kind: HeightChanged, Index: 1, Previous: 2, Current: 3},
		{Kind: HeightChanged, Index: 0, Previous: 3, Current: 2},
	}, changes)
}

func TestGrid_InsertRemoveColumnsFireWidthChanged(t *testing.T) {
	g, err := New([][]any{{1, 2}, {3, 4}})
	require.NoError(t, err)
	var changes []Change
	g.OnChange(func(c Change) { changes = append(changes, c) })

	require.NoError(t, g.InsertColumn(0))
	assert.Equal(t, [][]any{{nil, 1, 2}, {nil, 3, 4}}, g.Values())

	require.NoError(t, g.RemoveColumn(2))
	assert.Equal(t, [][]any{{nil, 1}, {nil, 3}}, g.Values())

	require.Len(t, changes, 2)
	assert.Equal(t, WidthChanged, changes[0].Kind)
	assert.Equal(t, 3, changes[0].Current)
	assert.Equal(t, 2, changes[1].Current)
}

func TestGrid_FixedDimensions(t *testing.T) {
	g, err := New([][]any{{1}})
	require.NoError(t, err)
	assert.True(t, g.RowCountChangeable())
	assert.True(t, g.ColumnCountChangeable())

	g.FixRows()
	g.FixColumns()

	assert.ErrorIs(t, g.InsertRow(0), ErrRowCountFixed)
	assert.ErrorIs(t, g.RemoveRow(0), ErrRowCountFixed)
	assert.ErrorIs(t, g.InsertColumn(0), ErrColumnCountFixed)
	assert.ErrorIs(t, g.RemoveColumn(0), ErrColumnCountFixed)
}

func TestGrid_SetValueAt(t *testing.T) {
	g, err := New([][]any{{1, 2}})
	require.NoError(t, err)

	assert.True(t, g.IsCellEditable(0, 1))
	require.NoError(t, g.SetValueAt(0, 1, "x"))
	v, err := g.ValueAt(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	assert.Error(t, g.SetValueAt(5, 0, 1))
	_, err = g.Float(0, 1)
	assert.Error(t, err, "non-numeric string")
}

func TestGrid_StringRoundTrip(t *testing.T) {
	g, err := Parse("[[1, 0.5], [2, 0.5]]")
	require.NoError(t, err)

	again, err := Parse(g.String())
	require.NoError(t, err)
	assert.Equal(t, g.Values(), again.Values())
}
