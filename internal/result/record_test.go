package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping_FirstSeenOrder(t *testing.T) {
	m := NewMapping()

	assert.Equal(t, int64(1), m.ID(PathMapping, "model:claims"))
	assert.Equal(t, int64(2), m.ID(PathMapping, "model:net"))
	assert.Equal(t, int64(1), m.ID(PathMapping, "model:claims"), "ids are stable")
	assert.Equal(t, int64(1), m.ID(FieldMapping, "ultimate"), "tables are independent")

	id, ok := m.Lookup(PathMapping, "model:net")
	require.True(t, ok)
	assert.Equal(t, int64(2), id)

	_, ok = m.Lookup(CollectorMapping, "SINGLE")
	assert.False(t, ok)

	assert.Equal(t, []MappingEntry{{ID: 1, Name: "model:claims"}, {ID: 2, Name: "model:net"}}, m.Entries(PathMapping))
}

func TestMapping_ResolveDefaultsCollector(t *testing.T) {
	m := NewMapping()
	rec := m.Resolve(7, 3, 1, Observation{Path: "p", Field: "f", Value: Float(2.5), ValueIndex: 4})

	assert.Equal(t, int64(7), rec.RunID)
	assert.Equal(t, 3, rec.Iteration)
	assert.Equal(t, 1, rec.Period)
	assert.Equal(t, 4, rec.ValueIndex)
	id, ok := m.Lookup(CollectorMapping, CollectorAggregated)
	require.True(t, ok)
	assert.Equal(t, id, rec.CollectorID)
	assert.Equal(t, 2.5, *rec.Value)
}

func TestRow_EncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		line string
	}{
		{
			name: "value",
			row:  Row{RunID: 1, Period: 2, Iteration: 3, PathID: 4, FieldID: 5, CollectorID: 6, Value: Float(1.5)},
			line: "1,2,3,4,5,6,1.5",
		},
		{
			name: "null value",
			row:  Row{RunID: 1, Period: 0, Iteration: 9, PathID: 1, FieldID: 1, CollectorID: 1},
			line: "1,0,9,1,1,1,",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.line, tt.row.Encode())
			got, err := DecodeRow(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.row, got)
		})
	}
}

func TestDecodeRow_Malformed(t *testing.T) {
	_, err := DecodeRow("1,2,3")
	var de *DecodeError
	require.ErrorAs(t, err, &de)

	_, err = DecodeRow("1,2,x,4,5,6,7")
	require.ErrorAs(t, err, &de)
}

func TestRowOf_ArgsNullValue(t *testing.T) {
	row := RowOf(11, Record{RunID: 3, Period: 1, Iteration: 2, PathID: 3, FieldID: 4, CollectorID: 5})
	assert.Equal(t, int64(11), row.RunID)

	args := row.AppendArgs(nil)
	require.Len(t, args, RowColumns)
	assert.Nil(t, args[6])
}
