package column_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecseg/column"
	"github.com/hupe1980/vecseg/schema"
)

func TestDataLen(t *testing.T) {
	tests := []struct {
		name string
		data *column.Data
		want int
	}{
		{"bool", &column.Data{Type: schema.TypeBool, Bools: []bool{true, false}}, 2},
		{"int64", &column.Data{Type: schema.TypeInt64, Int64s: []int64{1, 2, 3}}, 3},
		{"double", &column.Data{Type: schema.TypeDouble, Float64s: []float64{1.5}}, 1},
		{"varchar", &column.Data{Type: schema.TypeVarChar, Strings: []string{"a", "b"}}, 2},
		{"array", &column.Data{Type: schema.TypeArray, Arrays: []column.Array{{}}}, 1},
		{"vector", &column.Data{Type: schema.TypeFloatVector, Vectors: [][]float32{{1}, {2}}}, 2},
		{"none", &column.Data{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.data.Len())
		})
	}
}

func TestArrayLen(t *testing.T) {
	assert.Equal(t, 2, column.Array{ElementType: schema.TypeInt64, Int64s: []int64{1, 2}}.Len())
	assert.Equal(t, 3, column.Array{ElementType: schema.TypeVarChar, Strings: []string{"a", "b", "c"}}.Len())
}

func TestIDsLen(t *testing.T) {
	var nilIDs *column.IDs
	assert.Equal(t, 0, nilIDs.Len())
	assert.Equal(t, 0, (&column.IDs{}).Len())
	assert.Equal(t, 2, (&column.IDs{Type: schema.TypeInt64, Int64s: []int64{1, 2}}).Len())
	assert.Equal(t, 1, (&column.IDs{Type: schema.TypeVarChar, Strings: []string{"k"}}).Len())
}

func TestParseIDs(t *testing.T) {
	t.Run("int64", func(t *testing.T) {
		src := &column.Data{Type: schema.TypeInt64, Int64s: []int64{4, 5}}
		ids, err := column.ParseIDs(src)
		require.NoError(t, err)
		assert.Equal(t, schema.TypeInt64, ids.Type)
		assert.Equal(t, []int64{4, 5}, ids.Int64s)

		// The container owns its values.
		src.Int64s[0] = 99
		assert.Equal(t, int64(4), ids.Int64s[0])
	})

	t.Run("varchar", func(t *testing.T) {
		ids, err := column.ParseIDs(&column.Data{Type: schema.TypeVarChar, Strings: []string{"x"}})
		require.NoError(t, err)
		assert.Equal(t, schema.TypeVarChar, ids.Type)
		assert.Equal(t, []string{"x"}, ids.Strings)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := column.ParseIDs(&column.Data{Type: schema.TypeDouble, Float64s: []float64{1}})
		assert.Error(t, err)
	})
}
