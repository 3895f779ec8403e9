package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecseg/schema"
)

func TestFieldIDIsSystem(t *testing.T) {
	assert.True(t, schema.RowIDField.IsSystem())
	assert.True(t, schema.TimestampField.IsSystem())
	assert.True(t, schema.FieldID(99).IsSystem())
	assert.False(t, schema.StartUserFieldID.IsSystem())
	assert.False(t, schema.FieldID(-1).IsSystem())
}

func TestDataTypeProperties(t *testing.T) {
	assert.True(t, schema.TypeVarChar.IsVariable())
	assert.True(t, schema.TypeArray.IsVariable())
	assert.False(t, schema.TypeInt64.IsVariable())
	assert.False(t, schema.TypeFloatVector.IsVariable())

	assert.True(t, schema.TypeInt64.IsPrimaryKey())
	assert.True(t, schema.TypeVarChar.IsPrimaryKey())
	assert.False(t, schema.TypeDouble.IsPrimaryKey())
}

func TestFieldMetaFixedSize(t *testing.T) {
	tests := []struct {
		meta schema.FieldMeta
		want int64
	}{
		{schema.FieldMeta{Type: schema.TypeBool}, 1},
		{schema.FieldMeta{Type: schema.TypeInt8}, 1},
		{schema.FieldMeta{Type: schema.TypeInt16}, 2},
		{schema.FieldMeta{Type: schema.TypeInt32}, 4},
		{schema.FieldMeta{Type: schema.TypeFloat}, 4},
		{schema.FieldMeta{Type: schema.TypeInt64}, 8},
		{schema.FieldMeta{Type: schema.TypeDouble}, 8},
		{schema.FieldMeta{Type: schema.TypeFloatVector, Dim: 128}, 512},
		{schema.FieldMeta{Type: schema.TypeVarChar}, 0},
		{schema.FieldMeta{Type: schema.TypeArray}, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.meta.FixedSize(), tt.meta.Type.String())
	}
}

func TestNewCollection(t *testing.T) {
	coll, err := schema.NewCollection(
		schema.FieldMeta{ID: 100, Name: "id", Type: schema.TypeInt64, PrimaryKey: true},
		schema.FieldMeta{ID: 101, Name: "tag", Type: schema.TypeVarChar},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, coll.Len())
	assert.Equal(t, []schema.FieldID{100, 101}, coll.Fields())

	meta, ok := coll.Field(101)
	require.True(t, ok)
	assert.Equal(t, "tag", meta.Name)

	_, ok = coll.Field(102)
	assert.False(t, ok)

	pk, ok := coll.PrimaryFieldID()
	require.True(t, ok)
	assert.Equal(t, schema.FieldID(100), pk)
}

func TestNewCollectionValidation(t *testing.T) {
	t.Run("reserved field id", func(t *testing.T) {
		_, err := schema.NewCollection(schema.FieldMeta{ID: 1, Name: "ts", Type: schema.TypeInt64})
		assert.Error(t, err)
	})

	t.Run("duplicate field id", func(t *testing.T) {
		_, err := schema.NewCollection(
			schema.FieldMeta{ID: 100, Name: "a", Type: schema.TypeInt64},
			schema.FieldMeta{ID: 100, Name: "b", Type: schema.TypeInt64},
		)
		assert.Error(t, err)
	})

	t.Run("two primary keys", func(t *testing.T) {
		_, err := schema.NewCollection(
			schema.FieldMeta{ID: 100, Name: "a", Type: schema.TypeInt64, PrimaryKey: true},
			schema.FieldMeta{ID: 101, Name: "b", Type: schema.TypeInt64, PrimaryKey: true},
		)
		assert.Error(t, err)
	})

	t.Run("unsupported primary key type", func(t *testing.T) {
		_, err := schema.NewCollection(
			schema.FieldMeta{ID: 100, Name: "a", Type: schema.TypeDouble, PrimaryKey: true},
		)
		assert.Error(t, err)
	})

	t.Run("no primary key", func(t *testing.T) {
		coll, err := schema.NewCollection(schema.FieldMeta{ID: 100, Name: "a", Type: schema.TypeInt64})
		require.NoError(t, err)
		_, ok := coll.PrimaryFieldID()
		assert.False(t, ok)
	})
}
