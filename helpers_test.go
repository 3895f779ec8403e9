package vecseg_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecseg"
	"github.com/hupe1980/vecseg/column"
	"github.com/hupe1980/vecseg/exec"
	"github.com/hupe1980/vecseg/memseg"
	"github.com/hupe1980/vecseg/schema"
)

const (
	fieldID    schema.FieldID = 100
	fieldTag   schema.FieldID = 101
	fieldVec   schema.FieldID = 102
	fieldScore schema.FieldID = 103
	fieldAttr  schema.FieldID = 104
)

func testSchema(t *testing.T) *schema.Collection {
	t.Helper()

	coll, err := schema.NewCollection(
		schema.FieldMeta{ID: fieldID, Name: "id", Type: schema.TypeInt64, PrimaryKey: true},
		schema.FieldMeta{ID: fieldTag, Name: "tag", Type: schema.TypeVarChar},
		schema.FieldMeta{ID: fieldVec, Name: "embedding", Type: schema.TypeFloatVector, Dim: 2},
		schema.FieldMeta{ID: fieldScore, Name: "score", Type: schema.TypeDouble},
		schema.FieldMeta{ID: fieldAttr, Name: "attrs", Type: schema.TypeArray, ElementType: schema.TypeInt64},
	)
	require.NoError(t, err)
	return coll
}

func newSegment(t *testing.T, id vecseg.SegmentID, optFns ...func(*memseg.Options)) *memseg.Growing {
	t.Helper()

	g, err := memseg.NewGrowing(id, testSchema(t), exec.NewVisitor(), optFns...)
	require.NoError(t, err)
	return g
}

// insertRows appends one row per id, with ids doubling as row ids and
// deterministic per-id values in every column.
func insertRows(t *testing.T, g *memseg.Growing, ids []int64, timestamps []vecseg.Timestamp) {
	t.Helper()

	n := len(ids)
	tags := make([]string, n)
	scores := make([]float64, n)
	vecs := make([][]float32, n)
	arrs := make([]column.Array, n)
	for i, id := range ids {
		tags[i] = fmt.Sprintf("tag-%03d", id)
		scores[i] = float64(id) / 2
		vecs[i] = []float32{float32(id), float32(id)}
		arrs[i] = column.Array{ElementType: schema.TypeInt64, Int64s: []int64{id, id * 10}}
	}

	cols := map[schema.FieldID]*column.Data{
		fieldID:    {Field: fieldID, Type: schema.TypeInt64, Int64s: ids},
		fieldTag:   {Field: fieldTag, Type: schema.TypeVarChar, Strings: tags},
		fieldVec:   {Field: fieldVec, Type: schema.TypeFloatVector, Vectors: vecs},
		fieldScore: {Field: fieldScore, Type: schema.TypeDouble, Float64s: scores},
		fieldAttr:  {Field: fieldAttr, Type: schema.TypeArray, ElementType: schema.TypeInt64, Arrays: arrs},
	}
	require.NoError(t, g.Insert(ids, timestamps, cols))
}
