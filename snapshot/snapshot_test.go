package snapshot_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecseg"
	"github.com/hupe1980/vecseg/blobstore"
	"github.com/hupe1980/vecseg/column"
	"github.com/hupe1980/vecseg/exec"
	"github.com/hupe1980/vecseg/memseg"
	"github.com/hupe1980/vecseg/schema"
	"github.com/hupe1980/vecseg/snapshot"
)

const (
	fieldID    schema.FieldID = 100
	fieldTag   schema.FieldID = 101
	fieldFlag  schema.FieldID = 102
	fieldScore schema.FieldID = 103
	fieldInts  schema.FieldID = 104
	fieldWords schema.FieldID = 105
	fieldVec   schema.FieldID = 106
)

func testSchema(t *testing.T) *schema.Collection {
	t.Helper()

	coll, err := schema.NewCollection(
		schema.FieldMeta{ID: fieldID, Name: "id", Type: schema.TypeInt64, PrimaryKey: true},
		schema.FieldMeta{ID: fieldTag, Name: "tag", Type: schema.TypeVarChar},
		schema.FieldMeta{ID: fieldFlag, Name: "flag", Type: schema.TypeBool},
		schema.FieldMeta{ID: fieldScore, Name: "score", Type: schema.TypeDouble},
		schema.FieldMeta{ID: fieldInts, Name: "ints", Type: schema.TypeArray, ElementType: schema.TypeInt64},
		schema.FieldMeta{ID: fieldWords, Name: "words", Type: schema.TypeArray, ElementType: schema.TypeVarChar},
		schema.FieldMeta{ID: fieldVec, Name: "embedding", Type: schema.TypeFloatVector, Dim: 3},
	)
	require.NoError(t, err)
	return coll
}

func newSegment(t *testing.T, rows int) *memseg.Growing {
	t.Helper()

	g, err := memseg.NewGrowing(1, testSchema(t), exec.NewVisitor())
	require.NoError(t, err)
	if rows == 0 {
		return g
	}

	ids := make([]int64, rows)
	timestamps := make([]vecseg.Timestamp, rows)
	tags := make([]string, rows)
	flags := make([]bool, rows)
	scores := make([]float64, rows)
	ints := make([]column.Array, rows)
	words := make([]column.Array, rows)
	vecs := make([][]float32, rows)
	for i := range ids {
		ids[i] = int64(i + 1)
		timestamps[i] = vecseg.Timestamp(10 * (i + 1))
		tags[i] = string(rune('a' + i%26))
		flags[i] = i%2 == 0
		scores[i] = float64(i) * 1.5
		ints[i] = column.Array{ElementType: schema.TypeInt64, Int64s: []int64{int64(i), int64(i * i)}}
		words[i] = column.Array{ElementType: schema.TypeVarChar, Strings: []string{"w", tags[i]}}
		vecs[i] = []float32{float32(i), float32(i + 1), float32(i + 2)}
	}

	require.NoError(t, g.Insert(ids, timestamps, map[schema.FieldID]*column.Data{
		fieldID:    {Field: fieldID, Type: schema.TypeInt64, Int64s: ids},
		fieldTag:   {Field: fieldTag, Type: schema.TypeVarChar, Strings: tags},
		fieldFlag:  {Field: fieldFlag, Type: schema.TypeBool, Bools: flags},
		fieldScore: {Field: fieldScore, Type: schema.TypeDouble, Float64s: scores},
		fieldInts:  {Field: fieldInts, Type: schema.TypeArray, ElementType: schema.TypeInt64, Arrays: ints},
		fieldWords: {Field: fieldWords, Type: schema.TypeArray, ElementType: schema.TypeVarChar, Arrays: words},
		fieldVec:   {Field: fieldVec, Type: schema.TypeFloatVector, Vectors: vecs},
	}))
	return g
}

func TestRoundTrip(t *testing.T) {
	for _, codec := range []snapshot.Codec{snapshot.CodecNone, snapshot.CodecLZ4, snapshot.CodecZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			src := newSegment(t, 50)

			var buf bytes.Buffer
			require.NoError(t, snapshot.Write(&buf, src, codec))

			restored, err := snapshot.Read(bytes.NewReader(buf.Bytes()), 2, exec.NewVisitor())
			require.NoError(t, err)

			assert.Equal(t, vecseg.SegmentID(2), restored.ID())
			require.Equal(t, src.RowCount(), restored.RowCount())
			assert.Equal(t, src.RowIDs(), restored.RowIDs())
			assert.Equal(t, src.Timestamps(), restored.Timestamps())

			offsets := make([]int64, src.RowCount())
			for i := range offsets {
				offsets[i] = int64(i)
			}
			for _, field := range src.Schema().Fields() {
				want, err := src.BulkSubscript(field, offsets)
				require.NoError(t, err)
				got, err := restored.BulkSubscript(field, offsets)
				require.NoError(t, err)
				assert.Equal(t, want, got, "field %d", field)
			}
		})
	}
}

func TestRoundTripEmptySegment(t *testing.T) {
	src := newSegment(t, 0)

	var buf bytes.Buffer
	require.NoError(t, snapshot.Write(&buf, src, snapshot.CodecZstd))

	restored, err := snapshot.Read(bytes.NewReader(buf.Bytes()), 2, exec.NewVisitor())
	require.NoError(t, err)
	assert.Equal(t, int64(0), restored.RowCount())
	assert.Equal(t, src.Schema().Fields(), restored.Schema().Fields())
}

func TestReadRejectsCorruption(t *testing.T) {
	src := newSegment(t, 10)

	var buf bytes.Buffer
	require.NoError(t, snapshot.Write(&buf, src, snapshot.CodecNone))
	raw := buf.Bytes()

	t.Run("bad magic", func(t *testing.T) {
		data := append([]byte(nil), raw...)
		data[0] ^= 0xff
		_, err := snapshot.Read(bytes.NewReader(data), 2, exec.NewVisitor())
		assert.Error(t, err)
	})

	t.Run("bad version", func(t *testing.T) {
		data := append([]byte(nil), raw...)
		data[4] = 0xee
		_, err := snapshot.Read(bytes.NewReader(data), 2, exec.NewVisitor())
		assert.Error(t, err)
	})

	t.Run("flipped checksum", func(t *testing.T) {
		data := append([]byte(nil), raw...)
		data[len(data)-1] ^= 0xff
		_, err := snapshot.Read(bytes.NewReader(data), 2, exec.NewVisitor())
		assert.ErrorIs(t, err, snapshot.ErrChecksum)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := snapshot.Read(bytes.NewReader(raw[:len(raw)/2]), 2, exec.NewVisitor())
		assert.Error(t, err)
	})
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	src := newSegment(t, 20)

	require.NoError(t, snapshot.Save(ctx, store, "segments/1", src, snapshot.CodecLZ4))

	restored, err := snapshot.Load(ctx, store, "segments/1", 3, exec.NewVisitor())
	require.NoError(t, err)
	assert.Equal(t, src.RowCount(), restored.RowCount())

	t.Run("missing blob", func(t *testing.T) {
		_, err := snapshot.Load(ctx, store, "segments/404", 3, exec.NewVisitor())
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}
