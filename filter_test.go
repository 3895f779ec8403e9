package vecseg_test

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecseg"
)

func TestFilterTimestampsDense(t *testing.T) {
	g := newSegment(t, 1)
	insertRows(t, g, []int64{1, 2, 3}, []vecseg.Timestamp{10, 20, 30})

	bits := bitset.New(3)
	bits.FlipRange(0, 3)
	g.FilterTimestamps(bits, 20)

	assert.True(t, bits.Test(0))
	assert.True(t, bits.Test(1))
	assert.False(t, bits.Test(2))
}

func TestFilterTimestampsFastExit(t *testing.T) {
	g := newSegment(t, 1)
	insertRows(t, g, []int64{1, 2, 3}, []vecseg.Timestamp{10, 20, 30})

	t.Run("last row visible", func(t *testing.T) {
		bits := bitset.New(3)
		bits.FlipRange(0, 3)
		g.FilterTimestamps(bits, 30)
		assert.Equal(t, uint(3), bits.Count())
	})

	t.Run("max snapshot", func(t *testing.T) {
		bits := bitset.New(3)
		bits.FlipRange(0, 3)
		g.FilterTimestamps(bits, vecseg.MaxTimestamp)
		assert.Equal(t, uint(3), bits.Count())
	})
}

func TestFilterTimestampsKeepsClearedBits(t *testing.T) {
	g := newSegment(t, 1)
	insertRows(t, g, []int64{1, 2, 3}, []vecseg.Timestamp{10, 20, 30})

	// A predicate already rejected offset 0; the visibility pass must not
	// resurrect it.
	bits := bitset.New(3)
	bits.Set(1)
	bits.Set(2)
	g.FilterTimestamps(bits, 10)

	assert.Equal(t, uint(0), bits.Count())
}

func TestFilterTimestampsEmpty(t *testing.T) {
	g := newSegment(t, 1)

	bits := bitset.New(0)
	g.FilterTimestamps(bits, 0)
	assert.Equal(t, uint(0), bits.Count())
}

func TestFilterTimestampsAt(t *testing.T) {
	g := newSegment(t, 1)
	insertRows(t, g, []int64{1, 2, 3}, []vecseg.Timestamp{10, 20, 30})

	filtered := bitset.New(3)
	g.FilterTimestampsAt(filtered, []int64{0, 2}, 15)

	assert.False(t, filtered.Test(0))
	assert.True(t, filtered.Test(2))
	assert.Equal(t, uint(1), filtered.Count())
}

func TestFilterTimestampsAtFastExit(t *testing.T) {
	g := newSegment(t, 1)
	insertRows(t, g, []int64{1, 2, 3}, []vecseg.Timestamp{10, 20, 30})

	filtered := bitset.New(3)
	g.FilterTimestampsAt(filtered, []int64{0, 1, 2}, 30)
	assert.Equal(t, uint(0), filtered.Count())
}

// The dense and sparse filters must agree on visibility for every
// snapshot position, including duplicated timestamps.
func TestFilterFormsAgree(t *testing.T) {
	timestamps := []vecseg.Timestamp{5, 5, 10, 15, 20, 20, 25}
	ids := make([]int64, len(timestamps))
	offsets := make([]int64, len(timestamps))
	for i := range ids {
		ids[i] = int64(i + 1)
		offsets[i] = int64(i)
	}

	g := newSegment(t, 1)
	insertRows(t, g, ids, timestamps)

	for _, ts := range []vecseg.Timestamp{0, 4, 5, 9, 10, 15, 19, 20, 25, 100} {
		rows := uint(len(timestamps))

		dense := bitset.New(rows)
		dense.FlipRange(0, rows)
		g.FilterTimestamps(dense, ts)

		filtered := bitset.New(rows)
		g.FilterTimestampsAt(filtered, offsets, ts)

		for i := uint(0); i < rows; i++ {
			require.Equal(t, dense.Test(i), !filtered.Test(i), "offset %d at snapshot %d", i, ts)
		}
	}
}
