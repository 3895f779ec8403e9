package vecseg

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// FilterTimestamps clears every candidate bit whose row was inserted
// after the snapshot timestamp. bits must have one bit per row, set bits
// marking the current candidates.
//
// Insertion order equals timestamp order, so when the last row is
// already visible nothing is scanned at all. Otherwise the first
// invisible offset is located by binary search and only the still-set
// bits beyond it are walked, keeping the cost proportional to the
// remaining candidates rather than the row count.
func (c *Core) FilterTimestamps(bits *bitset.BitSet, ts Timestamp) {
	timestamps := c.storage.Timestamps()
	cnt := int(bits.Len())
	if cnt == 0 {
		return
	}
	if timestamps[cnt-1] <= ts {
		// no need to filter out anything.
		return
	}

	pilot := sort.Search(cnt, func(i int) bool {
		return timestamps[i] > ts
	})

	// offsets at or beyond pilot are invisible.
	for i, ok := bits.NextSet(uint(pilot)); ok; i, ok = bits.NextSet(i + 1) {
		bits.Clear(i)
	}
}

// FilterTimestampsAt is the sparse form of FilterTimestamps: it checks
// an explicit candidate offset list and marks invisible offsets in the
// filtered-out bitset. For short candidate lists a point lookup per
// offset beats the binary search of the dense form.
func (c *Core) FilterTimestampsAt(filtered *bitset.BitSet, offsets []int64, ts Timestamp) {
	timestamps := c.storage.Timestamps()
	cnt := len(timestamps)
	if cnt == 0 {
		return
	}
	if timestamps[cnt-1] <= ts {
		// no need to filter out anything.
		return
	}

	for _, off := range offsets {
		if timestamps[off] > ts {
			filtered.Set(uint(off))
		}
	}
}
