package vecseg

import (
	"context"
	"math"

	"github.com/hupe1980/vecseg/column"
	"github.com/hupe1980/vecseg/plan"
	"github.com/hupe1980/vecseg/schema"
)

// Timestamp is the insertion time of a row and the snapshot time of a
// query. Rows inserted after a query's snapshot are invisible to it.
type Timestamp uint64

// MaxTimestamp is the latest possible snapshot; every row is visible.
const MaxTimestamp Timestamp = math.MaxUint64

// SegmentID identifies a segment within the owning collection.
type SegmentID uint64

// Storage is the variant-specific chunk storage a Core orchestrates.
//
// Chunk data is append-only: implementations publish a chunk only once
// it is fully formed, so readers never observe a partial chunk. The
// timestamp array must be non-decreasing in offset order; the core's
// visibility filter relies on that without checking it.
type Storage interface {
	Schema() *schema.Collection

	// RowCount returns the number of published rows.
	RowCount() int64

	// Timestamps returns the per-row insertion timestamps, one per
	// published row, in offset order.
	Timestamps() []Timestamp

	// RowIDs returns the per-row synthetic row ids, in offset order.
	RowIDs() []int64

	// BulkSubscript resolves offsets to column values, in offset-list
	// order, across chunk boundaries.
	BulkSubscript(field schema.FieldID, offsets []int64) (*column.Data, error)
}

// SearchHits is the raw outcome of executing a search plan: matching row
// offsets and their distances, flattened over the placeholder group's
// query vectors with Topks giving the per-vector row counts.
type SearchHits struct {
	Offsets   []int64
	Distances []float32
	Topks     []int
}

// RetrieveHits is the raw outcome of executing a retrieve plan. For
// count plans Fields holds exactly one synthetic scalar column and
// Offsets is empty.
type RetrieveHits struct {
	Offsets []int64
	Fields  []*column.Data
}

// PlanVisitor executes compiled plans against a segment. Implementations
// must apply visibility filtering (via the segment's FilterTimestamps /
// FilterTimestampsAt) and may prune chunks through its SkipIndex.
type PlanVisitor interface {
	ExecSearch(ctx context.Context, seg *Core, p *plan.SearchPlan, pg *plan.PlaceholderGroup, ts Timestamp) (*SearchHits, error)
	ExecRetrieve(ctx context.Context, seg *Core, p *plan.RetrievePlan, ts Timestamp) (*RetrieveHits, error)
}

// SearchResult is the transient outcome of Search, owned by the caller.
//
// It carries the owning segment's id rather than a live reference; a
// Registry resolves the id when the coordinator materializes columns
// after cross-segment re-ranking.
type SearchResult struct {
	SegmentID SegmentID

	Offsets   []int64
	Distances []float32
	Topks     []int

	// PrimaryKeys is populated by FillPrimaryKeys, which requires it to
	// start empty.
	PrimaryKeys *column.IDs
	PKType      schema.DataType

	// Output is populated by FillTargetEntry, keyed by field id.
	Output map[schema.FieldID]*column.Data
}

// RetrieveResult is the transient outcome of Retrieve. A count-only
// retrieval carries exactly one scalar column with exactly one row and
// no offsets.
type RetrieveResult struct {
	Offsets []int64
	Fields  []*column.Data
	IDs     *column.IDs
}
