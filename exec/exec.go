package exec

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/vecseg"
	"github.com/hupe1980/vecseg/column"
	"github.com/hupe1980/vecseg/plan"
	"github.com/hupe1980/vecseg/schema"
	"github.com/hupe1980/vecseg/skipindex"
)

var (
	// ErrInvalidTopK is returned when a search plan requests a
	// non-positive number of neighbors.
	ErrInvalidTopK = errors.New("topk must be positive")

	// ErrUnsupportedMetric is returned for metrics the brute-force
	// executor cannot compute.
	ErrUnsupportedMetric = errors.New("unsupported metric type")
)

// ChunkReader is the optional chunk-scan surface of a storage variant.
// When available, predicate evaluation walks chunks and prunes them
// through the segment's skip index instead of bulk-fetching the column.
type ChunkReader interface {
	NumChunks(fieldID schema.FieldID) int
	ChunkSize() int
	Chunk(fieldID schema.FieldID, chunk int) (*column.Data, error)
}

// Visitor is a reference plan executor: exact distance scans and scalar
// range predicates, with no index structures beyond the skip index.
//
// It honors snapshot visibility through the segment's dense and sparse
// timestamp filters: the dense form when every row is a candidate, the
// sparse form when a selective predicate already shrank the set.
type Visitor struct{}

// NewVisitor creates a brute-force plan visitor.
func NewVisitor() *Visitor {
	return &Visitor{}
}

// ExecSearch implements vecseg.PlanVisitor.
func (v *Visitor) ExecSearch(ctx context.Context, seg *vecseg.Core, p *plan.SearchPlan, pg *plan.PlaceholderGroup, ts vecseg.Timestamp) (*vecseg.SearchHits, error) {
	if p.Info.TopK <= 0 {
		return nil, ErrInvalidTopK
	}
	metric := p.Info.Metric
	if metric == "" {
		metric = plan.MetricL2
	}
	if metric != plan.MetricL2 && metric != plan.MetricIP {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMetric, metric)
	}

	offsets, err := v.visibleOffsets(ctx, seg, p.Predicate, ts)
	if err != nil {
		return nil, err
	}

	hits := &vecseg.SearchHits{
		Topks: make([]int, len(pg.Vectors)),
	}
	if len(offsets) == 0 {
		return hits, nil
	}

	vectors, err := seg.Storage().BulkSubscript(p.Info.Field, offsets)
	if err != nil {
		return nil, err
	}
	if vectors.Type != schema.TypeFloatVector {
		return nil, fmt.Errorf("field %d is not a vector field", p.Info.Field)
	}

	type scored struct {
		offset   int64
		distance float32
	}
	for qi, q := range pg.Vectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cands := make([]scored, len(offsets))
		for i, off := range offsets {
			cands[i] = scored{offset: off, distance: distance(metric, q, vectors.Vectors[i])}
		}
		if metric == plan.MetricIP {
			// Larger inner product is a better match.
			sort.Slice(cands, func(i, j int) bool { return cands[i].distance > cands[j].distance })
		} else {
			sort.Slice(cands, func(i, j int) bool { return cands[i].distance < cands[j].distance })
		}

		k := p.Info.TopK
		if k > len(cands) {
			k = len(cands)
		}
		hits.Topks[qi] = k
		for _, c := range cands[:k] {
			hits.Offsets = append(hits.Offsets, c.offset)
			hits.Distances = append(hits.Distances, c.distance)
		}
	}

	return hits, nil
}

// ExecRetrieve implements vecseg.PlanVisitor.
func (v *Visitor) ExecRetrieve(ctx context.Context, seg *vecseg.Core, p *plan.RetrievePlan, ts vecseg.Timestamp) (*vecseg.RetrieveHits, error) {
	offsets, err := v.visibleOffsets(ctx, seg, p.Predicate, ts)
	if err != nil {
		return nil, err
	}

	if p.IsCount {
		return &vecseg.RetrieveHits{
			Fields: []*column.Data{{
				Type:   schema.TypeInt64,
				Int64s: []int64{int64(len(offsets))},
			}},
		}, nil
	}

	return &vecseg.RetrieveHits{Offsets: offsets}, nil
}

// visibleOffsets resolves the predicate (if any) and the snapshot into
// the matched row offsets, ascending.
func (v *Visitor) visibleOffsets(ctx context.Context, seg *vecseg.Core, pred *plan.Predicate, ts vecseg.Timestamp) ([]int64, error) {
	rows := seg.Storage().RowCount()
	if rows == 0 {
		return nil, nil
	}

	if pred == nil {
		// Every row is a candidate: dense filter over a full bitset.
		bits := bitset.New(uint(rows))
		bits.FlipRange(0, uint(rows))
		seg.FilterTimestamps(bits, ts)

		out := make([]int64, 0, bits.Count())
		for i, ok := bits.NextSet(0); ok; i, ok = bits.NextSet(i + 1) {
			out = append(out, int64(i))
		}
		return out, nil
	}

	matched, err := v.evalPredicate(ctx, seg, pred, rows)
	if err != nil {
		return nil, err
	}

	// The predicate already shrank the candidate set: point-filter the
	// surviving offsets instead of binary-searching the dense form.
	offsets := make([]int64, 0, matched.GetCardinality())
	it := matched.Iterator()
	for it.HasNext() {
		offsets = append(offsets, int64(it.Next()))
	}

	filtered := bitset.New(uint(rows))
	seg.FilterTimestampsAt(filtered, offsets, ts)

	out := offsets[:0]
	for _, off := range offsets {
		if !filtered.Test(uint(off)) {
			out = append(out, off)
		}
	}
	return out, nil
}

// evalPredicate scans the predicate's column and collects matching row
// offsets. Chunked storage is pruned through the skip index; otherwise
// the whole column is fetched in one bulk subscript.
func (v *Visitor) evalPredicate(ctx context.Context, seg *vecseg.Core, pred *plan.Predicate, rows int64) (*roaring.Bitmap, error) {
	meta, ok := seg.Schema().Field(pred.Field)
	if !ok {
		return nil, fmt.Errorf("%w: field %d", vecseg.ErrInvalidFieldID, pred.Field)
	}

	matched := roaring.New()

	if cr, ok := seg.Storage().(ChunkReader); ok {
		chunkSize := int64(cr.ChunkSize())
		for ci := 0; ci < cr.NumChunks(pred.Field); ci++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if stats, ok := seg.SkipIndex().Chunk(pred.Field, int64(ci)); ok && !maybeMatch(stats, pred) {
				continue
			}
			data, err := cr.Chunk(pred.Field, ci)
			if err != nil {
				return nil, err
			}
			if err := matchColumn(matched, data, meta.Type, pred, int64(ci)*chunkSize); err != nil {
				return nil, err
			}
		}
		return matched, nil
	}

	all := make([]int64, rows)
	for i := range all {
		all[i] = int64(i)
	}
	data, err := seg.Storage().BulkSubscript(pred.Field, all)
	if err != nil {
		return nil, err
	}
	if err := matchColumn(matched, data, meta.Type, pred, 0); err != nil {
		return nil, err
	}
	return matched, nil
}

func matchColumn(matched *roaring.Bitmap, data *column.Data, typ schema.DataType, pred *plan.Predicate, base int64) error {
	switch typ {
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64:
		for i, val := range data.Int64s {
			if compareInt64(val, pred.Op, pred.Int64) {
				matched.Add(uint32(base + int64(i)))
			}
		}
	case schema.TypeFloat, schema.TypeDouble:
		for i, val := range data.Float64s {
			if compareFloat64(val, pred.Op, pred.Float64) {
				matched.Add(uint32(base + int64(i)))
			}
		}
	case schema.TypeVarChar:
		for i, val := range data.Strings {
			if compareString(val, pred.Op, pred.String) {
				matched.Add(uint32(base + int64(i)))
			}
		}
	default:
		return fmt.Errorf("predicate on %s field is not supported", typ)
	}
	return nil
}

func maybeMatch(stats skipindex.Stats, pred *plan.Predicate) bool {
	switch stats.Type {
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64:
		return stats.MaybeMatchInt64(pred.Op, pred.Int64)
	case schema.TypeFloat, schema.TypeDouble:
		return stats.MaybeMatchFloat64(pred.Op, pred.Float64)
	case schema.TypeVarChar:
		return stats.MaybeMatchString(pred.Op, pred.String)
	default:
		return true
	}
}

func compareInt64(v int64, op plan.CompareOp, rhs int64) bool {
	switch op {
	case plan.OpEq:
		return v == rhs
	case plan.OpLt:
		return v < rhs
	case plan.OpLe:
		return v <= rhs
	case plan.OpGt:
		return v > rhs
	case plan.OpGe:
		return v >= rhs
	default:
		return false
	}
}

func compareFloat64(v float64, op plan.CompareOp, rhs float64) bool {
	switch op {
	case plan.OpEq:
		return v == rhs
	case plan.OpLt:
		return v < rhs
	case plan.OpLe:
		return v <= rhs
	case plan.OpGt:
		return v > rhs
	case plan.OpGe:
		return v >= rhs
	default:
		return false
	}
}

func compareString(v string, op plan.CompareOp, rhs string) bool {
	switch op {
	case plan.OpEq:
		return v == rhs
	case plan.OpLt:
		return v < rhs
	case plan.OpLe:
		return v <= rhs
	case plan.OpGt:
		return v > rhs
	case plan.OpGe:
		return v >= rhs
	default:
		return false
	}
}

// distance computes the metric between two vectors. L2 is the squared
// euclidean distance.
func distance(metric plan.MetricType, a, b []float32) float32 {
	var sum float32
	if metric == plan.MetricIP {
		for i := range a {
			sum += a[i] * b[i]
		}
		return sum
	}
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
