package vecseg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecseg/column"
	"github.com/hupe1980/vecseg/plan"
	"github.com/hupe1980/vecseg/schema"
	"github.com/hupe1980/vecseg/skipindex"
)

// Core is the segment query orchestrator. It is implemented once and
// embedded by segment variants (growing, sealed) that supply their own
// chunk storage behind the Storage contract.
//
// A single reader/writer lock serializes the mutable bookkeeping (the
// field-size estimate table) against the query path; all query
// operations hold it shared and run in parallel with each other.
type Core struct {
	id      SegmentID
	storage Storage
	visitor PlanVisitor

	mu       sync.RWMutex
	avgSizes map[schema.FieldID]avgSizeEntry

	skip      *skipindex.SkipIndex
	indexMeta *plan.IndexMeta

	logger  *Logger
	metrics MetricsCollector
}

type avgSizeEntry struct {
	numRows int64
	avgSize int64
}

// NewCore creates the query core for one segment.
func NewCore(id SegmentID, storage Storage, visitor PlanVisitor, optFns ...Option) (*Core, error) {
	if storage == nil {
		return nil, errors.New("nil storage")
	}
	if visitor == nil {
		return nil, errors.New("nil plan visitor")
	}

	opts := options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Core{
		id:        id,
		storage:   storage,
		visitor:   visitor,
		avgSizes:  make(map[schema.FieldID]avgSizeEntry),
		skip:      skipindex.New(),
		indexMeta: opts.indexMeta,
		logger:    opts.logger.WithSegment(id),
		metrics:   opts.metrics,
	}, nil
}

// ID returns the segment's id.
func (c *Core) ID() SegmentID {
	return c.id
}

// Storage returns the segment's chunk storage. Plan visitors scan
// through it.
func (c *Core) Storage() Storage {
	return c.storage
}

// Schema returns the segment's collection schema.
func (c *Core) Schema() *schema.Collection {
	return c.storage.Schema()
}

// SkipIndex returns the segment's chunk summaries as a read-only handle
// for plan visitors.
func (c *Core) SkipIndex() *skipindex.SkipIndex {
	return c.skip
}

// Search executes a compiled search plan against the rows visible at the
// snapshot timestamp and returns their offsets and distances. Column
// data is not materialized; FillPrimaryKeys and FillTargetEntry complete
// the result after cross-segment re-ranking.
func (c *Core) Search(ctx context.Context, p *plan.SearchPlan, pg *plan.PlaceholderGroup, ts Timestamp) (*SearchResult, error) {
	start := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	res, err := c.search(ctx, p, pg, ts)

	elapsed := time.Since(start)
	c.metrics.RecordSearch(elapsed, err)
	hits := 0
	if res != nil {
		hits = len(res.Offsets)
	}
	c.logger.LogSearch(ctx, hits, elapsed, err)

	return res, err
}

func (c *Core) search(ctx context.Context, p *plan.SearchPlan, pg *plan.PlaceholderGroup, ts Timestamp) (*SearchResult, error) {
	if p == nil {
		return nil, ErrNilPlan
	}
	if err := c.checkMetricType(p); err != nil {
		return nil, err
	}

	hits, err := c.visitor.ExecSearch(ctx, c, p, pg, ts)
	if err != nil {
		return nil, err
	}

	return &SearchResult{
		SegmentID:   c.id,
		Offsets:     hits.Offsets,
		Distances:   hits.Distances,
		Topks:       hits.Topks,
		PrimaryKeys: &column.IDs{},
	}, nil
}

// FillPrimaryKeys resolves the result's row offsets to primary-key
// values. The result's primary-key container must be empty; filling is
// idempotent-once.
func (c *Core) FillPrimaryKeys(p *plan.SearchPlan, res *SearchResult) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if p == nil {
		return ErrNilPlan
	}
	size := len(res.Distances)
	if len(res.Offsets) != size {
		return fmt.Errorf("%w: size of result distances %d is not equal to size of offsets %d", ErrPrecondition, size, len(res.Offsets))
	}
	if res.PrimaryKeys.Len() != 0 {
		return fmt.Errorf("%w: primary keys already filled", ErrPrecondition)
	}

	pkField, ok := c.storage.Schema().PrimaryFieldID()
	if !ok {
		return ErrMissingPrimaryKey
	}
	meta, ok := c.storage.Schema().Field(pkField)
	if !ok {
		return fmt.Errorf("%w: primary key field %d", ErrInvalidFieldID, pkField)
	}
	if !meta.Type.IsPrimaryKey() {
		return &ErrUnsupportedDataType{Type: meta.Type}
	}

	data, err := c.storage.BulkSubscript(pkField, res.Offsets)
	if err != nil {
		return err
	}
	ids, err := column.ParseIDs(data)
	if err != nil {
		return err
	}

	res.PrimaryKeys = ids
	res.PKType = data.Type
	return nil
}

// FillTargetEntry materializes every output column the plan requests,
// keyed by field id. Fields are independent and fetched concurrently;
// within each field, values align to the result's offset order.
func (c *Core) FillTargetEntry(ctx context.Context, p *plan.SearchPlan, res *SearchResult) error {
	start := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	if p == nil {
		return ErrNilPlan
	}
	size := len(res.Distances)
	if len(res.Offsets) != size {
		return fmt.Errorf("%w: size of result distances %d is not equal to size of offsets %d", ErrPrecondition, size, len(res.Offsets))
	}

	if res.Output == nil {
		res.Output = make(map[schema.FieldID]*column.Data, len(p.TargetFields))
	}

	var outMu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, fieldID := range p.TargetFields {
		fieldID := fieldID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := c.storage.BulkSubscript(fieldID, res.Offsets)
			if err != nil {
				return err
			}
			outMu.Lock()
			res.Output[fieldID] = data
			outMu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	c.metrics.RecordFill(time.Since(start), err)
	c.logger.LogFill(ctx, len(p.TargetFields), size, err)
	return err
}

// Retrieve executes a compiled retrieve plan at the snapshot timestamp
// and materializes the requested columns. The projected output size is
// checked against limit before any column data is fetched; exceeding it
// fails with ErrSizeExceeded and no partial result.
func (c *Core) Retrieve(ctx context.Context, p *plan.RetrievePlan, ts Timestamp, limit int64) (*RetrieveResult, error) {
	start := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	res, err := c.retrieve(ctx, p, ts, limit)

	elapsed := time.Since(start)
	rows := 0
	if res != nil {
		rows = len(res.Offsets)
	}
	c.metrics.RecordRetrieve(rows, elapsed, err)
	c.logger.LogRetrieve(ctx, rows, elapsed, err)

	return res, err
}

func (c *Core) retrieve(ctx context.Context, p *plan.RetrievePlan, ts Timestamp, limit int64) (*RetrieveResult, error) {
	if p == nil {
		return nil, ErrNilPlan
	}

	hits, err := c.visitor.ExecRetrieve(ctx, c, p, ts)
	if err != nil {
		return nil, err
	}

	rows := int64(len(hits.Offsets))
	var projected int64
	for _, fieldID := range p.Fields {
		avg, err := c.fieldAvgSize(fieldID)
		if err != nil {
			return nil, err
		}
		projected += avg * rows
	}
	if projected > limit {
		return nil, &ErrSizeExceeded{Projected: projected, Limit: limit}
	}

	if p.IsCount {
		if len(hits.Fields) != 1 {
			return nil, fmt.Errorf("%w: count result should only have one column, got %d", ErrPrecondition, len(hits.Fields))
		}
		return &RetrieveResult{Fields: hits.Fields}, nil
	}

	res := &RetrieveResult{
		Offsets: append([]int64(nil), hits.Offsets...),
		Fields:  make([]*column.Data, 0, len(p.Fields)),
		IDs:     &column.IDs{},
	}

	pkField, hasPK := c.storage.Schema().PrimaryFieldID()
	for _, fieldID := range p.Fields {
		if fieldID.IsSystem() {
			data, err := c.systemColumn(fieldID, hits.Offsets)
			if err != nil {
				return nil, err
			}
			res.Fields = append(res.Fields, data)
			continue
		}

		meta, ok := c.storage.Schema().Field(fieldID)
		if !ok {
			return nil, fmt.Errorf("%w: field %d", ErrInvalidFieldID, fieldID)
		}

		data, err := c.storage.BulkSubscript(fieldID, hits.Offsets)
		if err != nil {
			return nil, err
		}
		if meta.Type == schema.TypeArray {
			// The element type is not recoverable from the raw payload.
			data.ElementType = meta.ElementType
		}
		res.Fields = append(res.Fields, data)

		if hasPK && fieldID == pkField {
			switch meta.Type {
			case schema.TypeInt64:
				res.IDs = &column.IDs{
					Type:   schema.TypeInt64,
					Int64s: append([]int64(nil), data.Int64s...),
				}
			case schema.TypeVarChar:
				res.IDs = &column.IDs{
					Type:    schema.TypeVarChar,
					Strings: append([]string(nil), data.Strings...),
				}
			default:
				return nil, &ErrUnsupportedDataType{Type: meta.Type}
			}
		}
	}

	return res, nil
}

// systemColumn synthesizes an integer column for a system field from the
// segment's bookkeeping arrays instead of chunk storage.
func (c *Core) systemColumn(fieldID schema.FieldID, offsets []int64) (*column.Data, error) {
	out := make([]int64, len(offsets))
	switch fieldID {
	case schema.RowIDField:
		rowIDs := c.storage.RowIDs()
		for i, off := range offsets {
			out[i] = rowIDs[off]
		}
	case schema.TimestampField:
		timestamps := c.storage.Timestamps()
		for i, off := range offsets {
			out[i] = int64(timestamps[off])
		}
	default:
		return nil, fmt.Errorf("%w: unsupported system field %d", ErrInvalidFieldID, fieldID)
	}

	return &column.Data{
		Field:  fieldID,
		Type:   schema.TypeInt64,
		Int64s: out,
	}, nil
}

// RealCount returns the number of live rows by running a count-only
// retrieval at the latest possible snapshot with an unbounded budget.
// The count is recomputed rather than maintained as a second counter.
func (c *Core) RealCount(ctx context.Context) (int64, error) {
	p := &plan.RetrievePlan{
		Schema:  c.storage.Schema(),
		IsCount: true,
	}

	res, err := c.Retrieve(ctx, p, MaxTimestamp, math.MaxInt64)
	if err != nil {
		return 0, err
	}
	if len(res.Fields) != 1 {
		return 0, fmt.Errorf("%w: count result should only have one column, got %d", ErrPrecondition, len(res.Fields))
	}
	data := res.Fields[0]
	if data.Type != schema.TypeInt64 {
		return 0, fmt.Errorf("%w: count result should match long data, got %s", ErrPrecondition, data.Type)
	}
	if len(data.Int64s) != 1 {
		return 0, fmt.Errorf("%w: count result should only have one row, got %d", ErrPrecondition, len(data.Int64s))
	}
	return data.Int64s[0], nil
}

// checkMetricType validates the plan's similarity metric against the
// target field's index. An empty requested metric adopts the index's
// configured metric; a non-empty mismatch is a configuration error.
func (c *Core) checkMetricType(p *plan.SearchPlan) error {
	if c.indexMeta == nil {
		return nil
	}

	fieldMeta, err := c.indexMeta.FieldIndexMeta(p.Info.Field)
	if err != nil {
		return err
	}
	if p.Info.Metric == "" {
		p.Info.Metric = fieldMeta.Metric
		return nil
	}
	if p.Info.Metric != fieldMeta.Metric {
		return &ErrMetricMismatch{Expected: fieldMeta.Metric, Actual: p.Info.Metric}
	}
	return nil
}

// LoadPrimitiveSkipIndex records the chunk summary of a fixed-width
// chunk. Called by the load path when a chunk is published.
func (c *Core) LoadPrimitiveSkipIndex(fieldID schema.FieldID, chunk int64, data *column.Data) error {
	return c.skip.LoadPrimitive(fieldID, chunk, data)
}

// LoadStringSkipIndex records the chunk summary of a variable-length
// string chunk.
func (c *Core) LoadStringSkipIndex(fieldID schema.FieldID, chunk int64, values []string) error {
	return c.skip.LoadString(fieldID, chunk, values)
}
