package memseg

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/vecseg"
	"github.com/hupe1980/vecseg/column"
	"github.com/hupe1980/vecseg/schema"
)

// DefaultChunkSize is the number of rows per chunk.
const DefaultChunkSize = 1024

var (
	// ErrTimestampOrder is returned when an insert batch would break the
	// non-decreasing timestamp invariant the query core relies on.
	ErrTimestampOrder = errors.New("timestamps must be non-decreasing")

	// ErrRowMismatch is returned when the arrays of an insert batch
	// disagree on the row count.
	ErrRowMismatch = errors.New("insert batch row counts do not match")

	// ErrOffsetOutOfRange is returned when a bulk subscript addresses a
	// row beyond the published row count.
	ErrOffsetOutOfRange = errors.New("row offset out of range")
)

// Options configures a growing segment.
type Options struct {
	// ChunkSize is the number of rows per chunk.
	ChunkSize int

	// CoreOptions are passed through to the query core.
	CoreOptions []vecseg.Option
}

// Growing is the mutable in-memory segment variant: rows are appended by
// the load path and immediately queryable through the embedded Core.
//
// A segment-local lock guards the chunk bookkeeping so readers never
// observe a half-appended batch; the query core's own lock only covers
// its estimator table.
type Growing struct {
	*vecseg.Core

	coll      *schema.Collection
	chunkSize int

	mu         sync.RWMutex
	rowIDs     []int64
	timestamps []vecseg.Timestamp
	fields     map[schema.FieldID]*fieldChunks
}

type fieldChunks struct {
	meta   schema.FieldMeta
	chunks []*column.Data
}

// NewGrowing creates an empty growing segment for the collection schema.
func NewGrowing(id vecseg.SegmentID, coll *schema.Collection, visitor vecseg.PlanVisitor, optFns ...func(*Options)) (*Growing, error) {
	if coll == nil {
		return nil, errors.New("nil schema")
	}

	opts := Options{
		ChunkSize: DefaultChunkSize,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", opts.ChunkSize)
	}

	g := &Growing{
		coll:      coll,
		chunkSize: opts.ChunkSize,
		fields:    make(map[schema.FieldID]*fieldChunks, coll.Len()),
	}
	for _, fieldID := range coll.Fields() {
		meta, _ := coll.Field(fieldID)
		g.fields[fieldID] = &fieldChunks{meta: meta}
	}

	core, err := vecseg.NewCore(id, g, visitor, opts.CoreOptions...)
	if err != nil {
		return nil, err
	}
	g.Core = core

	return g, nil
}

// Schema implements vecseg.Storage.
func (g *Growing) Schema() *schema.Collection {
	return g.coll
}

// RowCount implements vecseg.Storage.
func (g *Growing) RowCount() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return int64(len(g.timestamps))
}

// Timestamps implements vecseg.Storage. The returned slice is a
// consistent snapshot; later appends never mutate it.
func (g *Growing) Timestamps() []vecseg.Timestamp {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.timestamps
}

// RowIDs implements vecseg.Storage.
func (g *Growing) RowIDs() []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.rowIDs
}

// NumChunks returns the number of chunks currently holding rows of the
// field, including a trailing partial chunk.
func (g *Growing) NumChunks(fieldID schema.FieldID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	fc, ok := g.fields[fieldID]
	if !ok {
		return 0
	}
	return len(fc.chunks)
}

// ChunkSize returns the configured rows-per-chunk.
func (g *Growing) ChunkSize() int {
	return g.chunkSize
}

// Chunk returns the raw column data of one chunk of a field.
// Plan visitors scan through it.
func (g *Growing) Chunk(fieldID schema.FieldID, chunk int) (*column.Data, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	fc, ok := g.fields[fieldID]
	if !ok {
		return nil, fmt.Errorf("%w: field %d", vecseg.ErrInvalidFieldID, fieldID)
	}
	if chunk < 0 || chunk >= len(fc.chunks) {
		return nil, fmt.Errorf("chunk %d out of range for field %d", chunk, fieldID)
	}
	return fc.chunks[chunk], nil
}

// Insert appends a batch of fully-formed rows. cols must carry one
// column per schema field, all aligned to rowIDs/timestamps order, and
// the batch's timestamps must not precede the last published row.
//
// Chunk summaries and field-size estimates are maintained as a side
// effect, so the batch is prunable and budgetable as soon as Insert
// returns.
func (g *Growing) Insert(rowIDs []int64, timestamps []vecseg.Timestamp, cols map[schema.FieldID]*column.Data) error {
	n := len(rowIDs)
	if n == 0 {
		return nil
	}
	if len(timestamps) != n {
		return fmt.Errorf("%w: %d row ids, %d timestamps", ErrRowMismatch, n, len(timestamps))
	}
	for i := 1; i < n; i++ {
		if timestamps[i] < timestamps[i-1] {
			return ErrTimestampOrder
		}
	}
	for _, fieldID := range g.coll.Fields() {
		data, ok := cols[fieldID]
		if !ok {
			return fmt.Errorf("missing column for field %d", fieldID)
		}
		meta, _ := g.coll.Field(fieldID)
		if data.Type != meta.Type {
			return fmt.Errorf("field %d: column type %s does not match schema type %s", fieldID, data.Type, meta.Type)
		}
		if data.Len() != n {
			return fmt.Errorf("%w: field %d has %d rows, batch has %d", ErrRowMismatch, fieldID, data.Len(), n)
		}
	}

	if err := g.publish(rowIDs, timestamps, cols); err != nil {
		return err
	}

	// Estimator updates take the core's exclusive lock. They run after
	// the storage lock is released: queries hold the core lock while
	// reading storage, so nesting the two the other way around would
	// deadlock.
	for _, fieldID := range g.coll.Fields() {
		meta, _ := g.coll.Field(fieldID)
		if !meta.Type.IsVariable() {
			continue
		}
		size := payloadSize(cols[fieldID])
		if err := g.SetFieldAvgSize(fieldID, int64(n), size); err != nil {
			return err
		}
	}

	return nil
}

func (g *Growing) publish(rowIDs []int64, timestamps []vecseg.Timestamp, cols map[schema.FieldID]*column.Data) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.timestamps) > 0 && timestamps[0] < g.timestamps[len(g.timestamps)-1] {
		return ErrTimestampOrder
	}

	for _, fieldID := range g.coll.Fields() {
		if err := g.appendField(g.fields[fieldID], cols[fieldID]); err != nil {
			return err
		}
	}
	g.rowIDs = append(g.rowIDs, rowIDs...)
	g.timestamps = append(g.timestamps, timestamps...)
	return nil
}

// appendField distributes the batch over fixed-size chunks, loading a
// skip-index summary whenever a chunk fills up. Requires g.mu held
// exclusively.
func (g *Growing) appendField(fc *fieldChunks, src *column.Data) error {
	n := src.Len()
	for i := 0; i < n; {
		last := len(fc.chunks) - 1
		if last < 0 || fc.chunks[last].Len() == g.chunkSize {
			fc.chunks = append(fc.chunks, &column.Data{
				Field:       fc.meta.ID,
				Type:        fc.meta.Type,
				ElementType: fc.meta.ElementType,
			})
			last++
		}

		chunk := fc.chunks[last]
		room := g.chunkSize - chunk.Len()
		take := n - i
		if take > room {
			take = room
		}
		appendRange(chunk, src, i, i+take)
		i += take

		if chunk.Len() == g.chunkSize {
			if err := g.loadChunkStats(fc.meta, int64(last), chunk); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadChunkStats records the freshly filled chunk in the skip index.
// Types without a summary representation are left unindexed; pruning
// treats missing stats as "cannot skip".
func (g *Growing) loadChunkStats(meta schema.FieldMeta, chunk int64, data *column.Data) error {
	switch meta.Type {
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64,
		schema.TypeFloat, schema.TypeDouble:
		return g.LoadPrimitiveSkipIndex(meta.ID, chunk, data)
	case schema.TypeVarChar:
		return g.LoadStringSkipIndex(meta.ID, chunk, data.Strings)
	default:
		return nil
	}
}

// BulkSubscript implements vecseg.Storage and column.BulkAccessor:
// values are returned in the exact order of offsets, crossing chunk
// boundaries transparently.
func (g *Growing) BulkSubscript(fieldID schema.FieldID, offsets []int64) (*column.Data, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	fc, ok := g.fields[fieldID]
	if !ok {
		return nil, fmt.Errorf("%w: field %d", vecseg.ErrInvalidFieldID, fieldID)
	}

	rows := int64(len(g.timestamps))
	out := &column.Data{
		Field:       fieldID,
		Type:        fc.meta.Type,
		ElementType: fc.meta.ElementType,
	}
	for _, off := range offsets {
		if off < 0 || off >= rows {
			return nil, fmt.Errorf("%w: offset %d, rows %d", ErrOffsetOutOfRange, off, rows)
		}
		chunk := fc.chunks[off/int64(g.chunkSize)]
		appendRange(out, chunk, int(off%int64(g.chunkSize)), int(off%int64(g.chunkSize))+1)
	}
	return out, nil
}

// appendRange copies src rows [from, to) onto dst. Both columns must
// share a type.
func appendRange(dst, src *column.Data, from, to int) {
	switch src.Type {
	case schema.TypeBool:
		dst.Bools = append(dst.Bools, src.Bools[from:to]...)
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64:
		dst.Int64s = append(dst.Int64s, src.Int64s[from:to]...)
	case schema.TypeFloat, schema.TypeDouble:
		dst.Float64s = append(dst.Float64s, src.Float64s[from:to]...)
	case schema.TypeVarChar:
		dst.Strings = append(dst.Strings, src.Strings[from:to]...)
	case schema.TypeArray:
		dst.Arrays = append(dst.Arrays, src.Arrays[from:to]...)
	case schema.TypeFloatVector:
		dst.Vectors = append(dst.Vectors, src.Vectors[from:to]...)
	}
}

// payloadSize estimates the byte size of a variable-length column.
func payloadSize(data *column.Data) int64 {
	var size int64
	switch data.Type {
	case schema.TypeVarChar:
		for _, s := range data.Strings {
			size += int64(len(s))
		}
	case schema.TypeArray:
		for _, a := range data.Arrays {
			if a.ElementType == schema.TypeVarChar {
				for _, s := range a.Strings {
					size += int64(len(s))
				}
			} else {
				size += int64(len(a.Int64s)) * 8
			}
		}
	}
	return size
}
