package skipindex

import (
	"fmt"
	"sync"

	"github.com/hupe1980/vecseg/column"
	"github.com/hupe1980/vecseg/plan"
	"github.com/hupe1980/vecseg/schema"
)

// Stats is the chunk-level summary recorded for one (field, chunk) pair.
// It is written once when the chunk is loaded and read-only afterwards.
type Stats struct {
	Type     schema.DataType
	RowCount int64

	MinInt64   int64
	MaxInt64   int64
	MinFloat64 float64
	MaxFloat64 float64
	MinString  string
	MaxString  string
}

// MaybeMatchInt64 reports whether any row of the chunk can satisfy the
// comparison against v. False means the whole chunk can be skipped.
func (s Stats) MaybeMatchInt64(op plan.CompareOp, v int64) bool {
	switch op {
	case plan.OpEq:
		return v >= s.MinInt64 && v <= s.MaxInt64
	case plan.OpLt:
		return s.MinInt64 < v
	case plan.OpLe:
		return s.MinInt64 <= v
	case plan.OpGt:
		return s.MaxInt64 > v
	case plan.OpGe:
		return s.MaxInt64 >= v
	default:
		return true
	}
}

// MaybeMatchFloat64 is the float counterpart of MaybeMatchInt64.
func (s Stats) MaybeMatchFloat64(op plan.CompareOp, v float64) bool {
	switch op {
	case plan.OpEq:
		return v >= s.MinFloat64 && v <= s.MaxFloat64
	case plan.OpLt:
		return s.MinFloat64 < v
	case plan.OpLe:
		return s.MinFloat64 <= v
	case plan.OpGt:
		return s.MaxFloat64 > v
	case plan.OpGe:
		return s.MaxFloat64 >= v
	default:
		return true
	}
}

// MaybeMatchString is the string counterpart of MaybeMatchInt64.
func (s Stats) MaybeMatchString(op plan.CompareOp, v string) bool {
	switch op {
	case plan.OpEq:
		return v >= s.MinString && v <= s.MaxString
	case plan.OpLt:
		return s.MinString < v
	case plan.OpLe:
		return s.MinString <= v
	case plan.OpGt:
		return s.MaxString > v
	case plan.OpGe:
		return s.MaxString >= v
	default:
		return true
	}
}

type chunkKey struct {
	field schema.FieldID
	chunk int64
}

// SkipIndex holds per (field, chunk) min/max summaries used by plan
// executors to skip whole chunks without scanning values.
type SkipIndex struct {
	mu    sync.RWMutex
	stats map[chunkKey]Stats
}

// New creates an empty SkipIndex.
func New() *SkipIndex {
	return &SkipIndex{stats: make(map[chunkKey]Stats)}
}

// Chunk returns the recorded summary for a (field, chunk) pair.
func (s *SkipIndex) Chunk(field schema.FieldID, chunk int64) (Stats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stats[chunkKey{field: field, chunk: chunk}]
	return st, ok
}

// LoadPrimitive records the summary of a fixed-width chunk.
// The column's type decides which min/max pair is populated.
func (s *SkipIndex) LoadPrimitive(field schema.FieldID, chunk int64, data *column.Data) error {
	st := Stats{Type: data.Type, RowCount: int64(data.Len())}

	switch data.Type {
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64:
		if len(data.Int64s) == 0 {
			return fmt.Errorf("empty %s chunk for field %d", data.Type, field)
		}
		st.MinInt64, st.MaxInt64 = data.Int64s[0], data.Int64s[0]
		for _, v := range data.Int64s[1:] {
			if v < st.MinInt64 {
				st.MinInt64 = v
			}
			if v > st.MaxInt64 {
				st.MaxInt64 = v
			}
		}
	case schema.TypeFloat, schema.TypeDouble:
		if len(data.Float64s) == 0 {
			return fmt.Errorf("empty %s chunk for field %d", data.Type, field)
		}
		st.MinFloat64, st.MaxFloat64 = data.Float64s[0], data.Float64s[0]
		for _, v := range data.Float64s[1:] {
			if v < st.MinFloat64 {
				st.MinFloat64 = v
			}
			if v > st.MaxFloat64 {
				st.MaxFloat64 = v
			}
		}
	default:
		return fmt.Errorf("cannot load primitive skip index from %s chunk", data.Type)
	}

	s.put(chunkKey{field: field, chunk: chunk}, st)
	return nil
}

// LoadString records the summary of a variable-length string chunk.
func (s *SkipIndex) LoadString(field schema.FieldID, chunk int64, values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("empty string chunk for field %d", field)
	}

	st := Stats{Type: schema.TypeVarChar, RowCount: int64(len(values))}
	st.MinString, st.MaxString = values[0], values[0]
	for _, v := range values[1:] {
		if v < st.MinString {
			st.MinString = v
		}
		if v > st.MaxString {
			st.MaxString = v
		}
	}

	s.put(chunkKey{field: field, chunk: chunk}, st)
	return nil
}

func (s *SkipIndex) put(key chunkKey, st Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[key] = st
}
