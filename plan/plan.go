package plan

import (
	"fmt"

	"github.com/hupe1980/vecseg/schema"
)

// MetricType names a vector similarity metric.
//
// An empty MetricType on a plan means "use the metric the target field's
// index was built with".
type MetricType string

const (
	MetricL2 MetricType = "L2"
	MetricIP MetricType = "IP"
)

// SearchInfo carries the vector-search parameters of a compiled plan.
type SearchInfo struct {
	Field  schema.FieldID
	Metric MetricType
	TopK   int
}

// SearchPlan is a compiled similarity-search plan.
//
// Compilation itself happens outside this module; the segment core only
// consumes the result.
type SearchPlan struct {
	Schema *schema.Collection
	Info   SearchInfo

	// TargetFields are the output columns materialized by FillTargetEntry.
	TargetFields []schema.FieldID

	// Predicate optionally restricts candidates before the vector scan.
	Predicate *Predicate
}

// PlaceholderGroup carries the query vectors of a search.
type PlaceholderGroup struct {
	Vectors [][]float32
}

// RetrievePlan is a compiled scalar-retrieve plan.
type RetrievePlan struct {
	Schema *schema.Collection

	// Fields are the output columns, in output order.
	Fields []schema.FieldID

	// IsCount marks a pure row-count query. Count plans carry no output
	// fields; the executor answers with a single scalar column.
	IsCount bool

	// Predicate optionally restricts the matched rows.
	Predicate *Predicate
}

// CompareOp is a scalar comparison operator.
type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpLt
	OpLe
	OpGt
	OpGe
)

// String returns the string representation of the CompareOp.
func (op CompareOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// Predicate is a single range term over a scalar field.
type Predicate struct {
	Field schema.FieldID
	Op    CompareOp

	// Exactly one of Int64 / Float64 / String is consulted, matching the
	// field's data type.
	Int64   int64
	Float64 float64
	String  string
}

// FieldIndexMeta records how a vector field's index was built.
type FieldIndexMeta struct {
	Field  schema.FieldID
	Metric MetricType
}

// IndexMeta maps vector fields to their index build parameters.
type IndexMeta struct {
	fields map[schema.FieldID]FieldIndexMeta
}

// NewIndexMeta builds an IndexMeta from per-field entries.
func NewIndexMeta(metas ...FieldIndexMeta) *IndexMeta {
	m := &IndexMeta{fields: make(map[schema.FieldID]FieldIndexMeta, len(metas))}
	for _, fm := range metas {
		m.fields[fm.Field] = fm
	}
	return m
}

// FieldIndexMeta returns the index metadata of a field.
func (m *IndexMeta) FieldIndexMeta(field schema.FieldID) (FieldIndexMeta, error) {
	fm, ok := m.fields[field]
	if !ok {
		return FieldIndexMeta{}, fmt.Errorf("no index meta for field %d", field)
	}
	return fm, nil
}
