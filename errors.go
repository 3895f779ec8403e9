package vecseg

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecseg/plan"
	"github.com/hupe1980/vecseg/schema"
)

var (
	// ErrNilPlan is returned when a query entry point receives a nil plan.
	ErrNilPlan = errors.New("nil plan")

	// ErrPrecondition marks caller-bug violations of an operation's
	// contract (mismatched result lengths, reused primary-key container,
	// non-positive row counts). Not recoverable by retrying.
	ErrPrecondition = errors.New("precondition violated")

	// ErrMissingPrimaryKey is returned when the schema designates no
	// primary-key field.
	ErrMissingPrimaryKey = errors.New("schema has no primary key field")

	// ErrInvalidFieldID is returned for field ids outside the schema and
	// unsupported system field ids.
	ErrInvalidFieldID = errors.New("invalid field id")
)

// ErrSizeExceeded indicates that a retrieve would materialize more bytes
// than the caller's budget allows. It is raised before any column data
// is touched.
type ErrSizeExceeded struct {
	Projected int64
	Limit     int64
}

func (e *ErrSizeExceeded) Error() string {
	return fmt.Sprintf("query results exceed the limit size: projected %d bytes, limit %d", e.Projected, e.Limit)
}

// ErrMetricMismatch indicates that a search plan requests a similarity
// metric different from the one the target field's index was built with.
type ErrMetricMismatch struct {
	Expected plan.MetricType
	Actual   plan.MetricType
}

func (e *ErrMetricMismatch) Error() string {
	return fmt.Sprintf("metric type not match, expected %s, actual %s", e.Expected, e.Actual)
}

// ErrUnsupportedDataType indicates a data type the result-assembly path
// cannot handle, typically a schema/engine version mismatch.
type ErrUnsupportedDataType struct {
	Type schema.DataType
}

func (e *ErrUnsupportedDataType) Error() string {
	return fmt.Sprintf("unsupported datatype %s", e.Type)
}
