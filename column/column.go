package column

import (
	"fmt"

	"github.com/hupe1980/vecseg/schema"
)

// Array is a single variable-length array value.
type Array struct {
	ElementType schema.DataType
	Int64s      []int64
	Strings     []string
}

// Len returns the number of elements in the array value.
func (a Array) Len() int {
	switch a.ElementType {
	case schema.TypeVarChar:
		return len(a.Strings)
	default:
		return len(a.Int64s)
	}
}

// Data is a materialized column aligned to a row-offset list.
//
// Exactly one value slice is populated, selected by Type. Bulk accessors
// must fill values in the same order as the offsets they were asked for.
type Data struct {
	Field schema.FieldID
	Type  schema.DataType

	// ElementType is stamped for array columns; it is not recoverable
	// from the raw payload.
	ElementType schema.DataType

	Bools    []bool
	Int64s   []int64
	Float64s []float64
	Strings  []string
	Arrays   []Array
	Vectors  [][]float32
}

// Len returns the number of rows in the column.
func (d *Data) Len() int {
	switch d.Type {
	case schema.TypeBool:
		return len(d.Bools)
	case schema.TypeInt8, schema.TypeInt16, schema.TypeInt32, schema.TypeInt64:
		return len(d.Int64s)
	case schema.TypeFloat, schema.TypeDouble:
		return len(d.Float64s)
	case schema.TypeVarChar:
		return len(d.Strings)
	case schema.TypeArray:
		return len(d.Arrays)
	case schema.TypeFloatVector:
		return len(d.Vectors)
	default:
		return 0
	}
}

// IDs is a type-tagged primary-key container.
//
// Either Int64s or Strings is populated, never both, selected by Type.
type IDs struct {
	Type    schema.DataType
	Int64s  []int64
	Strings []string
}

// Len returns the number of keys in the container.
func (ids *IDs) Len() int {
	if ids == nil {
		return 0
	}
	switch ids.Type {
	case schema.TypeVarChar:
		return len(ids.Strings)
	default:
		return len(ids.Int64s)
	}
}

// ParseIDs extracts primary-key values from a materialized column.
// Only Int64 and VarChar columns can carry primary keys.
func ParseIDs(d *Data) (*IDs, error) {
	switch d.Type {
	case schema.TypeInt64:
		out := make([]int64, len(d.Int64s))
		copy(out, d.Int64s)
		return &IDs{Type: schema.TypeInt64, Int64s: out}, nil
	case schema.TypeVarChar:
		out := make([]string, len(d.Strings))
		copy(out, d.Strings)
		return &IDs{Type: schema.TypeVarChar, Strings: out}, nil
	default:
		return nil, fmt.Errorf("cannot parse primary keys from %s column", d.Type)
	}
}

// BulkAccessor resolves a list of row offsets to column values.
//
// Implementations must return values in the exact order of offsets,
// regardless of which chunk each offset falls in, and must support both
// fixed-width and variable-length fields.
type BulkAccessor interface {
	BulkSubscript(field schema.FieldID, offsets []int64) (*Data, error)
}
