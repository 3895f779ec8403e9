package schema

import "fmt"

// FieldID identifies a field within a collection schema.
//
// IDs below StartUserFieldID are reserved for system fields that are
// synthesized at query time instead of being stored as columns.
type FieldID int64

const (
	// RowIDField is the synthetic per-row identifier field.
	RowIDField FieldID = 0
	// TimestampField is the synthetic insertion-timestamp field.
	TimestampField FieldID = 1

	// StartUserFieldID is the first field id available to user schemas.
	StartUserFieldID FieldID = 100
)

// IsSystem reports whether the field id addresses a synthetic system field.
func (f FieldID) IsSystem() bool {
	return f >= 0 && f < StartUserFieldID
}

// SystemFieldSize is the byte size of every system field value (int64).
const SystemFieldSize = 8

// DataType enumerates the value types a field can hold.
type DataType uint8

const (
	TypeNone DataType = iota
	TypeBool
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat
	TypeDouble
	TypeVarChar
	TypeArray
	TypeFloatVector
)

// String returns the string representation of the DataType.
func (t DataType) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeBool:
		return "Bool"
	case TypeInt8:
		return "Int8"
	case TypeInt16:
		return "Int16"
	case TypeInt32:
		return "Int32"
	case TypeInt64:
		return "Int64"
	case TypeFloat:
		return "Float"
	case TypeDouble:
		return "Double"
	case TypeVarChar:
		return "VarChar"
	case TypeArray:
		return "Array"
	case TypeFloatVector:
		return "FloatVector"
	default:
		return "Unknown"
	}
}

// IsVariable reports whether values of this type have no static size.
func (t DataType) IsVariable() bool {
	return t == TypeVarChar || t == TypeArray
}

// IsPrimaryKey reports whether the type may designate a primary key.
func (t DataType) IsPrimaryKey() bool {
	return t == TypeInt64 || t == TypeVarChar
}

// FieldMeta describes a single field of a collection.
type FieldMeta struct {
	ID   FieldID
	Name string
	Type DataType

	// ElementType is the scalar type of each array element.
	// Only meaningful when Type is TypeArray.
	ElementType DataType

	// Dim is the vector dimension. Only meaningful for vector types.
	Dim int

	// PrimaryKey marks this field as the collection's primary key.
	PrimaryKey bool
}

// FixedSize returns the static byte size of one value, or 0 for
// variable-length types.
func (m FieldMeta) FixedSize() int64 {
	switch m.Type {
	case TypeBool, TypeInt8:
		return 1
	case TypeInt16:
		return 2
	case TypeInt32, TypeFloat:
		return 4
	case TypeInt64, TypeDouble:
		return 8
	case TypeFloatVector:
		return int64(m.Dim) * 4
	default:
		return 0
	}
}

// Collection is an immutable field-id addressable schema.
type Collection struct {
	fields map[FieldID]FieldMeta
	order  []FieldID
	pk     FieldID
	hasPK  bool
}

// NewCollection builds a Collection schema from field metadata.
// Duplicate field ids and multiple primary keys are rejected.
func NewCollection(fields ...FieldMeta) (*Collection, error) {
	c := &Collection{
		fields: make(map[FieldID]FieldMeta, len(fields)),
	}
	for _, f := range fields {
		if f.ID.IsSystem() {
			return nil, fmt.Errorf("field %q: id %d is reserved for system fields", f.Name, f.ID)
		}
		if _, ok := c.fields[f.ID]; ok {
			return nil, fmt.Errorf("duplicate field id %d", f.ID)
		}
		if f.PrimaryKey {
			if c.hasPK {
				return nil, fmt.Errorf("field %q: primary key already declared on field %d", f.Name, c.pk)
			}
			if !f.Type.IsPrimaryKey() {
				return nil, fmt.Errorf("field %q: %s cannot be a primary key", f.Name, f.Type)
			}
			c.pk = f.ID
			c.hasPK = true
		}
		c.fields[f.ID] = f
		c.order = append(c.order, f.ID)
	}
	return c, nil
}

// Field returns the metadata of a field.
func (c *Collection) Field(id FieldID) (FieldMeta, bool) {
	m, ok := c.fields[id]
	return m, ok
}

// Fields returns all user field ids in declaration order.
func (c *Collection) Fields() []FieldID {
	out := make([]FieldID, len(c.order))
	copy(out, c.order)
	return out
}

// PrimaryFieldID returns the designated primary-key field, if any.
func (c *Collection) PrimaryFieldID() (FieldID, bool) {
	return c.pk, c.hasPK
}

// Len returns the number of user fields.
func (c *Collection) Len() int {
	return len(c.order)
}
