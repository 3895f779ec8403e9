package vecseg

import (
	"fmt"

	"github.com/hupe1980/vecseg/schema"
)

// FieldAvgSize returns the estimated byte size of one value of the
// field. System fields have a fixed size, fixed-width fields use their
// static size, and variable-length fields report the running average
// observed by the load path, or 0 before the first observation.
func (c *Core) FieldAvgSize(fieldID schema.FieldID) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.fieldAvgSize(fieldID)
}

// fieldAvgSize requires c.mu held in at least shared mode.
func (c *Core) fieldAvgSize(fieldID schema.FieldID) (int64, error) {
	if fieldID < 0 {
		return 0, fmt.Errorf("%w: field id %d must not be negative", ErrInvalidFieldID, fieldID)
	}
	if fieldID.IsSystem() {
		if fieldID == schema.RowIDField || fieldID == schema.TimestampField {
			return schema.SystemFieldSize, nil
		}
		return 0, fmt.Errorf("%w: unsupported system field %d", ErrInvalidFieldID, fieldID)
	}

	meta, ok := c.storage.Schema().Field(fieldID)
	if !ok {
		return 0, fmt.Errorf("%w: field %d", ErrInvalidFieldID, fieldID)
	}
	if !meta.Type.IsVariable() {
		return meta.FixedSize(), nil
	}

	entry, ok := c.avgSizes[fieldID]
	if !ok {
		return 0, nil
	}
	return entry.avgSize, nil
}

// SetFieldAvgSize folds a freshly loaded batch of numRows rows occupying
// fieldSize total bytes into the field's running average. Called by the
// load path under the exclusive lock; fixed-width fields are ignored.
func (c *Core) SetFieldAvgSize(fieldID schema.FieldID, numRows, fieldSize int64) error {
	if fieldID < 0 {
		return fmt.Errorf("%w: field id %d must not be negative", ErrInvalidFieldID, fieldID)
	}
	meta, ok := c.storage.Schema().Field(fieldID)
	if !ok {
		return fmt.Errorf("%w: field %d", ErrInvalidFieldID, fieldID)
	}
	if !meta.Type.IsVariable() {
		return nil
	}
	if numRows <= 0 {
		return fmt.Errorf("%w: the num rows of field data should be greater than 0", ErrPrecondition)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.avgSizes[fieldID]
	total := entry.numRows*entry.avgSize + fieldSize
	entry.numRows += numRows
	entry.avgSize = total / entry.numRows
	c.avgSizes[fieldID] = entry
	return nil
}
