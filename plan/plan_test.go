package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecseg/plan"
)

func TestIndexMeta(t *testing.T) {
	meta := plan.NewIndexMeta(
		plan.FieldIndexMeta{Field: 102, Metric: plan.MetricIP},
		plan.FieldIndexMeta{Field: 103, Metric: plan.MetricL2},
	)

	fm, err := meta.FieldIndexMeta(102)
	require.NoError(t, err)
	assert.Equal(t, plan.MetricIP, fm.Metric)

	_, err = meta.FieldIndexMeta(999)
	assert.Error(t, err)
}

func TestCompareOpString(t *testing.T) {
	assert.Equal(t, "==", plan.OpEq.String())
	assert.Equal(t, "<", plan.OpLt.String())
	assert.Equal(t, "<=", plan.OpLe.String())
	assert.Equal(t, ">", plan.OpGt.String())
	assert.Equal(t, ">=", plan.OpGe.String())
}
