package vecseg

import "github.com/hupe1980/vecseg/plan"

type options struct {
	logger    *Logger
	metrics   MetricsCollector
	indexMeta *plan.IndexMeta
}

// Option configures a segment Core.
type Option func(*options)

// WithLogger sets the logger used on the query path.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithIndexMeta supplies per-field vector index metadata, enabling the
// metric-type consistency check on Search. Without it, plans keep their
// requested metric unchecked.
func WithIndexMeta(m *plan.IndexMeta) Option {
	return func(o *options) {
		o.indexMeta = m
	}
}
