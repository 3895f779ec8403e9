// Package skipindex records chunk-level min/max summaries so a plan
// executor can decide "no row in this chunk can match" without touching
// the raw column data.
package skipindex
