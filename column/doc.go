// Package column holds materialized column values and the bulk accessor
// contract used to resolve row offsets to values across chunk boundaries.
package column
