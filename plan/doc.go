// Package plan defines the compiled query plan types the segment core
// consumes: search and retrieve plans, placeholder groups, scalar range
// predicates and per-field index metadata.
package plan
