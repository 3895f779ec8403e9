// Package vecseg implements the segment query core of a vector search
// engine: the orchestration layer through which one segment of a
// collection answers similarity-search and scalar-retrieve queries
// against a point-in-time snapshot.
//
// A segment holds chunked columnar data with one insertion timestamp per
// row. Core runs compiled plans through an external PlanVisitor, filters
// rows by snapshot visibility, budgets retrieve output sizes before
// materialization, and defers column materialization of search results
// so a coordinator can re-rank across segments first and only then fill
// the surviving rows.
//
// Concrete chunk storage is supplied per segment variant behind the
// Storage contract; memseg ships a growing in-memory variant.
package vecseg
