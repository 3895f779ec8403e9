// Package memseg provides the growing in-memory segment variant:
// fixed-size chunks of columnar data appended by the load path and
// queried through the embedded vecseg.Core.
package memseg
