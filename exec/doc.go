// Package exec provides a reference plan visitor: brute-force exact
// search and scalar range retrieval with skip-index chunk pruning and
// snapshot visibility filtering. It is the executor of last resort and
// the baseline real index-backed visitors are checked against.
package exec
