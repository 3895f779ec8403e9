// Package schema describes collection fields: data types, element types
// for arrays, static sizes for fixed-width values, system fields and the
// primary-key designation.
package schema
