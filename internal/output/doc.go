// Package output serializes extraction results to disk.
//
// Writers encode PlaceMaps and ResultSets as JSON or YAML in insertion
// order, replace files atomically, and hold an advisory lock on the output
// directory so two runs never interleave their writes.
package output
