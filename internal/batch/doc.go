// Package batch drives an extraction run over a directory of archives.
//
// A Runner lists the input directory in lexical order, applies the file name
// filter, extracts places from each matching archive inside its own failure
// boundary, and writes either one file per archive or a single merged file.
// Every candidate yields an Outcome so callers can report exactly what
// happened to each file; only output errors abort the run.
package batch
