// Package preflight checks that the directories a run depends on exist and
// are accessible before any archive is opened.
//
// The CLI runs these checks ahead of extraction so a missing or read-only
// output directory is reported once, up front, rather than after every map
// has been decoded.
package preflight
