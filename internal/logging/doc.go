// Package logging assembles the structured slog loggers used by vpkplaces.
//
// It owns the console and JSON handlers, level parsing, output routing, and
// the run_id injection that ties every line of one extraction run together.
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
