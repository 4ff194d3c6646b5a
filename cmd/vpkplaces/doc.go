// Package main hosts the vpkplaces CLI entrypoint and command graph.
//
// The root command extracts place markers from a directory of map archives.
// Subcommands scaffold and validate configuration, browse the run history,
// and list the entries of a single archive. Configuration resolution and
// logger construction live here so the internal packages stay free of flag
// handling.
package main
