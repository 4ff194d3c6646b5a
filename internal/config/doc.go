// Package config loads, normalizes, and validates vpkplaces configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the VPKPLACES_INPUT_DIR environment
// fallback. Command-line flags are layered on top by the CLI; this package only
// guarantees that whatever it returns has absolute paths, a compilable filter,
// and known output and log formats.
package config
