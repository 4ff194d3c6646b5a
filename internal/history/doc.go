// Package history persists a ledger of extraction runs in SQLite.
//
// Each run and the outcome of every file it considered are stored so the CLI
// can list recent runs and drill into one. The ledger is informational; it is
// never consulted to skip work.
package history
