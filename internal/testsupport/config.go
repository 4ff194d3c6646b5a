package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vpkplaces/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The input and output directories exist; history points at a fresh database
// path under the same base directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "maps")
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	for _, dir := range []string{cfgVal.Paths.InputDir, cfgVal.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithMerge enables merged output.
func WithMerge() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Merge = true
	}
}

// WithFilter overrides the archive file name filter.
func WithFilter(pattern string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extract.Filter = pattern
	}
}

// WithoutHistory disables the run ledger.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WriteConfigFile writes contents to dir/config.toml and returns the path.
func WriteConfigFile(t testing.TB, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
