package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vpkplaces/internal/testsupport"
)

type cliTestEnv struct {
	baseDir     string
	inputDir    string
	outputDir   string
	historyPath string
	configPath  string
}

// setupCLITestEnv isolates HOME and the working directory and writes a config
// file pointing the output and history at temp locations.
func setupCLITestEnv(t *testing.T, extraConfig string) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := filepath.Dir(cfg.Paths.InputDir)
	home := filepath.Join(base, "home")
	require.NoError(t, os.MkdirAll(home, 0o755))
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("VPKPLACES_INPUT_DIR", "")
	t.Chdir(base)

	contents := fmt.Sprintf(`[paths]
output_dir = '%s'

[history]
path = '%s'

[logging]
level = "debug"
%s`, cfg.Paths.OutputDir, cfg.History.Path, extraConfig)

	return &cliTestEnv{
		baseDir:     base,
		inputDir:    cfg.Paths.InputDir,
		outputDir:   cfg.Paths.OutputDir,
		historyPath: cfg.History.Path,
		configPath:  testsupport.WriteConfigFile(t, base, contents),
	}
}

func (e *cliTestEnv) writeMaps(t *testing.T) {
	t.Helper()
	testsupport.WriteMapArchive(t, e.inputDir, "cs_office",
		testsupport.ClassEntity("worldspawn", "0 0 0"),
		testsupport.PlaceEntity("Lobby", "1 2 3"),
	)
	testsupport.WriteMapArchive(t, e.inputDir, "de_dust2",
		testsupport.PlaceEntity("Long", "100 200 0"),
		testsupport.PlaceEntity("BombsiteA", "-5.5 3 1"),
	)
	testsupport.WriteMapArchive(t, e.inputDir, "de_dust2_vanity",
		testsupport.PlaceEntity("Vanity", "0 0 0"),
	)
	testsupport.WriteArchiveWithoutEntities(t, e.inputDir, "de_empty")
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}
