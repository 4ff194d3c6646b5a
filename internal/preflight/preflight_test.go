package preflight

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir(), ReadWrite)
	assert.True(t, result.Passed, result.Detail)
	assert.Contains(t, result.Detail, "read/write ok")
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"), Read)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Detail, "does not exist")
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))

	result := CheckDirectoryAccess("test", f, Read)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Detail, "is not a directory")
}

func TestCheckDirectoryAccess_Empty(t *testing.T) {
	result := CheckDirectoryAccess("test", "  ", Read)
	assert.False(t, result.Passed)
}

func TestCheckDirectoryAccess_ReadOnly(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	assert.True(t, CheckDirectoryAccess("in", dir, Read).Passed)
	assert.False(t, CheckDirectoryAccess("out", dir, ReadWrite).Passed)
}

func TestRunAllAndErr(t *testing.T) {
	ok := t.TempDir()
	results := RunAll(ok, ok)
	require.Len(t, results, 2)
	assert.NoError(t, Err(results))

	results = RunAll(ok, filepath.Join(ok, "missing"))
	err := Err(results)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Output directory")
	assert.NotContains(t, err.Error(), "Input directory")
}
