package vpk_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpkplaces/internal/testsupport"
	"vpkplaces/internal/vpk"
)

var sampleFiles = []testsupport.VPKFile{
	{Path: "maps/de_test/entities/default_ents.vents_c", Data: []byte("entity lump payload"), PreloadBytes: 6},
	{Path: "maps/de_test/entities/extra_ents.vents_c", Data: []byte("second")},
	{Path: "materials/dev/grid.vmat_c", Data: []byte("material")},
	{Path: "readme", Data: []byte("no extension")},
}

func TestOpenSingleFileV2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "de_test.vpk")
	testsupport.WriteVPK(t, path, sampleFiles...)

	pkg, err := vpk.Open(path, vpk.WithChecksumVerification())
	require.NoError(t, err)
	defer pkg.Close()

	assert.Equal(t, uint32(2), pkg.Header().Version)
	assert.Equal(t, []string{"vents_c", "vmat_c", ""}, pkg.Extensions())
	assert.Equal(t, []string{
		"maps/de_test/entities/default_ents.vents_c",
		"maps/de_test/entities/extra_ents.vents_c",
	}, pkg.Entries("vents_c"))
	assert.Equal(t, pkg.Entries("vents_c"), pkg.Entries(".vents_c"))
	assert.Nil(t, pkg.Entries("vmdl_c"))
	assert.Len(t, pkg.Files(), 4)

	for _, f := range sampleFiles {
		got, err := pkg.ReadFile(f.Path)
		require.NoError(t, err, f.Path)
		assert.Equal(t, f.Data, got, f.Path)
	}

	entry, ok := pkg.Lookup("maps/de_test/entities/default_ents.vents_c")
	require.True(t, ok)
	assert.Len(t, entry.Preload, 6)
	assert.True(t, entry.InDirectoryFile())
	assert.Equal(t, int64(len(sampleFiles[0].Data)), entry.Size())
}

func TestReadVersion1(t *testing.T) {
	data, _ := testsupport.BuildVPK(testsupport.VPKOptions{Version: 1}, sampleFiles...)

	pkg, err := vpk.Read(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	defer pkg.Close()

	assert.Equal(t, uint32(1), pkg.Header().Version)
	got, err := pkg.ReadFile("materials/dev/grid.vmat_c")
	require.NoError(t, err)
	assert.Equal(t, []byte("material"), got)
}

func TestOpenChunkedPackage(t *testing.T) {
	dir := t.TempDir()
	dirPath := testsupport.WriteChunkedVPK(t, dir, "pak01", sampleFiles...)

	pkg, err := vpk.Open(dirPath, vpk.WithChecksumVerification())
	require.NoError(t, err)

	entry, ok := pkg.Lookup("materials/dev/grid.vmat_c")
	require.True(t, ok)
	assert.False(t, entry.InDirectoryFile())

	for _, f := range sampleFiles {
		got, err := pkg.ReadFile(f.Path)
		require.NoError(t, err, f.Path)
		assert.Equal(t, f.Data, got, f.Path)
	}
	require.NoError(t, pkg.Close())
}

func TestChunkedEntryNeedsDirectoryFileName(t *testing.T) {
	dir := t.TempDir()
	dirPath := testsupport.WriteChunkedVPK(t, dir, "pak01", sampleFiles[2])
	renamed := filepath.Join(dir, "renamed.vpk")
	require.NoError(t, os.Rename(dirPath, renamed))

	pkg, err := vpk.Open(renamed)
	require.NoError(t, err)
	defer pkg.Close()

	_, err = pkg.ReadFile(sampleFiles[2].Path)
	assert.Error(t, err)
}

func TestChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.vpk")
	testsupport.WriteVPK(t, path, testsupport.VPKFile{Path: "a/b.txt", Data: []byte("data"), BadCRC: true})

	pkg, err := vpk.Open(path)
	require.NoError(t, err)
	_, err = pkg.ReadFile("a/b.txt")
	require.NoError(t, err, "checksums are ignored unless requested")
	require.NoError(t, pkg.Close())

	pkg, err = vpk.Open(path, vpk.WithChecksumVerification())
	require.NoError(t, err)
	defer pkg.Close()
	_, err = pkg.ReadFile("a/b.txt")
	assert.ErrorIs(t, err, vpk.ErrChecksumMismatch)
}

func TestReadFileMissingEntry(t *testing.T) {
	data, _ := testsupport.BuildVPK(testsupport.VPKOptions{}, sampleFiles...)
	pkg, err := vpk.Read(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = pkg.ReadFile("maps/nope.vents_c")
	assert.ErrorIs(t, err, vpk.ErrEntryMissing)
}

func TestInvalidSignature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.vpk")
	testsupport.WriteJunk(t, path, 64)

	_, err := vpk.Open(path)
	assert.ErrorIs(t, err, vpk.ErrInvalidSignature)

	_, err = vpk.Read(bytes.NewReader([]byte{1, 2}), 2)
	assert.ErrorIs(t, err, vpk.ErrInvalidSignature)
}

func TestUnsupportedVersion(t *testing.T) {
	data, _ := testsupport.BuildVPK(testsupport.VPKOptions{}, sampleFiles...)
	binary.LittleEndian.PutUint32(data[4:8], 3)

	_, err := vpk.Read(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, vpk.ErrUnsupportedVersion)
}

func TestTruncatedTree(t *testing.T) {
	data, _ := testsupport.BuildVPK(testsupport.VPKOptions{}, sampleFiles...)
	treeSize := binary.LittleEndian.Uint32(data[8:12])

	short := data[:28+int(treeSize)/2]
	_, err := vpk.Read(bytes.NewReader(short), int64(len(short)))
	assert.ErrorIs(t, err, vpk.ErrTruncated)

	// A tree that stops mid-record.
	broken := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(broken[8:12], 10)
	_, err = vpk.Read(bytes.NewReader(broken), int64(len(broken)))
	assert.ErrorIs(t, err, vpk.ErrTruncated)
}

func TestEmptyPackage(t *testing.T) {
	data, _ := testsupport.BuildVPK(testsupport.VPKOptions{})
	pkg, err := vpk.Read(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Empty(t, pkg.Files())
	assert.Empty(t, pkg.Extensions())
}
