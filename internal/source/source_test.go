package source_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpkplaces/internal/kv3"
	"vpkplaces/internal/places"
	"vpkplaces/internal/resource"
	"vpkplaces/internal/source"
	"vpkplaces/internal/testsupport"
	"vpkplaces/internal/vpk"
)

func TestExtractFromVPK(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteMapArchive(t, dir, "de_test",
		testsupport.ClassEntity("worldspawn", "0 0 0"),
		testsupport.PlaceEntity("Long", "100 200 0"),
		testsupport.ClassEntity("info_player_terrorist", "1 1 1"),
		testsupport.PlaceEntity("BombsiteA", "-5.5 3 1"),
		testsupport.PlaceEntity("Long", "150.5 200 0"),
	)

	m, err := source.NewLocator(true).Extract(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Long", "BombsiteA"}, m.Names())
	assert.Equal(t, []places.Vector3{{X: 100, Y: 200}, {X: 150.5, Y: 200}}, m.Vectors("Long"))
	assert.Equal(t, []places.Vector3{{X: -5.5, Y: 3, Z: 1}}, m.Vectors("BombsiteA"))
}

func TestExtractFromBinaryEntityLump(t *testing.T) {
	root := testsupport.EntityLumpValue(
		testsupport.EntityValue(testsupport.ClassEntity("worldspawn", "0 0 0")),
		testsupport.HashedEntityValue(testsupport.PlaceEntity("Long", "100 200 0")),
		testsupport.EntityValue(testsupport.PlaceEntity("BombsiteA", "-5.5 3 1")),
	)
	res := testsupport.BinaryEntityLumpResource(root, testsupport.KV3Binary{Revision: 5, Compression: testsupport.KV3Zstd})
	path := testsupport.WriteMapArchiveData(t, t.TempDir(), "de_binary", res)

	m, err := source.NewLocator(true).Extract(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Long", "BombsiteA"}, m.Names())
	assert.Equal(t, []places.Vector3{{X: 100, Y: 200}}, m.Vectors("Long"))
}

func TestExtractFailsOnUnreadableHashedEntity(t *testing.T) {
	obj := kv3.NewObject()
	obj.Set("m_keyValuesData", kv3.Binary([]byte{1, 2, 3, 4}))
	root := testsupport.EntityLumpValue(
		testsupport.EntityValue(testsupport.PlaceEntity("Long", "100 200 0")),
		kv3.ObjectValue(obj),
	)
	res := testsupport.BinaryEntityLumpResource(root, testsupport.KV3Binary{Revision: 4})
	path := testsupport.WriteMapArchiveData(t, t.TempDir(), "de_hashed", res)

	m, err := source.NewLocator(false).Extract(path)
	require.ErrorIs(t, err, resource.ErrInvalidKeyValues)
	assert.Nil(t, m)
}

func TestLocateWithoutEntityLump(t *testing.T) {
	path := testsupport.WriteArchiveWithoutEntities(t, t.TempDir(), "de_empty")

	_, err := source.NewLocator(false).Locate(path)
	assert.ErrorIs(t, err, places.ErrEntryNotFound)
}

func TestLocateJunkFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "de_junk.vpk")
	testsupport.WriteJunk(t, path, 128)

	_, err := source.NewLocator(false).Locate(path)
	assert.ErrorIs(t, err, vpk.ErrInvalidSignature)
}

func TestDecoderRejectsNonResource(t *testing.T) {
	_, err := source.EntityLumpDecoder{}.DecodeEntityLump([]byte("nope"))
	assert.Error(t, err)
}
