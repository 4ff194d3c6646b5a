package resource_test

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpkplaces/internal/kv3"
	"vpkplaces/internal/resource"
	"vpkplaces/internal/testsupport"
)

func TestDecodeBlockTable(t *testing.T) {
	data := testsupport.BuildResource(
		testsupport.ResourceBlock{Type: "RED2", Data: []byte{1, 2, 3, 4}},
		testsupport.ResourceBlock{Type: "DATA", Data: []byte("payload")},
	)

	res, err := resource.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, uint16(resource.HeaderVersion), res.HeaderVersion)
	assert.Equal(t, uint32(len(data)), res.FileSize)
	require.Len(t, res.Blocks, 2)
	assert.Equal(t, "RED2", res.Blocks[0].Type)
	assert.Equal(t, []byte{1, 2, 3, 4}, res.Blocks[0].Data)

	block, ok := res.Block(resource.BlockData)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), block.Data)
	assert.Equal(t, uint32(7), block.Size)

	_, ok = res.Block("NTRO")
	assert.False(t, ok)
}

func TestDecodeRejectsBadHeaders(t *testing.T) {
	_, err := resource.Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, resource.ErrInvalidHeader)

	data := testsupport.BuildResource(testsupport.ResourceBlock{Type: "DATA", Data: []byte("x")})
	binary.LittleEndian.PutUint16(data[4:6], 11)
	_, err = resource.Decode(data)
	assert.ErrorIs(t, err, resource.ErrInvalidHeader)

	data = testsupport.BuildResource(testsupport.ResourceBlock{Type: "DATA", Data: []byte("x")})
	binary.LittleEndian.PutUint32(data[12:16], 50)
	_, err = resource.Decode(data)
	assert.ErrorIs(t, err, resource.ErrInvalidHeader)
}

func TestDecodeRejectsBlockPastEnd(t *testing.T) {
	data := testsupport.BuildResource(testsupport.ResourceBlock{Type: "DATA", Data: []byte("abc")})
	// Size field of the first block entry.
	binary.LittleEndian.PutUint32(data[24:28], 1000)

	_, err := resource.Decode(data)
	assert.ErrorIs(t, err, resource.ErrBlockOutOfRange)
}

func TestEntityLumpMissingDataBlock(t *testing.T) {
	res, err := resource.Decode(testsupport.BuildResource(testsupport.ResourceBlock{Type: "RED2", Data: []byte{0}}))
	require.NoError(t, err)

	_, err = res.EntityLump()
	assert.ErrorIs(t, err, resource.ErrMissingBlock)
}

func TestEntityLumpFromResource(t *testing.T) {
	data := testsupport.EntityLumpResource(
		testsupport.ClassEntity("worldspawn", "0 0 0"),
		testsupport.PlaceEntity("BombsiteA", "100 200 0"),
		testsupport.PlaceEntity(`Say "hi"`, "1 2 3"),
	)

	res, err := resource.Decode(data)
	require.NoError(t, err)
	lump, err := res.EntityLump()
	require.NoError(t, err)
	require.Equal(t, 3, lump.Len())

	ents := lump.Entities()
	assert.Equal(t, "worldspawn", ents[0].Classname())
	assert.Equal(t, "env_cs_place", ents[1].Classname())
	assert.Equal(t, []string{"classname", "place_name", "origin"}, ents[1].Keys())

	name, ok := ents[2].StringProperty("place_name")
	require.True(t, ok)
	assert.Equal(t, `Say "hi"`, name)
}

func TestEntityPropertiesAreCaseInsensitive(t *testing.T) {
	lump, err := resource.DecodeEntityLump(testsupport.EntityLumpKV3(testsupport.Entity{
		{Key: "ClassName", Value: "env_cs_place"},
		{Key: "Place_Name", Value: "Lobby"},
		{Key: "ORIGIN", Value: "1 2 3"},
	}))
	require.NoError(t, err)
	ent := lump.Entities()[0]

	assert.Equal(t, "env_cs_place", ent.Classname())
	v, ok := ent.StringProperty("place_name")
	require.True(t, ok)
	assert.Equal(t, "Lobby", v)
	v, ok = ent.StringProperty("origin")
	require.True(t, ok)
	assert.Equal(t, "1 2 3", v)

	_, ok = ent.StringProperty("angles")
	assert.False(t, ok)
}

func TestEntityLumpValuesLayouts(t *testing.T) {
	blob := testsupport.HashedKeyValues(testsupport.PlaceEntity("Hashed", "4 5 6"), "place_name")
	doc := `<!-- kv3 encoding:text:version{e21c7f3c-8a33-41c5-9977-a76d3a32aa0d} format:generic:version{7412167c-06e9-4698-aff2-e63eb59037e7} -->
{
	m_entityKeyValues =
	[
		{
			values =
			{
				classname = "env_cs_place"
				place_name = "Direct"
				origin = "1 1 1"
				spawnflags = 3
			}
		},
		{
			m_keyValuesData = #[ ` + hex.EncodeToString(blob) + ` ]
		},
		{
			m_connections = [ ]
		},
	]
}
`
	lump, err := resource.DecodeEntityLump([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, 3, lump.Len())

	ents := lump.Entities()
	name, ok := ents[0].StringProperty("place_name")
	require.True(t, ok)
	assert.Equal(t, "Direct", name)

	_, ok = ents[0].StringProperty("spawnflags")
	assert.False(t, ok, "non-string values are not returned as strings")
	raw, ok := ents[0].Property("spawnflags")
	require.True(t, ok)
	n, ok := raw.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(3), n)

	assert.Equal(t, []string{"place_name"}, ents[1].Keys())
	assert.Equal(t, "env_cs_place", ents[1].Classname())
	name, ok = ents[1].StringProperty("PLACE_NAME")
	require.True(t, ok)
	assert.Equal(t, "Hashed", name)
	origin, ok := ents[1].StringProperty("origin")
	require.True(t, ok)
	assert.Equal(t, "4 5 6", origin)

	assert.Empty(t, ents[2].Keys())
	assert.Equal(t, "", ents[2].Classname())
}

func TestEntityLumpRejectsBadHashedBlob(t *testing.T) {
	cases := map[string]string{
		"wrong version": "01 02 03 04",
		"truncated":     "01 00 00 00 02 00 00 00",
		"unknown type":  "01 00 00 00 01 00 00 00 00 00 00 00 62 1c 1b c6 ff 00 00 00 00 00 00 00",
		"not binary":    "",
	}
	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			value := "#[ " + blob + " ]"
			if blob == "" {
				value = `"text"`
			}
			doc := "<!-- kv3 encoding:text:version{x} format:generic:version{y} -->\n" +
				"{ m_entityKeyValues = [ { m_keyValuesData = " + value + " } ] }\n"
			lump, err := resource.DecodeEntityLump([]byte(doc))
			require.ErrorIs(t, err, resource.ErrInvalidKeyValues)
			assert.Nil(t, lump)
		})
	}
}

func TestBinaryEntityLump(t *testing.T) {
	root := testsupport.EntityLumpValue(
		testsupport.EntityValue(testsupport.ClassEntity("worldspawn", "0 0 0")),
		testsupport.EntityValue(testsupport.PlaceEntity("BombsiteA", "100 200 0")),
		testsupport.HashedEntityValue(testsupport.PlaceEntity("Long", "-1.5 2 3")),
		testsupport.HashedEntityValue(testsupport.ClassEntity("info_player_terrorist", "1 1 1"), "classname"),
	)
	for _, opts := range []testsupport.KV3Binary{
		{Revision: 0, Compression: testsupport.KV3None},
		{Revision: 0, Compression: testsupport.KV3Block},
		{Revision: 0, Compression: testsupport.KV3LZ4},
		{Revision: 1, Compression: testsupport.KV3LZ4},
		{Revision: 3, Compression: testsupport.KV3Zstd},
		{Revision: 4, Compression: testsupport.KV3None, Narrow: true},
		{Revision: 5, Compression: testsupport.KV3Zstd},
	} {
		t.Run(opts.String(), func(t *testing.T) {
			res, err := resource.Decode(testsupport.BinaryEntityLumpResource(root, opts))
			require.NoError(t, err)
			lump, err := res.EntityLump()
			require.NoError(t, err)
			require.Equal(t, 4, lump.Len())

			ents := lump.Entities()
			classes := make([]string, 0, len(ents))
			for _, e := range ents {
				classes = append(classes, e.Classname())
			}
			assert.Equal(t, []string{"worldspawn", "env_cs_place", "env_cs_place", "info_player_terrorist"}, classes)

			name, ok := ents[1].StringProperty("place_name")
			require.True(t, ok)
			assert.Equal(t, "BombsiteA", name)

			name, ok = ents[2].StringProperty("place_name")
			require.True(t, ok)
			assert.Equal(t, "Long", name)
			origin, ok := ents[2].StringProperty("origin")
			require.True(t, ok)
			assert.Equal(t, "-1.5 2 3", origin)
			assert.Empty(t, ents[2].Keys())
			assert.Equal(t, []string{"classname"}, ents[3].Keys())
		})
	}
}

func TestBinaryEntityLumpWithLZ4BlobBlocks(t *testing.T) {
	root := testsupport.EntityLumpValue(testsupport.HashedEntityValue(testsupport.PlaceEntity("Mid", "0 0 0")))
	data := testsupport.EncodeBinaryKV3(root, testsupport.KV3Binary{Revision: 4, Compression: testsupport.KV3LZ4})

	_, err := resource.DecodeEntityLump(data)
	assert.ErrorIs(t, err, resource.ErrUnsupportedEncoding)
	assert.ErrorIs(t, err, kv3.ErrUnsupported)
}

func TestEntityLumpEncodings(t *testing.T) {
	for _, magic := range []uint32{0x4B563300, 0x4B563306} {
		payload := make([]byte, 32)
		binary.LittleEndian.PutUint32(payload, magic)
		_, err := resource.DecodeEntityLump(payload)
		assert.ErrorIs(t, err, resource.ErrUnsupportedEncoding, "magic %#x", magic)
	}

	// A recognised container with a damaged body is an error of its own.
	root := testsupport.EntityLumpValue(testsupport.EntityValue(testsupport.PlaceEntity("Mid", "0 0 0")))
	for _, rev := range []int{0, 1, 5} {
		data := testsupport.EncodeBinaryKV3(root, testsupport.KV3Binary{Revision: rev})
		_, err := resource.DecodeEntityLump(data[:40])
		require.ErrorIs(t, err, kv3.ErrCorrupt, "revision %d", rev)
		assert.NotErrorIs(t, err, resource.ErrUnsupportedEncoding, "revision %d", rev)
	}

	_, err := resource.DecodeEntityLump([]byte("plain text"))
	assert.ErrorIs(t, err, resource.ErrUnsupportedEncoding)
}

func TestStringToken(t *testing.T) {
	assert.Equal(t, uint32(0xc61b1c62), resource.StringToken("classname"))
	assert.Equal(t, uint32(0xc61b1c62), resource.StringToken("ClassName"))
	assert.Equal(t, uint32(0xe4200216), resource.StringToken("origin"))
	assert.Equal(t, uint32(0xac0f38fb), resource.StringToken("place_name"))
	assert.Equal(t, uint32(0xb5d89f2f), resource.StringToken(""))
}

func TestEntityLumpWithoutEntityList(t *testing.T) {
	lump, err := resource.DecodeEntityLump([]byte("<!-- kv3 encoding:text:version{x} format:generic:version{y} -->\n{ other = 1 }\n"))
	require.NoError(t, err)
	assert.Zero(t, lump.Len())
}

func TestEntityLumpSyntaxError(t *testing.T) {
	_, err := resource.DecodeEntityLump([]byte("<!-- kv3 encoding:text:version{x} format:generic:version{y} -->\n{ m_entityKeyValues = [ { values = { a = } } ] }\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, resource.ErrUnsupportedEncoding)
}
