package testsupport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"vpkplaces/internal/kv3"
	"vpkplaces/internal/resource"
)

const (
	resourceHeaderVersion = 12
	resourceHeaderSize    = 16
	resourceBlockSize     = 12

	// EntityLumpPath is where compiled maps keep their entity lump.
	EntityLumpPath = "maps/%s/entities/default_ents.vents_c"

	kv3TextHeader = "<!-- kv3 encoding:text:version{e21c7f3c-8a33-41c5-9977-a76d3a32aa0d} format:generic:version{7412167c-06e9-4698-aff2-e63eb59037e7} -->"
)

// ResourceBlock is one block of a synthetic resource file.
type ResourceBlock struct {
	Type string
	Data []byte
}

// BuildResource encodes blocks behind a version 12 resource header. Block
// offsets are stored relative to their own field.
func BuildResource(blocks ...ResourceBlock) []byte {
	tableStart := resourceHeaderSize
	dataStart := tableStart + len(blocks)*resourceBlockSize

	var table, payload bytes.Buffer
	for i, b := range blocks {
		typ := (b.Type + "    ")[:4]
		fieldPos := tableStart + i*resourceBlockSize + 4
		abs := dataStart + payload.Len()
		table.WriteString(typ)
		_ = binary.Write(&table, binary.LittleEndian, uint32(abs-fieldPos))
		_ = binary.Write(&table, binary.LittleEndian, uint32(len(b.Data)))
		payload.Write(b.Data)
	}

	var out bytes.Buffer
	total := uint32(dataStart + payload.Len())
	_ = binary.Write(&out, binary.LittleEndian, total)
	_ = binary.Write(&out, binary.LittleEndian, uint16(resourceHeaderVersion))
	_ = binary.Write(&out, binary.LittleEndian, uint16(0))
	_ = binary.Write(&out, binary.LittleEndian, uint32(8))
	_ = binary.Write(&out, binary.LittleEndian, uint32(len(blocks)))
	out.Write(table.Bytes())
	out.Write(payload.Bytes())
	return out.Bytes()
}

// Prop is one key/value pair of an entity.
type Prop struct {
	Key   string
	Value string
}

// Entity is an ordered list of string properties.
type Entity []Prop

// PlaceEntity returns an env_cs_place entity.
func PlaceEntity(name, origin string) Entity {
	return Entity{
		{Key: "classname", Value: "env_cs_place"},
		{Key: "place_name", Value: name},
		{Key: "origin", Value: origin},
	}
}

// ClassEntity returns an entity of the given class at the origin.
func ClassEntity(class, origin string) Entity {
	return Entity{
		{Key: "classname", Value: class},
		{Key: "origin", Value: origin},
	}
}

// EntityLumpKV3 renders entities as a KeyValues3 text entity lump with each
// entity's properties nested under keyValues3Data.values.
func EntityLumpKV3(entities ...Entity) []byte {
	var b strings.Builder
	b.WriteString(kv3TextHeader)
	b.WriteString("\n{\n\tm_entityKeyValues =\n\t[\n")
	for _, ent := range entities {
		b.WriteString("\t\t{\n\t\t\tkeyValues3Data =\n\t\t\t{\n\t\t\t\tversion = 1\n\t\t\t\tvalues =\n\t\t\t\t{\n")
		for _, p := range ent {
			fmt.Fprintf(&b, "\t\t\t\t\t%s = %s\n", kv3Key(p.Key), kv3Quote(p.Value))
		}
		b.WriteString("\t\t\t\t}\n\t\t\t}\n\t\t\tm_connections = [ ]\n\t\t},\n")
	}
	b.WriteString("\t]\n}\n")
	return []byte(b.String())
}

func kv3Key(key string) string {
	for _, r := range key {
		if !(r == '_' || r == '.' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return kv3Quote(key)
		}
	}
	return key
}

func kv3Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

// EntityLumpResource wraps entities in a resource file with a DATA block.
func EntityLumpResource(entities ...Entity) []byte {
	return BuildResource(
		ResourceBlock{Type: "RED2", Data: []byte{0, 0, 0, 0}},
		ResourceBlock{Type: "DATA", Data: EntityLumpKV3(entities...)},
	)
}

// WriteMapArchive writes <dir>/<name>.vpk holding one entity lump built from
// entities and returns the archive path.
func WriteMapArchive(t testing.TB, dir, name string, entities ...Entity) string {
	t.Helper()
	return WriteMapArchiveData(t, dir, name, EntityLumpResource(entities...))
}

// WriteMapArchiveData writes <dir>/<name>.vpk with res stored as the entity
// lump and returns the archive path.
func WriteMapArchiveData(t testing.TB, dir, name string, res []byte) string {
	t.Helper()
	path := filepath.Join(dir, name+".vpk")
	WriteVPK(t, path, VPKFile{
		Path:         fmt.Sprintf(EntityLumpPath, name),
		Data:         res,
		PreloadBytes: 16,
	})
	return path
}

// EntityValue is the KV3 form of ent as compiled into m_entityKeyValues.
func EntityValue(ent Entity) kv3.Value {
	values := kv3.NewObject()
	for _, p := range ent {
		values.Set(p.Key, kv3.String(p.Value))
	}
	data := kv3.NewObject()
	data.Set("version", kv3.Int(1))
	data.Set("values", kv3.ObjectValue(values))
	obj := kv3.NewObject()
	obj.Set("keyValues3Data", kv3.ObjectValue(data))
	obj.Set("m_connections", kv3.Array())
	return kv3.ObjectValue(obj)
}

// HashedEntityValue stores ent as a m_keyValuesData blob.
func HashedEntityValue(ent Entity, named ...string) kv3.Value {
	obj := kv3.NewObject()
	obj.Set("m_keyValuesData", kv3.Binary(HashedKeyValues(ent, named...)))
	obj.Set("m_connections", kv3.Array())
	return kv3.ObjectValue(obj)
}

// EntityLumpValue is the root object of an entity lump.
func EntityLumpValue(entities ...kv3.Value) kv3.Value {
	root := kv3.NewObject()
	root.Set("m_entityKeyValues", kv3.Array(entities...))
	root.Set("m_childLumps", kv3.Array())
	root.Set("m_name", kv3.String("default_ents"))
	return kv3.ObjectValue(root)
}

// BinaryEntityLumpResource wraps root, encoded as binary KV3, in a resource
// file with a DATA block.
func BinaryEntityLumpResource(root kv3.Value, opts KV3Binary) []byte {
	return BuildResource(
		ResourceBlock{Type: "RED2", Data: []byte{0, 0, 0, 0}},
		ResourceBlock{Type: "DATA", Data: EncodeBinaryKV3(root, opts)},
	)
}

// Field types of the hashed key/value blob.
const (
	HashedFloat   uint32 = 0x01
	HashedVector  uint32 = 0x03
	HashedInteger uint32 = 0x05
	HashedBoolean uint32 = 0x06
	HashedCString uint32 = 0x1e
)

// HashedKeyValues encodes ent as a m_keyValuesData blob. Keys listed in named
// are written with their name; the rest by hash only. An origin made of three
// numbers is stored as a vector, everything else as a string.
func HashedKeyValues(ent Entity, named ...string) []byte {
	isNamed := map[string]bool{}
	for _, n := range named {
		isNamed[n] = true
	}
	var hashed, withName []Prop
	for _, p := range ent {
		if isNamed[p.Key] {
			withName = append(withName, p)
		} else {
			hashed = append(hashed, p)
		}
	}

	var b bytes.Buffer
	put32(&b, 1)
	put32(&b, uint32(len(hashed)))
	put32(&b, uint32(len(withName)))
	for _, p := range hashed {
		put32(&b, resource.StringToken(p.Key))
		writeHashedValue(&b, p)
	}
	for _, p := range withName {
		put32(&b, resource.StringToken(p.Key))
		b.WriteString(p.Key)
		b.WriteByte(0)
		writeHashedValue(&b, p)
	}
	return b.Bytes()
}

func writeHashedValue(b *bytes.Buffer, p Prop) {
	if strings.EqualFold(p.Key, "origin") {
		if xyz, ok := parseVector(p.Value); ok {
			put32(b, HashedVector)
			for _, f := range xyz {
				put32(b, math.Float32bits(f))
			}
			return
		}
	}
	put32(b, HashedCString)
	b.WriteString(p.Value)
	b.WriteByte(0)
}

func parseVector(s string) ([3]float32, bool) {
	var out [3]float32
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return out, false
	}
	for i, part := range parts {
		f, err := strconv.ParseFloat(part, 32)
		if err != nil {
			return out, false
		}
		out[i] = float32(f)
	}
	return out, true
}

// WriteArchiveWithoutEntities writes <dir>/<name>.vpk containing unrelated
// entries only and returns the archive path.
func WriteArchiveWithoutEntities(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name+".vpk")
	WriteVPK(t, path,
		VPKFile{Path: fmt.Sprintf("maps/%s/world.vwrld_c", name), Data: []byte("world")},
		VPKFile{Path: "materials/dev/grid.vmat_c", Data: []byte("material")},
	)
	return path
}
