package resource

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"

	"vpkplaces/internal/kv3"
)

const (
	keyEntityKeyValues = "m_entityKeyValues"
	keyKV3Data         = "keyValues3Data"
	keyValues          = "values"
	keyHashedData      = "m_keyValuesData"
)

// EntityLump is the set of entities compiled into a map.
type EntityLump struct {
	entities []*Entity
}

// DecodeEntityLump decodes a DATA block payload in either KV3 encoding.
func DecodeEntityLump(data []byte) (*EntityLump, error) {
	var (
		root kv3.Value
		err  error
	)
	switch {
	case kv3.IsBinary(data):
		_, root, err = kv3.DecodeBinary(data)
		if errors.Is(err, kv3.ErrUnsupported) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedEncoding, err)
		}
	case kv3.IsText(data):
		_, root, err = kv3.Decode(data)
	default:
		return nil, fmt.Errorf("%w: payload is not KeyValues3", ErrUnsupportedEncoding)
	}
	if err != nil {
		return nil, fmt.Errorf("decode entity lump: %w", err)
	}
	return entityLumpFromKV3(root)
}

func entityLumpFromKV3(root kv3.Value) (*EntityLump, error) {
	obj, ok := root.AsObject()
	if !ok {
		return nil, fmt.Errorf("entity lump: root is %s, want object", root.Kind())
	}
	lump := &EntityLump{}
	list, ok := obj.Get(keyEntityKeyValues)
	if !ok {
		return lump, nil
	}
	items, ok := list.AsArray()
	if !ok {
		return nil, fmt.Errorf("entity lump: %s is %s, want array", keyEntityKeyValues, list.Kind())
	}

	folder := cases.Fold()
	for idx, item := range items {
		entObj, ok := item.AsObject()
		if !ok {
			return nil, fmt.Errorf("entity lump: entity %d is %s, want object", idx, item.Kind())
		}
		ent, err := decodeEntity(entObj, folder)
		if err != nil {
			return nil, fmt.Errorf("entity lump: entity %d: %w", idx, err)
		}
		lump.entities = append(lump.entities, ent)
	}
	return lump, nil
}

// decodeEntity reads properties from keyValues3Data.values, a bare values
// object, or the hashed m_keyValuesData blob, in that order. An entity with
// none of them has no properties.
func decodeEntity(obj *kv3.Object, folder cases.Caser) (*Entity, error) {
	values, ok := obj.Lookup(keyKV3Data, keyValues)
	if !ok {
		values, ok = obj.Get(keyValues)
	}
	if ok {
		props, isObj := values.AsObject()
		if !isObj {
			return nil, fmt.Errorf("%s is %s, want object", keyValues, values.Kind())
		}
		return newEntity(props, folder), nil
	}

	blob, ok := obj.Get(keyHashedData)
	if !ok {
		return newEntity(kv3.NewObject(), folder), nil
	}
	raw, isBin := blob.AsBinary()
	if !isBin {
		return nil, fmt.Errorf("%w: %s is %s, want binary", ErrInvalidKeyValues, keyHashedData, blob.Kind())
	}
	fields, err := decodeKeyValues(raw)
	if err != nil {
		return nil, err
	}
	return newHashedEntity(fields, folder), nil
}

// Entities returns the entities in lump order.
func (l *EntityLump) Entities() []*Entity {
	if l == nil {
		return nil
	}
	out := make([]*Entity, len(l.entities))
	copy(out, l.entities)
	return out
}

// Len returns the number of entities.
func (l *EntityLump) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entities)
}

// Entity is a single entity definition. Property names are matched without
// regard to case. Entities decoded from a hashed blob may also hold
// properties known only by their StringToken.
type Entity struct {
	keys   []string
	props  map[string]kv3.Value
	hashed map[uint32]kv3.Value
}

func newEntity(obj *kv3.Object, folder cases.Caser) *Entity {
	e := &Entity{props: make(map[string]kv3.Value, obj.Len())}
	for _, key := range obj.Keys() {
		v, _ := obj.Get(key)
		e.set(key, v, folder)
	}
	return e
}

func newHashedEntity(fields []keyValueField, folder cases.Caser) *Entity {
	e := &Entity{
		props:  make(map[string]kv3.Value),
		hashed: make(map[uint32]kv3.Value, len(fields)),
	}
	for _, f := range fields {
		if f.Name != "" {
			e.set(f.Name, f.Value, folder)
			continue
		}
		e.hashed[f.Hash] = f.Value
	}
	return e
}

func (e *Entity) set(key string, v kv3.Value, folder cases.Caser) {
	folded := folder.String(key)
	if _, dup := e.props[folded]; !dup {
		e.keys = append(e.keys, key)
	}
	e.props[folded] = v
}

// Keys returns the property names as written in the lump. Hashed-only
// properties are not listed.
func (e *Entity) Keys() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

// Property returns the raw value of the named property.
func (e *Entity) Property(name string) (kv3.Value, bool) {
	if v, ok := e.props[cases.Fold().String(name)]; ok {
		return v, true
	}
	if e.hashed == nil {
		return kv3.Value{}, false
	}
	v, ok := e.hashed[StringToken(name)]
	return v, ok
}

// StringProperty returns the named property when it holds a string.
func (e *Entity) StringProperty(name string) (string, bool) {
	v, ok := e.Property(name)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Classname returns the entity classname or "".
func (e *Entity) Classname() string {
	s, _ := e.StringProperty("classname")
	return s
}
