package places

import "fmt"

const (
	// EntryKey is the archive key holding the compiled entity lump.
	EntryKey = "vents_c"
	// PlaceClassname identifies place marker entities.
	PlaceClassname = "env_cs_place"

	propClassname = "classname"
	propPlaceName = "place_name"
	propOrigin    = "origin"
)

// Entity is a single entity definition inside a lump.
type Entity interface {
	// StringProperty returns the named property. ok is false when the
	// property is absent or does not hold a string.
	StringProperty(name string) (value string, ok bool)
}

// EntityLump is a decoded sequence of entities in lump order.
type EntityLump interface {
	Entities() []Entity
}

// Record is the raw place data carried by one env_cs_place entity.
type Record struct {
	PlaceName string
	Origin    string
}

// MissingPropertyError reports a place entity without a required property.
type MissingPropertyError struct {
	Index    int
	Property string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("entity %d (%s): missing %q property", e.Index, PlaceClassname, e.Property)
}

// Decode returns the place records of lump in entity order. Entities with any
// other classname are ignored. A place entity lacking place_name or origin
// fails the whole lump; an empty place_name counts as missing.
func Decode(lump EntityLump) ([]Record, error) {
	if lump == nil {
		return nil, nil
	}
	var records []Record
	for idx, ent := range lump.Entities() {
		if ent == nil {
			continue
		}
		classname, ok := ent.StringProperty(propClassname)
		if !ok || classname != PlaceClassname {
			continue
		}
		name, ok := ent.StringProperty(propPlaceName)
		if !ok || name == "" {
			return nil, &MissingPropertyError{Index: idx, Property: propPlaceName}
		}
		origin, ok := ent.StringProperty(propOrigin)
		if !ok {
			return nil, &MissingPropertyError{Index: idx, Property: propOrigin}
		}
		records = append(records, Record{PlaceName: name, Origin: origin})
	}
	return records, nil
}
