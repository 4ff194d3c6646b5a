package places_test

import (
	"errors"
	"fmt"

	"vpkplaces/internal/places"
)

type fakeEntity map[string]string

func (e fakeEntity) StringProperty(name string) (string, bool) {
	v, ok := e[name]
	return v, ok
}

type fakeLump []places.Entity

func (l fakeLump) Entities() []places.Entity { return l }

func placeEntity(name, origin string) fakeEntity {
	return fakeEntity{"classname": places.PlaceClassname, "place_name": name, "origin": origin}
}

type fakeArchive struct {
	entries map[string][]string
	files   map[string][]byte
	closed  bool
}

func (a *fakeArchive) Entries(key string) []string { return a.entries[key] }

func (a *fakeArchive) ReadFile(path string) ([]byte, error) {
	data, ok := a.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: no such entry", path)
	}
	return data, nil
}

func (a *fakeArchive) Close() error {
	a.closed = true
	return nil
}

type fakeOpener struct {
	archives map[string]*fakeArchive
}

func (o *fakeOpener) Open(path string) (places.Archive, error) {
	a, ok := o.archives[path]
	if !ok {
		return nil, errors.New("invalid signature")
	}
	return a, nil
}

// fakeDecoder returns the lump registered for the raw payload.
type fakeDecoder struct {
	lumps map[string]fakeLump
}

func (d *fakeDecoder) DecodeEntityLump(data []byte) (places.EntityLump, error) {
	lump, ok := d.lumps[string(data)]
	if !ok {
		return nil, errors.New("unsupported resource")
	}
	return lump, nil
}
