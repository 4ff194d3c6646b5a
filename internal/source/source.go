// Package source binds the VPK reader and the resource decoder to the
// capability interfaces used by the extraction core.
package source

import (
	"vpkplaces/internal/places"
	"vpkplaces/internal/resource"
	"vpkplaces/internal/vpk"
)

// VPKOpener opens VPK packages.
type VPKOpener struct {
	VerifyCRC bool
}

// Open implements places.ArchiveOpener.
func (o VPKOpener) Open(path string) (places.Archive, error) {
	var opts []vpk.Option
	if o.VerifyCRC {
		opts = append(opts, vpk.WithChecksumVerification())
	}
	pkg, err := vpk.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

// EntityLumpDecoder decodes compiled entity lump resources.
type EntityLumpDecoder struct{}

// DecodeEntityLump implements places.ResourceDecoder.
func (EntityLumpDecoder) DecodeEntityLump(data []byte) (places.EntityLump, error) {
	res, err := resource.Decode(data)
	if err != nil {
		return nil, err
	}
	lump, err := res.EntityLump()
	if err != nil {
		return nil, err
	}
	return entityLump{lump: lump}, nil
}

type entityLump struct {
	lump *resource.EntityLump
}

func (l entityLump) Entities() []places.Entity {
	ents := l.lump.Entities()
	out := make([]places.Entity, len(ents))
	for i, e := range ents {
		out[i] = e
	}
	return out
}

// NewLocator returns a Locator reading VPK packages and Source 2 entity lumps.
func NewLocator(verifyCRC bool) *places.Locator {
	return places.NewLocator(VPKOpener{VerifyCRC: verifyCRC}, EntityLumpDecoder{})
}

var (
	_ places.ArchiveOpener   = VPKOpener{}
	_ places.ResourceDecoder = EntityLumpDecoder{}
	_ places.Archive         = (*vpk.Package)(nil)
	_ places.Entity          = (*resource.Entity)(nil)
)
