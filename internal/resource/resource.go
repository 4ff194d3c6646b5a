package resource

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderVersion is the only resource header revision in use.
	HeaderVersion = 12

	headerSize     = 16
	blockEntrySize = 12

	// BlockData holds the main payload of a resource.
	BlockData = "DATA"
)

var (
	ErrInvalidHeader       = errors.New("resource: invalid header")
	ErrBlockOutOfRange     = errors.New("resource: block out of range")
	ErrMissingBlock        = errors.New("resource: block not found")
	ErrUnsupportedEncoding = errors.New("resource: unsupported data encoding")
)

// Block is one entry of the block table.
type Block struct {
	Type   string
	Offset uint32
	Size   uint32
	Data   []byte
}

// Resource is a decoded resource container.
type Resource struct {
	FileSize      uint32
	HeaderVersion uint16
	Version       uint16
	Blocks        []Block
}

// Decode parses the header and block table of data. Block payloads alias data.
func Decode(data []byte) (*Resource, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(data))
	}
	res := &Resource{
		FileSize:      binary.LittleEndian.Uint32(data[0:4]),
		HeaderVersion: binary.LittleEndian.Uint16(data[4:6]),
		Version:       binary.LittleEndian.Uint16(data[6:8]),
	}
	if res.HeaderVersion != HeaderVersion {
		return nil, fmt.Errorf("%w: header version %d", ErrInvalidHeader, res.HeaderVersion)
	}
	// Offsets are relative to the position of the field that stores them.
	tableStart := 8 + int64(binary.LittleEndian.Uint32(data[8:12]))
	count := int64(binary.LittleEndian.Uint32(data[12:16]))
	if tableStart+count*blockEntrySize > int64(len(data)) {
		return nil, fmt.Errorf("%w: block table of %d entries at %d", ErrInvalidHeader, count, tableStart)
	}

	res.Blocks = make([]Block, 0, count)
	for i := int64(0); i < count; i++ {
		pos := tableStart + i*blockEntrySize
		entry := data[pos : pos+blockEntrySize]
		b := Block{
			Type: string(entry[0:4]),
			Size: binary.LittleEndian.Uint32(entry[8:12]),
		}
		b.Offset = uint32(pos+4) + binary.LittleEndian.Uint32(entry[4:8])
		end := int64(b.Offset) + int64(b.Size)
		if end > int64(len(data)) {
			return nil, fmt.Errorf("%w: %s block ends at %d of %d", ErrBlockOutOfRange, b.Type, end, len(data))
		}
		b.Data = data[b.Offset:end]
		res.Blocks = append(res.Blocks, b)
	}
	return res, nil
}

// Block returns the first block of the given type.
func (r *Resource) Block(typ string) (Block, bool) {
	for _, b := range r.Blocks {
		if b.Type == typ {
			return b, true
		}
	}
	return Block{}, false
}

// EntityLump decodes the DATA block as an entity lump.
func (r *Resource) EntityLump() (*EntityLump, error) {
	b, ok := r.Block(BlockData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingBlock, BlockData)
	}
	return DecodeEntityLump(b.Data)
}
