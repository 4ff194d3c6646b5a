package kv3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const (
	magicVKV3 uint32 = 0x03564B56
	// The low byte of the newer signature carries the container revision.
	magicKV3 uint32 = 0x4B563300

	maxRevision = 5

	// MaxBufferSize caps every decompressed buffer of a binary document.
	MaxBufferSize = 256 << 20

	trailerVKV3 uint32 = 0xFFFFFFFF
	trailerKV3  uint32 = 0xFFEEDD00
)

var (
	// ErrNotBinary indicates the payload has no binary KV3 signature.
	ErrNotBinary = errors.New("kv3: not a binary document")
	// ErrUnsupported reports a binary feature the decoder does not handle.
	ErrUnsupported = errors.New("kv3: unsupported binary feature")
	// ErrCorrupt reports a binary document whose layout is inconsistent.
	ErrCorrupt = errors.New("kv3: corrupt binary document")
)

// Compression methods of revision 1+ containers.
const (
	compressNone uint32 = iota
	compressLZ4
	compressZstd
)

var compressionNames = map[uint32]string{
	compressNone: "none",
	compressLZ4:  "lz4",
	compressZstd: "zstd",
}

// guid is a GUID in its on-disk byte order: the first three fields are
// little endian.
type guid [16]byte

func (g guid) String() string {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]
	copy(u[8:], g[8:])
	return u.String()
}

var (
	encodingUncompressed    = guid{0x00, 0x05, 0x86, 0x1B, 0xD8, 0xF7, 0xC1, 0x40, 0xAD, 0x82, 0x75, 0xA4, 0x82, 0x67, 0xE7, 0x14}
	encodingBlockCompressed = guid{0x46, 0x1A, 0x79, 0x95, 0xBC, 0x95, 0x6C, 0x4F, 0xA7, 0x0B, 0x05, 0xBC, 0xA1, 0xB7, 0xDF, 0xD2}
	encodingLZ4             = guid{0x8A, 0x34, 0x47, 0x68, 0xA1, 0x63, 0x5C, 0x4F, 0xA1, 0x97, 0x53, 0x80, 0x6F, 0xD9, 0xB1, 0x19}
	formatGeneric           = guid{0x7C, 0x16, 0x12, 0x74, 0xE9, 0x06, 0x98, 0x46, 0xAF, 0xF2, 0xE6, 0x3E, 0xB5, 0x90, 0x37, 0xE7}
)

func formatName(g guid) string {
	if g == formatGeneric {
		return "generic"
	}
	return ""
}

// Value type codes.
const (
	typeNull           = 1
	typeBool           = 2
	typeInt64          = 3
	typeUInt64         = 4
	typeDouble         = 5
	typeString         = 6
	typeBlob           = 7
	typeArray          = 8
	typeObject         = 9
	typeArrayTyped     = 10
	typeInt32          = 11
	typeUInt32         = 12
	typeTrue           = 13
	typeFalse          = 14
	typeIntZero        = 15
	typeIntOne         = 16
	typeDoubleZero     = 17
	typeDoubleOne      = 18
	typeFloat          = 19
	typeInt16          = 20
	typeUInt16         = 21
	typeArrayTypedByte = 23

	typeFlagged = 0x80
)

var flagNames = map[byte]string{
	1: "resource",
	2: "resource_name",
	3: "panorama",
	4: "soundevent",
	5: "subclass",
}

// IsBinary reports whether data starts with a binary KV3 signature.
func IsBinary(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	magic := binary.LittleEndian.Uint32(data)
	return magic == magicVKV3 || magic&^0xFF == magicKV3
}

// DecodeBinary parses a binary KV3 document: the VKV3 container or KV3
// revisions 1 through 5.
func DecodeBinary(data []byte) (Header, Value, error) {
	if !IsBinary(data) {
		return Header{}, Value{}, ErrNotBinary
	}
	magic := binary.LittleEndian.Uint32(data)
	if magic == magicVKV3 {
		return decodeVKV3(data[4:])
	}
	rev := int(magic & 0xFF)
	if rev < 1 || rev > maxRevision {
		return Header{}, Value{}, fmt.Errorf("%w: container revision %d", ErrUnsupported, rev)
	}
	return decodeRevision(rev, data[4:])
}

func decodeVKV3(data []byte) (Header, Value, error) {
	c := newCursor(data, "header")
	var enc, format guid
	copy(enc[:], c.take(16))
	copy(format[:], c.take(16))
	if c.err != nil {
		return Header{}, Value{}, c.err
	}
	hdr := Header{
		Encoding:        "binary",
		EncodingVersion: enc.String(),
		Format:          formatName(format),
		FormatVersion:   format.String(),
	}
	body := c.rest()

	var buf []byte
	switch enc {
	case encodingUncompressed:
		hdr.Compression = compressionNames[compressNone]
		buf = body
	case encodingBlockCompressed:
		hdr.Encoding, hdr.Compression = "binary_bc", "block"
		out, err := blockDecompress(body)
		if err != nil {
			return Header{}, Value{}, err
		}
		buf = out
	case encodingLZ4:
		hdr.Encoding, hdr.Compression = "binary_lz4", compressionNames[compressLZ4]
		bc := newCursor(body, "body")
		size := bc.u32()
		if bc.err != nil {
			return Header{}, Value{}, bc.err
		}
		out, err := lz4Block(bc.rest(), size)
		if err != nil {
			return Header{}, Value{}, err
		}
		buf = out
	default:
		return Header{}, Value{}, fmt.Errorf("%w: encoding %s", ErrUnsupported, enc)
	}

	// Every stream reads from the same position of a single buffer.
	s := newCursor(buf, "data")
	strs, err := readStrings(s, s)
	if err != nil {
		return Header{}, Value{}, err
	}
	d := &binDecoder{
		types: s, bytes: s, shorts: s, ints: s, eights: s, meta: s,
		strs:   strs,
		budget: valueBudget(len(buf)),
	}
	root, err := d.value()
	if err != nil {
		return Header{}, Value{}, err
	}
	switch s.remaining() {
	case 0:
	case 4:
		if t := s.u32(); t != trailerVKV3 {
			return Header{}, Value{}, fmt.Errorf("%w: trailer %#x", ErrCorrupt, t)
		}
	default:
		return Header{}, Value{}, fmt.Errorf("%w: %d bytes after root value", ErrCorrupt, s.remaining())
	}
	return hdr, root, nil
}

type binaryHeader struct {
	rev         int
	format      guid
	compression uint32
	dictID      uint16
	frameSize   uint16

	bytesCount, shortsCount, intsCount, eightsCount uint32

	stringsAndTypesSize     uint32
	objectCount, arrayCount uint16

	uncompressedSize, compressedSize uint32
	blockCount, blockTotalSize       uint32

	// Revision 5 keeps scalar values in a second buffer.
	uncompressedSize1, compressedSize1                  uint32
	bytesCount1, shortsCount1, intsCount1, eightsCount1 uint32
}

func readBinaryHeader(rev int, data []byte) (*binaryHeader, []byte, error) {
	c := newCursor(data, "header")
	h := &binaryHeader{rev: rev}
	copy(h.format[:], c.take(16))
	h.compression = c.u32()
	if rev >= 2 {
		h.dictID = c.u16()
		h.frameSize = c.u16()
	}
	h.bytesCount = c.u32()
	h.intsCount = c.u32()
	h.eightsCount = c.u32()
	if rev >= 2 {
		h.stringsAndTypesSize = c.u32()
		h.objectCount = c.u16()
		h.arrayCount = c.u16()
	}
	h.uncompressedSize = c.u32()
	if rev >= 2 {
		h.compressedSize = c.u32()
		h.blockCount = c.u32()
		h.blockTotalSize = c.u32()
	}
	if rev >= 4 {
		h.shortsCount = c.u32()
		_ = c.u32()
	}
	if rev >= 5 {
		h.compressedSize1 = c.u32()
		h.uncompressedSize1 = c.u32()
		h.bytesCount1 = c.u32()
		h.shortsCount1 = c.u32()
		h.intsCount1 = c.u32()
		h.eightsCount1 = c.u32()
	}
	if c.err != nil {
		return nil, nil, c.err
	}
	return h, c.rest(), nil
}

func decodeRevision(rev int, data []byte) (Header, Value, error) {
	h, body, err := readBinaryHeader(rev, data)
	if err != nil {
		return Header{}, Value{}, err
	}
	name, ok := compressionNames[h.compression]
	if !ok {
		return Header{}, Value{}, fmt.Errorf("%w: compression method %d", ErrUnsupported, h.compression)
	}
	hdr := Header{
		Encoding:        "binary",
		EncodingVersion: strconv.Itoa(rev),
		Format:          formatName(h.format),
		FormatVersion:   h.format.String(),
		Compression:     name,
	}

	buf0, buf1, blobs, err := h.buffers(body)
	if err != nil {
		return Header{}, Value{}, err
	}
	d, err := h.layout(buf0, buf1, blobs)
	if err != nil {
		return Header{}, Value{}, err
	}
	root, err := d.value()
	if err != nil {
		return Header{}, Value{}, err
	}
	if n := d.types.remaining(); n != 0 {
		return Header{}, Value{}, fmt.Errorf("%w: %d type bytes after root value", ErrCorrupt, n)
	}
	return hdr, root, nil
}

// buffers decompresses the key buffer, the revision 5 value buffer and the
// blob area.
func (h *binaryHeader) buffers(body []byte) (buf0, buf1, blobs []byte, err error) {
	if h.dictID != 0 {
		return nil, nil, nil, fmt.Errorf("%w: compression dictionary %d", ErrUnsupported, h.dictID)
	}
	if uint64(h.uncompressedSize)+uint64(h.blockTotalSize) > MaxBufferSize || h.uncompressedSize1 > MaxBufferSize {
		return nil, nil, nil, fmt.Errorf("%w: buffer of %d bytes exceeds %d", ErrCorrupt,
			uint64(h.uncompressedSize)+uint64(h.blockTotalSize)+uint64(h.uncompressedSize1), MaxBufferSize)
	}

	c := newCursor(body, "body")
	first := func() []byte {
		if h.rev == 1 {
			return c.rest()
		}
		return c.take(int(h.compressedSize))
	}
	switch h.compression {
	case compressNone:
		buf0 = c.take(int(h.uncompressedSize))
		if h.rev >= 5 {
			buf1 = c.take(int(h.uncompressedSize1))
		}
		blobs = c.take(int(h.blockTotalSize))
	case compressLZ4:
		if h.blockCount > 0 {
			return nil, nil, nil, fmt.Errorf("%w: lz4 compressed blob blocks", ErrUnsupported)
		}
		if buf0, err = lz4Block(first(), h.uncompressedSize); err != nil {
			return nil, nil, nil, err
		}
		if h.rev >= 5 {
			if buf1, err = lz4Block(c.take(int(h.compressedSize1)), h.uncompressedSize1); err != nil {
				return nil, nil, nil, err
			}
		}
	case compressZstd:
		out, err := zstdFrame(first(), h.uncompressedSize+h.blockTotalSize)
		if err != nil {
			return nil, nil, nil, err
		}
		buf0, blobs = out[:h.uncompressedSize], out[h.uncompressedSize:]
		if h.rev >= 5 {
			if buf1, err = zstdFrame(c.take(int(h.compressedSize1)), h.uncompressedSize1); err != nil {
				return nil, nil, nil, err
			}
		}
	}
	if c.err != nil {
		return nil, nil, nil, c.err
	}
	return buf0, buf1, blobs, nil
}

// layout splits the decompressed buffers into the streams values are read
// from. Buffer 0 holds the scalar sections, the string table, the type
// stream, blob sizes and the trailer, in that order.
func (h *binaryHeader) layout(buf0, buf1, blobs []byte) (*binDecoder, error) {
	c := newCursor(buf0, "buffer")
	d := &binDecoder{budget: valueBudget(len(buf0) + len(buf1) + len(blobs))}
	d.bytes, d.shorts, d.ints, d.eights = scalarSections(c, h.rev, h.bytesCount, h.shortsCount, h.intsCount, h.eightsCount)
	d.meta = d.ints
	if h.rev >= 5 {
		vc := newCursor(buf1, "values")
		d.bytes, d.shorts, d.ints, d.eights = scalarSections(vc, h.rev, h.bytesCount1, h.shortsCount1, h.intsCount1, h.eightsCount1)
		if vc.err != nil {
			return nil, vc.err
		}
	}
	if c.err != nil {
		return nil, c.err
	}

	strs, err := readStrings(c, d.meta)
	if err != nil {
		return nil, err
	}
	d.strs = strs

	rest := c.rest()
	if uint64(h.blockCount) > uint64(len(rest))/4 {
		return nil, fmt.Errorf("%w: %d blob blocks", ErrCorrupt, h.blockCount)
	}
	tail := 4 + 4*int(h.blockCount)
	if len(rest) < tail {
		return nil, fmt.Errorf("%w: buffer ends before trailer", ErrCorrupt)
	}
	if t := binary.LittleEndian.Uint32(rest[len(rest)-4:]); t != trailerKV3 {
		return nil, fmt.Errorf("%w: trailer %#x", ErrCorrupt, t)
	}
	d.types = newCursor(rest[:len(rest)-tail], "types")
	if h.blockCount > 0 {
		d.blockSizes = newCursor(rest[len(rest)-tail:len(rest)-4], "blob sizes")
		d.blobs = newCursor(blobs, "blobs")
	}
	return d, nil
}

func scalarSections(c *cursor, rev int, nBytes, nShorts, nInts, nEights uint32) (octets, shorts, ints, eights *cursor) {
	octets = newCursor(c.takeN(nBytes, 1), "bytes")
	if rev >= 4 {
		c.align(2)
		shorts = newCursor(c.takeN(nShorts, 2), "shorts")
	} else {
		shorts = newCursor(nil, "shorts")
	}
	c.align(4)
	ints = newCursor(c.takeN(nInts, 4), "ints")
	c.align(8)
	eights = newCursor(c.takeN(nEights, 8), "eights")
	return octets, shorts, ints, eights
}

// readStrings reads the string table. Its length is the next value of
// counts.
func readStrings(c, counts *cursor) ([]string, error) {
	n := counts.u32()
	if counts.err != nil {
		return nil, counts.err
	}
	if int64(n) > int64(c.remaining()) {
		return nil, fmt.Errorf("%w: %d strings in %d bytes", ErrCorrupt, n, c.remaining())
	}
	strs := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		strs = append(strs, c.cstring())
	}
	if c.err != nil {
		return nil, c.err
	}
	return strs, nil
}

func valueBudget(n int) int { return 64 + 8*n }

type binDecoder struct {
	types, bytes, shorts, ints, eights *cursor
	// meta carries container lengths, key indices and blob lengths.
	meta              *cursor
	blockSizes, blobs *cursor

	strs   []string
	budget int
	depth  int
}

func (d *binDecoder) err() error {
	for _, c := range []*cursor{d.types, d.bytes, d.shorts, d.ints, d.eights, d.meta, d.blockSizes, d.blobs} {
		if c != nil && c.err != nil {
			return c.err
		}
	}
	return nil
}

func (d *binDecoder) readType() (byte, string, error) {
	t := d.types.u8()
	var flag string
	if t&typeFlagged != 0 {
		t &^= typeFlagged
		f := d.types.u8()
		name, ok := flagNames[f]
		if !ok && d.types.err == nil {
			return 0, "", fmt.Errorf("%w: value flag %d", ErrCorrupt, f)
		}
		flag = name
	}
	if d.types.err != nil {
		return 0, "", d.types.err
	}
	return t, flag, nil
}

func (d *binDecoder) value() (Value, error) {
	t, flag, err := d.readType()
	if err != nil {
		return Value{}, err
	}
	return d.typed(t, flag)
}

func (d *binDecoder) typed(t byte, flag string) (Value, error) {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > MaxDepth {
		return Value{}, fmt.Errorf("%w: nesting exceeds %d levels", ErrCorrupt, MaxDepth)
	}
	if d.budget--; d.budget < 0 {
		return Value{}, fmt.Errorf("%w: too many values", ErrCorrupt)
	}

	var v Value
	switch t {
	case typeNull:
		v = Null()
	case typeBool:
		v = Bool(d.bytes.u8() != 0)
	case typeTrue:
		v = Bool(true)
	case typeFalse:
		v = Bool(false)
	case typeInt64:
		v = Int(int64(d.eights.u64()))
	case typeUInt64:
		v = unsignedValue(d.eights.u64())
	case typeDouble:
		v = Float(math.Float64frombits(d.eights.u64()))
	case typeIntZero:
		v = Int(0)
	case typeIntOne:
		v = Int(1)
	case typeDoubleZero:
		v = Float(0)
	case typeDoubleOne:
		v = Float(1)
	case typeInt32:
		v = Int(int64(int32(d.ints.u32())))
	case typeUInt32:
		v = Int(int64(d.ints.u32()))
	case typeFloat:
		v = Float(float64(math.Float32frombits(d.ints.u32())))
	case typeInt16:
		v = Int(int64(int16(d.shorts.u16())))
	case typeUInt16:
		v = Int(int64(d.shorts.u16()))
	case typeString:
		s, err := d.str(d.ints)
		if err != nil {
			return Value{}, err
		}
		v = String(s)
	case typeBlob:
		b, err := d.blob()
		if err != nil {
			return Value{}, err
		}
		v = Binary(b)
	case typeArray:
		n, err := d.count(d.meta.u32())
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, min(n, 1024))
		for i := 0; i < n; i++ {
			item, err := d.value()
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		v = Array(items...)
	case typeArrayTyped, typeArrayTypedByte:
		var raw uint32
		if t == typeArrayTyped {
			raw = d.meta.u32()
		} else {
			raw = uint32(d.bytes.u8())
		}
		n, err := d.count(raw)
		if err != nil {
			return Value{}, err
		}
		sub, subFlag, err := d.readType()
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, min(n, 1024))
		for i := 0; i < n; i++ {
			item, err := d.typed(sub, subFlag)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		v = Array(items...)
	case typeObject:
		n, err := d.count(d.meta.u32())
		if err != nil {
			return Value{}, err
		}
		obj := NewObject()
		for i := 0; i < n; i++ {
			key, err := d.str(d.meta)
			if err != nil {
				return Value{}, err
			}
			item, err := d.value()
			if err != nil {
				return Value{}, err
			}
			obj.Set(key, item)
		}
		v = ObjectValue(obj)
	default:
		return Value{}, fmt.Errorf("%w: value type %d", ErrUnsupported, t)
	}
	if err := d.err(); err != nil {
		return Value{}, err
	}
	if flag != "" {
		v = v.WithFlag(flag)
	}
	return v, nil
}

func (d *binDecoder) count(n uint32) (int, error) {
	if err := d.err(); err != nil {
		return 0, err
	}
	if int64(n) > int64(d.budget) {
		return 0, fmt.Errorf("%w: %d elements exceed the document size", ErrCorrupt, n)
	}
	return int(n), nil
}

// str resolves a string table index read from c. -1 is the empty string.
func (d *binDecoder) str(c *cursor) (string, error) {
	idx := int32(c.u32())
	if c.err != nil {
		return "", c.err
	}
	if idx == -1 {
		return "", nil
	}
	if idx < 0 || int(idx) >= len(d.strs) {
		return "", fmt.Errorf("%w: string index %d of %d", ErrCorrupt, idx, len(d.strs))
	}
	return d.strs[idx], nil
}

func (d *binDecoder) blob() ([]byte, error) {
	var b []byte
	if d.blobs != nil {
		b = d.blobs.takeN(d.blockSizes.u32(), 1)
	} else {
		b = d.bytes.takeN(d.meta.u32(), 1)
	}
	if err := d.err(); err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}

func unsignedValue(u uint64) Value {
	if u <= math.MaxInt64 {
		return Int(int64(u))
	}
	return Float(float64(u))
}

// blockDecompress expands the VKV3 block compression scheme: a 24 bit output
// size, then 16-token groups introduced by a bit mask where a set bit is a
// back reference and a clear bit a literal byte.
func blockDecompress(src []byte) ([]byte, error) {
	if len(src) < 4 {
		return nil, fmt.Errorf("%w: block compressed body of %d bytes", ErrCorrupt, len(src))
	}
	size := int(src[0]) | int(src[1])<<8 | int(src[2])<<16
	if src[3]&0x80 != 0 {
		return bytes.Clone(src[4:]), nil
	}
	c := newCursor(src[4:], "block")
	out := make([]byte, 0, size)
	for len(out) < size {
		mask := c.u16()
		for bit := 0; bit < 16 && len(out) < size; bit++ {
			if mask&(1<<bit) == 0 {
				b := c.u8()
				if c.err != nil {
					return nil, c.err
				}
				out = append(out, b)
				continue
			}
			ref := c.u16()
			if c.err != nil {
				return nil, c.err
			}
			offset := int(ref>>4) + 1
			n := min(int(ref&0xF)+3, size-len(out))
			if offset > len(out) {
				return nil, fmt.Errorf("%w: back reference %d past start", ErrCorrupt, offset)
			}
			start := len(out) - offset
			for i := 0; i < n; i++ {
				out = append(out, out[start+i])
			}
		}
		if c.err != nil {
			return nil, c.err
		}
	}
	return out, nil
}

func lz4Block(src []byte, size uint32) ([]byte, error) {
	if size > MaxBufferSize {
		return nil, fmt.Errorf("%w: buffer of %d bytes exceeds %d", ErrCorrupt, size, MaxBufferSize)
	}
	out := make([]byte, size)
	if size == 0 {
		return out, nil
	}
	n, err := lz4.UncompressBlock(src, out)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
	}
	if n != int(size) {
		return nil, fmt.Errorf("%w: lz4 produced %d of %d bytes", ErrCorrupt, n, size)
	}
	return out, nil
}

var (
	zstdOnce    sync.Once
	zstdDecoder *zstd.Decoder
	zstdInitErr error
)

func zstdFrame(src []byte, size uint32) ([]byte, error) {
	zstdOnce.Do(func() {
		zstdDecoder, zstdInitErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderMaxMemory(MaxBufferSize),
		)
	})
	if zstdInitErr != nil {
		return nil, fmt.Errorf("kv3: zstd decoder: %w", zstdInitErr)
	}
	if size == 0 && len(src) == 0 {
		return nil, nil
	}
	out, err := zstdDecoder.DecodeAll(src, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
	}
	if len(out) != int(size) {
		return nil, fmt.Errorf("%w: zstd produced %d of %d bytes", ErrCorrupt, len(out), size)
	}
	return out, nil
}

// cursor reads little endian values from a buffer. The first short read
// sticks in err and every later read returns zero values.
type cursor struct {
	buf  []byte
	pos  int
	name string
	err  error
}

func newCursor(buf []byte, name string) *cursor {
	return &cursor{buf: buf, name: name}
}

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || n > c.remaining() {
		c.err = fmt.Errorf("%w: %s truncated at offset %d, need %d bytes", ErrCorrupt, c.name, c.pos, n)
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

// takeN reads count items of size bytes each.
func (c *cursor) takeN(count uint32, size int) []byte {
	if c.err == nil && uint64(count)*uint64(size) > uint64(c.remaining()) {
		c.err = fmt.Errorf("%w: %s holds %d bytes, need %d x %d", ErrCorrupt, c.name, c.remaining(), count, size)
	}
	return c.take(int(count) * size)
}

func (c *cursor) rest() []byte { return c.take(c.remaining()) }

func (c *cursor) align(n int) {
	if r := c.pos % n; r != 0 {
		c.take(n - r)
	}
}

func (c *cursor) u8() byte {
	if b := c.take(1); len(b) == 1 {
		return b[0]
	}
	return 0
}

func (c *cursor) u16() uint16 {
	if b := c.take(2); len(b) == 2 {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (c *cursor) u32() uint32 {
	if b := c.take(4); len(b) == 4 {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (c *cursor) u64() uint64 {
	if b := c.take(8); len(b) == 8 {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (c *cursor) cstring() string {
	if c.err != nil {
		return ""
	}
	end := bytes.IndexByte(c.buf[c.pos:], 0)
	if end < 0 {
		c.err = fmt.Errorf("%w: %s string at offset %d is not terminated", ErrCorrupt, c.name, c.pos)
		return ""
	}
	s := string(c.buf[c.pos : c.pos+end])
	c.pos += end + 1
	return s
}
