package testsupport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"vpkplaces/internal/kv3"
)

// KV3Compression selects how EncodeBinaryKV3 packs its buffers.
type KV3Compression int

const (
	KV3None KV3Compression = iota
	KV3LZ4
	KV3Zstd
	// KV3Block is the VKV3 block scheme. Revision 0 only.
	KV3Block
)

// KV3Binary describes the container EncodeBinaryKV3 writes.
type KV3Binary struct {
	// Revision 0 writes the VKV3 container; 1 through 5 the KV3 container.
	Revision    int
	Compression KV3Compression
	// Narrow stores numbers in the smallest type that holds them exactly.
	Narrow bool
}

func (o KV3Binary) String() string {
	names := map[KV3Compression]string{KV3None: "none", KV3LZ4: "lz4", KV3Zstd: "zstd", KV3Block: "block"}
	s := fmt.Sprintf("rev%d/%s", o.Revision, names[o.Compression])
	if o.Narrow {
		s += "/narrow"
	}
	return s
}

const (
	kv3MagicVKV3 uint32 = 0x03564B56
	kv3MagicKV3  uint32 = 0x4B563300

	kv3TrailerVKV3 uint32 = 0xFFFFFFFF
	kv3TrailerKV3  uint32 = 0xFFEEDD00
)

var (
	kv3EncodingUncompressed = []byte{0x00, 0x05, 0x86, 0x1B, 0xD8, 0xF7, 0xC1, 0x40, 0xAD, 0x82, 0x75, 0xA4, 0x82, 0x67, 0xE7, 0x14}
	kv3EncodingBlock        = []byte{0x46, 0x1A, 0x79, 0x95, 0xBC, 0x95, 0x6C, 0x4F, 0xA7, 0x0B, 0x05, 0xBC, 0xA1, 0xB7, 0xDF, 0xD2}
	kv3EncodingLZ4          = []byte{0x8A, 0x34, 0x47, 0x68, 0xA1, 0x63, 0x5C, 0x4F, 0xA1, 0x97, 0x53, 0x80, 0x6F, 0xD9, 0xB1, 0x19}
	kv3FormatGeneric        = []byte{0x7C, 0x16, 0x12, 0x74, 0xE9, 0x06, 0x98, 0x46, 0xAF, 0xF2, 0xE6, 0x3E, 0xB5, 0x90, 0x37, 0xE7}
)

const (
	kv3Null           = 1
	kv3Bool           = 2
	kv3Int64          = 3
	kv3UInt64         = 4
	kv3Double         = 5
	kv3String         = 6
	kv3Blob           = 7
	kv3Array          = 8
	kv3Object         = 9
	kv3ArrayTyped     = 10
	kv3Int32          = 11
	kv3UInt32         = 12
	kv3True           = 13
	kv3False          = 14
	kv3IntZero        = 15
	kv3IntOne         = 16
	kv3DoubleZero     = 17
	kv3DoubleOne      = 18
	kv3Float          = 19
	kv3Int16          = 20
	kv3ArrayTypedByte = 23
)

var kv3FlagCodes = map[string]byte{
	"resource":      1,
	"resource_name": 2,
	"panorama":      3,
	"soundevent":    4,
	"subclass":      5,
}

// kv3Writer collects the streams of one document. In the VKV3 container every
// stream is the same buffer; below revision 5 meta and ints coincide.
type kv3Writer struct {
	opts KV3Binary

	types, octets, shorts, ints, eights, meta *bytes.Buffer

	strs     []string
	strIndex map[string]int32
	blobs    [][]byte

	objects, arrays int
}

func newKV3Writer(opts KV3Binary) *kv3Writer {
	w := &kv3Writer{opts: opts, strIndex: map[string]int32{}}
	if opts.Revision == 0 {
		one := &bytes.Buffer{}
		w.types, w.octets, w.shorts, w.ints, w.eights, w.meta = one, one, one, one, one, one
		return w
	}
	w.types, w.octets, w.shorts, w.ints, w.eights = &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{}
	w.meta = w.ints
	if opts.Revision >= 5 {
		w.meta = &bytes.Buffer{}
	}
	return w
}

// blockBlobs reports whether blobs go to the trailing blob area.
func (w *kv3Writer) blockBlobs() bool { return w.opts.Revision >= 2 }

func put32(b *bytes.Buffer, v uint32) { _ = binary.Write(b, binary.LittleEndian, v) }
func put16(b *bytes.Buffer, v uint16) { _ = binary.Write(b, binary.LittleEndian, v) }
func put64(b *bytes.Buffer, v uint64) { _ = binary.Write(b, binary.LittleEndian, v) }

func (w *kv3Writer) intern(s string) int32 {
	if s == "" {
		return -1
	}
	if idx, ok := w.strIndex[s]; ok {
		return idx
	}
	idx := int32(len(w.strs))
	w.strs = append(w.strs, s)
	w.strIndex[s] = idx
	return idx
}

// typeCode picks the binary type a value is written with.
func (w *kv3Writer) typeCode(v kv3.Value) byte {
	switch v.Kind() {
	case kv3.KindNull:
		return kv3Null
	case kv3.KindBool:
		b, _ := v.AsBool()
		if w.opts.Revision == 0 {
			return kv3Bool
		}
		if b {
			return kv3True
		}
		return kv3False
	case kv3.KindInt:
		i, _ := v.AsInt()
		switch {
		case i == 0:
			return kv3IntZero
		case i == 1:
			return kv3IntOne
		case w.opts.Narrow && (w.opts.Revision == 0 || w.opts.Revision >= 4) && i >= math.MinInt16 && i <= math.MaxInt16:
			return kv3Int16
		case i >= math.MinInt32 && i <= math.MaxInt32:
			return kv3Int32
		case i > 0 && i <= math.MaxUint32:
			return kv3UInt32
		case i > 0:
			return kv3UInt64
		}
		return kv3Int64
	case kv3.KindFloat:
		f, _ := v.AsFloat()
		switch {
		case f == 0 && !math.Signbit(f):
			return kv3DoubleZero
		case f == 1:
			return kv3DoubleOne
		case w.opts.Narrow && float64(float32(f)) == f:
			return kv3Float
		}
		return kv3Double
	case kv3.KindString:
		return kv3String
	case kv3.KindBinary:
		return kv3Blob
	case kv3.KindArray:
		items, _ := v.AsArray()
		if _, ok := w.uniformType(items); ok {
			if w.opts.Narrow && len(items) < 256 {
				return kv3ArrayTypedByte
			}
			return kv3ArrayTyped
		}
		return kv3Array
	}
	return kv3Object
}

// uniformType reports the shared scalar type of items, if any.
func (w *kv3Writer) uniformType(items []kv3.Value) (byte, bool) {
	if len(items) == 0 {
		return 0, false
	}
	first := w.typeCode(items[0])
	for _, item := range items {
		if item.Flag() != items[0].Flag() || w.typeCode(item) != first {
			return 0, false
		}
		if k := item.Kind(); k == kv3.KindArray || k == kv3.KindObject {
			return 0, false
		}
	}
	return first, true
}

func (w *kv3Writer) writeType(code byte, flag string) {
	if flag == "" {
		w.types.WriteByte(code)
		return
	}
	w.types.WriteByte(code | 0x80)
	w.types.WriteByte(kv3FlagCodes[flag])
}

func (w *kv3Writer) value(v kv3.Value) {
	code := w.typeCode(v)
	w.writeType(code, v.Flag())
	w.payload(code, v)
}

func (w *kv3Writer) payload(code byte, v kv3.Value) {
	switch code {
	case kv3Bool:
		b, _ := v.AsBool()
		if b {
			w.octets.WriteByte(1)
		} else {
			w.octets.WriteByte(0)
		}
	case kv3Int64, kv3UInt64:
		i, _ := v.AsInt()
		put64(w.eights, uint64(i))
	case kv3Int32, kv3UInt32:
		i, _ := v.AsInt()
		put32(w.ints, uint32(i))
	case kv3Int16:
		i, _ := v.AsInt()
		put16(w.shorts, uint16(int16(i)))
	case kv3Double:
		f, _ := v.AsFloat()
		put64(w.eights, math.Float64bits(f))
	case kv3Float:
		f, _ := v.AsFloat()
		put32(w.ints, math.Float32bits(float32(f)))
	case kv3String:
		s, _ := v.AsString()
		put32(w.ints, uint32(w.intern(s)))
	case kv3Blob:
		b, _ := v.AsBinary()
		if w.blockBlobs() {
			w.blobs = append(w.blobs, b)
			return
		}
		put32(w.meta, uint32(len(b)))
		w.octets.Write(b)
	case kv3Array:
		items, _ := v.AsArray()
		w.arrays++
		put32(w.meta, uint32(len(items)))
		for _, item := range items {
			w.value(item)
		}
	case kv3ArrayTyped, kv3ArrayTypedByte:
		items, _ := v.AsArray()
		w.arrays++
		if code == kv3ArrayTyped {
			put32(w.meta, uint32(len(items)))
		} else {
			w.octets.WriteByte(byte(len(items)))
		}
		sub, _ := w.uniformType(items)
		w.writeType(sub, items[0].Flag())
		for _, item := range items {
			w.payload(sub, item)
		}
	case kv3Object:
		obj, _ := v.AsObject()
		w.objects++
		put32(w.meta, uint32(obj.Len()))
		for _, key := range obj.Keys() {
			item, _ := obj.Get(key)
			put32(w.meta, uint32(w.intern(key)))
			w.value(item)
		}
	}
}

func (w *kv3Writer) stringTable() []byte {
	var b bytes.Buffer
	for _, s := range w.strs {
		b.WriteString(s)
		b.WriteByte(0)
	}
	return b.Bytes()
}

// EncodeBinaryKV3 writes root as a binary KV3 document.
func EncodeBinaryKV3(root kv3.Value, opts KV3Binary) []byte {
	w := newKV3Writer(opts)
	if opts.Revision == 0 {
		return w.encodeVKV3(root)
	}
	return w.encodeRevision(root)
}

func (w *kv3Writer) encodeVKV3(root kv3.Value) []byte {
	w.value(root)
	var plain bytes.Buffer
	put32(&plain, uint32(len(w.strs)))
	plain.Write(w.stringTable())
	plain.Write(w.types.Bytes())
	put32(&plain, kv3TrailerVKV3)

	var out bytes.Buffer
	put32(&out, kv3MagicVKV3)
	switch w.opts.Compression {
	case KV3Block:
		out.Write(kv3EncodingBlock)
		out.Write(kv3FormatGeneric)
		out.Write(blockCompressLiterals(plain.Bytes()))
	case KV3LZ4:
		out.Write(kv3EncodingLZ4)
		out.Write(kv3FormatGeneric)
		put32(&out, uint32(plain.Len()))
		out.Write(lz4Compress(plain.Bytes()))
	default:
		out.Write(kv3EncodingUncompressed)
		out.Write(kv3FormatGeneric)
		out.Write(plain.Bytes())
	}
	return out.Bytes()
}

// scalarBlock lays out the scalar sections with their alignment padding.
func scalarBlock(rev int, octets, shorts, ints, eights []byte) []byte {
	var b bytes.Buffer
	pad := func(n int) {
		for b.Len()%n != 0 {
			b.WriteByte(0)
		}
	}
	b.Write(octets)
	if rev >= 4 {
		pad(2)
		b.Write(shorts)
	}
	pad(4)
	b.Write(ints)
	pad(8)
	b.Write(eights)
	return b.Bytes()
}

func (w *kv3Writer) encodeRevision(root kv3.Value) []byte {
	rev := w.opts.Revision
	w.value(root)

	var meta bytes.Buffer
	put32(&meta, uint32(len(w.strs)))
	meta.Write(w.meta.Bytes())

	var blobSizes, blobData bytes.Buffer
	for _, b := range w.blobs {
		put32(&blobSizes, uint32(len(b)))
		blobData.Write(b)
	}
	strTable := w.stringTable()

	var buf0, buf1 bytes.Buffer
	var nBytes, nShorts, nInts, nEights int
	if rev >= 5 {
		buf0.Write(scalarBlock(rev, nil, nil, meta.Bytes(), nil))
		nInts = meta.Len() / 4
		buf1.Write(scalarBlock(rev, w.octets.Bytes(), w.shorts.Bytes(), w.ints.Bytes(), w.eights.Bytes()))
	} else {
		// meta and ints are one stream here.
		buf0.Write(scalarBlock(rev, w.octets.Bytes(), w.shorts.Bytes(), meta.Bytes(), w.eights.Bytes()))
		nBytes, nShorts, nInts, nEights = w.octets.Len(), w.shorts.Len()/2, meta.Len()/4, w.eights.Len()/8
	}
	buf0.Write(strTable)
	buf0.Write(w.types.Bytes())
	buf0.Write(blobSizes.Bytes())
	put32(&buf0, kv3TrailerKV3)

	var body0, body1 []byte
	switch w.opts.Compression {
	case KV3LZ4:
		body0, body1 = lz4Compress(buf0.Bytes()), lz4Compress(buf1.Bytes())
	case KV3Zstd:
		// Blob data shares the first zstd frame.
		body0 = zstdCompress(append(bytes.Clone(buf0.Bytes()), blobData.Bytes()...))
		body1 = zstdCompress(buf1.Bytes())
	default:
		body0, body1 = buf0.Bytes(), buf1.Bytes()
	}

	var out bytes.Buffer
	put32(&out, kv3MagicKV3|uint32(rev))
	out.Write(kv3FormatGeneric)
	put32(&out, uint32(w.opts.Compression))
	if rev >= 2 {
		put16(&out, 0)
		put16(&out, 0)
	}
	put32(&out, uint32(nBytes))
	put32(&out, uint32(nInts))
	put32(&out, uint32(nEights))
	if rev >= 2 {
		put32(&out, uint32(len(strTable)+w.types.Len()))
		put16(&out, uint16(w.objects))
		put16(&out, uint16(w.arrays))
	}
	put32(&out, uint32(buf0.Len()))
	if rev >= 2 {
		put32(&out, uint32(len(body0)))
		put32(&out, uint32(len(w.blobs)))
		put32(&out, uint32(blobData.Len()))
	}
	if rev >= 4 {
		put32(&out, uint32(nShorts))
		put32(&out, 0)
	}
	if rev >= 5 {
		put32(&out, uint32(len(body1)))
		put32(&out, uint32(buf1.Len()))
		put32(&out, uint32(w.octets.Len()))
		put32(&out, uint32(w.shorts.Len()/2))
		put32(&out, uint32(w.ints.Len()/4))
		put32(&out, uint32(w.eights.Len()/8))
	}
	out.Write(body0)
	if rev >= 5 {
		out.Write(body1)
	}
	if w.opts.Compression != KV3Zstd {
		out.Write(blobData.Bytes())
	}
	return out.Bytes()
}

// blockCompressLiterals writes data in the VKV3 block scheme using literal
// tokens only.
func blockCompressLiterals(data []byte) []byte {
	var out bytes.Buffer
	n := len(data)
	out.Write([]byte{byte(n), byte(n >> 8), byte(n >> 16), 0})
	for len(data) > 0 {
		chunk := data[:min(16, len(data))]
		put16(&out, 0)
		out.Write(chunk)
		data = data[len(chunk):]
	}
	return out.Bytes()
}

func lz4Compress(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst)
	if err != nil || n == 0 {
		panic(fmt.Sprintf("lz4 compress %d bytes: n=%d err=%v", len(src), n, err))
	}
	return dst[:n]
}

func zstdCompress(src []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
	defer enc.Close()
	return enc.EncodeAll(src, nil)
}
