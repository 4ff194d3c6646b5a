package resource

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"vpkplaces/internal/kv3"
)

// ErrInvalidKeyValues reports an entity whose m_keyValuesData blob cannot be
// read.
var ErrInvalidKeyValues = errors.New("resource: invalid entity key values")

const (
	keyValuesVersion = 1
	tokenSeed        = 0x31415926
)

// Field type codes of the hashed key/value blob.
const (
	fieldFloat     = 0x01
	fieldString    = 0x02
	fieldVector    = 0x03
	fieldInteger   = 0x05
	fieldBoolean   = 0x06
	fieldColor32   = 0x09
	fieldInteger64 = 0x1a
	fieldCString   = 0x1e
	fieldUInt64    = 0x21
	fieldFloat64   = 0x22
	fieldUInt      = 0x25
	fieldQAngle    = 0x27
)

// StringToken returns the hash the engine stores in place of a property
// name: MurmurHash2 of the lowercased name.
func StringToken(name string) uint32 {
	return murmur2([]byte(strings.ToLower(name)), tokenSeed)
}

func murmur2(data []byte, seed uint32) uint32 {
	const (
		m = 0x5bd1e995
		r = 24
	)
	h := seed ^ uint32(len(data))
	for len(data) >= 4 {
		k := binary.LittleEndian.Uint32(data)
		k *= m
		k ^= k >> r
		k *= m
		h *= m
		h ^= k
		data = data[4:]
	}
	switch len(data) {
	case 3:
		h ^= uint32(data[2]) << 16
		fallthrough
	case 2:
		h ^= uint32(data[1]) << 8
		fallthrough
	case 1:
		h ^= uint32(data[0])
		h *= m
	}
	h ^= h >> 13
	h *= m
	h ^= h >> 15
	return h
}

// keyValueField is one property of a hashed blob. Name is empty for fields
// stored by hash only.
type keyValueField struct {
	Hash  uint32
	Name  string
	Value kv3.Value
}

// decodeKeyValues reads a m_keyValuesData blob: a version, the number of
// hashed and of named fields, then the fields themselves.
func decodeKeyValues(data []byte) ([]keyValueField, error) {
	r := &blobReader{data: data}
	if v := r.u32(); r.err == nil && v != keyValuesVersion {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidKeyValues, v)
	}
	hashed := r.u32()
	named := r.u32()
	if r.err != nil {
		return nil, r.err
	}
	// Every field needs at least a hash and a type.
	if (uint64(hashed)+uint64(named))*8 > uint64(len(data)-r.pos) {
		return nil, fmt.Errorf("%w: %d fields in %d bytes", ErrInvalidKeyValues, uint64(hashed)+uint64(named), len(data)-r.pos)
	}

	fields := make([]keyValueField, 0, hashed+named)
	for i := uint32(0); i < hashed+named; i++ {
		f := keyValueField{Hash: r.u32()}
		if i >= hashed {
			f.Name = r.cstring()
		}
		v, err := r.typed()
		if err != nil {
			return nil, err
		}
		f.Value = v
		fields = append(fields, f)
	}
	if r.err != nil {
		return nil, r.err
	}
	return fields, nil
}

type blobReader struct {
	data []byte
	pos  int
	err  error
}

func (r *blobReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > len(r.data)-r.pos {
		r.err = fmt.Errorf("%w: truncated at offset %d", ErrInvalidKeyValues, r.pos)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *blobReader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *blobReader) u64() uint64 {
	if b := r.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *blobReader) f32() float32 { return math.Float32frombits(r.u32()) }

func (r *blobReader) cstring() string {
	if r.err != nil {
		return ""
	}
	end := bytes.IndexByte(r.data[r.pos:], 0)
	if end < 0 {
		r.err = fmt.Errorf("%w: unterminated string at offset %d", ErrInvalidKeyValues, r.pos)
		return ""
	}
	s := string(r.data[r.pos : r.pos+end])
	r.pos += end + 1
	return s
}

func (r *blobReader) typed() (kv3.Value, error) {
	typ := r.u32()
	if r.err != nil {
		return kv3.Value{}, r.err
	}
	var v kv3.Value
	switch typ {
	case fieldFloat:
		v = kv3.Float(float64(r.f32()))
	case fieldFloat64:
		v = kv3.Float(math.Float64frombits(r.u64()))
	case fieldInteger:
		v = kv3.Int(int64(int32(r.u32())))
	case fieldUInt:
		v = kv3.Int(int64(r.u32()))
	case fieldInteger64:
		v = kv3.Int(int64(r.u64()))
	case fieldUInt64:
		u := r.u64()
		if u > math.MaxInt64 {
			v = kv3.Float(float64(u))
		} else {
			v = kv3.Int(int64(u))
		}
	case fieldBoolean:
		if b := r.take(1); b != nil {
			v = kv3.Bool(b[0] != 0)
		}
	case fieldColor32:
		if b := r.take(4); b != nil {
			v = kv3.String(fmt.Sprintf("%d %d %d %d", b[0], b[1], b[2], b[3]))
		}
	case fieldVector, fieldQAngle:
		x, y, z := r.f32(), r.f32(), r.f32()
		v = kv3.String(formatFloat32(x) + " " + formatFloat32(y) + " " + formatFloat32(z))
	case fieldString, fieldCString:
		v = kv3.String(r.cstring())
	default:
		return kv3.Value{}, fmt.Errorf("%w: field type %#x at offset %d", ErrInvalidKeyValues, typ, r.pos-4)
	}
	if r.err != nil {
		return kv3.Value{}, r.err
	}
	return v, nil
}

func formatFloat32(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
