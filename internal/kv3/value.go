package kv3

// Kind identifies the type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBinary
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindBinary: "binary",
	KindArray:  "array",
	KindObject: "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a decoded KV3 value. The zero Value is null.
type Value struct {
	kind Kind
	flag string

	b   bool
	i   int64
	f   float64
	s   string
	bin []byte
	arr []Value
	obj *Object
}

func Null() Value                 { return Value{kind: KindNull} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func Int(i int64) Value           { return Value{kind: KindInt, i: i} }
func Float(f float64) Value       { return Value{kind: KindFloat, f: f} }
func String(s string) Value       { return Value{kind: KindString, s: s} }
func Binary(b []byte) Value       { return Value{kind: KindBinary, bin: b} }
func Array(items ...Value) Value  { return Value{kind: KindArray, arr: items} }
func ObjectValue(o *Object) Value { return Value{kind: KindObject, obj: o} }

// Kind returns the value type.
func (v Value) Kind() Kind { return v.kind }

// Flag returns the flag prefix (resource, soundevent, ...) or "".
func (v Value) Flag() string { return v.flag }

// WithFlag returns a copy of v carrying flag.
func (v Value) WithFlag(flag string) Value {
	v.flag = flag
	return v
}

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns floats and integers as float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsBinary() ([]byte, bool) { return v.bin, v.kind == KindBinary }

func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

func (v Value) AsObject() (*Object, bool) {
	if v.kind != KindObject || v.obj == nil {
		return nil, false
	}
	return v.obj, true
}

// Object is an ordered set of named values.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set assigns key. A repeated key keeps its first position and the last value.
func (o *Object) Set(key string, v Value) {
	if o.vals == nil {
		o.vals = make(map[string]Value)
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Keys returns the keys in document order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Lookup follows a chain of object keys starting at o.
func (o *Object) Lookup(keys ...string) (Value, bool) {
	cur := ObjectValue(o)
	for _, k := range keys {
		obj, ok := cur.AsObject()
		if !ok {
			return Value{}, false
		}
		cur, ok = obj.Get(k)
		if !ok {
			return Value{}, false
		}
	}
	return cur, true
}
