package places

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// PlaceMap maps place names to their marker positions. Names iterate in the
// order they were first added; vectors keep insertion order.
type PlaceMap struct {
	names   []string
	vectors map[string][]Vector3
}

// NewPlaceMap returns an empty PlaceMap.
func NewPlaceMap() *PlaceMap {
	return &PlaceMap{vectors: make(map[string][]Vector3)}
}

// Add appends v to the list for name, creating the entry when needed.
func (m *PlaceMap) Add(name string, v Vector3) {
	if m.vectors == nil {
		m.vectors = make(map[string][]Vector3)
	}
	if _, ok := m.vectors[name]; !ok {
		m.names = append(m.names, name)
	}
	m.vectors[name] = append(m.vectors[name], v)
}

// Names returns the place names in first-seen order.
func (m *PlaceMap) Names() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Vectors returns the positions recorded for name.
func (m *PlaceMap) Vectors(name string) []Vector3 {
	if m == nil {
		return nil
	}
	return m.vectors[name]
}

// Len reports the number of distinct place names.
func (m *PlaceMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// VectorCount reports the total number of positions across all names.
func (m *PlaceMap) VectorCount() int {
	if m == nil {
		return 0
	}
	total := 0
	for _, vs := range m.vectors {
		total += len(vs)
	}
	return total
}

// MarshalJSON encodes the map as {"name": [[x, y, z], ...]} in name order.
func (m *PlaceMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if m != nil {
		for i, name := range m.names {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeKeyJSON(&buf, name); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			buf.WriteByte('[')
			for j, v := range m.vectors[name] {
				if j > 0 {
					buf.WriteByte(',')
				}
				writeVectorJSON(&buf, v)
			}
			buf.WriteByte(']')
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeKeyJSON writes name as a JSON string without HTML escaping.
func writeKeyJSON(buf *bytes.Buffer, name string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(name); err != nil {
		return err
	}
	// Encode terminates the value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func writeVectorJSON(buf *bytes.Buffer, v Vector3) {
	buf.WriteByte('[')
	for i, c := range v.Array() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.FormatFloat(c, 'f', -1, 64))
	}
	buf.WriteByte(']')
}

// Aggregate parses every record origin and groups the results by place name.
func Aggregate(records []Record) (*PlaceMap, error) {
	m := NewPlaceMap()
	for _, rec := range records {
		v, err := ParseVector3(rec.Origin)
		if err != nil {
			return nil, err
		}
		m.Add(rec.PlaceName, v)
	}
	return m, nil
}

// ResultSet maps archive names to their PlaceMaps in insertion order.
type ResultSet struct {
	names []string
	maps  map[string]*PlaceMap
}

// NewResultSet returns an empty ResultSet.
func NewResultSet() *ResultSet {
	return &ResultSet{maps: make(map[string]*PlaceMap)}
}

// Set stores pm under name. Re-setting a name keeps its original position.
func (r *ResultSet) Set(name string, pm *PlaceMap) {
	if r.maps == nil {
		r.maps = make(map[string]*PlaceMap)
	}
	if _, ok := r.maps[name]; !ok {
		r.names = append(r.names, name)
	}
	r.maps[name] = pm
}

// Names returns archive names in insertion order.
func (r *ResultSet) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Get returns the PlaceMap stored for name.
func (r *ResultSet) Get(name string) *PlaceMap {
	if r == nil {
		return nil
	}
	return r.maps[name]
}

// Len reports the number of archives in the set.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// MarshalJSON encodes the set as {"archive": {placemap}, ...}.
func (r *ResultSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if r != nil {
		for i, name := range r.names {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeKeyJSON(&buf, name); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			body, err := r.maps[name].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(body)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
