package places

import (
	"gopkg.in/yaml.v3"
)

// MarshalYAML encodes the map as an ordered mapping of flow-style triples.
func (m *PlaceMap) MarshalYAML() (any, error) {
	return m.yamlNode(), nil
}

func (m *PlaceMap) yamlNode() *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if m == nil {
		node.Style = yaml.FlowStyle
		return node
	}
	if len(m.names) == 0 {
		node.Style = yaml.FlowStyle
	}
	for _, name := range m.names {
		list := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, v := range m.vectors[name] {
			list.Content = append(list.Content, vectorYAMLNode(v))
		}
		node.Content = append(node.Content, keyYAMLNode(name), list)
	}
	return node
}

// MarshalYAML encodes the set as an ordered mapping of archive name to place map.
func (r *ResultSet) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if r == nil || len(r.names) == 0 {
		node.Style = yaml.FlowStyle
		return node, nil
	}
	for _, name := range r.names {
		node.Content = append(node.Content, keyYAMLNode(name), r.maps[name].yamlNode())
	}
	return node, nil
}

func keyYAMLNode(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}

func vectorYAMLNode(v Vector3) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, c := range v.Array() {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: formatFloat(c)})
	}
	return seq
}
