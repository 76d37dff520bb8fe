package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type nodeKind int

const (
	otherNode nodeKind = iota
	objectNode
	numberNode
)

// node is a decoded value that remembers object key order. A repeated key keeps
// its first position and takes the last value.
type node struct {
	kind   nodeKind
	keys   []string
	fields map[string]*node
	num    float64
	raw    string
}

func newObject() *node {
	return &node{kind: objectNode, fields: make(map[string]*node)}
}

func (n *node) set(key string, v *node) {
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = v
}

// decodeJSON walks the token stream of a single JSON document. A nil node means
// the input was empty.
func decodeJSON(data []byte) (*node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	root, err := jsonValue(dec)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after top-level value")
	}
	return root, nil
}

func jsonValue(dec *json.Decoder) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		if t == '[' {
			for dec.More() {
				if _, err := jsonValue(dec); err != nil {
					return nil, err
				}
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return &node{raw: "array"}, nil
		}
		obj := newObject()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := kt.(string)
			v, err := jsonValue(dec)
			if err != nil {
				return nil, err
			}
			obj.set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return &node{raw: t.String()}, nil
		}
		return &node{kind: numberNode, num: f, raw: t.String()}, nil
	default:
		return &node{raw: fmt.Sprint(t)}, nil
	}
}

// decodeYAML converts a YAML document to the same ordered tree.
func decodeYAML(data []byte) (*node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return yamlValue(doc.Content[0]), nil
}

func yamlValue(y *yaml.Node) *node {
	switch y.Kind {
	case yaml.MappingNode:
		obj := newObject()
		for i := 0; i+1 < len(y.Content); i += 2 {
			obj.set(y.Content[i].Value, yamlValue(y.Content[i+1]))
		}
		return obj
	case yaml.ScalarNode:
		var f float64
		if y.Tag != "!!str" && y.Decode(&f) == nil {
			return &node{kind: numberNode, num: f, raw: y.Value}
		}
		return &node{raw: y.Value}
	case yaml.AliasNode:
		if y.Alias != nil {
			return yamlValue(y.Alias)
		}
	}
	return &node{raw: y.Value}
}
