package document

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const mergeKey = "<<"

const (
	// aliasExpansionFactor bounds the values produced while expanding aliases
	// relative to the size of the parsed document.
	aliasExpansionFactor = 100
	minAliasBudget       = 100_000
)

var (
	ErrNotMapping        = errors.New("document root is not a mapping")
	ErrExcessiveAliasing = errors.New("document contains excessive aliasing")
)

// DecodeYAML parses YAML into a Map, keeping key order at every level.
// An empty document yields an empty Map.
func DecodeYAML(data []byte) (*Map, error) {
	value, err := DecodeValue(data)
	if err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case *Map:
		return v, nil
	case nil:
		return NewMap(), nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, value)
	}
}

// DecodeValue parses a YAML or JSON value of any kind, keeping key order in
// mappings. An empty document yields nil.
func DecodeValue(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil
	}
	d := &nodeDecoder{budget: max(aliasExpansionFactor*countNodes(&root), minAliasBudget)}
	return d.fromNode(root.Content[0])
}

// countNodes counts the nodes of the parsed tree without following aliases.
func countNodes(n *yaml.Node) int {
	count := 1
	for _, child := range n.Content {
		count += countNodes(child)
	}
	return count
}

// nodeDecoder converts nodes to document values. Every alias is expanded in
// place, so the number of values produced is capped by budget.
type nodeDecoder struct {
	produced int
	budget   int
}

func (d *nodeDecoder) fromNode(n *yaml.Node) (any, error) {
	d.produced++
	if d.produced > d.budget {
		return nil, fmt.Errorf("line %d: %w", n.Line, ErrExcessiveAliasing)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.fromNode(n.Content[0])
	case yaml.AliasNode:
		return d.fromNode(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := d.fromNode(child)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return d.mappingFromNode(n)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: failed to decode scalar: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

func (d *nodeDecoder) mappingFromNode(n *yaml.Node) (*Map, error) {
	m := NewMap()
	var merged []*Map
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]
		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == "!!merge" {
			sources, err := d.mergeSources(valueNode)
			if err != nil {
				return nil, err
			}
			merged = append(merged, sources...)
			continue
		}
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return nil, fmt.Errorf("line %d: mapping key must be a string: %w", keyNode.Line, err)
		}
		value, err := d.fromNode(valueNode)
		if err != nil {
			return nil, err
		}
		m.Set(key, value)
	}
	// explicit keys win over merged ones
	for _, src := range merged {
		for pair := src.Oldest(); pair != nil; pair = pair.Next() {
			if !Has(m, pair.Key) {
				m.Set(pair.Key, Clone(pair.Value))
			}
		}
	}
	return m, nil
}

func (d *nodeDecoder) mergeSources(n *yaml.Node) ([]*Map, error) {
	value, err := d.fromNode(n)
	if err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case *Map:
		return []*Map{v}, nil
	case []any:
		out := make([]*Map, 0, len(v))
		for _, item := range v {
			m, ok := AsMap(item)
			if !ok {
				return nil, fmt.Errorf("line %d: %s value must be a mapping", n.Line, mergeKey)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: %s value must be a mapping", n.Line, mergeKey)
	}
}

// EncodeYAML renders a document value as YAML, keeping key order.
func EncodeYAML(v any) ([]byte, error) {
	node, err := toNode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func toNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case *Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if val == nil {
			return node, nil
		}
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			child, err := toNode(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", pair.Key, err)
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key},
				child,
			)
		}
		return node, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range val {
			child, err := toNode(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case map[string]any:
		return toNode(FromGo(val))
	default:
		node := &yaml.Node{}
		if err := node.Encode(v); err != nil {
			return nil, err
		}
		return node, nil
	}
}
