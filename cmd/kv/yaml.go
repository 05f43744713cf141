package kv

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// EncodeEntries writes entries as one flat YAML mapping from path to value,
// in path order. A flat mapping can hold a path that is both an entry and
// the parent of other entries, which a nested document cannot.
func EncodeEntries(w io.Writer, entries map[string]string) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, path := range sortedPaths(entries) {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: path},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: entries[path]},
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}

// DecodeEntries reads a YAML mapping of paths to values. Nested mappings are
// flattened by joining their keys with ".", so both the output of
// EncodeEntries and hand written trees are accepted. An empty document
// yields no entries.
func DecodeEntries(r io.Reader) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	entries := make(map[string]string)
	if len(doc.Content) == 0 {
		return entries, nil
	}
	if err := flatten(doc.Content[0], "", entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func flatten(node *yaml.Node, prefix string, entries map[string]string) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping below '%s'", node.Line, prefix)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Value == "" {
			return fmt.Errorf("line %d: empty key below '%s'", key.Line, prefix)
		}
		path := key.Value
		if prefix != "" {
			path = prefix + "." + key.Value
		}

		if value.Kind == yaml.AliasNode {
			value = value.Alias
		}
		switch value.Kind {
		case yaml.ScalarNode:
			entries[path] = value.Value
		case yaml.MappingNode:
			if err := flatten(value, path, entries); err != nil {
				return err
			}
		default:
			return fmt.Errorf("line %d: value of '%s' must be a scalar or a mapping", value.Line, path)
		}
	}
	return nil
}

func sortedPaths(entries map[string]string) []string {
	paths := make([]string, 0, len(entries))
	for path := range entries {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}
