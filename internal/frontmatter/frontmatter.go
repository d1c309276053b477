// Package frontmatter reads and edits the YAML header block of markdown
// documents.
//
// A header block starts on the first line with "---" and ends at the next
// line that is "---" or "...". Anything else is body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrNotMapping is returned when the header block is valid YAML but not a
// mapping.
var ErrNotMapping = errors.New("front-matter is not a mapping")

// Split separates the header block from the body. ok is false when content
// does not open with a delimiter line or the block is never closed; body is
// then the whole content.
func Split(content []byte) (block, body []byte, ok bool) {
	rest, opened := openBlock(content)
	if !opened {
		return nil, content, false
	}
	pos := 0
	for {
		end := bytes.IndexByte(rest[pos:], '\n')
		line := rest[pos:]
		next := len(rest)
		if end >= 0 {
			line = rest[pos : pos+end]
			next = pos + end + 1
		}
		line = bytes.TrimRight(line, "\r")
		if string(line) == delimiter || string(line) == "..." {
			return rest[:pos], rest[next:], true
		}
		if end < 0 {
			return nil, content, false
		}
		pos = next
	}
}

func openBlock(content []byte) ([]byte, bool) {
	for _, opener := range []string{delimiter + "\n", delimiter + "\r\n"} {
		if bytes.HasPrefix(content, []byte(opener)) {
			return content[len(opener):], true
		}
	}
	return nil, false
}

// Parse returns the header fields of content. present is false when there
// is no header block. An empty block yields an empty, non-nil map.
func Parse(content []byte) (fields map[string]any, present bool, err error) {
	block, _, ok := Split(content)
	if !ok {
		return nil, false, nil
	}
	root, err := decodeMapping(block)
	if err != nil {
		return nil, false, err
	}
	fields = make(map[string]any)
	if err := root.Decode(&fields); err != nil {
		return nil, false, fmt.Errorf("frontmatter: decode: %w", err)
	}
	return fields, true, nil
}

// decodeMapping parses block into its mapping node. An empty block yields
// an empty mapping.
func decodeMapping(block []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, fmt.Errorf("frontmatter: parse: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}
	return root, nil
}

// Set returns content with key set to value in the header block. A header
// is created when content has none. Other keys keep their order and the
// body is left untouched.
func Set(content []byte, key string, value any) ([]byte, error) {
	block, body, ok := Split(content)
	if !ok {
		block, body = nil, content
	}
	root, err := decodeMapping(block)
	if err != nil {
		return nil, err
	}

	var valueNode yaml.Node
	if err := valueNode.Encode(value); err != nil {
		return nil, fmt.Errorf("frontmatter: encode %s: %w", key, err)
	}

	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			root.Content[i+1] = &valueNode
			replaced = true
			break
		}
	}
	if !replaced {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&valueNode)
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	buf.WriteString(delimiter + "\n")
	buf.Write(body)
	return buf.Bytes(), nil
}
