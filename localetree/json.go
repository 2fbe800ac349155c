package localetree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnsupportedValue is returned when a JSON value is neither a string, an
// object, nor null.
var ErrUnsupportedValue = errors.New("unsupported value")

// Parse parses a JSON document into a Tree, preserving key order.
// Empty or whitespace-only input yields an empty node.
func Parse(data []byte) (Tree, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Node(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return Tree{}, fmt.Errorf("parsing JSON: %w", err)
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return Tree{}, fmt.Errorf("parsing JSON: expected object at top level, got %v", t)
	}

	tree, err := parseObject(dec, "")
	if err != nil {
		return Tree{}, fmt.Errorf("parsing JSON: %w", err)
	}

	// Reject trailing content after the root object.
	if _, err := dec.Token(); err != io.EOF {
		return Tree{}, fmt.Errorf("parsing JSON: unexpected data after top-level object")
	}
	return tree, nil
}

// parseObject reads key/value pairs until the closing brace. The opening
// brace has already been consumed.
func parseObject(dec *json.Decoder, prefix string) (Tree, error) {
	b := NewBuilder(8)

	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return Tree{}, err
		}
		key, ok := kt.(string)
		if !ok {
			return Tree{}, fmt.Errorf("expected string key, got %T", kt)
		}
		path := JoinPath(prefix, key)

		vt, err := dec.Token()
		if err != nil {
			return Tree{}, err
		}

		switch v := vt.(type) {
		case string:
			b.Set(key, Leaf(v))
		case nil:
			b.Set(key, Leaf(""))
		case json.Delim:
			if v != '{' {
				return Tree{}, fmt.Errorf("%w at %q: arrays are not allowed", ErrUnsupportedValue, path)
			}
			child, err := parseObject(dec, path)
			if err != nil {
				return Tree{}, err
			}
			b.Set(key, child)
		default:
			return Tree{}, fmt.Errorf("%w at %q: %T", ErrUnsupportedValue, path, vt)
		}
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return Tree{}, err
	}
	return b.Tree(), nil
}

// Marshal renders t as pretty-printed JSON with 2-space indentation,
// preserving key order. A trailing newline is appended.
func Marshal(t Tree) ([]byte, error) {
	if !t.IsNode() {
		return nil, fmt.Errorf("top-level value must be an object")
	}
	var b strings.Builder
	writeIndented(&b, t, 0)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func writeIndented(b *strings.Builder, t Tree, depth int) {
	if t.IsLeaf() {
		b.WriteString(jsonString(t.value))
		return
	}
	if len(t.keys) == 0 {
		b.WriteString("{}")
		return
	}

	indent := strings.Repeat("  ", depth+1)
	b.WriteString("{\n")
	for i, k := range t.keys {
		b.WriteString(indent)
		b.WriteString(jsonString(k))
		b.WriteString(": ")
		writeIndented(b, t.children[i], depth+1)
		if i < len(t.keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteByte('}')
}

// jsonString returns s as a JSON string literal without HTML escaping.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
