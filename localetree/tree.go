// Package localetree implements the Locale Tree: a nested mapping of keys to
// either leaf strings or further trees, as stored in one locale's JSON file.
//
// The expected file format is any JSON object whose values are strings or
// objects:
//
//	{
//	  "title": "Hello {name}",
//	  "nav": {
//	    "home": "Home",
//	    "about": "About"
//	  }
//	}
//
// Key order is preserved on round-trip so that rewritten locale files produce
// minimal diffs. Empty string values mean untranslated.
package localetree

import (
	"sort"
	"strings"
)

// Kind discriminates the two shapes a Tree can take.
type Kind int

const (
	// KindNode is a nested mapping of keys to trees.
	KindNode Kind = iota
	// KindLeaf is a terminal string value.
	KindLeaf
)

// Tree is either a Leaf holding a string or a Node holding ordered children.
// The zero value is an empty node.
type Tree struct {
	kind  Kind
	value string
	// keys preserves insertion order; index maps key -> position in keys/children.
	keys     []string
	children []Tree
	index    map[string]int
}

// Leaf returns a leaf tree holding s.
func Leaf(s string) Tree {
	return Tree{kind: KindLeaf, value: s}
}

// Node returns an empty node.
func Node() Tree {
	return Tree{kind: KindNode}
}

// Kind reports whether t is a leaf or a node.
func (t Tree) Kind() Kind { return t.kind }

// IsLeaf reports whether t is a leaf.
func (t Tree) IsLeaf() bool { return t.kind == KindLeaf }

// IsNode reports whether t is a node.
func (t Tree) IsNode() bool { return t.kind == KindNode }

// Value returns the leaf string, or "" for nodes.
func (t Tree) Value() string {
	if t.kind != KindLeaf {
		return ""
	}
	return t.value
}

// Len returns the number of direct children of a node (0 for leaves).
func (t Tree) Len() int { return len(t.keys) }

// Keys returns the node's keys in their original order.
func (t Tree) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Get returns the child stored under key.
func (t Tree) Get(key string) (Tree, bool) {
	if t.kind != KindNode || t.index == nil {
		return Tree{}, false
	}
	i, ok := t.index[key]
	if !ok {
		return Tree{}, false
	}
	return t.children[i], true
}

// Truthy reports whether t counts as an existing value: a non-empty leaf or a
// node with at least one child. Empty strings and empty nodes count as absent.
func (t Tree) Truthy() bool {
	if t.kind == KindLeaf {
		return t.value != ""
	}
	return len(t.keys) > 0
}

// Equal reports whether a and b have the same shape, keys, order and values.
func Equal(a, b Tree) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindLeaf {
		return a.value == b.value
	}
	if len(a.keys) != len(b.keys) {
		return false
	}
	for i, k := range a.keys {
		if b.keys[i] != k || !Equal(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

// Builder assembles a node. Setting an existing key replaces its value in
// place, keeping the key's original position.
type Builder struct {
	keys     []string
	children []Tree
	index    map[string]int
}

// NewBuilder returns a builder sized for n keys.
func NewBuilder(n int) *Builder {
	return &Builder{
		keys:     make([]string, 0, n),
		children: make([]Tree, 0, n),
		index:    make(map[string]int, n),
	}
}

// Set stores child under key.
func (b *Builder) Set(key string, child Tree) {
	if i, ok := b.index[key]; ok {
		b.children[i] = child
		return
	}
	b.index[key] = len(b.keys)
	b.keys = append(b.keys, key)
	b.children = append(b.children, child)
}

// Get returns the child currently stored under key.
func (b *Builder) Get(key string) (Tree, bool) {
	i, ok := b.index[key]
	if !ok {
		return Tree{}, false
	}
	return b.children[i], true
}

// Tree returns the built node. The builder must not be used afterwards.
func (b *Builder) Tree() Tree {
	return Tree{kind: KindNode, keys: b.keys, children: b.children, index: b.index}
}

// FromMap builds a node from a nested map of strings and maps, with keys sorted.
// Values of any other type are ignored. Intended for tests and literals.
func FromMap(m map[string]any) Tree {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := NewBuilder(len(keys))
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			b.Set(k, Leaf(v))
		case map[string]any:
			b.Set(k, FromMap(v))
		case Tree:
			b.Set(k, v)
		}
	}
	return b.Tree()
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Walk calls fn for every leaf in document order with its dotted key path.
func (t Tree) Walk(fn func(path string, value string)) {
	t.walk("", fn)
}

func (t Tree) walk(prefix string, fn func(string, string)) {
	if t.kind == KindLeaf {
		fn(prefix, t.value)
		return
	}
	for i, k := range t.keys {
		t.children[i].walk(JoinPath(prefix, k), fn)
	}
}

// Paths returns every leaf's dotted key path in document order.
func (t Tree) Paths() []string {
	var out []string
	t.Walk(func(p, _ string) { out = append(out, p) })
	return out
}

// Stats returns (total, translated, untranslated) leaf counts.
func (t Tree) Stats() (total, translated, untranslated int) {
	t.Walk(func(_, v string) {
		total++
		if v != "" {
			translated++
		} else {
			untranslated++
		}
	})
	return
}

// JoinPath joins a dotted prefix and a key.
func JoinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Diff describes how a target tree's leaves differ from a reference tree.
type Diff struct {
	// Missing lists leaf paths present in the reference but not the target.
	Missing []string
	// Extra lists leaf paths present in the target but not the reference.
	Extra []string
	// Changed lists leaf paths present in both whose values differ.
	Changed []string
}

// Empty reports whether the diff has no entries.
func (d Diff) Empty() bool {
	return len(d.Missing) == 0 && len(d.Extra) == 0 && len(d.Changed) == 0
}

// Compare diffs target against reference by leaf path.
func Compare(reference, target Tree) Diff {
	ref := leafMap(reference)
	tgt := leafMap(target)

	var d Diff
	for _, p := range reference.Paths() {
		v, ok := tgt[p]
		switch {
		case !ok:
			d.Missing = append(d.Missing, p)
		case v != ref[p]:
			d.Changed = append(d.Changed, p)
		}
	}
	for _, p := range target.Paths() {
		if _, ok := ref[p]; !ok {
			d.Extra = append(d.Extra, p)
		}
	}
	return d
}

func leafMap(t Tree) map[string]string {
	m := make(map[string]string)
	t.Walk(func(p, v string) { m[p] = v })
	return m
}

// String renders t as compact JSON, for debugging and test failure output.
func (t Tree) String() string {
	var b strings.Builder
	writeCompact(&b, t)
	return b.String()
}

func writeCompact(b *strings.Builder, t Tree) {
	if t.kind == KindLeaf {
		b.WriteString(jsonString(t.value))
		return
	}
	b.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(jsonString(k))
		b.WriteByte(':')
		writeCompact(b, t.children[i])
	}
	b.WriteByte('}')
}
