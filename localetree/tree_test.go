package localetree

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseAndMarshal_PreservesOrderAndNesting(t *testing.T) {
	data := []byte(`{
  "zeta": "Last letter",
  "nav": {
    "home": "Home",
    "about": ""
  },
  "alpha": "First {name}"
}`)

	tree, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if got, want := tree.Keys(), []string{"zeta", "nav", "alpha"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	nav, ok := tree.Get("nav")
	if !ok || !nav.IsNode() {
		t.Fatalf("nav should be a node, got %v", nav)
	}
	if got, want := nav.Keys(), []string{"home", "about"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("nav.Keys() = %v, want %v", got, want)
	}

	total, translated, untranslated := tree.Stats()
	if total != 4 || translated != 3 || untranslated != 1 {
		t.Fatalf("unexpected stats: total=%d translated=%d untranslated=%d", total, translated, untranslated)
	}

	out, err := Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(out) != string(data)+"\n" {
		t.Fatalf("round-trip changed document:\n%s", out)
	}
}

func TestMarshal_NoHTMLEscapingAndEmptyNode(t *testing.T) {
	b := NewBuilder(2)
	b.Set("html", Leaf("<b>&</b>"))
	b.Set("empty", Node())

	out, err := Marshal(b.Tree())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := "{\n  \"html\": \"<b>&</b>\",\n  \"empty\": {}\n}\n"
	if string(out) != want {
		t.Fatalf("Marshal() = %q, want %q", out, want)
	}
}

func TestParse_EmptyInputIsEmptyNode(t *testing.T) {
	for _, in := range []string{"", "  \n\t"} {
		tree, err := Parse([]byte(in))
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", in, err)
		}
		if !tree.IsNode() || tree.Len() != 0 {
			t.Fatalf("Parse(%q) = %v, want empty node", in, tree)
		}
	}
}

func TestParse_NullBecomesEmptyLeaf(t *testing.T) {
	tree, err := Parse([]byte(`{"a": null}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	a, ok := tree.Get("a")
	if !ok || !a.IsLeaf() || a.Value() != "" {
		t.Fatalf("a = %v, want empty leaf", a)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		unsupported bool
	}{
		{"broken", `{"broken":`, false},
		{"array root", `["a"]`, false},
		{"number", `{"a": {"b": 1}}`, true},
		{"bool", `{"a": true}`, true},
		{"array value", `{"a": ["x"]}`, true},
		{"trailing data", `{"a": "x"} {}`, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.in))
			if err == nil {
				t.Fatal("expected parse error")
			}
			if got := errors.Is(err, ErrUnsupportedValue); got != tc.unsupported {
				t.Fatalf("errors.Is(ErrUnsupportedValue) = %v, want %v (err=%v)", got, tc.unsupported, err)
			}
		})
	}
}

func TestParse_UnsupportedValueNamesPath(t *testing.T) {
	_, err := Parse([]byte(`{"a": {"b": 1}}`))
	if err == nil || !strings.Contains(err.Error(), `"a.b"`) {
		t.Fatalf("error should name path a.b, got %v", err)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		tree Tree
		want bool
	}{
		{"empty leaf", Leaf(""), false},
		{"leaf", Leaf("x"), true},
		{"empty node", Node(), false},
		{"node", FromMap(map[string]any{"a": ""}), true},
	}
	for _, tc := range tests {
		if got := tc.tree.Truthy(); got != tc.want {
			t.Errorf("%s: Truthy() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBuilderSetReplacesInPlace(t *testing.T) {
	b := NewBuilder(3)
	b.Set("a", Leaf("1"))
	b.Set("b", Leaf("2"))
	b.Set("a", Leaf("3"))

	tree := b.Tree()
	if got := tree.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Keys() = %v", got)
	}
	if a, _ := tree.Get("a"); a.Value() != "3" {
		t.Fatalf("a = %q, want 3", a.Value())
	}
}

func TestCompare(t *testing.T) {
	ref := FromMap(map[string]any{
		"a":   "x",
		"nav": map[string]any{"home": "Home", "about": "About"},
	})
	target := FromMap(map[string]any{
		"a":     "x",
		"nav":   map[string]any{"home": "Accueil"},
		"extra": "old",
	})

	d := Compare(ref, target)
	if !reflect.DeepEqual(d.Missing, []string{"nav.about"}) {
		t.Errorf("Missing = %v", d.Missing)
	}
	if !reflect.DeepEqual(d.Changed, []string{"nav.home"}) {
		t.Errorf("Changed = %v", d.Changed)
	}
	if !reflect.DeepEqual(d.Extra, []string{"extra"}) {
		t.Errorf("Extra = %v", d.Extra)
	}
	if d.Empty() {
		t.Error("Empty() = true")
	}
	if !Compare(ref, ref).Empty() {
		t.Error("self-compare should be empty")
	}
}

func TestEqualAndString(t *testing.T) {
	a := FromMap(map[string]any{"b": "2", "a": map[string]any{"c": "3"}})
	b := FromMap(map[string]any{"a": map[string]any{"c": "3"}, "b": "2"})
	if !Equal(a, b) {
		t.Fatalf("Equal(%v, %v) = false", a, b)
	}
	if got, want := a.String(), `{"a":{"c":"3"},"b":"2"}`; got != want {
		t.Fatalf("String() = %s, want %s", got, want)
	}
	if Equal(a, Leaf("x")) {
		t.Fatal("node should not equal leaf")
	}
}
