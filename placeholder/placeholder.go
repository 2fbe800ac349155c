// Package placeholder shields interpolation tokens such as {name} from a
// translation service by swapping them for numbered markers ({0}, {1}, ...)
// and swapping them back afterwards, by position.
//
// Known limitation: if the translated text itself contains a literal marker
// such as "{0}" that was not produced by Protect, Restore will substitute it.
package placeholder

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// tokenPattern matches a brace-delimited token, non-greedy.
	tokenPattern = regexp.MustCompile(`\{.*?\}`)
	// markerPattern matches a positional marker produced by Protect.
	markerPattern = regexp.MustCompile(`\{(\d+)\}`)
)

// Protect replaces the i-th placeholder token in text with the marker {i}
// and returns the masked text together with the original tokens in order.
func Protect(text string) (string, []string) {
	locs := tokenPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text, nil
	}

	tokens := make([]string, 0, len(locs))
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for i, loc := range locs {
		b.WriteString(text[last:loc[0]])
		b.WriteString(Marker(i))
		tokens = append(tokens, text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String(), tokens
}

// Restore replaces the first occurrence of each marker {i} in masked with
// tokens[i]. Markers are resolved in a single left-to-right scan, so a
// restored token that itself looks like a marker is never substituted again.
func Restore(masked string, tokens []string) string {
	if len(tokens) == 0 {
		return masked
	}
	used := make([]bool, len(tokens))
	return markerPattern.ReplaceAllStringFunc(masked, func(m string) string {
		i, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || i >= len(tokens) || used[i] || m != Marker(i) {
			return m
		}
		used[i] = true
		return tokens[i]
	})
}

// Marker returns the positional marker for index i.
func Marker(i int) string {
	return "{" + strconv.Itoa(i) + "}"
}

// Missing returns the indices of markers that are absent from translated.
func Missing(translated string, tokens []string) []int {
	var out []int
	for i := range tokens {
		if !strings.Contains(translated, Marker(i)) {
			out = append(out, i)
		}
	}
	return out
}
