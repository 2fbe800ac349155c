// Package merge implements locale tree merging: a target locale's tree is
// rebuilt from the source locale's tree, reusing existing translations and
// requesting new ones for the rest.
//
//   - Keys are taken from the source, in the source's order.
//   - A leaf that already has a non-empty translation is kept when
//     PreserveTranslations is set; every other leaf is translated.
//   - Keys that exist only in the target are kept when KeepExtras is set.
//     Leaves that failed to translate are backfilled from the target too.
package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/minios-linux/treesync/localetree"
	"github.com/minios-linux/treesync/placeholder"
)

// Policy controls how existing translations and extra keys are treated.
type Policy struct {
	// PreserveTranslations keeps non-empty existing leaves instead of
	// re-translating them.
	PreserveTranslations bool
	// KeepExtras copies keys absent from the source into the result.
	KeepExtras bool
}

// DefaultPolicy preserves translations and keeps extras.
func DefaultPolicy() Policy {
	return Policy{PreserveTranslations: true, KeepExtras: true}
}

// ResolvePolicy turns tri-state flags into a Policy. Unset means true.
func ResolvePolicy(preserve, keep *bool) Policy {
	p := DefaultPolicy()
	if preserve != nil {
		p.PreserveTranslations = *preserve
	}
	if keep != nil {
		p.KeepExtras = *keep
	}
	return p
}

// ErrPlaceholderLost is passed to OnError for a leaf whose translation came
// back without one or more of its placeholders. The leaf keeps the
// translation.
var ErrPlaceholderLost = errors.New("placeholder lost in translation")

// Translator translates a single string.
type Translator interface {
	Translate(ctx context.Context, text, locale string) (string, error)
}

// Options configures a merge.
type Options struct {
	Policy     Policy
	Locale     string
	Translator Translator
	// OnError is called for every leaf whose translation failed or lost a
	// placeholder, with the dotted key path. It may be called from several
	// goroutines at once.
	OnError func(path string, err error)
}

// Stats counts what happened to the leaves of one merge.
type Stats struct {
	// Translated is the number of leaves filled by the translator.
	Translated int
	// Preserved is the number of leaves copied from the existing translation.
	Preserved int
	// Failed is the number of leaves whose translation failed.
	Failed int
	// Extras is the number of keys backfilled from the existing translation.
	Extras int
	// Damaged is the number of translated leaves missing a placeholder.
	Damaged int
}

// Calls returns the number of translator calls the merge made.
func (s Stats) Calls() int { return s.Translated + s.Failed }

type merger struct {
	opts       Options
	translated atomic.Int64
	preserved  atomic.Int64
	failed     atomic.Int64
	extras     atomic.Int64
	damaged    atomic.Int64
}

// Merge builds a new target tree from source and the target's original tree.
// The original is never modified. Translation failures do not stop the
// merge: the leaf becomes "" and opts.OnError is called.
func Merge(ctx context.Context, source, original localetree.Tree, opts Options) (localetree.Tree, Stats) {
	m := &merger{opts: opts}
	result := m.node(ctx, "", source, original)
	return result, Stats{
		Translated: int(m.translated.Load()),
		Preserved:  int(m.preserved.Load()),
		Failed:     int(m.failed.Load()),
		Extras:     int(m.extras.Load()),
		Damaged:    int(m.damaged.Load()),
	}
}

// node merges one level. Children are processed concurrently; each goroutine
// writes only its own slot, and the result keeps the source order.
func (m *merger) node(ctx context.Context, prefix string, source, original localetree.Tree) localetree.Tree {
	keys := source.Keys()
	results := make([]localetree.Tree, len(keys))

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src, _ := source.Get(key)
			orig, _ := original.Get(key)
			results[i] = m.child(ctx, localetree.JoinPath(prefix, key), src, orig)
		}()
	}
	wg.Wait()

	b := localetree.NewBuilder(len(keys) + original.Len())
	for i, key := range keys {
		b.Set(key, results[i])
	}

	if m.opts.Policy.KeepExtras {
		for _, key := range original.Keys() {
			if cur, ok := b.Get(key); ok && cur.Truthy() {
				continue
			}
			orig, _ := original.Get(key)
			// A failed leaf is only backfilled with a leaf, so the result
			// keeps the source's shape for keys the source defines.
			if src, inSource := source.Get(key); inSource && src.Kind() != orig.Kind() {
				continue
			}
			b.Set(key, orig)
			if orig.Truthy() {
				m.extras.Add(1)
			}
		}
	}

	return b.Tree()
}

func (m *merger) child(ctx context.Context, path string, src, orig localetree.Tree) localetree.Tree {
	if src.IsNode() {
		if !orig.IsNode() {
			orig = localetree.Node()
		}
		return m.node(ctx, path, src, orig)
	}

	if m.opts.Policy.PreserveTranslations && orig.IsLeaf() && orig.Truthy() {
		m.preserved.Add(1)
		return orig
	}

	return m.translate(ctx, path, src.Value())
}

func (m *merger) translate(ctx context.Context, path, text string) localetree.Tree {
	// Nothing to translate.
	if text == "" {
		return localetree.Leaf("")
	}

	masked, tokens := placeholder.Protect(text)
	out, err := m.opts.Translator.Translate(ctx, masked, m.opts.Locale)
	if err != nil {
		m.failed.Add(1)
		if m.opts.OnError != nil {
			m.opts.OnError(path, err)
		}
		return localetree.Leaf("")
	}

	m.translated.Add(1)
	if lost := placeholder.Missing(out, tokens); len(lost) > 0 {
		m.damaged.Add(1)
		if m.opts.OnError != nil {
			m.opts.OnError(path, fmt.Errorf("%w: %s", ErrPlaceholderLost, lostTokens(tokens, lost)))
		}
	}
	return localetree.Leaf(placeholder.Restore(out, tokens))
}

func lostTokens(tokens []string, lost []int) string {
	names := make([]string, len(lost))
	for i, idx := range lost {
		names[i] = tokens[idx]
	}
	return strings.Join(names, ", ")
}
