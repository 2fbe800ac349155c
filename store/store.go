// Package store persists locale trees as one JSON file per locale
// (<locale>.json) in a single flat directory.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/treesync/localetree"
)

// Ext is the locale file extension.
const Ext = ".json"

// Dir is a locale store backed by a directory.
type Dir struct {
	// Path is the directory holding the locale files.
	Path string
}

// New returns a store rooted at dir.
func New(dir string) *Dir {
	return &Dir{Path: dir}
}

// Resolve interprets a --path argument. A directory is used as-is. A path to
// an existing .json file selects its parent directory and names the source
// locale after the file. sourceLocale is returned unchanged otherwise.
func Resolve(path, sourceLocale string) (dir, source string, err error) {
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", "", fmt.Errorf("opening %s: %w", path, err)
	}
	if info.IsDir() {
		return path, sourceLocale, nil
	}
	if filepath.Ext(path) != Ext {
		return "", "", fmt.Errorf("%s is neither a directory nor a %s file", path, Ext)
	}
	return filepath.Dir(path), LocaleFromFilename(filepath.Base(path)), nil
}

// LocaleFromFilename strips the .json extension from a file name.
func LocaleFromFilename(name string) string {
	return strings.TrimSuffix(name, Ext)
}

// FilePath returns the file path for a locale.
func (d *Dir) FilePath(locale string) string {
	return filepath.Join(d.Path, locale+Ext)
}

// ListLocales returns every locale that has a .json file in the directory,
// sorted. Subdirectories and other files are ignored.
func (d *Dir) ListLocales(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.Path, err)
	}

	var locales []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.Type().IsRegular() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		locales = append(locales, LocaleFromFilename(e.Name()))
	}
	sort.Strings(locales)
	return locales, nil
}

// Targets returns every listed locale except source, each once, in the
// order first seen.
func Targets(locales []string, source string) []string {
	out := make([]string, 0, len(locales))
	seen := make(map[string]bool, len(locales))
	for _, l := range locales {
		if l == source || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// Exists reports whether a file exists for locale.
func (d *Dir) Exists(locale string) bool {
	info, err := os.Stat(d.FilePath(locale))
	return err == nil && info.Mode().IsRegular()
}

// Load reads a locale's tree. A missing or empty file yields an empty tree.
func (d *Dir) Load(ctx context.Context, locale string) (localetree.Tree, error) {
	if err := ctx.Err(); err != nil {
		return localetree.Tree{}, err
	}
	path := d.FilePath(locale)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return localetree.Node(), nil
		}
		return localetree.Tree{}, fmt.Errorf("reading %s: %w", path, err)
	}
	tree, err := localetree.Parse(data)
	if err != nil {
		return localetree.Tree{}, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// Save writes a locale's tree as pretty-printed JSON, overwriting the file.
func (d *Dir) Save(ctx context.Context, locale string, tree localetree.Tree) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := localetree.Marshal(tree)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.Path, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	path := d.FilePath(locale)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
