// Package i18n translates treesync's own command-line messages.
//
// Catalogs are gettext PO files embedded in the binary under
// locales/{lang}/LC_MESSAGES/treesync.po. The user's language is matched
// against the embedded catalogs, so "ru_RU.UTF-8" selects "ru".
//
//	i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	fmt.Println(i18n.T("Source locale"))
//	fmt.Println(i18n.N("key", "keys", n))
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

//go:embed all:locales
var locales embed.FS

const domain = "treesync"

var (
	po   *gotext.Locale
	lang string
)

// Init selects the catalog for lang. If lang is empty it is read from the
// environment following GNU gettext conventions. An unmatched language
// leaves messages untranslated.
func Init(requested string) {
	if requested == "" {
		requested = detectLanguage()
	}
	lang = match(requested, Available())

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Lang returns the catalog chosen by Init.
func Lang() string { return lang }

// Available lists the embedded catalogs.
func Available() []string {
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// match picks the closest available catalog, or "en" when none is close.
func match(requested string, available []string) string {
	want, err := language.Parse(strings.ReplaceAll(requested, "_", "-"))
	if err != nil || len(available) == 0 {
		return "en"
	}
	tags := []language.Tag{language.English}
	names := []string{"en"}
	for _, a := range available {
		if t, err := language.Parse(strings.ReplaceAll(a, "_", "-")); err == nil {
			tags = append(tags, t)
			names = append(names, a)
		}
	}
	_, idx, conf := language.NewMatcher(tags).Match(want)
	if conf == language.No {
		return "en"
	}
	return names[idx]
}

// T translates a string. Untranslated strings are returned unchanged.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage reads LANGUAGE, LC_ALL, LC_MESSAGES and LANG, in that order.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		if idx := strings.IndexByte(val, '.'); idx >= 0 {
			val = val[:idx]
		}
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return "en"
}
