package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/minios-linux/treesync/config"
	"github.com/minios-linux/treesync/i18n"
	"github.com/minios-linux/treesync/localetree"
	"github.com/minios-linux/treesync/store"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// status (read-only: per-locale translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	f := &syncFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show per-locale translation statistics"),
		Long: `Compare every target locale with the source locale and show how many
keys are translated, missing or left over. Does not modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Loader{Flags: f.apply(cmd, nil)}.Load()
			if err != nil {
				return err
			}
			return runStatus(cmd.Context(), os.Stderr, cfg)
		},
	}
	f.registerLocation(cmd)
	return cmd
}

// localeStats describes one target locale relative to the source.
type localeStats struct {
	Total      int
	Translated int
	// Missing counts source keys absent from the target or left empty.
	Missing int
	// Extra counts target keys the source does not have.
	Extra int
}

func (s localeStats) Percent() int {
	if s.Total == 0 {
		return 100
	}
	return s.Translated * 100 / s.Total
}

func computeStats(source, target localetree.Tree) localeStats {
	values := map[string]string{}
	target.Walk(func(p, v string) { values[p] = v })

	var s localeStats
	source.Walk(func(p, _ string) {
		s.Total++
		if values[p] != "" {
			s.Translated++
		} else {
			s.Missing++
		}
	})
	s.Extra = len(localetree.Compare(source, target).Extra)
	return s
}

func runStatus(ctx context.Context, w io.Writer, cfg *config.Config) error {
	st := store.New(cfg.Dir)
	locales, err := st.ListLocales(ctx)
	if err != nil {
		return err
	}
	if !st.Exists(cfg.SourceLocale) {
		return fmt.Errorf("%s: %s", i18n.T("source locale file not found"), st.FilePath(cfg.SourceLocale))
	}
	source, err := st.Load(ctx, cfg.SourceLocale)
	if err != nil {
		return err
	}

	total, _, _ := source.Stats()
	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Locales"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Directory:"), cfg.Dir)
	fmt.Fprintf(w, "  %-12s %s (%d %s)\n", i18n.T("Source:"), cfg.SourceLocale, total, i18n.N("key", "keys", total))

	targets := store.Targets(locales, cfg.SourceLocale)
	if len(cfg.Locales) > 0 {
		targets = store.Targets(cfg.Locales, cfg.SourceLocale)
	}
	if len(targets) == 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n\n", i18n.T("No target locale files found"))
		return nil
	}

	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Translation Statistics"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	width := langColumnWidth(targets)
	for _, locale := range targets {
		target, err := st.Load(ctx, locale)
		if err != nil {
			fmt.Fprintf(w, "  %-*s %s%s%s\n", width, locale, colorRed, i18n.T("error reading"), colorReset)
			continue
		}
		s := computeStats(source, target)
		fmt.Fprintf(w, "  %-*s %s (%d/%d", width, locale, progressBar(s.Percent(), 20), s.Translated, s.Total)
		if s.Missing > 0 {
			fmt.Fprintf(w, ", %d %s", s.Missing, i18n.T("missing"))
		}
		if s.Extra > 0 {
			fmt.Fprintf(w, ", %d %s", s.Extra, i18n.T("extra"))
		}
		fmt.Fprintln(w, ")")
	}
	fmt.Fprintln(w)
	return nil
}

// progressBar renders a coloured bar followed by the percentage.
func progressBar(percent, width int) string {
	percent = max(0, min(percent, 100))
	filled := percent * width / 100

	color := colorGreen
	if percent < 50 {
		color = colorRed
	} else if percent < 100 {
		color = colorYellow
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}

func langColumnWidth(langs []string) int {
	width := 0
	for _, l := range langs {
		width = max(width, len(l))
	}
	return width
}
