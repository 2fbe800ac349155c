// Package pipeline runs a sync: it loads the source locale, then merges
// and saves every target locale concurrently. A failure in one locale
// never affects the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/minios-linux/treesync/config"
	"github.com/minios-linux/treesync/localetree"
	"github.com/minios-linux/treesync/merge"
	"github.com/minios-linux/treesync/report"
	"github.com/minios-linux/treesync/store"
	"github.com/minios-linux/treesync/telemetry"
	"github.com/minios-linux/treesync/translate"
)

// Component is the name messages from a sync are tagged with.
const Component = "Translate"

// Store is the locale storage a sync reads and writes.
type Store interface {
	ListLocales(ctx context.Context) ([]string, error)
	Exists(locale string) bool
	Load(ctx context.Context, locale string) (localetree.Tree, error)
	Save(ctx context.Context, locale string, tree localetree.Tree) error
}

// Status is the result of processing one locale.
type Status int

const (
	// Succeeded means the locale was merged and saved.
	Succeeded Status = iota
	// Partial means the locale was saved but some leaves failed to translate.
	Partial
	// Skipped means the provider does not support the locale.
	Skipped
	// Failed means nothing was saved for the locale.
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Partial:
		return "partial"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Failed reports whether s counts towards a failed run.
func (s Status) Failed() bool { return s == Failed || s == Partial }

// Changes lists the leaf paths a merge added, removed and changed relative
// to the locale's previous contents.
type Changes struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether the merge left the locale unchanged.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

func changesBetween(before, after localetree.Tree) Changes {
	d := localetree.Compare(before, after)
	return Changes{Added: d.Extra, Removed: d.Missing, Changed: d.Changed}
}

// Outcome is the result for one target locale.
type Outcome struct {
	Locale   string
	Status   Status
	Err      error
	Stats    merge.Stats
	Changes  Changes
	Duration time.Duration
}

// Job is one batch of target locales to bring in line with a source tree.
type Job struct {
	Source   localetree.Tree
	Locales  []string
	Policy   merge.Policy
	Provider translate.Provider
	Store    Store
	Reporter *report.Reporter
	// DryRun merges without saving.
	DryRun bool
}

// Run processes every locale in its own goroutine and waits for all of
// them. Outcomes are returned in the order of job.Locales.
func Run(ctx context.Context, job Job) []Outcome {
	if job.Reporter == nil {
		job.Reporter = report.Discard()
	}

	outcomes := make([]Outcome, len(job.Locales))
	var wg sync.WaitGroup
	for i, locale := range job.Locales {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = processLocale(ctx, job, locale)
		}()
	}
	wg.Wait()
	return outcomes
}

func processLocale(ctx context.Context, job Job, locale string) (out Outcome) {
	ctx, span := telemetry.Tracer().Start(ctx, "treesync.locale",
		trace.WithAttributes(attribute.String("treesync.locale", locale)))
	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		span.SetAttributes(
			attribute.String("treesync.status", out.Status.String()),
			attribute.Int("treesync.translated", out.Stats.Translated),
			attribute.Int("treesync.preserved", out.Stats.Preserved),
			attribute.Int("treesync.failed", out.Stats.Failed),
			attribute.Int("treesync.damaged", out.Stats.Damaged),
			attribute.Int("treesync.provider_calls", out.Stats.Calls()),
		)
		if out.Err != nil && out.Status != Skipped {
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, out.Err.Error())
		}
		span.End()
	}()

	r := job.Reporter
	out.Locale = locale

	supported, err := job.Provider.IsLocaleSupported(ctx, locale)
	if err != nil {
		out.Status, out.Err = Failed, fmt.Errorf("%w: %s: %w", ErrTranslation, locale, err)
		r.Error("%v", out.Err)
		return out
	}
	if !supported {
		out.Status, out.Err = Skipped, fmt.Errorf("%s %w", locale, ErrUnsupportedLocale)
		r.Warn("%v. Skipping.", out.Err)
		return out
	}

	original, err := job.Store.Load(ctx, locale)
	if err != nil {
		out.Status, out.Err = Failed, fmt.Errorf("%w: %w", ErrLoadTarget, err)
		r.Error("%v", out.Err)
		return out
	}

	result, stats := merge.Merge(ctx, job.Source, original, merge.Options{
		Policy:     job.Policy,
		Locale:     locale,
		Translator: job.Provider,
		OnError: func(path string, err error) {
			if errors.Is(err, merge.ErrPlaceholderLost) {
				r.Warn("%s: %s: %v", locale, path, err)
				return
			}
			if errors.Is(err, translate.ErrInvalidLocale) {
				r.Error("Invalid Locale %s", locale)
				return
			}
			r.Error("%s: %s: %v", locale, path, err)
		},
	})
	out.Stats = stats
	out.Changes = changesBetween(original, result)

	// A cancelled run must not overwrite the file with half-translated leaves.
	if err := ctx.Err(); err != nil {
		out.Status, out.Err = Failed, fmt.Errorf("%w: %s: %w", ErrTranslation, locale, err)
		return out
	}

	if job.DryRun {
		r.Info("Would update locale '%s': %s", locale, describe(out.Changes))
	} else {
		if err := job.Store.Save(ctx, locale, result); err != nil {
			out.Status, out.Err = Failed, fmt.Errorf("%w: %w", ErrPersist, err)
			r.Error("%v", out.Err)
			return out
		}
		r.Success("Translated locale '%s'", locale)
	}

	if stats.Failed > 0 {
		out.Status = Partial
		out.Err = fmt.Errorf("%w: %d key(s) in %s", ErrTranslation, stats.Failed, locale)
		return out
	}
	out.Status = Succeeded
	return out
}

func describe(c Changes) string {
	if c.Empty() {
		return "no changes"
	}
	return fmt.Sprintf("%d added, %d removed, %d changed", len(c.Added), len(c.Removed), len(c.Changed))
}

// Deps are the collaborators of Sync. Nil fields are built from the config.
type Deps struct {
	Store    Store
	Provider translate.Provider
	Reporter *report.Reporter
}

// Result describes a whole sync.
type Result struct {
	SourceLocale string
	Targets      []string
	Outcomes     []Outcome
}

// Sync runs one full sync described by cfg. It returns ErrMissingCredential
// or ErrSourceLoad before touching any target; otherwise the per-locale
// outcomes are in the result and the error is their Summary.
func Sync(ctx context.Context, cfg *config.Config, deps Deps) (Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "treesync.sync",
		trace.WithAttributes(
			attribute.String("treesync.source", cfg.SourceLocale),
			attribute.String("treesync.provider", cfg.Provider),
			attribute.Bool("treesync.dry_run", cfg.DryRun),
		))
	defer span.End()

	res := Result{SourceLocale: cfg.SourceLocale}
	r := deps.Reporter
	if r == nil {
		r = report.Discard()
	}
	r = r.With(Component)

	if cfg.APIKey == "" {
		return res, ErrMissingCredential
	}

	st := deps.Store
	if st == nil {
		st = store.New(cfg.Dir)
	}

	locales, err := st.ListLocales(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSourceLoad, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	res.Targets = store.Targets(locales, cfg.SourceLocale)
	if len(cfg.Locales) > 0 {
		res.Targets = store.Targets(cfg.Locales, cfg.SourceLocale)
	}
	r.Info("Source locale = %s", cfg.SourceLocale)
	r.Info("Target locales = %s", strings.Join(res.Targets, ","))

	if !st.Exists(cfg.SourceLocale) {
		err = fmt.Errorf("%w: no file for locale %s", ErrSourceLoad, cfg.SourceLocale)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	source, err := st.Load(ctx, cfg.SourceLocale)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSourceLoad, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}

	provider := deps.Provider
	if provider == nil {
		opts := cfg.TranslateOptions()
		opts.OnLog = r.Logf
		p, err := translate.New(opts)
		if err != nil {
			return res, err
		}
		provider = p
	}
	provider = translate.Limit(provider, cfg.Concurrency)

	res.Outcomes = Run(ctx, Job{
		Source:   source,
		Locales:  res.Targets,
		Policy:   cfg.Policy(),
		Provider: provider,
		Store:    st,
		Reporter: r,
		DryRun:   cfg.DryRun,
	})

	err = Summary(res.Outcomes)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}
