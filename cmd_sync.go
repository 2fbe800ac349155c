package main

import (
	"context"
	"errors"
	"time"

	"github.com/minios-linux/treesync/config"
	"github.com/minios-linux/treesync/i18n"
	"github.com/minios-linux/treesync/pipeline"
	"github.com/minios-linux/treesync/settings"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// Shared run flags
// ---------------------------------------------------------------------------

type syncFlags struct {
	path        string
	source      string
	locales     []string
	preserve    bool
	keep        bool
	provider    string
	model       string
	baseURL     string
	proxy       string
	concurrency int
	timeout     time.Duration
	maxRetries  int
	dryRun      bool
	verbose     bool
}

// registerLocation adds the flags that select the locale files.
func (f *syncFlags) registerLocation(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.path, "path", "p", ".", i18n.T("Locale directory or source locale file"))
	fl.StringVar(&f.source, "source", config.DefaultSourceLocale, i18n.T("Source locale"))
	fl.StringSliceVar(&f.locales, "locales", nil, i18n.T("Only process these target locales (comma-separated)"))
}

// register adds every flag of a translating run.
func (f *syncFlags) register(cmd *cobra.Command) {
	f.registerLocation(cmd)
	fl := cmd.Flags()
	fl.BoolVar(&f.preserve, "preserve", true, i18n.T("Keep existing translations instead of re-translating them"))
	fl.BoolVar(&f.keep, "keep", true, i18n.T("Keep keys that no longer exist in the source"))
	fl.StringVar(&f.provider, "provider", "google", i18n.T("Translation provider: google, openai"))
	fl.StringVar(&f.model, "model", "", i18n.T("Model name (openai)"))
	fl.StringVar(&f.baseURL, "base-url", "", i18n.T("API endpoint (openai, or to override google)"))
	fl.StringVar(&f.proxy, "proxy", "", i18n.T("HTTP/HTTPS proxy URL"))
	fl.IntVar(&f.concurrency, "concurrency", config.DefaultConcurrency, i18n.T("Maximum concurrent provider requests"))
	fl.DurationVar(&f.timeout, "timeout", config.DefaultTimeout, i18n.T("Per-request timeout"))
	fl.IntVar(&f.maxRetries, "max-retries", config.DefaultMaxRetries, i18n.T("Retries on rate limits and server errors"))
	fl.BoolVar(&f.dryRun, "dry-run", false, i18n.T("Show what would change without writing files"))
	fl.BoolVarP(&f.verbose, "verbose", "v", false, i18n.T("Show request details"))
}

// apply returns a config layer holding only the flags the user passed.
// The first positional argument is the API key.
func (f *syncFlags) apply(cmd *cobra.Command, args []string) func(*config.Config) {
	return func(c *config.Config) {
		fl := cmd.Flags()
		if len(args) > 0 && args[0] != "" {
			c.APIKey = args[0]
		}
		if fl.Changed("path") {
			c.Path = f.path
		}
		if fl.Changed("source") {
			c.SourceLocale = f.source
		}
		if fl.Changed("locales") {
			c.Locales = f.locales
		}
		if fl.Changed("preserve") {
			v := f.preserve
			c.Preserve = &v
		}
		if fl.Changed("keep") {
			v := f.keep
			c.Keep = &v
		}
		if fl.Changed("provider") {
			c.Provider = f.provider
		}
		if fl.Changed("model") {
			c.Model = f.model
		}
		if fl.Changed("base-url") {
			c.BaseURL = f.baseURL
		}
		if fl.Changed("proxy") {
			c.Proxy = f.proxy
		}
		if fl.Changed("concurrency") {
			c.Concurrency = f.concurrency
		}
		if fl.Changed("timeout") {
			c.Timeout = f.timeout
		}
		if fl.Changed("max-retries") {
			c.MaxRetries = f.maxRetries
		}
		if fl.Changed("dry-run") {
			c.DryRun = f.dryRun
		}
		if fl.Changed("verbose") {
			c.Verbose = f.verbose
		}
	}
}

// loadConfig resolves the run configuration, falling back to the
// credential store for the key and endpoint.
func loadConfig(cmd *cobra.Command, f *syncFlags, args []string) (*config.Config, error) {
	return config.Loader{
		Flags:           f.apply(cmd, args),
		CredentialFirst: true,
		Fallback: func(c *config.Config) {
			c.APIKey = settings.ResolveAPIKey(c.Provider, c.APIKey)
			if c.BaseURL == "" {
				c.BaseURL = settings.GetBaseURL(c.Provider)
			}
		},
	}.Load()
}

// ---------------------------------------------------------------------------
// sync (default command)
// ---------------------------------------------------------------------------

func newSyncCmd() *cobra.Command {
	f := &syncFlags{}
	cmd := &cobra.Command{
		Use:   "sync [api-key]",
		Short: i18n.T("Merge and translate every target locale"),
		Long: `Bring every <locale>.json next to the source locale file in line with it.

Keys are taken from the source file, in its order. Existing translations are
kept unless --preserve=false. Keys missing from the source are kept unless
--keep=false. Everything else is translated.

The API key is read from the argument, TREESYNC_API_KEY, a .env file, the
provider's own variable (GOOGLE_API_KEY, OPENAI_API_KEY) or the store
managed by 'treesync auth'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f, args)
			if err != nil {
				return err
			}
			configureReporter(cfg.Verbose)
			return runSync(cmd.Context(), cfg)
		},
	}
	f.register(cmd)
	return cmd
}

func runSync(ctx context.Context, cfg *config.Config) error {
	res, err := pipeline.Sync(ctx, cfg, pipeline.Deps{Reporter: reporter})
	if errors.Is(err, pipeline.ErrMissingCredential) {
		logWarning("%s", i18n.T("You must provide an API key first. Pass it as an argument or run 'treesync auth login'."))
		return nil
	}
	if len(res.Outcomes) > 0 {
		printSummary(res, cfg.DryRun)
	}
	return err
}

func printSummary(res pipeline.Result, dryRun bool) {
	var done, skipped, failed int
	for _, o := range res.Outcomes {
		switch {
		case o.Status == pipeline.Skipped:
			skipped++
		case o.Status.Failed():
			failed++
		default:
			done++
		}
		for _, p := range o.Changes.Added {
			reporter.Debug("%s: + %s", o.Locale, p)
		}
		for _, p := range o.Changes.Removed {
			reporter.Debug("%s: - %s", o.Locale, p)
		}
		for _, p := range o.Changes.Changed {
			reporter.Debug("%s: ~ %s", o.Locale, p)
		}
	}

	total := len(res.Outcomes)
	switch {
	case dryRun:
		logInfo(i18n.T("Dry run: %d of %d locale(s) checked, nothing written"), done, total)
	case failed == 0:
		logSuccess(i18n.T("Synced %d of %d locale(s)"), done, total)
	default:
		logWarning(i18n.T("Synced %d of %d locale(s)"), done, total)
	}
	if skipped > 0 {
		logInfo(i18n.N("%d locale skipped", "%d locales skipped", skipped), skipped)
	}
}
