package main

import (
	"context"
	"path/filepath"

	"github.com/minios-linux/treesync/config"
	"github.com/minios-linux/treesync/i18n"
	"github.com/minios-linux/treesync/store"
	"github.com/minios-linux/treesync/watch"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// watch (sync again on every source change)
// ---------------------------------------------------------------------------

func newWatchCmd() *cobra.Command {
	f := &syncFlags{}
	cmd := &cobra.Command{
		Use:   "watch [api-key]",
		Short: i18n.T("Sync again whenever the source file changes"),
		Long: `Run a sync, then keep watching the source locale file and sync again
after every change. Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f, args)
			if err != nil {
				return err
			}
			configureReporter(cfg.Verbose)
			return runWatch(cmd.Context(), cfg, nil)
		},
	}
	f.register(cmd)
	return cmd
}

// runWatch blocks until ctx is done. ready, if non-nil, is signalled once
// the watcher is registered.
func runWatch(ctx context.Context, cfg *config.Config, ready chan<- struct{}) error {
	if cfg.APIKey == "" {
		logWarning("%s", i18n.T("You must provide an API key first. Pass it as an argument or run 'treesync auth login'."))
		return nil
	}

	resync := func(ctx context.Context) {
		if err := runSync(ctx, cfg); err != nil {
			logError("%v", err)
		}
	}
	resync(ctx)

	file := store.New(cfg.Dir).FilePath(cfg.SourceLocale)
	logInfo(i18n.T("Watching %s for changes (Ctrl+C to stop)"), file)

	w := reporter.With("Watch")
	return watch.Source(ctx, watch.Options{
		Dir:  cfg.Dir,
		File: filepath.Base(file),
		OnChange: func(ctx context.Context) {
			w.Info(i18n.T("%s changed"), filepath.Base(file))
			resync(ctx)
		},
		OnError: func(err error) {
			w.Warn("%v", err)
		},
		Ready: ready,
	})
}
