package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/minios-linux/treesync/config"
	"github.com/minios-linux/treesync/i18n"
	"github.com/minios-linux/treesync/store"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// init (write .treesync.yaml)
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	f := &syncFlags{}
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: i18n.T("Write a .treesync.yaml for the locale directory"),
		Long: `Create .treesync.yaml in the locale directory from the flags given, so
later runs only need the API key. The key itself is never written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, f, force)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, i18n.T("Overwrite an existing .treesync.yaml"))
	return cmd
}

func runInit(cmd *cobra.Command, f *syncFlags, force bool) error {
	dir, source, err := store.Resolve(f.path, f.source)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf(i18n.T("%s already exists (use --force to overwrite)"), path)
	}

	file := initFile(cmd, f, source)
	if err := config.WriteFile(dir, file); err != nil {
		return err
	}
	logSuccess(i18n.T("Created %s"), path)
	return nil
}

// initFile builds the file contents. The source locale is always written,
// everything else only when the flag was passed.
func initFile(cmd *cobra.Command, f *syncFlags, source string) *config.File {
	var c config.Config
	f.apply(cmd, nil)(&c)

	file := &config.File{
		SourceLocale: source,
		Locales:      c.Locales,
		Preserve:     c.Preserve,
		Keep:         c.Keep,
		Provider:     c.Provider,
		Model:        c.Model,
		BaseURL:      c.BaseURL,
		Proxy:        c.Proxy,
		Concurrency:  c.Concurrency,
		Timeout:      c.Timeout,
	}
	if cmd.Flags().Changed("max-retries") {
		n := c.MaxRetries
		file.MaxRetries = &n
	}
	return file
}
