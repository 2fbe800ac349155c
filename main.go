// treesync keeps a directory of JSON locale files in step with its source
// locale, translating missing keys with Google Cloud Translation or an
// OpenAI-compatible model.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/minios-linux/treesync/i18n"
	"github.com/minios-linux/treesync/report"
	"github.com/minios-linux/treesync/telemetry"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

// reporter is the process-wide sink. configureReporter replaces it once the
// run configuration is known.
var reporter = report.New(os.Stderr, report.Options{})

func configureReporter(verbose bool) {
	reporter = report.New(os.Stderr, report.Options{Verbose: verbose})
}

func logInfo(format string, args ...any)    { reporter.Info(format, args...) }
func logSuccess(format string, args ...any) { reporter.Success(format, args...) }
func logWarning(format string, args ...any) { reporter.Warn(format, args...) }
func logError(format string, args ...any)   { reporter.Error(format, args...) }

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "treesync",
		Short:   i18n.T("Keep JSON locale files in sync with the source locale"),
		Version: version,
		Long: `treesync keeps every <locale>.json in a directory in step with the
source locale file, translating what is missing.

Nested keys are followed to any depth. Placeholders such as {name} are kept
out of the translator's reach and restored afterwards.

Commands:
  sync      Merge and translate every target locale (default)
  status    Show per-locale translation statistics
  watch     Sync again whenever the source file changes
  init      Write a .treesync.yaml for the locale directory
  auth      Manage stored API keys

Providers:
  google    Google Cloud Translation v2, API key
  openai    Any OpenAI-compatible chat endpoint (OpenAI, Groq, Ollama)

Examples:
  treesync AIzaSy... --path ./locales
  treesync AIzaSy... --path ./locales/en.json --preserve false
  treesync status --path ./locales`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("treesync version {{.Version}}\n")

	root.AddCommand(
		newSyncCmd(),
		newStatusCmd(),
		newWatchCmd(),
		newInitCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns the process exit code.
func run(args []string) int {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := telemetry.Init(ctx, "treesync", version)
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logWarning("telemetry shutdown: %v", err)
		}
	}()

	root := newRootCmd()
	args = RewriteBoolFlags(root, args)
	if NeedsDefaultRun(root, args) {
		args = append([]string{"sync"}, args...)
	}
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		logError("%v", err)
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "treesync version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}
