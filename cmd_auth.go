package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/minios-linux/treesync/config"
	"github.com/minios-linux/treesync/i18n"
	"github.com/minios-linux/treesync/settings"
	"github.com/minios-linux/treesync/translate"
	"github.com/spf13/cobra"
)

// ---------------------------------------------------------------------------
// auth (login / logout / list)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: i18n.T("Manage stored API keys"),
		Long: `Manage the API keys treesync falls back to when none is passed on the
command line or in the environment.

Examples:
  treesync auth login google                       Prompt for a Google key
  treesync auth login google AIzaSy...             Store a key directly
  treesync auth login openai sk-... --base-url URL Store an OpenAI-compatible endpoint
  treesync auth logout google                      Remove the Google key
  treesync auth logout --all                       Remove every key
  treesync auth list                               Show stored keys`,
	}
	cmd.AddCommand(newAuthLoginCmd(), newAuthLogoutCmd(), newAuthListCmd())
	return cmd
}

func completeProviders(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return translate.Providers, cobra.ShellCompDirectiveNoFileComp
}

func checkProvider(id string) error {
	if !slices.Contains(translate.Providers, id) {
		return fmt.Errorf(i18n.T("unknown provider %q (available: %s)"), id, strings.Join(translate.Providers, ", "))
	}
	return nil
}

func newAuthLoginCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:               "login <provider> [api-key]",
		Aliases:           []string{"set"},
		Short:             i18n.T("Store an API key"),
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeProviders,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]
			if err := checkProvider(provider); err != nil {
				return err
			}
			key := ""
			if len(args) > 1 {
				key = args[1]
			}
			return authLogin(cmd.InOrStdin(), cmd.ErrOrStderr(), provider, key, baseURL)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", i18n.T("API endpoint to store with the key (openai)"))
	return cmd
}

// authLogin stores key for provider, prompting on in when key is empty.
func authLogin(in io.Reader, out io.Writer, provider, key, baseURL string) error {
	existing := settings.GetAPIKey(provider)

	if key == "" {
		fmt.Fprintf(out, "\n%s%s%s\n", colorBlue, fmt.Sprintf(i18n.T("%s API key setup"), provider), colorReset)
		fmt.Fprintln(out, strings.Repeat("─", 60))
		if existing != "" {
			fmt.Fprintf(out, "  %s %s%s%s\n", i18n.T("Current key:"), colorYellow, settings.MaskKey(existing), colorReset)
			fmt.Fprintf(out, "  %s ", i18n.T("Enter new key to replace, or press Enter to keep:"))
		} else {
			fmt.Fprintf(out, "  %s ", i18n.T("Enter API key:"))
		}

		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return fmt.Errorf("%s", i18n.T("no input received"))
		}
		key = strings.TrimSpace(scanner.Text())
		fmt.Fprintln(out)
	}

	if key == "" {
		if existing != "" {
			logInfo("%s", i18n.T("Keeping existing key"))
			return nil
		}
		return fmt.Errorf("%s", i18n.T("no API key provided"))
	}

	var err error
	if baseURL != "" {
		err = settings.SetAPIKeyWithBaseURL(provider, key, baseURL)
	} else {
		err = settings.SetAPIKey(provider, key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("saving API key"), err)
	}
	logSuccess(i18n.T("%s API key saved"), provider)
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:               "logout [provider]",
		Aliases:           []string{"remove"},
		Short:             i18n.T("Remove stored API keys"),
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeProviders,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case all:
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess("%s", i18n.T("All stored API keys removed"))
				return nil
			case len(args) == 0:
				return fmt.Errorf("%s", i18n.T("name a provider or pass --all"))
			}
			if err := settings.Remove(args[0]); err != nil {
				return err
			}
			logSuccess(i18n.T("%s API key removed"), args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, i18n.T("Remove every stored key"))
	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: i18n.T("Show stored API keys"),
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			authList(cmd.ErrOrStderr())
		},
	}
}

func authList(out io.Writer) {
	store := settings.Load()

	fmt.Fprintf(out, "\n%s%s%s\n", colorBlue, i18n.T("Stored API keys"), colorReset)
	fmt.Fprintln(out, strings.Repeat("─", 60))
	fmt.Fprintf(out, "  %-12s %s\n", i18n.T("File:"), settings.FilePath())

	if os.Getenv(config.EnvPrefix+"API_KEY") != "" {
		fmt.Fprintf(out, "  %-12s %s%s%s\n", config.EnvPrefix+"API_KEY", colorGreen, i18n.T("set (takes precedence)"), colorReset)
	}
	fmt.Fprintln(out)

	if len(store) == 0 {
		fmt.Fprintf(out, "  %s\n\n", i18n.T("No keys stored. Run 'treesync auth login <provider>'."))
		return
	}
	for _, id := range store.Providers() {
		info := store[id]
		line := fmt.Sprintf("  %-12s %s", id, settings.MaskKey(info.Key))
		if info.BaseURL != "" {
			line += "  " + info.BaseURL
		}
		if env := settings.EnvVarForProvider(id); env != "" && os.Getenv(env) != "" {
			line += fmt.Sprintf("  %s(%s %s)%s", colorYellow, env, i18n.T("overrides"), colorReset)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}
