package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// boolFlagNames collects every bool flag registered anywhere in the command
// tree, as "--name".
func boolFlagNames(root *cobra.Command) map[string]bool {
	names := map[string]bool{}
	var visit func(c *cobra.Command)
	visit = func(c *cobra.Command) {
		collect := func(f *pflag.Flag) {
			if f.Value.Type() == "bool" {
				names["--"+f.Name] = true
			}
		}
		c.Flags().VisitAll(collect)
		c.PersistentFlags().VisitAll(collect)
		for _, sub := range c.Commands() {
			visit(sub)
		}
	}
	visit(root)
	delete(names, "--help")
	delete(names, "--version")
	return names
}

// RewriteBoolFlags turns `--flag false` into `--flag=false` for bool flags.
// pflag bool flags do not consume a separate value, so without this
// `--preserve false` would leave "false" as a positional argument.
func RewriteBoolFlags(root *cobra.Command, args []string) []string {
	known := boolFlagNames(root)
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if !strings.HasPrefix(arg, "--") || strings.Contains(arg, "=") {
			out = append(out, arg)
			continue
		}

		if known[arg] && i+1 < len(args) {
			next := args[i+1]
			if _, err := strconv.ParseBool(next); err == nil {
				out = append(out, arg+"="+next)
				i++
				continue
			}
		}

		out = append(out, arg)
	}
	return out
}

// NeedsDefaultRun reports whether args should be prefixed with "sync", so
// that `treesync <api-key> --path dir` keeps working.
func NeedsDefaultRun(root *cobra.Command, args []string) bool {
	if len(args) == 0 {
		return false
	}

	for _, a := range args {
		if a == "--version" || a == "--help" || a == "-h" {
			return false
		}
		if a == "--" {
			break
		}
	}

	// The root command has no flags of its own, so a leading flag
	// belongs to sync.
	first := args[0]
	if strings.HasPrefix(first, "-") {
		return true
	}
	return !isSubcommand(root, first)
}

func isSubcommand(root *cobra.Command, name string) bool {
	// Added by cobra lazily during Execute.
	switch name {
	case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	for _, c := range root.Commands() {
		if c.Name() == name {
			return true
		}
		for _, a := range c.Aliases {
			if a == name {
				return true
			}
		}
	}
	return false
}
