// Command tysh loads the debug type metadata of a program and opens a shell
// for querying it.
//
// Usage:
//
//	tysh [flags] FILE
//
// With -c the given commands run in order and tysh exits; otherwise commands
// are read interactively, or line by line when stdin is not a terminal.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wippyai/tysh/version"
)

type options struct {
	configPath  string
	ui          string
	color       string
	cacheDir    string
	commands    []string
	pointerSize int
	noCache     bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "tysh [flags] FILE",
		Short:         "Inspect the types described by a program's debug information",
		Args:          cobra.ExactArgs(1),
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], o)
		},
	}

	bindFlags(cmd.Flags(), o)
	return cmd
}

func bindFlags(f *pflag.FlagSet, o *options) {
	f.StringVar(&o.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tysh/config.toml)")
	f.StringVar(&o.ui, "ui", "auto", "interactive line editor (auto|on|off)")
	f.StringVar(&o.color, "color", "auto", "colorize output (auto|on|off)")
	f.IntVar(&o.pointerSize, "pointer-size", 0, "override the target pointer width in bytes")
	f.StringVar(&o.cacheDir, "cache-dir", "", "snapshot cache directory; enables the cache")
	f.BoolVar(&o.noCache, "no-cache", false, "neither read nor write the snapshot cache")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log debug diagnostics to stderr")
	f.StringArrayVarP(&o.commands, "command", "c", nil, "run a command and exit (repeatable)")
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("tysh:", err)
		os.Exit(1)
	}
}
