// Package cmd holds the root command and the wiring shared by every
// subcommand.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cristianoliveira/vault-kanban/internal/colors"
	"github.com/cristianoliveira/vault-kanban/internal/config"
	"github.com/cristianoliveira/vault-kanban/internal/hooks"
	"github.com/cristianoliveira/vault-kanban/internal/logging"
	"github.com/cristianoliveira/vault-kanban/internal/plugin"
	"github.com/cristianoliveira/vault-kanban/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Global flags.
var (
	vaultFlag    string
	pluginIDFlag string
	backendFlag  string
	dryRunFlag   bool
	debugFlag    bool
	quietFlag    bool
)

// RootCmd is the base command.
var RootCmd = &cobra.Command{
	Use:           "vault-kanban",
	Short:         "Keep board documents of a markdown vault in the board view.",
	Long:          `Keep board documents of a markdown vault in the board view and manage the plugin settings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Execute runs the root command with args. Flag values left over from a
// previous run are reset first.
func Execute(args []string) error {
	resetFlags(RootCmd)
	RootCmd.SetArgs(args)
	return RootCmd.Execute()
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func init() {
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&vaultFlag, "vault", "", "vault directory (default: current directory)")
	flags.StringVar(&pluginIDFlag, "plugin-id", "", "plugin id used for the settings location (default: kanban)")
	flags.StringVar(&backendFlag, "backend", "", "settings backend: json or sqlite")
	flags.BoolVar(&dryRunFlag, "dry-run", false, "keep settings in memory and never write them")
	flags.BoolVar(&debugFlag, "debug", false, "print debug output")
	flags.BoolVarP(&quietFlag, "quiet", "q", false, "suppress informational output")
}

// setup loads the configuration and lets flags override it.
func setup(cmd *cobra.Command) error {
	config.Load()

	overrides := map[string]string{
		"vault":     "vault_dir",
		"plugin-id": "plugin_id",
		"backend":   "settings_backend",
	}
	for flag, key := range overrides {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			config.Set(key, strings.TrimSpace(f.Value.String()))
		}
	}
	if debugFlag {
		config.Set("debug", "true")
	}
	if quietFlag {
		config.Set("quiet", "true")
	}
	colors.SetDebug(config.GetBool("debug", false))
	colors.SetQuiet(config.GetBool("quiet", false))

	if err := logging.InitGlobal(); err != nil {
		colors.Warning(fmt.Sprintf("file logging disabled: %v", err))
	}
	return nil
}

// OpenPlugin opens the configured vault and loads its settings. configure
// functions may adjust the options built from the configuration.
func OpenPlugin(ctx context.Context, configure ...func(*plugin.Options)) (*plugin.Plugin, error) {
	logger := logging.GetGlobal()
	opts := plugin.Options{
		VaultDir:    config.Get("vault_dir", "."),
		PluginID:    config.Get("plugin_id", "kanban"),
		Backend:     config.Get("settings_backend", storage.BackendJSON),
		Concurrency: config.GetInt("scan_concurrency", 0),
		Debounce:    config.GetDuration("watch_debounce", 0),
		Hooks:       hooks.FromConfig(logger),
		Logger:      logger,
	}
	if dryRunFlag {
		opts.Store = storage.NewMemory()
	}
	for _, fn := range configure {
		fn(&opts)
	}
	return plugin.Open(ctx, opts)
}

// Shutdown flushes the global logger.
func Shutdown() {
	if err := logging.ShutdownGlobal(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
}
