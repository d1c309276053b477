package main

import (
	"context"

	"github.com/cristianoliveira/vault-kanban/cmd"
	"github.com/cristianoliveira/vault-kanban/internal/plugin"
	"github.com/cristianoliveira/vault-kanban/internal/settings"
	"github.com/spf13/cobra"
)

type loadResult struct {
	State    string                   `json:"state"`
	Settings settings.GlobalSettings `json:"settings"`
}

// NewLoadCmd creates the load command.
func NewLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load and migrate the plugin settings",
		Long: `Load the plugin settings, stamping the installed version on first use.

Prints the state the persisted settings were found in (uninitialized,
legacy or versioned) and the effective settings.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return withPlugin(c, func(ctx context.Context, p *plugin.Plugin) error {
				return printJSON(c, loadResult{
					State:    p.LoadState().String(),
					Settings: p.Settings().Get(),
				})
			})
		},
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewLoadCmd())
}
