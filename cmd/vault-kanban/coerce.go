package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/cristianoliveira/vault-kanban/cmd"
	"github.com/cristianoliveira/vault-kanban/internal/coercion"
	"github.com/cristianoliveira/vault-kanban/internal/plugin"
	"github.com/spf13/cobra"
)

// NewCoerceCmd creates the coerce command.
func NewCoerceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coerce",
		Short: "Switch open board documents to the board view once",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return withPlugin(c, func(ctx context.Context, p *plugin.Plugin) error {
				res, err := p.Coerce(ctx)
				fmt.Fprintln(c.OutOrStdout(), formatResult(res))
				return err
			})
		},
	}
}

func formatResult(res coercion.Result) string {
	line := fmt.Sprintf("%s: scanned %d, coerced %d, skipped %d",
		res.Event, res.Scanned, len(res.Coerced), res.Skipped)
	if len(res.Coerced) > 0 {
		line += " (" + strings.Join(res.Coerced, ", ") + ")"
	}
	return line
}

func init() {
	cmd.RootCmd.AddCommand(NewCoerceCmd())
}
