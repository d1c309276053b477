package main

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/vault-kanban/cmd"
	"github.com/cristianoliveira/vault-kanban/internal/colors"
	"github.com/cristianoliveira/vault-kanban/internal/plugin"
	"github.com/spf13/cobra"
)

// NewNewCmd creates the new command.
func NewNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new [FOLDER]",
		Short: "Create a board document",
		Long: `Create Kanban-<timestamp>.md in FOLDER (default: the vault root) and
open it in the focused pane, or in a new pane when none is focused.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			folder := ""
			if len(args) == 1 {
				folder = trimFolder(args[0])
			}
			return withPlugin(c, func(ctx context.Context, p *plugin.Plugin) error {
				board, err := p.NewBoard(ctx, folder)
				if board.Path != "" {
					fmt.Fprintln(c.OutOrStdout(), board.Path)
				}
				if err != nil {
					return err
				}
				colors.Success(fmt.Sprintf("created %s in pane %s", board.Path, board.PaneID))
				return nil
			})
		},
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewNewCmd())
}
