package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cristianoliveira/vault-kanban/cmd"
	"github.com/cristianoliveira/vault-kanban/internal/boardsettings"
	"github.com/cristianoliveira/vault-kanban/internal/plugin"
	"github.com/spf13/cobra"
)

const boardCommandLong = `Inspect and edit board settings.

USAGE:
    vault-kanban board <subcommand>

SUBCOMMANDS:
    parse JSON|-          Print the normalized form of a settings string
    columns "A, B, C"     Print the columns parsed from the editor form
    show FILE             Print the settings of a board document
    set FILE KEY=VALUE... Change settings of a board document

KEYS:
    columns, scope (folder|everywhere), showFilepath, consolidateTags,
    uncategorizedVisibility (auto|always|never), doneVisibility,
    showAddNoteInDefaultColumns`

// NewBoardCmd creates the board command.
func NewBoardCmd() *cobra.Command {
	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect and edit board settings",
		Long:  boardCommandLong,
	}

	boardCmd.AddCommand(&cobra.Command{
		Use:   "parse JSON|-",
		Short: "Print the normalized form of a settings string",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			raw := args[0]
			if raw == "-" {
				data, err := io.ReadAll(c.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				raw = string(data)
			}
			fmt.Fprintln(c.OutOrStdout(), boardsettings.Serialize(boardsettings.Parse(raw)))
			return nil
		},
	})

	boardCmd.AddCommand(&cobra.Command{
		Use:   "columns TEXT",
		Short: "Print the columns parsed from the editor form",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			for _, column := range boardsettings.ParseColumns(args[0]) {
				fmt.Fprintln(c.OutOrStdout(), column)
			}
			return nil
		},
	})

	boardCmd.AddCommand(&cobra.Command{
		Use:   "show FILE",
		Short: "Print the settings of a board document",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withPlugin(c, func(ctx context.Context, p *plugin.Plugin) error {
				s, err := p.BoardSettings(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(c, s)
			})
		},
	})

	boardCmd.AddCommand(&cobra.Command{
		Use:   "set FILE KEY=VALUE...",
		Short: "Change settings of a board document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return withPlugin(c, func(ctx context.Context, p *plugin.Plugin) error {
				s, err := p.UpdateBoardSettings(ctx, args[0], args[1:])
				if err != nil {
					return err
				}
				fmt.Fprintln(c.OutOrStdout(), boardsettings.Serialize(s))
				return nil
			})
		},
	})
	return boardCmd
}

// trimFolder accepts the folder forms users type, such as "./Projects/".
func trimFolder(folder string) string {
	folder = strings.TrimSpace(folder)
	folder = strings.TrimPrefix(folder, "./")
	return strings.TrimSuffix(folder, "/")
}

func init() {
	cmd.RootCmd.AddCommand(NewBoardCmd())
}
