package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/cristianoliveira/vault-kanban/cmd"
	"github.com/cristianoliveira/vault-kanban/internal/colors"
	"github.com/cristianoliveira/vault-kanban/internal/config"
	"github.com/cristianoliveira/vault-kanban/internal/errors"
	"github.com/cristianoliveira/vault-kanban/internal/plugin"
	"github.com/cristianoliveira/vault-kanban/internal/settings"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

const (
	settingsCommandLong = `Manage the plugin settings.

USAGE:
    vault-kanban settings <subcommand>

SUBCOMMANDS:
    show                        Display the effective settings
    reset                       Reset settings, keeping the installed version
    set default-task-path PATH  Set the default task path`

	resetCommandLong = `Reset the plugin settings. The installed version stamp is kept.

USAGE:
    vault-kanban settings reset [OPTIONS]

OPTIONS:
    --force    Reset without confirmation
    -h, --help Show this help`
)

type settingsView struct {
	settings.GlobalSettings
	DateFormat string                     `json:"dateFormat"`
	Extra      map[string]json.RawMessage `json:"extra,omitempty"`
}

// NewSettingsCmd creates the settings command.
func NewSettingsCmd() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage the plugin settings",
		Long:  settingsCommandLong,
	}
	settingsCmd.AddCommand(newShowCmd(), newResetCmd(), newSetCmd())
	return settingsCmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return withPlugin(c, func(ctx context.Context, p *plugin.Plugin) error {
				return printJSON(c, settingsView{
					GlobalSettings: p.Settings().Get(),
					DateFormat:     config.Get("date_format", ""),
					Extra:          p.Settings().Extra(),
				})
			})
		},
	}
}

func newResetCmd() *cobra.Command {
	var force bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset settings, keeping the installed version",
		Long:  resetCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if !force && !confirm(c, "Reset vault-kanban settings? [y/N] ") {
				return errors.Abortf("settings reset cancelled")
			}
			return withPlugin(c, func(ctx context.Context, p *plugin.Plugin) error {
				if err := p.Settings().Reset(ctx); err != nil {
					return err
				}
				colors.Success("settings reset")
				return nil
			})
		},
	}
	resetCmd.Flags().BoolVar(&force, "force", false, "reset without confirmation")
	return resetCmd
}

func newSetCmd() *cobra.Command {
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change a setting",
	}
	setCmd.AddCommand(&cobra.Command{
		Use:   "default-task-path PATH",
		Short: "Set the default task path",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withPlugin(c, func(ctx context.Context, p *plugin.Plugin) error {
				err := p.Settings().Update(ctx, func(s *settings.GlobalSettings) {
					s.DefaultTaskPath = args[0]
				})
				if err != nil {
					return err
				}
				colors.Success(fmt.Sprintf("default task path set to %q", args[0]))
				return nil
			})
		},
	})
	return setCmd
}

// confirm asks a yes/no question on the command's input.
func confirm(c *cobra.Command, prompt string) bool {
	fmt.Fprint(c.ErrOrStderr(), prompt)
	answer, _ := bufio.NewReader(c.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewSettingsCmd())
}
