package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianoliveira/vault-kanban/cmd"
	"github.com/cristianoliveira/vault-kanban/internal/coercion"
	"github.com/cristianoliveira/vault-kanban/internal/colors"
	"github.com/cristianoliveira/vault-kanban/internal/plugin"
	"github.com/spf13/cobra"
)

// closeTimeout bounds the final settings save on shutdown.
const closeTimeout = 10 * time.Second

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep board documents in the board view until interrupted",
		Long: `Scan once the layout is ready, then rescan on every change of the
workspace layout until SIGINT or SIGTERM. Settings are saved on exit.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signalContext(c.Context())
			defer stop()

			out := c.OutOrStdout()
			// Loading must finish even when a signal arrives during startup.
			p, err := openPlugin(context.WithoutCancel(ctx), func(o *plugin.Options) {
				o.OnResult = func(res coercion.Result, err error) {
					if err != nil {
						colors.Warning(fmt.Sprintf("scan failed: %v", err))
						return
					}
					if len(res.Coerced) > 0 {
						colors.Info(formatResult(res))
					}
				}
			})
			if err != nil {
				return err
			}
			colors.DisableStructuredLogging()
			defer colors.EnableStructuredLogging()

			// The loop runs under its own context so Close decides when it stops.
			if err := p.Start(context.WithoutCancel(ctx)); err != nil {
				_ = p.Close(context.Background())
				return err
			}
			colors.Info(fmt.Sprintf("watching %s", p.Workspace().Path()))
			<-ctx.Done()

			closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			if err := p.Close(closeCtx); err != nil {
				return err
			}
			fmt.Fprintln(out, "stopped")
			return nil
		},
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewWatchCmd())
}
