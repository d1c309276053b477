package main

import (
	"context"
	stderrors "errors"
	"os/signal"
	"syscall"

	"github.com/cristianoliveira/vault-kanban/cmd"
	"github.com/cristianoliveira/vault-kanban/internal/plugin"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// openPlugin is replaced in tests.
var openPlugin = cmd.OpenPlugin

// signalContext returns the context the watch command runs under.
var signalContext = func(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// withPlugin opens the plugin, runs fn and closes the plugin, awaiting its
// final settings save.
func withPlugin(c *cobra.Command, fn func(ctx context.Context, p *plugin.Plugin) error) error {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := openPlugin(ctx)
	if err != nil {
		return err
	}
	runErr := fn(ctx, p)
	closeErr := p.Close(context.WithoutCancel(ctx))
	return stderrors.Join(runErr, closeErr)
}

func printJSON(c *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = c.OutOrStdout().Write(append(data, '\n'))
	return err
}
