// Package plugin wires the vault, the settings manager and the coercion
// scheduler into one lifecycle.
//
// Open loads the settings. Start runs the event loop: a layout-ready scan
// first, then one scan per change of the workspace layout file. Close stops
// the loop, waits for it to drain and awaits the final settings save.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cristianoliveira/vault-kanban/internal/coercion"
	"github.com/cristianoliveira/vault-kanban/internal/hooks"
	"github.com/cristianoliveira/vault-kanban/internal/logging"
	"github.com/cristianoliveira/vault-kanban/internal/settings"
	"github.com/cristianoliveira/vault-kanban/internal/storage"
	"github.com/cristianoliveira/vault-kanban/internal/vault"
	"github.com/cristianoliveira/vault-kanban/internal/version"
	"github.com/cristianoliveira/vault-kanban/internal/watcher"
	"github.com/cristianoliveira/vault-kanban/internal/workspace"
	"golang.org/x/sync/errgroup"
)

// Options configures Open.
type Options struct {
	VaultDir string
	PluginID string
	// Backend is storage.BackendJSON or storage.BackendSQLite.
	Backend string
	// Store overrides the backend, e.g. storage.Memory for dry runs.
	Store       storage.Store
	Version     version.Tag
	Concurrency int
	Debounce    time.Duration
	// ForcePoll makes the watcher poll instead of using fsnotify.
	ForcePoll bool
	Hooks     *hooks.Runner
	Logger    logging.Logger
	// OnResult receives the result of every scan run by the event loop.
	OnResult func(coercion.Result, error)
}

// Plugin is the running tool for one vault.
type Plugin struct {
	vault     *vault.Vault
	cache     *vault.Cache
	workspace *workspace.File
	store     storage.Store
	settings  *settings.Manager
	scheduler *coercion.Scheduler
	hooks     *hooks.Runner
	logger    logging.Logger
	opts      Options
	now       func() time.Time

	mu      sync.Mutex
	state   settings.State
	events  chan coercion.Event
	cancel  context.CancelFunc
	loop    *errgroup.Group
	started bool
	closed  bool
}

// Open opens the vault and loads the plugin settings, stamping the install
// version on first use.
func Open(ctx context.Context, opts Options) (*Plugin, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Version.IsZero() {
		opts.Version = version.Current()
	}
	logger := opts.Logger.With("component", "plugin")

	v, err := vault.Open(opts.VaultDir)
	if err != nil {
		return nil, err
	}

	store := opts.Store
	if store == nil {
		store, err = storage.New(ctx, storage.Options{
			Backend:  opts.Backend,
			VaultDir: v.Root(),
			PluginID: opts.PluginID,
		})
		if err != nil {
			return nil, err
		}
	}

	p := &Plugin{
		vault:     v,
		cache:     vault.NewCache(v, opts.Logger),
		workspace: workspace.NewFile(vault.WorkspacePath(v.Root())),
		store:     store,
		settings:  settings.NewManager(store, opts.Version, opts.Logger),
		hooks:     opts.Hooks,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
	p.scheduler = coercion.New(p.workspace, p.cache, coercion.Options{
		Concurrency: opts.Concurrency,
		OnCoerced:   p.afterCoerce,
		Logger:      opts.Logger,
	})

	state, err := p.settings.Load(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	p.state = state
	logger.Info("plugin loaded", "vault", v.Root(), "settings_state", state.String())
	return p, nil
}

// Vault returns the opened vault.
func (p *Plugin) Vault() *vault.Vault { return p.vault }

// Workspace returns the pane registry.
func (p *Plugin) Workspace() *workspace.File { return p.workspace }

// Settings returns the settings manager.
func (p *Plugin) Settings() *settings.Manager { return p.settings }

// LoadState returns the state the settings blob was in when Open ran.
func (p *Plugin) LoadState() settings.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Coerce runs one layout-ready scan outside the event loop.
func (p *Plugin) Coerce(ctx context.Context) (coercion.Result, error) {
	if err := p.workspace.Refresh(ctx); err != nil {
		return coercion.Result{Event: coercion.EventLayoutReady}, err
	}
	return p.scheduler.Handle(ctx, coercion.EventLayoutReady)
}

// Start launches the event loop and the layout watcher. The first scan
// runs as soon as the layout file has been read.
func (p *Plugin) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("plugin: closed")
	}
	if p.started {
		return fmt.Errorf("plugin: already started")
	}

	w, err := watcher.New(p.workspace.Path(),
		watcher.WithDebounce(p.opts.Debounce),
		watcher.WithForcePoll(p.opts.ForcePoll),
		watcher.WithLogger(p.opts.Logger))
	if err != nil {
		return fmt.Errorf("plugin: watcher: %w", err)
	}
	if err := p.workspace.Refresh(ctx); err != nil {
		// The layout stays not-ready; the watcher retries on the next change.
		p.logger.Warn("workspace not ready", "error", err.Error())
	}

	// Buffered so a queued event is never lost while a scan runs.
	p.events = make(chan coercion.Event, 1)
	p.events <- coercion.EventLayoutReady

	loopCtx, cancel := context.WithCancel(ctx)
	watchCtx, stopWatch := context.WithCancel(loopCtx)
	p.cancel = cancel

	var g errgroup.Group
	events := p.events
	g.Go(func() error {
		defer p.closeEvents()
		return w.Run(watchCtx, func() {
			if err := p.workspace.Refresh(watchCtx); err != nil {
				p.logger.Warn("workspace refresh failed", "error", err.Error())
				return
			}
			p.notify(coercion.EventActivePaneChange)
		})
	})
	g.Go(func() error {
		defer stopWatch()
		err := p.scheduler.Run(loopCtx, events, p.opts.OnResult)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	p.loop = &g
	p.started = true
	p.logger.Info("event loop started", "workspace", p.workspace.Path())
	return nil
}

// notify queues ev without blocking. A full queue already guarantees a
// scan that covers every pane.
func (p *Plugin) notify(ev coercion.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		return false
	}
	select {
	case p.events <- ev:
	default:
	}
	return true
}

func (p *Plugin) closeEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events != nil {
		close(p.events)
		p.events = nil
	}
}

// Close stops the event loop, waits for it to finish and saves the
// settings. It returns once the save completed or ctx is done.
func (p *Plugin) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	cancel, loop := p.cancel, p.loop
	p.mu.Unlock()

	var loopErr error
	if loop != nil {
		cancel()
		done := make(chan error, 1)
		go func() { done <- loop.Wait() }()
		select {
		case loopErr = <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	saveErr := p.settings.Save(ctx)
	if saveErr != nil {
		p.logger.Error("final settings save failed", "error", saveErr.Error())
	}
	closeErr := p.store.Close()
	p.logger.Info("plugin closed")

	switch {
	case saveErr != nil:
		return saveErr
	case loopErr != nil:
		return loopErr
	default:
		return closeErr
	}
}

func (p *Plugin) afterCoerce(ctx context.Context, pane workspace.Pane) error {
	return p.hooks.Run(ctx, hooks.PostCoerce, map[string]string{
		"PANE_ID":   pane.ID,
		"DOCUMENT":  pane.File(),
		"VIEW_TYPE": pane.Type,
		"VAULT_DIR": p.vault.Root(),
	})
}
