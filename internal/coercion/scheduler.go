// Package coercion keeps open panes that show board documents in the board
// view.
//
// The Scheduler reacts to two events: the layout becoming ready and the
// focused pane changing. Each reaction waits for the registry's
// layout-ready signal, scans every open markdown pane and swaps the panes
// whose document carries the board marker to the board view, passing the
// pane's view state through unchanged. A scan is idempotent: panes already
// in the board view are never listed, so a second scan swaps nothing.
package coercion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cristianoliveira/vault-kanban/internal/colors"
	"github.com/cristianoliveira/vault-kanban/internal/kanban"
	"github.com/cristianoliveira/vault-kanban/internal/logging"
	"github.com/cristianoliveira/vault-kanban/internal/vault"
	"github.com/cristianoliveira/vault-kanban/internal/workspace"
	"golang.org/x/sync/errgroup"
)

// Event is a host notification that triggers a scan.
type Event int

const (
	// EventLayoutReady fires once the host layout is stable, at startup and
	// after a workspace restore.
	EventLayoutReady Event = iota
	// EventActivePaneChange fires whenever focus moves to another pane.
	EventActivePaneChange
)

func (e Event) String() string {
	switch e {
	case EventLayoutReady:
		return "layout-ready"
	case EventActivePaneChange:
		return "active-pane-change"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// DefaultConcurrency bounds the swaps in flight during one scan.
const DefaultConcurrency = 4

// FrontMatterSource supplies parsed front-matter for a document path. It
// returns vault.ErrDocumentNotFound for documents that no longer exist.
type FrontMatterSource interface {
	FrontMatter(ctx context.Context, path string) (map[string]any, bool, error)
}

// CoercedFunc is called after a pane was swapped to the board view.
type CoercedFunc func(ctx context.Context, pane workspace.Pane) error

// Options configures a Scheduler.
type Options struct {
	// Concurrency bounds parallel swaps; values below 1 use DefaultConcurrency.
	Concurrency int
	// OnCoerced, when set, runs after every successful swap. Its errors are
	// reported with the scan's other failures.
	OnCoerced CoercedFunc
	Logger    logging.Logger
}

// Result summarizes one scan.
type Result struct {
	Event Event
	// Scanned counts the markdown panes listed.
	Scanned int
	// Coerced holds the ids of swapped panes, sorted.
	Coerced []string
	// Skipped counts panes whose pane or document vanished mid-scan.
	Skipped int
}

// Scheduler runs coercion scans. Overlapping Handle calls are serialized.
type Scheduler struct {
	registry    workspace.Registry
	meta        FrontMatterSource
	concurrency int
	onCoerced   CoercedFunc
	logger      logging.Logger

	mu sync.Mutex
}

// New returns a scheduler over registry and meta.
func New(registry workspace.Registry, meta FrontMatterSource, opts Options) *Scheduler {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	return &Scheduler{
		registry:    registry,
		meta:        meta,
		concurrency: opts.Concurrency,
		onCoerced:   opts.OnCoerced,
		logger:      opts.Logger.With("component", "coercion"),
	}
}

// Handle reacts to ev. It blocks until the layout is ready, then runs one
// complete scan. Missing panes and documents are skipped; any other
// per-pane failure is returned joined after the scan has finished.
func (s *Scheduler) Handle(ctx context.Context, ev Event) (Result, error) {
	select {
	case <-s.registry.LayoutReady():
	case <-ctx.Done():
		return Result{Event: ev}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan(ctx, ev)
}

type outcome int

const (
	untouched outcome = iota
	coerced
	skipped
)

func (s *Scheduler) scan(ctx context.Context, ev Event) (Result, error) {
	res := Result{Event: ev}

	panes, err := s.registry.ListPanes(ctx, kanban.MarkdownViewType)
	if err != nil {
		return res, fmt.Errorf("coercion: list panes: %w", err)
	}
	res.Scanned = len(panes)

	var (
		g       errgroup.Group
		resMu   sync.Mutex
		scanErr []error
	)
	g.SetLimit(s.concurrency)
	for _, pane := range panes {
		pane := pane
		g.Go(func() error {
			out, err := s.coerce(ctx, pane)
			resMu.Lock()
			defer resMu.Unlock()
			switch {
			case err != nil:
				scanErr = append(scanErr, fmt.Errorf("pane %s: %w", pane.ID, err))
			case out == coerced:
				res.Coerced = append(res.Coerced, pane.ID)
			case out == skipped:
				res.Skipped++
			}
			// Failures are collected so one pane cannot cancel the others.
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(res.Coerced)

	s.logger.Info("scan finished",
		"event", ev.String(),
		"scanned", res.Scanned,
		"coerced", len(res.Coerced),
		"skipped", res.Skipped,
		"failed", len(scanErr))
	colors.StructuredInfo("coercion", "scan", "completed", nil, ev.String(), map[string]any{
		"scanned": res.Scanned,
		"coerced": len(res.Coerced),
		"skipped": res.Skipped,
	})

	if len(scanErr) > 0 {
		return res, fmt.Errorf("coercion: %w", errors.Join(scanErr...))
	}
	return res, nil
}

func isVanished(err error) bool {
	return errors.Is(err, workspace.ErrPaneNotFound) || errors.Is(err, vault.ErrDocumentNotFound)
}

// coerce swaps one pane when its document qualifies.
func (s *Scheduler) coerce(ctx context.Context, pane workspace.Pane) (outcome, error) {
	doc := pane.File()
	if doc == "" {
		return untouched, nil
	}

	fields, present, err := s.meta.FrontMatter(ctx, doc)
	if err != nil {
		if isVanished(err) {
			s.logger.Debug("document vanished during scan", "pane", pane.ID, "document", doc)
			return skipped, nil
		}
		return untouched, fmt.Errorf("read front-matter of %s: %w", doc, err)
	}
	if !present || !kanban.IsQualifying(fields) {
		return untouched, nil
	}

	// Read the state right before the swap so nothing recorded since the
	// listing is lost.
	state, err := s.registry.ViewState(ctx, pane.ID)
	if err != nil {
		if isVanished(err) {
			return skipped, nil
		}
		return untouched, fmt.Errorf("read view state: %w", err)
	}
	if err := s.registry.SetViewState(ctx, pane.ID, kanban.ViewType, state); err != nil {
		if isVanished(err) {
			return skipped, nil
		}
		return untouched, fmt.Errorf("set view state: %w", err)
	}
	s.logger.Debug("pane coerced", "pane", pane.ID, "document", doc)

	if s.onCoerced != nil {
		pane.Type = kanban.ViewType
		pane.State = state
		if err := s.onCoerced(ctx, pane); err != nil {
			return coerced, fmt.Errorf("after coercing %s: %w", doc, err)
		}
	}
	return coerced, nil
}

// Run handles events from events one at a time until the channel is closed
// or ctx is done. Events already queued behind the one being taken are
// folded into its scan, since every scan covers all panes. Scan errors are
// logged and do not stop the loop. onResult, when non-nil, receives every
// scan result.
func (s *Scheduler) Run(ctx context.Context, events <-chan Event, onResult func(Result, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			ev, open := drain(ev, events)

			res, err := s.Handle(ctx, ev)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Error("scan failed", "event", ev.String(), "error", err.Error())
			}
			if onResult != nil {
				onResult(res, err)
			}
			if !open {
				return nil
			}
		}
	}
}

// drain consumes events that are already queued without blocking and
// returns the last one. open is false when the channel was closed.
func drain(ev Event, events <-chan Event) (Event, bool) {
	for {
		select {
		case next, ok := <-events:
			if !ok {
				return ev, false
			}
			ev = next
		default:
			return ev, true
		}
	}
}
