// Package watcher reports changes to a single file.
//
// It watches the file's parent directory with fsnotify, which also catches
// atomic rename-over writes, and falls back to stat polling when fsnotify
// cannot be used. Bursts of events are debounced into one notification.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/cristianoliveira/vault-kanban/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// Defaults.
const (
	DefaultDebounce     = 200 * time.Millisecond
	DefaultPollInterval = 2 * time.Second
)

// ErrPermission is returned when the watched file cannot be stat'ed.
var ErrPermission = errors.New("watcher: permission denied")

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period that must pass after the last event
// before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithPollInterval sets the polling interval used in fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithForcePoll forces polling even when fsnotify is available.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher monitors one file.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool
	logger       logging.Logger
}

// New returns a watcher for path. The file does not need to exist yet.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		debounce:     DefaultDebounce,
		pollInterval: DefaultPollInterval,
		logger:       logging.Noop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "watcher")
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Run blocks until ctx is done, calling onChange once per debounced burst
// of changes. onChange runs on Run's goroutine. Run returns nil when ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	if !w.forcePoll {
		fsw, err := w.notifier()
		if err == nil {
			defer fsw.Close()
			w.logger.Debug("watching with fsnotify", "path", w.path)
			return w.runNotify(ctx, fsw, onChange)
		}
		w.logger.Warn("fsnotify unavailable, polling", "path", w.path, "error", err.Error())
	}
	return w.runPoll(ctx, onChange)
}

// notifier watches the parent directory so rename-over writes are seen.
func (w *Watcher) notifier() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return fsw, nil
}

func (w *Watcher) runNotify(ctx context.Context, fsw *fsnotify.Watcher, onChange func()) error {
	target := filepath.Base(w.path)
	timer := newStoppedTimer()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify error", "error", err.Error())
		case <-timer.C:
			onChange()
		}
	}
}

func (w *Watcher) runPoll(ctx context.Context, onChange func()) error {
	last, err := w.stat()
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	timer := newStoppedTimer()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cur, err := w.stat()
			if err != nil {
				w.logger.Warn("poll failed", "error", err.Error())
				continue
			}
			if cur != last {
				last = cur
				timer.Reset(w.debounce)
			}
		case <-timer.C:
			onChange()
		}
	}
}

type fileStamp struct {
	exists  bool
	modTime time.Time
	size    int64
}

func (w *Watcher) stat() (fileStamp, error) {
	info, err := os.Stat(w.path)
	switch {
	case err == nil:
		return fileStamp{exists: true, modTime: info.ModTime(), size: info.Size()}, nil
	case os.IsNotExist(err):
		return fileStamp{}, nil
	case os.IsPermission(err):
		return fileStamp{}, ErrPermission
	default:
		return fileStamp{}, err
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}
