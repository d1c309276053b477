package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cristianoliveira/vault-kanban/internal/colors"
	"github.com/cristianoliveira/vault-kanban/internal/storage"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	keyPanes  = "panes"
	keyActive = "active"
	keyID     = "id"
	keyType   = "type"
	keyState  = "state"
)

// layout is the decoded workspace file. Every member, including the ones
// this package does not know, is kept as raw JSON so a rewrite loses
// nothing.
type layout struct {
	fields map[string]json.RawMessage
	panes  []map[string]json.RawMessage
}

func (l *layout) find(id string) (map[string]json.RawMessage, bool) {
	for _, p := range l.panes {
		if rawString(p[keyID]) == id {
			return p, true
		}
	}
	return nil, false
}

func (l *layout) active() string {
	return rawString(l.fields[keyActive])
}

func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func toPane(p map[string]json.RawMessage) Pane {
	return Pane{
		ID:    rawString(p[keyID]),
		Type:  rawString(p[keyType]),
		State: bytes.Clone(p[keyState]),
	}
}

// File is a Registry backed by a workspace.json file.
//
// The layout becomes ready after the first successful Refresh. Mutations
// are read-modify-write cycles serialized in-process by a mutex and across
// processes by a directory lock next to the file.
type File struct {
	path    string
	lockDir string

	mu        sync.Mutex
	ready     chan struct{}
	readyOnce sync.Once
}

var _ Registry = (*File)(nil)

// NewFile returns a registry over the layout file at path.
func NewFile(path string) *File {
	return &File{
		path:    path,
		lockDir: path + ".lock",
		ready:   make(chan struct{}),
	}
}

// Path returns the layout file.
func (f *File) Path() string {
	return f.path
}

// LayoutReady implements Registry.
func (f *File) LayoutReady() <-chan struct{} {
	return f.ready
}

// Refresh validates the layout file and marks the layout ready on the first
// success. A missing file is an empty layout.
func (f *File) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.read(ctx); err != nil {
		return err
	}
	f.readyOnce.Do(func() { close(f.ready) })
	return nil
}

func (f *File) read(ctx context.Context) (*layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := &layout{fields: make(map[string]json.RawMessage)}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("workspace: read %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(data, &l.fields); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidWorkspace, f.path, err)
	}
	if l.fields == nil {
		l.fields = make(map[string]json.RawMessage)
	}
	if raw, ok := l.fields[keyPanes]; ok && len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &l.panes); err != nil {
			return nil, fmt.Errorf("%w: %s: panes: %v", ErrInvalidWorkspace, f.path, err)
		}
	}
	return l, nil
}

func (f *File) write(l *layout) error {
	panes := l.panes
	if panes == nil {
		panes = []map[string]json.RawMessage{}
	}
	rawPanes, err := json.Marshal(panes)
	if err != nil {
		return fmt.Errorf("workspace: encode panes: %w", err)
	}
	l.fields[keyPanes] = rawPanes
	data, err := json.MarshalIndent(l.fields, "", "  ")
	if err != nil {
		return fmt.Errorf("workspace: encode: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, storage.FileModeDir); err != nil {
		return fmt.Errorf("workspace: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".workspace.*.tmp")
	if err != nil {
		return fmt.Errorf("workspace: write: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("workspace: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("workspace: write: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("workspace: replace %s: %w", f.path, err)
	}
	return nil
}

// modify runs fn on the current layout and writes the result back.
func (f *File) modify(ctx context.Context, fn func(*layout) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return storage.WithLock(ctx, f.lockDir, func() error {
		l, err := f.read(ctx)
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
		return f.write(l)
	})
}

// ListPanes implements Registry.
func (f *File) ListPanes(ctx context.Context, kind string) ([]Pane, error) {
	f.mu.Lock()
	l, err := f.read(ctx)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	panes := make([]Pane, 0, len(l.panes))
	for _, p := range l.panes {
		pane := toPane(p)
		if pane.ID == "" {
			continue
		}
		if kind == "" || pane.Type == kind {
			panes = append(panes, pane)
		}
	}
	return panes, nil
}

// ViewState implements Registry.
func (f *File) ViewState(ctx context.Context, id string) (json.RawMessage, error) {
	f.mu.Lock()
	l, err := f.read(ctx)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	p, ok := l.find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPaneNotFound, id)
	}
	return bytes.Clone(p[keyState]), nil
}

// SetViewState implements Registry. Members of the pane entry other than
// type and state are kept.
func (f *File) SetViewState(ctx context.Context, id, viewType string, state json.RawMessage) error {
	rawType, err := json.Marshal(viewType)
	if err != nil {
		return fmt.Errorf("workspace: encode type: %w", err)
	}
	err = f.modify(ctx, func(l *layout) error {
		p, ok := l.find(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrPaneNotFound, id)
		}
		p[keyType] = rawType
		if len(state) == 0 {
			delete(p, keyState)
		} else {
			p[keyState] = bytes.Clone(state)
		}
		return nil
	})
	if err != nil {
		return err
	}
	colors.StructuredDebug("workspace", "set_view_state", "completed", nil, id, map[string]any{"type": viewType})
	return nil
}

// Active returns the id of the focused pane, or "" when none is recorded.
func (f *File) Active(ctx context.Context) (string, error) {
	f.mu.Lock()
	l, err := f.read(ctx)
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	if _, ok := l.find(l.active()); !ok {
		return "", nil
	}
	return l.active(), nil
}

// OpenDocument shows document p in the focused pane using viewType. When no
// pane is focused a new pane is created and focused. It returns the pane id.
func (f *File) OpenDocument(ctx context.Context, p, viewType string) (string, error) {
	state, err := json.Marshal(map[string]string{"file": p})
	if err != nil {
		return "", fmt.Errorf("workspace: encode state: %w", err)
	}
	rawType, err := json.Marshal(viewType)
	if err != nil {
		return "", fmt.Errorf("workspace: encode type: %w", err)
	}

	var paneID string
	err = f.modify(ctx, func(l *layout) error {
		if pane, ok := l.find(l.active()); ok {
			paneID = rawString(pane[keyID])
			pane[keyType] = rawType
			pane[keyState] = state
			return nil
		}
		paneID = uuid.NewString()
		rawID, err := json.Marshal(paneID)
		if err != nil {
			return err
		}
		l.panes = append(l.panes, map[string]json.RawMessage{
			keyID:    rawID,
			keyType:  rawType,
			keyState: state,
		})
		l.fields[keyActive] = rawID
		return nil
	})
	if err != nil {
		return "", err
	}
	return paneID, nil
}
