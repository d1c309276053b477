// Package workspace provides the pane registry of a vault.
// It defines the Registry abstraction the coercion scheduler works against
// and a file-backed implementation over the vault's workspace.json.
package workspace

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
)

var (
	// ErrPaneNotFound is returned when a pane id is not in the layout.
	ErrPaneNotFound = errors.New("pane not found")

	// ErrInvalidWorkspace is returned when the layout file cannot be decoded.
	ErrInvalidWorkspace = errors.New("invalid workspace layout")
)

// Pane is one open pane: the view type it renders with and its opaque view
// state. State is kept as raw JSON so a swap passes it through unchanged.
type Pane struct {
	ID    string
	Type  string
	State json.RawMessage
}

// File returns the document path recorded in the pane's view state, or ""
// when the pane shows no document.
func (p Pane) File() string {
	return FileFromState(p.State)
}

// FileFromState extracts the "file" member of a view state blob.
func FileFromState(state json.RawMessage) string {
	if len(state) == 0 {
		return ""
	}
	var s struct {
		File string `json:"file"`
	}
	if err := json.Unmarshal(state, &s); err != nil {
		return ""
	}
	return s.File
}

// Registry abstracts the host's pane registry.
type Registry interface {
	// ListPanes returns the open panes whose view type is kind. An empty
	// kind lists every pane.
	ListPanes(ctx context.Context, kind string) ([]Pane, error)

	// ViewState returns the current view state of a pane.
	ViewState(ctx context.Context, id string) (json.RawMessage, error)

	// SetViewState switches a pane to viewType with the given state.
	SetViewState(ctx context.Context, id, viewType string, state json.RawMessage) error

	// LayoutReady returns a channel closed once the layout is stable.
	LayoutReady() <-chan struct{}
}
