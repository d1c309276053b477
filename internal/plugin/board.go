package plugin

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/cristianoliveira/vault-kanban/internal/boardsettings"
	"github.com/cristianoliveira/vault-kanban/internal/coercion"
	"github.com/cristianoliveira/vault-kanban/internal/frontmatter"
	"github.com/cristianoliveira/vault-kanban/internal/hooks"
	"github.com/cristianoliveira/vault-kanban/internal/kanban"
	"github.com/cristianoliveira/vault-kanban/internal/vault"
	"github.com/goccy/go-json"
)

// ErrNotBoard is returned for documents without the board marker.
var ErrNotBoard = errors.New("document is not a board")

// Board describes a newly created board document.
type Board struct {
	Path   string
	PaneID string
}

// NewBoard creates a board document in folder and opens it in the focused
// pane, or in a new pane when none is focused. The pane is then switched to
// the board view by a scan.
func (p *Plugin) NewBoard(ctx context.Context, folder string) (Board, error) {
	dir, err := vault.Clean(folder)
	if err != nil {
		return Board{}, err
	}
	name := path.Join(dir, kanban.NewDocumentName(p.now()))
	if err := p.vault.Create(ctx, name, []byte(kanban.NewDocumentContent())); err != nil {
		return Board{}, err
	}
	board := Board{Path: name}

	paneID, err := p.workspace.OpenDocument(ctx, name, kanban.MarkdownViewType)
	if err != nil {
		return board, fmt.Errorf("plugin: open %s: %w", name, err)
	}
	board.PaneID = paneID
	p.logger.Info("board created", "document", name, "pane", paneID)

	// Focus moved to the new document. The event loop picks it up when it
	// runs; otherwise scan here.
	if !p.notify(coercion.EventActivePaneChange) {
		if err := p.workspace.Refresh(ctx); err != nil {
			return board, err
		}
		if _, err := p.scheduler.Handle(ctx, coercion.EventActivePaneChange); err != nil {
			return board, err
		}
	}

	if err := p.hooks.Run(ctx, hooks.PostCreate, map[string]string{
		"DOCUMENT":  name,
		"PANE_ID":   paneID,
		"VAULT_DIR": p.vault.Root(),
	}); err != nil {
		return board, err
	}
	return board, nil
}

// BoardSettings returns the settings stored in a board document's marker
// value.
func (p *Plugin) BoardSettings(ctx context.Context, doc string) (boardsettings.Settings, error) {
	content, err := p.vault.Read(ctx, doc)
	if err != nil {
		return boardsettings.Settings{}, err
	}
	fields, _, err := frontmatter.Parse(content)
	if err != nil {
		return boardsettings.Settings{}, fmt.Errorf("plugin: %s: %w", doc, err)
	}
	if !kanban.IsQualifying(fields) {
		return boardsettings.Settings{}, fmt.Errorf("%w: %s", ErrNotBoard, doc)
	}
	return settingsFromValue(fields[kanban.MarkerKey]), nil
}

// UpdateBoardSettings applies key=value assignments to a board document's
// settings and writes them back. Nothing is written when an assignment is
// invalid.
func (p *Plugin) UpdateBoardSettings(ctx context.Context, doc string, assignments []string) (boardsettings.Settings, error) {
	current, err := p.BoardSettings(ctx, doc)
	if err != nil {
		return current, err
	}
	updated := current
	updated.Columns = append([]string(nil), current.Columns...)
	if err := updated.ApplyAssignments(assignments); err != nil {
		return current, err
	}

	content, err := p.vault.Read(ctx, doc)
	if err != nil {
		return current, err
	}
	next, err := frontmatter.Set(content, kanban.MarkerKey, boardsettings.Serialize(updated))
	if err != nil {
		return current, fmt.Errorf("plugin: %s: %w", doc, err)
	}
	if err := p.vault.Write(ctx, doc, next); err != nil {
		return current, err
	}
	p.cache.Invalidate(doc)
	p.logger.Info("board settings updated", "document", doc, "assignments", len(assignments))
	return updated, nil
}

// settingsFromValue decodes the marker value. Boards store their settings
// as a JSON string; a mapping written by hand is accepted too. Anything
// else yields the defaults.
func settingsFromValue(v any) boardsettings.Settings {
	switch typed := v.(type) {
	case string:
		return boardsettings.Parse(typed)
	case map[string]any:
		raw, err := json.Marshal(typed)
		if err != nil {
			return boardsettings.Defaults()
		}
		return boardsettings.Parse(string(raw))
	default:
		return boardsettings.Defaults()
	}
}
