package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `{
  "active": "p2",
  "theme": "dark",
  "panes": [
    {"id": "p1", "type": "markdown", "state": {"file":"Boards/Home.md","mode":"source","scroll":42}, "pinned": true},
    {"id": "p2", "type": "markdown", "state": {"file":"Notes/plain.md"}},
    {"id": "p3", "type": "kanban", "state": {"file":"Boards/Done.md"}},
    {"id": "p4", "type": "graph"}
  ]
}`

func newFixture(t *testing.T, content string) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".vault", "workspace.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return NewFile(path)
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestListPanes(t *testing.T) {
	f := newFixture(t, fixture)
	ctx := context.Background()

	md, err := f.ListPanes(ctx, "markdown")
	require.NoError(t, err)
	require.Len(t, md, 2)
	assert.Equal(t, "p1", md[0].ID)
	assert.Equal(t, "Boards/Home.md", md[0].File())
	assert.Equal(t, "Notes/plain.md", md[1].File())

	all, err := f.ListPanes(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "", all[3].File())
}

func TestListPanesMissingFile(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "workspace.json"))
	panes, err := f.ListPanes(context.Background(), "markdown")
	require.NoError(t, err)
	assert.Empty(t, panes)
}

func TestInvalidWorkspace(t *testing.T) {
	for _, content := range []string{"{not json", `{"panes": 3}`} {
		f := newFixture(t, content)
		_, err := f.ListPanes(context.Background(), "")
		require.ErrorIs(t, err, ErrInvalidWorkspace)
		require.ErrorIs(t, f.Refresh(context.Background()), ErrInvalidWorkspace)
		assert.False(t, isClosed(f.LayoutReady()))
	}
}

func TestRefreshMarksReadyOnce(t *testing.T) {
	f := newFixture(t, fixture)
	assert.False(t, isClosed(f.LayoutReady()))

	require.NoError(t, f.Refresh(context.Background()))
	assert.True(t, isClosed(f.LayoutReady()))
	require.NoError(t, f.Refresh(context.Background()), "second refresh must not close twice")
}

func TestViewState(t *testing.T) {
	f := newFixture(t, fixture)
	ctx := context.Background()

	state, err := f.ViewState(ctx, "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"file":"Boards/Home.md","mode":"source","scroll":42}`, string(state))

	_, err = f.ViewState(ctx, "missing")
	require.ErrorIs(t, err, ErrPaneNotFound)
}

func TestSetViewStatePreservesStateAndUnknownFields(t *testing.T) {
	f := newFixture(t, fixture)
	ctx := context.Background()

	before, err := f.ViewState(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, f.SetViewState(ctx, "p1", "kanban", before))

	after, err := f.ViewState(ctx, "p1")
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))

	kanban, err := f.ListPanes(ctx, "kanban")
	require.NoError(t, err)
	require.Len(t, kanban, 2)

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	var doc struct {
		Active string           `json:"active"`
		Theme  string           `json:"theme"`
		Panes  []map[string]any `json:"panes"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "dark", doc.Theme)
	assert.Equal(t, "p2", doc.Active)
	assert.Equal(t, true, doc.Panes[0]["pinned"])
	assert.Equal(t, "kanban", doc.Panes[0]["type"])

	entries, err := os.ReadDir(filepath.Dir(f.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp or lock files may remain")
}

func TestSetViewStateMissingPane(t *testing.T) {
	f := newFixture(t, fixture)
	err := f.SetViewState(context.Background(), "gone", "kanban", json.RawMessage(`{}`))
	require.ErrorIs(t, err, ErrPaneNotFound)
}

func TestActive(t *testing.T) {
	f := newFixture(t, fixture)
	active, err := f.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p2", active)

	empty := NewFile(filepath.Join(t.TempDir(), "workspace.json"))
	active, err = empty.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", active)
}

func TestOpenDocumentUsesActivePane(t *testing.T) {
	f := newFixture(t, fixture)
	ctx := context.Background()

	id, err := f.OpenDocument(ctx, "Boards/Kanban-1.md", "markdown")
	require.NoError(t, err)
	assert.Equal(t, "p2", id)

	state, err := f.ViewState(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "Boards/Kanban-1.md", FileFromState(state))
}

func TestOpenDocumentCreatesPane(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), ".vault", "workspace.json"))
	ctx := context.Background()

	id, err := f.OpenDocument(ctx, "Kanban-1.md", "markdown")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	active, err := f.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, active)

	panes, err := f.ListPanes(ctx, "markdown")
	require.NoError(t, err)
	require.Len(t, panes, 1)
	assert.Equal(t, "Kanban-1.md", panes[0].File())
}

func TestContextCancelled(t *testing.T) {
	f := newFixture(t, fixture)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := f.ListPanes(ctx, "")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFileFromState(t *testing.T) {
	assert.Equal(t, "", FileFromState(nil))
	assert.Equal(t, "", FileFromState(json.RawMessage(`[]`)))
	assert.Equal(t, "", FileFromState(json.RawMessage(`{"file":3}`)))
	assert.Equal(t, "a.md", FileFromState(json.RawMessage(`{"file":"a.md","x":1}`)))
}
