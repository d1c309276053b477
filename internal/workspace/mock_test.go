package workspace

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMockRegistry(t *testing.T) {
	ctx := context.Background()
	reg := new(MockRegistry)

	panes := []Pane{{ID: "p1", Type: "markdown", State: json.RawMessage(`{"file":"a.md"}`)}}
	reg.On("ListPanes", mock.Anything, "markdown").Return(panes, nil)
	reg.On("ViewState", mock.Anything, "p1").Return(json.RawMessage(`{"file":"a.md"}`), nil)
	reg.On("SetViewState", mock.Anything, "p1", "kanban", json.RawMessage(`{"file":"a.md"}`)).Return(nil)
	reg.On("LayoutReady").Return(ClosedReady())

	got, err := reg.ListPanes(ctx, "markdown")
	require.NoError(t, err)
	assert.Equal(t, panes, got)

	state, err := reg.ViewState(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, reg.SetViewState(ctx, "p1", "kanban", state))

	select {
	case <-reg.LayoutReady():
	default:
		t.Fatal("ClosedReady should be closed")
	}

	reg.AssertExpectations(t)
}

func TestMockRegistryNilPanes(t *testing.T) {
	reg := new(MockRegistry)
	reg.On("ListPanes", mock.Anything, "").Return(nil, ErrInvalidWorkspace)

	panes, err := reg.ListPanes(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidWorkspace)
	assert.Nil(t, panes)
}
