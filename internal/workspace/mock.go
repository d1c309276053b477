package workspace

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/mock"
)

// MockRegistry is a mock implementation of Registry for testing.
// It uses testify/mock for behavior configuration and call assertions.
//
// Example usage:
//
//	reg := new(MockRegistry)
//	reg.On("ListPanes", mock.Anything, "markdown").Return([]Pane{
//	    {ID: "p1", Type: "markdown", State: json.RawMessage(`{"file":"a.md"}`)},
//	}, nil)
//	reg.On("LayoutReady").Return(ClosedReady())
//
//	reg.AssertExpectations(t)
type MockRegistry struct {
	mock.Mock
}

var _ Registry = (*MockRegistry)(nil)

// ListPanes returns mocked panes.
//
//	mock.On("ListPanes", ctx, "markdown").Return([]Pane{...}, nil)
func (m *MockRegistry) ListPanes(ctx context.Context, kind string) ([]Pane, error) {
	args := m.Called(ctx, kind)
	panes, _ := args.Get(0).([]Pane)
	return panes, args.Error(1)
}

// ViewState returns a mocked view state.
//
//	mock.On("ViewState", ctx, "p1").Return(json.RawMessage(`{}`), nil)
func (m *MockRegistry) ViewState(ctx context.Context, id string) (json.RawMessage, error) {
	args := m.Called(ctx, id)
	state, _ := args.Get(0).(json.RawMessage)
	return state, args.Error(1)
}

// SetViewState records a view swap.
//
//	mock.On("SetViewState", ctx, "p1", "kanban", json.RawMessage(`{}`)).Return(nil)
func (m *MockRegistry) SetViewState(ctx context.Context, id, viewType string, state json.RawMessage) error {
	args := m.Called(ctx, id, viewType, state)
	return args.Error(0)
}

// LayoutReady returns the mocked ready channel.
//
//	mock.On("LayoutReady").Return(ClosedReady())
func (m *MockRegistry) LayoutReady() <-chan struct{} {
	args := m.Called()
	return args.Get(0).(<-chan struct{})
}

// ClosedReady returns an already closed ready channel.
func ClosedReady() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
