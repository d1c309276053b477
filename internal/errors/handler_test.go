package errors

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockColorOutput is a mock implementation of ColorOutput for testing.
type mockColorOutput struct {
	mu          sync.Mutex
	errorCalled bool
	errorMsg    string

	warningCalled bool
	warningMsg    string

	infoCalled bool
	infoMsg    string

	successCalled bool
	successMsg    string
}

func (m *mockColorOutput) Error(msgs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCalled = true
	if len(msgs) > 0 {
		m.errorMsg = msgs[0]
	}
}

func (m *mockColorOutput) Warning(msgs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warningCalled = true
	if len(msgs) > 0 {
		m.warningMsg = msgs[0]
	}
}

func (m *mockColorOutput) Info(msgs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoCalled = true
	if len(msgs) > 0 {
		m.infoMsg = msgs[0]
	}
}

func (m *mockColorOutput) Success(msgs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successCalled = true
	if len(msgs) > 0 {
		m.successMsg = msgs[0]
	}
}

func (m *mockColorOutput) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCalled = false
	m.errorMsg = ""
	m.warningCalled = false
	m.warningMsg = ""
	m.infoCalled = false
	m.infoMsg = ""
	m.successCalled = false
	m.successMsg = ""
}

// CLIHandler Tests

func TestCLIHandlerError(t *testing.T) {
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	handler.Error("test error")

	assert.True(t, mock.errorCalled, "Error() should have been called")
	assert.Equal(t, "test error", mock.errorMsg, "Error() should have been called with correct message")
}

func TestNewDefaultCLIHandler(t *testing.T) {
	handler := NewDefaultCLIHandler()
	require.NotNil(t, handler)
}

func TestCLIHandlerWarning(t *testing.T) {
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	handler.Warning("test warning")

	assert.True(t, mock.warningCalled, "Warning() should have been called")
	assert.Equal(t, "test warning", mock.warningMsg, "Warning() should have been called with correct message")
}

func TestCLIHandlerInfo(t *testing.T) {
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	handler.Info("test info")

	assert.True(t, mock.infoCalled, "Info() should have been called")
	assert.Equal(t, "test info", mock.infoMsg, "Info() should have been called with correct message")
}

func TestCLIHandlerSuccess(t *testing.T) {
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	handler.Success("test success")

	assert.True(t, mock.successCalled, "Success() should have been called")
	assert.Equal(t, "test success", mock.successMsg, "Success() should have been called with correct message")
}

func TestCLIHandlerRecursiveErrorHandling(t *testing.T) {
	// Create a mock that will trigger recursive error handling
	// The CLIHandler has an inHandling flag to prevent recursion
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	// First error sets inHandling flag to true
	handler.Error("first error")
	require.True(t, mock.errorCalled, "First error should be handled")
	require.Equal(t, "first error", mock.errorMsg)

	mock.reset()

	// Second error while inHandling should skip the locking mechanism
	// and still call colors.Error()
	handler.Error("second error during handling")
	assert.True(t, mock.errorCalled, "Second error should still be handled")
	assert.Equal(t, "second error during handling", mock.errorMsg)

	// After the first error completes, inHandling should be reset
	mock.reset()

	// Third error should work normally
	handler.Error("third error")
	assert.True(t, mock.errorCalled, "Third error should be handled")
	assert.Equal(t, "third error", mock.errorMsg)
}

func TestCLIHandlerErrorWhenAlreadyHandling(t *testing.T) {
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	handler.inHandling = true
	handler.Error("error while already handling")

	assert.True(t, mock.errorCalled, "Error() should be called even when already handling")
	assert.Equal(t, "error while already handling", mock.errorMsg)
	assert.True(t, handler.inHandling, "inHandling should stay true on fast path")
}

func TestReportNilIsOK(t *testing.T) {
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	assert.Equal(t, ExitOK, handler.Report(nil))
	assert.False(t, mock.errorCalled)
	assert.False(t, mock.warningCalled)
}

func TestReportError(t *testing.T) {
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	code := handler.Report(fmt.Errorf("settings: load: %w", fmt.Errorf("disk gone")))

	assert.Equal(t, ExitFailure, code)
	assert.True(t, mock.errorCalled)
	assert.Equal(t, "settings: load: disk gone", mock.errorMsg)
}

func TestReportAbortIsWarning(t *testing.T) {
	mock := &mockColorOutput{}
	handler := NewCLIHandler(mock)

	err := fmt.Errorf("new board: %w", Abortf("hook %s exited with %d", "post-create.sh", 3))
	code := handler.Report(err)

	assert.Equal(t, ExitFailure, code)
	assert.False(t, mock.errorCalled)
	assert.True(t, mock.warningCalled)
	assert.Equal(t, "new board: aborted: hook post-create.sh exited with 3", mock.warningMsg)
}
