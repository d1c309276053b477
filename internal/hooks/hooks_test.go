package hooks

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cristianoliveira/vault-kanban/internal/config"
	"github.com/cristianoliveira/vault-kanban/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, point, name, body string, mode os.FileMode) string {
	t.Helper()
	pointDir := filepath.Join(dir, point)
	require.NoError(t, os.MkdirAll(pointDir, 0755))
	path := filepath.Join(pointDir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), mode))
	return path
}

func newRunner(t *testing.T, mode FailureMode) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &Runner{
		Dir:         t.TempDir(),
		Enabled:     true,
		FailureMode: mode,
		Output:      &out,
	}, &out
}

func TestFromConfig(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("XDG_STATE_HOME", tmp)
	t.Setenv("HOME", tmp)
	t.Setenv("VAULT_KANBAN_HOOKS_FAILURE_MODE", "abort")
	t.Setenv("VAULT_KANBAN_HOOKS_ENABLED", "false")
	config.Load()

	r := FromConfig(nil)
	assert.Equal(t, filepath.Join(tmp, "vault-kanban", "hooks"), r.Dir)
	assert.False(t, r.Enabled)
	assert.Equal(t, FailureAbort, r.FailureMode)
	assert.Equal(t, DefaultTimeout, r.Timeout)
	assert.NotNil(t, r.Logger)
}

func TestScriptsOnlyExecutableSorted(t *testing.T) {
	r, _ := newRunner(t, FailureWarn)
	b := writeScript(t, r.Dir, PostCreate, "20-b.sh", "exit 0", 0755)
	a := writeScript(t, r.Dir, PostCreate, "10-a.sh", "exit 0", 0755)
	writeScript(t, r.Dir, PostCreate, "30-not-exec.sh", "exit 0", 0644)
	require.NoError(t, os.MkdirAll(filepath.Join(r.Dir, PostCreate, "subdir"), 0755))

	assert.Equal(t, []string{a, b}, r.Scripts(PostCreate))
	assert.Empty(t, r.Scripts(PostCoerce), "missing point directory means no hooks")
}

func TestRunPassesEnvironment(t *testing.T) {
	r, out := newRunner(t, FailureAbort)
	writeScript(t, r.Dir, PostCoerce, "env.sh", `echo "$HOOK_POINT $PANE_ID $DOCUMENT"`, 0755)

	err := r.Run(context.Background(), PostCoerce, map[string]string{
		"PANE_ID":  "p1",
		"DOCUMENT": "Boards/Home.md",
	})
	require.NoError(t, err)
	assert.Equal(t, "post-coerce p1 Boards/Home.md", strings.TrimSpace(out.String()))
}

func TestRunOrder(t *testing.T) {
	r, out := newRunner(t, FailureAbort)
	writeScript(t, r.Dir, PostCreate, "02-second.sh", "echo second", 0755)
	writeScript(t, r.Dir, PostCreate, "01-first.sh", "echo first", 0755)

	require.NoError(t, r.Run(context.Background(), PostCreate, nil))
	assert.Equal(t, "first\nsecond\n", out.String())
}

func TestFailureModes(t *testing.T) {
	tests := []struct {
		mode      FailureMode
		wantErr   bool
		wantAfter bool
	}{
		{mode: FailureAbort, wantErr: true, wantAfter: false},
		{mode: FailureWarn, wantErr: false, wantAfter: true},
		{mode: FailureIgnore, wantErr: false, wantAfter: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.mode), func(t *testing.T) {
			r, out := newRunner(t, tt.mode)
			writeScript(t, r.Dir, PostCreate, "01-fail.sh", "echo failing; exit 3", 0755)
			writeScript(t, r.Dir, PostCreate, "02-after.sh", "echo after", 0755)

			err := r.Run(context.Background(), PostCreate, nil)
			if tt.wantErr {
				require.ErrorIs(t, err, errors.ErrAborted)
				assert.Contains(t, err.Error(), "01-fail.sh")
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, out.String(), "failing")
			assert.Equal(t, tt.wantAfter, strings.Contains(out.String(), "after"))
		})
	}
}

func TestDisabledRunsNothing(t *testing.T) {
	r, out := newRunner(t, FailureAbort)
	r.Enabled = false
	writeScript(t, r.Dir, PostCreate, "fail.sh", "echo ran; exit 1", 0755)

	require.NoError(t, r.Run(context.Background(), PostCreate, nil))
	assert.Empty(t, out.String())

	var nilRunner *Runner
	require.NoError(t, nilRunner.Run(context.Background(), PostCreate, nil))
}

func TestTimeout(t *testing.T) {
	r, _ := newRunner(t, FailureAbort)
	r.Timeout = 50 * time.Millisecond
	writeScript(t, r.Dir, PostCoerce, "slow.sh", "exec sleep 5", 0755)

	start := time.Now()
	err := r.Run(context.Background(), PostCoerce, nil)
	require.ErrorIs(t, err, errors.ErrAborted)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 4*time.Second)
}
