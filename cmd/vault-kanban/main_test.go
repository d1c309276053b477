package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cristianoliveira/vault-kanban/cmd"
	"github.com/cristianoliveira/vault-kanban/internal/boardsettings"
	"github.com/cristianoliveira/vault-kanban/internal/vault"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupVault isolates config and state and returns an empty vault.
func setupVault(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	t.Setenv("HOME", tmp)
	dir := filepath.Join(tmp, "vault")
	require.NoError(t, os.MkdirAll(dir, 0755))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func execute(t *testing.T, stdin string, args ...string) (string, int) {
	t.Helper()
	var out bytes.Buffer
	cmd.RootCmd.SetOut(&out)
	cmd.RootCmd.SetErr(io.Discard)
	cmd.RootCmd.SetIn(strings.NewReader(stdin))
	defer func() {
		cmd.RootCmd.SetOut(nil)
		cmd.RootCmd.SetErr(nil)
		cmd.RootCmd.SetIn(nil)
	}()
	code := run(args)
	return out.String(), code
}

func TestVersion(t *testing.T) {
	out, code := execute(t, "", "version")
	require.Equal(t, 0, code)
	assert.Equal(t, "vault-kanban version development\n", out)
}

func TestUnknownCommandFails(t *testing.T) {
	setupVault(t)
	_, code := execute(t, "", "frobnicate")
	assert.Equal(t, 1, code)
}

func TestLoadStampsOnce(t *testing.T) {
	dir := setupVault(t)

	out, code := execute(t, "", "load", "--vault", dir)
	require.Equal(t, 0, code)
	var first loadResult
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, "uninitialized", first.State)
	assert.Equal(t, "development", first.Settings.InstalledAtVersion.String())

	data, err := os.ReadFile(vault.PluginDataPath(dir, "kanban"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"installedAtVersion":"development"}`, string(data))

	out, code = execute(t, "", "load", "--vault", dir)
	require.Equal(t, 0, code)
	var second loadResult
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.Equal(t, "versioned", second.State)
}

func TestLoadLegacyBlob(t *testing.T) {
	dir := setupVault(t)
	writeFile(t, vault.PluginDataPath(dir, "boards"), `{"defaultTaskPath":"Tasks"}`)

	out, code := execute(t, "", "load", "--vault", dir, "--plugin-id", "boards")
	require.Equal(t, 0, code)
	var res loadResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "legacy", res.State)
	assert.Equal(t, "Tasks", res.Settings.DefaultTaskPath)
	assert.Equal(t, "development", res.Settings.InstalledAtVersion.String())
}

func TestLoadDryRunWritesNothing(t *testing.T) {
	dir := setupVault(t)
	_, code := execute(t, "", "load", "--vault", dir, "--dry-run")
	require.Equal(t, 0, code)
	_, err := os.Stat(vault.PluginDataPath(dir, "kanban"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadSQLiteBackend(t *testing.T) {
	dir := setupVault(t)
	_, code := execute(t, "", "load", "--vault", dir, "--backend", "sqlite")
	require.Equal(t, 0, code)
	_, err := os.Stat(vault.DatabasePath(dir))
	require.NoError(t, err)

	out, code := execute(t, "", "load", "--vault", dir, "--backend", "sqlite")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"versioned"`)
}

func TestSettingsSetShowReset(t *testing.T) {
	dir := setupVault(t)

	_, code := execute(t, "", "settings", "set", "default-task-path", "Inbox/Tasks", "--vault", dir)
	require.Equal(t, 0, code)

	out, code := execute(t, "", "settings", "show", "--vault", dir)
	require.Equal(t, 0, code)
	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "Inbox/Tasks", view["defaultTaskPath"])
	assert.Equal(t, "development", view["installedAtVersion"])
	assert.Equal(t, "MMMM dd, yyyy", view["dateFormat"])

	// Declining the prompt aborts and keeps the settings.
	_, code = execute(t, "n\n", "settings", "reset", "--vault", dir)
	assert.Equal(t, 1, code)
	data, err := os.ReadFile(vault.PluginDataPath(dir, "kanban"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Inbox/Tasks")

	_, code = execute(t, "", "settings", "reset", "--force", "--vault", dir)
	require.Equal(t, 0, code)
	data, err = os.ReadFile(vault.PluginDataPath(dir, "kanban"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"installedAtVersion":"development"}`, string(data))
}

func TestSettingsResetConfirmed(t *testing.T) {
	dir := setupVault(t)
	writeFile(t, vault.PluginDataPath(dir, "kanban"), `{"installedAtVersion":"1.0.0","defaultTaskPath":"T","custom":1}`)

	_, code := execute(t, "yes\n", "settings", "reset", "--vault", dir)
	require.Equal(t, 0, code)
	data, err := os.ReadFile(vault.PluginDataPath(dir, "kanban"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"installedAtVersion":"1.0.0"}`, string(data))
}

func TestBoardParse(t *testing.T) {
	setupVault(t)

	out, code := execute(t, "", "board", "parse", `{"columns":["A"],"scope":"nowhere"}`)
	require.Equal(t, 0, code)
	want := boardsettings.Defaults()
	want.Columns = []string{"A"}
	assert.Equal(t, boardsettings.Serialize(want)+"\n", out)

	out, code = execute(t, "not json", "board", "parse", "-")
	require.Equal(t, 0, code)
	assert.Equal(t, boardsettings.Serialize(boardsettings.Defaults())+"\n", out)
}

func TestBoardColumns(t *testing.T) {
	setupVault(t)
	out, code := execute(t, "", "board", "columns", " Todo ,Doing,  Done")
	require.Equal(t, 0, code)
	assert.Equal(t, "Todo\nDoing\nDone\n", out)
}

func TestBoardShowAndSet(t *testing.T) {
	dir := setupVault(t)
	writeFile(t, filepath.Join(dir, "Home.md"), "---\nkanban_plugin: {}\n---\n")
	writeFile(t, filepath.Join(dir, "plain.md"), "# plain\n")

	out, code := execute(t, "", "board", "set", "Home.md", "columns=Now, Later", "scope=everywhere", "--vault", dir)
	require.Equal(t, 0, code)
	got := boardsettings.Parse(strings.TrimSpace(out))
	assert.Equal(t, []string{"Now", "Later"}, got.Columns)
	assert.Equal(t, boardsettings.ScopeEverywhere, got.Scope)

	out, code = execute(t, "", "board", "show", "Home.md", "--vault", dir)
	require.Equal(t, 0, code)
	var shown boardsettings.Settings
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, got, shown)

	_, code = execute(t, "", "board", "set", "Home.md", "scope=nowhere", "--vault", dir)
	assert.Equal(t, 1, code)
	_, code = execute(t, "", "board", "show", "plain.md", "--vault", dir)
	assert.Equal(t, 1, code)
}

func TestNewAndCoerce(t *testing.T) {
	dir := setupVault(t)
	writeFile(t, filepath.Join(dir, "Boards", "Home.md"), "---\nkanban_plugin: {}\n---\n")
	writeFile(t, vault.WorkspacePath(dir), `{"panes":[{"id":"p1","type":"markdown","state":{"file":"Boards/Home.md"}}]}`)

	out, code := execute(t, "", "coerce", "--vault", dir)
	require.Equal(t, 0, code)
	assert.Equal(t, "layout-ready: scanned 1, coerced 1, skipped 0 (p1)\n", out)

	out, code = execute(t, "", "coerce", "--vault", dir)
	require.Equal(t, 0, code)
	assert.Equal(t, "layout-ready: scanned 0, coerced 0, skipped 0\n", out)

	out, code = execute(t, "", "new", "./Projects/", "--vault", dir)
	require.Equal(t, 0, code)
	created := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(created, "Projects/Kanban-"), created)
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(created)))
	require.NoError(t, err)
	assert.Equal(t, "---\nkanban_plugin: {}\n---\n", string(data))

	layout, err := os.ReadFile(vault.WorkspacePath(dir))
	require.NoError(t, err)
	assert.Contains(t, string(layout), created)
}

func TestWatchStopsOnSignal(t *testing.T) {
	dir := setupVault(t)
	original := signalContext
	defer func() { signalContext = original }()
	signalContext = func(parent context.Context) (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(parent)
		cancel()
		return ctx, cancel
	}

	out, code := execute(t, "", "watch", "--vault", dir)
	require.Equal(t, 0, code)
	assert.Equal(t, "stopped\n", out)
	_, err := os.Stat(vault.PluginDataPath(dir, "kanban"))
	require.NoError(t, err, "settings are saved on exit")
}

func TestTrimFolder(t *testing.T) {
	assert.Equal(t, "Projects", trimFolder("./Projects/"))
	assert.Equal(t, "", trimFolder(" "))
	assert.Equal(t, "a/b", trimFolder("a/b"))
}
