package vault

import "path/filepath"

// Names inside a vault's host state directory.
const (
	StateDirName      = ".vault"
	WorkspaceFileName = "workspace.json"
	PluginsDirName    = "plugins"
	PluginDataName    = "data.json"
	DatabaseFileName  = "plugin-data.db"
)

// StateDir returns the host state directory of the vault rooted at root.
func StateDir(root string) string {
	return filepath.Join(root, StateDirName)
}

// WorkspacePath returns the path of the pane layout file.
func WorkspacePath(root string) string {
	return filepath.Join(StateDir(root), WorkspaceFileName)
}

// PluginDir returns the data directory of a plugin.
func PluginDir(root, pluginID string) string {
	return filepath.Join(StateDir(root), PluginsDirName, pluginID)
}

// PluginDataPath returns the JSON settings file of a plugin.
func PluginDataPath(root, pluginID string) string {
	return filepath.Join(PluginDir(root, pluginID), PluginDataName)
}

// DatabasePath returns the SQLite database shared by all plugins of a vault.
func DatabasePath(root string) string {
	return filepath.Join(StateDir(root), DatabaseFileName)
}
