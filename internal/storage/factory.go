package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/cristianoliveira/vault-kanban/internal/colors"
	"github.com/cristianoliveira/vault-kanban/internal/storage/sqlite"
	"github.com/cristianoliveira/vault-kanban/internal/vault"
)

const (
	// BackendJSON selects the plugin's data.json file.
	BackendJSON = "json"
	// BackendSQLite selects the vault's shared SQLite database.
	BackendSQLite = "sqlite"
)

var _ Store = (*sqlite.Store)(nil)

// Options selects and locates a backend.
type Options struct {
	Backend  string
	VaultDir string
	PluginID string
}

// New opens the store selected by opts. Unknown backends and a SQLite
// database that cannot be opened fall back to the JSON file with a warning.
func New(ctx context.Context, opts Options) (Store, error) {
	if strings.TrimSpace(opts.PluginID) == "" {
		return nil, fmt.Errorf("storage: plugin id cannot be empty")
	}
	jsonPath := vault.PluginDataPath(opts.VaultDir, opts.PluginID)

	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendJSON:
		return NewFileStore(jsonPath), nil
	case BackendSQLite:
		db, err := sqlite.Open(vault.DatabasePath(opts.VaultDir), opts.PluginID)
		if err != nil {
			colors.Warning(fmt.Sprintf("failed to initialize sqlite backend, falling back to json: %v", err))
			return NewFileStore(jsonPath), nil
		}
		if err := importJSON(ctx, NewFileStore(jsonPath), db); err != nil {
			colors.Warning(fmt.Sprintf("json import into sqlite failed: %v", err))
		}
		return db, nil
	default:
		colors.Warning(fmt.Sprintf("unknown settings backend '%s', falling back to json", opts.Backend))
		return NewFileStore(jsonPath), nil
	}
}

// importJSON copies the JSON file into dst the first time dst is used, so
// switching backends keeps the installed-at stamp.
func importJSON(ctx context.Context, src, dst Store) error {
	_, present, err := dst.Load(ctx)
	if err != nil {
		return fmt.Errorf("check destination: %w", err)
	}
	if present {
		return nil
	}
	data, present, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("read json data: %w", err)
	}
	if !present || len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := dst.Save(ctx, data); err != nil {
		return fmt.Errorf("write sqlite data: %w", err)
	}
	colors.Info("Imported plugin data from json into sqlite")
	return nil
}
