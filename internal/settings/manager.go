package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cristianoliveira/vault-kanban/internal/logging"
	"github.com/cristianoliveira/vault-kanban/internal/storage"
	"github.com/cristianoliveira/vault-kanban/internal/version"
	"github.com/goccy/go-json"
)

// ErrNotLoaded is returned by operations that need Load to have succeeded.
var ErrNotLoaded = errors.New("settings not loaded")

// Manager owns the in-memory GlobalSettings of one plugin instance and
// keeps it in sync with the store. It is safe for concurrent use.
//
// The in-memory value only changes after the store accepted the new
// value, so a failed save never leaves memory ahead of disk.
type Manager struct {
	store   storage.Store
	current version.Tag
	logger  logging.Logger

	mu     sync.Mutex
	value  GlobalSettings
	extra  map[string]json.RawMessage
	state  State
	loaded bool
}

// NewManager returns a manager holding the defaults. current is the tag
// stamped into blobs that have none.
func NewManager(store storage.Store, current version.Tag, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Manager{
		store:   store,
		current: current,
		logger:  logger.With("component", "settings"),
		value:   Defaults(),
		extra:   make(map[string]json.RawMessage),
	}
}

// Load reads the persisted blob, merges it onto the defaults and stamps
// installedAtVersion when none is recorded. The returned state describes
// the blob as it was found.
func (m *Manager) Load(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, present, err := m.store.Load(ctx)
	if err != nil {
		return Uninitialized, fmt.Errorf("settings: load: %w", err)
	}

	state, fields := Classify(raw, present)
	next, extra := merge(Defaults(), fields)

	if state.NeedsStamp() {
		next.InstalledAtVersion = m.current
		if err := m.persist(ctx, next, extra); err != nil {
			return state, err
		}
		m.logger.Info("stamped installed version", "state", state.String(), "version", m.current.String())
	} else {
		m.logger.Debug("loaded settings", "state", state.String(), "version", next.InstalledAtVersion.String())
	}

	m.value = next
	m.extra = extra
	m.state = state
	m.loaded = true
	return state, nil
}

// Get returns a copy of the current settings.
func (m *Manager) Get() GlobalSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// State returns the state found by the last successful Load.
func (m *Manager) State() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.loaded
}

// Update applies fn to a copy of the settings, persists the result and
// only then makes it current. installedAtVersion cannot be cleared.
func (m *Manager) Update(ctx context.Context, fn func(*GlobalSettings)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return ErrNotLoaded
	}

	next := m.value
	fn(&next)
	if next.InstalledAtVersion.IsZero() {
		next.InstalledAtVersion = m.value.InstalledAtVersion
	}
	if next == m.value {
		return nil
	}
	if err := m.persist(ctx, next, m.extra); err != nil {
		return err
	}
	m.value = next
	return nil
}

// Save writes the current settings wholesale. The plugin calls it on
// shutdown.
func (m *Manager) Save(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return ErrNotLoaded
	}
	return m.persist(ctx, m.value, m.extra)
}

// Reset drops every setting except the installed version stamp.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return ErrNotLoaded
	}

	installed := m.value.InstalledAtVersion
	if installed.IsZero() {
		installed = m.current
	}
	next := GlobalSettings{InstalledAtVersion: installed}
	extra := make(map[string]json.RawMessage)
	if err := m.persist(ctx, next, extra); err != nil {
		return err
	}
	m.value = next
	m.extra = extra
	m.logger.Info("settings reset", "version", installed.String())
	return nil
}

// Extra returns the persisted keys the manager carries without owning.
func (m *Manager) Extra() map[string]json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRaw(m.extra)
}

func (m *Manager) persist(ctx context.Context, s GlobalSettings, extra map[string]json.RawMessage) error {
	data, err := encode(s, extra)
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, data); err != nil {
		m.logger.Error("settings save failed", "error", err.Error())
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}
