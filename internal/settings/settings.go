// Package settings keeps the plugin's process-wide settings and migrates
// the persisted copy across upgrades.
//
// Loading classifies the persisted blob (see Classify). Blobs without a
// recorded installedAtVersion are stamped with the running version and
// written back exactly once; a versioned blob is loaded without writing.
// No version comparison is performed.
package settings

import (
	"bytes"
	"fmt"

	"github.com/cristianoliveira/vault-kanban/internal/version"
	"github.com/goccy/go-json"
)

const (
	keyInstalledAtVersion = "installedAtVersion"
	keyDefaultTaskPath    = "defaultTaskPath"
)

// GlobalSettings is the plugin-wide configuration.
type GlobalSettings struct {
	InstalledAtVersion version.Tag `json:"installedAtVersion,omitempty"`
	DefaultTaskPath    string      `json:"defaultTaskPath,omitempty"`
}

// Defaults returns the settings in effect before anything is loaded.
func Defaults() GlobalSettings {
	return GlobalSettings{}
}

// merge applies persisted fields onto base. Persisted keys win; fields
// whose persisted value has the wrong type keep the base value. The
// returned map holds every persisted key this type does not own, plus any
// known key whose value could not be decoded, so it survives a save.
func merge(base GlobalSettings, fields map[string]json.RawMessage) (GlobalSettings, map[string]json.RawMessage) {
	extra := make(map[string]json.RawMessage)
	for k, v := range fields {
		switch k {
		case keyInstalledAtVersion:
			var s string
			if err := json.Unmarshal(v, &s); err == nil && s != "" {
				base.InstalledAtVersion = version.Tag(s)
				continue
			}
		case keyDefaultTaskPath:
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				base.DefaultTaskPath = s
				continue
			}
		}
		extra[k] = v
	}
	return base, extra
}

// encode serializes settings together with carried-through keys. Keys
// owned by GlobalSettings replace carried values when set.
func encode(s GlobalSettings, extra map[string]json.RawMessage) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(extra)+2)
	for k, v := range extra {
		out[k] = v
	}
	if !s.InstalledAtVersion.IsZero() {
		v, err := json.Marshal(s.InstalledAtVersion)
		if err != nil {
			return nil, err
		}
		out[keyInstalledAtVersion] = v
	}
	if s.DefaultTaskPath != "" {
		v, err := json.Marshal(s.DefaultTaskPath)
		if err != nil {
			return nil, err
		}
		out[keyDefaultTaskPath] = v
	}
	// encoding a map sorts keys, which keeps saves byte-stable
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("settings: encode: %w", err)
	}
	return data, nil
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = bytes.Clone(v)
	}
	return out
}
