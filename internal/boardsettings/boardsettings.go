// Package boardsettings parses and serializes per-board settings.
//
// Parsing is total: a settings string that is not a JSON object yields the
// defaults, and every field that is missing, has the wrong type or holds an
// unknown enum value falls back to that field's default on its own.
package boardsettings

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Scope selects where a board looks for its tasks.
type Scope string

const (
	ScopeFolder     Scope = "folder"
	ScopeEverywhere Scope = "everywhere"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeFolder || s == ScopeEverywhere
}

// Visibility controls when a built-in column is shown.
type Visibility string

const (
	VisibilityAuto   Visibility = "auto"
	VisibilityAlways Visibility = "always"
	VisibilityNever  Visibility = "never"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityAuto, VisibilityAlways, VisibilityNever:
		return true
	}
	return false
}

// JSON keys of the serialized form.
const (
	KeyColumns                     = "columns"
	KeyScope                       = "scope"
	KeyShowFilepath                = "showFilepath"
	KeyConsolidateTags             = "consolidateTags"
	KeyUncategorizedVisibility     = "uncategorizedVisibility"
	KeyDoneVisibility              = "doneVisibility"
	KeyShowAddNoteInDefaultColumns = "showAddNoteInDefaultColumns"
)

// Keys lists the settings keys in serialization order.
var Keys = []string{
	KeyColumns,
	KeyScope,
	KeyShowFilepath,
	KeyConsolidateTags,
	KeyUncategorizedVisibility,
	KeyDoneVisibility,
	KeyShowAddNoteInDefaultColumns,
}

// Settings is the configuration of a single board.
// Field order matches the serialized key order.
type Settings struct {
	Columns                     []string   `json:"columns"`
	Scope                       Scope      `json:"scope"`
	ShowFilepath                bool       `json:"showFilepath"`
	ConsolidateTags             bool       `json:"consolidateTags"`
	UncategorizedVisibility     Visibility `json:"uncategorizedVisibility"`
	DoneVisibility              Visibility `json:"doneVisibility"`
	ShowAddNoteInDefaultColumns bool       `json:"showAddNoteInDefaultColumns"`
}

var defaultColumns = []string{"Later", "Soonish", "Next week", "This week", "Today", "Pending"}

// Defaults returns the settings used for a new board. Each call returns a
// fresh value that the caller may modify.
func Defaults() Settings {
	columns := make([]string, len(defaultColumns))
	copy(columns, defaultColumns)
	return Settings{
		Columns:                     columns,
		Scope:                       ScopeFolder,
		ShowFilepath:                true,
		ConsolidateTags:             false,
		UncategorizedVisibility:     VisibilityAuto,
		DoneVisibility:              VisibilityAlways,
		ShowAddNoteInDefaultColumns: false,
	}
}

// Parse decodes a settings string. It never fails.
func Parse(raw string) Settings {
	settings := Defaults()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return settings
	}

	if columns, ok := decodeColumns(fields[KeyColumns]); ok {
		settings.Columns = columns
	}
	if scope, ok := decodeScope(fields[KeyScope]); ok {
		settings.Scope = scope
	}
	if v, ok := decodeBool(fields[KeyShowFilepath]); ok {
		settings.ShowFilepath = v
	}
	if v, ok := decodeBool(fields[KeyConsolidateTags]); ok {
		settings.ConsolidateTags = v
	}
	if v, ok := decodeVisibility(fields[KeyUncategorizedVisibility]); ok {
		settings.UncategorizedVisibility = v
	}
	if v, ok := decodeVisibility(fields[KeyDoneVisibility]); ok {
		settings.DoneVisibility = v
	}
	if v, ok := decodeBool(fields[KeyShowAddNoteInDefaultColumns]); ok {
		settings.ShowAddNoteInDefaultColumns = v
	}
	return settings
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeColumns(raw json.RawMessage) ([]string, bool) {
	if isAbsent(raw) {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	columns := make([]string, 0, len(items))
	for _, item := range items {
		var column string
		if err := json.Unmarshal(item, &column); err != nil || isAbsent(item) {
			// One bad entry invalidates the whole list.
			return nil, false
		}
		columns = append(columns, column)
	}
	return columns, true
}

func decodeScope(raw json.RawMessage) (Scope, bool) {
	if isAbsent(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	scope := Scope(s)
	return scope, scope.Valid()
}

func decodeVisibility(raw json.RawMessage) (Visibility, bool) {
	if isAbsent(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	v := Visibility(s)
	return v, v.Valid()
}

func decodeBool(raw json.RawMessage) (bool, bool) {
	if isAbsent(raw) {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

// Serialize encodes settings as a JSON object with a fixed key order.
func Serialize(s Settings) string {
	if s.Columns == nil {
		s.Columns = []string{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		// Settings holds only strings and bools.
		panic(fmt.Sprintf("boardsettings: marshal: %v", err))
	}
	return string(data)
}

// ParseColumns splits the comma separated column text an editor shows.
// Entries are trimmed; empty entries and duplicates are kept because
// columns are identified by position.
func ParseColumns(text string) []string {
	parts := strings.Split(text, ",")
	columns := make([]string, len(parts))
	for i, part := range parts {
		columns[i] = strings.TrimSpace(part)
	}
	return columns
}

// FormatColumns joins columns into the editor text form.
func FormatColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

// Validate reports the first field holding a value outside its domain.
func (s Settings) Validate() error {
	if !s.Scope.Valid() {
		return fmt.Errorf("invalid %s %q: must be one of %s, %s", KeyScope, s.Scope, ScopeFolder, ScopeEverywhere)
	}
	if !s.UncategorizedVisibility.Valid() {
		return fmt.Errorf("invalid %s %q: must be one of auto, always, never", KeyUncategorizedVisibility, s.UncategorizedVisibility)
	}
	if !s.DoneVisibility.Valid() {
		return fmt.Errorf("invalid %s %q: must be one of auto, always, never", KeyDoneVisibility, s.DoneVisibility)
	}
	return nil
}
