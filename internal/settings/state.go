package settings

import (
	"bytes"

	"github.com/goccy/go-json"
)

// State classifies a persisted settings blob.
type State int

const (
	// Uninitialized means nothing usable was persisted: no blob, an empty
	// object, a non-object value or undecodable data.
	Uninitialized State = iota
	// LegacyPersisted means an object was persisted by a build that did not
	// record installedAtVersion.
	LegacyPersisted
	// VersionedPersisted means installedAtVersion is already recorded.
	VersionedPersisted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case LegacyPersisted:
		return "legacy"
	case VersionedPersisted:
		return "versioned"
	default:
		return "unknown"
	}
}

// NeedsStamp reports whether loading a blob in state s must record the
// current version and persist it.
func (s State) NeedsStamp() bool {
	return s != VersionedPersisted
}

// Classify decodes a persisted blob into its top-level fields and decides
// its state. It never fails: anything that is not a JSON object is treated
// as absent and yields an empty field map.
func Classify(raw []byte, present bool) (State, map[string]json.RawMessage) {
	fields := make(map[string]json.RawMessage)
	trimmed := bytes.TrimSpace(raw)
	if !present || len(trimmed) == 0 || trimmed[0] != '{' {
		return Uninitialized, fields
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &decoded); err != nil || len(decoded) == 0 {
		return Uninitialized, fields
	}
	for k, v := range decoded {
		fields[k] = v
	}

	var installed string
	if err := json.Unmarshal(fields[keyInstalledAtVersion], &installed); err != nil || installed == "" {
		return LegacyPersisted, fields
	}
	return VersionedPersisted, fields
}
