package boardsettings

import (
	"fmt"
	"strconv"
	"strings"
)

// Apply sets one field from its textual form as typed on a command line.
// Columns use the comma separated editor form.
func (s *Settings) Apply(key, value string) error {
	switch key {
	case KeyColumns:
		s.Columns = ParseColumns(value)
	case KeyScope:
		scope := Scope(strings.TrimSpace(value))
		if !scope.Valid() {
			return fmt.Errorf("invalid %s %q: must be one of %s, %s", key, value, ScopeFolder, ScopeEverywhere)
		}
		s.Scope = scope
	case KeyUncategorizedVisibility, KeyDoneVisibility:
		v := Visibility(strings.TrimSpace(value))
		if !v.Valid() {
			return fmt.Errorf("invalid %s %q: must be one of auto, always, never", key, value)
		}
		if key == KeyDoneVisibility {
			s.DoneVisibility = v
		} else {
			s.UncategorizedVisibility = v
		}
	case KeyShowFilepath, KeyConsolidateTags, KeyShowAddNoteInDefaultColumns:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid %s %q: must be a boolean", key, value)
		}
		switch key {
		case KeyShowFilepath:
			s.ShowFilepath = b
		case KeyConsolidateTags:
			s.ConsolidateTags = b
		default:
			s.ShowAddNoteInDefaultColumns = b
		}
	default:
		return fmt.Errorf("unknown board setting %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// ApplyAssignments applies "key=value" pairs in order. Nothing is changed
// when any pair is invalid.
func (s *Settings) ApplyAssignments(assignments []string) error {
	next := *s
	next.Columns = append([]string(nil), s.Columns...)
	for _, assignment := range assignments {
		key, value, ok := strings.Cut(assignment, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q: expected key=value", assignment)
		}
		if err := next.Apply(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}
	*s = next
	return nil
}
