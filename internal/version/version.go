// Package version provides version information for vault-kanban.
package version

// Version is the version of vault-kanban. This can be overridden at build time using ldflags.
var Version = "development"

// Commit is the git commit hash. This can be overridden at build time using ldflags.
var Commit = "unknown"

// Tag is an opaque version identifier as stamped into persisted settings.
// Tags are compared for equality only; no ordering is defined.
type Tag string

// Current returns the tag of the running build.
func Current() Tag {
	return Tag(Version)
}

// IsZero reports whether t is the empty tag.
func (t Tag) IsZero() bool {
	return t == ""
}

func (t Tag) String() string {
	return string(t)
}

// String returns the full version string including the commit hash if available.
func String() string {
	if Commit != "unknown" {
		return Version + "+" + Commit
	}
	return Version
}
