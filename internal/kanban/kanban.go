// Package kanban decides which documents are boards.
//
// A document is a board when its front-matter carries the marker key. The
// marker's value is never inspected: an empty mapping, null or any other
// value all qualify.
package kanban

import (
	"fmt"
	"time"
)

const (
	// MarkerKey is the front-matter key that identifies a board document.
	MarkerKey = "kanban_plugin"

	// ViewType is the pane view type that renders boards.
	ViewType = "kanban"

	// MarkdownViewType is the default pane view type for markdown documents.
	MarkdownViewType = "markdown"

	// DocumentExt is the extension of newly created board documents.
	DocumentExt = ".md"
)

// IsQualifying reports whether frontMatter marks its document as a board.
// A nil map means the document has no front-matter.
func IsQualifying(frontMatter map[string]any) bool {
	if frontMatter == nil {
		return false
	}
	_, ok := frontMatter[MarkerKey]
	return ok
}

// NewDocumentContent returns the body of a freshly created board document.
func NewDocumentContent() string {
	return "---\n" + MarkerKey + ": {}\n---\n"
}

// NewDocumentName returns the file name used for a board created at now.
func NewDocumentName(now time.Time) string {
	return fmt.Sprintf("Kanban-%d%s", now.UnixMilli(), DocumentExt)
}
