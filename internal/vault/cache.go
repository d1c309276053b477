package vault

import (
	"context"
	"sync"
	"time"

	"github.com/cristianoliveira/vault-kanban/internal/frontmatter"
	"github.com/cristianoliveira/vault-kanban/internal/logging"
)

type cacheEntry struct {
	modTime time.Time
	size    int64
	fields  map[string]any
	present bool
}

// Cache serves parsed front-matter, re-reading a document only when its
// modification time or size changed.
type Cache struct {
	vault  *Vault
	logger logging.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache returns an empty cache over v.
func NewCache(v *Vault, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Cache{
		vault:   v,
		logger:  logger.With("component", "metadata"),
		entries: make(map[string]cacheEntry),
	}
}

// FrontMatter returns the front-matter fields of document p. present is
// false when the document has no header block or the block is malformed.
// The returned map is shared with the cache and must not be modified.
func (c *Cache) FrontMatter(ctx context.Context, p string) (map[string]any, bool, error) {
	key, err := Clean(p)
	if err != nil {
		return nil, false, err
	}
	info, err := c.vault.Stat(ctx, key)
	if err != nil {
		c.Invalidate(key)
		return nil, false, err
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.fields, entry.present, nil
	}

	content, err := c.vault.Read(ctx, key)
	if err != nil {
		c.Invalidate(key)
		return nil, false, err
	}
	fields, present, err := frontmatter.Parse(content)
	if err != nil {
		c.logger.Warn("ignoring malformed front-matter", "document", key, "error", err.Error())
		fields, present = nil, false
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{
		modTime: info.ModTime(),
		size:    info.Size(),
		fields:  fields,
		present: present,
	}
	c.mu.Unlock()
	return fields, present, nil
}

// Invalidate drops the cached entry of p.
func (c *Cache) Invalidate(p string) {
	key, err := Clean(p)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
