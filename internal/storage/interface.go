// Package storage persists a plugin's settings blob.
package storage

import (
	"context"
	"os"
)

// File permission constants
const (
	// FileModeDir is the permission for directories (rwxr-xr-x)
	FileModeDir os.FileMode = 0755
	// FileModeFile is the permission for data files (rw-r--r--)
	FileModeFile os.FileMode = 0644
)

// Store loads and saves one structured blob.
//
// Load reports present=false when nothing has been saved yet; that is not
// an error. Save replaces the whole blob.
type Store interface {
	Load(ctx context.Context) (data []byte, present bool, err error)
	Save(ctx context.Context, data []byte) error
	Close() error
}
