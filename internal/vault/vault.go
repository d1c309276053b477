// Package vault gives access to the markdown documents of a vault and
// caches their front-matter.
//
// Document paths are relative to the vault root and use forward slashes.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrDocumentNotFound is returned when a document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentExists is returned by Create when the path is taken.
	ErrDocumentExists = errors.New("document already exists")
	// ErrOutsideVault is returned for paths that escape the vault root.
	ErrOutsideVault = errors.New("path is outside the vault")
)

const (
	dirMode  os.FileMode = 0755
	fileMode os.FileMode = 0644
)

// Vault is a directory of documents.
type Vault struct {
	root string
}

// Open returns the vault rooted at root, which must be an existing directory.
func Open(root string) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: open %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: %s is not a directory", abs)
	}
	return &Vault{root: abs}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string {
	return v.root
}

// Clean normalizes a document path and rejects paths leaving the vault.
func Clean(p string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "." || cleaned == "" {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideVault, p)
	}
	return cleaned, nil
}

// Abs returns the filesystem path of a document.
func (v *Vault) Abs(p string) (string, error) {
	cleaned, err := Clean(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(v.root, filepath.FromSlash(cleaned)), nil
}

// Rel converts a filesystem path inside the vault into a document path.
func (v *Vault) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(v.root, abs)
	if err != nil {
		return "", fmt.Errorf("vault: %w", err)
	}
	return Clean(filepath.ToSlash(rel))
}

// Stat returns file information for a document.
func (v *Vault) Stat(ctx context.Context, p string) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := v.Abs(p)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, p)
		}
		return nil, fmt.Errorf("vault: stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a folder", ErrDocumentNotFound, p)
	}
	return info, nil
}

// Read returns a document's content.
func (v *Vault) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := v.Abs(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, p)
		}
		return nil, fmt.Errorf("vault: read %s: %w", p, err)
	}
	return data, nil
}

// Create writes a new document, creating parent folders. It fails with
// ErrDocumentExists instead of overwriting.
func (v *Vault) Create(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := v.Abs(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), dirMode); err != nil {
		return fmt.Errorf("vault: create folder for %s: %w", p, err)
	}
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrDocumentExists, p)
		}
		return fmt.Errorf("vault: create %s: %w", p, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("vault: write %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("vault: close %s: %w", p, err)
	}
	return nil
}

// Write replaces the content of an existing document.
func (v *Vault) Write(ctx context.Context, p string, content []byte) error {
	info, err := v.Stat(ctx, p)
	if err != nil {
		return err
	}
	abs, err := v.Abs(p)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(abs), "."+filepath.Base(abs)+".*.tmp")
	if err != nil {
		return fmt.Errorf("vault: write %s: %w", p, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("vault: write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vault: write %s: %w", p, err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return fmt.Errorf("vault: write %s: %w", p, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("vault: write %s: %w", p, err)
	}
	return nil
}
