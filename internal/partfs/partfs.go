// Package partfs resolves part identifiers to CAD files under a search root.
package partfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Leocrydis/SENomexLayers/internal/apperr"
)

// PartInfo is a lightweight description of one part file under the root.
type PartInfo struct {
	Identifier string    `json:"identifier"`
	Path       string    `json:"path"` // relative to the search root
	Size       int64     `json:"size"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FS locates part files as <root>/<identifier><ext> over a fixed extension
// list, in order.
type FS struct {
	root string // absolute path to the search root
	exts []string
}

// New creates an FS rooted at the given directory, which must already exist.
// Extensions may be given with or without a leading dot; an empty list
// defaults to ".psm".
func New(root string, exts []string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("partfs: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("partfs: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("partfs: root is not a directory: %s", abs)
	}
	if len(exts) == 0 {
		exts = []string{".psm"}
	}
	norm := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		norm = append(norm, strings.ToLower(e))
	}
	return &FS{root: abs, exts: norm}, nil
}

// Root returns the absolute search root.
func (f *FS) Root() string { return f.root }

// Extensions returns the extension list in lookup order.
func (f *FS) Extensions() []string { return f.exts }

// Resolve maps an identifier to the absolute path of an existing part file,
// trying each configured extension in order. Returns apperr.ErrNotFound when
// no candidate exists.
func (f *FS) Resolve(id string) (string, error) {
	if err := validIdentifier(id); err != nil {
		return "", err
	}
	for _, ext := range f.exts {
		candidate := filepath.Join(f.root, id+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w", id, apperr.ErrNotFound)
}

// List walks the root and returns every file matching a configured extension.
func (f *FS) List() ([]PartInfo, error) {
	var out []PartInfo
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !f.matches(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		name := d.Name()
		out = append(out, PartInfo{
			Identifier: strings.TrimSuffix(name, filepath.Ext(name)),
			Path:       rel,
			Size:       info.Size(),
			UpdatedAt:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("partfs: list: %w", err)
	}
	return out, nil
}

func (f *FS) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range f.exts {
		if ext == e {
			return true
		}
	}
	return false
}

// validIdentifier rejects identifiers that would escape the search root.
// Identifiers are bare file stems, never paths.
func validIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("partfs: empty identifier")
	}
	if strings.ContainsAny(id, `/\`) || id != filepath.Clean(id) || strings.HasPrefix(id, "..") {
		return fmt.Errorf("partfs: invalid identifier: %s", id)
	}
	return nil
}
