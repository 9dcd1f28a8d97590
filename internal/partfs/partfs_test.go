package partfs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Leocrydis/SENomexLayers/internal/apperr"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNewRejectsBadRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Fatal("expected error for missing root")
	}

	file := filepath.Join(t.TempDir(), "afile")
	writeFile(t, file)
	if _, err := New(file, nil); err == nil {
		t.Fatal("expected error for non-directory root")
	}
}

func TestNewNormalizesExtensions(t *testing.T) {
	fs, err := New(t.TempDir(), []string{"psm", ".PAR", " ", ""})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := fs.Extensions()
	want := []string{".psm", ".par"}
	if len(got) != len(want) {
		t.Fatalf("Extensions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Extensions() = %v, want %v", got, want)
		}
	}
}

func TestResolveTriesExtensionsInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "p100.psm"))
	writeFile(t, filepath.Join(dir, "p100.par"))
	writeFile(t, filepath.Join(dir, "p200.par"))

	fs, err := New(dir, []string{".psm", ".par"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path, err := fs.Resolve("p100")
	if err != nil {
		t.Fatalf("Resolve(p100): %v", err)
	}
	if filepath.Base(path) != "p100.psm" {
		t.Fatalf("Resolve(p100) = %s, want first extension to win", path)
	}

	path, err = fs.Resolve("p200")
	if err != nil {
		t.Fatalf("Resolve(p200): %v", err)
	}
	if filepath.Base(path) != "p200.par" {
		t.Fatalf("Resolve(p200) = %s, want p200.par", path)
	}
}

func TestResolveNotFound(t *testing.T) {
	fs, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = fs.Resolve("nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestResolveRejectsInvalidIdentifiers(t *testing.T) {
	fs, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, id := range []string{"", "a/b", `a\b`, "../etc", "./x"} {
		if _, err := fs.Resolve(id); err == nil {
			t.Errorf("Resolve(%q): expected rejection", id)
		} else if errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Resolve(%q): invalid identifier must not read as not-found", id)
		}
	}
}

func TestListMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a1.psm"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "sub", "a2.psm"))

	fs, err := New(dir, []string{".psm"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	parts, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("List returned %d parts, want 2: %+v", len(parts), parts)
	}
	ids := map[string]bool{}
	for _, p := range parts {
		ids[p.Identifier] = true
		if p.Size == 0 {
			t.Errorf("part %s has zero size", p.Identifier)
		}
		if filepath.IsAbs(p.Path) {
			t.Errorf("part path %s should be relative to root", p.Path)
		}
	}
	if !ids["a1"] || !ids["a2"] {
		t.Fatalf("List identifiers = %v, want a1 and a2", ids)
	}
}
