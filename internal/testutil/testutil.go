// Package testutil provides shared test helpers for setting up search roots,
// caches, and automation workers.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/Leocrydis/SENomexLayers/internal/automation"
	"github.com/Leocrydis/SENomexLayers/internal/cache"
	"github.com/Leocrydis/SENomexLayers/internal/partfs"
)

// TestCache creates a temporary SQLite cache that is automatically cleaned up.
func TestCache(t *testing.T) *cache.Cache {
	t.Helper()
	dbFile, err := os.CreateTemp("", "senomex-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	c, err := cache.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// TestRoot creates a temporary search root with a partfs.FS over ".psm".
func TestRoot(t *testing.T) (string, *partfs.FS) {
	t.Helper()
	rootDir := t.TempDir()
	parts, err := partfs.New(rootDir, []string{".psm"})
	if err != nil {
		t.Fatal(err)
	}
	return rootDir, parts
}

// TestWorker creates an exclusive worker that is closed with the test.
func TestWorker(t *testing.T) *automation.Worker {
	t.Helper()
	w, err := automation.NewWorker(automation.ThreadHook{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Close)
	return w
}

// OnWorker runs fn on the worker and fails the test on error.
func OnWorker(t *testing.T, w *automation.Worker, fn func(ctx context.Context) error) {
	t.Helper()
	if err := w.Do(context.Background(), fn); err != nil {
		t.Fatalf("worker task: %v", err)
	}
}
