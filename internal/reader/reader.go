// Package reader retrieves the custom properties of a part file, preferring
// a direct read of the file's embedded property store and falling back to the
// live authoring application when the direct read fails (typically because an
// editing session holds the file locked).
package reader

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Leocrydis/SENomexLayers/internal/apperr"
	"github.com/Leocrydis/SENomexLayers/internal/automation"
	"github.com/Leocrydis/SENomexLayers/internal/cache"
	"github.com/Leocrydis/SENomexLayers/internal/checksum"
	"github.com/Leocrydis/SENomexLayers/internal/models"
	"github.com/Leocrydis/SENomexLayers/internal/propstore"
)

// Reader reads the "Custom" property section of one part file at a time.
type Reader struct {
	store   propstore.Opener
	locator *automation.Locator
	guard   *automation.Guard
	cache   *cache.Cache // optional
	logger  *slog.Logger
}

// New creates a Reader. cache may be nil to disable caching.
func New(store propstore.Opener, locator *automation.Locator, guard *automation.Guard, c *cache.Cache, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{store: store, locator: locator, guard: guard, cache: c, logger: logger}
}

// Read returns the custom properties of the file at path, in enumeration
// order. A file without a "Custom" section yields an empty slice. When both
// the direct read and the automation fallback fail, the error is an
// *apperr.PropertyReadError carrying both causes.
func (r *Reader) Read(ctx context.Context, path string) ([]models.Property, error) {
	cs := ""
	if r.cache != nil {
		if sum, err := checksum.File(path); err == nil {
			cs = sum
			if props, ok, cacheErr := r.cache.Get(path, cs); cacheErr == nil && ok {
				r.logger.Debug("cache hit", slog.String("path", path))
				return props, nil
			}
		}
	}

	props, directErr := r.readDirect(path)
	if directErr == nil {
		if r.cache != nil && cs != "" {
			if err := r.cache.Put(path, cs, props); err != nil {
				r.logger.Warn("cache store failed", slog.String("path", path), slog.String("error", err.Error()))
			}
		}
		return props, nil
	}

	r.logger.Debug("direct read failed, falling back to automation",
		slog.String("path", path),
		slog.String("error", directErr.Error()))

	props, fallbackErr := r.readLive(ctx, path)
	if fallbackErr != nil {
		// A thread-affinity violation is a programming error, not a
		// per-file condition; let it surface undisguised.
		if errors.Is(fallbackErr, apperr.ErrThreadAffinity) {
			return nil, fallbackErr
		}
		return nil, &apperr.PropertyReadError{Path: path, Direct: directErr, Fallback: fallbackErr}
	}
	// The file is held by an editing session; its on-disk state may lag the
	// live document, so fallback results are never cached.
	return props, nil
}

// readDirect reads the embedded property store without touching the
// authoring application.
func (r *Reader) readDirect(path string) ([]models.Property, error) {
	st, err := r.store.Open(path)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	sections, err := st.Sections()
	if err != nil {
		return nil, err
	}
	for _, sec := range sections {
		if sec.Name == models.CustomSection {
			return sec.Properties, nil
		}
	}
	return []models.Property{}, nil
}

// readLive opens the file inside the automation server and reads the live
// property collection. The opened document is closed without saving exactly
// once, on every exit path, so documents never leak inside the shared server.
func (r *Reader) readLive(ctx context.Context, path string) ([]models.Property, error) {
	release, err := r.guard.Activate(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	handle, err := r.locator.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var doc automation.Document
	err = r.guard.Invoke(ctx, "open document", func() error {
		d, openErr := handle.Open(ctx, path)
		if openErr != nil {
			return openErr
		}
		doc = d
		return nil
	})
	if err != nil {
		r.dropIfDisconnected(err)
		return nil, err
	}
	defer func() {
		if closeErr := doc.Close(false); closeErr != nil {
			r.logger.Warn("close document failed", slog.String("path", path), slog.String("error", closeErr.Error()))
		}
	}()

	var props []models.Property
	err = r.guard.Invoke(ctx, "read custom properties", func() error {
		p, readErr := doc.CustomProperties(ctx)
		if readErr != nil {
			return readErr
		}
		props = p
		return nil
	})
	if err != nil {
		r.dropIfDisconnected(err)
		return nil, err
	}
	if props == nil {
		props = []models.Property{}
	}
	return props, nil
}

// dropIfDisconnected invalidates the cached automation handle when the
// server went away mid-call, so the next fallback read acquires a fresh
// instance instead of failing on the dead reference forever.
func (r *Reader) dropIfDisconnected(err error) {
	var rej *automation.RejectedError
	if errors.As(err, &rej) && rej.Reason == automation.RejectDisconnected {
		r.logger.Warn("automation server disconnected, dropping handle")
		r.locator.Invalidate()
	}
}
