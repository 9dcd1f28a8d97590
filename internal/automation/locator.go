package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Leocrydis/SENomexLayers/internal/apperr"
)

// Locator finds or starts the one live automation server and hands out a
// shared handle to it. The handle is cached: at most one server instance is
// addressed per process.
type Locator struct {
	conn     Connector
	headless bool
	logger   *slog.Logger

	mu     sync.Mutex
	handle Handle
}

// NewLocator creates a locator over the given connector. When headless is
// true, a discovered instance is also forced non-visible; otherwise only
// freshly launched instances are, and a pre-existing session keeps whatever
// visibility its user chose.
func NewLocator(conn Connector, headless bool, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{conn: conn, headless: headless, logger: logger}
}

// Acquire returns the shared automation handle, discovering a running server
// first and launching a new one only if none exists. Launched instances are
// configured non-visible with alerts suppressed so they never block on a
// modal dialog. Failure of both paths reports apperr.ErrUnavailable.
func (l *Locator) Acquire(ctx context.Context) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle != nil {
		return l.handle, nil
	}

	h, err := l.conn.DiscoverRunning(ctx)
	switch {
	case err == nil:
		l.logger.Info("attached to running automation server")
		if l.headless {
			if err := h.SetVisible(false); err != nil {
				h.Release()
				return nil, fmt.Errorf("automation: hide discovered instance: %w", err)
			}
		}
		if err := h.SuppressAlerts(true); err != nil {
			h.Release()
			return nil, fmt.Errorf("automation: suppress alerts: %w", err)
		}

	case errors.Is(err, ErrNotRunning):
		h, err = l.conn.LaunchNew(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: launch failed: %v", apperr.ErrUnavailable, err)
		}
		l.logger.Info("launched new automation server")
		if err := configureLaunched(h); err != nil {
			h.Release()
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: discovery failed: %v", apperr.ErrUnavailable, err)
	}

	l.handle = h
	return h, nil
}

// Release drops the cached handle reference. The server itself is left
// running: it may be a pre-existing session this process must not terminate.
func (l *Locator) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle != nil {
		l.handle.Release()
		l.handle = nil
	}
}

// Invalidate drops the cached handle after the server went away (the user
// closed the application, the process crashed), so the next Acquire
// rediscovers or relaunches instead of reusing a dead reference.
func (l *Locator) Invalidate() {
	l.Release()
}

func configureLaunched(h Handle) error {
	if err := h.SetVisible(false); err != nil {
		return fmt.Errorf("automation: hide launched instance: %w", err)
	}
	if err := h.SuppressAlerts(true); err != nil {
		return fmt.Errorf("automation: suppress alerts: %w", err)
	}
	return nil
}
