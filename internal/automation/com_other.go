//go:build !windows

package automation

import (
	"context"
	"fmt"

	"github.com/Leocrydis/SENomexLayers/internal/apperr"
)

// COMConnector is a stub on non-Windows platforms: the authoring application
// only exposes COM automation on Windows, so the fallback tier reports the
// server as unavailable and direct reads remain the only path.
type COMConnector struct {
	ProgID string
}

func (c *COMConnector) ThreadHook() ThreadHook { return ThreadHook{} }

func (c *COMConnector) DiscoverRunning(_ context.Context) (Handle, error) {
	return nil, fmt.Errorf("%w: COM automation (%s) requires windows", apperr.ErrUnavailable, c.ProgID)
}

func (c *COMConnector) LaunchNew(_ context.Context) (Handle, error) {
	return nil, fmt.Errorf("%w: COM automation (%s) requires windows", apperr.ErrUnavailable, c.ProgID)
}
