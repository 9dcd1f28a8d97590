package automation

import (
	"context"
	"fmt"
	"sync"

	"github.com/Leocrydis/SENomexLayers/internal/models"
)

// Test doubles for the automation capability, shared by the packages that
// exercise the fallback path. They record the calls the real COM connector
// would issue so tests can assert on lifecycle discipline (open/close
// pairing, visibility configuration, retry counts).

// FakeDocument is an in-memory Document.
type FakeDocument struct {
	Props    []models.Property
	PropsErr error

	mu         sync.Mutex
	closeCalls []bool // save flag per Close call
}

func (d *FakeDocument) CustomProperties(_ context.Context) ([]models.Property, error) {
	if d.PropsErr != nil {
		return nil, d.PropsErr
	}
	return d.Props, nil
}

func (d *FakeDocument) Close(save bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeCalls = append(d.closeCalls, save)
	return nil
}

// CloseCalls returns the save flag of every Close call so far.
func (d *FakeDocument) CloseCalls() []bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]bool(nil), d.closeCalls...)
}

// FakeHandle is an in-memory Handle serving documents from a path map.
type FakeHandle struct {
	Docs    map[string]*FakeDocument
	OpenErr error
	// RejectOpens makes the first N Open calls fail with a retry-later
	// rejection before succeeding, to exercise the guard's backoff loop.
	RejectOpens int
	// Disconnected makes every Open fail as if the server process went
	// away after the handle was acquired.
	Disconnected bool

	mu        sync.Mutex
	visible   *bool
	alertsOff *bool
	opens     int
	released  bool
}

func (h *FakeHandle) SetVisible(visible bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.visible = &visible
	return nil
}

func (h *FakeHandle) SuppressAlerts(suppress bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.alertsOff = &suppress
	return nil
}

func (h *FakeHandle) Open(_ context.Context, path string) (Document, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opens++
	if h.Disconnected {
		return nil, &RejectedError{Reason: RejectDisconnected, Err: fmt.Errorf("server gone")}
	}
	if h.RejectOpens > 0 {
		h.RejectOpens--
		return nil, &RejectedError{Reason: RejectRetryLater, Err: fmt.Errorf("server busy")}
	}
	if h.OpenErr != nil {
		return nil, h.OpenErr
	}
	doc, ok := h.Docs[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such document", path)
	}
	return doc, nil
}

func (h *FakeHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released = true
}

// Visible reports the last SetVisible value, or nil if never set.
func (h *FakeHandle) Visible() *bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

// AlertsSuppressed reports the last SuppressAlerts value, or nil if never set.
func (h *FakeHandle) AlertsSuppressed() *bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alertsOff
}

// Opens returns how many Open calls were made, rejected ones included.
func (h *FakeHandle) Opens() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opens
}

// Released reports whether the handle reference was dropped.
func (h *FakeHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// FakeConnector is an in-memory Connector.
type FakeConnector struct {
	// Running is returned by DiscoverRunning; when nil, discovery reports
	// ErrNotRunning and Launched is used instead.
	Running *FakeHandle
	// Launched is returned by LaunchNew.
	Launched  *FakeHandle
	LaunchErr error

	mu        sync.Mutex
	discovers int
	launches  int
}

func (c *FakeConnector) ThreadHook() ThreadHook { return ThreadHook{} }

func (c *FakeConnector) DiscoverRunning(_ context.Context) (Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discovers++
	if c.Running == nil {
		return nil, ErrNotRunning
	}
	return c.Running, nil
}

func (c *FakeConnector) LaunchNew(_ context.Context) (Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.launches++
	if c.LaunchErr != nil {
		return nil, c.LaunchErr
	}
	return c.Launched, nil
}

// Launches returns how many LaunchNew calls were made.
func (c *FakeConnector) Launches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.launches
}

// Discovers returns how many DiscoverRunning calls were made.
func (c *FakeConnector) Discovers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discovers
}
