// Package automation drives the external CAD authoring application through
// its object-automation interface: discovering or launching the single server
// instance, marshalling calls onto an exclusive worker thread, and retrying
// transiently rejected calls.
package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leocrydis/SENomexLayers/internal/models"
)

// ErrNotRunning is returned by Connector.DiscoverRunning when no live server
// instance exists. The locator treats it as "launch a new one", not a failure.
var ErrNotRunning = errors.New("automation: no running instance")

// Connector finds or starts the automation server process.
type Connector interface {
	// DiscoverRunning returns a handle to a pre-existing server instance,
	// or ErrNotRunning when there is none.
	DiscoverRunning(ctx context.Context) (Handle, error)
	// LaunchNew starts a brand-new server instance.
	LaunchNew(ctx context.Context) (Handle, error)
	// ThreadHook returns the per-thread setup/teardown the connector needs
	// on the exclusive worker (apartment initialization on Windows).
	ThreadHook() ThreadHook
}

// Handle is a live reference to the one running automation server. Ownership
// is shared: a discovered instance belongs to whoever started it and must be
// left running; Release only drops this process's reference.
type Handle interface {
	SetVisible(visible bool) error
	// SuppressAlerts stops the server from blocking on modal dialogs while
	// it is driven unattended.
	SuppressAlerts(suppress bool) error
	Open(ctx context.Context, path string) (Document, error)
	Release()
}

// Document is one file opened inside the server. Its lifetime is scoped to a
// single property read; Close(false) must run on every exit path.
type Document interface {
	// CustomProperties enumerates the user-defined property section of the
	// live document, in server enumeration order.
	CustomProperties(ctx context.Context) ([]models.Property, error)
	Close(save bool) error
}

// RejectReason classifies why the server's RPC layer rejected a call.
type RejectReason int

const (
	// RejectRetryLater means the server asked the caller to retry shortly.
	RejectRetryLater RejectReason = iota
	// RejectHard means the call was refused outright; retrying is pointless.
	RejectHard
	// RejectDisconnected means the server process went away. The cached
	// handle is dead; a fresh acquire is needed before the next call.
	RejectDisconnected
)

func (r RejectReason) String() string {
	switch r {
	case RejectRetryLater:
		return "retry later"
	case RejectDisconnected:
		return "disconnected"
	default:
		return "rejected"
	}
}

// RejectedError wraps a call the server's RPC layer turned away. The guard's
// retry loop keys off Reason: retry-later rejections are retried after the
// policy backoff, everything else surfaces as a hard failure.
type RejectedError struct {
	Reason RejectReason
	Err    error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("automation call %s: %v", e.Reason, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }
