package automation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Leocrydis/SENomexLayers/internal/apperr"
)

// IncomingDisposition answers an incoming call that arrives on the worker
// thread while an outbound call is still pending.
type IncomingDisposition int

// PendingAction answers a windowing message that arrives while waiting on an
// outbound call.
type PendingAction int

const (
	// IncomingHandled accepts the nested call instead of surfacing a busy
	// condition. Reading properties can call back into the same apartment,
	// so rejecting here would deadlock the fallback path.
	IncomingHandled IncomingDisposition = iota

	// PendingDefault leaves message processing to the framework's default
	// behavior rather than cancelling the outstanding call.
	PendingDefault PendingAction = iota
)

const (
	defaultBackoff    = 100 * time.Millisecond
	defaultMaxRetries = 50
)

// CallPolicy is the concurrency policy installed for the duration of a guard
// scope. It fixes the three dispositions of the server's RPC layer: nested
// incoming calls are handled, retry-later rejections are retried after a
// constant backoff, and pending messages use default processing.
type CallPolicy struct {
	// Backoff is the fixed delay before retrying a retry-later rejection.
	Backoff time.Duration
	// MaxRetries bounds the retry loop; afterwards the rejection surfaces
	// as the call's error.
	MaxRetries int
}

// HandleIncoming reports the disposition for nested incoming calls.
func (CallPolicy) HandleIncoming() IncomingDisposition { return IncomingHandled }

// MessagePending reports the disposition for messages arriving mid-call.
func (CallPolicy) MessagePending() PendingAction { return PendingDefault }

// RetryAfter decides whether a rejected call should be retried. Only
// retry-later rejections are retryable, and only MaxRetries times.
func (p CallPolicy) RetryAfter(reason RejectReason, attempt int) (time.Duration, bool) {
	if reason != RejectRetryLater {
		return 0, false
	}
	limit := p.MaxRetries
	if limit <= 0 {
		limit = defaultMaxRetries
	}
	if attempt >= limit {
		return 0, false
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return backoff, true
}

// Guard scopes a call policy to a stretch of automation work. It may only be
// activated on the exclusive worker thread; everywhere else the retry and
// reentrancy semantics it promises do not hold.
type Guard struct {
	policy CallPolicy
	logger *slog.Logger
}

// NewGuard creates a guard with the given policy.
func NewGuard(policy CallPolicy, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{policy: policy, logger: logger}
}

// Activate installs the guard's policy on the current worker and returns a
// release function that must run on scope exit. Calling it off the worker
// thread fails with apperr.ErrThreadAffinity.
func (g *Guard) Activate(ctx context.Context) (func(), error) {
	w := fromContext(ctx)
	if w == nil {
		return nil, apperr.ErrThreadAffinity
	}
	p := g.policy
	w.policy.Store(&p)
	return func() { w.policy.Store(nil) }, nil
}

// Invoke runs one automation call under the guard's retry discipline:
// retry-later rejections are retried after the fixed backoff, anything else
// returns immediately.
func (g *Guard) Invoke(ctx context.Context, op string, call func() error) error {
	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		var rej *RejectedError
		if !errors.As(err, &rej) {
			return err
		}
		delay, ok := g.policy.RetryAfter(rej.Reason, attempt)
		if !ok {
			return err
		}
		g.logger.Debug("automation call rejected, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", delay))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
