package automation

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
)

// ThreadHook is run on the worker's OS thread before it accepts work and
// after it drains, letting a connector set up thread-affine state (a COM
// apartment) exactly where its calls will execute.
type ThreadHook struct {
	Setup    func() error
	Teardown func()
}

// Worker owns a single OS thread on which every automation-server call runs.
// The server cannot safely service overlapping document operations, so batch
// work is marshalled here and executed strictly one task at a time.
type Worker struct {
	tasks  chan func()
	quit   chan struct{}
	done   chan struct{}
	closed atomic.Bool
	policy atomic.Pointer[CallPolicy]
}

type workerKey struct{}

// NewWorker starts the worker thread, runs hook.Setup on it, and returns once
// the thread is ready. A Setup failure tears the thread down and is returned
// to the caller.
func NewWorker(hook ThreadHook) (*Worker, error) {
	w := &Worker{
		tasks: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	ready := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(w.done)

		if hook.Setup != nil {
			if err := hook.Setup(); err != nil {
				ready <- err
				return
			}
		}
		if hook.Teardown != nil {
			defer hook.Teardown()
		}
		ready <- nil

		for {
			select {
			case fn := <-w.tasks:
				fn()
			case <-w.quit:
				return
			}
		}
	}()

	if err := <-ready; err != nil {
		return nil, fmt.Errorf("automation: worker thread setup: %w", err)
	}
	return w, nil
}

// Do runs fn on the worker thread and waits for it to finish. The context
// passed to fn is marked so Guard.Activate can verify it is executing with
// the required thread affinity. Once fn has started it runs to completion;
// cancellation is only honored while the task is still queued.
func (w *Worker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	errCh := make(chan error, 1)
	task := func() {
		errCh <- fn(context.WithValue(ctx, workerKey{}, w))
	}

	// The task channel is unbuffered and never closed: a successful send
	// means the worker has taken the task and will run it, and a Do racing
	// Close can only land on the quit case, never on a closed channel.
	select {
	case w.tasks <- task:
	case <-w.quit:
		return fmt.Errorf("automation: worker is closed")
	case <-w.done:
		return fmt.Errorf("automation: worker is closed")
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-errCh
}

// Close stops the worker after in-flight work completes and waits for the
// thread to exit. Do calls arriving afterwards report the worker as closed.
func (w *Worker) Close() {
	if w.closed.CompareAndSwap(false, true) {
		close(w.quit)
	}
	<-w.done
}

// fromContext reports the worker a context is executing on, if any.
func fromContext(ctx context.Context) *Worker {
	w, _ := ctx.Value(workerKey{}).(*Worker)
	return w
}

// ActivePolicy returns the call policy installed on the current worker, or
// nil when no guard scope is active. Connector implementations consult it to
// honor the incoming-call and message-pending dispositions.
func ActivePolicy(ctx context.Context) *CallPolicy {
	w := fromContext(ctx)
	if w == nil {
		return nil
	}
	return w.policy.Load()
}
