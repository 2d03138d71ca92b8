package vision

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout bounds how long Wait blocks for initialization.
const DefaultTimeout = 30 * time.Second

// ErrInitTimeout is returned by Wait when the runtime is not ready in time.
var ErrInitTimeout = errors.New("vision runtime initialization timed out")

// InitError wraps the failure of the initialization function.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("vision runtime initialization failed: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// State is the lifecycle state of a Gate.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// InitFunc builds the runtime. It runs at most once per attempt.
type InitFunc func(ctx context.Context) (*Runtime, error)

// Gate makes every detection call wait until the processing runtime has been
// built. Initialization runs once; all concurrent waiters observe the same
// runtime or the same error. A failure stays in place until Retry.
//
// Gate is safe for concurrent use.
type Gate struct {
	init    InitFunc
	timeout time.Duration

	mu      sync.Mutex
	state   State
	done    chan struct{}
	runtime *Runtime
	err     error
}

// Option configures a Gate.
type Option func(*Gate)

// WithTimeout sets how long Wait blocks before returning ErrInitTimeout.
// Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGate returns an uninitialized gate around init.
func NewGate(init InitFunc, opts ...Option) *Gate {
	g := &Gate{
		init:    init,
		timeout: DefaultTimeout,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current lifecycle state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Start begins initialization in the background if it has not started yet.
// ctx is passed to the init function; cancelling it aborts initialization
// only if the init function honours it.
func (g *Gate) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.startLocked(ctx)
}

func (g *Gate) startLocked(ctx context.Context) {
	if g.state != StateUninitialized {
		return
	}
	g.state = StateInitializing
	done := g.done

	go func() {
		rt, err := g.run(ctx)

		g.mu.Lock()
		if err != nil {
			g.state = StateFailed
			g.err = &InitError{Err: err}
		} else {
			g.state = StateReady
			g.runtime = rt
		}
		g.mu.Unlock()
		close(done)
	}()
}

func (g *Gate) run(ctx context.Context) (rt *Runtime, err error) {
	defer func() {
		if r := recover(); r != nil {
			rt, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	rt, err = g.init(ctx)
	if err == nil && rt == nil {
		err = errors.New("init returned no runtime")
	}
	return rt, err
}

// Wait returns the runtime once ready, starting initialization if needed.
//
// It returns the *InitError of a failed initialization, ErrInitTimeout when
// the gate's timeout elapses first, or ctx.Err() when ctx ends first. A
// timed-out wait does not cancel initialization; a later Wait may succeed.
func (g *Gate) Wait(ctx context.Context) (*Runtime, error) {
	g.mu.Lock()
	g.startLocked(context.WithoutCancel(ctx))
	done := g.done
	g.mu.Unlock()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		return nil, ErrInitTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return g.runtime, nil
}

// Retry clears a failed initialization and starts a new attempt. It does
// nothing in any other state.
func (g *Gate) Retry(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateFailed {
		return
	}
	g.state = StateUninitialized
	g.err = nil
	g.done = make(chan struct{})
	g.startLocked(ctx)
}
