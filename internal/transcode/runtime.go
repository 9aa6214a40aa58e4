package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/maauso/mediaconvert-api/internal/convert"
)

// State is the lifecycle state of the transcoding runtime.
type State string

const (
	// StateUnloaded means the toolchain has not been verified, or was disposed.
	StateUnloaded State = "unloaded"
	// StateLoading means a Load call is verifying the toolchain.
	StateLoading State = "loading"
	// StateReady means operations may run.
	StateReady State = "ready"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("transcode: invalid state transition")

// ErrLoadFailed wraps the cause of a failed Load.
var ErrLoadFailed = errors.New("transcode: runtime load failed")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[State][]State{
	StateUnloaded: {StateLoading},
	StateLoading:  {StateReady, StateUnloaded},
	StateReady:    {StateUnloaded},
}

func canTransition(from, to State) bool {
	return slices.Contains(validTransitions[from], to)
}

// DefaultMaxConcurrent is the default number of concurrent ffmpeg processes.
const DefaultMaxConcurrent = 2

// loadAttempt is shared by every caller waiting on the same Load.
type loadAttempt struct {
	done chan struct{}
	err  error
}

// Runtime is the handle to the ffmpeg toolchain. It is created Unloaded,
// becomes Ready after a successful Load, and is passed explicitly to the
// components that need it.
type Runtime struct {
	runner   Runner
	logger   *slog.Logger
	slots    int64
	sem      *semaphore.Weighted
	observer func(State)

	mu       sync.Mutex
	state    State
	changed  chan struct{} // closed and replaced on every transition
	attempt  *loadAttempt
	version  string
	life     context.Context
	cancel   context.CancelFunc
	disposed bool // Dispose arrived while loading
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithMaxConcurrent bounds concurrent transcodes. Values below 1 are ignored.
func WithMaxConcurrent(n int) RuntimeOption {
	return func(r *Runtime) {
		if n > 0 {
			r.slots = int64(n)
		}
	}
}

// WithStateObserver registers fn to be called after every transition.
// fn runs with the runtime lock held and must not call back into it.
func WithStateObserver(fn func(State)) RuntimeOption {
	return func(r *Runtime) {
		r.observer = fn
	}
}

// NewRuntime creates an Unloaded runtime around runner.
func NewRuntime(runner Runner, logger *slog.Logger, opts ...RuntimeOption) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runtime{
		runner:  runner,
		logger:  logger,
		slots:   DefaultMaxConcurrent,
		state:   StateUnloaded,
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sem = semaphore.NewWeighted(r.slots)
	if r.observer != nil {
		r.observer(r.state)
	}
	return r
}

// State returns the current state.
func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsReady reports whether operations may run. It never blocks on a load.
func (r *Runtime) IsReady() bool {
	return r.State() == StateReady
}

// Version returns the ffmpeg banner recorded by the last successful Load.
func (r *Runtime) Version() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// Slots returns the maximum number of concurrent operations.
func (r *Runtime) Slots() int {
	return int(r.slots)
}

// transition must be called with r.mu held.
func (r *Runtime) transition(to State) error {
	if !canTransition(r.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, to)
	}
	from := r.state
	r.state = to
	close(r.changed)
	r.changed = make(chan struct{})

	r.logger.Debug("transcode runtime state changed",
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	if r.observer != nil {
		r.observer(to)
	}
	return nil
}

// Load verifies the ffmpeg toolchain and moves the runtime to Ready.
// It is idempotent: a Ready runtime returns nil at once and callers that
// arrive while another Load is running wait for its outcome. A failed load
// returns to Unloaded and every waiter of that attempt gets the same error.
func (r *Runtime) Load(ctx context.Context) error {
	r.mu.Lock()
	switch r.state {
	case StateReady:
		r.mu.Unlock()
		return nil
	case StateLoading:
		attempt := r.attempt
		r.mu.Unlock()
		select {
		case <-attempt.done:
			return attempt.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := r.transition(StateLoading); err != nil {
		r.mu.Unlock()
		return err
	}
	attempt := &loadAttempt{done: make(chan struct{})}
	r.attempt = attempt
	r.disposed = false
	r.mu.Unlock()

	r.logger.Info("loading transcode runtime")
	version, err := r.runner.Version(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	defer close(attempt.done)

	switch {
	case err != nil:
		attempt.err = fmt.Errorf("%w: %w", ErrLoadFailed, err)
	case r.disposed:
		attempt.err = fmt.Errorf("%w: disposed while loading", ErrLoadFailed)
	}

	if attempt.err != nil {
		_ = r.transition(StateUnloaded)
		r.logger.Error("transcode runtime load failed", slog.String("error", attempt.err.Error()))
		return attempt.err
	}

	r.version = version
	r.life, r.cancel = context.WithCancel(context.Background())
	_ = r.transition(StateReady)
	r.logger.Info("transcode runtime ready",
		slog.String("version", version),
		slog.Int64("slots", r.slots),
	)
	return nil
}

// WaitReady blocks until the runtime is Ready or ctx is done. It does not
// start a load.
func (r *Runtime) WaitReady(ctx context.Context) error {
	for {
		r.mu.Lock()
		state, changed := r.state, r.changed
		r.mu.Unlock()

		if state == StateReady {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Acquire reserves a transcode slot. The returned context is cancelled when
// ctx is done or the runtime is disposed; release must be called exactly
// once. Acquire fails with convert.ErrEngineNotReady unless Ready and
// returns ctx's error when cancelled while queued.
func (r *Runtime) Acquire(ctx context.Context) (context.Context, func(), error) {
	if !r.IsReady() {
		return nil, nil, convert.ErrEngineNotReady
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	if r.state != StateReady {
		r.mu.Unlock()
		r.sem.Release(1)
		return nil, nil, convert.ErrEngineNotReady
	}
	life := r.life
	r.mu.Unlock()

	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(life, cancel)

	var once sync.Once
	release := func() {
		once.Do(func() {
			stop()
			cancel()
			r.sem.Release(1)
		})
	}
	return opCtx, release, nil
}

// Dispose cancels in-flight operations and returns the runtime to Unloaded.
// Disposing while a load is running makes that load fail.
func (r *Runtime) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateReady:
		r.cancel()
		_ = r.transition(StateUnloaded)
		r.logger.Info("transcode runtime disposed")
	case StateLoading:
		r.disposed = true
	}
}
