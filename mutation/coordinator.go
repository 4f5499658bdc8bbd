package mutation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-catalog-admin/errs"
)

// ErrPending is returned by Submit while a previous submission of the same coordinator
// has not finished. The gateway is not called.
var ErrPending = errors.New("mutation: a submission is already pending")

// Notifier receives user facing outcome messages.
type Notifier interface {
	Success(title, message string)
	Failure(title, message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string, string) {}
func (nopNotifier) Failure(string, string) {}

// Option configures a coordinator.
type Option func(*settings)

type settings struct {
	notifier Notifier
	logger   *zap.Logger
}

// WithNotifier sets where outcome messages go.
func WithNotifier(n Notifier) Option {
	return func(s *settings) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// RunFunc performs the remote call of a mutation.
type RunFunc[P, R any] func(ctx context.Context, payload P) (R, error)

// Step runs after a successful call, in registration order.
type Step[P, R any] func(ctx context.Context, payload P, result R)

// Coordinator runs one mutation at a time. On success it runs its steps and announces the
// result; on failure it keeps the error for LastError and notifies. Either way it returns
// to idle, so a failed payload can be submitted again.
type Coordinator[P, R any] struct {
	name         string
	run          RunFunc[P, R]
	steps        []Step[P, R]
	announce     func(R) (title, message string)
	failureTitle string
	settings

	pending atomic.Bool
	mu      sync.Mutex
	lastErr error
}

// New builds a coordinator named name around run.
func New[P, R any](name string, run RunFunc[P, R], opts ...Option) *Coordinator[P, R] {
	c := &Coordinator[P, R]{
		name:         name,
		run:          run,
		failureTitle: name + " failed",
		settings:     settings{notifier: nopNotifier{}, logger: zap.NewNop()},
	}
	for _, opt := range opts {
		opt(&c.settings)
	}
	return c
}

// Then appends a success step.
func (c *Coordinator[P, R]) Then(step Step[P, R]) *Coordinator[P, R] {
	c.steps = append(c.steps, step)
	return c
}

// Announce sets the success message built from the result.
func (c *Coordinator[P, R]) Announce(fn func(R) (title, message string)) *Coordinator[P, R] {
	c.announce = fn
	return c
}

// FailureTitle sets the title used when notifying a failure.
func (c *Coordinator[P, R]) FailureTitle(title string) *Coordinator[P, R] {
	c.failureTitle = title
	return c
}

// Submit runs the mutation unless one is already pending, in which case it returns
// ErrPending immediately.
func (c *Coordinator[P, R]) Submit(ctx context.Context, payload P) (R, error) {
	var zero R
	if !c.pending.CompareAndSwap(false, true) {
		return zero, ErrPending
	}
	defer c.pending.Store(false)

	attempt := uuid.NewString()
	res, err := c.run(ctx, payload)
	if err != nil {
		c.setLastErr(err)
		c.logger.Warn("mutation failed",
			zap.String("mutation", c.name),
			zap.String("attempt", attempt),
			zap.String("kind", errs.KindOf(err).String()),
			zap.Error(err),
		)
		c.notifier.Failure(c.failureTitle, errs.Message(err))
		return zero, err
	}

	c.setLastErr(nil)
	for _, step := range c.steps {
		step(ctx, payload, res)
	}
	c.logger.Debug("mutation succeeded", zap.String("mutation", c.name), zap.String("attempt", attempt))
	if c.announce != nil {
		title, message := c.announce(res)
		c.notifier.Success(title, message)
	}
	return res, nil
}

// IsPending reports whether a submission is running.
func (c *Coordinator[P, R]) IsPending() bool {
	return c.pending.Load()
}

// LastError returns the message of the last failure, or "" after a success or Reset.
func (c *Coordinator[P, R]) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr == nil {
		return ""
	}
	return errs.Message(c.lastErr)
}

// Err returns the last failure.
func (c *Coordinator[P, R]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Reset clears the last failure.
func (c *Coordinator[P, R]) Reset() {
	c.setLastErr(nil)
}

func (c *Coordinator[P, R]) setLastErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
}
