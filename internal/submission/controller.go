package submission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	ErrClosed           = errors.New("form is closed")
	ErrInFlight         = errors.New("a submission is already in flight")
	ErrAlreadySubmitted = errors.New("form was already submitted")
	// ErrDiscarded is returned when the form was closed or reopened while the
	// request was in flight; the outcome is not applied.
	ErrDiscarded = errors.New("form closed before the submission completed")
)

type Option func(*Controller)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithAutoClose closes the form delay after a successful submission and then
// calls onExpire. A zero delay disables auto-close.
func WithAutoClose(delay time.Duration, onExpire func()) Option {
	return func(c *Controller) {
		c.autoClose = delay
		c.onExpire = onExpire
	}
}

// Controller tracks the Idle -> Submitting -> Succeeded|Failed cycle of one
// open form. Every Open and Close starts a new generation; completions from an
// older generation are dropped.
type Controller struct {
	clock     clockwork.Clock
	autoClose time.Duration
	onExpire  func()

	mu         sync.Mutex
	open       bool
	state      State
	message    string
	generation uint64
	timer      clockwork.Timer
}

// NewController returns a controller for a form that is already open.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		clock:      clockwork.NewRealClock(),
		open:       true,
		generation: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Outcome{State: c.state, Message: c.message}
}

func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Busy reports whether inputs must stay disabled.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Submitting
}

// Open (re)opens the form in Idle, cancelling any pending auto-close.
func (c *Controller) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(true)
}

// Close closes the form. An in-flight submission will be discarded and a
// pending auto-close is cancelled.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return
	}
	c.reset(false)
}

func (c *Controller) reset(open bool) {
	c.stopTimer()
	c.open = open
	c.generation++
	c.state = Idle
	c.message = ""
}

// Submit runs attempt through the state machine. Validation failures from
// Prepare are returned unchanged and leave the controller Idle.
func (c *Controller) Submit(ctx context.Context, sender Sender, attempt Attempt) (Outcome, error) {
	generation, body, err := c.begin(attempt)
	if err != nil {
		return c.Outcome(), err
	}

	outcome := send(ctx, sender, attempt, body)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open || generation != c.generation {
		return outcome, ErrDiscarded
	}
	c.state = outcome.State
	c.message = outcome.Message
	if outcome.State == Succeeded && c.autoClose > 0 {
		c.stopTimer()
		c.timer = c.clock.AfterFunc(c.autoClose, func() {
			c.expire(generation)
		})
	}
	return outcome, nil
}

// begin prepares the body and moves to Submitting, holding attempt.Lock
// across both steps.
func (c *Controller) begin(attempt Attempt) (uint64, any, error) {
	if attempt.Lock != nil {
		attempt.Lock.Lock()
		defer attempt.Lock.Unlock()
	}
	if err := c.checkSubmittable(); err != nil {
		return 0, nil, err
	}

	body, err := attempt.prepare()
	if err != nil {
		c.mu.Lock()
		if c.state == Failed {
			c.state = Idle
			c.message = ""
		}
		c.mu.Unlock()
		return 0, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkSubmittableLocked(); err != nil {
		return 0, nil, err
	}
	c.state = Submitting
	c.message = ""
	return c.generation, body, nil
}

func (c *Controller) checkSubmittable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkSubmittableLocked()
}

func (c *Controller) checkSubmittableLocked() error {
	if !c.open {
		return ErrClosed
	}
	switch c.state {
	case Submitting:
		return ErrInFlight
	case Succeeded:
		return ErrAlreadySubmitted
	}
	return nil
}

func (c *Controller) expire(generation uint64) {
	c.mu.Lock()
	if !c.open || generation != c.generation {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.reset(false)
	onExpire := c.onExpire
	c.mu.Unlock()

	if onExpire != nil {
		onExpire()
	}
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
