// Package submission coordinates a signup form submission: it clears the
// previous outcome, calls the signup client, maps the result to UI state and
// schedules the redirect to the login view on success.
package submission

import (
	"context"
	"sync"
	"time"

	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/models/dto"
	"github.com/haguru/kakashi/pkg/helper"
)

// State is the lifecycle state of a Controller.
type State int

const (
	StateIdle State = iota
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// UIState is what the view renders. An empty string means the message is unset;
// at most one of the two is set.
type UIState struct {
	ErrorMessage   string
	SuccessMessage string
}

// Outcome is the result of one submission attempt.
type Outcome struct {
	Success bool
	Message string
}

// Options tunes a Controller. Zero values fall back to the defaults.
type Options struct {
	RedirectDelay time.Duration
	LoginPath     string
	// AllowOverlap lets a second submission start while one is pending;
	// the attempt that resolves last owns the UI state.
	AllowOverlap bool
}

func (o Options) withDefaults() Options {
	if o.RedirectDelay <= 0 {
		o.RedirectDelay = DefaultRedirectDelay
	}
	if o.LoginPath == "" {
		o.LoginPath = DefaultLoginPath
	}
	return o
}

// Controller is the submission controller backing one signup view.
type Controller struct {
	client    interfaces.SignupClient
	navigator interfaces.Navigator
	scheduler interfaces.Scheduler
	logger    interfaces.Logger
	metrics   interfaces.Metrics
	opts      Options

	mu          sync.Mutex
	inFlight    int
	ui          UIState
	redirect    interfaces.Timer
	redirectGen uint64
	closed      bool
}

// NewController creates a Controller. metrics may be nil.
func NewController(client interfaces.SignupClient, navigator interfaces.Navigator,
	scheduler interfaces.Scheduler, logger interfaces.Logger, metrics interfaces.Metrics, opts Options,
) *Controller {
	return &Controller{
		client:    client,
		navigator: navigator,
		scheduler: scheduler,
		logger:    logger,
		metrics:   metrics,
		opts:      opts.withDefaults(),
	}
}

// Submit runs one signup attempt with already validated form data.
// Signup failures are reported in the Outcome and the UI state; the error
// result is only ErrSubmissionInFlight or ErrControllerClosed, in which case
// nothing was changed.
func (c *Controller) Submit(ctx context.Context, req dto.SignupRequestDTO) (Outcome, error) {
	funcName := helper.GetFuncName()
	c.logger.Debug("Entering function", "func", funcName, "user", req.Username)
	defer c.logger.Debug("Exiting function", "func", funcName, "user", req.Username)

	if err := c.begin(); err != nil {
		c.logger.Warn(LogSubmissionRejected, "func", funcName, "user", req.Username, "error", err)
		c.incCounter(SubmissionsRejectedTotal)
		return Outcome{}, err
	}
	c.incCounter(SubmissionsTotal)

	start := c.scheduler.Now()
	err := c.client.Signup(ctx, req)
	if c.metrics != nil {
		c.metrics.ObserveHistogram(SubmissionDurationSeconds, c.scheduler.Now().Sub(start).Seconds())
	}

	if err != nil {
		c.incCounter(SubmissionsFailedTotal)
		return c.fail(funcName, req, err), nil
	}
	c.incCounter(SubmissionsSucceededTotal)
	return c.succeed(funcName, req), nil
}

// begin clears the previous outcome and marks the controller as submitting.
func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	if c.inFlight > 0 && !c.opts.AllowOverlap {
		return ErrSubmissionInFlight
	}

	c.ui = UIState{}
	// a redirect pending from an earlier success belongs to the outcome being cleared
	c.stopRedirectLocked()
	c.inFlight++
	return nil
}

func (c *Controller) succeed(funcName string, req dto.SignupRequestDTO) Outcome {
	outcome := Outcome{Success: true, Message: MsgSignupSuccess}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if c.closed {
		c.logger.Info(LogLateOutcomeDropped, "func", funcName, "user", req.Username)
		return outcome
	}

	c.ui = UIState{SuccessMessage: MsgSignupSuccess}
	c.stopRedirectLocked()
	c.redirectGen++
	gen := c.redirectGen
	c.redirect = c.scheduler.AfterFunc(c.opts.RedirectDelay, func() { c.navigate(gen) })
	c.logger.Info(LogRedirectScheduled, "func", funcName, "user", req.Username,
		"path", c.opts.LoginPath, "delay", c.opts.RedirectDelay.String())
	return outcome
}

func (c *Controller) fail(funcName string, req dto.SignupRequestDTO, err error) Outcome {
	msg := DisplayMessage(err)
	c.logger.Error(LogSubmissionFailed, "func", funcName, "user", req.Username, "message", msg, "error", err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if c.closed {
		c.logger.Info(LogLateOutcomeDropped, "func", funcName, "user", req.Username)
		return Outcome{Message: msg}
	}

	c.ui = UIState{ErrorMessage: msg}
	return Outcome{Message: msg}
}

// navigate is the redirect timer callback; a stale generation means the timer
// was superseded or cancelled after it had already started firing.
func (c *Controller) navigate(gen uint64) {
	c.mu.Lock()
	if c.closed || c.redirect == nil || c.redirectGen != gen {
		c.mu.Unlock()
		return
	}
	c.redirect = nil
	path := c.opts.LoginPath
	c.mu.Unlock()

	c.logger.Info(LogNavigating, "path", path)
	c.incCounter(RedirectsTotal)
	c.navigator.Navigate(path)
}

func (c *Controller) stopRedirectLocked() {
	if c.redirect == nil {
		return
	}
	c.redirect.Stop()
	c.redirect = nil
	c.logger.Debug(LogRedirectCancelled)
}

// Close tears the controller down: the pending redirect is cancelled and
// later submissions are refused. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopRedirectLocked()
}

// State reports whether a submission is in flight.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight > 0 {
		return StateSubmitting
	}
	return StateIdle
}

// UI returns a snapshot of the current messages.
func (c *Controller) UI() UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ui
}

// RedirectPending reports whether a post-signup navigation is scheduled.
func (c *Controller) RedirectPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect != nil
}

// Options returns the effective options.
func (c *Controller) Options() Options {
	return c.opts
}

func (c *Controller) incCounter(name string) {
	if c.metrics != nil {
		c.metrics.IncCounter(name)
	}
}
