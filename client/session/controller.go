// Package session tracks the dashboard's authentication lifecycle on the
// client side: restoring a persisted session optimistically, validating it
// against the server, and broadcasting every transition to subscribers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tubedigest/domain/dto"
	"tubedigest/domain/model"
	"tubedigest/infrastructure/logger"
)

// Phase is where the session lifecycle currently stands.
type Phase string

const (
	PhaseUnknown         Phase = "unknown"
	PhaseRestoring       Phase = "restoring"
	PhaseValidating      Phase = "validating"
	PhaseAuthenticated   Phase = "authenticated"
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseError           Phase = "error"
)

// State is an immutable view of the session handed to subscribers. User is
// only meaningful in PhaseAuthenticated (and, optimistically, while
// validating a restored session).
type State struct {
	Phase     Phase
	User      dto.MeResponse
	Onboarded bool
	Err       error
}

// Authenticated reports whether the state grants access to protected views.
// Anything ambiguous counts as not authenticated.
func (s State) Authenticated() bool {
	return s.Phase == PhaseAuthenticated
}

// SessionAPI is the slice of the dashboard API the controller needs.
type SessionAPI interface {
	Me(ctx context.Context) (dto.MeResponse, error)
	Logout(ctx context.Context) error
	ListSelected(ctx context.Context) ([]dto.SelectedChannel, error)
}

// Subscriber receives every state transition, synchronously and in
// registration order. By the time a mutation call returns, all subscribers
// have observed the new state.
type Subscriber func(State)

// Controller owns the session state machine. Construct one per app
// instance; there is deliberately no package-level default.
type Controller struct {
	api     SessionAPI
	storage Storage
	now     func() time.Time

	mu          sync.Mutex
	state       State
	subscribers map[int]Subscriber
	nextSubID   int

	validateMu   sync.Mutex
	validateDone chan struct{}
	validateErr  error
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithClock injects a custom clock, useful for TTL tests.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func NewController(api SessionAPI, storage Storage, opts ...ControllerOption) *Controller {
	c := &Controller{
		api:         api,
		storage:     storage,
		now:         time.Now,
		state:       State{Phase: PhaseUnknown},
		subscribers: make(map[int]Subscriber),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a synchronous observer and immediately delivers the
// current state to it. The returned function unsubscribes.
func (c *Controller) Subscribe(fn Subscriber) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	current := c.state
	c.mu.Unlock()

	fn(current)
	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) setState(next State) {
	c.mu.Lock()
	c.state = next
	subs := make([]Subscriber, 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// Restore brings the session up from local persistence. A fresh snapshot
// yields an immediate optimistic Authenticated state so the UI renders
// without waiting on the network; validation then confirms or corrects it.
func (c *Controller) Restore(ctx context.Context) State {
	c.setState(State{Phase: PhaseRestoring})

	snap, err := c.storage.Load()
	if err != nil || snap.Expired(c.now()) {
		if err == nil {
			// Expired snapshot: forget it so the next run starts clean.
			_ = c.storage.Clear()
		}
		_ = c.Validate(ctx)
		return c.State()
	}

	// Optimistic restore: trust the snapshot now, verify right after.
	c.setState(State{Phase: PhaseAuthenticated, User: snap.User, Onboarded: snap.Onboarded})
	_ = c.Validate(ctx)
	return c.State()
}

// Validate confirms the session against the server. Concurrent calls
// coalesce into one request; every caller gets that request's result.
func (c *Controller) Validate(ctx context.Context) error {
	c.validateMu.Lock()
	if c.validateDone != nil {
		done := c.validateDone
		c.validateMu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.validateMu.Lock()
		err := c.validateErr
		c.validateMu.Unlock()
		return err
	}
	done := make(chan struct{})
	c.validateDone = done
	c.validateMu.Unlock()

	err := c.validate(ctx)

	c.validateMu.Lock()
	c.validateErr = err
	c.validateDone = nil
	close(done)
	c.validateMu.Unlock()
	return err
}

func (c *Controller) validate(ctx context.Context) error {
	prev := c.State()
	c.setState(State{Phase: PhaseValidating, User: prev.User, Onboarded: prev.Onboarded})

	me, err := c.api.Me(ctx)
	if err != nil {
		if errors.Is(err, model.ErrAuthenticationRequired) {
			_ = c.storage.Clear()
			c.setState(State{Phase: PhaseUnauthenticated})
			return nil
		}
		// Transient failure: surface it. The guard fails closed on
		// PhaseError, so nothing protected renders off a guess.
		c.setState(State{Phase: PhaseError, User: prev.User, Onboarded: prev.Onboarded, Err: err})
		return err
	}

	onboarded := prev.Onboarded
	if selected, selErr := c.api.ListSelected(ctx); selErr == nil {
		onboarded = len(selected) > 0
	} else {
		logger.GetLogger().WithField("error", selErr).Warn("onboarding check failed; keeping last known value")
	}

	next := State{Phase: PhaseAuthenticated, User: me, Onboarded: onboarded}
	c.setState(next)
	if err := c.storage.Save(Snapshot{User: me, Onboarded: onboarded, SavedAt: c.now()}); err != nil {
		logger.GetLogger().WithField("error", err).Warn("session snapshot save failed")
	}
	return nil
}

// MarkOnboarded flips the onboarding flag after the first successful
// selection save, without a validation round-trip.
func (c *Controller) MarkOnboarded() {
	prev := c.State()
	if prev.Phase != PhaseAuthenticated || prev.Onboarded {
		return
	}
	next := State{Phase: PhaseAuthenticated, User: prev.User, Onboarded: true}
	c.setState(next)
	if err := c.storage.Save(Snapshot{User: prev.User, Onboarded: true, SavedAt: c.now()}); err != nil {
		logger.GetLogger().WithField("error", err).Warn("session snapshot save failed")
	}
}

// WaitForSignIn polls the server after an OAuth redirect until the session
// becomes authenticated. The poll is bounded: it gives up after attempts
// rounds instead of blocking on an arbitrary sleep.
func (c *Controller) WaitForSignIn(ctx context.Context, interval time.Duration, attempts int) error {
	for i := 0; i < attempts; i++ {
		if err := c.Validate(ctx); err == nil && c.State().Authenticated() {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("sign-in not confirmed after %d attempts", attempts)
}

// Logout drops local state first, then tells the server. A dead network
// cannot keep the user signed in on this device.
func (c *Controller) Logout(ctx context.Context) error {
	_ = c.storage.Clear()
	c.setState(State{Phase: PhaseUnauthenticated})

	if err := c.api.Logout(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("server-side logout failed; local session already cleared")
		return err
	}
	return nil
}
