// Package voicesession owns the per-interaction listening state. It is a
// two-state machine (idle, listening) that guards against overlapping
// recognition sessions, speaks the purpose-specific listening prompt, and
// feeds each transcript through the interpreter and dispatcher.
package voicesession

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/remindai/remind/internal/command"
	"github.com/remindai/remind/internal/dispatch"
	"github.com/remindai/remind/internal/speech"
)

// State is the controller's listening state. The controller is always in
// exactly one of the two states.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
)

// Purpose declares what the caller is listening for. It selects the spoken
// prompt and, for field purposes, routes transcripts straight to the field.
type Purpose string

const (
	PurposeGeneral     Purpose = "general"
	PurposeTitle       Purpose = "title"
	PurposeDescription Purpose = "description"
)

// Listening prompts by purpose.
const (
	promptListenGeneral     = "Listening. How can I help you?"
	promptListenTitle       = "Listening for title..."
	promptListenDescription = "Listening for description..."
)

// Option is a functional option for configuring a [Controller].
type Option func(*Controller)

// WithCommandHook registers a hook invoked once per dispatched command with
// its kind. Used for metrics.
func WithCommandHook(hook func(kind command.Kind)) Option {
	return func(c *Controller) {
		c.commandHook = hook
	}
}

// WithStateHook registers a hook invoked on every state transition. Used to
// push listening indicators to the client.
func WithStateHook(hook func(state State)) Option {
	return func(c *Controller) {
		c.stateHook = hook
	}
}

// Controller drives one voice interaction at a time. All methods are safe
// for concurrent use.
type Controller struct {
	in     speech.Input
	out    speech.Output
	interp *command.Interpreter
	disp   *dispatch.Dispatcher

	// dctx supplies the dispatch context at transcript time, so the active
	// page's callbacks are always current.
	dctx func() dispatch.Context

	commandHook func(kind command.Kind)
	stateHook   func(state State)

	mu    sync.Mutex
	state State
	// gen identifies the current session; callbacks from earlier sessions
	// carry a stale gen and are ignored.
	gen uint64
}

// New returns an idle Controller.
func New(in speech.Input, out speech.Output, interp *command.Interpreter, disp *dispatch.Dispatcher, dctx func() dispatch.Context, opts ...Option) *Controller {
	c := &Controller{
		in:     in,
		out:    out,
		interp: interp,
		disp:   disp,
		dctx:   dctx,
		state:  StateIdle,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Toggle flips the session state. From idle it speaks the purpose's
// listening prompt and starts a recognition session; from listening it stops
// the session immediately without processing a transcript.
func (c *Controller) Toggle(ctx context.Context, purpose Purpose) {
	c.mu.Lock()
	if c.state == StateListening {
		c.setStateLocked(StateIdle)
		c.gen++
		c.mu.Unlock()
		c.in.Stop()
		return
	}
	c.setStateLocked(StateListening)
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.out.Speak(ctx, listenPrompt(purpose))

	c.in.Start(ctx,
		func(text string) { c.onResult(ctx, gen, purpose, text) },
		func() { c.onEnd(gen) },
	)
}

// Close forces the controller back to idle, stopping any active session.
// Required when the owning surface goes away while listening.
func (c *Controller) Close() {
	c.mu.Lock()
	wasListening := c.state == StateListening
	c.setStateLocked(StateIdle)
	c.gen++
	c.mu.Unlock()
	if wasListening {
		c.in.Stop()
	}
}

// onResult handles one transcript while the session is live. The session
// does not end here; onEnd drives the return to idle.
func (c *Controller) onResult(ctx context.Context, gen uint64, purpose Purpose, text string) {
	c.mu.Lock()
	stale := gen != c.gen || c.state != StateListening
	c.mu.Unlock()
	if stale {
		slog.Debug("voicesession: dropping transcript from stopped session", "text", text)
		return
	}

	dctx := c.dctx()
	if dctx.Notify != nil {
		dctx.Notify(dispatch.Notification{
			Severity: dispatch.SeverityInfo,
			Message:  fmt.Sprintf("I heard: %s", text),
			Duration: 3 * time.Second,
		})
	}

	cmd := c.interp.Interpret(text)
	if c.commandHook != nil {
		c.commandHook(cmd.Kind)
	}

	// Field purposes capture unmatched speech verbatim: saying anything that
	// is not the matching dictation command fills the field with the raw
	// transcript.
	switch purpose {
	case PurposeTitle:
		if cmd.Kind != command.KindSetTitle && dctx.SetTitle != nil {
			dctx.SetTitle(text)
			return
		}
	case PurposeDescription:
		if cmd.Kind != command.KindSetDescription && dctx.SetDescription != nil {
			dctx.SetDescription(text)
			return
		}
	}

	c.disp.Dispatch(ctx, cmd, dctx)
}

// onEnd returns the controller to idle. It fires on every termination path,
// so no listening indicator can get stuck.
func (c *Controller) onEnd(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.setStateLocked(StateIdle)
}

// setStateLocked updates the state and fires the state hook. Caller holds
// c.mu.
func (c *Controller) setStateLocked(state State) {
	if c.state == state {
		return
	}
	c.state = state
	if c.stateHook != nil {
		hook := c.stateHook
		// The hook may call back into the controller.
		go hook(state)
	}
}

// listenPrompt returns the spoken prompt for a purpose.
func listenPrompt(purpose Purpose) string {
	switch purpose {
	case PurposeTitle:
		return promptListenTitle
	case PurposeDescription:
		return promptListenDescription
	default:
		return promptListenGeneral
	}
}
