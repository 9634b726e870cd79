// Package dispatch executes interpreted voice commands: it routes navigation,
// triggers the SOS alert flow, forwards dictation to the active form, and
// speaks the confirmation prompt for every outcome.
//
// Side effects fire in a fixed order: state mutation (navigation, field
// update) first, then the spoken confirmation, then the visual notification.
// The dispatcher never performs an actual phone call on SOS; it alerts and
// logs only.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/remindai/remind/internal/command"
	"github.com/remindai/remind/internal/journal"
	"github.com/remindai/remind/internal/speech"
)

// Severity classifies a notification for the client's visual treatment.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a transient user-visible message. Fire-and-forget; the
// dispatcher never waits for acknowledgement.
type Notification struct {
	Severity Severity
	Message  string
	// Duration is how long the client should display the message. Zero means
	// the client default.
	Duration time.Duration
}

// Context carries the collaborators available at dispatch time. Navigate and
// Notify are required; SetTitle and SetDescription are nil unless the client
// is on a form page. Contact looks up the configured emergency contact and
// may be nil when no store is wired.
type Context struct {
	// Route is the client's current route, informational only.
	Route string

	// Navigate moves the client to one of the five fixed routes.
	Navigate func(target string)

	// Notify shows a transient message.
	Notify func(n Notification)

	// SetTitle receives dictated title text when a form page is active.
	SetTitle func(text string)

	// SetDescription receives dictated description text when a form page is
	// active.
	SetDescription func(text string)

	// Contact returns the configured emergency contact, or nil when none is
	// set.
	Contact func(ctx context.Context) (*journal.EmergencyContact, error)
}

// Spoken prompts. Wording is part of the product: these exact phrases are
// what the user hears.
const (
	promptUnknownRoute  = "I didn't understand that command"
	promptUnknownInput  = `I didn't understand that command. Try saying: "Show memories", "Add memory", or "Go home"`
	promptTextInput     = "I'll use that as text input."
	promptDeleteMemory  = "Please select a memory to delete"
	promptSearch        = "What would you like to search for?"
	promptClearSearch   = "Search cleared"
	promptHelp          = "Available voice commands: Show memories, Show reminders, Go home, Add memory, or Add reminder"
	promptNoContact     = "No emergency contact set. Please set up your emergency contact in settings."
	notifyNoContact     = "No emergency contact set"
	notifyHelp          = `Voice commands: "Show memories", "Show reminders", "Go home", "Add memory", "Add reminder"`
	notifyTitleCaptured = "Title captured!"
	notifyDescCaptured  = "Description captured!"
)

// confirmations maps each navigation target to its spoken confirmation.
var confirmations = map[string]string{
	command.TargetHome:        "Going to home screen",
	command.TargetMemories:    "Opening your memory vault",
	command.TargetReminders:   "Opening your reminders",
	command.TargetAddMemory:   "Let's add a new memory",
	command.TargetAddReminder: "Let's add a new reminder",
}

// Dispatcher executes commands against a dispatch context. All errors along
// the way are terminal but non-fatal: they are logged and the operation
// resolves to its nothing-happened outcome.
//
// Safe for concurrent use; the Dispatcher holds no per-call state.
type Dispatcher struct {
	out speech.Output
}

// New returns a Dispatcher speaking confirmations through out.
func New(out speech.Output) *Dispatcher {
	return &Dispatcher{out: out}
}

// Dispatch executes one command. Each command is consumed exactly once.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd command.Command, dctx Context) {
	switch cmd.Kind {
	case command.KindSOS:
		d.sos(ctx, dctx)
	case command.KindNavigate:
		d.navigate(ctx, cmd.Target, dctx)
	case command.KindSetTitle:
		d.setField(ctx, cmd.Target, dctx.SetTitle, notifyTitleCaptured, dctx)
	case command.KindSetDescription:
		d.setField(ctx, cmd.Target, dctx.SetDescription, notifyDescCaptured, dctx)
	case command.KindDeleteMemory:
		// Acknowledged verbally only; selection happens on screen.
		d.out.Speak(ctx, promptDeleteMemory)
	case command.KindSearchMemories:
		d.out.Speak(ctx, promptSearch)
	case command.KindClearSearch:
		d.out.Speak(ctx, promptClearSearch)
	case command.KindHelp:
		d.out.Speak(ctx, promptHelp)
		notify(dctx, Notification{Severity: SeverityInfo, Message: notifyHelp, Duration: 6 * time.Second})
	case command.KindTextInput:
		d.textInput(ctx, cmd.Target)
	default:
		slog.Warn("dispatch: unknown command kind", "kind", cmd.Kind)
		d.out.Speak(ctx, promptUnknownRoute)
	}
}

// navigate moves the client and confirms the destination out loud.
func (d *Dispatcher) navigate(ctx context.Context, target string, dctx Context) {
	confirmation, ok := confirmations[target]
	if !ok {
		slog.Warn("dispatch: unknown navigation target", "target", target)
		d.out.Speak(ctx, promptUnknownRoute)
		return
	}
	if dctx.Navigate != nil {
		dctx.Navigate(target)
	}
	d.out.Speak(ctx, confirmation)
	slog.Debug("dispatch: navigated", "from", dctx.Route, "to", target)
}

// sos surfaces a high-visibility alert naming the emergency contact. No call
// is placed; the log line stands in for real dialing.
func (d *Dispatcher) sos(ctx context.Context, dctx Context) {
	var contact *journal.EmergencyContact
	if dctx.Contact != nil {
		c, err := dctx.Contact(ctx)
		if err != nil {
			slog.Error("dispatch: emergency contact lookup failed", "error", err)
		} else {
			contact = c
		}
	}

	if contact == nil {
		d.out.Speak(ctx, promptNoContact)
		notify(dctx, Notification{Severity: SeverityError, Message: notifyNoContact, Duration: 5 * time.Second})
		return
	}

	d.out.Speak(ctx, fmt.Sprintf("Calling %s at %s", contact.Name, contact.Phone))
	notify(dctx, Notification{
		Severity: SeverityError,
		Message:  fmt.Sprintf("Emergency alert! Calling %s...", contact.Name),
		Duration: 5 * time.Second,
	})
	slog.Info("dispatch: emergency contact alerted",
		"name", contact.Name,
		"phone", contact.Phone,
	)
}

// setField forwards dictation to the active form field. Without a form
// callback the text degrades to plain text input.
func (d *Dispatcher) setField(ctx context.Context, text string, set func(string), captured string, dctx Context) {
	if set == nil {
		d.textInput(ctx, text)
		return
	}
	set(text)
	notify(dctx, Notification{Severity: SeveritySuccess, Message: captured})
}

// textInput handles unmatched speech: non-empty text is offered back as
// input, empty text gets the example-command hint.
func (d *Dispatcher) textInput(ctx context.Context, text string) {
	if text == "" {
		d.out.Speak(ctx, promptUnknownInput)
		return
	}
	d.out.Speak(ctx, promptTextInput)
}

func notify(dctx Context, n Notification) {
	if dctx.Notify != nil {
		dctx.Notify(n)
	}
}
