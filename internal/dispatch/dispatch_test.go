package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/remindai/remind/internal/command"
	"github.com/remindai/remind/internal/journal"
)

// fakeSpeaker records spoken texts synchronously.
type fakeSpeaker struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
}

func (f *fakeSpeaker) spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// recorder collects dispatch side effects for assertions.
type recorder struct {
	navigations   []string
	notifications []Notification
	titles        []string
	descriptions  []string
}

func (r *recorder) dctx() Context {
	return Context{
		Navigate: func(target string) { r.navigations = append(r.navigations, target) },
		Notify:   func(n Notification) { r.notifications = append(r.notifications, n) },
	}
}

func (r *recorder) formCtx() Context {
	dctx := r.dctx()
	dctx.SetTitle = func(text string) { r.titles = append(r.titles, text) }
	dctx.SetDescription = func(text string) { r.descriptions = append(r.descriptions, text) }
	return dctx
}

func contactLookup(c *journal.EmergencyContact, err error) func(context.Context) (*journal.EmergencyContact, error) {
	return func(context.Context) (*journal.EmergencyContact, error) { return c, err }
}

func TestDispatch_NavigateConfirmations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		want   string
	}{
		{command.TargetHome, "Going to home screen"},
		{command.TargetMemories, "Opening your memory vault"},
		{command.TargetReminders, "Opening your reminders"},
		{command.TargetAddMemory, "Let's add a new memory"},
		{command.TargetAddReminder, "Let's add a new reminder"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			t.Parallel()

			out := &fakeSpeaker{}
			rec := &recorder{}
			d := New(out)

			d.Dispatch(context.Background(), command.Command{Kind: command.KindNavigate, Target: tt.target}, rec.dctx())

			if len(rec.navigations) != 1 || rec.navigations[0] != tt.target {
				t.Errorf("navigations = %v, want [%s]", rec.navigations, tt.target)
			}
			spoken := out.spoken()
			if len(spoken) != 1 || spoken[0] != tt.want {
				t.Errorf("spoken = %v, want [%s]", spoken, tt.want)
			}
		})
	}
}

func TestDispatch_NavigateUnknownTarget(t *testing.T) {
	t.Parallel()

	out := &fakeSpeaker{}
	rec := &recorder{}
	d := New(out)

	d.Dispatch(context.Background(), command.Command{Kind: command.KindNavigate, Target: "settings"}, rec.dctx())

	if len(rec.navigations) != 0 {
		t.Errorf("navigated to unknown target: %v", rec.navigations)
	}
	spoken := out.spoken()
	if len(spoken) != 1 || spoken[0] != promptUnknownRoute {
		t.Errorf("spoken = %v", spoken)
	}
}

func TestDispatch_SOSWithContact(t *testing.T) {
	t.Parallel()

	out := &fakeSpeaker{}
	rec := &recorder{}
	d := New(out)

	dctx := rec.dctx()
	dctx.Contact = contactLookup(&journal.EmergencyContact{Name: "Maria", Phone: "555-0101"}, nil)

	d.Dispatch(context.Background(), command.Command{Kind: command.KindSOS}, dctx)

	spoken := out.spoken()
	if len(spoken) != 1 || spoken[0] != "Calling Maria at 555-0101" {
		t.Errorf("spoken = %v", spoken)
	}
	if len(rec.notifications) != 1 {
		t.Fatalf("notifications = %v", rec.notifications)
	}
	n := rec.notifications[0]
	if n.Severity != SeverityError || !strings.Contains(n.Message, "Maria") {
		t.Errorf("notification = %+v", n)
	}
	// Alert only: SOS must never navigate.
	if len(rec.navigations) != 0 {
		t.Errorf("SOS navigated: %v", rec.navigations)
	}
}

func TestDispatch_SOSWithoutContact(t *testing.T) {
	t.Parallel()

	out := &fakeSpeaker{}
	rec := &recorder{}
	d := New(out)

	dctx := rec.dctx()
	dctx.Contact = contactLookup(nil, nil)

	d.Dispatch(context.Background(), command.Command{Kind: command.KindSOS}, dctx)

	spoken := out.spoken()
	if len(spoken) != 1 || spoken[0] != promptNoContact {
		t.Errorf("spoken = %v", spoken)
	}
	if len(rec.notifications) != 1 || rec.notifications[0].Severity != SeverityError {
		t.Errorf("notifications = %v", rec.notifications)
	}
}

func TestDispatch_SOSLookupErrorDegradesToNoContact(t *testing.T) {
	t.Parallel()

	out := &fakeSpeaker{}
	rec := &recorder{}
	d := New(out)

	dctx := rec.dctx()
	dctx.Contact = contactLookup(nil, errors.New("store offline"))

	d.Dispatch(context.Background(), command.Command{Kind: command.KindSOS}, dctx)

	spoken := out.spoken()
	if len(spoken) != 1 || spoken[0] != promptNoContact {
		t.Errorf("spoken = %v", spoken)
	}
}

func TestDispatch_SetTitleOnFormPage(t *testing.T) {
	t.Parallel()

	out := &fakeSpeaker{}
	rec := &recorder{}
	d := New(out)

	d.Dispatch(context.Background(), command.Command{Kind: command.KindSetTitle, Target: "my graduation"}, rec.formCtx())

	if len(rec.titles) != 1 || rec.titles[0] != "my graduation" {
		t.Errorf("titles = %v", rec.titles)
	}
	if len(rec.notifications) != 1 || rec.notifications[0].Severity != SeveritySuccess {
		t.Errorf("notifications = %v", rec.notifications)
	}
}

func TestDispatch_SetDescriptionOnFormPage(t *testing.T) {
	t.Parallel()

	out := &fakeSpeaker{}
	rec := &recorder{}
	d := New(out)

	d.Dispatch(context.Background(), command.Command{Kind: command.KindSetDescription, Target: "a blue door"}, rec.formCtx())

	if len(rec.descriptions) != 1 || rec.descriptions[0] != "a blue door" {
		t.Errorf("descriptions = %v", rec.descriptions)
	}
}

func TestDispatch_SetTitleWithoutFormFallsBackToTextInput(t *testing.T) {
	t.Parallel()

	out := &fakeSpeaker{}
	rec := &recorder{}
	d := New(out)

	d.Dispatch(context.Background(), command.Command{Kind: command.KindSetTitle, Target: "my graduation"}, rec.dctx())

	spoken := out.spoken()
	if len(spoken) != 1 || spoken[0] != promptTextInput {
		t.Errorf("spoken = %v", spoken)
	}
	if len(rec.titles) != 0 {
		t.Errorf("titles = %v", rec.titles)
	}
}

func TestDispatch_ManagementCommandsSpeakOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind command.Kind
		want string
	}{
		{command.KindDeleteMemory, promptDeleteMemory},
		{command.KindSearchMemories, promptSearch},
		{command.KindClearSearch, promptClearSearch},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()

			out := &fakeSpeaker{}
			rec := &recorder{}
			d := New(out)

			d.Dispatch(context.Background(), command.Command{Kind: tt.kind}, rec.dctx())

			spoken := out.spoken()
			if len(spoken) != 1 || spoken[0] != tt.want {
				t.Errorf("spoken = %v, want [%s]", spoken, tt.want)
			}
			// Clarifying prompt only, no state change.
			if len(rec.navigations) != 0 {
				t.Errorf("navigations = %v", rec.navigations)
			}
		})
	}
}

func TestDispatch_Help(t *testing.T) {
	t.Parallel()

	out := &fakeSpeaker{}
	rec := &recorder{}
	d := New(out)

	d.Dispatch(context.Background(), command.Command{Kind: command.KindHelp}, rec.dctx())

	spoken := out.spoken()
	if len(spoken) != 1 || spoken[0] != promptHelp {
		t.Errorf("spoken = %v", spoken)
	}
	if len(rec.notifications) != 1 || rec.notifications[0].Severity != SeverityInfo {
		t.Errorf("notifications = %v", rec.notifications)
	}
}

func TestDispatch_TextInput(t *testing.T) {
	t.Parallel()

	out := &fakeSpeaker{}
	rec := &recorder{}
	d := New(out)

	d.Dispatch(context.Background(), command.Command{Kind: command.KindTextInput, Target: "remember the milk"}, rec.dctx())
	d.Dispatch(context.Background(), command.Command{Kind: command.KindTextInput, Target: ""}, rec.dctx())

	spoken := out.spoken()
	if len(spoken) != 2 {
		t.Fatalf("spoken = %v", spoken)
	}
	if spoken[0] != promptTextInput {
		t.Errorf("non-empty text input spoke %q", spoken[0])
	}
	if spoken[1] != promptUnknownInput {
		t.Errorf("empty text input spoke %q", spoken[1])
	}
}
