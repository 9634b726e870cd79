package command

import "testing"

func TestInterpret_CommandClassification(t *testing.T) {
	t.Parallel()

	in := New()

	tests := []struct {
		name string
		text string
		want Command
	}{
		// Emergency phrases win over everything else.
		{"sos plain", "sos", Command{Kind: KindSOS}},
		{"sos help me", "help me", Command{Kind: KindSOS}},
		{"sos emergency", "this is an emergency", Command{Kind: KindSOS}},
		{"sos call for help", "call for help now", Command{Kind: KindSOS}},
		{"sos i need help", "i need help", Command{Kind: KindSOS}},
		{"sos beats navigation", "emergency, show memories", Command{Kind: KindSOS}},
		{"sos beats title", "emergency title is ignored", Command{Kind: KindSOS}},

		// Navigation.
		{"nav memories show", "show memories", Command{Kind: KindNavigate, Target: TargetMemories}},
		{"nav memories open", "please open memories", Command{Kind: KindNavigate, Target: TargetMemories}},
		{"nav memories view", "view memories", Command{Kind: KindNavigate, Target: TargetMemories}},
		{"nav reminders go to", "go to reminders", Command{Kind: KindNavigate, Target: TargetReminders}},
		{"nav reminders show", "show reminders", Command{Kind: KindNavigate, Target: TargetReminders}},
		{"nav home", "go home", Command{Kind: KindNavigate, Target: TargetHome}},
		{"nav home back to", "back to home", Command{Kind: KindNavigate, Target: TargetHome}},
		{"nav home main screen", "take me to the main screen", Command{Kind: KindNavigate, Target: TargetHome}},
		{"nav add memory", "add memory", Command{Kind: KindNavigate, Target: TargetAddMemory}},
		{"nav add memory record", "record memory", Command{Kind: KindNavigate, Target: TargetAddMemory}},
		{"nav add reminder", "create reminder", Command{Kind: KindNavigate, Target: TargetAddReminder}},
		{"nav add reminder article", "add a reminder", Command{Kind: KindNavigate, Target: TargetAddReminder}},
		{"nav add reminder set", "set reminder", Command{Kind: KindNavigate, Target: TargetAddReminder}},

		// Title dictation: suffix after the first keyword found.
		{"title call this", "call this my graduation", Command{Kind: KindSetTitle, Target: "my graduation"}},
		{"title name this", "name this beach day", Command{Kind: KindSetTitle, Target: "beach day"}},
		{"title bare keyword", "title grocery run", Command{Kind: KindSetTitle, Target: "grocery run"}},
		{"title keyword order", "set title to doctor visit", Command{Kind: KindSetTitle, Target: "to doctor visit"}},
		{"title beats description", "title and description later", Command{Kind: KindSetTitle, Target: "and description later"}},

		// Description dictation.
		{"description note that", "note that i took my pills", Command{Kind: KindSetDescription, Target: "i took my pills"}},
		{"description describe", "describe the sunset over the lake", Command{Kind: KindSetDescription, Target: "the sunset over the lake"}},
		{"description keyword order", "the description is a blue door", Command{Kind: KindSetDescription, Target: "is a blue door"}},

		// Memory management.
		{"delete", "delete memory", Command{Kind: KindDeleteMemory}},
		{"delete erase", "please erase memory", Command{Kind: KindDeleteMemory}},
		{"search", "search memories", Command{Kind: KindSearchMemories}},
		{"search look for", "look for memories", Command{Kind: KindSearchMemories}},
		{"clear", "clear search", Command{Kind: KindClearSearch}},
		{"clear cancel", "cancel search", Command{Kind: KindClearSearch}},

		// Help. Bare "help" is help, "help me" is SOS.
		{"help plain", "help", Command{Kind: KindHelp}},
		{"help what can you do", "what can you do", Command{Kind: KindHelp}},
		{"help how to use", "how to use this", Command{Kind: KindHelp}},

		// Fallback preserves the cleaned transcript.
		{"fallback", "xyz random text", Command{Kind: KindTextInput, Target: "xyz random text"}},
		{"fallback empty", "", Command{Kind: KindTextInput, Target: ""}},
		{"fallback whitespace", "   ", Command{Kind: KindTextInput, Target: ""}},
		{"fallback cleans case", "  Remember The Milk  ", Command{Kind: KindTextInput, Target: "remember the milk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := in.Interpret(tt.text)
			if got != tt.want {
				t.Errorf("Interpret(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestInterpret_PhoneticRecovery(t *testing.T) {
	t.Parallel()

	in := New()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"misheard reminders", "show remainders", TargetReminders},
		{"misheard memories", "open memorys", TargetMemories},
		{"unknown verb exact target", "view home", TargetHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := in.Interpret(tt.text)
			if got.Kind != KindNavigate || got.Target != tt.want {
				t.Errorf("Interpret(%q) = %+v, want navigate to %q", tt.text, got, tt.want)
			}
		})
	}

	// Unrelated words after a navigation verb must not be recovered.
	if got := in.Interpret("show the weather"); got.Kind != KindTextInput {
		t.Errorf("Interpret(%q) = %+v, want text input", "show the weather", got)
	}
}

func TestInterpret_PhoneticRecoveryDisabled(t *testing.T) {
	t.Parallel()

	in := New(WithPhoneticRecovery(false))

	got := in.Interpret("show remainders")
	if got.Kind != KindTextInput {
		t.Errorf("Interpret with recovery disabled = %+v, want text input", got)
	}
}
