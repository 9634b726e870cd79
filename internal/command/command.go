// Package command implements keyword interpretation of voice transcripts.
// It classifies the final transcript of one utterance against an ordered set
// of phrase rules and produces the corresponding structured Command.
//
// The rule ordering is deliberate and load-bearing: emergency phrases are
// checked before everything else, so "emergency, show memories" triggers SOS
// rather than navigation. A phrase containing keywords from two groups (e.g.
// both "title" and "memory") resolves by group order, not by keyword
// specificity; this is documented behaviour, not an accident.
package command

// Kind identifies what a spoken command asks for.
type Kind string

const (
	// KindSOS triggers the emergency-contact alert flow.
	KindSOS Kind = "sos"

	// KindNavigate asks to move to one of the five fixed screens.
	KindNavigate Kind = "navigate"

	// KindSetTitle carries dictated text for the active form's title field.
	KindSetTitle Kind = "set-title"

	// KindSetDescription carries dictated text for the active form's
	// description field.
	KindSetDescription Kind = "set-description"

	// KindDeleteMemory asks to delete a memory.
	KindDeleteMemory Kind = "delete-memory"

	// KindSearchMemories asks to search stored memories.
	KindSearchMemories Kind = "search-memories"

	// KindClearSearch asks to reset an active memory search.
	KindClearSearch Kind = "clear-search"

	// KindHelp asks for the list of supported phrases.
	KindHelp Kind = "help"

	// KindTextInput is the fallback: no rule matched and the cleaned
	// transcript is preserved verbatim as candidate input text.
	KindTextInput Kind = "text-input"
)

// Navigation targets for KindNavigate commands. These are the five fixed
// screens of the ReMind client.
const (
	TargetHome        = "home"
	TargetMemories    = "memories"
	TargetReminders   = "reminders"
	TargetAddMemory   = "add-memory"
	TargetAddReminder = "add-reminder"
)

// Command is the structured result of interpreting one transcript. It is an
// immutable value with no identity; it is produced once per recognised
// utterance and consumed exactly once by the dispatcher.
type Command struct {
	// Kind identifies the command.
	Kind Kind

	// Target carries the navigation destination for KindNavigate, the
	// extracted dictation for KindSetTitle and KindSetDescription, and the
	// cleaned transcript for KindTextInput. Empty for bare commands.
	Target string
}
