package command

import (
	"log/slog"
	"strings"
)

// rule pairs a name with a matcher. Rules are evaluated in declaration
// order; the first rule whose match function returns true wins.
type rule struct {
	// name is a human-readable label for logging.
	name string

	// match tests the cleaned (lowercased, trimmed) transcript and returns
	// the resulting command when it applies.
	match func(cleaned string) (Command, bool)
}

// Option is a functional option for configuring an [Interpreter].
type Option func(*Interpreter)

// WithPhoneticRecovery enables phonetic recovery of misheard navigation
// targets. When an utterance starts with a navigation verb but the target
// word matches no exact phrase ("show remainders", "open memorys"), the
// target is fuzzy-matched against the known screen names using Double
// Metaphone and Jaro-Winkler similarity.
func WithPhoneticRecovery(enabled bool) Option {
	return func(i *Interpreter) {
		i.phoneticRecovery = enabled
	}
}

// Interpreter classifies final speech transcripts into [Command] values.
// All methods are safe for concurrent use; the Interpreter is read-only
// after construction.
type Interpreter struct {
	rules            []rule
	phoneticRecovery bool
}

// New returns an Interpreter with the built-in rule set. Phonetic target
// recovery is enabled by default.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{phoneticRecovery: true}
	for _, o := range opts {
		o(i)
	}
	i.rules = i.buildRules()
	return i
}

// Interpret classifies one transcript. It always returns a command: when no
// rule matches, the fallback is KindTextInput carrying the cleaned
// transcript (possibly empty).
func (i *Interpreter) Interpret(text string) Command {
	cleaned := strings.ToLower(strings.TrimSpace(text))

	for _, r := range i.rules {
		cmd, ok := r.match(cleaned)
		if !ok {
			continue
		}
		slog.Debug("command: rule matched",
			"rule", r.name,
			"kind", cmd.Kind,
			"target", cmd.Target,
		)
		return cmd
	}

	slog.Debug("command: no rule matched, falling back to text input",
		"text", cleaned,
	)
	return Command{Kind: KindTextInput, Target: cleaned}
}

// Phrase groups, in evaluation order. Emergency phrases come first so that
// an utterance containing both an emergency word and another keyword always
// resolves to SOS.
var (
	sosPhrases = []string{"help me", "emergency", "call for help", "i need help", "sos"}

	memoriesPhrases  = []string{"show memories", "open memories", "go to memories", "view memories"}
	remindersPhrases = []string{"show reminders", "open reminders", "go to reminders", "view reminders"}
	homePhrases      = []string{"go home", "go to home", "back to home", "main screen"}

	addMemoryPhrases   = []string{"add memory", "create memory", "new memory", "record memory", "save memory"}
	addReminderPhrases = []string{"add reminder", "create reminder", "new reminder", "add a reminder", "set reminder"}

	titleKeywords       = []string{"title", "set title", "name this", "call this", "title is", "title should be"}
	descriptionKeywords = []string{"description", "describe", "write that", "note that", "add note", "details are", "description is"}

	deletePhrases = []string{"delete memory", "remove memory", "erase memory"}
	searchPhrases = []string{"search memories", "find memories", "look for memories"}
	clearPhrases  = []string{"clear search", "reset search", "cancel search"}

	helpPhrases = []string{"help", "what can you do", "how to use"}
)

// buildRules assembles the ordered rule table.
func (i *Interpreter) buildRules() []rule {
	rules := []rule{
		{name: "sos", match: bareMatch(sosPhrases, Command{Kind: KindSOS})},

		{name: "navigate-memories", match: bareMatch(memoriesPhrases, Command{Kind: KindNavigate, Target: TargetMemories})},
		{name: "navigate-reminders", match: bareMatch(remindersPhrases, Command{Kind: KindNavigate, Target: TargetReminders})},
		{name: "navigate-home", match: bareMatch(homePhrases, Command{Kind: KindNavigate, Target: TargetHome})},
		{name: "navigate-add-memory", match: bareMatch(addMemoryPhrases, Command{Kind: KindNavigate, Target: TargetAddMemory})},
		{name: "navigate-add-reminder", match: bareMatch(addReminderPhrases, Command{Kind: KindNavigate, Target: TargetAddReminder})},
	}

	if i.phoneticRecovery {
		rules = append(rules, rule{name: "navigate-phonetic", match: matchPhoneticNavigation})
	}

	rules = append(rules,
		rule{name: "set-title", match: extractMatch(titleKeywords, KindSetTitle)},
		rule{name: "set-description", match: extractMatch(descriptionKeywords, KindSetDescription)},

		rule{name: "delete-memory", match: bareMatch(deletePhrases, Command{Kind: KindDeleteMemory})},
		rule{name: "search-memories", match: bareMatch(searchPhrases, Command{Kind: KindSearchMemories})},
		rule{name: "clear-search", match: bareMatch(clearPhrases, Command{Kind: KindClearSearch})},

		rule{name: "help", match: bareMatch(helpPhrases, Command{Kind: KindHelp})},
	)
	return rules
}

// bareMatch returns a matcher that yields cmd when the cleaned transcript
// contains any of the phrases as a substring.
func bareMatch(phrases []string, cmd Command) func(string) (Command, bool) {
	return func(cleaned string) (Command, bool) {
		if containsAny(cleaned, phrases) {
			return cmd, true
		}
		return Command{}, false
	}
}

// extractMatch returns a matcher for dictation commands (title, description).
// When any keyword is present, the dictated text is the suffix after the
// first keyword found; keywords are tried in declaration order and the
// first containment wins, so "set title to groceries" extracts everything
// after the earliest "title" occurrence.
func extractMatch(keywords []string, kind Kind) func(string) (Command, bool) {
	return func(cleaned string) (Command, bool) {
		if !containsAny(cleaned, keywords) {
			return Command{}, false
		}
		text := cleaned
		for _, kw := range keywords {
			if idx := strings.Index(cleaned, kw); idx >= 0 {
				text = strings.TrimSpace(cleaned[idx+len(kw):])
				break
			}
		}
		return Command{Kind: kind, Target: text}, true
	}
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
