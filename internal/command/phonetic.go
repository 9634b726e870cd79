package command

import (
	"log/slog"
	"strings"

	"github.com/antzucaro/matchr"
)

// Phonetic recovery of misheard navigation targets.
//
// Speech recognition routinely garbles the single word that matters in a
// navigation phrase ("show remainders", "open memorys", "go to hone"). When
// an utterance starts with a known navigation verb but none of the exact
// phrases matched, the remainder is compared against the screen names in two
// stages: Double Metaphone code overlap to find phonetic candidates, then
// Jaro-Winkler similarity to rank them. Without a phonetic candidate a
// stricter pure-similarity threshold applies.
const (
	phoneticThreshold = 0.70
	fuzzyThreshold    = 0.85
)

// navVerbs are the prefixes that signal a navigation intent. Longer prefixes
// are listed first so "go to" strips before "go".
var navVerbs = []string{"go to ", "show ", "open ", "view ", "go "}

// navTargets maps spoken screen names to navigation targets. Only the three
// standalone screens are recoverable; the creation screens use two-word
// phrases that the exact rules already cover.
var navTargets = map[string]string{
	"memories":  TargetMemories,
	"reminders": TargetReminders,
	"home":      TargetHome,
}

// matchPhoneticNavigation recovers a navigation command from an utterance
// whose target word was misheard. It only fires when the cleaned transcript
// begins with a navigation verb; everything else falls through to the later
// rules untouched.
func matchPhoneticNavigation(cleaned string) (Command, bool) {
	var spoken string
	for _, verb := range navVerbs {
		if strings.HasPrefix(cleaned, verb) {
			spoken = strings.TrimSpace(strings.TrimPrefix(cleaned, verb))
			break
		}
	}
	if spoken == "" {
		return Command{}, false
	}

	target, score, ok := recoverTarget(spoken)
	if !ok {
		return Command{}, false
	}

	slog.Debug("command: recovered misheard navigation target",
		"spoken", spoken,
		"target", target,
		"score", score,
	)
	return Command{Kind: KindNavigate, Target: target}, true
}

// recoverTarget finds the screen name most phonetically similar to the
// spoken word. The returned target is one of the navigation target
// constants; ok is false when no screen clears its threshold.
func recoverTarget(spoken string) (target string, score float64, ok bool) {
	spokenPrimary, spokenSecondary := matchr.DoubleMetaphone(spoken)

	var best string
	var bestScore float64
	for name, t := range navTargets {
		if name == spoken {
			// Exact names are handled by the phrase rules; reaching here
			// with one means the verb variant was unknown, accept directly.
			return t, 1, true
		}

		namePrimary, nameSecondary := matchr.DoubleMetaphone(name)
		phonetic := codesMatch(spokenPrimary, spokenSecondary, namePrimary, nameSecondary)

		jw := matchr.JaroWinkler(spoken, name, false)
		threshold := fuzzyThreshold
		if phonetic {
			threshold = phoneticThreshold
		}
		if jw >= threshold && jw > bestScore {
			best = t
			bestScore = jw
		}
	}

	if best == "" {
		return "", 0, false
	}
	return best, bestScore, true
}

// codesMatch reports whether any Double Metaphone code of the spoken word
// equals any code of the candidate name. Empty codes never match.
func codesMatch(aPrimary, aSecondary, bPrimary, bSecondary string) bool {
	for _, a := range [...]string{aPrimary, aSecondary} {
		if a == "" {
			continue
		}
		if a == bPrimary || (bSecondary != "" && a == bSecondary) {
			return true
		}
	}
	return false
}
