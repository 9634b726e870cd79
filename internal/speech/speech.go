// Package speech adapts speech providers to the minimal input/output contract
// the voice pipeline needs: speak one utterance, listen for one utterance.
//
// Both directions degrade gracefully. A missing TTS provider or disabled voice
// output turns Speak into a logged no-op; a missing STT provider makes Start
// log and fire onEnd immediately so callers never hang in a listening state.
// The package enforces at most one active utterance and at most one active
// recognition session process-wide.
package speech

import "context"

// Output speaks text to the user. Implementations are [Speaker] for local
// synthesis and the voice gateway's remote output that forwards text to the
// browser's speech synthesis.
type Output interface {
	// Speak requests playback of one utterance. Any in-flight utterance is
	// cancelled first; the last request wins. Speak returns once the
	// utterance has been started (or skipped), not when playback finishes.
	Speak(ctx context.Context, text string)
}

// Input captures one utterance of user speech. Implementations are
// [Listener] for local recognition and the voice gateway's remote input
// that is fed finished transcripts by the browser.
type Input interface {
	// Start begins a single-utterance recognition session, stopping any
	// session already active. onResult is invoked at most once with the best
	// transcript; onEnd is invoked exactly once when the session terminates,
	// on every path including recognition being unavailable.
	Start(ctx context.Context, onResult func(text string), onEnd func())

	// Stop ends the active session, if any. Idempotent.
	Stop()
}
