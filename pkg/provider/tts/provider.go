// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., a local Coqui server,
// a cloud TTS API, or the browser's own synthesis engine relayed over the
// voice gateway) and presents a uniform single-utterance interface. The entry
// point is Synthesize, which converts one bounded piece of text to a channel
// of raw PCM audio bytes as they become available.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Voice describes a synthesis voice configuration.
type Voice struct {
	// ID is the provider-specific voice identifier.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider identifies which TTS provider this voice belongs to.
	Provider string

	// Rate adjusts speaking rate (0.5–2.0, 1.0 = default). ReMind defaults to
	// 0.9, slightly slower speech for clarity.
	Rate float64

	// Pitch adjusts pitch (-10 to +10, 0 = default).
	Pitch float64
}

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use. Multiple synthesis
// requests may run in parallel; serialising utterances (at most one audible
// at a time) is the speech layer's job, not the provider's.
type Provider interface {
	// Synthesize converts text to speech and returns a channel that emits raw
	// PCM audio byte slices as they are synthesised. The channel is closed by
	// the implementation when all audio has been produced or when ctx is
	// cancelled; the caller must drain it to avoid blocking the provider's
	// internal goroutines.
	//
	// voice specifies the voice profile to use. Providers should return an
	// error if the requested voice is not available.
	//
	// Returns a non-nil error only if synthesis cannot be started. Errors
	// encountered mid-synthesis are signalled by closing the audio channel
	// early; callers should check ctx.Err() to distinguish cancellation from
	// provider errors.
	Synthesize(ctx context.Context, text string, voice Voice) (<-chan []byte, error)

	// ListVoices returns all voice profiles available from this provider. The
	// list reflects the provider's current catalogue and may change between
	// calls if the underlying service adds or removes voices.
	ListVoices(ctx context.Context) ([]Voice, error)
}
