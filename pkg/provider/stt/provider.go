// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a transcription service (a local whisper.cpp model, a
// hosted recognition API, or the browser's recognition engine relayed over the
// voice gateway) and exposes a uniform single-utterance interface. The central
// abstraction is Utterance: once started, an utterance accepts raw PCM audio
// frames and resolves to at most one best Transcript when the speaker stops.
//
// Recognition is deliberately non-continuous: ReMind listens for one bounded
// utterance per button press, never for an open-ended dictation stream.
// Implementations must be safe for concurrent use.
package stt

import "context"

// UtteranceConfig describes the audio format and recognition hints for a new
// utterance. All fields must be compatible with what the underlying provider
// supports; see each provider's documentation for valid ranges.
type UtteranceConfig struct {
	// SampleRate is the audio sample rate in Hz. Common values: 16000
	// (STT-optimised mono), 48000 (browser capture output).
	SampleRate int

	// Channels is the number of audio channels. 1 = mono (required by most STT
	// providers). Implementors may downmix stereo internally.
	Channels int

	// Locale is the BCP-47 language tag for recognition (e.g., "en-US").
	// An empty string lets the provider apply its configured default.
	Locale string
}

// Utterance represents one open recognition attempt. It is an interface so
// that test code can provide mock implementations without a live provider
// connection.
//
// Callers must call Close when the utterance is no longer needed. Failing to
// do so may leak goroutines and network connections inside the provider
// implementation. All methods must be safe for concurrent use.
type Utterance interface {
	// SendAudio delivers a chunk of raw 16-bit little-endian PCM audio bytes to
	// the provider. The chunk must match the SampleRate and Channels agreed in
	// UtteranceConfig. Calling SendAudio after Close returns an error.
	SendAudio(chunk []byte) error

	// Result returns a read-only channel that emits the best transcript for
	// this utterance. At most one Transcript is sent, then the channel is
	// closed; when recognition fails or captures no speech the channel closes
	// without a value. Closure of this channel is the utterance-ended signal.
	Result() <-chan Transcript

	// Close terminates the utterance, flushes any pending audio, and releases
	// all associated resources. After Close returns, the Result channel is
	// closed. Calling Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any STT backend.
//
// Implementations must be safe for concurrent use. The speech layer enforces
// at most one active utterance per Listener, but nothing in this contract
// prevents a provider from serving several listeners at once.
type Provider interface {
	// StartUtterance opens a new single-utterance recognition attempt with the
	// given audio format. The returned Utterance is ready to accept audio
	// immediately.
	//
	// Returns an error if the provider cannot establish the attempt (e.g.,
	// authentication failure, unsupported configuration, or ctx already
	// cancelled). The caller owns the Utterance and must call Close when done.
	StartUtterance(ctx context.Context, cfg UtteranceConfig) (Utterance, error)
}
