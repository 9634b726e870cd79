// Package whisper provides a local whisper.cpp-backed STT provider using the
// whisper.cpp CGO bindings. The static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
//
// whisper.cpp is a batch (non-streaming) transcription engine, which matches
// ReMind's single-utterance recognition model: incoming PCM audio is buffered,
// an energy-based silence detector decides when the speaker has finished, and
// the completed utterance is submitted as one inference call. The first
// committed utterance resolves the attempt; ReMind never listens for a second
// sentence within the same session.
//
// Usage:
//
//	p, err := whisper.New("models/ggml-base.en.bin", whisper.WithLanguage("en"))
//	u, err := p.StartUtterance(ctx, cfg)
//	u.SendAudio(pcmChunk)
//	transcript, ok := <-u.Result()
//	u.Close()
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/remindai/remind/pkg/provider/stt"
)

const (
	// bitsPerSample is fixed at 16 for the 16-bit signed little-endian PCM
	// audio that whisper.cpp expects.
	bitsPerSample = 16

	// defaultRMSThreshold is the root-mean-square energy level (in 16-bit PCM
	// units) below which audio is considered silent. The maximum possible
	// value for 16-bit audio is 32 767; 300 corresponds to near-silence.
	defaultRMSThreshold = 300.0

	defaultLanguage            = "en"
	defaultSampleRate          = 16000
	defaultSilenceThresholdMs  = 500
	defaultMaxBufferDurationMs = 10_000
)

// Compile-time assertion that Provider satisfies stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Provider implements stt.Provider using the whisper.cpp Go bindings (CGO).
// The model is loaded once at construction and shared across all utterances.
type Provider struct {
	model    whisperlib.Model
	language string

	sampleRate          int
	silenceThresholdMs  int
	maxBufferDurationMs int
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the language code for transcription (e.g., "en", "de").
// Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// WithSampleRate sets the audio sample rate in Hz. This must match the actual
// sample rate of PCM data delivered via SendAudio. Defaults to 16000.
func WithSampleRate(rate int) Option {
	return func(p *Provider) { p.sampleRate = rate }
}

// WithSilenceThresholdMs sets the consecutive-silence duration (ms) that
// marks the end of the utterance and triggers inference. Defaults to 500 ms.
func WithSilenceThresholdMs(ms int) Option {
	return func(p *Provider) { p.silenceThresholdMs = ms }
}

// WithMaxBufferDurationMs sets the maximum buffered audio duration (ms)
// before a forced flush. Defaults to 10 000 ms (10 s).
func WithMaxBufferDurationMs(ms int) Option {
	return func(p *Provider) { p.maxBufferDurationMs = ms }
}

// New creates a Provider that loads the whisper.cpp model from the given file
// path. The model is loaded once and shared across all concurrent utterances.
// The caller must call Close when the provider is no longer needed.
func New(modelPath string, opts ...Option) (*Provider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &Provider{
		model:               model,
		language:            defaultLanguage,
		sampleRate:          defaultSampleRate,
		silenceThresholdMs:  defaultSilenceThresholdMs,
		maxBufferDurationMs: defaultMaxBufferDurationMs,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model. Must be called when the provider is no
// longer needed.
func (p *Provider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// StartUtterance opens a new recognition attempt. The returned Utterance is
// ready to accept audio immediately. It respects cfg.SampleRate, cfg.Channels,
// and cfg.Locale; if those are zero/empty the provider-level defaults apply.
//
// Each utterance creates its own whisper.cpp context from the shared model, so
// multiple utterances can run concurrently without interference.
func (p *Provider) StartUtterance(ctx context.Context, cfg stt.UtteranceConfig) (stt.Utterance, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context already cancelled: %w", err)
	}

	lang := cfg.Locale
	if lang == "" {
		lang = p.language
	}
	sr := cfg.SampleRate
	if sr <= 0 {
		sr = p.sampleRate
	}
	ch := cfg.Channels
	if ch <= 0 {
		ch = 1
	}

	u := &utterance{
		model:               p.model,
		language:            lang,
		sampleRate:          sr,
		channels:            ch,
		silenceThresholdMs:  p.silenceThresholdMs,
		maxBufferDurationMs: p.maxBufferDurationMs,

		audioCh: make(chan []byte, 256),
		result:  make(chan stt.Transcript, 1),
		done:    make(chan struct{}),
	}

	u.wg.Add(1)
	go u.processLoop(ctx)

	return u, nil
}

// ---- utterance --------------------------------------------------------------

// utterance is a live whisper recognition attempt. It implements
// stt.Utterance. All mutable state that drives silence detection and
// buffering is confined to the processLoop goroutine.
type utterance struct {
	// immutable configuration (set once in StartUtterance)
	model               whisperlib.Model
	language            string
	sampleRate          int
	channels            int
	silenceThresholdMs  int
	maxBufferDurationMs int

	// channels for audio input and the single transcript output
	audioCh chan []byte
	result  chan stt.Transcript

	// lifecycle
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// SendAudio queues a chunk of raw 16-bit little-endian signed PCM audio for
// silence analysis and buffering.
func (u *utterance) SendAudio(chunk []byte) error {
	select {
	case <-u.done:
		return errors.New("whisper: utterance is closed")
	default:
	}
	select {
	case u.audioCh <- chunk:
		return nil
	case <-u.done:
		return errors.New("whisper: utterance is closed")
	}
}

// Result returns the channel that resolves to the best transcript.
func (u *utterance) Result() <-chan stt.Transcript { return u.result }

// Close terminates the attempt, flushes any pending speech audio for a final
// inference, and closes the Result channel.
func (u *utterance) Close() error {
	u.once.Do(func() {
		close(u.done)
		u.wg.Wait()
	})
	return nil
}

// processLoop is the single goroutine responsible for silence detection,
// audio buffering, and inference dispatch. The first non-empty inference
// result resolves the utterance.
func (u *utterance) processLoop(ctx context.Context) {
	defer u.wg.Done()
	defer close(u.result)

	var (
		buffer    []byte
		hadSpeech bool
		silenceMs int
	)

	bytesPerMs := u.sampleRate * u.channels * (bitsPerSample / 8) / 1000
	if bytesPerMs <= 0 {
		bytesPerMs = 32
	}
	maxBufferBytes := u.maxBufferDurationMs * bytesPerMs

	// doFlush runs inference on the buffered speech and reports whether the
	// attempt is resolved (a transcript was delivered).
	doFlush := func() bool {
		if len(buffer) == 0 || !hadSpeech {
			buffer = nil
			hadSpeech = false
			silenceMs = 0
			return false
		}

		pcm := buffer
		buffer = nil
		hadSpeech = false
		silenceMs = 0

		start := time.Now()
		text, err := u.infer(pcm)
		if err != nil {
			slog.Error("whisper inference failed", "error", err)
			return false
		}
		if text == "" {
			return false
		}

		u.result <- stt.Transcript{Text: text, Duration: time.Since(start)}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			doFlush()
			return

		case <-u.done:
			doFlush()
			return

		case chunk := <-u.audioCh:
			rms := computeRMS(chunk)
			chunkMs := chunkDurationMs(chunk, u.sampleRate, u.channels)

			if rms < defaultRMSThreshold {
				// Silent chunk: only relevant once speech has started.
				// Leading silence before any speech is discarded.
				if hadSpeech {
					silenceMs += chunkMs
					buffer = append(buffer, chunk...)
					if silenceMs >= u.silenceThresholdMs {
						if doFlush() {
							return
						}
					}
				}
			} else {
				hadSpeech = true
				silenceMs = 0
				buffer = append(buffer, chunk...)
				if maxBufferBytes > 0 && len(buffer) >= maxBufferBytes {
					if doFlush() {
						return
					}
				}
			}
		}
	}
}

// infer converts the buffered PCM audio to float32, runs whisper.cpp
// inference using a fresh context, and returns the concatenated text.
func (u *utterance) infer(pcm []byte) (string, error) {
	samples := pcmToFloat32Mono(pcm, u.channels)

	// Each whisper context is NOT thread-safe, but the model can be shared
	// across goroutines.
	wctx, err := u.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(u.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", u.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}

// Compile-time assertion that utterance satisfies stt.Utterance.
var _ stt.Utterance = (*utterance)(nil)
