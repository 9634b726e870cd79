package speech

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/remindai/remind/pkg/provider/tts"
)

// SinkFunc consumes the PCM audio of one synthesized utterance. It is called
// from the utterance goroutine and should return when pcm is closed or ctx
// is cancelled.
type SinkFunc func(ctx context.Context, pcm <-chan []byte) error

// SpeakerOption is a functional option for configuring a [Speaker].
type SpeakerOption func(*Speaker)

// WithVoice sets the synthesis voice. Default: the provider's default voice
// (zero value).
func WithVoice(voice tts.Voice) SpeakerOption {
	return func(s *Speaker) {
		s.voice = voice
	}
}

// WithSink sets the audio sink receiving synthesized PCM. Default: drain and
// discard, for deployments where the client does its own synthesis.
func WithSink(sink SinkFunc) SpeakerOption {
	return func(s *Speaker) {
		s.sink = sink
	}
}

// Speaker speaks confirmation prompts through a TTS provider. At most one
// utterance is active at a time: a new Speak cancels the previous one (last
// request wins, no queueing).
//
// All methods are safe for concurrent use.
type Speaker struct {
	provider tts.Provider
	settings *Settings
	voice    tts.Voice
	sink     SinkFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Output = (*Speaker)(nil)

// NewSpeaker returns a Speaker using the given provider and settings.
// provider may be nil, in which case every Speak is a logged no-op.
func NewSpeaker(provider tts.Provider, settings *Settings, opts ...SpeakerOption) *Speaker {
	s := &Speaker{
		provider: provider,
		settings: settings,
		sink:     drainSink,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Speak starts synthesis of text, cancelling any in-flight utterance first.
// It returns once the utterance goroutine is started; playback completes in
// the background. Empty text, a missing provider, and disabled voice output
// are all no-ops.
func (s *Speaker) Speak(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if s.provider == nil {
		slog.Debug("speech: no tts provider configured, skipping utterance", "text", text)
		return
	}
	if !s.settings.OutputEnabled() {
		slog.Debug("speech: voice output disabled, skipping utterance", "text", text)
		return
	}

	// The utterance must survive the caller's (often request-scoped) context;
	// it is cancelled only by the next Speak or by Close.
	uttCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(uttCtx, text)
	}()
}

// Close cancels any in-flight utterance and waits for it to finish.
func (s *Speaker) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Speaker) run(ctx context.Context, text string) {
	voice := s.voice
	voice.Rate = s.settings.Rate()

	pcm, err := s.provider.Synthesize(ctx, text, voice)
	if err != nil {
		slog.Warn("speech: synthesis failed", "text", text, "error", err)
		return
	}
	if err := s.sink(ctx, pcm); err != nil && ctx.Err() == nil {
		slog.Warn("speech: audio playback failed", "error", err)
	}
}

// drainSink discards synthesized audio. Used when no sink is configured
// because the client plays its own audio.
func drainSink(ctx context.Context, pcm <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-pcm:
			if !ok {
				return nil
			}
		}
	}
}
