package speech

import (
	"context"
	"log/slog"
	"sync"

	"github.com/remindai/remind/pkg/provider/stt"
)

const defaultSampleRate = 16000

// ListenerOption is a functional option for configuring a [Listener].
type ListenerOption func(*Listener)

// WithSampleRate sets the PCM sample rate requested from the STT provider.
// Default: 16000 Hz.
func WithSampleRate(rate int) ListenerOption {
	return func(l *Listener) {
		l.sampleRate = rate
	}
}

// Listener runs single-utterance recognition sessions against an STT
// provider. At most one session is active at a time: Start stops any prior
// session before opening a new one.
//
// All methods are safe for concurrent use.
type Listener struct {
	provider   stt.Provider
	settings   *Settings
	sampleRate int

	mu     sync.Mutex
	active *listenSession
}

var _ Input = (*Listener)(nil)

type listenSession struct {
	utt     stt.Utterance
	cancel  context.CancelFunc
	endOnce sync.Once
	onEnd   func()
}

// NewListener returns a Listener using the given provider and settings.
// provider may be nil, in which case Start logs and fires onEnd immediately
// so callers never wait on a session that cannot happen.
func NewListener(provider stt.Provider, settings *Settings, opts ...ListenerOption) *Listener {
	l := &Listener{
		provider:   provider,
		settings:   settings,
		sampleRate: defaultSampleRate,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Start begins a recognition session. onResult fires at most once with the
// best transcript; onEnd fires exactly once when the session terminates, on
// every path: transcript delivered, provider error, explicit Stop, or
// recognition being unavailable.
func (l *Listener) Start(ctx context.Context, onResult func(text string), onEnd func()) {
	l.Stop()

	if l.provider == nil {
		slog.Warn("speech: no stt provider configured, recognition unavailable")
		onEnd()
		return
	}

	cfg := stt.UtteranceConfig{
		SampleRate: l.sampleRate,
		Channels:   1,
		Locale:     l.settings.Locale(),
	}

	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	utt, err := l.provider.StartUtterance(sessCtx, cfg)
	if err != nil {
		slog.Warn("speech: failed to start recognition session", "error", err)
		cancel()
		onEnd()
		return
	}

	sess := &listenSession{utt: utt, cancel: cancel, onEnd: onEnd}

	l.mu.Lock()
	l.active = sess
	l.mu.Unlock()

	go l.consume(sess, onResult)
}

// Stop ends the active session, if any. The session's onEnd still fires
// (from the consuming goroutine); calling Stop while idle is a no-op.
func (l *Listener) Stop() {
	l.mu.Lock()
	sess := l.active
	l.mu.Unlock()
	if sess == nil {
		return
	}
	if err := sess.utt.Close(); err != nil {
		slog.Warn("speech: failed to stop recognition session", "error", err)
		// Close failed, the result channel may never close. Fire onEnd here
		// so the caller still leaves the listening state.
		l.finish(sess)
	}
}

// SendAudio forwards a PCM chunk to the active recognition session. Chunks
// arriving while no session is active are dropped.
func (l *Listener) SendAudio(chunk []byte) error {
	l.mu.Lock()
	sess := l.active
	l.mu.Unlock()
	if sess == nil {
		return nil
	}
	return sess.utt.SendAudio(chunk)
}

// consume reads the session's single transcript, then fires onEnd when the
// result channel closes.
func (l *Listener) consume(sess *listenSession, onResult func(text string)) {
	for t := range sess.utt.Result() {
		slog.Debug("speech: transcript received",
			"text", t.Text,
			"confidence", t.Confidence,
			"duration", t.Duration,
		)
		onResult(t.Text)
	}
	l.finish(sess)
}

// finish fires the session's onEnd exactly once and releases it.
func (l *Listener) finish(sess *listenSession) {
	sess.endOnce.Do(func() {
		l.mu.Lock()
		if l.active == sess {
			l.active = nil
		}
		l.mu.Unlock()
		sess.cancel()
		sess.onEnd()
	})
}
